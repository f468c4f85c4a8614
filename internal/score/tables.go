package score

import (
	"regexp"

	"github.com/ppiankov/promessa/internal/model"
)

// Factor weights; they sum to 1
const (
	weightSpecificity = 0.20
	weightHistorical  = 0.25
	weightBudget      = 0.25
	weightTimeline    = 0.10
	weightAuthor      = 0.20
)

// Risk tier thresholds on the final score
const (
	lowRiskThreshold    = 0.60
	mediumRiskThreshold = 0.35
)

// historicalCompliance is the share of past promises kept per category
var historicalCompliance = map[model.Category]float64{
	model.CategoryInfrastructure: 0.35,
	model.CategoryEducation:      0.45,
	model.CategoryHealth:         0.40,
	model.CategoryEmployment:     0.30,
	model.CategorySecurity:       0.25,
	model.CategoryEnvironment:    0.20,
	model.CategorySocial:         0.35,
	model.CategoryEconomy:        0.30,
	model.CategoryAgriculture:    0.40,
	model.CategoryCulture:        0.50,
}

const defaultHistoricalCompliance = 0.35

// budgetPrior is the expected feasibility of a category without live data
var budgetPrior = map[model.Category]float64{
	model.CategoryInfrastructure: 0.4,
	model.CategoryEducation:      0.6,
	model.CategoryHealth:         0.5,
	model.CategoryEmployment:     0.3,
	model.CategorySecurity:       0.5,
	model.CategoryEnvironment:    0.3,
	model.CategorySocial:         0.4,
	model.CategoryEconomy:        0.5,
	model.CategoryAgriculture:    0.4,
	model.CategoryCulture:        0.3,
}

const defaultBudgetPrior = 0.5

// Data confidence substitutes
const (
	unknownAuthorConfidence = 0.8
	missingBudgetConfidence = 0.5
)

func lookup(table map[model.Category]float64, c model.Category, fallback float64) float64 {
	if v, ok := table[c]; ok {
		return v
	}
	return fallback
}

// Patterns run against folded (lowercase, accent-free) claim text
var (
	digitPattern    = regexp.MustCompile(`\d`)
	deadlinePattern = regexp.MustCompile(`\b(ate|prazo|dias?|semanas?|mes|meses|anos?|mandato|primeiro ano|202[5-9]|2030)\b`)
	actionPattern   = regexp.MustCompile(`\b(construir|contratar|investir|implantar|criar|ampliar|reduzir|reformar|entregar|pavimentar|instalar|abrir|zerar|dobrar|duplicar)\b`)

	largeWorksPattern = regexp.MustCompile(`\b(hospita(l|is)|pontes?|rodovias?|ferrovias?|metro|aeroportos?|estradas?|viadutos?|usinas?|portos?|barragens?|hidreletricas?|linhas? de metro)\b`)
	subYearPattern    = regexp.MustCompile(`\b(\d+\s*(dias?|semanas?)|([1-9]|1[01])\s*(meses|mes))\b`)
	fullTermPattern   = regexp.MustCompile(`\b(4 anos|quatro anos|mandato)\b`)
	durationPattern   = regexp.MustCompile(`(\d+)\s*(dias?|semanas?|meses|mes|anos?)\b`)
)

// Claims longer than this are considered detailed
const detailedClaimLength = 120
