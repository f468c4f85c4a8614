package sources

import (
	"time"

	"github.com/ppiankov/promessa/internal/model"
)

const (
	fallbackConfidence = 0.3
	staleConfidence    = 0.7
)

// budgetAverage is a rough federal yearly figure in BRL
type budgetAverage struct {
	budgeted float64
	executed float64
}

// Order-of-magnitude federal averages for recent fiscal years. Used only
// when SICONFI is unreachable and nothing was ever cached.
var historicalAverages = map[model.Category]budgetAverage{
	model.CategoryEducation:      {budgeted: 180e9, executed: 155e9},
	model.CategoryHealth:         {budgeted: 200e9, executed: 182e9},
	model.CategoryInfrastructure: {budgeted: 60e9, executed: 34e9},
	model.CategoryEmployment:     {budgeted: 80e9, executed: 71e9},
	model.CategoryEconomy:        {budgeted: 50e9, executed: 39e9},
	model.CategorySecurity:       {budgeted: 20e9, executed: 15e9},
	model.CategoryEnvironment:    {budgeted: 4e9, executed: 2.4e9},
	model.CategorySocial:         {budgeted: 250e9, executed: 236e9},
	model.CategoryAgriculture:    {budgeted: 30e9, executed: 22e9},
	model.CategoryTransport:      {budgeted: 25e9, executed: 16e9},
}

var defaultAverage = budgetAverage{budgeted: 50e9, executed: 35e9}

// historicalAverage builds a low-confidence substitute record
func historicalAverage(category model.Category, year int, sphere model.Sphere, now time.Time) *model.BudgetRecord {
	avg, ok := historicalAverages[category]
	if !ok {
		avg = defaultAverage
	}
	return &model.BudgetRecord{
		Year:          year,
		Sphere:        sphere,
		Category:      category,
		Budgeted:      avg.budgeted,
		Executed:      avg.executed,
		ExecutionRate: model.ExecutionRate(avg.budgeted, avg.executed),
		FetchedAt:     now,
		Confidence:    fallbackConfidence,
		Source:        model.RecordSourceFallback,
	}
}
