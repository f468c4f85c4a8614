// Package score computes the viability of extracted promises from five
// independent factors. Every factor is explained by a signal carrying the
// formula that produced it.
package score

import (
	"context"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/promessa/internal/extract"
	"github.com/ppiankov/promessa/internal/model"
	"github.com/ppiankov/promessa/internal/sources"
)

// Lookups resolves the external records a score depends on. The pipeline
// supplies a memoized implementation so every factor of one analysis sees
// the same record.
type Lookups interface {
	Budget(ctx context.Context, category model.Category, year int) (*model.BudgetRecord, error)
	Author(ctx context.Context, name string) (*model.PoliticalHistoryRecord, error)
}

// SourceLookups calls the data adapters directly
type SourceLookups struct {
	Fiscal    sources.FiscalProvider
	Electoral sources.ElectoralProvider
	Region    string
}

// Budget returns the federal record for category and year
func (l SourceLookups) Budget(ctx context.Context, category model.Category, year int) (*model.BudgetRecord, error) {
	if l.Fiscal == nil {
		return nil, sources.ErrDataInsufficient
	}
	return l.Fiscal.Fetch(ctx, category, year, model.SphereFederal)
}

// Author returns the electoral history of name in the configured region
func (l SourceLookups) Author(ctx context.Context, name string) (*model.PoliticalHistoryRecord, error) {
	if l.Electoral == nil || name == "" {
		return nil, sources.ErrDataInsufficient
	}
	return l.Electoral.History(ctx, name, l.Region)
}

// Scorer calculates viability and generates signals
type Scorer struct {
	lookups Lookups
	now     func() time.Time
	logger  *zap.Logger
}

// Option configures a Scorer
type Option func(*Scorer)

// WithClock overrides the clock used to pick the budget year
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Scorer) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScorer creates a new scorer. A nil lookups scores from priors alone.
func NewScorer(lookups Lookups, opts ...Option) *Scorer {
	if lookups == nil {
		lookups = SourceLookups{}
	}
	s := &Scorer{
		lookups: lookups,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithLookups returns a copy of s that resolves records through l
func (s *Scorer) WithLookups(l Lookups) *Scorer {
	cp := *s
	cp.lookups = l
	return &cp
}

// ScoreViability scores claims. It never fails: missing records fall back to
// category priors and lower the confidence instead.
func (s *Scorer) ScoreViability(ctx context.Context, claims []model.PromiseClaim, author string, category model.Category) model.ViabilityResult {
	if len(claims) == 0 {
		return model.ViabilityResult{
			Score:      0,
			RiskLevel:  model.RiskHigh,
			Confidence: 0,
			Signals: []model.Signal{{
				Type:        model.SignalSpecificity,
				Severity:    model.SeverityCritical,
				Description: "No promises extracted",
				Data:        map[string]any{"claims": 0},
			}},
		}
	}

	if category == "" || category == model.CategoryGeneral {
		category = dominantCategory(claims)
	}
	budget, history := s.fetch(ctx, category, author)

	var sum model.ViabilityFactors
	var claimConfidence float64
	for _, c := range claims {
		sum.Specificity += Specificity(c.Text)
		sum.TimelineFeasibility += TimelineFeasibility(c.Text)
		sum.HistoricalCompliance += lookup(historicalCompliance, c.Category, defaultHistoricalCompliance)
		sum.BudgetaryFeasibility += budgetaryFeasibility(c, budget)
		sum.AuthorTrack += AuthorTrack(history)
		claimConfidence += c.Confidence
	}

	n := float64(len(claims))
	factors := model.ViabilityFactors{
		Specificity:          model.Clamp01(sum.Specificity / n),
		HistoricalCompliance: model.Clamp01(sum.HistoricalCompliance / n),
		BudgetaryFeasibility: model.Clamp01(sum.BudgetaryFeasibility / n),
		TimelineFeasibility:  model.Clamp01(sum.TimelineFeasibility / n),
		AuthorTrack:          model.Clamp01(sum.AuthorTrack / n),
	}

	score := model.Clamp01(factors.Specificity*weightSpecificity +
		factors.HistoricalCompliance*weightHistorical +
		factors.BudgetaryFeasibility*weightBudget +
		factors.TimelineFeasibility*weightTimeline +
		factors.AuthorTrack*weightAuthor)

	dataConfidence := budgetConfidence(budget)
	if history == nil {
		dataConfidence *= unknownAuthorConfidence
	}

	return model.ViabilityResult{
		Score:      score,
		RiskLevel:  RiskLevel(score),
		Confidence: model.Clamp01(claimConfidence / n * dataConfidence),
		Factors:    factors,
		Signals:    signals(factors, category, budget, history, len(claims)),
	}
}

// fetch resolves the budget and author records concurrently
func (s *Scorer) fetch(ctx context.Context, category model.Category, author string) (*model.BudgetRecord, *model.PoliticalHistoryRecord) {
	var budget *model.BudgetRecord
	var history *model.PoliticalHistoryRecord
	year := s.now().Year() - 1

	var g errgroup.Group
	g.Go(func() error {
		rec, err := s.lookups.Budget(ctx, category, year)
		if err != nil {
			s.logger.Debug("budget lookup unavailable", zap.String("category", string(category)), zap.Error(err))
			return nil
		}
		budget = rec
		return nil
	})
	if author != "" {
		g.Go(func() error {
			rec, err := s.lookups.Author(ctx, author)
			if err != nil {
				s.logger.Debug("author lookup unavailable", zap.String("author", author), zap.Error(err))
				return nil
			}
			history = rec
			return nil
		})
	}
	_ = g.Wait()

	return budget, history
}

// RiskLevel maps a score to its tier
func RiskLevel(score float64) model.RiskLevel {
	switch {
	case score >= lowRiskThreshold:
		return model.RiskLow
	case score >= mediumRiskThreshold:
		return model.RiskMedium
	default:
		return model.RiskHigh
	}
}

// Specificity rewards measurable, dated, actionable and detailed claims
func Specificity(text string) float64 {
	folded := extract.Fold(text)

	score := 0.2
	if digitPattern.MatchString(folded) {
		score += 0.2
	}
	if deadlinePattern.MatchString(folded) {
		score += 0.2
	}
	if actionPattern.MatchString(folded) {
		score += 0.2
	}
	if utf8.RuneCountInString(text) > detailedClaimLength {
		score += 0.2
	}
	return model.Clamp01(score)
}

// TimelineFeasibility penalizes deadlines that are implausibly short or long
func TimelineFeasibility(text string) float64 {
	folded := extract.Fold(text)

	score := 0.5
	if largeWorksPattern.MatchString(folded) && subYearPattern.MatchString(folded) {
		score -= 0.3
	}
	if fullTermPattern.MatchString(folded) {
		score += 0.2
	}

	if m := durationPattern.FindStringSubmatch(folded); m != nil {
		if days := durationDays(m[1], m[2]); days > 0 {
			switch {
			case days < 30:
				score -= 0.2
			case days > 1460:
				score -= 0.1
			}
		}
	}
	return model.Clamp01(score)
}

func durationDays(amount, unit string) int {
	n, err := strconv.Atoi(amount)
	if err != nil {
		return 0
	}
	switch unit {
	case "dia", "dias":
		return n
	case "semana", "semanas":
		return n * 7
	case "mes", "meses":
		return n * 30
	default:
		return n * 365
	}
}

// AuthorTrack scores an author's record; nil is neutral
func AuthorTrack(h *model.PoliticalHistoryRecord) float64 {
	if h == nil {
		return 0.5
	}
	return model.Clamp01(0.5 +
		h.FulfillmentRate/100*0.3 +
		h.ElectionRate/100*0.2 -
		float64(h.Scandals)*0.1)
}

func budgetaryFeasibility(c model.PromiseClaim, rec *model.BudgetRecord) float64 {
	prior := lookup(budgetPrior, c.Category, defaultBudgetPrior)

	score := prior
	if rec != nil {
		score = (rec.ExecutionRate/100)*0.5 + prior*0.5
	}
	if c.Negated {
		score -= 0.1
	}
	return model.Clamp01(score)
}

func budgetConfidence(rec *model.BudgetRecord) float64 {
	switch {
	case rec == nil:
		return missingBudgetConfidence
	case rec.Source == model.RecordSourceLive || rec.Source == model.RecordSourceCache:
		return 1.0
	default:
		return model.Clamp01(rec.Confidence)
	}
}

// dominantCategory returns the most frequent non-GENERAL claim category,
// earliest first on ties
func dominantCategory(claims []model.PromiseClaim) model.Category {
	counts := map[model.Category]int{}
	best := model.CategoryGeneral
	for _, c := range claims {
		if c.Category == model.CategoryGeneral {
			continue
		}
		counts[c.Category]++
		if best == model.CategoryGeneral || counts[c.Category] > counts[best] {
			best = c.Category
		}
	}
	return best
}

func signals(f model.ViabilityFactors, category model.Category, budget *model.BudgetRecord, history *model.PoliticalHistoryRecord, claims int) []model.Signal {
	out := []model.Signal{
		{
			Type:        model.SignalSpecificity,
			Severity:    severityFor(f.Specificity, 0.4, 0.6),
			Description: fmt.Sprintf("Average specificity %.2f over %d claims", f.Specificity, claims),
			Data: map[string]any{
				"value":   f.Specificity,
				"weight":  weightSpecificity,
				"formula": "0.2 + 0.2*digit + 0.2*deadline + 0.2*action_verb + 0.2*(length > 120)",
			},
		},
		{
			Type:        model.SignalHistorical,
			Severity:    severityFor(f.HistoricalCompliance, 0.3, 0.4),
			Description: fmt.Sprintf("Historical compliance %.2f for the claimed categories", f.HistoricalCompliance),
			Data: map[string]any{
				"value":   f.HistoricalCompliance,
				"weight":  weightHistorical,
				"formula": "category compliance table (default 0.35)",
			},
		},
		{
			Type:        model.SignalTimeline,
			Severity:    severityFor(f.TimelineFeasibility, 0.3, 0.5),
			Description: fmt.Sprintf("Timeline feasibility %.2f", f.TimelineFeasibility),
			Data: map[string]any{
				"value":   f.TimelineFeasibility,
				"weight":  weightTimeline,
				"formula": "0.5 - 0.3*(large works in < 1 year) + 0.2*(full term) - 0.2*(< 30 days) - 0.1*(> 4 years)",
			},
		},
	}

	budgetData := map[string]any{
		"value":    f.BudgetaryFeasibility,
		"weight":   weightBudget,
		"category": string(category),
		"formula":  "execution_rate/100*0.5 + category_prior*0.5 - 0.1*negated",
	}
	budgetDesc := fmt.Sprintf("No budget record for %s, using category prior", category)
	if budget != nil {
		budgetData["execution_rate"] = budget.ExecutionRate
		budgetData["year"] = budget.Year
		budgetData["source"] = budget.Source
		budgetDesc = fmt.Sprintf("%s %d budget executed at %.1f%%", category, budget.Year, budget.ExecutionRate)
	} else {
		budgetData["formula"] = "category_prior - 0.1*negated"
	}
	out = append(out, model.Signal{
		Type:        model.SignalBudget,
		Severity:    severityFor(f.BudgetaryFeasibility, 0.3, 0.5),
		Description: budgetDesc,
		Data:        budgetData,
	})

	authorData := map[string]any{
		"value":   f.AuthorTrack,
		"weight":  weightAuthor,
		"formula": "0.5 + fulfillment/100*0.3 + election_rate/100*0.2 - 0.1*scandals",
	}
	authorDesc := "Author unknown, neutral track record"
	if history != nil {
		authorData["election_rate"] = history.ElectionRate
		authorData["fulfillment_rate"] = history.FulfillmentRate
		authorData["scandals"] = history.Scandals
		authorDesc = fmt.Sprintf("%s won %.0f%% of %d candidacies", history.Name, history.ElectionRate, history.Candidacies)
	}
	out = append(out, model.Signal{
		Type:        model.SignalAuthorTrack,
		Severity:    severityFor(f.AuthorTrack, 0.4, 0.5),
		Description: authorDesc,
		Data:        authorData,
	})

	if budget != nil && budget.Source != model.RecordSourceLive && budget.Source != model.RecordSourceCache {
		out = append(out, model.Signal{
			Type:        model.SignalDegradedSource,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("Fiscal source degraded, using %s data", budget.Source),
			Data: map[string]any{
				"source":     budget.Source,
				"confidence": budget.Confidence,
			},
		})
	}

	return out
}

// severityFor grades a factor value: below critical is critical, below warn is a warning
func severityFor(v, critical, warn float64) model.SignalSeverity {
	switch {
	case v < critical:
		return model.SeverityCritical
	case v < warn:
		return model.SeverityWarning
	default:
		return model.SeverityInfo
	}
}
