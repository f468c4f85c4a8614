package coherence

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/promessa/internal/extract"
	"github.com/ppiankov/promessa/internal/model"
	"github.com/ppiankov/promessa/internal/sources"
)

const (
	trajectoryYears = 5
	minTrendPoints  = 3

	// slope relative to the mean beyond which a series is trending
	trendRatio = 0.05

	anomalySigmas  = 2.0
	estimateSigmas = 3.0
)

var (
	reductionPattern = regexp.MustCompile(`\b(cortar|reduzir|diminuir|conter|economizar)\b`)
	expansionPattern = regexp.MustCompile(`\b(aumentar|investir|criar|expandir|construir)\b`)
)

// Trajectory analyzes the recent authorized budget series of a category
type Trajectory struct {
	fiscal sources.FiscalProvider
	now    func() time.Time
	logger *zap.Logger
}

// NewTrajectory creates a trajectory analyzer. A nil now uses time.Now.
func NewTrajectory(fiscal sources.FiscalProvider, now func() time.Time, logger *zap.Logger) *Trajectory {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trajectory{fiscal: fiscal, now: now, logger: logger}
}

// AnalyzeTrajectory summarizes budgeted spending for category over the five
// years before the current one. Synthetic fallback records are left out, so
// an unreachable source yields a short, stable series.
func (t *Trajectory) AnalyzeTrajectory(ctx context.Context, category model.Category) model.TrajectoryAnalysis {
	end := t.now().Year() - 1
	start := end - trajectoryYears + 1

	var history []model.BudgetRecord
	if t.fiscal != nil {
		var err error
		history, err = t.fiscal.History(ctx, category, start, end)
		if err != nil {
			t.logger.Warn("budget history unavailable",
				zap.String("category", string(category)), zap.Error(err))
			history = nil
		}
	}

	years := make([]int, 0, len(history))
	values := make([]float64, 0, len(history))
	for _, rec := range history {
		if rec.Source == model.RecordSourceFallback {
			continue
		}
		years = append(years, rec.Year)
		values = append(values, rec.Budgeted)
	}

	return Analyze(category, years, values)
}

// Analyze computes the trend statistics of a year-ordered series
func Analyze(category model.Category, years []int, values []float64) model.TrajectoryAnalysis {
	a := model.TrajectoryAnalysis{
		Category: category,
		Years:    years,
		Values:   values,
		Trend:    model.TrendStable,
	}
	if a.Years == nil {
		a.Years = []int{}
	}
	if a.Values == nil {
		a.Values = []float64{}
	}

	n := len(values)
	if n == 0 {
		return a
	}
	a.LastValue = values[n-1]

	var sum float64
	for _, v := range values {
		sum += v
	}
	a.Mean = sum / float64(n)

	var sq float64
	for _, v := range values {
		sq += (v - a.Mean) * (v - a.Mean)
	}
	a.StdDev = math.Sqrt(sq / float64(n))

	if n < minTrendPoints {
		return a
	}

	// least squares over x = 0..n-1
	xMean := float64(n-1) / 2
	var num, den float64
	for i, v := range values {
		dx := float64(i) - xMean
		num += dx * (v - a.Mean)
		den += dx * dx
	}
	if den > 0 {
		a.Slope = num / den
	}

	threshold := trendRatio * a.Mean
	switch {
	case a.Slope > threshold:
		a.Trend = model.TrendIncreasing
	case a.Slope < -threshold:
		a.Trend = model.TrendDecreasing
	}

	a.IsAnomaly = math.Abs(a.LastValue-a.Mean) > anomalySigmas*a.StdDev
	return a
}

// CheckTrajectoryContradiction compares a claim with the budget trajectory
// of its category. estimatedValue is the claimed amount in BRL, or 0.
func (t *Trajectory) CheckTrajectoryContradiction(ctx context.Context, claimText string, category model.Category, estimatedValue float64) model.TrajectoryCheck {
	return Check(t.AnalyzeTrajectory(ctx, category), claimText, estimatedValue)
}

// Check judges claimText against an existing analysis
func Check(a model.TrajectoryAnalysis, claimText string, estimatedValue float64) model.TrajectoryCheck {
	check := model.TrajectoryCheck{
		ClaimText: claimText,
		Category:  a.Category,
		Severity:  model.SeverityLow,
		Trend:     a.Trend,
		Reason:    "The promise is consistent with the historical trajectory or the data is inconclusive.",
	}

	text := extract.Fold(claimText)
	switch {
	case a.Trend == model.TrendIncreasing && reductionPattern.MatchString(text):
		check.IsContradictory = true
		check.Severity = model.SeverityMedium
		check.Reason = fmt.Sprintf("The promised reduction runs against the historical growth of %s spending.", a.Category)
	case a.Trend == model.TrendDecreasing && expansionPattern.MatchString(text):
		check.IsContradictory = true
		check.Severity = model.SeverityHigh
		check.Reason = fmt.Sprintf("The promised expansion is highly unlikely given successive cuts in %s.", a.Category)
	}

	if estimatedValue > 0 && a.StdDev > 0 && estimatedValue-a.Mean > estimateSigmas*a.StdDev {
		check.Reason += fmt.Sprintf(" The estimated value of %.0f BRL is far outside the historical range (mean %.0f, σ %.0f).",
			estimatedValue, a.Mean, a.StdDev)
		if check.Severity.Rank() < model.SeverityMedium.Rank() {
			check.Severity = model.SeverityMedium
		}
	}
	return check
}

// Describe is a one-line account of the trend
func Describe(a model.TrajectoryAnalysis) string {
	switch a.Trend {
	case model.TrendIncreasing:
		return fmt.Sprintf("Upward trend over the last %d years.", len(a.Values))
	case model.TrendDecreasing:
		return fmt.Sprintf("Downward trend over the last %d years.", len(a.Values))
	default:
		return fmt.Sprintf("Stable over the last %d years.", len(a.Values))
	}
}
