// Package coherence compares promises with what their author did before:
// recorded legislative votes and the budget trajectory of the promised area.
package coherence

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/promessa/internal/extract"
	"github.com/ppiankov/promessa/internal/model"
	"github.com/ppiankov/promessa/internal/sources"
)

const (
	// RelevanceThreshold is the keyword overlap above which a vote concerns a promise
	RelevanceThreshold = 0.6

	highRelevance   = 0.8
	mediumRelevance = 0.7
)

// opposingChoices are folded vote choices that count against a promise.
// Obstruction and "contra" are recorded by the Câmara as forms of voting no.
var opposingChoices = map[string]struct{}{
	"nao":       {},
	"abstencao": {},
	"obstrucao": {},
	"contra":    {},
}

// Analyzer matches claims against a legislator's votes
type Analyzer struct {
	legislative sources.LegislativeProvider
	logger      *zap.Logger
}

// NewAnalyzer creates an analyzer. A nil logger is replaced by a no-op.
func NewAnalyzer(legislative sources.LegislativeProvider, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{legislative: legislative, logger: logger}
}

// AnalyzeCoherence reports votes by name that oppose claimTexts. Source
// failures are logged and treated as an empty voting record.
func (a *Analyzer) AnalyzeCoherence(ctx context.Context, name string, claimTexts []string) model.CoherenceReport {
	report := model.CoherenceReport{
		Contradictions: []model.CoherenceCase{},
		CoherenceScore: 100,
	}

	if len(claimTexts) == 0 {
		report.Summary = "No promises to compare with the legislative record."
		return report
	}

	var votes []model.VoteRecord
	if a.legislative != nil && name != "" {
		var err error
		votes, err = a.legislative.VotesFor(ctx, name)
		if err != nil {
			a.logger.Warn("legislative record unavailable", zap.String("name", name), zap.Error(err))
			votes = nil
		}
	}
	report.VotesAnalyzed = len(votes)
	if len(votes) == 0 {
		report.Summary = "No legislative record available for coherence analysis."
		return report
	}
	report.House = votes[0].House

	voteKeywords := make([][]string, len(votes))
	for i, v := range votes {
		voteKeywords[i] = Keywords(v.Description)
	}

	contradicted := 0
	for _, text := range claimTexts {
		promiseKeywords := Keywords(text)
		found := false
		for i, v := range votes {
			if !Opposes(v.Choice) {
				continue
			}
			relevance := Overlap(promiseKeywords, voteKeywords[i])
			if relevance <= RelevanceThreshold {
				continue
			}
			found = true
			report.Contradictions = append(report.Contradictions, model.CoherenceCase{
				PromiseText:    text,
				RelatedVote:    v,
				RelevanceScore: relevance,
				Severity:       SeverityFor(relevance),
				Explanation: fmt.Sprintf("Voted %q on %s (%s), which contradicts the promise %q",
					v.Choice, v.BillID, v.Date, text),
			})
		}
		if found {
			contradicted++
		}
	}

	report.CoherenceScore = Score(len(claimTexts), len(report.Contradictions))
	if len(report.Contradictions) == 0 {
		report.Summary = fmt.Sprintf("No contradictions found across %d promises and %d votes.",
			len(claimTexts), len(votes))
	} else {
		report.Summary = fmt.Sprintf("%d contradictions found: %d of %d promises conflict with %d analyzed votes.",
			len(report.Contradictions), contradicted, len(claimTexts), len(votes))
	}

	a.logger.Debug("coherence analyzed",
		zap.String("name", name),
		zap.Int("votes", len(votes)),
		zap.Int("contradictions", len(report.Contradictions)),
		zap.Float64("score", report.CoherenceScore))
	return report
}

// Opposes reports whether a vote choice counts against a promise
func Opposes(choice string) bool {
	_, ok := opposingChoices[extract.Fold(strings.TrimSpace(choice))]
	return ok
}

// SeverityFor grades a contradiction by keyword relevance
func SeverityFor(relevance float64) model.Severity {
	switch {
	case relevance > highRelevance:
		return model.SeverityHigh
	case relevance > mediumRelevance:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// Score is 100 minus contradictions per promise as a percentage, floored at 0.
// Every opposing vote counts, so one promise can account for several.
func Score(promises, contradictions int) float64 {
	if promises <= 0 {
		return 100
	}
	s := 100 - float64(contradictions)/float64(promises)*100
	if s < 0 {
		return 0
	}
	return s
}
