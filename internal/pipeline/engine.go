// Package pipeline runs one statement through extraction, scoring and the
// coherence checks, and renders the resulting report.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/promessa/internal/coherence"
	"github.com/ppiankov/promessa/internal/extract"
	"github.com/ppiankov/promessa/internal/model"
	"github.com/ppiankov/promessa/internal/score"
	"github.com/ppiankov/promessa/internal/sources"
	"github.com/ppiankov/promessa/internal/validate"
)

// ErrEmptyInput is returned for statements with no analyzable text
var ErrEmptyInput = extract.ErrEmptyInput

// Request is one statement to analyze
type Request struct {
	Text          string
	Author        string
	Region        string
	Category      model.Category
	SourceURL     string
	SkipCoherence bool
}

// Components are the collaborators of an Engine. Only Extractor is required.
type Components struct {
	Extractor   *extract.Extractor
	Fiscal      sources.FiscalProvider
	Electoral   sources.ElectoralProvider
	Legislative sources.LegislativeProvider
	Logger      *zap.Logger
	Now         func() time.Time
	Classifier  *validate.SourceClassifier // Rates SourceURL; nil skips rating
	Notes       []string                   // Attached to every report, e.g. skipped providers
}

// Engine analyzes statements
type Engine struct {
	extractor  *extract.Extractor
	fiscal     sources.FiscalProvider
	electoral  sources.ElectoralProvider
	coherence  *coherence.Analyzer
	trajectory *coherence.Trajectory
	scorer     *score.Scorer
	logger     *zap.Logger
	now        func() time.Time
	classifier *validate.SourceClassifier
	notes      []string
}

// NewEngine creates an engine from c
func NewEngine(c Components) *Engine {
	if c.Extractor == nil {
		c.Extractor = extract.NewExtractor()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Now == nil {
		c.Now = time.Now
	}

	return &Engine{
		extractor:  c.Extractor,
		fiscal:     c.Fiscal,
		electoral:  c.Electoral,
		coherence:  coherence.NewAnalyzer(c.Legislative, c.Logger),
		trajectory: coherence.NewTrajectory(c.Fiscal, c.Now, c.Logger),
		scorer:     score.NewScorer(nil, score.WithClock(c.Now), score.WithLogger(c.Logger)),
		logger:     c.Logger,
		now:        c.Now,
		classifier: c.Classifier,
		notes:      c.Notes,
	}
}

// Trajectory exposes the budget trajectory analyzer
func (e *Engine) Trajectory() *coherence.Trajectory {
	return e.trajectory
}

// Coherence exposes the voting record analyzer
func (e *Engine) Coherence() *coherence.Analyzer {
	return e.coherence
}

// Analyze runs the full analysis of req. It fails only when req has no text;
// unavailable sources degrade the report instead.
func (e *Engine) Analyze(ctx context.Context, req Request) (*model.AnalysisReport, error) {
	start := e.now()

	res, err := e.extractor.Extract(ctx, req.Text)
	if err != nil {
		return nil, err
	}

	report := &model.AnalysisReport{
		ID:        uuid.NewString(),
		CreatedAt: start.UTC(),
		Author:    req.Author,
		Region:    req.Region,
		Category:  req.Category,
		Text:      extract.NormalizeInput(req.Text),
		SourceURL: req.SourceURL,
		Claims:    res.Claims,

		Extraction: res.Extraction,
	}

	lookups := newMemo(e.fiscal, e.electoral, req.Region)
	scorer := e.scorer.WithLookups(lookups)
	trajectory := coherence.NewTrajectory(lookups, e.now, e.logger)

	categories := claimCategories(res.Claims)
	trajectories := make([]model.TrajectoryAnalysis, len(categories))
	checks := make([][]model.TrajectoryCheck, len(categories))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		report.Viability = scorer.ScoreViability(gctx, res.Claims, req.Author, req.Category)
		return nil
	})

	if req.Author != "" && !req.SkipCoherence {
		g.Go(func() error {
			texts := make([]string, len(res.Claims))
			for i, c := range res.Claims {
				texts[i] = c.Text
			}
			cr := e.coherence.AnalyzeCoherence(gctx, req.Author, texts)
			report.Coherence = &cr
			return nil
		})
	}

	for i, category := range categories {
		i, category := i, category
		g.Go(func() error {
			a := trajectory.AnalyzeTrajectory(gctx, category)
			trajectories[i] = a
			for _, c := range res.Claims {
				if c.Category != category {
					continue
				}
				checks[i] = append(checks[i], coherence.Check(a, c.Text, extract.LargestAmount(c.Entities.Numbers)))
			}
			return nil
		})
	}

	// every task degrades instead of failing
	_ = g.Wait()

	report.Trajectories = trajectories
	for _, cs := range checks {
		report.TrajectoryChecks = append(report.TrajectoryChecks, cs...)
	}
	report.Notes = append(append([]string{}, e.notes...), degradedNotes(lookups.budgets())...)
	if req.SourceURL != "" && e.classifier != nil {
		report.SourceTier, _ = e.classifier.Classify(req.SourceURL)
		if note := e.classifier.Note(req.SourceURL); note != "" {
			report.Notes = append(report.Notes, note)
		}
	}
	if report.Extraction.Path == model.SourceRules && len(res.Claims) > 0 {
		report.Notes = append(report.Notes, "Claims extracted by lexicon rules; AI extraction was unavailable or found nothing")
	}

	e.logger.Info("analysis complete",
		zap.String("id", report.ID),
		zap.String("author", req.Author),
		zap.Int("claims", len(res.Claims)),
		zap.String("path", report.Extraction.Path),
		zap.Float64("score", report.Viability.Score),
		zap.String("risk", string(report.Viability.RiskLevel)),
		zap.Duration("elapsed", e.now().Sub(start)))

	return report, nil
}

// claimCategories returns the distinct specific categories of claims in a
// stable order
func claimCategories(claims []model.PromiseClaim) []model.Category {
	seen := map[model.Category]bool{}
	var out []model.Category
	for _, c := range claims {
		if c.Category == model.CategoryGeneral || c.Category == "" || seen[c.Category] {
			continue
		}
		seen[c.Category] = true
		out = append(out, c.Category)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func degradedNotes(records []*model.BudgetRecord) []string {
	var notes []string
	for _, rec := range records {
		if rec.Source != model.RecordSourceStale && rec.Source != model.RecordSourceFallback {
			continue
		}
		notes = append(notes, fmt.Sprintf("Fiscal data for %s %d served from %s source (confidence %.2f)",
			strings.ToLower(string(rec.Category)), rec.Year, rec.Source, rec.Confidence))
	}
	sort.Strings(notes)
	return notes
}
