// Package extract turns political statements into promise claims. The AI
// path runs first; the lexicon-driven rules take over when every provider
// fails or the model finds nothing.
package extract

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/promessa/internal/llm"
	"github.com/ppiankov/promessa/internal/model"
)

// ErrEmptyInput is returned when there is no text left to analyze
var ErrEmptyInput = errors.New("empty input")

// Analyzer is the AI side of extraction, satisfied by *llm.Orchestrator
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*llm.AnalysisOutput, error)
}

// Result is the outcome of one extraction
type Result struct {
	Claims     []model.PromiseClaim
	Extraction model.Extraction
}

// Extractor combines the AI and rule paths
type Extractor struct {
	ai        Analyzer
	rules     *RuleExtractor
	threshold float64
	logger    *zap.Logger
}

// Option configures an Extractor
type Option func(*Extractor)

// WithAnalyzer enables the AI path
func WithAnalyzer(a Analyzer) Option {
	return func(e *Extractor) { e.ai = a }
}

// WithDedupThreshold sets the Jaccard threshold for merging claims
func WithDedupThreshold(t float64) Option {
	return func(e *Extractor) { e.threshold = t }
}

// WithLexicon replaces the default lexicon
func WithLexicon(lex Lexicon) Option {
	return func(e *Extractor) { e.rules = NewRuleExtractor(lex) }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExtractor creates an extractor. Without an analyzer only rules run.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		rules:     NewRuleExtractor(DefaultLexicon()),
		threshold: DefaultDedupThreshold,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractClaims returns the deduplicated claims in text
func (e *Extractor) ExtractClaims(ctx context.Context, text string) ([]model.PromiseClaim, error) {
	res, err := e.Extract(ctx, text)
	if err != nil {
		return nil, err
	}
	return res.Claims, nil
}

// Extract normalizes text, tries the AI path and falls back to rules
func (e *Extractor) Extract(ctx context.Context, text string) (*Result, error) {
	text = NormalizeInput(text)
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	if e.ai != nil {
		out, err := e.ai.Analyze(ctx, text)
		switch {
		case err != nil:
			e.logger.Warn("AI extraction failed, using rules", zap.Error(err))
		case len(out.Promises) == 0:
			e.logger.Info("AI found no promises, using rules", zap.String("provider", out.Provider))
		default:
			return &Result{
				Claims: Dedupe(e.enrich(out.Promises), e.threshold),
				Extraction: model.Extraction{
					Path:     model.SourceAI,
					Provider: out.Provider,
					Warnings: out.Warnings,
					Verdict:  verdictOf(out),
				},
			}, nil
		}
	}

	return &Result{
		Claims:     Dedupe(e.rules.Extract(text), e.threshold),
		Extraction: model.Extraction{Path: model.SourceRules},
	}, nil
}

// enrich fills entities and scope on AI claims from the lexicon
func (e *Extractor) enrich(claims []model.PromiseClaim) []model.PromiseClaim {
	out := make([]model.PromiseClaim, len(claims))
	for i, c := range claims {
		c.Entities = e.rules.EntitiesOf(c.Text)
		if c.Scope == "" {
			c.Scope = ScopeOf(c.Text)
		}
		out[i] = c
	}
	return out
}

func verdictOf(out *llm.AnalysisOutput) string {
	if len(out.Verdict.Facts) == 0 && len(out.Verdict.Skepticism) == 0 {
		return out.OverallSentiment
	}
	parts := append(append([]string{}, out.Verdict.Facts...), out.Verdict.Skepticism...)
	return out.OverallSentiment + ": " + strings.Join(parts, "; ")
}
