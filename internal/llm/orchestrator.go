package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ppiankov/promessa/internal/util"
)

// Attempt outcomes recorded in metrics
const (
	outcomeSuccess = "success"
	outcomeTimeout = "timeout"
	outcomeFailure = "unavailable"
)

// Metrics records provider attempts. A nil *Metrics records nothing.
type Metrics struct {
	attempts *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates provider collectors and registers them on reg.
// A nil reg leaves the collectors unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "promessa_llm_attempts_total",
			Help: "AI provider attempts by provider and outcome",
		}, []string{"provider", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "promessa_llm_attempt_duration_seconds",
			Help:    "AI provider attempt latency",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 90},
		}, []string{"provider"}),
	}
	if reg != nil {
		m.attempts = util.RegisterOrReuse(reg, m.attempts)
		m.duration = util.RegisterOrReuse(reg, m.duration)
	}
	return m
}

func (m *Metrics) observe(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(provider, outcome).Inc()
	m.duration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// Orchestrator tries providers strictly in order until one answers
type Orchestrator struct {
	providers []Provider
	logger    *zap.Logger
	metrics   *Metrics
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the logger used for provider failures
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records attempts on m
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// NewOrchestrator creates an orchestrator over an ordered provider chain
func NewOrchestrator(providers []Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		providers: providers,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Providers returns the names of the configured providers in order
func (o *Orchestrator) Providers() []string {
	names := make([]string, len(o.providers))
	for i, p := range o.providers {
		names[i] = p.Name()
	}
	return names
}

// Complete returns the first non-empty answer in provider order
func (o *Orchestrator) Complete(ctx context.Context, prompt string) (string, error) {
	var text string
	_, err := o.run(ctx, prompt, func(raw string) error {
		text = raw
		return nil
	})
	return text, err
}

// Analyze runs the extraction prompt and normalizes the first decodable
// answer. Undecodable output counts as a provider failure.
func (o *Orchestrator) Analyze(ctx context.Context, text string) (*AnalysisOutput, error) {
	var out *AnalysisOutput
	provider, err := o.run(ctx, BuildAnalysisPrompt(text), func(raw string) error {
		parsed, err := Normalize(raw)
		if err != nil {
			return err
		}
		out = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	out.Provider = provider
	return out, nil
}

// run sends prompt to each provider until accept succeeds. It returns the
// name of the provider that answered.
func (o *Orchestrator) run(ctx context.Context, prompt string, accept func(string) error) (string, error) {
	var errs []error

	for _, p := range o.providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, classify(p.Name(), err))
			break
		}

		start := time.Now()
		raw, err := p.Complete(ctx, prompt)
		if err == nil {
			err = accept(raw)
		}
		elapsed := time.Since(start)

		if err == nil {
			o.metrics.observe(p.Name(), outcomeSuccess, elapsed)
			o.logger.Debug("provider answered",
				zap.String("provider", p.Name()),
				zap.Duration("elapsed", elapsed))
			return p.Name(), nil
		}

		perr := classify(p.Name(), err)
		outcome := outcomeFailure
		if errors.Is(perr, ErrProviderTimeout) {
			outcome = outcomeTimeout
		}
		o.metrics.observe(p.Name(), outcome, elapsed)
		o.logger.Warn("provider failed, trying next",
			zap.String("provider", p.Name()),
			zap.String("outcome", outcome),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		errs = append(errs, perr)
	}

	if len(errs) == 0 {
		return "", fmt.Errorf("%w: no providers configured", ErrProviderExhausted)
	}
	return "", fmt.Errorf("%w: %w", ErrProviderExhausted, errors.Join(errs...))
}
