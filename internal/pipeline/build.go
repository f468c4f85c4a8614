package pipeline

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ppiankov/promessa/internal/cache"
	"github.com/ppiankov/promessa/internal/extract"
	"github.com/ppiankov/promessa/internal/llm"
	"github.com/ppiankov/promessa/internal/model"
	"github.com/ppiankov/promessa/internal/resilience"
	"github.com/ppiankov/promessa/internal/sources"
	"github.com/ppiankov/promessa/internal/validate"
)

// Runtime holds everything built from a configuration
type Runtime struct {
	Engine      *Engine
	Fetcher     *Fetcher
	Cache       cache.Cache
	Breakers    *resilience.Registry
	Fiscal      *sources.Fiscal
	Electoral   *sources.Electoral
	Legislative *sources.Legislative
	Providers   []string
}

// Close releases the cache
func (r *Runtime) Close() error {
	if c, ok := r.Cache.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Build wires the engine and its dependencies from cfg. reg may be nil.
func Build(cfg *model.Config, logger *zap.Logger, reg prometheus.Registerer) (*Runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	breakers := resilience.NewRegistry(resilience.Config{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		ResetTimeout:     cfg.Breaker.ResetTimeout,
		SuccessThreshold: cfg.Breaker.SuccessThreshold,
	}, resilience.WithLogger(logger), resilience.WithMetrics(resilience.NewMetrics(reg)))

	deps := sources.Deps{
		Client:   sources.NewClient(cfg.Sources, logger),
		Cache:    c,
		Breakers: breakers,
		CacheTTL: cfg.Sources.CacheTTL,
		Logger:   logger,
	}
	fiscal := sources.NewFiscal(cfg.Sources.SiconfiURL, deps)
	electoral := sources.NewElectoral(cfg.Sources.TSEURL, deps)
	legislative := sources.NewLegislative(cfg.Sources.CamaraURL, cfg.Sources.SenadoURL, deps)

	providers, skipped, err := llm.NewProviders(cfg.LLM, cfg.Sources)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	for _, s := range skipped {
		logger.Warn("LLM provider skipped", zap.String("reason", s))
	}

	opts := []extract.Option{
		extract.WithDedupThreshold(cfg.Extract.DedupThreshold),
		extract.WithLogger(logger),
	}
	var names []string
	if len(providers) > 0 {
		orch := llm.NewOrchestrator(providers, llm.WithLogger(logger), llm.WithMetrics(llm.NewMetrics(reg)))
		opts = append(opts, extract.WithAnalyzer(orch))
		names = orch.Providers()
	}

	var notes []string
	if cfg.LLM.Enabled && len(providers) == 0 {
		notes = append(notes, "No LLM provider configured; claims come from lexicon rules only")
	}

	engine := NewEngine(Components{
		Extractor:   extract.NewExtractor(opts...),
		Fiscal:      fiscal,
		Electoral:   electoral,
		Legislative: legislative,
		Logger:      logger,
		Classifier:  validate.NewSourceClassifier(cfg.HTTP.Transcripts),
		Notes:       notes,
	})

	return &Runtime{
		Engine: engine,
		Fetcher: NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes, cfg.HTTP.RespectRobots,
			cfg.Sources.HTTPProxy, cfg.Sources.HTTPSProxy, cfg.Sources.NoProxy),
		Cache:       c,
		Breakers:    breakers,
		Fiscal:      fiscal,
		Electoral:   electoral,
		Legislative: legislative,
		Providers:   names,
	}, nil
}
