// Package jobs keeps the public-data caches warm: a syncer that pre-fetches
// fiscal and electoral records and a scheduler that runs it periodically.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/promessa/internal/cache"
	"github.com/ppiankov/promessa/internal/model"
	"github.com/ppiankov/promessa/internal/sources"
	"github.com/ppiankov/promessa/internal/worker"
)

// SyncResult counts what one sync fetched
type SyncResult struct {
	Categories int           `json:"categories"`
	Records    int           `json:"records"`
	Degraded   int           `json:"degraded"` // Stale or fallback records
	Candidates int           `json:"candidates"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"duration"`
}

// SyncerConfig configures a Syncer
type SyncerConfig struct {
	Fiscal     sources.FiscalProvider
	Electoral  sources.ElectoralProvider
	Cache      cache.Cache
	Candidates []model.CandidateRef
	Years      int
	Workers    int
	Logger     *zap.Logger
	Now        func() time.Time
}

// Syncer pre-fetches records so analyses hit the cache
type Syncer struct {
	cfg SyncerConfig
}

// NewSyncer creates a syncer
func NewSyncer(cfg SyncerConfig) *Syncer {
	if cfg.Years <= 0 {
		cfg.Years = 5
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Syncer{cfg: cfg}
}

type syncOutcome struct {
	records  int
	degraded int
}

// SyncAll fetches the federal budget history of every mapped category and
// the electoral history of every configured candidate
func (s *Syncer) SyncAll(ctx context.Context) (SyncResult, error) {
	start := s.cfg.Now()
	end := start.Year() - 1
	first := end - s.cfg.Years + 1

	pool := worker.NewPool[syncOutcome](ctx, s.cfg.Workers)
	pool.Start()

	var result SyncResult
	var labels []string

	if s.cfg.Fiscal != nil {
		for _, category := range model.AllCategories {
			if _, ok := sources.SiconfiCode(category); !ok {
				continue
			}
			category := category
			result.Categories++
			labels = append(labels, "fiscal "+string(category))
			pool.Submit(func(ctx context.Context) (syncOutcome, error) {
				history, err := s.cfg.Fiscal.History(ctx, category, first, end)
				if err != nil {
					return syncOutcome{}, err
				}
				out := syncOutcome{records: len(history)}
				for _, rec := range history {
					if rec.Source == model.RecordSourceStale || rec.Source == model.RecordSourceFallback {
						out.degraded++
					}
				}
				return out, nil
			})
		}
	}

	if s.cfg.Electoral != nil {
		for _, c := range s.cfg.Candidates {
			c := c
			result.Candidates++
			labels = append(labels, "electoral "+c.Name)
			pool.Submit(func(ctx context.Context) (syncOutcome, error) {
				_, err := s.cfg.Electoral.History(ctx, c.Name, c.Region)
				if errors.Is(err, sources.ErrDataInsufficient) {
					return syncOutcome{}, nil
				}
				if err != nil {
					return syncOutcome{}, err
				}
				return syncOutcome{records: 1}, nil
			})
		}
	}

	var errs []error
	for _, r := range pool.Wait() {
		if r.Err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("%s: %w", labels[r.Index], r.Err))
			continue
		}
		result.Records += r.Value.records
		result.Degraded += r.Value.degraded
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	result.Duration = s.cfg.Now().Sub(start)

	s.cfg.Logger.Info("public data sync finished",
		zap.Int("categories", result.Categories),
		zap.Int("candidates", result.Candidates),
		zap.Int("records", result.Records),
		zap.Int("degraded", result.Degraded),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", result.Duration))

	return result, errors.Join(errs...)
}

// SyncWithRetry runs SyncAll up to attempts times, waiting delay between tries
func (s *Syncer) SyncWithRetry(ctx context.Context, attempts int, delay time.Duration) (SyncResult, error) {
	if attempts <= 0 {
		attempts = 1
	}

	var result SyncResult
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err = s.SyncAll(ctx)
		if err == nil {
			return result, nil
		}
		s.cfg.Logger.Warn("public data sync failed",
			zap.Int("attempt", attempt),
			zap.Int("attempts", attempts),
			zap.Error(err))
		if attempt == attempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}
	}
	return result, fmt.Errorf("sync failed after %d attempts: %w", attempts, err)
}

// Purge drops cache entries that expired more than maxAge ago. Caches that
// cannot purge report zero.
func (s *Syncer) Purge(maxAge time.Duration) (int64, error) {
	p, ok := s.cfg.Cache.(cache.Purger)
	if !ok {
		return 0, nil
	}
	n, err := p.Purge(s.cfg.Now().Add(-maxAge))
	if err != nil {
		return n, fmt.Errorf("purge cache: %w", err)
	}
	s.cfg.Logger.Info("cache purged", zap.Int64("entries", n))
	return n, nil
}
