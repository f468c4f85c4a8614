package pipeline

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ppiankov/promessa/internal/model"
	"github.com/ppiankov/promessa/internal/score"
	"github.com/ppiankov/promessa/internal/sources"
)

type memoEntry struct {
	value any
	err   error
}

// memo wraps the record lookups of one analysis. Concurrent callers of the
// same key share a single fetch and later callers get its result. It serves
// both the scorer (score.Lookups) and the trajectory stage
// (sources.FiscalProvider), so every stage sees the same budget records.
type memo struct {
	fiscal sources.FiscalProvider
	author score.Lookups
	group  singleflight.Group

	mu      sync.Mutex
	results map[string]memoEntry
}

func newMemo(fiscal sources.FiscalProvider, electoral sources.ElectoralProvider, region string) *memo {
	return &memo{
		fiscal:  fiscal,
		author:  score.SourceLookups{Electoral: electoral, Region: region},
		results: make(map[string]memoEntry),
	}
}

// Budget returns the federal record for category and year
func (m *memo) Budget(ctx context.Context, category model.Category, year int) (*model.BudgetRecord, error) {
	return m.Fetch(ctx, category, year, model.SphereFederal)
}

func (m *memo) Fetch(ctx context.Context, category model.Category, year int, sphere model.Sphere) (*model.BudgetRecord, error) {
	if m.fiscal == nil {
		return nil, sources.ErrDataInsufficient
	}
	key := "budget:" + string(category) + ":" + string(sphere) + ":" + strconv.Itoa(year)
	v, err := m.do(key, func() (any, error) {
		return m.fiscal.Fetch(ctx, category, year, sphere)
	})
	rec, _ := v.(*model.BudgetRecord)
	return rec, err
}

// History assembles federal records year by year through Fetch
func (m *memo) History(ctx context.Context, category model.Category, startYear, endYear int) ([]model.BudgetRecord, error) {
	if endYear < startYear {
		return []model.BudgetRecord{}, nil
	}

	slots := make([]*model.BudgetRecord, endYear-startYear+1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i := range slots {
		i := i
		g.Go(func() error {
			rec, err := m.Fetch(gctx, category, startYear+i, model.SphereFederal)
			if errors.Is(err, sources.ErrDataInsufficient) {
				return nil
			}
			if err != nil {
				return err
			}
			slots[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	history := make([]model.BudgetRecord, 0, len(slots))
	for _, rec := range slots {
		if rec != nil {
			history = append(history, *rec)
		}
	}
	return history, nil
}

func (m *memo) Author(ctx context.Context, name string) (*model.PoliticalHistoryRecord, error) {
	v, err := m.do("author:"+name, func() (any, error) {
		return m.author.Author(ctx, name)
	})
	rec, _ := v.(*model.PoliticalHistoryRecord)
	return rec, err
}

func (m *memo) do(key string, fn func() (any, error)) (any, error) {
	m.mu.Lock()
	if e, ok := m.results[key]; ok {
		m.mu.Unlock()
		return e.value, e.err
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do(key, func() (any, error) {
		v, err := fn()
		m.mu.Lock()
		m.results[key] = memoEntry{value: v, err: err}
		m.mu.Unlock()
		return v, err
	})
	return v, err
}

// budgets returns every budget record resolved so far
func (m *memo) budgets() []*model.BudgetRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*model.BudgetRecord
	for _, e := range m.results {
		if rec, ok := e.value.(*model.BudgetRecord); ok && rec != nil {
			out = append(out, rec)
		}
	}
	return out
}
