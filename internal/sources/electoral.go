package sources

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/promessa/internal/cache"
	"github.com/ppiankov/promessa/internal/model"
	"github.com/ppiankov/promessa/internal/resilience"
)

// Election identifies one TSE election by its internal code
type Election struct {
	Year int
	Code string
}

// Elections searched for a candidate, newest first
var Elections = []Election{
	{Year: 2024, Code: "2045202024"},
	{Year: 2022, Code: "2040602022"},
	{Year: 2020, Code: "2030402020"},
}

var electedOutcomes = map[string]bool{
	"eleito":           true,
	"eleito por qp":    true,
	"eleito por média": true,
}

const defaultFulfillmentRate = 50

type tseSearch struct {
	Candidates []tseCandidate `json:"candidatos"`
}

type tseCandidate struct {
	ID      flexString `json:"id"`
	Name    string     `json:"nomeCompleto"`
	Outcome string     `json:"descricaoTotalizacao"`
}

// Electoral derives a politician's track record from TSE candidacies
type Electoral struct {
	baseURL string
	deps    Deps
	breaker *resilience.Breaker
}

// NewElectoral creates the electoral adapter
func NewElectoral(baseURL string, deps Deps) *Electoral {
	deps = deps.withDefaults()
	return &Electoral{
		baseURL: strings.TrimRight(baseURL, "/"),
		deps:    deps,
		breaker: deps.Breakers.Get(resilience.DependencyElectoral),
	}
}

// History returns the author's record, or ErrDataInsufficient when no
// candidacy is found or the source is down with nothing cached.
func (e *Electoral) History(ctx context.Context, name, region string) (*model.PoliticalHistoryRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrDataInsufficient
	}
	uf := strings.ToUpper(strings.TrimSpace(region))
	if uf == "" {
		uf = "BR"
	}

	key := cache.CacheKey("electoral", name, uf)
	if rec, ok := cache.GetJSON[model.PoliticalHistoryRecord](e.deps.Cache, key); ok {
		return &rec, nil
	}

	rec, err := resilience.Execute(ctx, e.breaker,
		func(ctx context.Context) (*model.PoliticalHistoryRecord, error) {
			return e.fetchLive(ctx, name, uf)
		},
		func(ctx context.Context, cause error) (*model.PoliticalHistoryRecord, error) {
			if rec, ok := cache.GetStaleJSON[model.PoliticalHistoryRecord](e.deps.Cache, key); ok {
				e.deps.Logger.Warn("electoral source degraded, serving stale record",
					zap.String("name", name), zap.Error(cause))
				return &rec, nil
			}
			e.deps.Logger.Warn("electoral source degraded, no record available",
				zap.String("name", name), zap.Error(cause))
			return nil, nil
		})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrDataInsufficient
	}
	return rec, nil
}

func (e *Electoral) fetchLive(ctx context.Context, name, uf string) (*model.PoliticalHistoryRecord, error) {
	found := make([]*tseCandidate, len(Elections))
	errs := make([]error, len(Elections))

	var g errgroup.Group
	for i, el := range Elections {
		i, el := i, el
		g.Go(func() error {
			endpoint := fmt.Sprintf("%s/eleicao/buscar/%s/%s/candidatos", e.baseURL, url.PathEscape(uf), el.Code)
			params := url.Values{}
			params.Set("nome", name)

			var res tseSearch
			if err := e.deps.Client.GetJSON(ctx, endpoint, params, &res); err != nil {
				errs[i] = fmt.Errorf("tse %d: %w", el.Year, err)
				return nil
			}
			if len(res.Candidates) > 0 {
				found[i] = &res.Candidates[0]
			}
			return nil
		})
	}
	_ = g.Wait()

	// Individual elections may fail; the dependency is down only if all did
	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed == len(Elections) {
		return nil, errors.Join(errs...)
	}

	rec := &model.PoliticalHistoryRecord{
		Name:            name,
		Region:          uf,
		FulfillmentRate: defaultFulfillmentRate,
	}
	elected := 0
	for _, c := range found {
		if c == nil {
			continue
		}
		rec.Candidacies++
		if electedOutcomes[strings.ToLower(strings.TrimSpace(c.Outcome))] {
			elected++
		}
	}
	if rec.Candidacies == 0 {
		return nil, nil
	}
	rec.ElectionRate = float64(elected) / float64(rec.Candidacies) * 100

	key := cache.CacheKey("electoral", name, uf)
	if err := cache.SetJSON(e.deps.Cache, key, rec, e.deps.CacheTTL); err != nil {
		e.deps.Logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return rec, nil
}
