package sources

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/promessa/internal/cache"
	"github.com/ppiankov/promessa/internal/model"
	"github.com/ppiankov/promessa/internal/resilience"
)

// siconfiCodes maps claim categories onto SICONFI budget functions
var siconfiCodes = map[model.Category]string{
	model.CategoryEducation:      "EDUCACAO",
	model.CategoryHealth:         "SAUDE",
	model.CategoryInfrastructure: "INFRAESTRUTURA",
	model.CategoryEmployment:     "EMPREGO",
	model.CategoryEconomy:        "ECONOMIA",
	model.CategorySecurity:       "SEGURANCA",
	model.CategoryEnvironment:    "MEIO_AMBIENTE",
	model.CategorySocial:         "ASSISTENCIA_SOCIAL",
	model.CategoryAgriculture:    "AGRICULTURA",
	model.CategoryTransport:      "TRANSPORTES",
}

// SiconfiCode returns the SICONFI code for a category
func SiconfiCode(c model.Category) (string, bool) {
	code, ok := siconfiCodes[c]
	return code, ok
}

// siconfiRow is one row of the /orcamento response
type siconfiRow struct {
	Budgeted flexFloat `json:"valor_orcado"`
	Executed flexFloat `json:"valor_executado"`
}

// Fiscal reads budget execution from SICONFI
type Fiscal struct {
	baseURL string
	deps    Deps
	breaker *resilience.Breaker
	now     func() time.Time
}

// NewFiscal creates the fiscal adapter
func NewFiscal(baseURL string, deps Deps) *Fiscal {
	deps = deps.withDefaults()
	return &Fiscal{
		baseURL: strings.TrimRight(baseURL, "/"),
		deps:    deps,
		breaker: deps.Breakers.Get(resilience.DependencyFiscal),
		now:     time.Now,
	}
}

// Fetch returns the budget record for one category, year and sphere. It
// only fails with ErrDataInsufficient; outages are absorbed by the fallback.
func (f *Fiscal) Fetch(ctx context.Context, category model.Category, year int, sphere model.Sphere) (*model.BudgetRecord, error) {
	code, ok := SiconfiCode(category)
	if !ok {
		return nil, ErrDataInsufficient
	}

	key := cache.CacheKey("fiscal", string(category), string(sphere), strconv.Itoa(year))
	if rec, ok := cache.GetJSON[model.BudgetRecord](f.deps.Cache, key); ok {
		rec.Source = model.RecordSourceCache
		return &rec, nil
	}

	rec, err := resilience.Execute(ctx, f.breaker,
		func(ctx context.Context) (*model.BudgetRecord, error) {
			return f.fetchLive(ctx, code, category, year, sphere)
		},
		func(ctx context.Context, cause error) (*model.BudgetRecord, error) {
			return f.fallback(key, category, year, sphere, cause), nil
		})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrDataInsufficient
	}

	if rec.Source == model.RecordSourceLive {
		if err := cache.SetJSON(f.deps.Cache, key, rec, f.deps.CacheTTL); err != nil {
			f.deps.Logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return rec, nil
}

func (f *Fiscal) fetchLive(ctx context.Context, code string, category model.Category, year int, sphere model.Sphere) (*model.BudgetRecord, error) {
	params := url.Values{}
	params.Set("categoria", code)
	params.Set("ano", strconv.Itoa(year))
	params.Set("esfera", string(sphere))

	var rows []siconfiRow
	if err := f.deps.Client.GetJSON(ctx, f.baseURL+"/orcamento", params, &rows); err != nil {
		return nil, fmt.Errorf("siconfi %s %d: %w", code, year, err)
	}
	if len(rows) == 0 {
		// reachable but empty is not a dependency failure
		return nil, nil
	}

	budgeted := float64(rows[0].Budgeted)
	executed := float64(rows[0].Executed)
	return &model.BudgetRecord{
		Year:          year,
		Sphere:        sphere,
		Category:      category,
		Budgeted:      budgeted,
		Executed:      executed,
		ExecutionRate: model.ExecutionRate(budgeted, executed),
		FetchedAt:     f.now(),
		Confidence:    1.0,
		Source:        model.RecordSourceLive,
	}, nil
}

func (f *Fiscal) fallback(key string, category model.Category, year int, sphere model.Sphere, cause error) *model.BudgetRecord {
	if rec, ok := cache.GetStaleJSON[model.BudgetRecord](f.deps.Cache, key); ok {
		f.deps.Logger.Warn("fiscal source degraded, serving stale record",
			zap.String("category", string(category)),
			zap.Int("year", year),
			zap.Error(cause))
		rec.Source = model.RecordSourceStale
		rec.Confidence = staleConfidence
		return &rec
	}

	f.deps.Logger.Warn("fiscal source degraded, serving historical average",
		zap.String("category", string(category)),
		zap.Int("year", year),
		zap.Error(cause))
	return historicalAverage(category, year, sphere, f.now())
}

// History returns the federal records for startYear..endYear in year order.
// Years without data are omitted.
func (f *Fiscal) History(ctx context.Context, category model.Category, startYear, endYear int) ([]model.BudgetRecord, error) {
	if endYear < startYear {
		return []model.BudgetRecord{}, nil
	}

	slots := make([]*model.BudgetRecord, endYear-startYear+1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i := range slots {
		i := i
		g.Go(func() error {
			rec, err := f.Fetch(gctx, category, startYear+i, model.SphereFederal)
			if errors.Is(err, ErrDataInsufficient) {
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
