// Package sources fetches fiscal, electoral and legislative records from
// Brazilian public-data APIs. Every adapter serves cache hits directly and
// runs live calls behind its own circuit breaker with a degraded fallback.
package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/promessa/internal/cache"
	"github.com/ppiankov/promessa/internal/model"
	"github.com/ppiankov/promessa/internal/resilience"
)

// ErrDataInsufficient means the source has no record for the key. Callers
// treat it as neutral input.
var ErrDataInsufficient = errors.New("data insufficient")

// FiscalProvider serves budget execution records
type FiscalProvider interface {
	Fetch(ctx context.Context, category model.Category, year int, sphere model.Sphere) (*model.BudgetRecord, error)
	History(ctx context.Context, category model.Category, startYear, endYear int) ([]model.BudgetRecord, error)
}

// ElectoralProvider serves a politician's electoral history
type ElectoralProvider interface {
	History(ctx context.Context, name, region string) (*model.PoliticalHistoryRecord, error)
}

// LegislativeProvider serves a legislator's recorded votes
type LegislativeProvider interface {
	VotesFor(ctx context.Context, name string) ([]model.VoteRecord, error)
}

// Deps are shared by every adapter
type Deps struct {
	Client   *Client
	Cache    cache.Cache
	Breakers *resilience.Registry
	CacheTTL time.Duration
	Logger   *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Cache == nil {
		d.Cache = cache.Nop{}
	}
	if d.Breakers == nil {
		d.Breakers = resilience.NewRegistry(resilience.DefaultConfig())
	}
	if d.CacheTTL <= 0 {
		d.CacheTTL = 24 * time.Hour
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Client == nil {
		d.Client = NewClient(model.DefaultConfig().Sources, d.Logger)
	}
	return d
}

// flexFloat accepts numbers encoded as JSON numbers or strings ("1234.5", "1.234,5")
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	if data[0] != '"' {
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*f = 0
		return nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// oneOrMany decodes either a single object or an array of objects. The
// Senado API collapses one-element lists into a bare object.
type oneOrMany[T any] []T

func (o *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*o = nil
		return nil
	}
	if data[0] == '[' {
		var many []T
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*o = many
		return nil
	}
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*o = []T{one}
	return nil
}

// flexString accepts JSON strings and numbers
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	if string(data) == "null" {
		*s = ""
		return nil
	}
	*s = flexString(data)
	return nil
}
