package resilience

import (
	"sort"
	"sync"
)

// Dependency identifiers for the public-data adapters
const (
	DependencyFiscal      = "fiscal"
	DependencyElectoral   = "electoral"
	DependencyLegislative = "legislative"
)

// Registry owns one breaker per dependency. It is built once at startup and
// handed to the adapters, so breaker state is never shared across dependencies.
type Registry struct {
	config Config
	opts   []Option

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewRegistry creates a registry whose breakers use config and opts
func NewRegistry(config Config, opts ...Option) *Registry {
	return &Registry{
		config:   config,
		opts:     opts,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for id, creating it on first use
func (r *Registry) Get(id string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[id]; ok {
		return b
	}
	b := NewBreaker(id, r.config, r.opts...)
	r.breakers[id] = b
	return b
}

// Snapshot returns the stats of every breaker, sorted by name
func (r *Registry) Snapshot() []Stats {
	r.mu.Lock()
	breakers := make([]*Breaker, 0, len(r.breakers))
	for _, b := range r.breakers {
		breakers = append(breakers, b)
	}
	r.mu.Unlock()

	stats := make([]Stats, 0, len(breakers))
	for _, b := range breakers {
		stats = append(stats, b.Stats())
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}
