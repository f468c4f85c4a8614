package resilience

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ppiankov/promessa/internal/util"
)

// Metrics exposes breaker behavior to prometheus. A nil *Metrics is valid and records nothing.
type Metrics struct {
	state       *prometheus.GaugeVec
	transitions *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
}

// NewMetrics creates breaker collectors and registers them on reg.
// A nil reg leaves the collectors unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "promessa_breaker_state",
			Help: "Circuit breaker state by dependency (0 closed, 1 open, 2 half-open)",
		}, []string{"dependency"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "promessa_breaker_transitions_total",
			Help: "Circuit breaker state transitions by dependency and target state",
		}, []string{"dependency", "to"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "promessa_breaker_fallbacks_total",
			Help: "Calls served by the fallback path by dependency",
		}, []string{"dependency"}),
	}

	if reg != nil {
		m.state = util.RegisterOrReuse(reg, m.state)
		m.transitions = util.RegisterOrReuse(reg, m.transitions)
		m.fallbacks = util.RegisterOrReuse(reg, m.fallbacks)
	}

	return m
}

func (m *Metrics) setState(dependency string, s State) {
	if m == nil {
		return
	}
	m.state.WithLabelValues(dependency).Set(float64(s))
}

func (m *Metrics) observeTransition(dependency string, to State) {
	if m == nil {
		return
	}
	m.state.WithLabelValues(dependency).Set(float64(to))
	m.transitions.WithLabelValues(dependency, to.String()).Inc()
}

func (m *Metrics) observeFallback(dependency string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(dependency).Inc()
}

// FallbackCount returns the fallback counter for a dependency, for inspection
func (m *Metrics) FallbackCount(dependency string) prometheus.Counter {
	return m.fallbacks.WithLabelValues(dependency)
}
