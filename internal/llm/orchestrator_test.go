package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name  string
	reply string
	err   error
	delay time.Duration

	mu      sync.Mutex
	prompts []string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) IsAvailable(context.Context) bool { return f.err == nil }

func (f *fakeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeProvider) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

const validOutput = `{"promises": [{"text": "Vou construir 1000 escolas", "category": "EDUCATION", "confidence": 0.9}]}`

func TestOrchestrator_FallsThroughInOrder(t *testing.T) {
	first := &fakeProvider{name: "first", err: fmt.Errorf("API error (503): overloaded")}
	second := &fakeProvider{name: "second", reply: validOutput}
	third := &fakeProvider{name: "third", reply: validOutput}

	o := NewOrchestrator([]Provider{first, second, third})
	out, err := o.Analyze(context.Background(), "Vou construir 1000 escolas")
	require.NoError(t, err)

	assert.Equal(t, "second", out.Provider)
	require.Len(t, out.Promises, 1)
	assert.Equal(t, first.calls(), second.calls(), "second provider must receive the same prompt")
	assert.Empty(t, third.calls(), "providers after a success must not be called")
}

func TestOrchestrator_AllFail(t *testing.T) {
	first := &fakeProvider{name: "first", err: errors.New("connection refused")}
	second := &fakeProvider{name: "second", reply: "not json at all"}

	o := NewOrchestrator([]Provider{first, second})
	_, err := o.Analyze(context.Background(), "texto")
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrProviderExhausted)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "first")
	assert.Contains(t, err.Error(), "second")
}

func TestOrchestrator_CompleteAcceptsNonJSON(t *testing.T) {
	p := &fakeProvider{name: "only", reply: "resposta livre"}

	text, err := NewOrchestrator([]Provider{p}).Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "resposta livre", text)
}

func TestOrchestrator_NoProviders(t *testing.T) {
	_, err := NewOrchestrator(nil).Analyze(context.Background(), "texto")
	assert.ErrorIs(t, err, ErrProviderExhausted)
}

func TestOrchestrator_TimeoutIsClassified(t *testing.T) {
	slow := &fakeProvider{name: "slow", delay: time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewOrchestrator([]Provider{slow}).Complete(ctx, "prompt")
	assert.ErrorIs(t, err, ErrProviderExhausted)
	assert.ErrorIs(t, err, ErrProviderTimeout)
}

func TestOrchestrator_StopsOnCancelledContext(t *testing.T) {
	p := &fakeProvider{name: "never", reply: validOutput}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewOrchestrator([]Provider{p}).Analyze(ctx, "texto")
	assert.ErrorIs(t, err, ErrProviderExhausted)
	assert.Empty(t, p.calls())
}

func TestOrchestrator_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	o := NewOrchestrator([]Provider{
		&fakeProvider{name: "a", err: errors.New("boom")},
		&fakeProvider{name: "b", reply: validOutput},
	}, WithMetrics(m))

	_, err := o.Analyze(context.Background(), "texto")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues("a", outcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues("b", outcomeSuccess)))

	// Registering twice reuses the same collectors
	again := NewMetrics(reg)
	assert.Same(t, m.attempts, again.attempts)
}
