package pipeline

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/promessa/internal/extract"
	"github.com/ppiankov/promessa/internal/llm"
	"github.com/ppiankov/promessa/internal/model"
	"github.com/ppiankov/promessa/internal/sources"
	"github.com/ppiankov/promessa/internal/validate"
)

type stubAnalyzer struct {
	out *llm.AnalysisOutput
	err error
}

func (s *stubAnalyzer) Analyze(context.Context, string) (*llm.AnalysisOutput, error) {
	return s.out, s.err
}

// stubFiscal serves a rising budget series. Records for fallbackYear carry
// the fallback source.
type stubFiscal struct {
	fetches      atomic.Int32
	histories    atomic.Int32
	fallbackYear int
}

func (s *stubFiscal) Fetch(_ context.Context, category model.Category, year int, _ model.Sphere) (*model.BudgetRecord, error) {
	s.fetches.Add(1)
	rec := &model.BudgetRecord{
		Year:          year,
		Category:      category,
		Budgeted:      float64(100 + 10*(year-2020)),
		Executed:      70,
		ExecutionRate: 70,
		Confidence:    1,
		Source:        model.RecordSourceLive,
	}
	if year == s.fallbackYear {
		rec.Source = model.RecordSourceFallback
		rec.Confidence = 0.3
	}
	return rec, nil
}

func (s *stubFiscal) History(context.Context, model.Category, int, int) ([]model.BudgetRecord, error) {
	s.histories.Add(1)
	return nil, errors.New("history must be assembled from memoized fetches")
}

type stubElectoral struct{ calls atomic.Int32 }

func (s *stubElectoral) History(_ context.Context, name, _ string) (*model.PoliticalHistoryRecord, error) {
	s.calls.Add(1)
	return &model.PoliticalHistoryRecord{Name: name, ElectionRate: 50, FulfillmentRate: 50}, nil
}

type stubLegislative struct{ calls atomic.Int32 }

func (s *stubLegislative) VotesFor(context.Context, string) ([]model.VoteRecord, error) {
	s.calls.Add(1)
	return []model.VoteRecord{
		{BillID: "PL 9/2023", Date: "2023-04-01", Choice: "Não", Description: "Vamos reduzir gastos economia", House: model.HouseCamara},
	}, nil
}

func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func aiClaims() *stubAnalyzer {
	return &stubAnalyzer{out: &llm.AnalysisOutput{
		Provider: "stub",
		Promises: []model.PromiseClaim{
			{Text: "Vamos reduzir os gastos com a economia", Category: model.CategoryEconomy, Confidence: 0.8, Source: model.SourceAI},
			{Text: "Vou construir 1000 escolas", Category: model.CategoryEducation, Confidence: 0.8, Source: model.SourceAI},
		},
	}}
}

func TestEngine_EmptyInput(t *testing.T) {
	e := NewEngine(Components{})

	_, err := e.Analyze(context.Background(), Request{Text: "   "})
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput, got %v", err)
	}
}

func TestEngine_FullAnalysis(t *testing.T) {
	fiscal := &stubFiscal{fallbackYear: 2024}
	electoral := &stubElectoral{}
	legislative := &stubLegislative{}

	e := NewEngine(Components{
		Extractor:   extract.NewExtractor(extract.WithAnalyzer(aiClaims())),
		Fiscal:      fiscal,
		Electoral:   electoral,
		Legislative: legislative,
		Now:         fixedClock,
	})

	report, err := e.Analyze(context.Background(), Request{
		Text:   "Vamos reduzir os gastos com a economia. Vou construir 1000 escolas.",
		Author: "Fulano de Tal",
		Region: "SP",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if report.ID == "" {
		t.Error("Expected report ID")
	}
	if len(report.Claims) != 2 {
		t.Fatalf("Expected 2 claims, got %d", len(report.Claims))
	}
	if report.Extraction.Path != model.SourceAI {
		t.Errorf("Expected AI path, got %s", report.Extraction.Path)
	}
	// two categories over 2020-2024; the scorer's 2024 lookup is shared
	if fiscal.fetches.Load() != 10 {
		t.Errorf("Expected one budget fetch per category and year, got %d", fiscal.fetches.Load())
	}
	if fiscal.histories.Load() != 0 {
		t.Errorf("Expected no direct history calls, got %d", fiscal.histories.Load())
	}
	if electoral.calls.Load() != 1 {
		t.Errorf("Expected one author lookup, got %d", electoral.calls.Load())
	}

	if report.Viability.Score <= 0 || report.Viability.Score > 1 {
		t.Errorf("Expected score in (0, 1], got %.2f", report.Viability.Score)
	}

	if report.Coherence == nil {
		t.Fatal("Expected coherence report")
	}
	if len(report.Coherence.Contradictions) != 1 {
		t.Errorf("Expected 1 contradiction, got %d", len(report.Coherence.Contradictions))
	}
	if report.Coherence.CoherenceScore != 50 {
		t.Errorf("Expected coherence 50, got %.1f", report.Coherence.CoherenceScore)
	}

	if len(report.Trajectories) != 2 {
		t.Fatalf("Expected 2 trajectories, got %d", len(report.Trajectories))
	}
	// the fallback year is left out of the series
	if got := report.Trajectories[0].Years; len(got) != 4 || got[0] != 2020 || got[3] != 2023 {
		t.Errorf("Expected years 2020-2023, got %v", got)
	}
	contradictory := 0
	for _, c := range report.TrajectoryChecks {
		if c.IsContradictory {
			contradictory++
			if c.Category != model.CategoryEconomy || c.Severity != model.SeverityMedium {
				t.Errorf("Expected ECONOMY/MEDIUM contradiction, got %s/%s", c.Category, c.Severity)
			}
		}
	}
	if contradictory != 1 {
		t.Errorf("Expected 1 contradictory trajectory check, got %d", contradictory)
	}

	foundNote := false
	for _, n := range report.Notes {
		if strings.Contains(n, "fallback") {
			foundNote = true
		}
	}
	if !foundNote {
		t.Errorf("Expected a degraded-source note, got %v", report.Notes)
	}
}

func TestEngine_SkipCoherence(t *testing.T) {
	legislative := &stubLegislative{}
	e := NewEngine(Components{
		Extractor:   extract.NewExtractor(extract.WithAnalyzer(aiClaims())),
		Legislative: legislative,
	})

	report, err := e.Analyze(context.Background(), Request{
		Text:          "Vamos reduzir os gastos com a economia.",
		Author:        "Fulano",
		SkipCoherence: true,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if report.Coherence != nil {
		t.Error("Expected no coherence report when skipped")
	}
	if legislative.calls.Load() != 0 {
		t.Error("Expected legislative source not to be called")
	}
}

func TestEngine_RulesFallbackWithoutSources(t *testing.T) {
	e := NewEngine(Components{
		Extractor: extract.NewExtractor(extract.WithAnalyzer(&stubAnalyzer{err: llm.ErrProviderExhausted})),
	})

	report, err := e.Analyze(context.Background(), Request{Text: "Não vou aumentar impostos"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if report.Extraction.Path != model.SourceRules {
		t.Errorf("Expected rules path, got %s", report.Extraction.Path)
	}
	if len(report.Claims) != 1 || !report.Claims[0].Negated {
		t.Errorf("Expected one negated claim, got %+v", report.Claims)
	}
	if report.Coherence != nil {
		t.Error("Expected no coherence report without author")
	}
}

func TestEngine_RatesTranscriptSource(t *testing.T) {
	e := NewEngine(Components{
		Extractor:  extract.NewExtractor(extract.WithAnalyzer(&stubAnalyzer{err: llm.ErrProviderExhausted})),
		Classifier: validate.NewSourceClassifier(model.DefaultConfig().HTTP.Transcripts),
	})

	report, err := e.Analyze(context.Background(), Request{
		Text:      "Vou construir 100 escolas",
		SourceURL: "https://blog.example.com/discurso",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if report.SourceTier != model.SourceTierUnknown {
		t.Errorf("Expected unknown tier, got %s", report.SourceTier)
	}
	found := false
	for _, n := range report.Notes {
		if strings.Contains(n, "unverified source (blog.example.com)") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected unverified source note, got %v", report.Notes)
	}

	report, err = e.Analyze(context.Background(), Request{
		Text:      "Vou construir 100 escolas",
		SourceURL: "https://www.camara.leg.br/discurso/1",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if report.SourceTier != model.SourceTierOfficial {
		t.Errorf("Expected official tier, got %s", report.SourceTier)
	}
}

type countingFiscal struct {
	fetches atomic.Int32
}

func (c *countingFiscal) Fetch(_ context.Context, category model.Category, year int, _ model.Sphere) (*model.BudgetRecord, error) {
	c.fetches.Add(1)
	time.Sleep(10 * time.Millisecond)
	return &model.BudgetRecord{Year: year, Category: category, Source: model.RecordSourceLive}, nil
}

func (c *countingFiscal) History(context.Context, model.Category, int, int) ([]model.BudgetRecord, error) {
	return nil, errors.New("not used")
}

type countingElectoral struct {
	calls atomic.Int32
}

func (c *countingElectoral) History(context.Context, string, string) (*model.PoliticalHistoryRecord, error) {
	c.calls.Add(1)
	return nil, errors.New("unknown")
}

func TestMemo_SharesResults(t *testing.T) {
	fiscal := &countingFiscal{}
	electoral := &countingElectoral{}
	m := newMemo(fiscal, electoral, "SP")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Budget(context.Background(), model.CategoryHealth, 2024)
		}()
	}
	wg.Wait()

	if _, err := m.Budget(context.Background(), model.CategoryHealth, 2024); err != nil {
		t.Errorf("Expected cached record, got %v", err)
	}
	if fiscal.fetches.Load() != 1 {
		t.Errorf("Expected 1 budget fetch, got %d", fiscal.fetches.Load())
	}

	_, err1 := m.Author(context.Background(), "Fulano")
	_, err2 := m.Author(context.Background(), "Fulano")
	if err1 == nil || err2 == nil {
		t.Error("Expected the lookup error to be remembered")
	}
	if electoral.calls.Load() != 1 {
		t.Errorf("Expected 1 author lookup, got %d", electoral.calls.Load())
	}
}

func TestMemo_HistoryReusesBudgetLookups(t *testing.T) {
	fiscal := &countingFiscal{}
	m := newMemo(fiscal, nil, "")

	if _, err := m.Budget(context.Background(), model.CategoryHealth, 2024); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	history, err := m.History(context.Background(), model.CategoryHealth, 2020, 2024)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(history) != 5 || history[0].Year != 2020 || history[4].Year != 2024 {
		t.Errorf("Expected 2020-2024 in order, got %+v", history)
	}
	if fiscal.fetches.Load() != 5 {
		t.Errorf("Expected 5 fetches, got %d", fiscal.fetches.Load())
	}
}

func TestMemo_NoFiscalSource(t *testing.T) {
	m := newMemo(nil, nil, "")

	if _, err := m.Budget(context.Background(), model.CategoryHealth, 2024); !errors.Is(err, sources.ErrDataInsufficient) {
		t.Errorf("Expected ErrDataInsufficient, got %v", err)
	}
	history, err := m.History(context.Background(), model.CategoryHealth, 2020, 2024)
	if err != nil || len(history) != 0 {
		t.Errorf("Expected empty history, got %v, %v", history, err)
	}
}

func TestEngine_OneBudgetSnapshotPerAnalysis(t *testing.T) {
	var mu sync.Mutex
	hits := map[string]int{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		year := r.URL.Query().Get("ano")
		mu.Lock()
		hits[year]++
		n := hits[year]
		mu.Unlock()

		// later requests for the same year see revised figures
		if year == "2024" && n > 1 {
			_, _ = w.Write([]byte(`[{"valor_orcado": 50, "valor_executado": 5}]`))
			return
		}
		if year == "2024" {
			_, _ = w.Write([]byte(`[{"valor_orcado": 1000, "valor_executado": 500}]`))
			return
		}
		_, _ = w.Write([]byte(`[{"valor_orcado": 500, "valor_executado": 400}]`))
	}))
	defer srv.Close()

	fiscal := sources.NewFiscal(srv.URL, sources.Deps{
		Client: sources.NewClient(model.SourcesConfig{Timeout: 2 * time.Second}, nil),
	})
	e := NewEngine(Components{
		Extractor: extract.NewExtractor(extract.WithAnalyzer(&stubAnalyzer{out: &llm.AnalysisOutput{
			Provider: "stub",
			Promises: []model.PromiseClaim{
				{Text: "Vamos reduzir os gastos com a economia", Category: model.CategoryEconomy, Confidence: 0.8, Source: model.SourceAI},
			},
		}})),
		Fiscal: fiscal,
		Now:    fixedClock,
	})

	report, err := e.Analyze(context.Background(), Request{Text: "Vamos reduzir os gastos com a economia."})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	mu.Lock()
	for year, n := range hits {
		if n != 1 {
			t.Errorf("Expected one request for %s, got %d", year, n)
		}
	}
	mu.Unlock()

	var rate any
	for _, sig := range report.Viability.Signals {
		if sig.Type == model.SignalBudget {
			rate = sig.Data["execution_rate"]
		}
	}
	if rate != 50.0 {
		t.Errorf("Expected scorer execution rate 50, got %v", rate)
	}
	if len(report.Trajectories) != 1 {
		t.Fatalf("Expected 1 trajectory, got %d", len(report.Trajectories))
	}
	if last := report.Trajectories[0].LastValue; last != 1000 {
		t.Errorf("Expected trajectory to end on the scorer's 2024 record (1000), got %.0f", last)
	}
}

func TestRenderer_JSONAndSummary(t *testing.T) {
	report := &model.AnalysisReport{
		ID:     "abc",
		Author: "Fulano",
		Claims: []model.PromiseClaim{{Text: "Vou construir 1000 escolas", Category: model.CategoryEducation, Negated: true}},
		Extraction: model.Extraction{
			Path: model.SourceRules,
		},
		Viability: model.ViabilityResult{Score: 0.42, RiskLevel: model.RiskMedium, Confidence: 0.6},
		Notes:     []string{"Fiscal data for health 2024 served from stale source (confidence 0.70)"},
	}
	r := NewRenderer(true)

	path := filepath.Join(t.TempDir(), "out", "report.json")
	if err := r.RenderJSON(report, path); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected report file, got %v", err)
	}
	if !bytes.Contains(data, []byte(`"risk_level": "MEDIUM"`)) {
		t.Errorf("Unexpected JSON: %s", data)
	}

	var buf bytes.Buffer
	r.RenderSummary(&buf, report)
	out := buf.String()
	for _, want := range []string{"Fulano", "0.42", "MEDIUM", "[negated]", "stale source"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected summary to contain %q:\n%s", want, out)
		}
	}
}
