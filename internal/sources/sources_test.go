package sources

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/promessa/internal/cache"
	"github.com/ppiankov/promessa/internal/model"
	"github.com/ppiankov/promessa/internal/resilience"
)

func testDeps(c cache.Cache, ttl time.Duration) Deps {
	return Deps{
		Client:   NewClient(model.SourcesConfig{Timeout: 2 * time.Second}, nil),
		Cache:    c,
		Breakers: resilience.NewRegistry(resilience.Config{FailureThreshold: 1, ResetTimeout: time.Hour, SuccessThreshold: 1}),
		CacheTTL: ttl,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestFiscal_FetchLiveThenCached(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/orcamento", r.URL.Path)
		assert.Equal(t, "EDUCACAO", r.URL.Query().Get("categoria"))
		assert.Equal(t, "2023", r.URL.Query().Get("ano"))
		assert.Equal(t, "FEDERAL", r.URL.Query().Get("esfera"))
		_, _ = w.Write([]byte(`[{"valor_orcado": "1000.50", "valor_executado": 800}]`))
	}))
	defer srv.Close()

	f := NewFiscal(srv.URL, testDeps(cache.NewMemoryCache(time.Hour, time.Minute), time.Hour))

	rec, err := f.Fetch(context.Background(), model.CategoryEducation, 2023, model.SphereFederal)
	require.NoError(t, err)
	assert.Equal(t, model.RecordSourceLive, rec.Source)
	assert.InDelta(t, 1000.5, rec.Budgeted, 1e-9)
	assert.InDelta(t, 800/1000.5*100, rec.ExecutionRate, 1e-9)
	assert.Equal(t, 1.0, rec.Confidence)

	again, err := f.Fetch(context.Background(), model.CategoryEducation, 2023, model.SphereFederal)
	require.NoError(t, err)
	assert.Equal(t, model.RecordSourceCache, again.Source)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "cache hit must not reach the source")
}

func TestFiscal_FallbackToHistoricalAverage(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFiscal(srv.URL, testDeps(cache.NewMemoryCache(time.Hour, time.Minute), time.Hour))

	rec, err := f.Fetch(context.Background(), model.CategoryHealth, 2022, model.SphereFederal)
	require.NoError(t, err)
	assert.Equal(t, model.RecordSourceFallback, rec.Source)
	assert.Equal(t, 0.3, rec.Confidence)
	assert.Equal(t, 2022, rec.Year)

	// breaker is now open; the source is not called again
	_, err = f.Fetch(context.Background(), model.CategoryHealth, 2021, model.SphereFederal)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, resilience.StateOpen, f.breaker.State())
}

func TestFiscal_FallbackToStaleRecord(t *testing.T) {
	var failing atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"valor_orcado": 100, "valor_executado": 90}]`))
	}))
	defer srv.Close()

	f := NewFiscal(srv.URL, testDeps(cache.NewMemoryCache(time.Hour, time.Minute), time.Millisecond))

	_, err := f.Fetch(context.Background(), model.CategoryEconomy, 2024, model.SphereFederal)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	failing.Store(true)

	rec, err := f.Fetch(context.Background(), model.CategoryEconomy, 2024, model.SphereFederal)
	require.NoError(t, err)
	assert.Equal(t, model.RecordSourceStale, rec.Source)
	assert.Equal(t, 90.0, rec.Executed)
	assert.Less(t, rec.Confidence, 1.0)
}

func TestFiscal_UnmappedCategory(t *testing.T) {
	f := NewFiscal("http://127.0.0.1:0", testDeps(nil, time.Hour))

	_, err := f.Fetch(context.Background(), model.CategoryCulture, 2024, model.SphereFederal)
	assert.ErrorIs(t, err, ErrDataInsufficient)
}

func TestFiscal_HistoryInYearOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		year := r.URL.Query().Get("ano")
		if year == "2021" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`[{"valor_orcado": 100, "valor_executado": ` + year + `}]`))
	}))
	defer srv.Close()

	f := NewFiscal(srv.URL, testDeps(nil, time.Hour))

	history, err := f.History(context.Background(), model.CategoryTransport, 2019, 2023)
	require.NoError(t, err)

	var years []int
	for _, h := range history {
		years = append(years, h.Year)
		assert.Equal(t, float64(h.Year), h.Executed)
	}
	assert.Equal(t, []int{2019, 2020, 2022, 2023}, years)
}

func TestElectoral_History(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Maria Souza", r.URL.Query().Get("nome"))
		switch {
		case strings.Contains(r.URL.Path, "/SP/2045202024/"):
			writeJSON(w, map[string]any{"candidatos": []map[string]any{{"id": 1, "nomeCompleto": "MARIA SOUZA", "descricaoTotalizacao": "Eleito por QP"}}})
		case strings.Contains(r.URL.Path, "/SP/2040602022/"):
			writeJSON(w, map[string]any{"candidatos": []map[string]any{{"id": "2", "nomeCompleto": "MARIA SOUZA", "descricaoTotalizacao": "Não eleito"}}})
		default:
			writeJSON(w, map[string]any{"candidatos": []any{}})
		}
	}))
	defer srv.Close()

	e := NewElectoral(srv.URL, testDeps(nil, time.Hour))

	rec, err := e.History(context.Background(), "Maria Souza", "sp")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Candidacies)
	assert.InDelta(t, 50.0, rec.ElectionRate, 1e-9)
	assert.Equal(t, 50.0, rec.FulfillmentRate)
	assert.Equal(t, 0, rec.Scandals)
	assert.Equal(t, "SP", rec.Region)
}

func TestElectoral_NoCandidacy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"candidatos": []any{}})
	}))
	defer srv.Close()

	e := NewElectoral(srv.URL, testDeps(nil, time.Hour))

	rec, err := e.History(context.Background(), "Ninguém", "RJ")
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrDataInsufficient)
	assert.Equal(t, resilience.StateClosed, e.breaker.State())
}

func TestElectoral_SourceDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	e := NewElectoral(srv.URL, testDeps(nil, time.Hour))

	rec, err := e.History(context.Background(), "Maria", "SP")
	assert.Nil(t, rec)
	assert.True(t, errors.Is(err, ErrDataInsufficient))
	assert.Equal(t, resilience.StateOpen, e.breaker.State())
}

func TestLegislative_CamaraVotes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/camara/deputados", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"dados": []map[string]any{
			{"id": 1, "nome": "Maria Souza Lima"},
			{"id": 204554, "nome": "Maria Souza", "siglaPartido": "PX"},
		}})
	})
	mux.HandleFunc("/camara/votacoes", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "20", r.URL.Query().Get("itens"))
		writeJSON(w, map[string]any{"dados": []map[string]any{
			{"id": "100-1", "dataHoraRegistro": "2024-05-01T10:00:00", "descricao": "Aprovada a matéria",
				"proposicaoExterna": map[string]any{"siglaTipo": "PL", "numero": 123, "ano": 2024, "ementa": "Amplia recursos para educação básica"}},
			{"id": "100-2", "dataHoraRegistro": "2024-04-01T10:00:00", "descricao": "Votação simbólica"},
		}})
	})
	mux.HandleFunc("/camara/votacoes/100-1/votos", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"dados": []map[string]any{
			{"tipoVoto": "Sim", "deputado_": map[string]any{"id": 1, "siglaPartido": "PY"}},
			{"tipoVoto": "Não", "deputado_": map[string]any{"id": 204554, "siglaPartido": "PX"}},
		}})
	})
	mux.HandleFunc("/camara/votacoes/100-1/orientacoes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"dados": []map[string]any{
			{"siglaPartidoBloco": "PX", "orientacaoVoto": "Sim"},
		}})
	})
	mux.HandleFunc("/camara/votacoes/100-2/votos", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "fail", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	l := NewLegislative(srv.URL+"/camara", srv.URL+"/senado", testDeps(nil, time.Hour))

	votes, err := l.VotesFor(context.Background(), "maria souza")
	require.NoError(t, err)
	require.Len(t, votes, 1)

	v := votes[0]
	assert.Equal(t, "PL 123/2024", v.BillID)
	assert.Equal(t, "Não", v.Choice)
	assert.Equal(t, "Amplia recursos para educação básica", v.Description)
	assert.Equal(t, "Sim", v.PartyOrientation)
	assert.True(t, v.Rebellious)
	assert.Equal(t, model.HouseCamara, v.House)
}

func TestLegislative_SenadoFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/camara/deputados", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"dados": []any{}})
	})
	mux.HandleFunc("/senado/lista/atual", func(w http.ResponseWriter, r *http.Request) {
		// single senator collapsed into an object
		_, _ = w.Write([]byte(`{"ListaParlamentarEmExercicio":{"Parlamentares":{"Parlamentar":
			{"IdentificacaoParlamentar":{"CodigoParlamentar":"5012","NomeParlamentar":"João Pedro Alves"}}}}}`))
	})
	mux.HandleFunc("/senado/5012/votacoes", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"VotacaoParlamentar":{"Parlamentar":{"Votacoes":{"Votacao":[
			{"CodigoSessao":"1","DataSessao":"2024-03-01","DescricaoVoto":"Não",
			 "Materia":{"Sigla":"PEC","Numero":"45","Ano":"2023","Ementa":"Reforma tributária"}},
			{"CodigoSessao":"2","DataSessao":"2024-02-01","DescricaoVoto":"Sim",
			 "Materia":{"Sigla":"PLS","Numero":7,"Ano":2022}}]}}}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	l := NewLegislative(srv.URL+"/camara", srv.URL+"/senado", testDeps(nil, time.Hour))

	votes, err := l.VotesFor(context.Background(), "João Pedro")
	require.NoError(t, err)
	require.Len(t, votes, 2)
	assert.Equal(t, "PEC 45/2023", votes[0].BillID)
	assert.Equal(t, model.HouseSenado, votes[0].House)
	assert.Equal(t, "PLS 7/2022", votes[1].BillID)
	assert.Equal(t, "Sem ementa disponível", votes[1].Description)
}

func TestLegislative_DeputyWithoutVotesFallsThroughToSenado(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/camara/deputados", func(w http.ResponseWriter, r *http.Request) {
		// partial match on an unrelated deputy
		writeJSON(w, map[string]any{"dados": []map[string]any{
			{"id": 7, "nome": "João Pedro Souza"},
		}})
	})
	mux.HandleFunc("/camara/votacoes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"dados": []any{}})
	})
	mux.HandleFunc("/senado/lista/atual", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ListaParlamentarEmExercicio":{"Parlamentares":{"Parlamentar":
			{"IdentificacaoParlamentar":{"CodigoParlamentar":"5012","NomeParlamentar":"João Pedro Alves"}}}}}`))
	})
	mux.HandleFunc("/senado/5012/votacoes", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"VotacaoParlamentar":{"Parlamentar":{"Votacoes":{"Votacao":[
			{"CodigoSessao":"1","DataSessao":"2024-03-01","DescricaoVoto":"Não",
			 "Materia":{"Sigla":"PEC","Numero":"45","Ano":"2023","Ementa":"Reforma tributária"}}]}}}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	l := NewLegislative(srv.URL+"/camara", srv.URL+"/senado", testDeps(nil, time.Hour))

	votes, err := l.VotesFor(context.Background(), "João Pedro")
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, "PEC 45/2023", votes[0].BillID)
	assert.Equal(t, model.HouseSenado, votes[0].House)
}

func TestLegislative_SourceDownReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	l := NewLegislative(srv.URL, srv.URL, testDeps(nil, time.Hour))

	votes, err := l.VotesFor(context.Background(), "Alguém")
	require.NoError(t, err)
	assert.NotNil(t, votes)
	assert.Empty(t, votes)
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "promessa-test", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("not here"))
	}))
	defer srv.Close()

	c := NewClient(model.SourcesConfig{UserAgent: "promessa-test"}, nil)
	var out any
	err := c.GetJSON(context.Background(), srv.URL, nil, &out)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "API error (404): not here", se.Error())
}

func TestFlexFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{`12.5`, 12.5},
		{`"12.5"`, 12.5},
		{`"1.234,56"`, 1234.56},
		{`""`, 0},
		{`null`, 0},
	}
	for _, tt := range tests {
		var f flexFloat
		require.NoError(t, json.Unmarshal([]byte(tt.in), &f), tt.in)
		assert.InDelta(t, tt.want, float64(f), 1e-9, tt.in)
	}

	var f flexFloat
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &f))
}
