package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewProxyFunc_ExplicitProxy(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.internal:8080", "", "camara.leg.br")

	req, _ := http.NewRequest(http.MethodGet, "http://example.com/discurso", nil)
	u, err := proxy(req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if u == nil || u.Host != "proxy.internal:8080" {
		t.Errorf("Expected proxy.internal:8080, got %v", u)
	}

	req, _ = http.NewRequest(http.MethodGet, "http://www.camara.leg.br/x", nil)
	u, err = proxy(req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if u != nil {
		t.Errorf("Expected no proxy for NO_PROXY host, got %v", u)
	}

	req, _ = http.NewRequest(http.MethodGet, "https://example.com/x", nil)
	u, _ = proxy(req)
	if u != nil {
		t.Errorf("Expected no proxy for https without https proxy, got %v", u)
	}
}

func TestNewHTTPClient(t *testing.T) {
	c := NewHTTPClient(7*time.Second, "", "", "")
	if c.Timeout != 7*time.Second {
		t.Errorf("Expected 7s timeout, got %v", c.Timeout)
	}
	if _, ok := c.Transport.(*http.Transport); !ok {
		t.Errorf("Expected *http.Transport, got %T", c.Transport)
	}
}

func TestRobotsChecker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		_, _ = w.Write([]byte("User-agent: promessa\nDisallow: /privado\nCrawl-delay: 2\n"))
	}))
	defer srv.Close()

	checker := NewRobotsChecker(srv.Client(), "Promessa/0.1 (+https://github.com/ppiankov/promessa)")
	ctx := context.Background()

	d, err := checker.Check(ctx, srv.URL+"/discursos/1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !d.Allowed || d.Unchecked {
		t.Errorf("Expected allowed and checked, got %+v", d)
	}
	if d.CrawlDelay != 2*time.Second {
		t.Errorf("Expected 2s crawl delay, got %v", d.CrawlDelay)
	}

	d, err = checker.Check(ctx, srv.URL+"/privado/ata")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if d.Allowed {
		t.Error("Expected /privado to be disallowed")
	}

	if hits.Load() != 1 {
		t.Errorf("Expected robots.txt fetched once, got %d", hits.Load())
	}

	checker.Forget()
	_, _ = checker.Check(ctx, srv.URL+"/")
	if hits.Load() != 2 {
		t.Errorf("Expected refetch after Forget, got %d", hits.Load())
	}
}

func TestRobotsChecker_MissingFileAllowsAll(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	d, err := NewRobotsChecker(srv.Client(), "promessa").Check(context.Background(), srv.URL+"/qualquer")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !d.Allowed {
		t.Error("Expected allow-all when robots.txt is missing")
	}
}

func TestRobotsChecker_UnreachableIsUnchecked(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	d, err := NewRobotsChecker(nil, "promessa").Check(context.Background(), addr+"/x")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !d.Allowed || !d.Unchecked {
		t.Errorf("Expected allowed and unchecked, got %+v", d)
	}
}

func TestRobotsChecker_RejectsBadScheme(t *testing.T) {
	if _, err := NewRobotsChecker(nil, "promessa").Check(context.Background(), "ftp://example.com/x"); err == nil {
		t.Error("Expected error for ftp scheme")
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	tests := []struct {
		ua       string
		expected string
	}{
		{"Promessa/0.1 (+https://github.com/ppiankov/promessa)", "Promessa"},
		{"promessa", "promessa"},
		{"curl/8.0", "curl"},
		{"", ""},
		{"   ", "   "},
	}
	for _, tt := range tests {
		if got := NormalizeUserAgent(tt.ua); got != tt.expected {
			t.Errorf("NormalizeUserAgent(%q): expected %q, got %q", tt.ua, tt.expected, got)
		}
	}
}

func TestRegisterOrReuse(t *testing.T) {
	reg := prometheus.NewRegistry()
	opts := prometheus.CounterOpts{Name: "promessa_test_total", Help: "test"}

	first := RegisterOrReuse(reg, prometheus.NewCounter(opts))
	second := RegisterOrReuse(reg, prometheus.NewCounter(opts))
	if first != second {
		t.Error("Expected the already registered counter to be reused")
	}
}
