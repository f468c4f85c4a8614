package validate

import (
	"testing"

	"github.com/ppiankov/promessa/internal/model"
)

func TestSourceClassifier_ListedDomains(t *testing.T) {
	classifier := NewSourceClassifier(model.TranscriptSourcesConfig{
		OfficialDomains: []string{"camara.leg.br"},
		PressDomains:    []string{"folha.uol.com.br", "g1.globo.com"},
	})

	tests := []struct {
		url      string
		expected model.SourceTier
		host     string
		desc     string
	}{
		{
			url:      "https://www.camara.leg.br/noticias/123",
			expected: model.SourceTierOfficial,
			host:     "camara.leg.br",
			desc:     "Official domain with www prefix",
		},
		{
			url:      "https://www1.folha.uol.com.br/poder/2024/discurso.shtml",
			expected: model.SourceTierPress,
			host:     "www1.folha.uol.com.br",
			desc:     "Press subdomain",
		},
		{
			url:      "https://G1.Globo.com/politica/",
			expected: model.SourceTierPress,
			host:     "g1.globo.com",
			desc:     "Host matching is case-insensitive",
		},
		{
			url:      "https://blog.example.com/post",
			expected: model.SourceTierUnknown,
			host:     "blog.example.com",
			desc:     "Unlisted domain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			tier, host := classifier.Classify(tt.url)
			if tier != tt.expected {
				t.Errorf("Expected %v for %s, got %v", tt.expected, tt.url, tier)
			}
			if host != tt.host {
				t.Errorf("Expected host %q, got %q", tt.host, host)
			}
		})
	}
}

func TestSourceClassifier_PublicBodySuffixes(t *testing.T) {
	classifier := NewSourceClassifier(model.TranscriptSourcesConfig{})

	for _, u := range []string{
		"https://www.gov.br/planalto/pt-br/discursos",
		"https://www12.senado.leg.br/noticias",
		"https://www.tse.jus.br/comunicacao",
		"https://saude.sp.gov.br:8443/pronunciamento",
	} {
		if tier, _ := classifier.Classify(u); tier != model.SourceTierOfficial {
			t.Errorf("Expected official for %s, got %v", u, tier)
		}
	}
}

func TestSourceClassifier_DomainMapWins(t *testing.T) {
	classifier := NewSourceClassifier(model.TranscriptSourcesConfig{
		PressDomains: []string{"example.gov.br"},
		DomainMap:    map[string]string{"example.gov.br": "unknown"},
	})

	if tier, _ := classifier.Classify("https://example.gov.br/x"); tier != model.SourceTierUnknown {
		t.Errorf("Expected domain map to override, got %v", tier)
	}
}

func TestSourceClassifier_PathPatterns(t *testing.T) {
	classifier := NewSourceClassifier(model.TranscriptSourcesConfig{
		PathPatterns: []model.PathPattern{
			{Pattern: `^/transcricoes/`, Tier: "official"},
			{Pattern: `(`, Tier: "press"}, // invalid, skipped
		},
	})

	if tier, _ := classifier.Classify("https://arquivo.example.org/transcricoes/2024/01"); tier != model.SourceTierOfficial {
		t.Errorf("Expected official via path pattern, got %v", tier)
	}
	if len(classifier.pathPatterns) != 1 {
		t.Errorf("Expected invalid pattern to be skipped, got %d patterns", len(classifier.pathPatterns))
	}
}

func TestSourceClassifier_InvalidURLs(t *testing.T) {
	classifier := NewSourceClassifier(model.TranscriptSourcesConfig{})

	for _, u := range []string{"", "not a url", "://missing-scheme", "/relative/path"} {
		tier, host := classifier.Classify(u)
		if tier != model.SourceTierUnknown || host != "" {
			t.Errorf("Expected unknown with no host for %q, got %v %q", u, tier, host)
		}
	}
}

func TestSourceClassifier_Note(t *testing.T) {
	classifier := NewSourceClassifier(model.DefaultConfig().HTTP.Transcripts)

	if note := classifier.Note("https://www.camara.leg.br/discurso"); note != "" {
		t.Errorf("Expected no note for official source, got %q", note)
	}
	if note := classifier.Note("https://g1.globo.com/politica/"); note != "Transcript taken from a press report (g1.globo.com); wording may be paraphrased" {
		t.Errorf("Unexpected press note: %q", note)
	}
	if note := classifier.Note("https://example.com/x"); note != "Transcript taken from an unverified source (example.com)" {
		t.Errorf("Unexpected unknown note: %q", note)
	}
	if note := classifier.Note("::"); note != "Transcript source could not be identified" {
		t.Errorf("Unexpected note for bad URL: %q", note)
	}
}

func TestParseTier(t *testing.T) {
	tests := map[string]model.SourceTier{
		"official": model.SourceTierOfficial,
		"OFFICIAL": model.SourceTierOfficial,
		"1":        model.SourceTierOfficial,
		"press":    model.SourceTierPress,
		" 2 ":      model.SourceTierPress,
		"unknown":  model.SourceTierUnknown,
		"garbage":  model.SourceTierUnknown,
	}
	for in, expected := range tests {
		if got := ParseTier(in); got != expected {
			t.Errorf("ParseTier(%q): expected %v, got %v", in, expected, got)
		}
	}
}
