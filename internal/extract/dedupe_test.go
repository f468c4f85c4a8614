package extract

import (
	"testing"

	"github.com/ppiankov/promessa/internal/model"
)

func TestJaccard(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"vou construir escolas", "Vou construir escolas", 1},
		{"vou construir escolas", "vou construir hospitais", 0.5},
		{"", "", 1},
		{"saúde", "", 0},
	}

	for _, tt := range tests {
		if got := Jaccard(tt.a, tt.b); got != tt.want {
			t.Errorf("Jaccard(%q, %q) = %.2f, want %.2f", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDedupe_FirstOccurrenceWins(t *testing.T) {
	claims := []model.PromiseClaim{
		{Text: "Vou construir 100 escolas no estado", Confidence: 0.9},
		{Text: "vou construir 100 escolas no Estado!", Confidence: 0.5},
		{Text: "Vou contratar médicos"},
	}

	got := Dedupe(claims, 0.8)
	if len(got) != 2 {
		t.Fatalf("Expected 2 claims, got %d", len(got))
	}
	if got[0].Confidence != 0.9 {
		t.Errorf("Expected first occurrence to be kept, got confidence %.2f", got[0].Confidence)
	}
	if got[1].Text != "Vou contratar médicos" {
		t.Errorf("Expected order to be preserved, got %q", got[1].Text)
	}
}

func TestDedupe_InvalidThresholdUsesDefault(t *testing.T) {
	claims := []model.PromiseClaim{
		{Text: "um dois tres quatro cinco"},
		{Text: "um dois tres quatro seis"},
	}

	// 4/6 similarity stays below the default 0.8
	if got := Dedupe(claims, 0); len(got) != 2 {
		t.Errorf("Expected 2 claims with default threshold, got %d", len(got))
	}
}
