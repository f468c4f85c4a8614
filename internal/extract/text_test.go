package extract

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeInput_HTML(t *testing.T) {
	page := `
	<html>
	<head><title>Discurso</title></head>
	<body>
		<script>var x = "vou construir";</script>
		<style>p { color: red }</style>
		<p>Vou construir 100 creches.</p>
		<p>Obrigado!</p>
	</body>
	</html>`

	got := NormalizeInput(page)
	if strings.Contains(got, "var x") || strings.Contains(got, "color") {
		t.Errorf("Expected script and style to be stripped, got %q", got)
	}
	if strings.Contains(got, "Discurso") {
		t.Errorf("Expected head to be skipped, got %q", got)
	}

	want := "Vou construir 100 creches.\nObrigado!"
	if got != want {
		t.Errorf("NormalizeInput() = %q, want %q", got, want)
	}
}

func TestNormalizeInput_PlainText(t *testing.T) {
	got := NormalizeInput("  Vou   reduzir o IPTU  \n\n se x < 3 ")
	want := "Vou reduzir o IPTU\nse x < 3"
	if got != want {
		t.Errorf("NormalizeInput() = %q, want %q", got, want)
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("Vou investir R$ 1.500 milhões; vamos contratar. Prometo!\nSegunda linha? fim")
	want := []string{
		"Vou investir R$ 1.500 milhões",
		"vamos contratar",
		"Prometo",
		"Segunda linha",
		"fim",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("splitSentences() mismatch (-want +got):\n%s", diff)
	}
}

func TestFoldAndTokens(t *testing.T) {
	if got := Fold("Educação SAÚDE Não"); got != "educacao saude nao" {
		t.Errorf("Fold() = %q", got)
	}

	got := Tokens("Não vou, jamais, cortar 30% do Centro-Oeste!")
	want := []string{"nao", "vou", "jamais", "cortar", "30%", "do", "centro-oeste"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokens() mismatch (-want +got):\n%s", diff)
	}
}
