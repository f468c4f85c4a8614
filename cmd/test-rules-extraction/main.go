// Test program to demonstrate offline promise extraction
// This shows the lexicon rules and the text-only viability factors working without any network access
package main

import (
	"fmt"
	"strings"

	"github.com/ppiankov/promessa/internal/extract"
	"github.com/ppiankov/promessa/internal/score"
)

func main() {
	fmt.Println("=== Rules Extraction Test ===")
	fmt.Println()

	// Statements with known promises
	statements := []string{
		"Vou construir 1000 escolas em todo o país até 2026.",
		"Se eleito, vamos ampliar o SUS em São Paulo em 2 anos com R$ 5 bilhões.",
		"Não vou aumentar impostos. Vamos reduzir a violência no Rio de Janeiro.",
		"O Brasil é um país maravilhoso.",
	}

	rules := extract.NewRuleExtractor(extract.DefaultLexicon())

	for _, text := range statements {
		fmt.Printf("Statement: %s\n", text)
		fmt.Println(strings.Repeat("-", 60))

		claims := rules.Extract(extract.NormalizeInput(text))
		if len(claims) == 0 {
			fmt.Println("  (no promises found)")
		}
		for i, c := range claims {
			fmt.Printf("  %d. [%s] %s\n", i+1, c.Category, c.Text)
			fmt.Printf("     confidence=%.2f negated=%v conditional=%v scope=%s\n",
				c.Confidence, c.Negated, c.Conditional, c.Scope)
			fmt.Printf("     specificity=%.2f timeline=%.2f amount=R$ %.0f\n",
				score.Specificity(c.Text), score.TimelineFeasibility(c.Text),
				extract.LargestAmount(c.Entities.Numbers))
		}
		fmt.Println()
	}
}
