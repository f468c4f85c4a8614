package extract

import (
	"strings"

	"github.com/ppiankov/promessa/internal/model"
)

// RuleExtractor finds promises with the lexicon alone. It never fails and
// never calls out.
type RuleExtractor struct {
	lexicon Lexicon
	verbs   map[string]bool
	negs    map[string]bool
}

// NewRuleExtractor creates a rule-based extractor over lex
func NewRuleExtractor(lex Lexicon) *RuleExtractor {
	return &RuleExtractor{
		lexicon: lex,
		verbs:   toSet(lex.PromissoryVerbs),
		negs:    toSet(lex.Negations),
	}
}

// Extract returns one claim per sentence containing a promissory verb
func (e *RuleExtractor) Extract(text string) []model.PromiseClaim {
	claims := []model.PromiseClaim{}

	for _, sentence := range splitSentences(text) {
		tokens := Tokens(sentence)
		verbAt := e.verbIndex(tokens)
		if verbAt < 0 {
			continue
		}

		folded := " " + strings.Join(tokens, " ") + " "
		claims = append(claims, model.PromiseClaim{
			Text:        sentence,
			Category:    e.category(tokens, folded),
			Confidence:  ruleConfidence(sentence),
			Negated:     e.negated(tokens, verbAt),
			Conditional: conditionalPattern.MatchString(Fold(sentence)),
			Entities:    e.entities(sentence, tokens, folded),
			Scope:       detectScope(sentence, folded),
			Source:      model.SourceRules,
		})
	}

	return claims
}

func (e *RuleExtractor) verbIndex(tokens []string) int {
	for i, tok := range tokens {
		if e.verbs[tok] {
			return i
		}
	}
	return -1
}

// negated reports a negation word before the promissory verb
func (e *RuleExtractor) negated(tokens []string, verbAt int) bool {
	for _, tok := range tokens[:verbAt] {
		if e.negs[tok] {
			return true
		}
	}
	return false
}

// category returns the first category in table order with a keyword hit
func (e *RuleExtractor) category(tokens []string, folded string) model.Category {
	for _, entry := range e.lexicon.Categories {
		for _, kw := range entry.Keywords {
			if matchKeyword(kw, tokens, folded) {
				return entry.Category
			}
		}
	}
	return model.CategoryGeneral
}

func ruleConfidence(sentence string) float64 {
	folded := Fold(sentence)

	confidence := 0.5
	if digitPattern.MatchString(sentence) {
		confidence += 0.2
	}
	if deadlinePattern.MatchString(folded) {
		confidence += 0.1
	}
	if quantityPattern.MatchString(folded) || strings.Contains(folded, "em todo o pais") {
		confidence += 0.1
	}
	return model.Clamp01(confidence)
}

// matchKeyword matches phrases as whole words, "$"-terminated keywords as
// whole tokens and other single keywords as token prefixes
func matchKeyword(kw string, tokens []string, folded string) bool {
	if strings.Contains(kw, " ") {
		return strings.Contains(folded, " "+kw+" ")
	}
	if exact, ok := strings.CutSuffix(kw, "$"); ok {
		for _, tok := range tokens {
			if tok == exact {
				return true
			}
		}
		return false
	}
	for _, tok := range tokens {
		if strings.HasPrefix(tok, kw) {
			return true
		}
	}
	return false
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[Fold(w)] = true
	}
	return set
}
