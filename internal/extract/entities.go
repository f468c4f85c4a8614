package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/promessa/internal/model"
)

// EntitiesOf returns the numbers, locations and actors mentioned in text
func (e *RuleExtractor) EntitiesOf(text string) model.Entities {
	tokens := Tokens(text)
	return e.entities(text, tokens, " "+strings.Join(tokens, " ")+" ")
}

// ScopeOf returns the geographic scope of text, or "" when none is detectable
func ScopeOf(text string) model.Scope {
	tokens := Tokens(text)
	return detectScope(text, " "+strings.Join(tokens, " ")+" ")
}

func (e *RuleExtractor) entities(sentence string, tokens []string, folded string) model.Entities {
	ent := model.Entities{
		Numbers:   []string{},
		Locations: []string{},
		Actors:    []string{},
	}

	seen := map[string]bool{}
	add := func(list *[]string, v string) {
		v = strings.TrimSpace(v)
		key := Fold(v)
		if v == "" || seen[key] {
			return
		}
		seen[key] = true
		*list = append(*list, v)
	}

	for _, n := range numberPattern.FindAllString(sentence, -1) {
		add(&ent.Numbers, n)
	}

	for _, name := range properNounsAfterPreposition(sentence) {
		add(&ent.Locations, name)
	}
	for _, loc := range e.lexicon.Locations {
		if strings.Contains(folded, " "+loc+" ") {
			add(&ent.Locations, loc)
		}
	}
	for _, w := range strings.Fields(sentence) {
		w = strings.Trim(w, ".,;:!?()\"'")
		if brazilianStates[w] {
			add(&ent.Locations, w)
		}
	}

	for _, actor := range e.lexicon.Actors {
		if matchKeyword(actor, tokens, folded) {
			add(&ent.Actors, actor)
		}
	}

	return ent
}

// properNounsAfterPreposition collects capitalized runs following em/no/na/nos/nas,
// e.g. "em Recife", "no Rio de Janeiro"
func properNounsAfterPreposition(sentence string) []string {
	words := strings.Fields(sentence)
	var names []string

	for i := 0; i < len(words)-1; i++ {
		switch strings.ToLower(words[i]) {
		case "em", "no", "na", "nos", "nas":
		default:
			continue
		}

		var parts []string
		for j := i + 1; j < len(words); j++ {
			w := strings.Trim(words[j], ".,;:!?()\"'")
			if isCapitalized(w) {
				parts = append(parts, w)
				continue
			}
			// Connectives inside names: "Rio de Janeiro", "Mato Grosso do Sul"
			if len(parts) > 0 && (w == "de" || w == "do" || w == "da" || w == "dos" || w == "das") &&
				j+1 < len(words) && isCapitalized(strings.Trim(words[j+1], ".,;:!?()\"'")) {
				parts = append(parts, w)
				continue
			}
			break
		}
		if len(parts) > 0 {
			names = append(names, strings.Join(parts, " "))
		}
	}
	return names
}

func isCapitalized(w string) bool {
	r, _ := utf8.DecodeRuneInString(w)
	return r != utf8.RuneError && unicode.IsUpper(r)
}

func detectScope(sentence, folded string) model.Scope {
	for _, sp := range scopePatterns {
		for _, w := range sp.words {
			if strings.Contains(folded, " "+w+" ") {
				return sp.scope
			}
		}
		if sp.scope == model.ScopeState {
			for _, w := range strings.Fields(sentence) {
				if brazilianStates[strings.Trim(w, ".,;:!?()\"'")] {
					return model.ScopeState
				}
			}
		}
	}
	return ""
}
