package coherence

import (
	"strings"
	"unicode"
)

const maxKeywords = 10

var stopwords = map[string]struct{}{
	"o": {}, "a": {}, "de": {}, "para": {}, "com": {}, "em": {}, "é": {}, "que": {}, "e": {},
	"do": {}, "da": {}, "ou": {}, "por": {}, "um": {}, "uma": {}, "os": {}, "as": {}, "dos": {}, "das": {},
	"pelo": {}, "pela": {}, "pelos": {}, "pelas": {}, "como": {}, "mais": {}, "sobre": {}, "entre": {},
	"quando": {}, "também": {}, "será": {}, "serão": {}, "este": {}, "esta": {}, "estes": {}, "estas": {},
	"isso": {}, "isto": {}, "esse": {}, "essa": {}, "nosso": {}, "nossa": {}, "nossos": {}, "nossas": {},
	"seus": {}, "suas": {}, "todos": {}, "todas": {}, "muito": {}, "muitos": {}, "onde": {}, "porque": {},
	"ainda": {}, "depois": {}, "antes": {}, "desde": {}, "até": {}, "aos": {}, "nas": {}, "nos": {},
	"outros": {}, "outras": {}, "qual": {}, "quais": {}, "cada": {}, "dessa": {}, "desse": {}, "deste": {},
	"desta": {}, "nesse": {}, "nessa": {}, "neste": {}, "nesta": {}, "dispõe": {}, "altera": {},
}

// Keywords returns up to ten distinct lowercase words of text longer than
// three characters, skipping stopwords, in order of appearance
func Keywords(text string) []string {
	out := make([]string, 0, maxKeywords)
	seen := map[string]struct{}{}

	for _, field := range strings.Fields(strings.ToLower(text)) {
		word := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len([]rune(word)) <= 3 {
			continue
		}
		if _, stop := stopwords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		out = append(out, word)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

// Overlap is the Jaccard index of two keyword lists. An empty side yields 0.
func Overlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, k := range a {
		set[k] = struct{}{}
	}
	inter := 0
	union := len(set)
	seen := make(map[string]struct{}, len(b))
	for _, k := range b {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := set[k]; ok {
			inter++
			continue
		}
		union++
	}
	return float64(inter) / float64(union)
}
