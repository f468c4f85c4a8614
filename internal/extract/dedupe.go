package extract

import "github.com/ppiankov/promessa/internal/model"

// DefaultDedupThreshold is the token Jaccard similarity at which two claims merge
const DefaultDedupThreshold = 0.8

// Jaccard returns |A∩B| / |A∪B| over the folded token sets of a and b.
// Two empty texts are identical.
func Jaccard(a, b string) float64 {
	return jaccardSets(tokenSet(a), tokenSet(b))
}

// Dedupe drops claims at or above threshold similarity to an earlier kept
// claim. The first occurrence wins and order is preserved.
func Dedupe(claims []model.PromiseClaim, threshold float64) []model.PromiseClaim {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultDedupThreshold
	}

	kept := make([]model.PromiseClaim, 0, len(claims))
	var keptSets []map[string]struct{}

	for _, c := range claims {
		set := tokenSet(c.Text)
		dup := false
		for _, other := range keptSets {
			if jaccardSets(set, other) >= threshold {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		kept = append(kept, c)
		keptSets = append(keptSets, set)
	}
	return kept
}

func tokenSet(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, tok := range Tokens(s) {
		set[tok] = struct{}{}
	}
	return set
}

func jaccardSets(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
