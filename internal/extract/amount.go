package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	amountPattern     = regexp.MustCompile(`^r\$\s*(\d+(?:[.,]\d+)*)\s*(mil|milhao|milhoes|bilhao|bilhoes)?$`)
	thousandsGrouping = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
)

var amountMultipliers = map[string]float64{
	"":        1,
	"mil":     1e3,
	"milhao":  1e6,
	"milhoes": 1e6,
	"bilhao":  1e9,
	"bilhoes": 1e9,
}

// ParseAmount reads a BRL amount such as "R$ 2 bilhões" or "R$ 1.500,50".
// Only amounts written with the R$ sign are recognized.
func ParseAmount(s string) (float64, bool) {
	m := amountPattern.FindStringSubmatch(strings.TrimSpace(Fold(s)))
	if m == nil {
		return 0, false
	}

	num := m[1]
	switch {
	case strings.Contains(num, ","):
		num = strings.ReplaceAll(num, ".", "")
		num = strings.ReplaceAll(num, ",", ".")
	case thousandsGrouping.MatchString(num):
		num = strings.ReplaceAll(num, ".", "")
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	return v * amountMultipliers[m[2]], true
}

// LargestAmount returns the largest BRL amount among numbers, or 0
func LargestAmount(numbers []string) float64 {
	var largest float64
	for _, n := range numbers {
		if v, ok := ParseAmount(n); ok && v > largest {
			largest = v
		}
	}
	return largest
}
