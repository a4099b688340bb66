package reconcile

import (
	"strings"

	"github.com/hbollon/go-edlib"
)

const (
	// Names longer than this tolerate two edits instead of one.
	longNameLength = 8
	// Containment only counts when the shorter name is longer than this.
	minContainedLength = 5
	// Words of this length or shorter are ignored by the token overlap check.
	maxIgnoredWordLength = 2
	minTokenOverlap      = 0.75
)

// Similar reports whether two artist names refer to the same act. The checks run
// in order and the first hit wins: normalized equality, edit distance, containment,
// then word overlap.
func Similar(name1, name2 string) bool {
	a, b := Normalize(name1), Normalize(name2)
	if a == b {
		return true
	}
	if withinEditDistance(a, b) {
		return true
	}
	if contains(a, b) {
		return true
	}
	return tokensOverlap(a, b)
}

func withinEditDistance(a, b string) bool {
	threshold := 1
	if len(a) > longNameLength || len(b) > longNameLength {
		threshold = 2
	}
	return edlib.LevenshteinDistance(a, b) <= threshold
}

func contains(a, b string) bool {
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	return len(shorter) > minContainedLength && strings.Contains(longer, shorter)
}

func tokensOverlap(a, b string) bool {
	wordsA, wordsB := significantWords(a), significantWords(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return false
	}
	shorter, longer := wordsA, wordsB
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	matched := 0
	for _, w := range shorter {
		for _, o := range longer {
			if strings.Contains(o, w) || strings.Contains(w, o) {
				matched++
				break
			}
		}
	}
	return float64(matched)/float64(len(shorter)) >= minTokenOverlap
}

func significantWords(s string) []string {
	var words []string
	for _, w := range strings.Fields(s) {
		if len(w) > maxIgnoredWordLength {
			words = append(words, w)
		}
	}
	return words
}
