package search

import (
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Similarity scores how close a candidate string is to a query string on a
// 0..1 scale. Identical strings score exactly 1.0. The base score is
// normalized edit distance, lifted by a length-ratio bonus (up to 0.1) and a
// case-insensitive common-prefix bonus (up to 0.2), so a truncated query like
// "9021" still lands well above the fuzzy threshold against "90210".
func Similarity(query, candidate string) float64 {
	if query == candidate {
		return 1.0
	}

	qLen := utf8.RuneCountInString(query)
	cLen := utf8.RuneCountInString(candidate)
	maxLen, minLen := qLen, cLen
	if cLen > qLen {
		maxLen, minLen = cLen, qLen
	}

	distance := levenshtein.ComputeDistance(query, candidate)
	base := 1.0 - float64(distance)/float64(maxLen)
	// Edit distance never exceeds the longer length, but the clamp keeps the
	// bonuses from ever rescuing a negative base.
	if base < 0 {
		base = 0
	}

	lengthBonus := float64(minLen) / float64(maxLen) * 0.1
	prefixBonus := float64(commonPrefixLen(query, candidate)) / float64(maxLen) * 0.2

	score := base + lengthBonus + prefixBonus
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// commonPrefixLen counts leading runes that match case-insensitively,
// stopping at the first mismatch.
func commonPrefixLen(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	n := len(ra)
	if len(rb) < n {
		n = len(rb)
	}
	count := 0
	for i := 0; i < n; i++ {
		if unicode.ToLower(ra[i]) != unicode.ToLower(rb[i]) {
			break
		}
		count++
	}
	return count
}
