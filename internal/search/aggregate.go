package search

import (
	"sort"

	"github.com/postal-lookup/internal/store"
)

// scoredCandidate pairs a reference row with its similarity to the query. It
// lives only between aggregation and response formatting.
type scoredCandidate struct {
	store.PostalRecord
	Score float64
}

type candidateKey struct {
	country string
	postal  string
	place   string
}

// aggregate merges the raw strategy output into the final ranked candidate
// list: deduplicate (first occurrence wins), score against the query, drop
// everything under the similarity threshold, sort, and truncate.
//
// Rows surfaced by the place name fallback carry postal codes unrelated to
// the query text, so each candidate is scored against both its postal code
// and its place name and keeps the better of the two.
func aggregate(postalCode string, candidates []store.PostalRecord) []scoredCandidate {
	seen := make(map[candidateKey]struct{}, len(candidates))
	scored := make([]scoredCandidate, 0, len(candidates))

	for _, r := range candidates {
		key := candidateKey{r.CountryCode, r.PostalCode, r.PlaceName}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		score := Similarity(postalCode, r.PostalCode)
		if placeScore := Similarity(postalCode, r.PlaceName); placeScore > score {
			score = placeScore
		}
		if score < SimilarityThreshold {
			continue
		}
		scored = append(scored, scoredCandidate{PostalRecord: r, Score: score})
	}

	sortCandidates(scored)
	if len(scored) > MaxResults {
		scored = scored[:MaxResults]
	}
	return scored
}

// sortCandidates orders by score descending, treating scores within
// scoreTieEpsilon as equal, then accuracy descending with missing read as 0,
// then postal code ascending. The stable sort plus the final lexicographic
// key makes the ordering reproducible for identical inputs.
func sortCandidates(scored []scoredCandidate) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score-scored[j].Score > scoreTieEpsilon {
			return true
		}
		if scored[j].Score-scored[i].Score > scoreTieEpsilon {
			return false
		}
		if scored[i].AccuracyValue() != scored[j].AccuracyValue() {
			return scored[i].AccuracyValue() > scored[j].AccuracyValue()
		}
		return scored[i].PostalCode < scored[j].PostalCode
	})
}
