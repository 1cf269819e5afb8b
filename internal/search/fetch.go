package search

import (
	"math"

	"github.com/postal-lookup/internal/store"
)

// collectCandidates fans out the fuzzy retrieval strategies for one query and
// returns the raw rows in strategy order: fuzzy pattern first, the shrinking
// prefix walk only when the pattern strategy came back empty, and the place
// name fallback always last. Deduplication happens later in aggregate.
func (s *Service) collectCandidates(country, postalCode string) []store.PostalRecord {
	candidates := s.runStrategy("fuzzy_pattern", country, postalCode, s.store.FuzzyMatch)
	if len(candidates) == 0 {
		candidates = s.shrinkingPrefix(country, postalCode)
	}
	candidates = append(candidates, s.runStrategy("place_fallback", country, postalCode, s.store.PlaceMatch)...)
	return candidates
}

// shrinkingPrefix re-runs the pattern strategy on progressively shorter
// prefixes of the query, never below max(2, floor(0.6 * original length))
// characters, and stops once enough rows have accumulated to fill a response.
func (s *Service) shrinkingPrefix(country, postalCode string) []store.PostalRecord {
	runes := []rune(postalCode)
	floor := shrinkFloor(len(runes))

	var collected []store.PostalRecord
	for length := len(runes) - 1; length >= floor; length-- {
		rows := s.runStrategy("prefix_shrink", country, string(runes[:length]), s.store.FuzzyMatch)
		collected = append(collected, rows...)
		if len(collected) >= MaxResults {
			break
		}
	}
	return collected
}

func shrinkFloor(length int) int {
	floor := int(math.Floor(shrinkFloorRatio * float64(length)))
	if floor < 2 {
		floor = 2
	}
	return floor
}

// runStrategy executes one retrieval strategy and degrades store failures to
// an empty row set. A broken strategy must never abort the whole lookup.
func (s *Service) runStrategy(name, country, arg string, fn func(string, string) ([]store.PostalRecord, error)) []store.PostalRecord {
	rows, err := fn(country, arg)
	if err != nil {
		s.log.Warn("candidate strategy failed",
			"strategy", name, "country", country, "input", arg, "err", err)
		return nil
	}
	return rows
}
