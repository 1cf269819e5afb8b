package search

import (
	"strings"
	"unicode/utf8"
)

// Suggest returns autocomplete entries for a partial postal code. Only the
// pattern strategy runs here: no edit distance scoring, no threshold and no
// place name fallback, because suggestions favor prefix plausibility over
// closeness. Entries are deduplicated by (postal code, place name) in
// store order.
func (s *Service) Suggest(country, partial string, limit int) SuggestResponse {
	country = strings.ToUpper(strings.TrimSpace(country))
	partial = strings.TrimSpace(partial)

	if utf8.RuneCountInString(partial) < MinSuggestLength {
		return SuggestResponse{
			Success:     false,
			Suggestions: []Suggestion{},
			Error:       "partial postal code must be at least 2 characters",
		}
	}
	if limit <= 0 {
		limit = DefaultSuggestLimit
	} else if limit > MaxSuggestLimit {
		limit = MaxSuggestLimit
	}

	rows := s.runStrategy("suggest", country, partial, s.store.FuzzyMatch)

	type suggestKey struct{ postal, place string }
	seen := make(map[suggestKey]struct{}, len(rows))
	suggestions := make([]Suggestion, 0, limit)
	for _, r := range rows {
		key := suggestKey{r.PostalCode, r.PlaceName}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		suggestions = append(suggestions, Suggestion{
			CountryCode: r.CountryCode,
			PostalCode:  r.PostalCode,
			PlaceName:   r.PlaceName,
			AdminName1:  r.AdminName1,
		})
		if len(suggestions) >= limit {
			break
		}
	}

	return SuggestResponse{Success: true, Suggestions: suggestions}
}
