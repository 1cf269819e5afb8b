// Package search implements the postal code lookup core: candidate retrieval
// strategies against the reference store, similarity scoring, deterministic
// aggregation, and the orchestration exposed to the transport layer.
package search

import "github.com/postal-lookup/internal/store"

// Tunables for the fuzzy pipeline.
const (
	// SimilarityThreshold is the hard floor below which fuzzy candidates are
	// discarded.
	SimilarityThreshold = 0.5

	// scoreTieEpsilon treats scores this close as equal during sorting so
	// floating point jitter cannot reorder equal-quality matches.
	scoreTieEpsilon = 0.01

	// MaxResults caps every lookup response.
	MaxResults = 20

	// shrinkFloorRatio controls how far the prefix-shrinking strategy may
	// truncate the query.
	shrinkFloorRatio = 0.6

	// MinSuggestLength is the shortest partial input accepted by Suggest.
	MinSuggestLength = 2

	// DefaultSuggestLimit applies when the caller passes no usable limit.
	DefaultSuggestLimit = 10

	// MaxSuggestLimit caps the suggestion count one request may ask for,
	// like MaxResults does for lookups.
	MaxSuggestLimit = 50
)

// MatchType discriminates how a lookup was satisfied. Callers must branch on
// it rather than on result count: "none" is a successful response with an
// empty result list.
type MatchType string

const (
	MatchExact MatchType = "exact"
	MatchFuzzy MatchType = "fuzzy"
	MatchNone  MatchType = "none"
)

// SearchQuery is a normalized lookup request.
type SearchQuery struct {
	CountryCode string `json:"country_code"`
	PostalCode  string `json:"postal_code"`
	Fuzzy       bool   `json:"fuzzy"`
}

// Match is one formatted output record.
type Match struct {
	store.PostalRecord
	FullAddress string `json:"full_address"`
	// SimilarityScore is set on fuzzy matches only; exact matches carry none.
	SimilarityScore *float64 `json:"similarity_score,omitempty"`
}

// SearchResult is the complete response to one lookup.
type SearchResult struct {
	Success   bool        `json:"success"`
	MatchType MatchType   `json:"match_type"`
	Query     SearchQuery `json:"query"`
	Results   []Match     `json:"results"`
	Error     string      `json:"error,omitempty"`
	Elapsed   float64     `json:"elapsed_ms"`
}

// Suggestion is one autocomplete entry.
type Suggestion struct {
	CountryCode string `json:"country_code"`
	PostalCode  string `json:"postal_code"`
	PlaceName   string `json:"place_name"`
	AdminName1  string `json:"admin_name1,omitempty"`
}

// SuggestResponse is the response to one autocomplete request.
type SuggestResponse struct {
	Success     bool         `json:"success"`
	Suggestions []Suggestion `json:"suggestions"`
	Error       string       `json:"error,omitempty"`
}

// Stats summarizes the reference dataset.
type Stats struct {
	TotalRecords int64 `json:"total_records"`
	Countries    int64 `json:"countries"`
}

// HealthStatus reports whether the service can answer lookups.
type HealthStatus struct {
	Healthy bool    `json:"healthy"`
	Stats   Stats   `json:"stats"`
	Elapsed float64 `json:"elapsed_ms"`
}

// NearbyMatch is a Match annotated with the great-circle distance from the
// requested point.
type NearbyMatch struct {
	Match
	DistanceKM float64 `json:"distance_km"`
}

// Logger is the logging capability injected into the service. The
// charmbracelet logger satisfies it directly.
type Logger interface {
	Info(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
	Error(msg any, keyvals ...any)
}
