package search

import (
	"strings"
	"time"

	"github.com/postal-lookup/internal/format"
	"github.com/postal-lookup/internal/store"
)

// Service orchestrates lookups against the reference store. It holds no
// per-request state, so a single instance serves concurrent requests.
type Service struct {
	store store.Store
	log   Logger
}

// NewService wires the search core to its store and logger.
func NewService(st store.Store, log Logger) *Service {
	return &Service{store: st, log: log}
}

// Lookup resolves one postal code query. Exact matching runs first; the
// fuzzy pipeline only runs when exact matching finds nothing and the caller
// asked for it. A query that matches nothing is a successful response with
// MatchNone, not an error.
func (s *Service) Lookup(country, postalCode string, fuzzy bool) (result SearchResult) {
	start := time.Now()
	query := SearchQuery{
		CountryCode: strings.ToUpper(strings.TrimSpace(country)),
		PostalCode:  strings.TrimSpace(postalCode),
		Fuzzy:       fuzzy,
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("lookup panicked",
				"country", query.CountryCode, "postal_code", query.PostalCode, "panic", r)
			result = SearchResult{
				Success:   false,
				MatchType: MatchNone,
				Query:     query,
				Results:   []Match{},
				Error:     "internal error",
			}
		}
		result.Elapsed = elapsedMS(start)
	}()

	if query.CountryCode == "" || query.PostalCode == "" {
		return SearchResult{
			Success:   false,
			MatchType: MatchNone,
			Query:     query,
			Results:   []Match{},
			Error:     "country and postal code are required",
		}
	}

	if rows := s.runStrategy("exact", query.CountryCode, query.PostalCode, s.store.ExactMatch); len(rows) > 0 {
		return SearchResult{
			Success:   true,
			MatchType: MatchExact,
			Query:     query,
			Results:   s.formatExact(rows),
		}
	}

	if query.Fuzzy {
		candidates := s.collectCandidates(query.CountryCode, query.PostalCode)
		if scored := aggregate(query.PostalCode, candidates); len(scored) > 0 {
			return SearchResult{
				Success:   true,
				MatchType: MatchFuzzy,
				Query:     query,
				Results:   s.formatScored(scored),
			}
		}
	}

	return SearchResult{
		Success:   true,
		MatchType: MatchNone,
		Query:     query,
		Results:   []Match{},
	}
}

// SearchMultiple maps Lookup over the queries sequentially. The response
// always has exactly one entry per query, in input order, regardless of
// individual outcomes.
func (s *Service) SearchMultiple(queries []SearchQuery) []SearchResult {
	results := make([]SearchResult, 0, len(queries))
	for _, q := range queries {
		results = append(results, s.Lookup(q.CountryCode, q.PostalCode, q.Fuzzy))
	}
	return results
}

// Validate reports whether the postal code exists verbatim for the country.
// Any internal failure degrades to false; the contract is a plain yes or no.
func (s *Service) Validate(country, postalCode string) bool {
	country = strings.ToUpper(strings.TrimSpace(country))
	postalCode = strings.TrimSpace(postalCode)
	if country == "" || postalCode == "" {
		return false
	}
	rows, err := s.store.ExactMatch(country, postalCode)
	if err != nil {
		s.log.Warn("validation check failed",
			"country", country, "postal_code", postalCode, "err", err)
		return false
	}
	return len(rows) > 0
}

// HealthCheck reports service health. The store counts double as the stats
// payload; the service is healthy only when reference rows are present.
func (s *Service) HealthCheck() HealthStatus {
	start := time.Now()
	status := HealthStatus{}

	records, err := s.store.CountRecords()
	if err != nil {
		s.log.Error("health check failed", "err", err)
		status.Elapsed = elapsedMS(start)
		return status
	}
	countries, err := s.store.CountCountries()
	if err != nil {
		s.log.Error("health check failed", "err", err)
		status.Elapsed = elapsedMS(start)
		return status
	}

	status.Healthy = records > 0
	status.Stats = Stats{TotalRecords: records, Countries: countries}
	status.Elapsed = elapsedMS(start)
	return status
}

// Stats returns dataset counts without the health verdict.
func (s *Service) Stats() (Stats, error) {
	records, err := s.store.CountRecords()
	if err != nil {
		return Stats{}, err
	}
	countries, err := s.store.CountCountries()
	if err != nil {
		return Stats{}, err
	}
	return Stats{TotalRecords: records, Countries: countries}, nil
}

func (s *Service) formatExact(rows []store.PostalRecord) []Match {
	matches := make([]Match, 0, len(rows))
	for _, r := range rows {
		matches = append(matches, Match{
			PostalRecord: r,
			FullAddress:  format.FullAddress(r),
		})
	}
	return matches
}

func (s *Service) formatScored(scored []scoredCandidate) []Match {
	matches := make([]Match, 0, len(scored))
	for _, c := range scored {
		score := c.Score
		matches = append(matches, Match{
			PostalRecord:    c.PostalRecord,
			FullAddress:     format.FullAddress(c.PostalRecord),
			SimilarityScore: &score,
		})
	}
	return matches
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
