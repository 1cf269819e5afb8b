// Package store provides access to the postal code reference data. The search
// core only ever talks to the Store interface; the SQL backend is the
// production implementation and the memory backend serves tests and local use.
package store

// Row caps applied by every Store implementation. The candidate strategies
// depend on these numbers, so they are part of the Store contract rather than
// a backend tuning knob.
const (
	ExactMatchLimit = 10
	FuzzyMatchLimit = 20
	PlaceMatchLimit = 15
)

// PostalRecord is one row of the reference dataset, read-only to callers.
// Admin fields follow the GeoNames postal layout: three levels of
// administrative name/code pairs, empty when the level is unused.
type PostalRecord struct {
	CountryCode string  `json:"country_code"`
	PostalCode  string  `json:"postal_code"`
	PlaceName   string  `json:"place_name"`
	AdminName1  string  `json:"admin_name1,omitempty"`
	AdminCode1  string  `json:"admin_code1,omitempty"`
	AdminName2  string  `json:"admin_name2,omitempty"`
	AdminCode2  string  `json:"admin_code2,omitempty"`
	AdminName3  string  `json:"admin_name3,omitempty"`
	AdminCode3  string  `json:"admin_code3,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Accuracy    *int    `json:"accuracy,omitempty"`
}

// AccuracyValue returns the accuracy tier with missing values read as 0,
// which ranks them below every real tier (1..6).
func (r PostalRecord) AccuracyValue() int {
	if r.Accuracy != nil {
		return *r.Accuracy
	}
	return 0
}

// Store is the reference-data collaborator consumed by the search core.
// Implementations must be safe for concurrent readers and must return rows in
// a deterministic order for identical inputs.
type Store interface {
	// ExactMatch returns rows whose postal code equals postalCode within the
	// country, ordered by accuracy descending, capped at ExactMatchLimit.
	ExactMatch(country, postalCode string) ([]PostalRecord, error)

	// FuzzyMatch returns rows whose postal code contains pattern, starts with
	// pattern, or is itself a prefix of pattern (all case-insensitive),
	// ordered by absolute length difference ascending then accuracy
	// descending, capped at FuzzyMatchLimit.
	FuzzyMatch(country, pattern string) ([]PostalRecord, error)

	// PlaceMatch treats text as a place or region name and returns rows where
	// it occurs as a case-insensitive substring of the place name or the top
	// two admin names, capped at PlaceMatchLimit.
	PlaceMatch(country, text string) ([]PostalRecord, error)

	// WithinBounds returns rows inside the latitude/longitude box, nearest
	// to (centerLat, centerLng) first under a planar approximation. The cap
	// applies after that ordering, so a saturated scan still holds the
	// closest rows. Callers do the precise distance math.
	WithinBounds(centerLat, centerLng, minLat, maxLat, minLng, maxLng float64, limit int) ([]PostalRecord, error)

	// CountRecords reports the total number of reference rows.
	CountRecords() (int64, error)

	// CountCountries reports the number of distinct country codes.
	CountCountries() (int64, error)
}
