package store

import (
	"database/sql"
	"fmt"
)

const recordColumns = `country_code, postal_code, place_name,
		admin_name1, admin_code1, admin_name2, admin_code2, admin_name3, admin_code3,
		latitude, longitude, accuracy`

// SQLStore reads reference data from the postal_codes table.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open database handle. The caller owns the handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) ExactMatch(country, postalCode string) ([]PostalRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM postal_codes
		WHERE country_code = $1 AND postal_code = $2
		ORDER BY accuracy DESC NULLS LAST, place_name ASC
		LIMIT %d`, recordColumns, ExactMatchLimit)

	return s.queryRecords(query, country, postalCode)
}

func (s *SQLStore) FuzzyMatch(country, pattern string) ([]PostalRecord, error) {
	// Three predicates: pattern inside the code, code starting with the
	// pattern, and the code being a prefix of the pattern. The last one is
	// what lets an over-long query like "90210-1234" still reach "90210".
	query := fmt.Sprintf(`
		SELECT %s
		FROM postal_codes
		WHERE country_code = $1
		  AND (postal_code ILIKE '%%' || $2 || '%%'
		       OR postal_code ILIKE $2 || '%%'
		       OR $2 ILIKE postal_code || '%%')
		ORDER BY ABS(LENGTH(postal_code) - LENGTH($2)) ASC,
		         accuracy DESC NULLS LAST,
		         postal_code ASC, place_name ASC
		LIMIT %d`, recordColumns, FuzzyMatchLimit)

	return s.queryRecords(query, country, pattern)
}

func (s *SQLStore) PlaceMatch(country, text string) ([]PostalRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM postal_codes
		WHERE country_code = $1
		  AND (place_name ILIKE '%%' || $2 || '%%'
		       OR admin_name1 ILIKE '%%' || $2 || '%%'
		       OR admin_name2 ILIKE '%%' || $2 || '%%')
		ORDER BY accuracy DESC NULLS LAST, postal_code ASC, place_name ASC
		LIMIT %d`, recordColumns, PlaceMatchLimit)

	return s.queryRecords(query, country, text)
}

func (s *SQLStore) WithinBounds(centerLat, centerLng, minLat, maxLat, minLng, maxLng float64, limit int) ([]PostalRecord, error) {
	// Squared lat/lng deltas from the center, with the longitude delta
	// wrapped at the antimeridian and scaled by the center latitude. Rough,
	// but it only has to decide which rows survive the LIMIT.
	query := fmt.Sprintf(`
		SELECT %s
		FROM postal_codes
		WHERE latitude BETWEEN $3 AND $4
		  AND longitude BETWEEN $5 AND $6
		ORDER BY POWER(latitude - $1, 2)
		         + POWER(LEAST(ABS(longitude - $2), 360 - ABS(longitude - $2)) * COS(RADIANS($1)), 2) ASC,
		         country_code ASC, postal_code ASC, place_name ASC
		LIMIT $7`, recordColumns)

	return s.queryRecords(query, centerLat, centerLng, minLat, maxLat, minLng, maxLng, limit)
}

func (s *SQLStore) CountRecords() (int64, error) {
	var n int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM postal_codes`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func (s *SQLStore) CountCountries() (int64, error) {
	var n int64
	err := s.db.QueryRow(`SELECT COUNT(DISTINCT country_code) FROM postal_codes`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count countries: %w", err)
	}
	return n, nil
}

func (s *SQLStore) queryRecords(query string, args ...any) ([]PostalRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query postal_codes: %w", err)
	}
	defer rows.Close()

	var records []PostalRecord
	for rows.Next() {
		var r PostalRecord
		err := rows.Scan(
			&r.CountryCode, &r.PostalCode, &r.PlaceName,
			&r.AdminName1, &r.AdminCode1, &r.AdminName2, &r.AdminCode2,
			&r.AdminName3, &r.AdminCode3,
			&r.Latitude, &r.Longitude, &r.Accuracy,
		)
		if err != nil {
			return nil, fmt.Errorf("scan postal record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate postal records: %w", err)
	}
	return records, nil
}
