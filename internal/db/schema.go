package db

import (
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS postal_codes (
		id BIGSERIAL PRIMARY KEY,
		country_code VARCHAR(2) NOT NULL,
		postal_code VARCHAR(20) NOT NULL,
		place_name TEXT NOT NULL DEFAULT '',
		admin_name1 TEXT NOT NULL DEFAULT '',
		admin_code1 TEXT NOT NULL DEFAULT '',
		admin_name2 TEXT NOT NULL DEFAULT '',
		admin_code2 TEXT NOT NULL DEFAULT '',
		admin_name3 TEXT NOT NULL DEFAULT '',
		admin_code3 TEXT NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
		longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
		accuracy SMALLINT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_postal_codes_country_postal
		ON postal_codes (country_code, postal_code)`,
	`CREATE INDEX IF NOT EXISTS idx_postal_codes_country_place
		ON postal_codes (country_code, place_name)`,
	`CREATE INDEX IF NOT EXISTS idx_postal_codes_latlng
		ON postal_codes (latitude, longitude)`,
}

// EnsureSchema creates the postal_codes table and its indexes when missing.
// Safe to run on every startup.
func EnsureSchema(conn *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
