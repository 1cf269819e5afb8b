package geonames

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/postal-lookup/internal/store"
)

// CopyWriter bulk-inserts record batches over the PostgreSQL COPY protocol,
// one transaction per batch.
type CopyWriter struct {
	DB *sql.DB
}

func (w *CopyWriter) WriteBatch(records []store.PostalRecord) error {
	txn, err := w.DB.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	stmt, err := txn.Prepare(pq.CopyIn("postal_codes",
		"country_code", "postal_code", "place_name",
		"admin_name1", "admin_code1", "admin_name2", "admin_code2",
		"admin_name3", "admin_code3",
		"latitude", "longitude", "accuracy"))
	if err != nil {
		txn.Rollback()
		return fmt.Errorf("prepare copy: %w", err)
	}

	for _, r := range records {
		var accuracy any
		if r.Accuracy != nil {
			accuracy = *r.Accuracy
		}
		_, err := stmt.Exec(
			r.CountryCode, r.PostalCode, r.PlaceName,
			r.AdminName1, r.AdminCode1, r.AdminName2, r.AdminCode2,
			r.AdminName3, r.AdminCode3,
			r.Latitude, r.Longitude, accuracy,
		)
		if err != nil {
			stmt.Close()
			txn.Rollback()
			return fmt.Errorf("copy row: %w", err)
		}
	}

	// The empty Exec flushes the COPY buffer.
	if _, err := stmt.Exec(); err != nil {
		stmt.Close()
		txn.Rollback()
		return fmt.Errorf("flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		txn.Rollback()
		return fmt.Errorf("close copy: %w", err)
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Truncate empties the table before a full reload.
func (w *CopyWriter) Truncate() error {
	if _, err := w.DB.Exec(`TRUNCATE postal_codes RESTART IDENTITY`); err != nil {
		return fmt.Errorf("truncate postal_codes: %w", err)
	}
	return nil
}
