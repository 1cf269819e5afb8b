// Package db opens and prepares the PostgreSQL database that holds the
// postal reference data.
package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/postal-lookup/internal/config"
)

// Connect opens a pooled connection using the standard PG* environment
// variables and verifies it with a ping.
func Connect() (*sql.DB, error) {
	host := config.GetEnv("PGHOST", "localhost")
	port := config.GetEnv("PGPORT", "5432")
	user := config.GetEnv("PGUSER", "postgres")
	password := config.GetEnv("PGPASSWORD", "")
	dbname := config.GetEnv("PGDATABASE", "postal_codes")
	sslmode := config.GetEnv("PGSSLMODE", "disable")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(config.GetEnvInt("DB_MAX_OPEN_CONNS", 20))
	conn.SetMaxIdleConns(config.GetEnvInt("DB_MAX_IDLE_CONNS", 10))
	conn.SetConnMaxLifetime(time.Duration(config.GetEnvInt("DB_CONN_MAX_LIFETIME_MIN", 30)) * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database %s@%s:%s/%s: %w", user, host, port, dbname, err)
	}
	return conn, nil
}
