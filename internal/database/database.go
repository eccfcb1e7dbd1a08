// Package database opens the dev server's SQL store. SQLite and PostgreSQL
// are supported; the schema sticks to types both understand.
package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"aorify/internal/logging"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

var log = logging.For("database")

// Connect opens and pings the database.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		// Each connection to an in-memory database is a separate database.
		if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
			db.SetMaxOpenConns(1)
		}
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	log.WithField("driver", driver).Info("connected to database")
	return db, nil
}

// Migrate creates the tables if they do not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	blob := "BLOB"
	if db.DriverName() == DriverPostgres {
		blob = "BYTEA"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			name          TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at    TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			expires_at TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_account ON sessions(account_id)`,
		`CREATE TABLE IF NOT EXISTS documents (
			collection_id TEXT NOT NULL,
			id            TEXT NOT NULL,
			data          TEXT NOT NULL,
			created_at    TEXT NOT NULL,
			updated_at    TEXT NOT NULL,
			PRIMARY KEY (collection_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_created ON documents(collection_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS files (
			bucket_id  TEXT NOT NULL,
			id         TEXT NOT NULL,
			name       TEXT NOT NULL,
			mime_type  TEXT NOT NULL,
			size       BIGINT NOT NULL,
			content    ` + blob + ` NOT NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (bucket_id, id)
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
