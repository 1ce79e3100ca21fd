// Package datatest opens migrated in-memory databases for tests.
package datatest

import (
	"testing"

	"event-site/internal/config"
	"event-site/internal/data"

	"github.com/jmoiron/sqlx"
)

// NewDB returns an isolated, fully migrated in-memory SQLite database that
// is closed when the test ends.
func NewDB(t testing.TB) *sqlx.DB {
	t.Helper()

	db, err := data.NewDB(config.DBConfig{Driver: data.DriverSQLite, DSN: "file::memory:?_foreign_keys=on"})
	if err != nil {
		t.Fatalf("Failed to connect to sqlite test database: %v", err)
	}
	if err := data.ApplyMigrations(db); err != nil {
		db.Close()
		t.Fatalf("Failed to migrate sqlite test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
