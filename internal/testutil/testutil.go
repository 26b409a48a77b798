package testutil

import (
	"database/sql"
	"testing"

	"loan-approval-service/internal/config"
	"loan-approval-service/internal/database"
)

// OpenInMemoryDB opens a named in-memory SQLite database with migrations applied.
// The database is closed through t.Cleanup.
func OpenInMemoryDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	// Shared cache keeps every pooled connection on the same database.
	d, err := database.Open(config.DatabaseConfig{
		Driver:     "sqlite3",
		DSN:        "file:" + name + "?mode=memory&cache=shared",
		MaxRetries: 1,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}
