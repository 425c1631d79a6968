// Package databasetest opens migrated in-memory SQLite databases for tests.
package databasetest

import (
	"context"
	"testing"

	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/database"
)

// New returns a fresh, fully migrated in-memory database closed at test end.
func New(t testing.TB) *database.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.Connect(ctx, database.DialectSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
