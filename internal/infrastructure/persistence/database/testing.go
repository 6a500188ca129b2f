package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/logging"
)

// OpenTest opens a migrated sqlite database in a temporary directory that is
// closed when the test ends.
func OpenTest(t testing.TB) *DB {
	t.Helper()

	db, err := Open(context.Background(), Options{Path: filepath.Join(t.TempDir(), "test.db")}, logging.NewDiscardLogger())
	if err != nil {
		t.Fatalf("database.Open() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
