// Package dbtest provides an in-memory SQLite database for tests.
package dbtest

import (
	"testing"

	"gorm.io/gorm"

	"yariga/internal/config"
	"yariga/internal/db"
)

// Open returns a migrated in-memory database that is closed when t ends.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(&config.Config{DBDriver: "sqlite", DBDSN: ":memory:", LogLevel: "error"})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(gdb) })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return gdb
}
