// Package dbtest provides a migrated in-memory database for package tests.
package dbtest

import (
	"testing"

	"taskboard/internal/db"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// New returns a fresh in-memory SQLite database with every model migrated.
// The pool holds one connection so the in-memory database lives for the whole test.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	conn, err := db.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.Migrate(conn, zap.NewNop()); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}
