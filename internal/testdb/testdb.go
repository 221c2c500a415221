// Package testdb opens a throwaway sqlite database for tests.
package testdb

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/productd/app/models"
	"github.com/shashiranjanraj/productd/config"
	"github.com/shashiranjanraj/productd/pkg/database"
)

// Open returns a pool over a fresh sqlite file in t.TempDir with the
// products table created. It is closed when the test ends.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := config.Config{
		DatabaseDriver: "sqlite",
		DatabaseDSN:    filepath.Join(t.TempDir(), "products.db") + "?_busy_timeout=5000",
		MaxOpenConns:   8,
		MaxIdleConns:   4,
	}
	db, err := database.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("testdb: open: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	if err := database.EnsureSchema(context.Background(), db, &models.Product{}); err != nil {
		t.Fatalf("testdb: schema: %v", err)
	}
	return db
}

// Context returns a context bound to a session over db.
func Context(db *gorm.DB) context.Context {
	return database.WithSession(context.Background(), db)
}
