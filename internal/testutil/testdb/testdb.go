// Package testdb provides database fixtures for integration tests. Tests are
// skipped when DATABASE_URL is not set.
package testdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pool against DATABASE_URL, applies the schema and truncates
// all tables. The pool is closed when the test finishes.
func Connect(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping database test")
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect test database: %v", err)
	}
	t.Cleanup(pool.Close)

	applySchema(t, pool)
	truncateAll(t, pool)
	return pool
}

func applySchema(t *testing.T, db *pgxpool.Pool) {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("locate schema file")
	}
	schemaPath := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "db", "schema.sql")
	schema, err := os.ReadFile(schemaPath)
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if _, err := db.Exec(context.Background(), string(schema)); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
}

func truncateAll(t *testing.T, db *pgxpool.Pool) {
	t.Helper()

	tables := []string{
		"journal_entries",
		"earnings",
		"transfers",
		"withdrawals",
		"deposits",
		"trades",
		"spin_chances",
		"idempotency_keys",
		"wallets",
		"users",
	}
	for _, table := range tables {
		if _, err := db.Exec(context.Background(), fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
}
