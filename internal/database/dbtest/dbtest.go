// Package dbtest opens migrated throwaway databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"go-storefront-admin/internal/catalog"
	"go-storefront-admin/internal/database"
)

// Open returns a migrated SQLite database that lives for the test.
func Open(t testing.TB) *database.DB {
	t.Helper()

	dsn := database.SQLiteDSN(filepath.Join(t.TempDir(), "storefront.db"))
	db, err := database.Open(context.Background(), database.DriverSQLite, dsn, database.Options{})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate())
	return db
}

// Insert writes a live row of entityType, failing the test on error.
func Insert(t testing.TB, db *database.DB, entityType string, values map[string]any) {
	t.Helper()

	table, err := catalog.Default().Table(entityType)
	require.NoError(t, err)
	_, err = table.Upsert(context.Background(), db, values)
	require.NoError(t, err)
}

// Exists reports whether a live row of entityType with key exists.
func Exists(t testing.TB, db *database.DB, entityType, key string) bool {
	t.Helper()

	table, err := catalog.Default().Table(entityType)
	require.NoError(t, err)
	ok, err := table.Exists(context.Background(), db, key)
	require.NoError(t, err)
	return ok
}
