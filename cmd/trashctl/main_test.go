package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-storefront-admin/internal/app"
	"go-storefront-admin/internal/config"
	"go-storefront-admin/internal/model"
)

func runCLI(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestTrashctl_ListAndRestore(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "storefront.db"))
	t.Setenv("CONFIG_FILE", "")

	assert.Contains(t, runCLI(t, "migrate", "up"), "up to date")

	seedCfg, err := config.Read("")
	require.NoError(t, err)
	db, err := app.OpenDatabase(context.Background(), seedCfg)
	require.NoError(t, err)
	seed, err := app.NewEngine(db, seedCfg, nil)
	require.NoError(t, err)

	ctx := context.Background()
	seeder := model.AuditActor{UserID: "seed"}
	_, _, err = seed.Entities.Put(ctx, "Product", "p1", map[string]any{"title": "Mug"}, seeder)
	require.NoError(t, err)
	_, err = seed.Entities.Delete(ctx, "Product", "p1", "test", seeder)
	require.NoError(t, err)
	db.Close()

	listed := runCLI(t, "trash", "list", "--json")
	assert.Contains(t, listed, `"table": "Product"`)
	assert.Contains(t, listed, `"display_name": "Mug"`)

	restored := runCLI(t, "trash", "restore", "--record", "Product:p1")
	assert.Contains(t, restored, `"Product:p1"`)

	assert.Contains(t, runCLI(t, "trash", "list"), "BLOCKED BY")
}
