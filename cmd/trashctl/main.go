// Command trashctl is the operator CLI for the storefront trash store.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"go-storefront-admin/internal/app"
	"go-storefront-admin/internal/config"
	"go-storefront-admin/internal/logger"
	"go-storefront-admin/internal/model"
)

var (
	// configFile is set by the --config flag.
	configFile string
	// operator is recorded as the actor of audited operations.
	operator string

	cfg    *config.Config
	engine *app.Engine
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "trashctl",
	Short: "Inspect and restore soft-deleted storefront records",
	Long: `trashctl works directly against the storefront database. It lists the
trash store, restores entries with their dependencies, purges entries and
manages schema migrations.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error { return teardown() },
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: environment and .env)")
	rootCmd.PersistentFlags().StringVar(&operator, "operator", os.Getenv("USER"), "operator name recorded in the audit trail")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(trashCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Read(configFile)
	if err != nil {
		return err
	}
	if err := loaded.ValidateDatabase(); err != nil {
		return err
	}
	cfg = loaded

	slog.SetDefault(logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat))
	return nil
}

func teardown() error {
	if engine != nil {
		engine.DB.Close()
		engine = nil
	}
	return nil
}

// openEngine connects, applies pending migrations and builds the restore
// stack.
func openEngine(ctx context.Context) (*app.Engine, error) {
	db, err := app.OpenDatabase(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	e, err := app.NewEngine(db, cfg, slog.Default())
	if err != nil {
		db.Close()
		return nil, err
	}
	engine = e
	return e, nil
}

func actor() model.AuditActor {
	return model.AuditActor{UserID: "cli:" + operator, Username: operator, Role: model.RoleAdmin}
}
