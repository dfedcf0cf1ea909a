package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go-storefront-admin/internal/capture"
	"go-storefront-admin/internal/catalog"
	"go-storefront-admin/internal/config"
	"go-storefront-admin/internal/database"
	"go-storefront-admin/internal/event"
	"go-storefront-admin/internal/metrics"
	"go-storefront-admin/internal/notify"
	"go-storefront-admin/internal/repository"
	"go-storefront-admin/internal/restore"
	"go-storefront-admin/internal/rules"
	"go-storefront-admin/internal/service"
)

// Engine is the trash and restore stack shared by the server and trashctl.
type Engine struct {
	DB       *database.DB
	Bus      *event.InMemoryBus
	Notifier *notify.Notifier
	Audit    *service.AuditService
	Trash    *service.TrashService
	Entities *service.EntityService
}

// OpenDatabase connects with the configured driver. A bare SQLite path is
// turned into a DSN with foreign keys enabled.
func OpenDatabase(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	dsn := cfg.DatabaseURL
	if cfg.DatabaseDriver == database.DriverSQLite && !strings.HasPrefix(dsn, "file:") {
		if dir := filepath.Dir(dsn); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		dsn = database.SQLiteDSN(dsn)
	}

	return database.Open(ctx, cfg.DatabaseDriver, dsn, database.Options{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
}

func NewEngine(db *database.DB, cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	entities := catalog.Default()
	ruleTable := rules.Default()

	registry := capture.NewRegistry(entities, logger)
	for _, name := range entities.Names() {
		if !registry.Covers(name) {
			return nil, fmt.Errorf("entity %s has no capture serializer", name)
		}
	}

	trashRepo := repository.NewTrashRepository()
	bus := event.NewBus(cfg.NotifyStreamBuffer)
	notifier := notify.New(repository.NewNotificationRepository(), bus, nil, logger)
	audit := service.NewAuditService(repository.NewAuditRepository(db))

	resolver := restore.NewResolver(entities, ruleTable, trashRepo, logger)
	restorer := restore.NewRestorer(entities, ruleTable, trashRepo, resolver, notifier, cfg.RestoreMuteNotify, logger)
	interceptor := capture.NewInterceptor(entities, ruleTable, registry, trashRepo, notifier, logger,
		capture.WithCaptureHook(metrics.Captured))

	return &Engine{
		DB:       db,
		Bus:      bus,
		Notifier: notifier,
		Audit:    audit,
		Trash:    service.NewTrashService(db, trashRepo, resolver, restorer, audit, bus, logger),
		Entities: service.NewEntityService(db, entities, ruleTable, interceptor, notifier, audit, bus, logger),
	}, nil
}
