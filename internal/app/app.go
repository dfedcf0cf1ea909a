package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-storefront-admin/internal/config"
	"go-storefront-admin/internal/handler"
	"go-storefront-admin/internal/middleware"
	"go-storefront-admin/internal/router"
	"go-storefront-admin/internal/service"
	"go-storefront-admin/internal/telemetry"
	"go-storefront-admin/internal/websocket"
)

type App struct {
	server       *http.Server
	hub          *websocket.Hub
	cleanupFuncs []func(context.Context)
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	shutdownTracing, err := telemetry.Setup(cfg.TracingEnabled, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	slog.Info("connecting to database", "driver", cfg.DatabaseDriver)
	db, err := OpenDatabase(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.MigrateOnStart {
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	engine, err := NewEngine(db, cfg, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize restore engine: %w", err)
	}
	slog.Info("database ready")

	authMiddleware := middleware.NewAuthMiddleware(service.NewTokenValidator(cfg.JWTSecret))
	hub := websocket.NewHub(engine.Bus)

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Trash:        handler.NewTrashHandler(engine.Trash),
		Entity:       handler.NewEntityHandler(engine.Entities),
		Audit:        handler.NewAuditHandler(engine.Audit),
		Notification: handler.NewNotificationHandler(service.NewNotificationService(db, engine.Notifier), hub),
		Health:       handler.NewHealthHandler(db),
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		hub:    hub,
		cleanupFuncs: []func(context.Context){
			func(context.Context) {
				db.Close()
			},
			func(ctx context.Context) {
				if err := shutdownTracing(ctx); err != nil {
					slog.Warn("tracer shutdown failed", "error", err)
				}
			},
		},
	}, nil
}

func (a *App) Run() error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.hub.Run(hubCtx)

	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)
	stopHub()

	for _, cleanup := range a.cleanupFuncs {
		cleanup(ctx)
	}

	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}
