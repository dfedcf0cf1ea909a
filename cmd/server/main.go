package main

import (
	"flag"
	"log/slog"
	"os"

	"go-storefront-admin/internal/app"
	"go-storefront-admin/internal/config"
	"go-storefront-admin/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "optional YAML or TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	application, err := app.New(cfg, log)
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}
