package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"thirdcoast.systems/vodload/internal/application"
	"thirdcoast.systems/vodload/internal/config"
)

func main() {
	slog.Info("Starting database migrator")

	startupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	conf, err := config.LoadDatabaseConfig(startupCtx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(application.NewLogger(conf.LogLevel, conf.LogFormat, os.Stderr))

	store, err := application.OpenStore(startupCtx, *conf)
	if err != nil {
		slog.Error("failed to open metadata store", "driver", conf.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Metadata store opened", "driver", conf.DatabaseDriver)

	if err := store.Migrate(startupCtx); err != nil {
		slog.Error("failed to run migrations", "driver", conf.DatabaseDriver, "error", err)
		os.Exit(1)
	}

	slog.Info("Database migrations completed successfully")
}
