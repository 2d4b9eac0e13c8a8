package main

import (
	"context"
	"log/slog"
	"os"

	"yariga/data"
	"yariga/internal/auth"
	"yariga/internal/config"
	"yariga/internal/db"
	"yariga/internal/logging"
	"yariga/internal/photo"
	"yariga/internal/repository"
	"yariga/internal/service"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)
	slog.Info("starting seed script")

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	gormDB, err := db.Open(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close(gormDB)

	// Run migrations to ensure schema is up to date
	if err := db.Migrate(gormDB); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	raw := data.Seed
	if cfg.SeedFile != "" {
		if raw, err = os.ReadFile(cfg.SeedFile); err != nil {
			slog.Error("failed to read seed file", "path", cfg.SeedFile, "error", err)
			os.Exit(1)
		}
	}
	fixture, err := parseFixture(raw)
	if err != nil {
		slog.Error("failed to parse seed fixture", "error", err)
		os.Exit(1)
	}

	photos, err := photo.FromConfig(cfg)
	if err != nil {
		slog.Error("photo store init", "error", err)
		os.Exit(1)
	}

	store := repository.NewStore(gormDB)
	seeder := &seeder{
		users:      service.NewUserService(store, auth.NewJWTService(cfg.JWTSecret)),
		properties: service.NewPropertyService(store, photos, nil, nil, nil),
	}

	result, err := seeder.run(context.Background(), fixture)
	if err != nil {
		slog.Error("failed to seed", "error", err)
		os.Exit(1)
	}

	slog.Info("seed completed",
		"users", result.users,
		"properties_created", result.created,
		"properties_skipped", result.skipped,
	)
}
