package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"yariga/docs" // swagger docs
	"yariga/internal/auth"
	"yariga/internal/cache"
	"yariga/internal/config"
	"yariga/internal/db"
	"yariga/internal/events"
	"yariga/internal/handler"
	"yariga/internal/logging"
	"yariga/internal/metrics"
	"yariga/internal/photo"
	"yariga/internal/repository"
	"yariga/internal/router"
	"yariga/internal/service"
)

// @title Yariga Property Admin API
// @version 1.0
// @description Property listings and agents for the Yariga admin dashboard.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.
func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	gormDB, err := db.Open(cfg)
	if err != nil {
		slog.Error("database init", "error", err)
		os.Exit(1)
	}
	defer db.Close(gormDB)

	// Drop tables if RESET_DB environment variable is set
	if cfg.ResetDB {
		slog.Warn("RESET_DB=true detected, dropping users and properties")
		if err := db.Reset(gormDB); err != nil {
			slog.Warn("drop tables failed (may not exist)", "error", err)
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		slog.Error("migrate", "error", err)
		os.Exit(1)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()

	m := metrics.New()

	photos, err := photo.FromConfig(cfg)
	if err != nil {
		slog.Error("photo store init", "error", err)
		os.Exit(1)
	}
	if !cfg.CloudinaryEnabled() {
		slog.Warn("cloudinary not configured, only hosted photo URLs are accepted")
	}

	publisher := newPublisher(cfg)
	if closer, ok := publisher.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	store := repository.NewStore(gormDB)
	jwtService := auth.NewJWTService(cfg.JWTSecret)

	// Initialize services
	propertyService := service.NewPropertyService(store, m.InstrumentPhotoStore(photos), cacheClient, publisher, m)
	userService := service.NewUserService(store, jwtService)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, jwtService, m, router.Handlers{
		Property: handler.NewPropertyHandler(propertyService),
		User:     handler.NewUserHandler(userService),
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"database": func(ctx context.Context) error { return db.Ping(ctx, gormDB) },
			"cache":    cacheClient.Ping,
		}),
	})

	if cfg.SwaggerHost != "" {
		host := strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
		docs.SwaggerInfo.Host = host
	}
	slog.Info("swagger documentation available", "url", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := ":" + cfg.ServerPort
		slog.Info("server starting", "addr", addr, "driver", cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server start", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// newPublisher connects to NATS when configured. Events are dropped when it
// is not configured or unreachable.
func newPublisher(cfg *config.Config) events.Publisher {
	if cfg.NATSURL == "" {
		return events.Noop{}
	}
	pub, err := events.ConnectNATS(cfg.NATSURL, "yariga")
	if err != nil {
		slog.Warn("nats unavailable, property events disabled", "error", err)
		return events.Noop{}
	}
	return pub
}
