package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/zJvco/finance/internal/api"
	"github.com/zJvco/finance/internal/auth"
	"github.com/zJvco/finance/internal/config"
	"github.com/zJvco/finance/internal/db"
	"github.com/zJvco/finance/internal/portfolio"
	"github.com/zJvco/finance/internal/quote"
	"github.com/zJvco/finance/internal/trade"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Main entry point: sets up configuration, database, services and the
// HTTP server
func main() {
	cfg := config.MustLoad()
	setupLogger(cfg)

	ctx := context.Background()

	database, err := db.NewDB(ctx, cfg.Postgres.DSN())
	if err != nil {
		slog.Error("failed to connect to database", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(cfg.Postgres.MigrationURL(), cfg.Postgres.MigrationDir); err != nil {
		slog.Error("failed to run migrations", slog.String("err", err.Error()))
		os.Exit(1)
	}

	quotes := quote.New(cfg)
	authService := auth.NewService(database, cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, cfg.StartingCashAmount())
	engine := portfolio.NewEngine(database, quotes)
	trades := trade.NewService(database, quotes)
	handler := api.NewHandler(authService, trades, engine, database, quotes)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Mount("/", handler.Routes())

	slog.Info("starting server", slog.String("addr", cfg.HTTPAddr))
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		slog.Error("server failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func setupLogger(cfg *config.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}
