package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/Aryan1718/SkillLens/internal/api"
	"github.com/Aryan1718/SkillLens/internal/config"
	"github.com/Aryan1718/SkillLens/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting SkillLens API")

	cfg := config.Load()
	logger.Info("Configuration loaded", "http_addr", cfg.HTTPAddr)

	pg, err := store.NewPostgresStore(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("Failed to connect to Postgres", "error", err)
		os.Exit(1)
	}
	defer pg.Close()
	logger.Info("Connected to Postgres")

	server := api.NewServer(pg, logger)
	logger.Info("Listening", "addr", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, server.Handler()); err != nil {
		logger.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}
