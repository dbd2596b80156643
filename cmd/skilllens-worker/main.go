package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Aryan1718/SkillLens/internal/cache"
	"github.com/Aryan1718/SkillLens/internal/config"
	"github.com/Aryan1718/SkillLens/internal/events"
	"github.com/Aryan1718/SkillLens/internal/metrics"
	"github.com/Aryan1718/SkillLens/internal/scan"
	"github.com/Aryan1718/SkillLens/internal/store"
	"github.com/Aryan1718/SkillLens/internal/validate"
	"github.com/Aryan1718/SkillLens/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting SkillLens analysis worker")

	// An invalid rule definition is a programming error; fail here, never
	// at scan time.
	if err := scan.ValidateCatalog(); err != nil {
		logger.Error("Invalid rule catalog", "error", err)
		os.Exit(1)
	}

	cfg := config.Load()
	logger.Info("Configuration loaded",
		"http_addr", cfg.HTTPAddr,
		"nats_url", cfg.NATSURL,
		"validator_timeout", cfg.ValidatorTimeout,
		"poll_interval", cfg.PollInterval,
		"scan_cache_size", cfg.ScanCacheSize,
		"allow_unvalidated", cfg.AllowUnvalidated)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pg, err := store.NewPostgresStore(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("Failed to connect to Postgres", "error", err)
		os.Exit(1)
	}
	defer pg.Close()
	logger.Info("Connected to Postgres")

	var publisher *events.Publisher
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer nc.Close()
		publisher = events.NewPublisher(nc, logger)
		logger.Info("Connected to NATS")
	} else {
		logger.Warn("NATS disabled; analysis events will not be published")
	}

	var validator validate.Validator
	if cfg.OpenAIAPIKey != "" {
		openai, err := validate.NewOpenAIValidator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.ValidatorTimeout, logger)
		if err != nil {
			logger.Error("Failed to create validator", "error", err)
			os.Exit(1)
		}
		validator = openai
	} else {
		logger.Warn("OPENAI_API_KEY not set; escalated analyses will fail unless degrade mode is enabled")
	}
	orchestrator := validate.NewOrchestrator(validator, logger)

	scanCache, err := cache.New(cfg.ScanCacheSize)
	if err != nil {
		logger.Error("Failed to create scan cache", "error", err)
		os.Exit(1)
	}

	workerMetrics := metrics.NewMetrics()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) })
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := pg.Health(); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ready"))
	})
	go func() {
		logger.Info("Worker HTTP listener started", "addr", cfg.HTTPAddr)
		if err := http.ListenAndServe(cfg.HTTPAddr, mux); err != nil {
			logger.Error("HTTP listener failed", "error", err)
			os.Exit(1)
		}
	}()

	runner := worker.NewRunner(worker.Options{
		Store:            pg,
		Orchestrator:     orchestrator,
		ScanCache:        scanCache,
		Publisher:        publisher,
		Metrics:          workerMetrics,
		Logger:           logger,
		PollInterval:     cfg.PollInterval,
		AllowUnvalidated: cfg.AllowUnvalidated,
	})
	runner.Run(ctx)

	logger.Info("SkillLens analysis worker stopped")
}
