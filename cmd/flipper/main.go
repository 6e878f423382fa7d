package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/skyflip/internal/api"
	"github.com/rickgao/skyflip/internal/bot"
	"github.com/rickgao/skyflip/internal/claims"
	"github.com/rickgao/skyflip/internal/config"
	"github.com/rickgao/skyflip/internal/database"
	"github.com/rickgao/skyflip/internal/detect"
	"github.com/rickgao/skyflip/internal/executor"
	"github.com/rickgao/skyflip/internal/ingest"
	"github.com/rickgao/skyflip/internal/normalize"
	"github.com/rickgao/skyflip/internal/session"
	"github.com/rickgao/skyflip/internal/store"
	"github.com/rickgao/skyflip/internal/timing"
	"github.com/rickgao/skyflip/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/flipper.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting flipper",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"api_url", cfg.API.RestURL,
		"purchasing", cfg.Flips.Purchasing,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Open persistence
	st, err := store.Open(cfg.Store, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}

	// Optional ledger mirror
	var mirror *store.LedgerMirror
	if cfg.Database.Enabled() {
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)

		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		mirror = store.NewLedgerMirror(pool, cfg.Instance.ID, logger)
		if err := mirror.EnsureSchema(ctx); err != nil {
			logger.Error("failed to prepare ledger mirror", "error", err)
			os.Exit(1)
		}

		logger.Info("database connected")
	}

	// Create API client
	apiClient := api.NewClient(
		cfg.API.RestURL,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, cfg.API.RetryBackoff),
	)

	// Connect the world session gateway
	sessCfg := session.DefaultConfig()
	sessCfg.URL = cfg.Gateway.URL
	sessCfg.WriteTimeout = cfg.Gateway.WriteTimeout
	sessCfg.PingTimeout = cfg.Gateway.PingTimeout

	gateway := session.NewClient(sessCfg, logger)
	if err := gateway.Connect(ctx); err != nil {
		logger.Error("failed to connect session gateway", "error", err)
		os.Exit(1)
	}
	defer gateway.Close()

	logger.Info("session gateway connected", "url", cfg.Gateway.URL)

	// Calibrate the refresh predictor against an observed snapshot rebuild
	predictor := timing.New(apiClient, cfg.Timing, logger)
	if err := predictor.Calibrate(ctx); err != nil {
		logger.Error("calibration failed", "error", err)
		os.Exit(1)
	}

	// Assemble the bot
	normalizer := normalize.New(cfg.Normalize)
	flipper := bot.New(*cfg, bot.Deps{
		Session:   gateway,
		Ingester:  ingest.New(apiClient, normalizer, cfg.API, cfg.Flips, logger),
		Predictor: predictor,
		Detector:  detect.New(cfg.Flips, logger),
		Executor:  executor.New(gateway, cfg.Purchase, logger),
		Claims:    claims.New(gateway, cfg.Claims, logger),
		Store:     st,
		Mirror:    mirror,
	}, logger)

	// Health server
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: createHealthHandler(cfg.Health.Path, flipper, gateway),
	}

	go func() {
		logger.Info("starting health server", "port", cfg.Health.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	if err := flipper.Start(ctx); err != nil {
		logger.Error("failed to start flipper", "error", err)
		os.Exit(1)
	}

	logger.Info("flipper running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d%s", cfg.Health.Port, cfg.Health.Path),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := flipper.Stop(shutdownCtx); err != nil {
		logger.Error("flipper shutdown failed", "error", err)
	}
	healthServer.Shutdown(shutdownCtx)

	logger.Info("flipper stopped")
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(path string, flipper *bot.Bot, gateway *session.Client) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		health := struct {
			Status  string     `json:"status"`
			Gateway string     `json:"gateway"`
			Bot     bot.Health `json:"bot"`
		}{
			Status:  "healthy",
			Gateway: "connected",
			Bot:     flipper.Health(),
		}

		if !gateway.IsConnected() {
			health.Status = "unhealthy"
			health.Gateway = "disconnected"
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
