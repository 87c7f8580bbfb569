package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"expenselite/internal/config"
	"expenselite/internal/dashboard"
	apphttp "expenselite/internal/http"
	applog "expenselite/internal/log"
	"expenselite/internal/rates"
	"expenselite/internal/storage"
)

func main() {
	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	// Optional .env for local development.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open transaction store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ratesClient := rates.NewClient(cfg.RatesBaseURL, &http.Client{Timeout: cfg.RatesTimeout})
	converter := rates.NewConverter(ratesClient)
	catalog := rates.NewCatalog(ratesClient, rates.DefaultCurrencies)

	agg := dashboard.NewAggregator(repo)

	// Prime the dashboard; the server still starts on failure, the state
	// carries the error message instead.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := agg.Refresh(startupCtx); err != nil {
		logger.Warn("Initial dashboard load failed", "error", err)
	}
	startupCancel()

	srv := apphttp.NewServer(":"+cfg.Port, agg, repo, converter, catalog, cfg.RateLimitPerMinute)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting expenselite server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
