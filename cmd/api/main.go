package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitemonitor/internal/config"
	"github.com/hamed0406/sitemonitor/internal/httpapi"
	"github.com/hamed0406/sitemonitor/internal/logging"
	"github.com/hamed0406/sitemonitor/internal/repo/file"
	"github.com/hamed0406/sitemonitor/internal/report"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	// Reads the same file the monitor writes; never writes it.
	api := httpapi.NewServer(logger, file.New(cfg.DatabaseFile), cfg.Version)
	api.TrustProxy = cfg.TrustProxy
	if api.Maintenance, err = report.LoadMaintenance(cfg.Maintenance); err != nil {
		logger.Warn("maintenance_load_failed", zap.String("file", cfg.Maintenance), zap.Error(err))
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(cfg.APIKeys, cfg.AllowedOrigins, cfg.APIRPM, cfg.APIBurst),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("api_listen", zap.String("addr", cfg.Addr), zap.String("store", cfg.DatabaseFile))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("api_failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}
