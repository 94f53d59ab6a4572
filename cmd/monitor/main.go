package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hamed0406/sitemonitor/internal/config"
	"github.com/hamed0406/sitemonitor/internal/discovery"
	"github.com/hamed0406/sitemonitor/internal/logging"
	"github.com/hamed0406/sitemonitor/internal/notify"
	"github.com/hamed0406/sitemonitor/internal/probe"
	"github.com/hamed0406/sitemonitor/internal/repo/file"
	"github.com/hamed0406/sitemonitor/internal/report"
	"github.com/hamed0406/sitemonitor/internal/scheduler"
)

func main() {
	testMode := flag.Bool("test", false, "send one synthetic DOWN alert and exit")
	schedule := flag.String("schedule", "", "cron spec for recurring runs (overrides SCHEDULE)")
	flag.Parse()

	cfg := config.FromEnv()
	if *schedule != "" {
		cfg.Schedule = *schedule
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	alerts := notify.NewDispatcher(
		notify.FromWebhooks(cfg.DiscordWebhook, cfg.SlackWebhook),
		logger,
		cfg.AlertTimeout,
	)

	if *testMode {
		fmt.Println("Sending test alert...")
		r := scheduler.NewRunner(logger, nil, nil, nil, alerts, 1)
		if !r.SendTest(ctx) {
			fmt.Println("No webhook configured; set DISCORD_WEBHOOK_URL.")
		}
		return
	}

	checker := probe.NewHTTPChecker(cfg.ProbeTimeout, cfg.UserAgent)
	if cfg.ProbeRPS > 0 {
		checker.Limiter = rate.NewLimiter(rate.Limit(cfg.ProbeRPS), 1)
	}

	r := scheduler.NewRunner(
		logger,
		file.New(cfg.DatabaseFile),
		discovery.NewSitemaps(cfg.Sitemaps, cfg.ProbeTimeout, cfg.UserAgent, logger),
		checker,
		alerts,
		cfg.MaxConcurrency,
	)
	r.Progress = os.Stdout
	r.Diagnose = probe.DiagnoseURL
	if cfg.ReportFile != "" {
		rep := report.NewFileReporter(cfg.ReportFile, cfg.IncidentsFile, cfg.Version)
		if rep.Maintenance, err = report.LoadMaintenance(cfg.Maintenance); err != nil {
			logger.Warn("maintenance_load_failed", zap.String("file", cfg.Maintenance), zap.Error(err))
		}
		r.Reporter = rep
	}

	if cfg.Schedule != "" {
		if err := scheduler.Schedule(ctx, r, cfg.Schedule, true); err != nil {
			logger.Error("scheduler_failed", zap.Error(err))
			logger.Sync()
			os.Exit(1)
		}
		return
	}

	fmt.Println("Checking uptime...")
	sum, err := r.Run(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to save history:", err)
		logger.Sync()
		os.Exit(1)
	}
	fmt.Printf("Checked %d URLs: %d healthy, %d unhealthy, %d down, %d recovered.\n",
		sum.Checked, sum.Healthy, sum.Unhealthy, sum.Down, sum.Recovered)
}
