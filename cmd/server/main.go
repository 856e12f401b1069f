package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"nr_scanner/internal/app/di"
	"nr_scanner/internal/app/router"
	"nr_scanner/internal/app/scheduler"
	scanhandler "nr_scanner/internal/feature/scan/transport/handler"
	"nr_scanner/internal/feature/scan/usecase"
	"nr_scanner/internal/platform/clock"
	"nr_scanner/internal/platform/config"
	"nr_scanner/internal/platform/http/handler"
	"nr_scanner/internal/platform/logger"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (default $NR_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := di.NewApp(ctx, cfg, clock.Real{})
	if err != nil {
		slog.Error("failed to build app", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	registry := usecase.NewRegistry(app.Scan, clock.Real{}, cfg.Server.MaxJobs)
	defer registry.Shutdown()

	if cfg.Server.ScanCron != "" {
		params, err := cfg.Defaults.Params()
		if err != nil {
			slog.Error("invalid scan defaults", "error", err)
			os.Exit(1)
		}
		sched, err := scheduler.New(cfg.Server.ScanCron, func() (string, error) {
			job, err := registry.Submit(params)
			return job.ID, err
		})
		if err != nil {
			slog.Error("failed to schedule scans", "error", err)
			os.Exit(1)
		}
		sched.Start()
		defer sched.Stop()
		slog.Info("scheduled scans enabled", "cron", cfg.Server.ScanCron)
	}

	r := router.NewRouter(scanhandler.NewScanHandler(registry), handler.NewHealth(app.HealthChecks()))
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: r}

	go func() {
		slog.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
}
