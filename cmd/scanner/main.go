// Command scanner runs one NR scan and writes the hits as CSV.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nr_scanner/internal/app/di"
	"nr_scanner/internal/feature/scan/domain/entity"
	"nr_scanner/internal/feature/scan/transport/export"
	"nr_scanner/internal/platform/clock"
	"nr_scanner/internal/platform/config"
	"nr_scanner/internal/platform/logger"
)

// maxErrorDetails is how many per-symbol errors are logged after a scan.
const maxErrorDetails = 15

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("scan failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	opts.apply(&cfg.Defaults)
	logger.Setup(cfg.Log)

	params, err := cfg.Defaults.Params()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	app, err := di.NewApp(ctx, cfg, clock.Real{})
	if err != nil {
		return err
	}
	defer app.Close()

	if opts.refresh {
		if err := di.ClearCache(ctx, app.Store); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		slog.Info("cache cleared")
	}

	report, err := app.Scan.Run(ctx, params, nil)
	if err != nil {
		return err
	}

	if err := writeResults(opts.out, report); err != nil {
		return err
	}
	logSummary(report)
	return nil
}

func writeResults(path string, report *entity.ScanReport) error {
	var w io.Writer = os.Stdout
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	return export.WriteCSV(w, report.Results)
}

func logSummary(r *entity.ScanReport) {
	c := r.Counters
	slog.Info("scan summary",
		"scan_id", r.ID,
		"granularity", r.Granularity,
		"universe", c.Universe,
		"scanned", c.Scanned,
		"hits", c.Hits,
		"skipped", c.Skipped,
		"errors", c.Errors,
		"unresolved", c.Unresolved,
		"canceled", r.Canceled,
		"elapsed", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
	)
	for reason, n := range c.SkippedByReason {
		slog.Info("skipped", "reason", reason, "count", n)
	}
	if len(r.Missing) > 0 {
		slog.Warn("tickers not in the ranking", "tickers", r.Missing)
	}
	if len(r.Unresolved) > 0 {
		slog.Warn("unresolved symbols", "symbols", r.Unresolved)
	}
	for i, e := range r.Errors {
		if i == maxErrorDetails {
			slog.Warn("more errors omitted", "count", len(r.Errors)-maxErrorDetails)
			break
		}
		slog.Warn("symbol error", "detail", e.Message)
	}
}
