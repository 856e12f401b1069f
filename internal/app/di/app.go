package di

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	scanadapters "nr_scanner/internal/feature/scan/adapters"
	"nr_scanner/internal/feature/scan/usecase"
	"nr_scanner/internal/platform/cache"
	"nr_scanner/internal/platform/clock"
	"nr_scanner/internal/platform/config"
	"nr_scanner/internal/platform/db"
	"nr_scanner/internal/platform/http/handler"
)

// App holds the long-lived components shared by the CLI and the server.
type App struct {
	Config    config.Config
	Store     cache.Store
	Providers Providers
	Scan      *usecase.ScanUsecase

	rdb *redis.Client
	db  *gorm.DB
}

// NewApp wires the scanner from cfg. The database and Redis are optional;
// failures there degrade to running without persistence or with the in-memory cache.
func NewApp(ctx context.Context, cfg config.Config, clk clock.Clock) (*App, error) {
	if clk == nil {
		clk = clock.Real{}
	}
	app := &App{Config: cfg}

	app.Store, app.rdb = NewStore(ctx, cfg, clk)

	var symbolMap usecase.SymbolMapRepository
	if cfg.DB.Enabled() {
		gdb, err := db.OpenDB(cfg.DB)
		if err != nil {
			slog.Warn("DB unavailable. Running without symbol map persistence.", "error", err)
		} else {
			app.db = gdb
			symbolMap = scanadapters.NewSymbolMapRepository(gdb)
		}
	}

	providers, err := NewProviders(cfg, app.Store, clk)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Providers = providers

	app.Scan = usecase.NewScanUsecase(
		providers.Ranking,
		providers.Exchange,
		providers.UTC,
		symbolMap,
		cfg.Scan,
		cfg.Secrets(),
		clk,
	)
	return app, nil
}

// HealthChecks returns dependency checks for /healthz.
func (a *App) HealthChecks() map[string]handler.Check {
	checks := map[string]handler.Check{}
	if a.rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return a.rdb.Ping(ctx).Err() }
	}
	if a.db != nil {
		checks["db"] = func(ctx context.Context) error {
			sqlDB, err := a.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	return checks
}

// Close releases Redis and database connections.
func (a *App) Close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			slog.Error("failed to close Redis client", "error", err)
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				slog.Error("failed to close DB", "error", err)
			}
		}
	}
}
