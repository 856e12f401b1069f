// Package db はシンボルマップ永続化用のGORM接続を提供します。
package db

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	scanadapters "nr_scanner/internal/feature/scan/adapters"
)

// retryInterval は接続リトライの間隔です。
var retryInterval = 3 * time.Second

// Config はデータベース接続設定です。
type Config struct {
	Driver  string        `yaml:"driver"` // "sqlite" または "postgres"。空の場合は永続化しない
	DSN     string        `yaml:"dsn"`    // sqlite ではファイルパス
	Migrate bool          `yaml:"migrate"`
	Timeout time.Duration `yaml:"timeout"` // 接続リトライの上限時間
}

// Enabled は永続化が設定されているかを返します。
func (c Config) Enabled() bool { return c.Driver != "" }

// Dialector はドライバ名に対応するGORMダイアレクタを返します。
func Dialector(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "nr_scanner.db"
		}
		return sqlite.Open(dsn), nil
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres: DB_DSN is empty")
		}
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported DB driver %q", cfg.Driver)
	}
}

// ConnectWithRetry は timeout に達するまで opener を繰り返し呼び出します。
func ConnectWithRetry(timeout time.Duration, opener func() (*gorm.DB, error)) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener()
		if err == nil {
			return db, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("DB connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err)
		time.Sleep(min(retryInterval, remaining))
	}
}

// OpenDB は設定に従ってDBへ接続し、必要ならマイグレーションを実行します。
func OpenDB(cfg Config) (*gorm.DB, error) {
	dial, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := ConnectWithRetry(cfg.Timeout, func() (*gorm.DB, error) {
		return gorm.Open(dial, &gorm.Config{})
	})
	if err != nil {
		return nil, err
	}

	if cfg.Migrate {
		if err := db.AutoMigrate(&scanadapters.SymbolMapModel{}); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}
	slog.Info("DB connection successful", "driver", cfg.Driver)
	return db, nil
}
