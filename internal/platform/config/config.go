// Package config はYAMLファイルと環境変数からアプリケーション設定を読み込みます。
// 優先順位: 既定値 < YAMLファイル < 環境変数。
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"nr_scanner/internal/feature/scan/domain/entity"
	"nr_scanner/internal/feature/scan/domain/signal"
	"nr_scanner/internal/feature/scan/usecase"
	"nr_scanner/internal/platform/db"
	"nr_scanner/internal/platform/externalapi/binance"
	"nr_scanner/internal/platform/externalapi/coingecko"
	"nr_scanner/internal/platform/externalapi/okx"
	"nr_scanner/internal/platform/logger"
	"nr_scanner/internal/platform/redis"
)

// PathEnv は設定ファイルのパスを指定する環境変数です。
const PathEnv = "NR_CONFIG"

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Config はアプリケーション全体の設定です。
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Log       logger.Config    `yaml:"log"`
	Cache     CacheConfig      `yaml:"cache"`
	Redis     redis.Config     `yaml:"redis"`
	DB        db.Config        `yaml:"db"`
	Providers ProvidersConfig  `yaml:"providers"`
	CoinGecko coingecko.Config `yaml:"coingecko"`
	Binance   binance.Config   `yaml:"binance"`
	Futures   binance.Config   `yaml:"binance_futures"`
	Aster     binance.Config   `yaml:"aster"`
	OKX       okx.Config       `yaml:"okx"`
	Scan      usecase.Settings `yaml:"scan"`
	Defaults  ScanDefaults     `yaml:"defaults"`
}

// ServerConfig はHTTPサーバーと定期スキャンの設定です。
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ScanCron        string        `yaml:"scan_cron"` // 空の場合は定期スキャンなし（UTCで評価）
	MaxJobs         int           `yaml:"max_jobs"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// CacheConfig はTTLキャッシュの設定です。
type CacheConfig struct {
	Backend        string        `yaml:"backend"` // memory, redis, none
	InstrumentsTTL time.Duration `yaml:"instruments_ttl"`
	RankingTTL     time.Duration `yaml:"ranking_ttl"`
}

// ProvidersConfig は有効なプロバイダと優先順です。
// Exchange は取引所の足、UTC はUTC日足に集約するソースです。
type ProvidersConfig struct {
	Exchange []string `yaml:"exchange"`
	UTC      []string `yaml:"utc"`
}

// ScanDefaults はCLIと定期スキャンで使うスキャン条件の既定値です。
type ScanDefaults struct {
	Mode           string   `yaml:"mode"`
	TopN           int      `yaml:"top_n"`
	Tickers        []string `yaml:"tickers"`
	Granularity    string   `yaml:"granularity"`
	Windows        []string `yaml:"windows"`
	CloseMode      string   `yaml:"close_mode"`
	MinVolume      float64  `yaml:"min_volume"`
	DropStables    bool     `yaml:"drop_stables"`
	IncludeInRange bool     `yaml:"include_in_range"`
}

// Params converts the defaults into scan parameters.
func (d ScanDefaults) Params() (usecase.ScanParams, error) {
	windows, err := signal.ParseWindows(d.Windows)
	if err != nil {
		return usecase.ScanParams{}, err
	}
	return usecase.ScanParams{
		Mode:           usecase.UniverseMode(d.Mode),
		TopN:           d.TopN,
		Tickers:        d.Tickers,
		Granularity:    entity.Granularity(d.Granularity),
		Windows:        windows,
		CloseMode:      usecase.CloseMode(d.CloseMode),
		MinVolume:      d.MinVolume,
		DropStables:    d.DropStables,
		IncludeInRange: d.IncludeInRange,
	}.Normalize(), nil
}

// Default returns the built-in configuration.
func Default() Config {
	cache := CacheConfig{Backend: CacheMemory, InstrumentsTTL: time.Hour, RankingTTL: time.Hour}
	return Config{
		Server:    ServerConfig{Addr: ":8080", MaxJobs: usecase.DefaultMaxJobs, ShutdownTimeout: 10 * time.Second},
		Log:       logger.Config{Level: "info", Format: "text"},
		Cache:     cache,
		Redis:     redis.Config{Port: "6379"},
		DB:        db.Config{Timeout: 60 * time.Second},
		Providers: ProvidersConfig{
			Exchange: []string{"binance", "binance-futures", "okx", "aster"},
			UTC:      []string{coingecko.Name},
		},
		CoinGecko: coingecko.DefaultConfig(),
		Binance:   binance.DefaultSpotConfig(),
		Futures:   binance.DefaultFuturesConfig(),
		Aster:     binance.DefaultAsterConfig(),
		OKX:       okx.DefaultConfig(),
		Scan:      usecase.DefaultSettings(),
		Defaults: ScanDefaults{
			Mode:        string(usecase.ModeTop),
			TopN:        100,
			Granularity: "1d",
			Windows:     []string{"NR4", "NR7", "NR10"},
			CloseMode:   string(usecase.CloseExchange),
			DropStables: true,
		},
	}
}

// Load は path のYAMLを既定値に重ね、環境変数を適用します。path が空の場合は NR_CONFIG を参照します。
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(PathEnv)
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := Decode(f, &cfg); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode はYAMLを cfg に重ねます。未知のキーはエラーです。
func Decode(r io.Reader, cfg *Config) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// ApplyEnv は環境変数で設定を上書きします。
func (c *Config) ApplyEnv() error {
	c.CoinGecko.ApplyEnv()
	c.Scan.VsCurrency = c.CoinGecko.VsCurrency

	setString(&c.Server.Addr, "SERVER_ADDR")
	setString(&c.Server.ScanCron, "SCAN_CRON")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	setString(&c.Cache.Backend, "CACHE_BACKEND")
	setString(&c.Redis.Host, "REDIS_HOST")
	setString(&c.Redis.Port, "REDIS_PORT")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.DB.DSN, "DB_DSN")
	if v := os.Getenv("DB_DRIVER"); v != "" {
		c.DB.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("RUN_MIGRATIONS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RUN_MIGRATIONS: %w", err)
		}
		c.DB.Migrate = b
	}
	// REDIS_HOST だけ指定された場合は Redis を使う
	if os.Getenv("CACHE_BACKEND") == "" && os.Getenv("REDIS_HOST") != "" {
		c.Cache.Backend = CacheRedis
	}
	return nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// Validate は設定値の整合性を確認します。認証情報はスキャン開始時に検証します。
func (c Config) Validate() error {
	var errs []error
	switch c.Cache.Backend {
	case CacheMemory, CacheNone:
	case CacheRedis:
		if c.Redis.Host == "" {
			errs = append(errs, errors.New("cache.backend=redis requires redis.host"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache backend %q", c.Cache.Backend))
	}
	if len(c.Providers.Exchange)+len(c.Providers.UTC) == 0 {
		errs = append(errs, errors.New("no candle providers enabled"))
	}
	known := c.ProviderNames()
	for _, name := range append(append([]string(nil), c.Providers.Exchange...), c.Providers.UTC...) {
		if !known[name] {
			errs = append(errs, fmt.Errorf("unknown provider %q", name))
		}
	}
	if p, err := c.Defaults.Params(); err != nil {
		errs = append(errs, fmt.Errorf("defaults: %w", err))
	} else if err := p.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("defaults: %w", err))
	}
	if c.Scan.StableTolerance < 0 || c.Scan.InRangeTolerance < 0 {
		errs = append(errs, errors.New("tolerances must not be negative"))
	}
	return errors.Join(errs...)
}

// ProviderNames returns the names accepted in providers.exchange and providers.utc.
func (c Config) ProviderNames() map[string]bool {
	return map[string]bool{
		c.Binance.Name: true,
		c.Futures.Name: true,
		c.Aster.Name:   true,
		okx.Name:       true,
		coingecko.Name: true,
	}
}

// Secrets returns configured credentials for log and error redaction.
func (c Config) Secrets() []string {
	var out []string
	for _, s := range []string{c.CoinGecko.APIKey, c.Redis.Password} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
