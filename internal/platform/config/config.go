// Package config は環境変数からアプリケーション設定を読み込みます。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"stock_dashboard/internal/platform/db"
	"stock_dashboard/internal/platform/externalapi/fmp"
	"stock_dashboard/internal/platform/redis"
	"stock_dashboard/internal/shared/markettime"
)

// DefaultSymbols は STOCK_SYMBOLS 未設定時の同期対象銘柄です。
const DefaultSymbols = "AAPL,MSFT,GOOGL,JPM,JNJ,TSLA,XOM,PG,BA,DIS"

// Config はアプリケーション全体の設定です。main で一度だけ生成し、
// 各コンストラクタに渡します。
type Config struct {
	Server   ServerConfig
	Database db.Config
	Redis    redis.Config
	Cache    CacheConfig
	FMP      fmp.Config
	Sync     SyncConfig
	Market   MarketConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port            string
	Mode            string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type CacheConfig struct {
	TTL       time.Duration
	Namespace string
}

type SyncConfig struct {
	Symbols       []string
	HistoryMonths int
}

type MarketConfig struct {
	Timezone          string
	DataAvailableHour int
	MarketOpenHour    int
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load は envFile があればプロセスの環境変数に読み込み、
// 各キーを環境変数とデフォルト値から解決します。
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("PORT"),
			Mode:            v.GetString("GIN_MODE"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
			AllowedOrigins:  splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: db.Config{
			Driver:         strings.ToLower(v.GetString("DATABASE_DRIVER")),
			Host:           v.GetString("DATABASE_HOST"),
			Port:           v.GetString("DATABASE_PORT"),
			Name:           v.GetString("DATABASE_NAME"),
			User:           v.GetString("DATABASE_USER"),
			Password:       v.GetString("DATABASE_PASSWORD"),
			SSLMode:        v.GetString("DATABASE_SSLMODE"),
			SQLitePath:     v.GetString("SQLITE_PATH"),
			MaxOpenConns:   v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:   v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnectTimeout: v.GetDuration("DB_CONNECT_TIMEOUT"),
			RunMigrations:  v.GetBool("RUN_MIGRATIONS"),
		},
		Redis: redis.Config{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			TTL:       v.GetDuration("CACHE_TTL"),
			Namespace: v.GetString("CACHE_NAMESPACE"),
		},
		FMP: fmp.Config{
			APIKey:    v.GetString("FMP_API_KEY"),
			BaseURL:   v.GetString("FMP_BASE_URL"),
			Timeout:   v.GetDuration("FMP_TIMEOUT"),
			RateLimit: v.GetFloat64("FMP_RATE_LIMIT"),
			RateBurst: v.GetInt("FMP_RATE_BURST"),
		},
		Sync: SyncConfig{
			Symbols:       ParseSymbols(v.GetString("STOCK_SYMBOLS")),
			HistoryMonths: v.GetInt("HISTORY_MONTHS"),
		},
		Market: MarketConfig{
			Timezone:          v.GetString("MARKET_TIMEZONE"),
			DataAvailableHour: v.GetInt("DATA_AVAILABLE_HOUR"),
			MarketOpenHour:    v.GetInt("MARKET_OPEN_HOUR"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "5000")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("DATABASE_DRIVER", db.DriverPostgres)
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", "5432")
	v.SetDefault("DATABASE_NAME", "stock_dashboard")
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("SQLITE_PATH", "stock_dashboard.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONNECT_TIMEOUT", 60*time.Second)
	v.SetDefault("RUN_MIGRATIONS", true)

	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", 5*time.Minute)
	v.SetDefault("CACHE_NAMESPACE", "stocks")

	v.SetDefault("FMP_BASE_URL", fmp.DefaultBaseURL)
	v.SetDefault("FMP_TIMEOUT", 30*time.Second)
	v.SetDefault("FMP_RATE_LIMIT", 5)
	v.SetDefault("FMP_RATE_BURST", 1)

	v.SetDefault("STOCK_SYMBOLS", DefaultSymbols)
	v.SetDefault("HISTORY_MONTHS", 1)

	v.SetDefault("MARKET_TIMEZONE", markettime.DefaultTimezone)
	v.SetDefault("DATA_AVAILABLE_HOUR", markettime.DefaultDataAvailableHour)
	v.SetDefault("MARKET_OPEN_HOUR", markettime.DefaultMarketOpenHour)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

// Validate はサーバーを起動できない設定を拒否します。
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", db.DriverPostgres, db.DriverSQLite, c.Database.Driver))
	}
	if len(c.Sync.Symbols) == 0 {
		errs = append(errs, errors.New("STOCK_SYMBOLS must list at least one symbol"))
	}
	if c.Sync.HistoryMonths < 1 {
		errs = append(errs, fmt.Errorf("HISTORY_MONTHS must be positive, got %d", c.Sync.HistoryMonths))
	}
	if !validHour(c.Market.DataAvailableHour) || !validHour(c.Market.MarketOpenHour) {
		errs = append(errs, errors.New("DATA_AVAILABLE_HOUR and MARKET_OPEN_HOUR must be within 0-23"))
	}
	if c.FMP.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("FMP_RATE_LIMIT must not be negative, got %v", c.FMP.RateLimit))
	}
	return errors.Join(errs...)
}

func validHour(h int) bool {
	return h >= 0 && h <= 23
}

// ParseSymbols はカンマ区切りの一覧を大文字にして分割します。空要素と重複は
// 除き、最初に現れた順を保ちます。
func ParseSymbols(raw string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range splitList(raw) {
		s = strings.ToUpper(s)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
