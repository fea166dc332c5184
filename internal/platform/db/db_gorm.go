// Package db はデータベース接続とマイグレーションを提供します。
package db

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	syncadapters "stock_dashboard/internal/feature/marketsync/adapters"
	stockadapters "stock_dashboard/internal/feature/stocks/adapters"
)

const (
	// DriverPostgres は本番用のドライバー名です。
	DriverPostgres = "postgres"
	// DriverSQLite はローカル開発用のドライバー名です。
	DriverSQLite = "sqlite"

	// retryInterval は接続リトライの間隔です。
	retryInterval = 3 * time.Second
)

// Config はデータベース接続設定を保持します。
type Config struct {
	Driver         string
	Host           string
	Port           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	SQLitePath     string
	MaxOpenConns   int
	MaxIdleConns   int
	ConnectTimeout time.Duration
	RunMigrations  bool
}

// Opener はDSNからgorm.DBを開く関数です。テストで差し替え可能にするために使います。
type Opener func(dsn string) (*gorm.DB, error)

// BuildDSN は設定からPostgreSQL用のDSN文字列を生成します。
func BuildDSN(cfg Config) string {
	sslmode := cfg.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, sslmode)
}

// gormConfig は全ドライバー共通のgorm設定です。
// TranslateError により一意制約違反は gorm.ErrDuplicatedKey に変換されます。
func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}
}

// OpenPostgres はPostgreSQLに接続します。
func OpenPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), gormConfig())
}

// OpenSQLite はSQLiteファイル（または ":memory:"）を開きます。
func OpenSQLite(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path), gormConfig())
}

// ConnectWithRetry は timeout に達するまで retryInterval ごとに接続を試みます。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err, "retry_in", retryInterval)
		time.Sleep(retryInterval)
	}
}

// Open は設定されたドライバーで接続し、プールを設定し、必要ならマイグレーションを実行します。
func Open(cfg Config) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	switch strings.ToLower(cfg.Driver) {
	case DriverSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = "stock_dashboard.db"
		}
		db, err = OpenSQLite(path)
	case DriverPostgres, "":
		timeout := cfg.ConnectTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		db, err = ConnectWithRetry(BuildDSN(cfg), timeout, OpenPostgres)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if strings.EqualFold(cfg.Driver, DriverSQLite) {
		// SQLiteは書き込みが直列なので接続を1本に絞る
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if cfg.RunMigrations {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	slog.Info("database connection established", "driver", cfg.Driver)
	return db, nil
}

// Migrate は stocks と sync_logs のテーブルを作成・更新します。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&stockadapters.StockModel{},
		&syncadapters.SyncLogModel{},
	); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Close は基盤の接続プールを閉じます。
func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		slog.Warn("failed to get sql.DB for close", "error", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		slog.Warn("failed to close database", "error", err)
	}
}
