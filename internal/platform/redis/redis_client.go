// Package redis は読み取りキャッシュが使う Redis 接続を提供します。
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config は Redis の接続設定です。
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr は host:port を返します。
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

// Enabled は Redis のホストが設定されているかを返します。
func (c Config) Enabled() bool {
	return c.Host != ""
}

func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 接続確認
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("Redis connection failed", "address", cfg.Addr(), "error", err)
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr(), err)
	}

	slog.Info("Redis connection successful", "address", cfg.Addr())
	return rdb, nil
}

// NewOptionalClient は Redis が未設定または接続できない場合に nil を返します。
// その場合キャッシュデコレータは直接読み取りになります。
func NewOptionalClient(ctx context.Context, cfg Config) *redis.Client {
	if !cfg.Enabled() {
		slog.Info("Redis not configured, caching disabled")
		return nil
	}
	rdb, err := NewRedisClient(ctx, cfg)
	if err != nil {
		slog.Warn("continuing without cache", "error", err)
		return nil
	}
	return rdb
}
