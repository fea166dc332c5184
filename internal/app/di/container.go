package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	synchandler "stock_dashboard/internal/feature/marketsync/transport/handler"
	syncadapters "stock_dashboard/internal/feature/marketsync/adapters"
	syncusecase "stock_dashboard/internal/feature/marketsync/usecase"
	stockhandler "stock_dashboard/internal/feature/stocks/transport/handler"
	stockusecase "stock_dashboard/internal/feature/stocks/usecase"
	"stock_dashboard/internal/platform/config"
	"stock_dashboard/internal/platform/db"
	redisclient "stock_dashboard/internal/platform/redis"
	"stock_dashboard/internal/shared/markettime"
)

// Container はサーバーとCLIが共有する依存関係をまとめたものです。
type Container struct {
	DB    *gorm.DB
	Redis *redis.Client // nil ならキャッシュ無効
	Clock *markettime.Clock

	Stocks   stockusecase.StockRepository
	Sync     *syncusecase.SyncUsecase
	SyncLogs *syncusecase.SyncLogUsecase

	StockHandler *stockhandler.StockHandler
	SyncHandler  *synchandler.SyncHandler
}

// NewContainer は設定からDB・Redis・外部API・ユースケース・ハンドラーを順に組み立てます。
// Redisに接続できない場合はキャッシュなしで続行します。
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	clock, err := markettime.NewClock(cfg.Market.Timezone, cfg.Market.DataAvailableHour, cfg.Market.MarketOpenHour, nil)
	if err != nil {
		return nil, fmt.Errorf("market clock: %w", err)
	}

	gdb, err := db.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	return newContainer(cfg, gdb, redisclient.NewOptionalClient(ctx, cfg.Redis), clock), nil
}

func newContainer(cfg *config.Config, gdb *gorm.DB, rdb *redis.Client, clock *markettime.Clock) *Container {
	stocks := NewStockRepository(rdb, gdb, cfg.Cache, clock)
	logs := syncadapters.NewSyncLogRepository(gdb)

	syncUC := syncusecase.NewSyncUsecase(NewMarket(cfg.FMP), stocks, logs, clock, syncusecase.Config{
		Symbols:       cfg.Sync.Symbols,
		HistoryMonths: cfg.Sync.HistoryMonths,
	})
	syncLogUC := syncusecase.NewSyncLogUsecase(logs)

	if cfg.FMP.APIKey == "" {
		slog.Warn("FMP_API_KEY is not set. Sync requests will be rejected by the upstream API.")
	}

	slog.Info("dependencies ready",
		"cache_enabled", rdb != nil,
		"symbols", len(cfg.Sync.Symbols),
		"timezone", cfg.Market.Timezone)

	return &Container{
		DB:           gdb,
		Redis:        rdb,
		Clock:        clock,
		Stocks:       stocks,
		Sync:         syncUC,
		SyncLogs:     syncLogUC,
		StockHandler: stockhandler.NewStockHandler(stockusecase.NewStockUsecase(stocks)),
		SyncHandler:  synchandler.NewSyncHandler(syncUC, syncLogUC),
	}
}

// Close はDBとRedisの接続を閉じます。
func (c *Container) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			slog.Warn("failed to close redis", "error", err)
		}
	}
	if c.DB != nil {
		db.Close(c.DB)
	}
}
