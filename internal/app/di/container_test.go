package di

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_dashboard/internal/platform/cache"
	"stock_dashboard/internal/platform/config"
	"stock_dashboard/internal/platform/db"
	"stock_dashboard/internal/platform/externalapi/fmp"
	"stock_dashboard/internal/shared/markettime"
)

func testConfig() *config.Config {
	return &config.Config{
		Database: db.Config{Driver: db.DriverSQLite, SQLitePath: ":memory:", RunMigrations: true},
		Cache:    config.CacheConfig{TTL: time.Minute, Namespace: "test"},
		FMP:      fmp.Config{APIKey: "k", Timeout: time.Second, RateLimit: 5},
		Sync:     config.SyncConfig{Symbols: []string{"AAPL", "MSFT"}, HistoryMonths: 1},
		Market:   config.MarketConfig{Timezone: "America/New_York", DataAvailableHour: 17, MarketOpenHour: 9},
	}
}

// TestNewContainer_WithoutRedis はRedis未設定時にDBを直接参照する構成になることを検証します。
func TestNewContainer_WithoutRedis(t *testing.T) {
	c, err := NewContainer(context.Background(), testConfig())
	require.NoError(t, err)
	t.Cleanup(c.Close)

	assert.Nil(t, c.Redis)
	_, cached := c.Stocks.(*cache.CachingStockRepository)
	assert.False(t, cached)
	assert.Equal(t, []string{"AAPL", "MSFT"}, c.Sync.Symbols())
	assert.NotNil(t, c.StockHandler)
	assert.NotNil(t, c.SyncHandler)

	// 空のDBでは初回同期が必要
	needs, err := c.Sync.NeedsInitialSync(context.Background())
	require.NoError(t, err)
	assert.True(t, needs)
}

// TestNewStockRepository_WithRedis はRedisクライアントがある場合にキャッシュで包むことを検証します。
func TestNewStockRepository_WithRedis(t *testing.T) {
	gdb, err := db.Open(testConfig().Database)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(gdb) })
	rdb, _ := redismock.NewClientMock()
	clock, err := markettime.NewClock("", 17, 9, nil)
	require.NoError(t, err)

	repo := NewStockRepository(rdb, gdb, config.CacheConfig{}, clock)

	assert.IsType(t, &cache.CachingStockRepository{}, repo)
}

func TestNewContainer_InvalidTimezone(t *testing.T) {
	cfg := testConfig()
	cfg.Market.Timezone = "Mars/Olympus"

	_, err := NewContainer(context.Background(), cfg)

	assert.ErrorContains(t, err, "market clock")
}

func TestNewMarket(t *testing.T) {
	assert.NotNil(t, NewMarket(fmp.Config{APIKey: "k", Timeout: time.Second}))
}
