package di

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	stockadapters "stock_dashboard/internal/feature/stocks/adapters"
	"stock_dashboard/internal/feature/stocks/usecase"
	"stock_dashboard/internal/platform/cache"
	"stock_dashboard/internal/platform/config"
	"stock_dashboard/internal/shared/markettime"
)

// NewStockRepository はStockRepositoryの実装を生成します。
// Redisが利用可能な場合はキャッシュ付きの実装を返し、そうでなければDBを直接参照します。
// キャッシュのTTLは日足の確定時刻で打ち切ります。
func NewStockRepository(rdb *redis.Client, db *gorm.DB, cfg config.CacheConfig, clock *markettime.Clock) usecase.StockRepository {
	repo := stockadapters.NewStockRepository(db)
	if rdb != nil {
		return cache.NewCachingStockRepository(rdb, cfg.TTL, repo, cfg.Namespace).
			ExpireAtSettlement(clock.UntilDataAvailable)
	}
	return repo
}
