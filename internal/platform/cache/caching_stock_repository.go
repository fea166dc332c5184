// Package cache はリポジトリインターフェースのキャッシュ実装を提供します。
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"stock_dashboard/internal/feature/stocks/domain/entity"
	"stock_dashboard/internal/feature/stocks/usecase"
	"stock_dashboard/internal/shared/markettime"
)

// CachingStockRepository はダッシュボード集計を Redis にキャッシュする StockRepository のデコレータです。
// 行単位の読み取りはそのまま委譲します。どの行の変更もすべての集計に影響するため、
// 書き込み時は名前空間ごと破棄します。Upsert だけは一括書き込み用に破棄を呼び出し側の
// Invalidate に任せます。
type CachingStockRepository struct {
	inner     usecase.StockRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	group     singleflight.Group

	untilSettled func() time.Duration // nil なら常に ttl
}

var _ usecase.StockRepository = (*CachingStockRepository)(nil)

// NewCachingStockRepository は StockRepository を Redis キャッシュで包みます。
// ttl が0なら5分、namespace が空なら "stocks" を使います。
// client が nil の場合はキャッシュを使いません。
func NewCachingStockRepository(rdb *redis.Client, ttl time.Duration, inner usecase.StockRepository, namespace string) *CachingStockRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "stocks"
	}
	return &CachingStockRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

func (c *CachingStockRepository) List(ctx context.Context, q entity.ListQuery) ([]entity.Stock, int64, error) {
	return c.inner.List(ctx, q)
}

func (c *CachingStockRepository) FindByID(ctx context.Context, id uint) (*entity.Stock, error) {
	return c.inner.FindByID(ctx, id)
}

func (c *CachingStockRepository) FindBySymbol(ctx context.Context, symbol string) ([]entity.Stock, error) {
	return c.inner.FindBySymbol(ctx, symbol)
}

func (c *CachingStockRepository) LastDateForSymbol(ctx context.Context, symbol string) (*time.Time, error) {
	return c.inner.LastDateForSymbol(ctx, symbol)
}

func (c *CachingStockRepository) Count(ctx context.Context) (int64, error) {
	return c.inner.Count(ctx)
}

func (c *CachingStockRepository) Create(ctx context.Context, s *entity.Stock) error {
	if err := c.inner.Create(ctx, s); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CachingStockRepository) Update(ctx context.Context, s *entity.Stock) error {
	if err := c.inner.Update(ctx, s); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CachingStockRepository) Delete(ctx context.Context, id uint) (bool, error) {
	deleted, err := c.inner.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		c.invalidate(ctx)
	}
	return deleted, nil
}

// Upsert は行を書き込むだけでキャッシュは破棄しません。
// 一連の Upsert の後で Invalidate を1回呼んでください。
func (c *CachingStockRepository) Upsert(ctx context.Context, s entity.Stock) error {
	return c.inner.Upsert(ctx, s)
}

// Invalidate は名前空間の集計キャッシュをすべて破棄します。
func (c *CachingStockRepository) Invalidate(ctx context.Context) {
	c.invalidate(ctx)
}

// SectorDistribution はキャッシュがあればそれを返します。
func (c *CachingStockRepository) SectorDistribution(ctx context.Context, r entity.DateRange) ([]entity.SectorStat, error) {
	key := c.cacheKey("sectors", "", r)
	return readThrough(ctx, c, key, func(ctx context.Context) ([]entity.SectorStat, error) {
		return c.inner.SectorDistribution(ctx, r)
	})
}

// PriceTimeline はキャッシュがあればそれを返します。
func (c *CachingStockRepository) PriceTimeline(ctx context.Context, symbol string, r entity.DateRange) ([]entity.TimelinePoint, error) {
	key := c.cacheKey("timeline", symbol, r)
	return readThrough(ctx, c, key, func(ctx context.Context) ([]entity.TimelinePoint, error) {
		return c.inner.PriceTimeline(ctx, symbol, r)
	})
}

// DashboardStats はキャッシュがあればそれを返します。
func (c *CachingStockRepository) DashboardStats(ctx context.Context) (*entity.DashboardStats, error) {
	key := c.namespace + ":stats"
	return readThrough(ctx, c, key, c.inner.DashboardStats)
}

// readThrough は key のキャッシュを返し、無ければ読み込んで保存します。
// 同じ key への同時ミスは1回の読み込みを共有します。
func readThrough[T any](ctx context.Context, c *CachingStockRepository, key string, load func(context.Context) (T, error)) (T, error) {
	// Redis 未設定ならキャッシュを経由しない
	if c.rdb == nil {
		return load(ctx)
	}

	// 1) キャッシュを確認
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out T
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// 壊れたエントリは削除
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) DBから取得
	v, err, _ := c.group.Do(key, func() (any, error) {
		out, err := load(ctx)
		if err != nil {
			return out, err
		}
		// 3) キャッシュに保存（失敗は無視）
		if b, err := json.Marshal(out); err == nil {
			_ = c.rdb.Set(ctx, key, b, c.entryTTL()).Err()
		}
		return out, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// cacheKey は集計クエリのキャッシュキーを生成します。
func (c *CachingStockRepository) cacheKey(kind, symbol string, r entity.DateRange) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s",
		c.namespace,
		kind,
		safe(symbol),
		formatBound(r.From),
		formatBound(r.To),
	)
}

func formatBound(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return markettime.FormatDate(*t)
}

// invalidate は名前空間の集計をすべて削除します。失敗はログに残すだけです。
func (c *CachingStockRepository) invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	if err := c.deleteByPattern(ctx, c.namespace+":*"); err != nil {
		slog.Warn("cache invalidation failed", "namespace", c.namespace, "error", err)
	}
}

// deleteByPattern は SCAN でパターンに一致するキーをすべて削除します。
func (c *CachingStockRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe は Redis キーに使いにくい文字を置き換えます。
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
