package cache

import (
	"time"
)

// TTLUntilSettlement は ttl と次の確定時刻までの残り時間 untilSettled の短い方を返します。
// untilSettled が0以下なら ttl をそのまま返します。
func TTLUntilSettlement(ttl, untilSettled time.Duration) time.Duration {
	if untilSettled > 0 && untilSettled < ttl {
		return untilSettled
	}
	return ttl
}

// ExpireAtSettlement は集計キャッシュが日足の確定時刻を越えて残らないようにします。
// until は次の確定時刻までの残り時間を返す関数です。
func (c *CachingStockRepository) ExpireAtSettlement(until func() time.Duration) *CachingStockRepository {
	c.untilSettled = until
	return c
}

func (c *CachingStockRepository) entryTTL() time.Duration {
	if c.untilSettled == nil {
		return c.ttl
	}
	return TTLUntilSettlement(c.ttl, c.untilSettled())
}
