// Package markettime は取引所の現地時刻で取引時間を判定します。
package markettime

import (
	"fmt"
	"time"
	_ "time/tzdata" // zoneinfo の無いホストでも取引所のタイムゾーンを解決する
)

const (
	// DefaultTimezone は米国株式市場のタイムゾーンです。
	DefaultTimezone = "America/New_York"
	// DefaultDataAvailableHour はプロバイダの日次データが確定する時刻（取引所時間）です。
	// 市場は16時に閉まります。
	DefaultDataAvailableHour = 17
	// DefaultMarketOpenHour は次のセッションが始まる時刻（取引所時間）です。
	DefaultMarketOpenHour = 9
)

// Clock は取引所の現地時刻で日付とデータ確定を判定します。
type Clock struct {
	loc               *time.Location
	dataAvailableHour int
	marketOpenHour    int
	now               func() time.Time
}

// NewClock は IANA タイムゾーンと時刻のしきい値から Clock を生成します。
// now が nil なら time.Now を使います。
func NewClock(timezone string, dataAvailableHour, marketOpenHour int, now func() time.Time) (*Clock, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load market timezone %q: %w", timezone, err)
	}
	if now == nil {
		now = time.Now
	}
	return &Clock{
		loc:               loc,
		dataAvailableHour: dataAvailableHour,
		marketOpenHour:    marketOpenHour,
		now:               now,
	}, nil
}

// Now は現在時刻を返します。
func (c *Clock) Now() time.Time {
	return c.now()
}

// IsDataFinal は t の取引日の日次データが確定しているかを返します。
// 現地時刻がデータ確定時刻以降か、次の寄り付き前なら確定です。
func (c *Clock) IsDataFinal(t time.Time) bool {
	hour := t.In(c.loc).Hour()
	return hour >= c.dataAvailableHour || hour < c.marketOpenHour
}

// IsAfterMarketClose は現在時刻での IsDataFinal です。
func (c *Clock) IsAfterMarketClose() bool {
	return c.IsDataFinal(c.now())
}

// DateOf は t の取引所での日付を UTC の0時として返します。
func (c *Clock) DateOf(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today は取引所での今日の日付を UTC の0時として返します。
func (c *Clock) Today() time.Time {
	return c.DateOf(c.now())
}

// UntilDataAvailable は次のデータ確定時刻までの残り時間を返します。
func (c *Clock) UntilDataAvailable() time.Duration {
	now := c.now().In(c.loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), c.dataAvailableHour, 0, 0, 0, c.loc)
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

// SubtractMonths は日付を n か月前に戻します。
func SubtractMonths(date time.Time, n int) time.Time {
	return date.AddDate(0, -n, 0)
}

// FormatDate は日付を YYYY-MM-DD 形式にします。
func FormatDate(date time.Time) string {
	return date.Format(time.DateOnly)
}
