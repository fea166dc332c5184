// Package ratelimiter はレート制限のある外部APIへの呼び出しを抑制します。
package ratelimiter

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Waiter は次の呼び出しが許可されるか ctx が終了するまで待ちます。
type Waiter interface {
	Wait(ctx context.Context) error
}

// RateLimiter は待機が発生したときにログを出すトークンバケットです。
type RateLimiter struct {
	name    string
	limiter *rate.Limiter
}

var _ Waiter = (*RateLimiter)(nil)

// NewRateLimiter は1秒あたり perSecond 回、burst 回までの呼び出しを許可します。
// perSecond が0以下なら制限しません。
func NewRateLimiter(name string, perSecond float64, burst int) *RateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{name: name, limiter: rate.NewLimiter(limit, burst)}
}

// Wait はトークンを確保します。バケットが空なら待機します。
func (rl *RateLimiter) Wait(ctx context.Context) error {
	r := rl.limiter.Reserve()
	if !r.OK() {
		return rl.limiter.Wait(ctx)
	}
	delay := r.Delay()
	if delay == 0 {
		return nil
	}

	slog.Debug("rate limit reached, waiting", "limiter", rl.name, "delay", delay)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}
