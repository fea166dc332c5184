package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_UnlimitedNeverBlocks(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter("test", 0, 0)

	start := time.Now()
	for i := 0; i < 100; i++ {
		assert.NoError(t, rl.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestRateLimiter_ThrottlesAfterBurst(t *testing.T) {
	t.Parallel()

	// 毎秒20回なので2回目の呼び出しは約50ms待つ
	rl := NewRateLimiter("test", 20, 1)

	assert.NoError(t, rl.Wait(context.Background()))
	start := time.Now()
	assert.NoError(t, rl.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestRateLimiter_ContextCancelled(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter("test", 0.1, 1)
	assert.NoError(t, rl.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := rl.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
