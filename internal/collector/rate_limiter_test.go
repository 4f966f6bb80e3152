package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_NoDelay(t *testing.T) {
	limiter := NewRateLimiter(0, nil)

	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, limiter.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), time.Second)
}

func TestRateLimiter_MinDelay(t *testing.T) {
	limiter := NewRateLimiter(20*time.Millisecond, nil)

	start := time.Now()
	require.NoError(t, limiter.Wait(context.Background()))
	require.NoError(t, limiter.Wait(context.Background()))
	require.NoError(t, limiter.Wait(context.Background()))

	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestRateLimiter_WaitsForReset(t *testing.T) {
	limiter := NewRateLimiter(0, nil)
	limiter.UpdateLimit(1, time.Now().Add(50*time.Millisecond))

	start := time.Now()
	require.NoError(t, limiter.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)

	remaining, _, err := limiter.CheckLimit()
	require.NoError(t, err)
	assert.Equal(t, 5000, remaining)
}

func TestRateLimiter_ContextCancelledWhileWaiting(t *testing.T) {
	limiter := NewRateLimiter(0, nil)
	limiter.UpdateLimit(0, time.Now().Add(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiter_UpdateAndCheck(t *testing.T) {
	limiter := NewRateLimiter(0, nil)
	reset := time.Now().Add(10 * time.Minute)

	limiter.UpdateLimit(123, reset)

	remaining, resetTime, err := limiter.CheckLimit()
	require.NoError(t, err)
	assert.Equal(t, 123, remaining)
	assert.Equal(t, reset, resetTime)
}
