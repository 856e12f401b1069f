package ratelimiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nr_scanner/internal/platform/clock"
)

// TestRateLimiter_ConsecutiveCallsAreSpaced は連続呼び出しが最小間隔以上離れることを検証します。
func TestRateLimiter_ConsecutiveCallsAreSpaced(t *testing.T) {
	t.Parallel()

	clk := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	rl := NewRateLimiter("coingecko", time.Second, clk)

	require.NoError(t, rl.WaitIfNeeded(context.Background()))
	first := clk.Now()
	require.NoError(t, rl.WaitIfNeeded(context.Background()))
	second := clk.Now()

	assert.GreaterOrEqual(t, second.Sub(first), time.Second)
	assert.Equal(t, []time.Duration{time.Second}, clk.Sleeps())
}

// TestRateLimiter_NoWaitAfterInterval は間隔が既に経過していれば待機しないことを検証します。
func TestRateLimiter_NoWaitAfterInterval(t *testing.T) {
	t.Parallel()

	clk := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	rl := NewRateLimiter("binance", time.Second, clk)

	require.NoError(t, rl.WaitIfNeeded(context.Background()))
	clk.Advance(1500 * time.Millisecond)
	require.NoError(t, rl.WaitIfNeeded(context.Background()))

	assert.Empty(t, clk.Sleeps())
}

// TestRateLimiter_PartialWait は経過時間を差し引いた残りだけ待機することを検証します。
func TestRateLimiter_PartialWait(t *testing.T) {
	t.Parallel()

	clk := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	rl := NewRateLimiter("okx", time.Second, clk)

	require.NoError(t, rl.WaitIfNeeded(context.Background()))
	clk.Advance(300 * time.Millisecond)
	require.NoError(t, rl.WaitIfNeeded(context.Background()))

	assert.Equal(t, []time.Duration{700 * time.Millisecond}, clk.Sleeps())
}

// TestRateLimiter_IndependentInstances はインスタンス間で状態が共有されないことを検証します。
func TestRateLimiter_IndependentInstances(t *testing.T) {
	t.Parallel()

	clk := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	a := NewRateLimiter("a", time.Second, clk)
	b := NewRateLimiter("b", time.Second, clk)

	require.NoError(t, a.WaitIfNeeded(context.Background()))
	require.NoError(t, b.WaitIfNeeded(context.Background()))

	assert.Empty(t, clk.Sleeps())
}

// TestRateLimiter_ContextCanceled はキャンセル済みコンテキストで待機が中断されることを検証します。
func TestRateLimiter_ContextCanceled(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter("slow", time.Hour, nil)
	require.NoError(t, rl.WaitIfNeeded(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := rl.WaitIfNeeded(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
