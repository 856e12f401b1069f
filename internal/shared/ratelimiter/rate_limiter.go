// Package ratelimiter は上流APIごとの最小呼び出し間隔を保証します。
package ratelimiter

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"nr_scanner/internal/platform/clock"
)

// RateLimiterInterface は、API呼び出しの頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	WaitIfNeeded(ctx context.Context) error
}

// RateLimiter は1つの上流APIに対する直前の呼び出し時刻を保持し、
// 呼び出し間隔が minInterval 未満にならないよう待機します。
// 状態はインスタンスが所有するため、スキャンやテストごとに独立します。
type RateLimiter struct {
	name        string
	minInterval time.Duration
	clock       clock.Clock

	mu       sync.Mutex
	lastCall time.Time
}

// NewRateLimiter は新しいRateLimiterのインスタンスを生成します。
// clk が nil の場合はシステム時計を使用します。
func NewRateLimiter(name string, minInterval time.Duration, clk clock.Clock) *RateLimiter {
	if clk == nil {
		clk = clock.Real{}
	}
	return &RateLimiter{
		name:        name,
		minInterval: minInterval,
		clock:       clk,
	}
}

// WaitIfNeeded は前回の呼び出しから minInterval が経過するまで待機し、
// 呼び出し時刻を記録します。待機中はロックを保持するため、並行呼び出しも直列化されます。
func (rl *RateLimiter) WaitIfNeeded(ctx context.Context) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if !rl.lastCall.IsZero() {
		wait := rl.lastCall.Add(rl.minInterval).Sub(rl.clock.Now())
		if wait > 0 {
			slog.Debug("rate limit wait", "upstream", rl.name, "wait", wait)
			if err := clock.Sleep(ctx, rl.clock, wait); err != nil {
				return err
			}
		}
	}
	rl.lastCall = rl.clock.Now()
	return nil
}

// MinInterval は設定された最小呼び出し間隔を返します。
func (rl *RateLimiter) MinInterval() time.Duration {
	return rl.minInterval
}
