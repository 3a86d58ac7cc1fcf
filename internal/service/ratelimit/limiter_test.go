package ratelimit

import (
	"context"
	"testing"
	"time"
)

// fakeClock drives the limiter without real sleeping.
type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func newFakeLimiter(limit int, period time.Duration) (*SlidingWindow, *fakeClock) {
	fc := &fakeClock{now: time.Date(2025, 8, 22, 12, 0, 0, 0, time.UTC)}
	l := New(limit, period)
	l.now = func() time.Time { return fc.now }
	l.sleep = func(_ context.Context, d time.Duration) error {
		fc.slept = append(fc.slept, d)
		fc.now = fc.now.Add(d)
		return nil
	}
	return l, fc
}

func TestAcquireUnderLimitDoesNotBlock(t *testing.T) {
	l, fc := newFakeLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.Acquire(ctx); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
	}
	if len(fc.slept) != 0 {
		t.Fatalf("expected no sleeps, got %v", fc.slept)
	}
	if got := l.Pending(); got != 3 {
		t.Fatalf("expected 3 pending, got %d", got)
	}
}

func TestAcquireBlocksUntilOldestExpires(t *testing.T) {
	l, fc := newFakeLimiter(2, time.Minute)
	ctx := context.Background()

	_ = l.Acquire(ctx)
	fc.now = fc.now.Add(10 * time.Second)
	_ = l.Acquire(ctx)

	// Window full; third call must wait until the first call leaves it.
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if len(fc.slept) != 1 {
		t.Fatalf("expected one sleep, got %v", fc.slept)
	}
	if fc.slept[0] != 50*time.Second {
		t.Fatalf("expected 50s wait, got %v", fc.slept[0])
	}
}

func TestAcquireAfterWindowPassesFreely(t *testing.T) {
	l, fc := newFakeLimiter(1, time.Minute)
	ctx := context.Background()

	_ = l.Acquire(ctx)
	fc.now = fc.now.Add(61 * time.Second)

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if len(fc.slept) != 0 {
		t.Fatalf("expected no sleeps after window expiry, got %v", fc.slept)
	}
	if got := l.Pending(); got != 1 {
		t.Fatalf("expected 1 pending, got %d", got)
	}
}

func TestAcquireHonorsContextCancel(t *testing.T) {
	l := New(1, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	cancel()
	if err := l.Acquire(ctx); err == nil {
		t.Fatalf("expected context error on blocked acquire")
	}
}
