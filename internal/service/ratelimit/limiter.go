package ratelimit

import (
	"context"
	"sync"
	"time"
)

// SlidingWindow admits at most limit calls per rolling period. Acquire blocks
// until the oldest call in the window expires. One instance is shared by all
// ingestion workers; the mutex is the only cross-worker synchronization.
type SlidingWindow struct {
	mu     sync.Mutex
	limit  int
	period time.Duration
	calls  []time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a sliding-window limiter of limit calls per period.
func New(limit int, period time.Duration) *SlidingWindow {
	return &SlidingWindow{
		limit:  limit,
		period: period,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// Acquire blocks until a call may proceed or ctx is done. The call is
// recorded at admission time.
func (l *SlidingWindow) Acquire(ctx context.Context) error {
	l.mu.Lock()

	now := l.now()
	l.prune(now)

	if len(l.calls) >= l.limit {
		wait := l.calls[0].Add(l.period).Sub(now)
		l.mu.Unlock()

		if wait > 0 {
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
		}

		l.mu.Lock()
		l.prune(l.now())
	}

	l.calls = append(l.calls, l.now())
	l.mu.Unlock()
	return nil
}

// Pending returns the number of calls currently inside the window.
func (l *SlidingWindow) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.calls)
}

// prune drops calls that fell out of the rolling window. Caller holds mu.
func (l *SlidingWindow) prune(now time.Time) {
	cutoff := now.Add(-l.period)
	i := 0
	for i < len(l.calls) && !l.calls[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.calls = append(l.calls[:0], l.calls[i:]...)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
