package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

type Limiter interface {
	Wait(ctx context.Context) error
}

// sleepFunc blocks for d or until ctx is cancelled. Swapped out in tests.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// JitterLimiter enforces a randomized minimum spacing between successive
// calls: each Wait sleeps the positive remainder of a delay drawn from
// [minDelay, maxDelay] minus the time already elapsed since the last call.
type JitterLimiter struct {
	minDelay   time.Duration
	maxDelay   time.Duration
	lastAction time.Time
	mu         sync.Mutex

	now   func() time.Time
	sleep sleepFunc
}

func NewJitterLimiter(minDelay, maxDelay time.Duration) *JitterLimiter {
	return &JitterLimiter{
		minDelay: minDelay,
		maxDelay: maxDelay,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

func (l *JitterLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.lastAction.IsZero() {
		elapsed := l.now().Sub(l.lastAction)
		if wait := l.delay() - elapsed; wait > 0 {
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	l.lastAction = l.now()
	return nil
}

func (l *JitterLimiter) delay() time.Duration {
	if l.maxDelay <= l.minDelay {
		return l.minDelay
	}
	return l.minDelay + time.Duration(rand.Int63n(int64(l.maxDelay-l.minDelay)))
}

// Window enforces a requests-per-window ceiling over a sliding span
// (60s for a per-minute limit). When the ceiling is met, Wait blocks until
// the oldest retained timestamp ages out of the span.
type Window struct {
	limit int
	span  time.Duration
	times []time.Time
	mu    sync.Mutex

	now   func() time.Time
	sleep sleepFunc
}

func NewWindow(limit int, span time.Duration) *Window {
	return &Window{
		limit: limit,
		span:  span,
		now:   time.Now,
		sleep: sleepCtx,
	}
}

func (w *Window) Wait(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.evict(now)

	if len(w.times) >= w.limit {
		wait := w.span - now.Sub(w.times[0])
		if err := w.sleep(ctx, wait); err != nil {
			return err
		}
		w.times = w.times[1:]
	}

	w.times = append(w.times, w.now())
	return nil
}

// evict drops timestamps older than the span so the retained set only ever
// covers the last span's worth of requests.
func (w *Window) evict(now time.Time) {
	cutoff := now.Add(-w.span)
	kept := w.times[:0]
	for _, t := range w.times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.times = kept
}

// Size returns the number of timestamps currently retained.
func (w *Window) Size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.times)
}
