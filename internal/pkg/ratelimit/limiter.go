// Package ratelimit throttles outbound provider requests.
package ratelimit

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// Limiter keeps a sliding window of request timestamps shared by all
// adapters. When the window is full it blocks until the oldest request
// expires, then clears the whole window, so the reset is coarser and
// more conservative than a strict leaky bucket.
type Limiter struct {
	mu       sync.Mutex
	max      int
	window   time.Duration
	requests []time.Time
	now      func() time.Time
	sleep    func(context.Context, time.Duration) error
}

// NewLimiter creates a limiter allowing max requests per window.
func NewLimiter(max int, window time.Duration) *Limiter {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = 60 * time.Second
	}
	return &Limiter{
		max:    max,
		window: window,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// Wait blocks until a request slot is available, then records the request.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	now := l.now()
	cutoff := now.Add(-l.window)
	alive := l.requests[:0]
	for _, t := range l.requests {
		if t.After(cutoff) {
			alive = append(alive, t)
		}
	}
	l.requests = alive

	if len(l.requests) >= l.max {
		wait := l.window - now.Sub(l.requests[0])
		l.mu.Unlock()
		if wait > 0 {
			slog.Debug("Rate limit reached, waiting", "wait", wait)
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
		}
		l.mu.Lock()
		l.requests = l.requests[:0]
	}

	l.requests = append(l.requests, l.now())
	l.mu.Unlock()
	return nil
}

// Jitter returns a uniform random delay in [1s, 3s) to be awaited between
// adapter requests, reducing provider-side burst detection.
func (l *Limiter) Jitter() time.Duration {
	return time.Second + time.Duration(rand.Int63n(int64(2*time.Second)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
