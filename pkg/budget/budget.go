// Package budget implements the shared fixed-window request budget.
// Every outbound probe acquires from one Budget instance per run, so the
// throttle is global to the run rather than per probe family.
//
// Acquire is a blocking primitive, not a failure: under contention a scan
// runs slower instead of producing partial results.
package budget

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bountyscan/bountyscan/pkg/defaults"
)

// ErrExhausted is returned when a non-renewing budget has no units left.
var ErrExhausted = errors.New("budget: exhausted")

// Budget is a fixed-window request counter. The zero value is unusable;
// construct with New. All methods are safe for concurrent use so probe
// families can be parallelized without changing callers.
type Budget struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	poll        time.Duration
	windowStart time.Time
	count       int
}

// Option configures a Budget.
type Option func(*Budget)

// WithPollInterval overrides how often a blocked Acquire re-checks the
// window. Mainly for tests.
func WithPollInterval(d time.Duration) Option {
	return func(b *Budget) { b.poll = d }
}

// New creates a Budget allowing maxRequests per window.
func New(maxRequests int, window time.Duration, opts ...Option) *Budget {
	b := &Budget{
		maxRequests: maxRequests,
		window:      window,
		poll:        defaults.BudgetPollInterval,
		windowStart: time.Now(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Default returns a Budget with the standard per-minute limit.
func Default() *Budget {
	return New(defaults.BudgetMaxPerMinute, defaults.BudgetWindow)
}

// Allow reserves n units if they fit in the current window, resetting the
// window first when it has elapsed. Non-blocking.
func (b *Budget) Allow(n int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if now.Sub(b.windowStart) >= b.window {
		b.windowStart = now
		b.count = 0
	}
	if b.count+n > b.maxRequests {
		return false
	}
	b.count += n
	return true
}

// Acquire blocks until n units of budget are available, polling on a fixed
// interval. Returns the context error if ctx is cancelled while waiting.
func (b *Budget) Acquire(ctx context.Context, n int) error {
	if b.Allow(n) {
		return nil
	}

	ticker := time.NewTicker(b.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if b.Allow(n) {
				return nil
			}
		}
	}
}

// Remaining returns the unreserved units in the current window.
func (b *Budget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if time.Since(b.windowStart) >= b.window {
		return b.maxRequests
	}
	return b.maxRequests - b.count
}
