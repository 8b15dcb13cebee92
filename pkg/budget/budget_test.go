package budget

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAllowEnforcesWindowLimit(t *testing.T) {
	b := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !b.Allow(1) {
			t.Fatalf("request %d should fit the window", i+1)
		}
	}
	if b.Allow(1) {
		t.Error("4th request should be blocked")
	}
	if got := b.Remaining(); got != 0 {
		t.Errorf("Remaining() = %d, want 0", got)
	}
}

func TestAllowResetsAfterWindow(t *testing.T) {
	b := New(1, time.Minute)
	if !b.Allow(1) {
		t.Fatal("first request should fit")
	}
	if b.Allow(1) {
		t.Fatal("second request should be blocked")
	}

	b.mu.Lock()
	b.windowStart = time.Now().Add(-2 * time.Minute)
	b.mu.Unlock()

	if !b.Allow(1) {
		t.Error("request after window elapse should fit")
	}
}

func TestAcquireUnblocksOnNewWindow(t *testing.T) {
	b := New(1, 40*time.Millisecond, WithPollInterval(5*time.Millisecond))
	if !b.Allow(1) {
		t.Fatal("first request should fit")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	if err := b.Acquire(ctx, 1); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if time.Since(start) < 30*time.Millisecond {
		t.Error("Acquire returned before the window could elapse")
	}
}

func TestAcquireHonorsContext(t *testing.T) {
	b := New(1, time.Hour, WithPollInterval(5*time.Millisecond))
	b.Allow(1)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := b.Acquire(ctx, 1)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Acquire() error = %v, want deadline exceeded", err)
	}
}
