package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLimiter_Allow(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	l := newWithClock(3, 1, clock.Now)

	for i := range 3 {
		assert.True(t, l.Allow(), "attempt %d", i+1)
	}
	assert.False(t, l.Allow())

	clock.Advance(500 * time.Millisecond)
	assert.False(t, l.Allow())

	clock.Advance(500 * time.Millisecond)
	assert.True(t, l.Allow())
}

func TestLimiter_RefillCapsAtBurst(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	l := newWithClock(2, 10, clock.Now)

	require.True(t, l.Allow())
	assert.False(t, l.IsFull())

	clock.Advance(time.Hour)
	assert.InDelta(t, 2.0, l.Available(), 1e-9)
	assert.True(t, l.IsFull())
}

func TestLimiter_Wait(t *testing.T) {
	t.Parallel()

	t.Run("acquires after refill", func(t *testing.T) {
		t.Parallel()
		l := New(1, 50) // one token every 20ms
		require.True(t, l.Allow())

		start := time.Now()
		require.NoError(t, l.Wait(context.Background()))
		assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	})

	t.Run("honours cancellation", func(t *testing.T) {
		t.Parallel()
		l := New(1, 0.001)
		require.True(t, l.Allow())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, l.Wait(ctx), context.DeadlineExceeded)
	})

	t.Run("zero refill waits for context", func(t *testing.T) {
		t.Parallel()
		l := New(0, 0)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, l.Wait(ctx), context.Canceled)
	})
}

func TestLimiter_Concurrent(t *testing.T) {
	t.Parallel()
	l := New(100, 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for range 200 {
		wg.Go(func() {
			if l.Allow() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		})
	}
	wg.Wait()
	assert.Equal(t, 100, allowed)
}
