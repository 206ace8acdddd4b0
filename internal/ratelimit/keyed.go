package ratelimit

import (
	"sync"
	"time"
)

// Recorder receives limiter metrics. *metrics.Metrics implements it.
type Recorder interface {
	RecordRateLimiterDrop(limiterType string)
}

// KeyedConfig configures a KeyedLimiter instance.
type KeyedConfig struct {
	// Name identifies this limiter for metrics (e.g., "chat")
	Name string

	Burst      float64 // Maximum tokens (burst capacity)
	RefillRate float64 // Tokens refilled per second

	CleanupPeriod time.Duration // How often to drop idle keys

	Metrics Recorder // optional
}

// KeyedLimiter keeps one token bucket per key (a Telegram chat ID) and
// periodically drops buckets that have refilled completely.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*Limiter
	config   KeyedConfig
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewKeyedLimiter creates a per-key limiter and starts its cleanup loop.
// Call Stop to end the loop.
func NewKeyedLimiter(cfg KeyedConfig) *KeyedLimiter {
	kl := newKeyed(cfg, time.Now)
	if cfg.CleanupPeriod > 0 {
		go kl.cleanupLoop()
	}
	return kl
}

func newKeyed(cfg KeyedConfig, now func() time.Time) *KeyedLimiter {
	return &KeyedLimiter{
		limiters: make(map[string]*Limiter),
		config:   cfg,
		now:      now,
		stopCh:   make(chan struct{}),
	}
}

// Allow reports whether a request for key may proceed, consuming a token.
// The empty key is never limited.
func (kl *KeyedLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	kl.mu.Lock()
	limiter, ok := kl.limiters[key]
	if !ok {
		limiter = newWithClock(kl.config.Burst, kl.config.RefillRate, kl.now)
		kl.limiters[key] = limiter
	}
	kl.mu.Unlock()

	if limiter.Allow() {
		return true
	}
	if kl.config.Metrics != nil {
		kl.config.Metrics.RecordRateLimiterDrop(kl.config.Name)
	}
	return false
}

// ActiveCount returns the number of tracked keys.
func (kl *KeyedLimiter) ActiveCount() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.limiters)
}

// Cleanup drops the buckets of idle keys and returns how many remain.
func (kl *KeyedLimiter) Cleanup() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	for key, limiter := range kl.limiters {
		if limiter.IsFull() {
			delete(kl.limiters, key)
		}
	}
	return len(kl.limiters)
}

func (kl *KeyedLimiter) cleanupLoop() {
	ticker := time.NewTicker(kl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-kl.stopCh:
			return
		case <-ticker.C:
			kl.Cleanup()
		}
	}
}

// Stop gracefully stops the cleanup goroutine.
// Safe to call multiple times.
func (kl *KeyedLimiter) Stop() {
	kl.stopOnce.Do(func() { close(kl.stopCh) })
}
