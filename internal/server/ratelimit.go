package server

import (
	"sync"
	"time"

	"github.com/jglee22/OpenHorizons-sub001/internal/config"
)

const (
	rateLimitCleanupInterval = 5 * time.Minute

	// failureMemory is how long an address keeps failures it has not been locked out for.
	failureMemory = 10 * time.Minute
)

// KeyRateLimiter locks out addresses that keep failing the hello key check.
// Each lockout doubles the previous one up to the configured maximum.
type KeyRateLimiter struct {
	mu          sync.Mutex
	addrs       map[string]*keyFailures
	maxAttempts int
	lockout     time.Duration
	maxLockout  time.Duration
	now         func() time.Time

	stopCleanup chan struct{}
	stopOnce    sync.Once
}

type keyFailures struct {
	count       int // Failures since the last lockout
	lastFailure time.Time
	lockedUntil time.Time
	lockouts    int
}

// NewKeyRateLimiter creates a rate limiter and starts its cleanup goroutine.
// Zero config values fall back to 5 attempts and a 30s lockout capped at 300s.
func NewKeyRateLimiter(cfg config.RateLimitConfig) *KeyRateLimiter {
	rl := newKeyRateLimiter(cfg, time.Now)
	go rl.cleanupLoop(rateLimitCleanupInterval)
	return rl
}

func newKeyRateLimiter(cfg config.RateLimitConfig, now func() time.Time) *KeyRateLimiter {
	rl := &KeyRateLimiter{
		addrs:       make(map[string]*keyFailures),
		maxAttempts: cfg.MaxAttempts,
		lockout:     time.Duration(cfg.LockoutSeconds) * time.Second,
		maxLockout:  time.Duration(cfg.MaxLockoutSeconds) * time.Second,
		now:         now,
		stopCleanup: make(chan struct{}),
	}
	if rl.maxAttempts <= 0 {
		rl.maxAttempts = 5
	}
	if rl.lockout <= 0 {
		rl.lockout = 30 * time.Second
	}
	if rl.maxLockout <= 0 {
		rl.maxLockout = 300 * time.Second
	}
	return rl
}

// Stop stops the cleanup goroutine. Safe to call more than once.
func (rl *KeyRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

// IsLocked reports whether addr is locked out and for how much longer.
func (rl *KeyRateLimiter) IsLocked(addr string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if f, ok := rl.addrs[addr]; ok {
		if remaining := f.lockedUntil.Sub(rl.now()); remaining > 0 {
			return true, remaining
		}
	}
	return false, 0
}

// RecordFailure counts a failed key for addr.
// Returns true with the lockout duration once addr is locked out.
func (rl *KeyRateLimiter) RecordFailure(addr string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	f, ok := rl.addrs[addr]
	if !ok {
		f = &keyFailures{}
		rl.addrs[addr] = f
	}
	if remaining := f.lockedUntil.Sub(now); remaining > 0 {
		return true, remaining
	}

	f.count++
	f.lastFailure = now
	if f.count < rl.maxAttempts {
		return false, 0
	}

	f.lockouts++
	d := rl.lockoutFor(f.lockouts)
	f.lockedUntil = now.Add(d)
	f.count = 0
	return true, d
}

// lockoutFor doubles the base lockout per previous lockout, capped at the maximum.
func (rl *KeyRateLimiter) lockoutFor(lockouts int) time.Duration {
	d := rl.lockout
	for i := 1; i < lockouts; i++ {
		// Compare before doubling so large counts cannot overflow
		if d >= rl.maxLockout/2 {
			return rl.maxLockout
		}
		d *= 2
	}
	return min(d, rl.maxLockout)
}

// RecordSuccess forgets every failure for addr.
func (rl *KeyRateLimiter) RecordSuccess(addr string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.addrs, addr)
}

// Attempts returns the failures counted toward the next lockout for addr.
func (rl *KeyRateLimiter) Attempts(addr string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if f, ok := rl.addrs[addr]; ok {
		return f.count
	}
	return 0
}

// Tracked returns how many addresses have failure history.
func (rl *KeyRateLimiter) Tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.addrs)
}

func (rl *KeyRateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCleanup:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// cleanup drops addresses that are not locked and have not failed for
// failureMemory. Their backoff history goes with them.
func (rl *KeyRateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-failureMemory)
	for addr, f := range rl.addrs {
		if now.After(f.lockedUntil) && f.lastFailure.Before(cutoff) {
			delete(rl.addrs, addr)
		}
	}
}
