package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a sliding-window attempt limiter keyed by an arbitrary
// identifier (the auth service keys it by email).
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	maxReqs int
	window  time.Duration
	cleanup *time.Ticker
}

type bucket struct {
	attempts []time.Time
	lastSeen time.Time
}

// NewLimiter creates a limiter allowing maxAttempts per window per key.
func NewLimiter(maxAttempts int, window time.Duration) *Limiter {
	limiter := &Limiter{
		buckets: make(map[string]*bucket),
		maxReqs: maxAttempts,
		window:  window,
		cleanup: time.NewTicker(5 * time.Minute),
	}
	go limiter.cleanupOldBuckets()
	return limiter
}

// Allow records an attempt for key and reports whether it is within the
// limit. An empty key is never limited.
func (l *Limiter) Allow(key string) bool {
	if key == "" {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, exists := l.buckets[key]
	if !exists {
		b = &bucket{}
		l.buckets[key] = b
	}

	cutoff := now.Add(-l.window)
	var kept []time.Time
	for _, t := range b.attempts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	b.attempts = kept
	b.lastSeen = now

	if len(b.attempts) >= l.maxReqs {
		return false
	}

	b.attempts = append(b.attempts, now)
	return true
}

func (l *Limiter) cleanupOldBuckets() {
	for range l.cleanup.C {
		l.mu.Lock()
		stale := time.Now().Add(-3 * l.window)
		for key, b := range l.buckets {
			if b.lastSeen.Before(stale) {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}

// Stop halts the background cleanup ticker.
func (l *Limiter) Stop() {
	l.cleanup.Stop()
}
