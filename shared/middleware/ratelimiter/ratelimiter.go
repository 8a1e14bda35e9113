// Package ratelimiter keeps one token bucket per identity (IP, email, ...).
package ratelimiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter manages independent limiters per key. Idle keys are dropped by
// Sweep so the map does not grow without bound.
type KeyedLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
}

// New allows perMinute events per key with the given burst.
func New(perMinute float64, burst int, idle time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		limiters: make(map[string]*entry),
		limit:    rate.Limit(perMinute / 60),
		burst:    burst,
		idle:     idle,
		now:      time.Now,
	}
}

// Allow reports whether an event for key may happen now.
func (k *KeyedLimiter) Allow(key string) bool {
	return k.get(key).AllowN(k.now(), 1)
}

func (k *KeyedLimiter) get(key string) *rate.Limiter {
	now := k.now()

	k.mu.RLock()
	e, ok := k.limiters[key]
	k.mu.RUnlock()
	if ok {
		k.mu.Lock()
		e.lastSeen = now
		k.mu.Unlock()
		return e.limiter
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	// Double-check after acquiring write lock
	if e, ok := k.limiters[key]; ok {
		e.lastSeen = now
		return e.limiter
	}
	e = &entry{limiter: rate.NewLimiter(k.limit, k.burst), lastSeen: now}
	k.limiters[key] = e
	return e.limiter
}

// Sweep removes keys idle for longer than the configured idle duration.
func (k *KeyedLimiter) Sweep() int {
	cutoff := k.now().Add(-k.idle)
	k.mu.Lock()
	defer k.mu.Unlock()
	removed := 0
	for key, e := range k.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(k.limiters, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (k *KeyedLimiter) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.limiters)
}
