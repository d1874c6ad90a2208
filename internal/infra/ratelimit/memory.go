package ratelimit

import (
	"context"
	"sync"
	"time"

	"veritrust/internal/domain"
)

type memoryLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	buckets map[string]*bucket
	maxKeys int
}

type bucket struct {
	count     int
	windowEnd time.Time
}

type MemoryConfig struct {
	Now     func() time.Time
	MaxKeys int
}

// NewMemoryLimiter is a fixed-window counter for single-process
// deployments; use the redis limiter when running more than one
// replica.
func NewMemoryLimiter(cfg MemoryConfig) domain.RateLimiter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = 10000
	}
	return &memoryLimiter{
		now:     cfg.Now,
		buckets: make(map[string]*bucket),
		maxKeys: cfg.MaxKeys,
	}
}

func (m *memoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	if window <= 0 {
		window = time.Second
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[key]
	if ok && now.After(b.windowEnd) {
		delete(m.buckets, key)
		ok = false
	}
	if !ok {
		if len(m.buckets) >= m.maxKeys {
			m.evictExpired(now)
		}
		if len(m.buckets) >= m.maxKeys {
			// Full of live buckets: fail open rather than let one
			// noisy key starve everyone of state.
			return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
		}
		b = &bucket{windowEnd: now.Add(window)}
		m.buckets[key] = b
	}
	b.count++

	remaining := limit - b.count
	if remaining < 0 {
		remaining = 0
	}
	return domain.RateLimitDecision{
		Allowed:   b.count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   b.windowEnd,
	}, nil
}

func (m *memoryLimiter) evictExpired(now time.Time) {
	for key, b := range m.buckets {
		if now.After(b.windowEnd) {
			delete(m.buckets, key)
		}
	}
}
