package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewMemoryLimiter(MemoryConfig{Now: func() time.Time { return now }})

	for i := 0; i < 3; i++ {
		decision, err := limiter.Allow(context.Background(), "ip:203.0.113.9", 3, time.Minute)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !decision.Allowed {
			t.Fatalf("request %d within limit must be allowed", i)
		}
		if decision.Remaining != 3-(i+1) {
			t.Fatalf("request %d: expected remaining %d, got %d", i, 3-(i+1), decision.Remaining)
		}
	}

	decision, err := limiter.Allow(context.Background(), "ip:203.0.113.9", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow over limit: %v", err)
	}
	if decision.Allowed {
		t.Fatal("request over limit must be denied")
	}

	// A fresh window clears the counter.
	now = now.Add(2 * time.Minute)
	decision, err = limiter.Allow(context.Background(), "ip:203.0.113.9", 3, time.Minute)
	if err != nil {
		t.Fatalf("allow after window: %v", err)
	}
	if !decision.Allowed {
		t.Fatal("request in a fresh window must be allowed")
	}
}

func TestMemoryLimiter_IndependentKeys(t *testing.T) {
	limiter := NewMemoryLimiter(MemoryConfig{})
	if _, err := limiter.Allow(context.Background(), "ip:a", 1, time.Minute); err != nil {
		t.Fatalf("allow a: %v", err)
	}
	decision, err := limiter.Allow(context.Background(), "ip:b", 1, time.Minute)
	if err != nil {
		t.Fatalf("allow b: %v", err)
	}
	if !decision.Allowed {
		t.Fatal("distinct keys must not share a counter")
	}
}

func TestMemoryLimiter_DisabledLimit(t *testing.T) {
	limiter := NewMemoryLimiter(MemoryConfig{})
	for i := 0; i < 10; i++ {
		decision, err := limiter.Allow(context.Background(), "ip:a", 0, time.Minute)
		if err != nil || !decision.Allowed {
			t.Fatalf("limit 0 must always allow, got %+v err=%v", decision, err)
		}
	}
}
