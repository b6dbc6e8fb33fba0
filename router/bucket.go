// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"sync"
	"time"
)

// tokenBucket is a per-sender rate limiter with lazy refill, per §3:
// 0 ≤ tokens ≤ capacity, refilled by elapsed_seconds × refill_rate on
// every consume attempt.
type tokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	refillRate float64
	lastRefill time.Time
	hits       int64
}

func newTokenBucket(capacity, refillRate, initial float64, now time.Time) *tokenBucket {
	if initial > capacity {
		initial = capacity
	}
	if initial < 0 {
		initial = 0
	}
	return &tokenBucket{
		capacity:   capacity,
		tokens:     initial,
		refillRate: refillRate,
		lastRefill: now,
	}
}

// refillLocked must be called with mu held.
func (b *tokenBucket) refillLocked(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now
}

// tryConsume refills the bucket and, if it holds at least cost tokens,
// deducts cost and returns true. A cost of 0 always succeeds and
// deducts nothing (the refill still runs), matching §4.1's "the top tier
// costs 0 tokens, override traffic is never rate-limited".
func (b *tokenBucket) tryConsume(cost float64, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refillLocked(now)
	if cost <= 0 {
		return true
	}
	if b.tokens < cost {
		return false
	}
	b.tokens -= cost
	return true
}

// recordHit increments the sender's rate-limit hit counter, per §4.6's
// per-sender "hits" KPI.
func (b *tokenBucket) recordHit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hits++
}

// snapshot returns the bucket's current state for metrics publication,
// refilling first so the reported tokens are current.
func (b *tokenBucket) snapshot(now time.Time) (tokens, capacity, refillRate float64, lastRefill time.Time, hits int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked(now)
	return b.tokens, b.capacity, b.refillRate, b.lastRefill, b.hits
}
