// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/forge/metrics"
	"github.com/luxfi/forge/tier"
)

func newTestRouter(t *testing.T, cfg Config) (*Router, <-chan Delivery) {
	r, ch, _ := newTestRouterWithMetrics(t, cfg)
	return r, ch
}

func newTestRouterWithMetrics(t *testing.T, cfg Config) (*Router, <-chan Delivery, *metrics.Registry) {
	t.Helper()
	reg := metrics.NewRegistry(nil)
	r := New(cfg, reg, nil, nil)
	ch, unsub := r.Subscribe()
	t.Cleanup(unsub)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go r.Run(ctx)
	t.Cleanup(r.Close)
	return r, ch, reg
}

func drainN(t *testing.T, ch <-chan Delivery, n int, within time.Duration) []Delivery {
	t.Helper()
	deadline := time.After(within)
	out := make([]Delivery, 0, n)
	for len(out) < n {
		select {
		case d := <-ch:
			out = append(out, d)
		case <-deadline:
			t.Fatalf("timed out waiting for %d deliveries, got %d", n, len(out))
		}
	}
	return out
}

// Scenario 1: priority ordering.
func TestRouter_PriorityOrdering(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TokenCapacity = 1000
	cfg.InitialTokens = 1000
	cfg.TokenRefillRate = 1000
	r, ch := newTestRouter(t, cfg)

	require.NoError(t, r.Enqueue("s1", "recv", "I", tier.Info))
	require.NoError(t, r.Enqueue("s1", "recv", "C", tier.Coordinate))
	require.NoError(t, r.Enqueue("s1", "recv", "K", tier.Critical))

	deliveries := drainN(t, ch, 3, time.Second)
	var order []string
	for _, d := range deliveries {
		order = append(order, d.Message.Payload)
	}
	require.Equal(t, []string{"K", "C", "I"}, order)
}

// Scenario 2: aging promotion.
func TestRouter_AgingPromotion(t *testing.T) {
	cfg := Config{
		AgingThreshold:  60 * time.Millisecond,
		MaxAgingBoosts:  1,
		IdleBackoff:     5 * time.Millisecond,
		TokenCapacity:   5,
		TokenRefillRate: 10,
		InitialTokens:   0,
	}
	r, ch := newTestRouter(t, cfg)

	require.NoError(t, r.Enqueue("s1", "recv", "msg", tier.Info))

	deliveries := drainN(t, ch, 1, 200*time.Millisecond)
	d := deliveries[0]
	require.Equal(t, tier.Coordinate, d.Effective)
	require.Equal(t, 1, d.AgingBoosts)
	require.GreaterOrEqual(t, d.WaitTime, 60*time.Millisecond)
}

// Scenario 3: token quota.
func TestRouter_TokenQuota(t *testing.T) {
	cfg := Config{
		AgingThreshold:  time.Hour,
		MaxAgingBoosts:  0,
		IdleBackoff:     5 * time.Millisecond,
		TokenCapacity:   2,
		TokenRefillRate: 4,
		InitialTokens:   2,
	}
	r, ch, reg := newTestRouterWithMetrics(t, cfg)

	require.NoError(t, r.Enqueue("S", "recv", "a", tier.Info))
	require.NoError(t, r.Enqueue("S", "recv", "b", tier.Info))
	require.NoError(t, r.Enqueue("S", "recv", "c", tier.Info))

	start := time.Now()
	deliveries := drainN(t, ch, 3, 500*time.Millisecond)
	elapsed := time.Since(start)

	require.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
	require.Greater(t, deliveries[2].Attempts, 0)

	stats := reg.Snapshot().Senders["S"]
	require.Greater(t, stats.Hits, int64(0))
}

// FIFO within a tier for a single sender.
func TestRouter_FIFOWithinTier(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TokenCapacity = 1000
	cfg.InitialTokens = 1000
	cfg.TokenRefillRate = 1000
	r, ch := newTestRouter(t, cfg)

	for _, p := range []string{"1", "2", "3"} {
		require.NoError(t, r.Enqueue("s1", "recv", p, tier.Coordinate))
	}

	deliveries := drainN(t, ch, 3, time.Second)
	var order []string
	for _, d := range deliveries {
		order = append(order, d.Message.Payload)
	}
	require.Equal(t, []string{"1", "2", "3"}, order)
}

// Aging monotonicity: effective tier never decreases.
func TestRouter_AgingMonotonicity(t *testing.T) {
	cfg := Config{
		AgingThreshold:  20 * time.Millisecond,
		MaxAgingBoosts:  3,
		IdleBackoff:     5 * time.Millisecond,
		TokenCapacity:   1000,
		TokenRefillRate: 1000,
		InitialTokens:   1000,
	}
	r, ch := newTestRouter(t, cfg)
	require.NoError(t, r.Enqueue("s1", "recv", "m", tier.Info))

	deliveries := drainN(t, ch, 1, time.Second)
	require.GreaterOrEqual(t, int(deliveries[0].Effective), int(tier.Info))
	require.LessOrEqual(t, int(deliveries[0].Effective), int(tier.Critical))
}

// Enqueue fails only after Close.
func TestRouter_EnqueueFailsAfterClose(t *testing.T) {
	r := New(DefaultConfig(), nil, nil, nil)
	require.NoError(t, r.Enqueue("s1", "recv", "m", tier.Info))
	r.Close()
	err := r.Enqueue("s1", "recv", "m2", tier.Info)
	require.ErrorIs(t, err, ErrShuttingDown)
}
