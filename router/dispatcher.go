// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package router implements the five-tier priority message router
// described in §4.1: a single-writer dispatcher merging priority tiers
// with fairness-through-aging and per-sender token-bucket rate
// limiting.
package router

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/luxfi/forge/internal/broadcast"
	"github.com/luxfi/forge/ledger"
	"github.com/luxfi/forge/log"
	"github.com/luxfi/forge/metrics"
	"github.com/luxfi/forge/tier"
)

// deliveryCapacity is the bounded broadcast channel capacity for
// router deliveries, per §5.
const deliveryCapacity = 256

// EventSink is the subset of *ledger.Ledger the router needs, so tests
// can supply a fake without touching disk.
type EventSink interface {
	Append(evt ledger.Event, meta ledger.Metadata) (ledger.Envelope, error)
}

// Router is the single-writer priority dispatcher of §4.1. Callers
// only ever interact with it through Enqueue and Subscribe; the
// dispatch loop is the sole consumer of the tier queues.
type Router struct {
	cfg     Config
	metrics *metrics.Registry
	sink    EventSink
	log     log.Logger

	queues  [tier.Count]*tierQueue
	bktMu   sync.Mutex
	buckets map[string]*tokenBucket

	hub  *broadcast.Hub[Delivery]
	wake chan struct{}

	shuttingDown atomic.Bool
	done         chan struct{}
	closeOnce    sync.Once
}

// New constructs a Router. sink and reg may both be nil (used by unit
// tests exercising only the queueing/aging/rate-limit logic).
func New(cfg Config, reg *metrics.Registry, sink EventSink, logger log.Logger) *Router {
	cfg = cfg.normalized()
	if logger == nil {
		logger = log.NoOp()
	}
	r := &Router{
		cfg:     cfg,
		metrics: reg,
		sink:    sink,
		log:     logger,
		buckets: make(map[string]*tokenBucket),
		hub:     broadcast.NewHub[Delivery](deliveryCapacity),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	for i := range r.queues {
		r.queues[i] = &tierQueue{}
	}
	return r
}

// Enqueue submits msg for dispatch. It is O(1), non-blocking, and
// fails only once shutdown has begun (§4.1, §7). EffectiveTier starts
// equal to DeclaredTier; only an explicit DirectorOverride enqueue may
// start at tier 4, enforced here since aging never introduces it.
func (r *Router) Enqueue(senderID, recipientID, payload string, declared tier.Tier) error {
	if r.shuttingDown.Load() {
		return ErrShuttingDown
	}
	now := time.Now()
	m := &Message{
		Payload:       payload,
		SenderID:      senderID,
		RecipientID:   recipientID,
		DeclaredTier:  declared,
		EffectiveTier: declared,
		EnqueuedAt:    now,
	}
	r.queues[declared].push(m)
	r.notifyWake()
	return nil
}

func (r *Router) notifyWake() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Router) bucketFor(senderID string, now time.Time) *tokenBucket {
	r.bktMu.Lock()
	defer r.bktMu.Unlock()
	b, ok := r.buckets[senderID]
	if !ok {
		b = newTokenBucket(r.cfg.TokenCapacity, r.cfg.TokenRefillRate, r.cfg.InitialTokens, now)
		r.buckets[senderID] = b
	}
	return b
}

// Subscribe returns a channel of deliveries and an unsubscribe
// function.
func (r *Router) Subscribe() (<-chan Delivery, func()) {
	return r.hub.Subscribe()
}

// Run drives the dispatcher loop until ctx is done or Close is called.
// It is meant to be run in its own goroutine.
func (r *Router) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		default:
		}

		now := time.Now()
		r.ageSweep(now)

		if r.dispatchOnce(now) {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case <-r.wake:
		case <-time.After(r.cfg.IdleBackoff):
		}
	}
}

// Close begins shutdown: Enqueue starts failing and Run returns.
func (r *Router) Close() {
	r.closeOnce.Do(func() {
		r.shuttingDown.Store(true)
		close(r.done)
	})
}

// ageSweep scans tiers 0..3 (never the top tier) and promotes any
// entry that has aged past the threshold and has boosts remaining,
// per §4.1.
func (r *Router) ageSweep(now time.Time) {
	for t := tier.Info; t < tier.DirectorOverride; t++ {
		q := r.queues[t]
		promoted := q.extractMatching(func(m *Message) bool {
			return now.Sub(m.EnqueuedAt) >= r.cfg.AgingThreshold && m.AgingBoosts < r.cfg.MaxAgingBoosts
		})
		for _, m := range promoted {
			m.EffectiveTier = (m.EffectiveTier + 1).Clamp()
			m.AgingBoosts++
			r.queues[m.EffectiveTier].push(m)
		}
	}
}

// dispatchOnce attempts to deliver exactly one message, trying
// candidates in strict descending tier order. It returns true iff a
// message was delivered.
func (r *Router) dispatchOnce(now time.Time) bool {
	for t := tier.DirectorOverride; t >= tier.Info; t-- {
		q := r.queues[t]
		n := q.len()
		for i := 0; i < n; i++ {
			m := q.popFront()
			if m == nil {
				break
			}
			if r.tryDispatch(m, now) {
				return true
			}
			// Rate-limited: requeue at the tail of the same tier and
			// try the next candidate, per §4.1.
			q.push(m)
		}
	}
	return false
}

// tryDispatch attempts to consume the token cost for m and, on
// success, delivers it; on failure it records the rate-limit hit and
// returns false, leaving requeueing to the caller.
func (r *Router) tryDispatch(m *Message, now time.Time) bool {
	cost := m.EffectiveTier.TokenCost()
	bucket := r.bucketFor(m.SenderID, now)

	if !bucket.tryConsume(cost, now) {
		m.Attempts++
		m.LastAttemptAt = now
		bucket.recordHit()
		if r.metrics != nil {
			r.metrics.IncRateLimited()
		}
		r.publishSenderStats(m.SenderID, now)
		if r.sink != nil {
			_, err := r.sink.Append(ledger.RouterRateLimitedEvent{
				SenderID:      m.SenderID,
				EffectiveTier: m.EffectiveTier,
				TokensLeft:    r.currentTokens(m.SenderID, now),
				Cost:          cost,
			}, ledger.Metadata{AgentID: m.SenderID})
			if err != nil && r.metrics != nil {
				r.metrics.IncAppendFailures()
			}
		}
		return false
	}

	m.Attempts++
	m.LastAttemptAt = now
	wait := now.Sub(m.EnqueuedAt)

	delivery := Delivery{
		Message:     *m,
		Effective:   m.EffectiveTier,
		WaitTime:    wait,
		QueueDepths: r.queueDepths(),
		AgingBoosts: m.AgingBoosts,
		Attempts:    m.Attempts,
	}

	if r.metrics != nil {
		r.metrics.ObserveRoutingLatency(wait)
		r.metrics.SetQueueDepths(delivery.QueueDepths)
		r.metrics.SetLastDispatched(m.EffectiveTier, now)
	}
	r.publishSenderStats(m.SenderID, now)

	if r.sink != nil {
		_, err := r.sink.Append(ledger.RouterDispatchedEvent{
			SenderID:      m.SenderID,
			RecipientID:   m.RecipientID,
			DeclaredTier:  m.DeclaredTier,
			EffectiveTier: m.EffectiveTier,
			WaitMS:        wait.Milliseconds(),
			AgingBoosts:   m.AgingBoosts,
			Attempts:      m.Attempts,
			QueueDepths:   delivery.QueueDepths,
		}, ledger.Metadata{AgentID: m.SenderID})
		if err != nil && r.metrics != nil {
			r.metrics.IncAppendFailures()
		}
	}

	r.hub.Publish(delivery)
	return true
}

func (r *Router) currentTokens(senderID string, now time.Time) float64 {
	tokens, _, _, _, _ := r.bucketFor(senderID, now).snapshot(now)
	return tokens
}

func (r *Router) publishSenderStats(senderID string, now time.Time) {
	if r.metrics == nil {
		return
	}
	b := r.bucketFor(senderID, now)
	tokens, capacity, refill, lastRefill, hits := b.snapshot(now)
	r.metrics.SetSenderStats(senderID, metrics.SenderStats{
		TokensRemaining: tokens,
		Capacity:        capacity,
		RefillRate:      refill,
		LastRefill:      lastRefill,
		Hits:            hits,
	})
}

func (r *Router) queueDepths() [tier.Count]int64 {
	var d [tier.Count]int64
	for i, q := range r.queues {
		d[i] = int64(q.len())
	}
	return d
}
