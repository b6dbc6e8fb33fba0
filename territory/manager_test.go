// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package territory

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/forge/consensus"
	"github.com/luxfi/forge/ledger"
	"github.com/luxfi/forge/metrics"
	"github.com/luxfi/forge/tier"
)

type fakeSink struct {
	mu     sync.Mutex
	events []ledger.Event
}

func (f *fakeSink) Append(evt ledger.Event, _ ledger.Metadata) (ledger.Envelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return ledger.Envelope{}, nil
}

func (f *fakeSink) kinds() []ledger.EventKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ledger.EventKind, len(f.events))
	for i, e := range f.events {
		out[i] = e.Kind()
	}
	return out
}

// Scenario 4: lease override with quorum.
func TestManager_OverrideWithQuorum(t *testing.T) {
	sink := &fakeSink{}
	reg := metrics.NewRegistry(nil)
	broker := consensus.New(sink, reg, nil)
	cfg := DefaultConfig()
	cfg.AutoExtendThreshold = 0 // holder's lease is fresh, never near expiry
	m := New(cfg, reg, sink, broker, nil)

	_, err := m.Acquire(AcquireRequest{ResourceID: "R", AgentID: "A", Tier: tier.Coordinate, LeaseTTL: time.Minute})
	require.NoError(t, err)

	dec, err := m.Acquire(AcquireRequest{ResourceID: "R", AgentID: "B", Tier: tier.Critical, LeaseTTL: time.Minute})
	require.NoError(t, err)

	require.Equal(t, DecisionOverridden, dec.Kind)
	require.Equal(t, "A", dec.Previous.HolderID)
	require.Equal(t, "B", dec.Lease.HolderID)

	var sawOverride bool
	for _, k := range sink.kinds() {
		if k == ledger.KindLeaseOverridden {
			sawOverride = true
		}
	}
	require.True(t, sawOverride)
}

// Scenario 5: queue escalation.
func TestManager_QueueEscalation(t *testing.T) {
	sink := &fakeSink{}
	reg := metrics.NewRegistry(nil)
	cfg := DefaultConfig()
	cfg.EscalationQueueThreshold = 2
	cfg.AutoExtendThreshold = time.Millisecond
	m := New(cfg, reg, sink, nil, nil)

	_, err := m.Acquire(AcquireRequest{ResourceID: "R", AgentID: "P", Tier: tier.Coordinate, LeaseTTL: time.Hour})
	require.NoError(t, err)

	dec1, err := m.Acquire(AcquireRequest{ResourceID: "R", AgentID: "W1", Tier: tier.Coordinate, LeaseTTL: time.Hour})
	require.NoError(t, err)
	require.Equal(t, DecisionQueued, dec1.Kind)

	dec2, err := m.Acquire(AcquireRequest{ResourceID: "R", AgentID: "W2", Tier: tier.Coordinate, LeaseTTL: time.Hour})
	require.NoError(t, err)
	require.Equal(t, DecisionQueued, dec2.Kind)

	var sawEscalation bool
	for _, k := range sink.kinds() {
		if k == ledger.KindLeaseEscalated {
			sawEscalation = true
		}
	}
	require.True(t, sawEscalation)
	require.GreaterOrEqual(t, reg.Snapshot().Escalations, int64(1))
}

func TestManager_ReleasePromotesQueuedEntry(t *testing.T) {
	m := New(DefaultConfig(), nil, nil, nil, nil)

	_, err := m.Acquire(AcquireRequest{ResourceID: "R", AgentID: "A", Tier: tier.Coordinate, LeaseTTL: time.Hour})
	require.NoError(t, err)
	_, err = m.Acquire(AcquireRequest{ResourceID: "R", AgentID: "B", Tier: tier.Coordinate, LeaseTTL: time.Hour})
	require.NoError(t, err)

	require.NoError(t, m.Release("R", "A"))

	lease, ok := m.leases["R"]
	require.True(t, ok)
	require.Equal(t, "B", lease.HolderID)
}

func TestManager_TransferRejectsWrongHolder(t *testing.T) {
	m := New(DefaultConfig(), nil, nil, nil, nil)
	_, err := m.Acquire(AcquireRequest{ResourceID: "R", AgentID: "A", Tier: tier.Info, LeaseTTL: time.Hour})
	require.NoError(t, err)

	err = m.Transfer("R", "nobody", "C", "", time.Hour)
	require.ErrorIs(t, err, ErrNotHolder)

	require.NoError(t, m.Transfer("R", "A", "C", "", time.Hour))
	require.Equal(t, "C", m.leases["R"].HolderID)
}

func TestHeatMap_DecayAndPrune(t *testing.T) {
	h := newHeatMap(1.0, 10, 100)
	start := time.Now()
	h.bump("R", start)

	later := start.Add(10 * time.Second)
	s := h.summary(later)
	require.Equal(t, 0, s.TrackedCells) // fully decayed and pruned
}

func TestQueueOrdering_DescendingTierAscendingTime(t *testing.T) {
	m := New(DefaultConfig(), nil, nil, nil, nil)
	_, err := m.Acquire(AcquireRequest{ResourceID: "R", AgentID: "holder", Tier: tier.Critical, LeaseTTL: time.Hour})
	require.NoError(t, err)

	_, err = m.Acquire(AcquireRequest{ResourceID: "R", AgentID: "low", Tier: tier.Info, LeaseTTL: time.Hour})
	require.NoError(t, err)
	_, err = m.Acquire(AcquireRequest{ResourceID: "R", AgentID: "high", Tier: tier.Blocking, LeaseTTL: time.Hour})
	require.NoError(t, err)

	q := m.queues["R"]
	require.Len(t, q, 2)
	require.Equal(t, "high", q[0].AgentID)
	require.Equal(t, "low", q[1].AgentID)
}
