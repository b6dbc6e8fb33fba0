// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/forge/tier"
)

func TestRegistry_RunningAverage(t *testing.T) {
	r := NewRegistry(nil)

	r.ObserveRoutingLatency(10 * time.Millisecond)
	r.ObserveRoutingLatency(20 * time.Millisecond)
	r.ObserveRoutingLatency(30 * time.Millisecond)

	snap := r.Snapshot()
	require.InDelta(t, 20.0, snap.MessageRoutingLatencyMs, 0.001)
	require.Equal(t, int64(3), snap.TotalMessagesRouted)
}

func TestRegistry_QueueDepthsAndDispatch(t *testing.T) {
	r := NewRegistry(nil)

	depths := [tier.Count]int64{1, 2, 3, 4, 5}
	r.SetQueueDepths(depths)
	r.SetLastDispatched(tier.Critical, time.Unix(100, 0))

	snap := r.Snapshot()
	require.Equal(t, depths, snap.QueueDepths)
	require.Equal(t, "critical", snap.LastDispatchedTier)
}

func TestRegistry_LeaseInventory(t *testing.T) {
	r := NewRegistry(nil)

	r.SetLeaseInventory(2, map[string]int64{"room-a": 1, "room-b": 3}, []uint64{1, 2})
	r.IncDeferrals()
	r.IncOverrides()
	r.IncOverrides()
	r.IncEscalations()

	snap := r.Snapshot()
	require.EqualValues(t, 2, snap.ActiveLeases)
	require.EqualValues(t, 4, snap.TotalPending)
	require.EqualValues(t, 1, snap.Deferrals)
	require.EqualValues(t, 2, snap.Overrides)
	require.EqualValues(t, 1, snap.Escalations)
	require.ElementsMatch(t, []uint64{1, 2}, snap.OutstandingLeaseIDs)
}

func TestRegistry_Consensus(t *testing.T) {
	r := NewRegistry(nil)

	r.RecordConsensus("room-a", "override", 0.6, true)
	r.RecordConsensus("room-b", "override", 0.6, false)

	snap := r.Snapshot()
	require.Equal(t, int64(1), snap.ConsensusSuccess)
	require.Equal(t, int64(1), snap.ConsensusFailure)
	require.InDelta(t, 0.5, snap.ConsensusSuccessRatio, 0.001)
	require.Equal(t, "room-b", snap.LastConsensusResource)
}

func TestRegistry_Reset(t *testing.T) {
	r := NewRegistry(nil)
	r.ObserveRoutingLatency(5 * time.Millisecond)
	r.IncDeferrals()
	r.RecordConsensus("x", "override", 0.5, true)

	r.Reset()

	snap := r.Snapshot()
	require.Zero(t, snap.MessageRoutingLatencyMs)
	require.Zero(t, snap.Deferrals)
	require.Zero(t, snap.ConsensusSuccess)
}
