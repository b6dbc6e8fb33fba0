// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package forge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/forge/config"
	"github.com/luxfi/forge/territory"
	"github.com/luxfi/forge/tier"
)

func newTestCore(t *testing.T) *Core {
	t.Helper()
	cfg := config.Default()
	cfg.Ledger.RootPath = t.TempDir()
	cfg.Ledger.SegmentSizeBytes = 8 << 20
	cfg.Router.TokenCapacity = 1000
	cfg.Router.InitialTokens = 1000
	cfg.Router.TokenRefillRate = 1000

	c, err := New(cfg, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)
	t.Cleanup(func() {
		cancel()
		_ = c.Close(context.Background())
	})
	return c
}

// Scenario 1: priority ordering.
func TestCore_PriorityOrdering(t *testing.T) {
	c := newTestCore(t)
	ch, unsub := c.Router.Subscribe()
	defer unsub()

	require.NoError(t, c.RouteMessage("s", "recv", "I", tier.Info))
	require.NoError(t, c.RouteMessage("s", "recv", "C", tier.Coordinate))
	require.NoError(t, c.RouteMessage("s", "recv", "K", tier.Critical))

	var order []string
	for i := 0; i < 3; i++ {
		select {
		case d := <-ch:
			order = append(order, d.Message.Payload)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for delivery")
		}
	}
	require.Equal(t, []string{"K", "C", "I"}, order)
}

// Scenario 4: lease override with quorum.
func TestCore_LeaseOverrideWithQuorum(t *testing.T) {
	c := newTestCore(t)

	_, err := c.AcquireLease(territory.AcquireRequest{ResourceID: "R", AgentID: "A", Tier: tier.Coordinate, LeaseTTL: time.Hour})
	require.NoError(t, err)

	dec, err := c.AcquireLease(territory.AcquireRequest{ResourceID: "R", AgentID: "B", Tier: tier.Critical, LeaseTTL: time.Hour})
	require.NoError(t, err)
	require.Equal(t, territory.DecisionOverridden, dec.Kind)
	require.Equal(t, "B", dec.Lease.HolderID)

	status, err := c.LedgerStatus()
	require.NoError(t, err)
	require.True(t, status)
}

// Scenario 5: queue escalation.
func TestCore_QueueEscalation(t *testing.T) {
	cfg := config.Default()
	cfg.Ledger.RootPath = t.TempDir()
	cfg.Territory.EscalationQueueThreshold = 2
	cfg.Territory.AutoExtendThreshold = config.Duration{Duration: time.Millisecond}

	c, err := New(cfg, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })

	_, err = c.AcquireLease(territory.AcquireRequest{ResourceID: "R", AgentID: "P", Tier: tier.Coordinate, LeaseTTL: time.Hour})
	require.NoError(t, err)
	dec1, err := c.AcquireLease(territory.AcquireRequest{ResourceID: "R", AgentID: "W1", Tier: tier.Coordinate, LeaseTTL: time.Hour})
	require.NoError(t, err)
	require.Equal(t, territory.DecisionQueued, dec1.Kind)
	dec2, err := c.AcquireLease(territory.AcquireRequest{ResourceID: "R", AgentID: "W2", Tier: tier.Coordinate, LeaseTTL: time.Hour})
	require.NoError(t, err)
	require.Equal(t, territory.DecisionQueued, dec2.Kind)

	snap := c.GetSnapshot()
	require.GreaterOrEqual(t, snap.Escalations, int64(1))
}

// Scenario 6: ledger replay determinism.
func TestCore_LedgerReplayDeterminism(t *testing.T) {
	c := newTestCore(t)

	require.NoError(t, c.RouteMessage("s", "recv", "a", tier.Info))
	require.NoError(t, c.RouteMessage("s", "recv", "b", tier.Info))

	ch, unsub := c.Router.Subscribe()
	defer unsub()
	for i := 0; i < 2; i++ {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for dispatch")
		}
	}

	_, err := c.AcquireLease(territory.AcquireRequest{ResourceID: "room", AgentID: "A", Tier: tier.Info, LeaseTTL: time.Hour})
	require.NoError(t, err)

	require.NoError(t, c.Ledger.Flush())

	result, err := c.LedgerReplay("")
	require.NoError(t, err)
	require.EqualValues(t, 2, result.Router.TotalDispatched)
	require.Contains(t, result.Leases.Active, "room")

	ok, err := c.LedgerStatus()
	require.NoError(t, err)
	require.True(t, ok)
}
