// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/forge/metrics"
	"github.com/luxfi/forge/tier"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RootPath = t.TempDir()
	cfg.SegmentSizeBytes = 1 << 20
	cfg.SegmentDurationSecs = 3600
	cfg.CurrentEpoch = "epoch-test"

	l, err := Open(cfg, metrics.NewRegistry(nil), nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestAppend_SequenceMonotonic(t *testing.T) {
	l := newTestLedger(t)

	for i := 0; i < 5; i++ {
		env, err := l.Append(RouterDispatchedEvent{SenderID: "a"}, Metadata{})
		require.NoError(t, err)
		require.EqualValues(t, i+1, env.Sequence)
	}
}

func TestAppend_HashChainVerifies(t *testing.T) {
	l := newTestLedger(t)

	for i := 0; i < 10; i++ {
		_, err := l.Append(RouterDispatchedEvent{SenderID: "a", EffectiveTier: tier.Info}, Metadata{})
		require.NoError(t, err)
	}

	ok, err := l.VerifyEpoch("epoch-test")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyEpoch_DetectsTamper(t *testing.T) {
	l := newTestLedger(t)
	for i := 0; i < 3; i++ {
		_, err := l.Append(RouterDispatchedEvent{SenderID: "a"}, Metadata{})
		require.NoError(t, err)
	}

	envs, err := l.ReadEpoch("epoch-test")
	require.NoError(t, err)
	envs[1].HashChain = "tampered"

	ok, _ := verifyEnvelopes(envs)
	require.False(t, ok)
}

func TestHybridClock_MonotonicUnderStalledWallTime(t *testing.T) {
	var c hybridClock
	fixed := time.Unix(1000, 0)

	a := c.tick(fixed)
	b := c.tick(fixed)
	cc := c.tick(fixed)

	require.Equal(t, a.WallMS, b.WallMS)
	require.Less(t, a.Counter, b.Counter)
	require.Less(t, b.Counter, cc.Counter)
}

func TestHybridClock_MonotonicUnderRewind(t *testing.T) {
	var c hybridClock
	later := time.Unix(2000, 0)
	earlier := time.Unix(1000, 0)

	a := c.tick(later)
	b := c.tick(earlier)

	require.Equal(t, a.WallMS, b.WallMS)
	require.Greater(t, b.Counter, a.Counter)
}

func TestReplay_Determinism(t *testing.T) {
	l := newTestLedger(t)

	for i := 0; i < 4; i++ {
		_, err := l.Append(RouterDispatchedEvent{SenderID: "a", EffectiveTier: tier.Critical}, Metadata{})
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := l.Append(LeaseGrantedEvent{Lease: LeaseSnapshot{
			LeaseID: uint64(i + 1), ResourceID: "room", HolderID: "agent-a",
		}}, Metadata{})
		require.NoError(t, err)
	}

	envs, err := l.ReadEpoch("epoch-test")
	require.NoError(t, err)

	r1, err := Replay(envs)
	require.NoError(t, err)
	r2, err := Replay(envs)
	require.NoError(t, err)

	require.Equal(t, r1, r2)
	require.EqualValues(t, 4, r1.Router.TotalDispatched)
	require.Len(t, r1.Leases.Active, 1)
	require.EqualValues(t, 6, r1.LastSequence)
}

func TestReplay_CheckpointSupersedes(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Append(RouterDispatchedEvent{SenderID: "a"}, Metadata{})
	require.NoError(t, err)

	cp := StateCheckpoint{
		CheckpointID: "cp-1",
		RouterReplayState: RouterReplayState{TotalDispatched: 999},
		LeaseReplayState:  LeaseReplayState{Active: map[string]LeaseSnapshot{"room": {ResourceID: "room"}}},
	}
	_, err = l.RecordCheckpoint(cp)
	require.NoError(t, err)

	_, err = l.Append(RouterDispatchedEvent{SenderID: "a"}, Metadata{})
	require.NoError(t, err)

	envs, err := l.ReadEpoch("epoch-test")
	require.NoError(t, err)
	result, err := Replay(envs)
	require.NoError(t, err)

	// Checkpoint resets total_dispatched to 999, then one more dispatch.
	require.EqualValues(t, 1000, result.Router.TotalDispatched)
	require.Contains(t, result.Leases.Active, "room")
}

func TestSegmentRotation_BySize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RootPath = t.TempDir()
	cfg.SegmentSizeBytes = 1 // rotate after the very first line
	cfg.SegmentDurationSecs = 3600
	cfg.CurrentEpoch = "epoch-rot"

	l, err := Open(cfg, metrics.NewRegistry(nil), nil, nil)
	require.NoError(t, err)
	defer l.Close()

	for i := 0; i < 3; i++ {
		_, err := l.Append(RouterDispatchedEvent{SenderID: "a"}, Metadata{})
		require.NoError(t, err)
	}

	names, err := listSegments(cfg.RootPath, "epoch-rot")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(names), 2)

	envs, err := l.ReadEpoch("epoch-rot")
	require.NoError(t, err)
	require.Len(t, envs, 3)
	for i, e := range envs {
		require.EqualValues(t, i+1, e.Sequence)
	}
}
