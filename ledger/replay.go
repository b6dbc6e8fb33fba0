// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"encoding/json"

	"github.com/luxfi/forge/metrics"
)

// ReplayResult is what the deterministic replay coordinator produces
// from a byte-identical envelope stream (§4.2, §8's round-trip law).
type ReplayResult struct {
	Router       RouterReplayState
	Leases       LeaseReplayState
	Metrics      metrics.Snapshot
	Checkpoints  []StateCheckpoint
	LastSequence uint64
	TailHash     string
}

// Replay consumes envs in order and folds each event into replay
// state, per §4.2: router dispatch events advance total_dispatched and
// update last_priority/queue_depths; lease events mutate the active
// map and counters; consensus/health/pty events are recorded but
// otherwise ignored; a checkpoint event replaces the replay state
// wholesale with its embedded snapshot.
func Replay(envs []Envelope) (ReplayResult, error) {
	result := ReplayResult{
		Leases: LeaseReplayState{Active: make(map[string]LeaseSnapshot)},
	}

	for _, env := range envs {
		if err := applyEnvelope(&result, env); err != nil {
			return result, err
		}
		result.LastSequence = env.Sequence
		result.TailHash = env.HashChain
	}
	return result, nil
}

// ReplayEpoch is a convenience wrapper reading and replaying a whole
// epoch directory.
func ReplayEpoch(root, epochID string) (ReplayResult, error) {
	envs, err := readEpoch(root, epochID)
	if err != nil {
		return ReplayResult{}, err
	}
	return Replay(envs)
}

func applyEnvelope(result *ReplayResult, env Envelope) error {
	switch env.EventKind {
	case KindRouterDispatched:
		var e RouterDispatchedEvent
		if err := json.Unmarshal(env.Event, &e); err != nil {
			return err
		}
		result.Router.TotalDispatched++
		result.Router.LastPriority = e.EffectiveTier
		result.Router.QueueDepths = e.QueueDepths

	case KindRouterRateLimited:
		// Recorded on the ledger but does not mutate replay state.

	case KindLeaseGranted:
		var e LeaseGrantedEvent
		if err := json.Unmarshal(env.Event, &e); err != nil {
			return err
		}
		result.Leases.Active[e.Lease.ResourceID] = e.Lease

	case KindLeaseReleased:
		var e LeaseReleasedEvent
		if err := json.Unmarshal(env.Event, &e); err != nil {
			return err
		}
		delete(result.Leases.Active, e.ResourceID)

	case KindLeaseDeferred:
		result.Leases.Deferrals++

	case KindLeaseEscalated:
		result.Leases.Escalations++

	case KindLeaseOverridden:
		var e LeaseOverriddenEvent
		if err := json.Unmarshal(env.Event, &e); err != nil {
			return err
		}
		result.Leases.Overrides++
		result.Leases.Active[e.Lease.ResourceID] = e.Lease

	case KindConsensusProposal, KindConsensusVote, KindConsensusCommit, KindHealth, KindPty:
		// Recorded but does not affect replay state (§4.2).

	case KindCheckpoint:
		var e CheckpointEvent
		if err := json.Unmarshal(env.Event, &e); err != nil {
			return err
		}
		result.Checkpoints = append(result.Checkpoints, e.Checkpoint)
		result.Router = e.Checkpoint.RouterReplayState
		result.Leases = cloneLeaseState(e.Checkpoint.LeaseReplayState)
		result.Metrics = e.Checkpoint.MetricsSnapshot
	}
	return nil
}

func cloneLeaseState(s LeaseReplayState) LeaseReplayState {
	active := make(map[string]LeaseSnapshot, len(s.Active))
	for k, v := range s.Active {
		active[k] = v
	}
	return LeaseReplayState{
		Active:      active,
		Deferrals:   s.Deferrals,
		Overrides:   s.Overrides,
		Escalations: s.Escalations,
	}
}
