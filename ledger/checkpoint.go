// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"github.com/luxfi/forge/metrics"
	"github.com/luxfi/forge/tier"
)

// RouterReplayState is the router-derived slice of replay state (§3).
type RouterReplayState struct {
	TotalDispatched int64             `json:"totalDispatched"`
	LastPriority    tier.Tier         `json:"lastPriority"`
	QueueDepths     [tier.Count]int64 `json:"queueDepths"`
}

// LeaseReplayState is the territory-derived slice of replay state (§3).
type LeaseReplayState struct {
	Active      map[string]LeaseSnapshot `json:"active"`
	Deferrals   int64                    `json:"deferrals"`
	Overrides   int64                    `json:"overrides"`
	Escalations int64                    `json:"escalations"`
}

// StateCheckpoint is a point-in-time snapshot of replay state that
// logically supersedes every prior event for replay-state
// reconstruction, without deleting them (§3).
type StateCheckpoint struct {
	CheckpointID      string             `json:"checkpointId"`
	CapturedAtMS      int64              `json:"capturedAtMs"`
	RouterReplayState RouterReplayState  `json:"routerReplayState"`
	LeaseReplayState  LeaseReplayState   `json:"leaseReplayState"`
	MetricsSnapshot   metrics.Snapshot   `json:"metricsSnapshot"`
}
