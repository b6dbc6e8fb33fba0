// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package territory implements the lease registry of §4.4: exclusive,
// named-resource leases with queueing, deferral, priority override,
// escalation and a heat map, grounded on the teacher's
// validators.manager mutex-guarded state table.
package territory

import "time"

// Config enumerates every overridable territory knob named in §4.4.
type Config struct {
	AutoExtendThreshold      time.Duration `json:"autoExtendThreshold" yaml:"autoExtendThreshold"`
	EscalationQueueThreshold int           `json:"escalationQueueThreshold" yaml:"escalationQueueThreshold"`
	FairnessStarvationThreshold time.Duration `json:"fairnessStarvationThreshold" yaml:"fairnessStarvationThreshold"`
	OverridePriorityDelta    int           `json:"overridePriorityDelta" yaml:"overridePriorityDelta"`

	// Heat map.
	HeatDecayPerSecond float64 `json:"heatDecayPerSecond" yaml:"heatDecayPerSecond"`
	HeatIncrement      float64 `json:"heatIncrement" yaml:"heatIncrement"`
	HeatMax            float64 `json:"heatMax" yaml:"heatMax"`

	// Spatial index; SpatialCellSize <= 0 disables it (§4.4's "optional
	// feature").
	SpatialCellSize float64 `json:"spatialCellSize" yaml:"spatialCellSize"`
}

// DefaultConfig returns the territory manager's default tuning.
func DefaultConfig() Config {
	return Config{
		AutoExtendThreshold:         500 * time.Millisecond,
		EscalationQueueThreshold:    5,
		FairnessStarvationThreshold: 10 * time.Second,
		OverridePriorityDelta:       1,
		HeatDecayPerSecond:          0.1,
		HeatIncrement:               1.0,
		HeatMax:                     100.0,
		SpatialCellSize:             0,
	}
}
