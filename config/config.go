// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config defines the strongly-typed configuration schema of §6:
// a single YAML document covering the router, territory, ledger and
// health-KPI blocks. The loader itself is external (§1's non-goals);
// this package only defines and defaults the structs, the way the
// teacher's config package defines Parameters/DefaultParams without
// owning file I/O.
package config

import (
	"time"

	"github.com/luxfi/forge/ledger"
	"github.com/luxfi/forge/router"
	"github.com/luxfi/forge/territory"
)

// RouterConfig mirrors router.Config for YAML/JSON decoding.
type RouterConfig struct {
	AgingThreshold  Duration `json:"agingThreshold" yaml:"agingThreshold"`
	MaxAgingBoosts  int      `json:"maxAgingBoosts" yaml:"maxAgingBoosts"`
	IdleBackoff     Duration `json:"idleBackoff" yaml:"idleBackoff"`
	TokenCapacity   float64  `json:"tokenCapacity" yaml:"tokenCapacity"`
	TokenRefillRate float64  `json:"tokenRefillRate" yaml:"tokenRefillRate"`
	InitialTokens   float64  `json:"initialTokens" yaml:"initialTokens"`
}

// ToRouterConfig converts to router.Config.
func (c RouterConfig) ToRouterConfig() router.Config {
	return router.Config{
		AgingThreshold:  c.AgingThreshold.Duration,
		MaxAgingBoosts:  c.MaxAgingBoosts,
		IdleBackoff:     c.IdleBackoff.Duration,
		TokenCapacity:   c.TokenCapacity,
		TokenRefillRate: c.TokenRefillRate,
		InitialTokens:   c.InitialTokens,
	}
}

// TerritoryConfig mirrors territory.Config for YAML/JSON decoding.
type TerritoryConfig struct {
	AutoExtendThreshold         Duration `json:"autoExtendThreshold" yaml:"autoExtendThreshold"`
	EscalationQueueThreshold    int      `json:"escalationQueueThreshold" yaml:"escalationQueueThreshold"`
	FairnessStarvationThreshold Duration `json:"fairnessStarvationThreshold" yaml:"fairnessStarvationThreshold"`
	OverridePriorityDelta       int      `json:"overridePriorityDelta" yaml:"overridePriorityDelta"`
	HeatDecayPerSecond          float64  `json:"heatDecayPerSecond" yaml:"heatDecayPerSecond"`
	HeatIncrement               float64  `json:"heatIncrement" yaml:"heatIncrement"`
	HeatMax                     float64  `json:"heatMax" yaml:"heatMax"`
	SpatialCellSize             float64  `json:"spatialCellSize" yaml:"spatialCellSize"`
}

// ToTerritoryConfig converts to territory.Config.
func (c TerritoryConfig) ToTerritoryConfig() territory.Config {
	return territory.Config{
		AutoExtendThreshold:         c.AutoExtendThreshold.Duration,
		EscalationQueueThreshold:    c.EscalationQueueThreshold,
		FairnessStarvationThreshold: c.FairnessStarvationThreshold.Duration,
		OverridePriorityDelta:       c.OverridePriorityDelta,
		HeatDecayPerSecond:          c.HeatDecayPerSecond,
		HeatIncrement:               c.HeatIncrement,
		HeatMax:                     c.HeatMax,
		SpatialCellSize:             c.SpatialCellSize,
	}
}

// LedgerConfig mirrors ledger.Config for YAML/JSON decoding, per §6's
// ledger block (`root_path`, `segment_size_bytes`,
// `segment_duration_secs`, `checkpoint_interval_secs`, `retain_epochs`,
// `current_epoch`).
type LedgerConfig struct {
	RootPath               string `json:"rootPath" yaml:"rootPath"`
	SegmentSizeBytes       int64  `json:"segmentSizeBytes" yaml:"segmentSizeBytes"`
	SegmentDurationSecs    int64  `json:"segmentDurationSecs" yaml:"segmentDurationSecs"`
	CheckpointIntervalSecs int64  `json:"checkpointIntervalSecs" yaml:"checkpointIntervalSecs"`
	RetainEpochs           int    `json:"retainEpochs" yaml:"retainEpochs"`
	RetainDays             int    `json:"retainDays" yaml:"retainDays"`
	CurrentEpoch           string `json:"currentEpoch" yaml:"currentEpoch"`
}

// ToLedgerConfig converts to ledger.Config.
func (c LedgerConfig) ToLedgerConfig() ledger.Config {
	return ledger.Config{
		RootPath:               c.RootPath,
		SegmentSizeBytes:       c.SegmentSizeBytes,
		SegmentDurationSecs:    c.SegmentDurationSecs,
		CheckpointIntervalSecs: c.CheckpointIntervalSecs,
		RetainEpochs:           c.RetainEpochs,
		RetainDays:             c.RetainDays,
		CurrentEpoch:           c.CurrentEpoch,
	}
}

// HealthThresholds are consumed by the excluded health-KPI evaluator
// (§1's non-goals); forge only carries the schema through so the
// external collaborator's config lives in the same document.
type HealthThresholds struct {
	MaxErrorRate      float64  `json:"maxErrorRate" yaml:"maxErrorRate"`
	MaxLatency        Duration `json:"maxLatency" yaml:"maxLatency"`
	MinHeartbeatEvery Duration `json:"minHeartbeatEvery" yaml:"minHeartbeatEvery"`
}

// Config is the top-level document described by §6.
type Config struct {
	Router   RouterConfig     `json:"router" yaml:"router"`
	Territory TerritoryConfig `json:"territory" yaml:"territory"`
	Ledger   LedgerConfig     `json:"ledger" yaml:"ledger"`
	Health   HealthThresholds `json:"health" yaml:"health"`
}

// Default returns the full document with every section defaulted, per
// §6's "missing sections yield defaults".
func Default() Config {
	rc := router.DefaultConfig()
	tc := territory.DefaultConfig()
	lc := ledger.DefaultConfig()
	return Config{
		Router: RouterConfig{
			AgingThreshold:  Duration{rc.AgingThreshold},
			MaxAgingBoosts:  rc.MaxAgingBoosts,
			IdleBackoff:     Duration{rc.IdleBackoff},
			TokenCapacity:   rc.TokenCapacity,
			TokenRefillRate: rc.TokenRefillRate,
			InitialTokens:   rc.InitialTokens,
		},
		Territory: TerritoryConfig{
			AutoExtendThreshold:         Duration{tc.AutoExtendThreshold},
			EscalationQueueThreshold:    tc.EscalationQueueThreshold,
			FairnessStarvationThreshold: Duration{tc.FairnessStarvationThreshold},
			OverridePriorityDelta:       tc.OverridePriorityDelta,
			HeatDecayPerSecond:          tc.HeatDecayPerSecond,
			HeatIncrement:               tc.HeatIncrement,
			HeatMax:                     tc.HeatMax,
			SpatialCellSize:             tc.SpatialCellSize,
		},
		Ledger: LedgerConfig{
			RootPath:               lc.RootPath,
			SegmentSizeBytes:       lc.SegmentSizeBytes,
			SegmentDurationSecs:    lc.SegmentDurationSecs,
			CheckpointIntervalSecs: lc.CheckpointIntervalSecs,
			RetainEpochs:           lc.RetainEpochs,
			RetainDays:             lc.RetainDays,
			CurrentEpoch:           lc.CurrentEpoch,
		},
		Health: HealthThresholds{
			MaxErrorRate:      0.05,
			MaxLatency:        Duration{2 * time.Second},
			MinHeartbeatEvery: Duration{30 * time.Second},
		},
	}
}
