// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import "time"

// Config enumerates every overridable router knob named in §4.1.
type Config struct {
	AgingThreshold  time.Duration `json:"agingThreshold" yaml:"agingThreshold"`
	MaxAgingBoosts  int           `json:"maxAgingBoosts" yaml:"maxAgingBoosts"`
	IdleBackoff     time.Duration `json:"idleBackoff" yaml:"idleBackoff"`
	TokenCapacity   float64       `json:"tokenCapacity" yaml:"tokenCapacity"`
	TokenRefillRate float64       `json:"tokenRefillRate" yaml:"tokenRefillRate"`
	InitialTokens   float64       `json:"initialTokens" yaml:"initialTokens"`
}

// DefaultConfig returns the router's default tuning.
func DefaultConfig() Config {
	return Config{
		AgingThreshold:  2 * time.Second,
		MaxAgingBoosts:  3,
		IdleBackoff:     25 * time.Millisecond,
		TokenCapacity:   50,
		TokenRefillRate: 25,
		InitialTokens:   50,
	}
}

// normalized clamps MaxAgingBoosts into [0,255] and InitialTokens to
// at most TokenCapacity, per §4.1's invariant.
func (c Config) normalized() Config {
	if c.MaxAgingBoosts < 0 {
		c.MaxAgingBoosts = 0
	}
	if c.MaxAgingBoosts > 255 {
		c.MaxAgingBoosts = 255
	}
	if c.InitialTokens > c.TokenCapacity {
		c.InitialTokens = c.TokenCapacity
	}
	return c
}
