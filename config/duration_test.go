// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseDuration_Suffixes(t *testing.T) {
	cases := map[string]time.Duration{
		"500ms": 500 * time.Millisecond,
		"5s":    5 * time.Second,
		"2m":    2 * time.Minute,
		"1h":    time.Hour,
		"10":    10 * time.Second, // no suffix defaults to seconds
	}
	for in, want := range cases {
		got, err := ParseDuration(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestDuration_YAMLRoundTrip(t *testing.T) {
	type holder struct {
		D Duration `yaml:"d"`
	}
	var h holder
	require.NoError(t, yaml.Unmarshal([]byte("d: 250ms\n"), &h))
	require.Equal(t, 250*time.Millisecond, h.D.Duration)

	out, err := yaml.Marshal(h)
	require.NoError(t, err)
	var back holder
	require.NoError(t, yaml.Unmarshal(out, &back))
	require.Equal(t, 250*time.Millisecond, back.D.Duration)
}

func TestDefault_FillsEverySection(t *testing.T) {
	c := Default()
	require.Positive(t, c.Router.TokenCapacity)
	require.Positive(t, c.Territory.EscalationQueueThreshold)
	require.NotEmpty(t, c.Ledger.CurrentEpoch)
	require.Positive(t, c.Health.MaxLatency.Duration)
}
