// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration decodes the duration strings of §6: a bare number with an
// optional `ms|s|m|h` suffix, defaulting to seconds when no suffix is
// present.
type Duration struct {
	time.Duration
}

// ParseDuration implements §6's suffix rule directly, for callers that
// don't go through YAML/JSON unmarshaling.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("config: empty duration")
	}

	unit := time.Second
	numeric := s
	switch {
	case strings.HasSuffix(s, "ms"):
		unit = time.Millisecond
		numeric = strings.TrimSuffix(s, "ms")
	case strings.HasSuffix(s, "s"):
		unit = time.Second
		numeric = strings.TrimSuffix(s, "s")
	case strings.HasSuffix(s, "m"):
		unit = time.Minute
		numeric = strings.TrimSuffix(s, "m")
	case strings.HasSuffix(s, "h"):
		unit = time.Hour
		numeric = strings.TrimSuffix(s, "h")
	}

	value, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return 0, fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	return time.Duration(value * float64(unit)), nil
}

// UnmarshalYAML accepts either a bare number (seconds) or a
// suffixed string.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	dur, err := durationFromAny(raw)
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

// MarshalYAML renders the duration using its natural string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// UnmarshalJSON mirrors UnmarshalYAML for the JSON encoding used
// alongside YAML in struct tags.
func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	dur, err := durationFromAny(s)
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

// MarshalJSON renders the duration as a quoted suffixed string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Duration.String() + `"`), nil
}

func durationFromAny(raw interface{}) (time.Duration, error) {
	switch v := raw.(type) {
	case string:
		return ParseDuration(v)
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("config: unsupported duration value %v (%T)", raw, raw)
	}
}
