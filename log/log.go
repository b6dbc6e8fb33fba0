// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package log defines the structured logging interface shared by every
// forge component, and a no-op implementation used as the default.
package log

// Logger is a minimal structured logger. Key-value pairs are passed as
// alternating key, value arguments, matching the teacher convention in
// github.com/luxfi/log.
type Logger interface {
	Debug(msg string, kv ...interface{})
	Info(msg string, kv ...interface{})
	Warn(msg string, kv ...interface{})
	Error(msg string, kv ...interface{})

	// With returns a derived logger that always includes the given
	// key-value pairs.
	With(kv ...interface{}) Logger
}

// NoOp returns a Logger that discards everything.
func NoOp() Logger { return noop{} }

type noop struct{}

func (noop) Debug(string, ...interface{}) {}
func (noop) Info(string, ...interface{})  {}
func (noop) Warn(string, ...interface{})  {}
func (noop) Error(string, ...interface{}) {}
func (n noop) With(...interface{}) Logger { return n }
