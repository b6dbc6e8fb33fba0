// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package log

import "log/slog"

// FromSlog adapts a *slog.Logger to the Logger interface.
func FromSlog(l *slog.Logger) Logger {
	return slogLogger{l: l}
}

type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) Debug(msg string, kv ...interface{}) { s.l.Debug(msg, kv...) }
func (s slogLogger) Info(msg string, kv ...interface{})  { s.l.Info(msg, kv...) }
func (s slogLogger) Warn(msg string, kv ...interface{})  { s.l.Warn(msg, kv...) }
func (s slogLogger) Error(msg string, kv ...interface{}) { s.l.Error(msg, kv...) }

func (s slogLogger) With(kv ...interface{}) Logger {
	return slogLogger{l: s.l.With(kv...)}
}
