// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package workerevents

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameScanner_SingleCompleteFrame(t *testing.T) {
	s := NewFrameScanner("agent-1")
	frames := s.Write([]byte(`<FORGE_EVENT name="progress">{"pct":50}</FORGE_EVENT>`))
	require.Len(t, frames, 1)
	require.Equal(t, "agent-1", frames[0].AgentID)
	require.Equal(t, "progress", frames[0].EventName)
	require.JSONEq(t, `{"pct":50}`, string(frames[0].Payload))
}

func TestFrameScanner_SplitAcrossWrites(t *testing.T) {
	s := NewFrameScanner("agent-1")
	require.Empty(t, s.Write([]byte(`<FORGE_EVENT name="pro`)))
	require.Empty(t, s.Write([]byte(`gress">{"pct":`)))
	frames := s.Write([]byte(`90}</FORGE_EVENT>`))
	require.Len(t, frames, 1)
	require.Equal(t, "progress", frames[0].EventName)
}

func TestFrameScanner_MultipleFramesOneWrite(t *testing.T) {
	s := NewFrameScanner("agent-1")
	frames := s.Write([]byte(
		`<FORGE_EVENT name="a">{}</FORGE_EVENT>junk<FORGE_EVENT name="b">{}</FORGE_EVENT>`,
	))
	require.Len(t, frames, 2)
	require.Equal(t, "a", frames[0].EventName)
	require.Equal(t, "b", frames[1].EventName)
}

func TestFrameScanner_NonFramedChatterTrimmed(t *testing.T) {
	s := NewFrameScanner("agent-1")
	s.Write([]byte("some unrelated worker chatter with no markers at all, repeated many times over"))
	require.LessOrEqual(t, s.buf.Len(), len(startMarkerPrefix))
}

func TestFrameScanner_RawPreservedVerbatim(t *testing.T) {
	s := NewFrameScanner("agent-1")
	raw := `<FORGE_EVENT name="x">not-json</FORGE_EVENT>`
	frames := s.Write([]byte(raw))
	require.Len(t, frames, 1)
	require.Equal(t, raw, frames[0].Raw)
	require.Nil(t, frames[0].Payload)
}
