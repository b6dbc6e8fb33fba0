// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import "encoding/json"

// Metadata carries the optional contextual fields attached to an
// envelope (§3). All fields are omitted from the wire format when
// empty, since §6 requires readers to tolerate unknown/missing fields.
type Metadata struct {
	TraceID     string    `json:"traceId,omitempty"`
	AgentID     string    `json:"agentId,omitempty"`
	TerritoryID string    `json:"territoryId,omitempty"`
	Priority    *int      `json:"priority,omitempty"`
}

// Envelope is the on-disk, on-wire representation of one ledger entry
// (§3, §6). Field order here is exactly the order serialized to JSON,
// which matters: §6 requires a deterministic serialization preserving
// field order as authored, because the hash chain is computed over
// exactly these bytes.
type Envelope struct {
	EpochID       string          `json:"epochId"`
	Sequence      uint64          `json:"sequence"`
	LogicalClock  LogicalClock    `json:"logicalClock"`
	Metadata      Metadata        `json:"metadata"`
	EventKind     EventKind       `json:"eventKind"`
	Event         json.RawMessage `json:"event"`
	PayloadDigest string          `json:"payloadDigest"`
	HashChain     string          `json:"hashChain"`
}

// withoutHashChain returns the bytes hashed to produce HashChain: the
// envelope serialized with HashChain omitted, per §3's
// `hash_chain[i] = H(hash_chain[i-1] ‖ envelope_without_hash_chain)`.
func (e Envelope) withoutHashChain() ([]byte, error) {
	type wire struct {
		EpochID       string          `json:"epochId"`
		Sequence      uint64          `json:"sequence"`
		LogicalClock  LogicalClock    `json:"logicalClock"`
		Metadata      Metadata        `json:"metadata"`
		EventKind     EventKind       `json:"eventKind"`
		Event         json.RawMessage `json:"event"`
		PayloadDigest string          `json:"payloadDigest"`
	}
	return json.Marshal(wire{
		EpochID:       e.EpochID,
		Sequence:      e.Sequence,
		LogicalClock:  e.LogicalClock,
		Metadata:      e.Metadata,
		EventKind:     e.EventKind,
		Event:         e.Event,
		PayloadDigest: e.PayloadDigest,
	})
}
