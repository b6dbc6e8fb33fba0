// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package territory

import (
	"time"

	"github.com/luxfi/forge/tier"
)

// NegotiationState is a lease's negotiation phase. Negotiating is
// reachable only through an explicit external call (no internal state
// transition produces it); see DESIGN.md's Open Question decisions.
type NegotiationState int

const (
	NegotiationNone NegotiationState = iota
	NegotiationNegotiating
	NegotiationSettled
)

// Point is an optional 2D coordinate carried by a lease or request.
type Point struct {
	X, Y float64
}

// Lease is the live, in-memory record for a held resource (§3). Unlike
// ledger.LeaseSnapshot, this carries every mutable field the manager
// tracks between transitions.
type Lease struct {
	LeaseID         uint64
	ResourceID      string
	HolderID        string
	HolderRole      string
	Tier            tier.Tier
	GrantedAt       time.Time
	ExpiresAt       time.Time
	LastHeartbeatAt time.Time
	Progress        float64
	Negotiation     NegotiationState
	Conflicts       int
	Defers          int
	Overrides       int
	EscalationTicket string
	Coordinates     *Point
	SpatialCell     *cellKey
}

// QueueEntryState is the state of a pending lease request.
type QueueEntryState int

const (
	StateQueued QueueEntryState = iota
	StateNegotiating
	StateDeferred
	StateEscalating
)

func (s QueueEntryState) String() string {
	switch s {
	case StateQueued:
		return "Queued"
	case StateNegotiating:
		return "Negotiating"
	case StateDeferred:
		return "Deferred"
	case StateEscalating:
		return "Escalating"
	default:
		return "Unknown"
	}
}

// queueEntry is a pending request for a resource that already has a
// holder (§3's "Lease queue entry").
type queueEntry struct {
	RequestID        uint64
	AgentID          string
	Tier             tier.Tier
	Role             string
	Coordinates      *Point
	EnqueuedAt       time.Time
	DeferUntil       time.Time
	State            QueueEntryState
	EscalationTicket string
}

// eligible reports whether the entry's defer deadline has passed (or
// was never set).
func (e *queueEntry) eligible(now time.Time) bool {
	return e.DeferUntil.IsZero() || !now.Before(e.DeferUntil)
}

// AcquireRequest describes an incoming acquire call.
type AcquireRequest struct {
	ResourceID  string
	AgentID     string
	Role        string
	Tier        tier.Tier
	Coordinates *Point
	LeaseTTL    time.Duration
}

// Decision is the outcome of AcquireRequest, reported back to the
// caller (§4.4's state-machine diagram).
type Decision struct {
	Kind     DecisionKind
	Lease    Lease
	Previous Lease
	Position int
	Until    time.Time
}

// DecisionKind discriminates Decision.
type DecisionKind int

const (
	DecisionGranted DecisionKind = iota
	DecisionQueued
	DecisionDeferred
	DecisionOverridden
	DecisionRejected
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionGranted:
		return "Granted"
	case DecisionQueued:
		return "Queued"
	case DecisionDeferred:
		return "Deferred"
	case DecisionOverridden:
		return "Overridden"
	case DecisionRejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}
