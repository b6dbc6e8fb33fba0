// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import "github.com/luxfi/forge/tier"

// EventKind discriminates the ledger's tagged event union (§3's "Event
// variants").
type EventKind string

const (
	KindRouterDispatched   EventKind = "router.dispatched"
	KindRouterRateLimited  EventKind = "router.rateLimited"
	KindLeaseGranted       EventKind = "lease.granted"
	KindLeaseReleased      EventKind = "lease.released"
	KindLeaseDeferred      EventKind = "lease.deferred"
	KindLeaseEscalated     EventKind = "lease.escalated"
	KindLeaseOverridden    EventKind = "lease.overridden"
	KindConsensusProposal  EventKind = "consensus.proposal"
	KindConsensusVote      EventKind = "consensus.vote"
	KindConsensusCommit    EventKind = "consensus.commit"
	KindPty                EventKind = "pty"
	KindHealth             EventKind = "health"
	KindCheckpoint         EventKind = "checkpoint"
)

// Event is any value that can be appended to the ledger. Kind()
// identifies the variant; the value itself is the JSON-serialized
// event body over which payloadDigest is computed.
type Event interface {
	Kind() EventKind
}

// RouterDispatchedEvent records a successful dispatch (§4.1).
type RouterDispatchedEvent struct {
	SenderID      string            `json:"senderId"`
	RecipientID   string            `json:"recipientId"`
	DeclaredTier  tier.Tier         `json:"declaredTier"`
	EffectiveTier tier.Tier         `json:"effectiveTier"`
	WaitMS        int64             `json:"waitMs"`
	AgingBoosts   int               `json:"agingBoosts"`
	Attempts      int               `json:"attempts"`
	QueueDepths   [tier.Count]int64 `json:"queueDepths"`
}

func (RouterDispatchedEvent) Kind() EventKind { return KindRouterDispatched }

// RouterRateLimitedEvent records a rate-limit requeue (§4.1).
type RouterRateLimitedEvent struct {
	SenderID      string    `json:"senderId"`
	EffectiveTier tier.Tier `json:"effectiveTier"`
	TokensLeft    float64   `json:"tokensLeft"`
	Cost          float64   `json:"cost"`
}

func (RouterRateLimitedEvent) Kind() EventKind { return KindRouterRateLimited }

// LeaseSnapshot is the denormalized lease view carried by lease
// lifecycle events, so a reader never needs to join against another
// stream to know what happened.
type LeaseSnapshot struct {
	LeaseID      uint64    `json:"leaseId"`
	ResourceID   string    `json:"resourceId"`
	HolderID     string    `json:"holderId"`
	HolderRole   string    `json:"holderRole,omitempty"`
	Tier         tier.Tier `json:"tier"`
	GrantedAtMS  int64     `json:"grantedAtMs"`
	ExpiresAtMS  int64     `json:"expiresAtMs"`
}

// LeaseGrantedEvent records a grant, including the original grant and
// every subsequent transfer (§4.4).
type LeaseGrantedEvent struct {
	Lease LeaseSnapshot `json:"lease"`
}

func (LeaseGrantedEvent) Kind() EventKind { return KindLeaseGranted }

// LeaseReleasedEvent records a release.
type LeaseReleasedEvent struct {
	ResourceID string `json:"resourceId"`
	LeaseID    uint64 `json:"leaseId"`
	HolderID   string `json:"holderId"`
}

func (LeaseReleasedEvent) Kind() EventKind { return KindLeaseReleased }

// LeaseDeferredEvent records a deferral decision (§4.4).
type LeaseDeferredEvent struct {
	ResourceID    string    `json:"resourceId"`
	RequestID     uint64    `json:"requestId"`
	AgentID       string    `json:"agentId"`
	DeferUntilMS  int64     `json:"deferUntilMs"`
	Tier          tier.Tier `json:"tier"`
}

func (LeaseDeferredEvent) Kind() EventKind { return KindLeaseDeferred }

// EscalationReason enumerates §4.4's escalation causes.
type EscalationReason string

const (
	EscalationQueueDepth EscalationReason = "QueueDepth"
	EscalationStarvation EscalationReason = "Starvation"
	EscalationDeadlock   EscalationReason = "Deadlock"
)

// LeaseEscalatedEvent records an escalation (§4.4).
type LeaseEscalatedEvent struct {
	ResourceID string           `json:"resourceId"`
	Reason     EscalationReason `json:"reason"`
	QueueDepth int              `json:"queueDepth"`
	OldestWaitMS int64          `json:"oldestWaitMs"`
}

func (LeaseEscalatedEvent) Kind() EventKind { return KindLeaseEscalated }

// LeaseOverriddenEvent records an override, carrying both the
// displaced lease and the newly granted one (§3: Overridden{previous,
// lease}).
type LeaseOverriddenEvent struct {
	Previous LeaseSnapshot `json:"previous"`
	Lease    LeaseSnapshot `json:"lease"`
}

func (LeaseOverriddenEvent) Kind() EventKind { return KindLeaseOverridden }

// Vote is one weighted ballot in a consensus call (§4.3).
type Vote struct {
	AgentID string  `json:"agentId"`
	Weight  float64 `json:"weight"`
	Vote    bool    `json:"vote"`
}

// QuorumVector is the weighted tally and verdict of a consensus call
// (GLOSSARY), carried identically by Proposal, Vote and Commit events.
type QuorumVector struct {
	ResourceID  string  `json:"resourceId"`
	Threshold   float64 `json:"threshold"`
	TotalWeight float64 `json:"totalWeight"`
	AgreeWeight float64 `json:"agreeWeight"`
	Achieved    bool    `json:"achieved"`
	Reason      string  `json:"reason"`
	Votes       []Vote  `json:"votes"`
}

// ConsensusProposalEvent, ConsensusVoteEvent and ConsensusCommitEvent
// are the three events the consensus broker always emits together
// (§4.3), each wrapping the same QuorumVector.
type ConsensusProposalEvent struct{ Quorum QuorumVector `json:"quorum"` }
type ConsensusVoteEvent struct{ Quorum QuorumVector `json:"quorum"` }
type ConsensusCommitEvent struct{ Quorum QuorumVector `json:"quorum"` }

func (ConsensusProposalEvent) Kind() EventKind { return KindConsensusProposal }
func (ConsensusVoteEvent) Kind() EventKind     { return KindConsensusVote }
func (ConsensusCommitEvent) Kind() EventKind   { return KindConsensusCommit }

// PtyEvent carries a structured frame scraped from a worker's PTY
// output (§6); the ledger only records it, replay ignores it.
type PtyEvent struct {
	AgentID   string `json:"agentId"`
	EventName string `json:"eventName,omitempty"`
	Payload   []byte `json:"payload,omitempty"`
}

func (PtyEvent) Kind() EventKind { return KindPty }

// HealthEvent is an opaque health-KPI sample recorded for the external
// health evaluator; replay ignores it.
type HealthEvent struct {
	Source string  `json:"source"`
	Value  float64 `json:"value"`
}

func (HealthEvent) Kind() EventKind { return KindHealth }

// CheckpointEvent wraps a StateCheckpoint (§3); replay treats it as
// superseding all prior replay state.
type CheckpointEvent struct {
	Checkpoint StateCheckpoint `json:"checkpoint"`
}

func (CheckpointEvent) Kind() EventKind { return KindCheckpoint }
