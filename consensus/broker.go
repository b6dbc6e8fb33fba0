// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package consensus implements the weighted-quorum consensus broker of
// §4.3: a stateless decision rule wrapped around the ledger's
// proposal/vote/commit triple emission, grounded on the teacher's
// quorum.Static threshold (same accumulate-then-check shape, weighted
// instead of unweighted).
package consensus

import (
	"sync"

	"github.com/luxfi/forge/ledger"
	"github.com/luxfi/forge/log"
	"github.com/luxfi/forge/metrics"
)

// epsilon guards the vacuous-total case in the decision rule.
const epsilon = 1e-9

// Vote is one weighted ballot submitted to RecordQuorum.
type Vote struct {
	AgentID string
	Weight  float64
	Vote    bool
}

// Sink is the subset of *ledger.Ledger the broker needs.
type Sink interface {
	Append(evt ledger.Event, meta ledger.Metadata) (ledger.Envelope, error)
}

// Broker evaluates weighted quorum decisions and records the result as
// a proposal/vote/commit triple in the ledger (§4.3).
type Broker struct {
	mu      sync.Mutex
	sink    Sink
	metrics *metrics.Registry
	log     log.Logger
}

// New constructs a Broker. sink and reg may both be nil in tests that
// only exercise the decision rule.
func New(sink Sink, reg *metrics.Registry, logger log.Logger) *Broker {
	if logger == nil {
		logger = log.NoOp()
	}
	return &Broker{sink: sink, metrics: reg, log: logger}
}

// RecordQuorum evaluates votes against threshold for resourceID and, if
// the vote set is non-empty, atomically emits the Proposal/Vote/Commit
// triple to the ledger. An empty vote set is vacuously achieved and
// emits nothing (§4.3).
func (b *Broker) RecordQuorum(resourceID string, threshold float64, votes []Vote, reason string) (bool, error) {
	if len(votes) == 0 {
		return true, nil
	}

	threshold = clampUnit(threshold)

	var total, agree float64
	wireVotes := make([]ledger.Vote, 0, len(votes))
	for _, v := range votes {
		w := v.Weight
		if w <= 0 {
			w = 1.0
		}
		total += w
		if v.Vote {
			agree += w
		}
		wireVotes = append(wireVotes, ledger.Vote{
			AgentID: v.AgentID,
			Weight:  w,
			Vote:    v.Vote,
		})
	}

	achieved := total > epsilon && (agree/total) >= threshold

	if b.metrics != nil {
		b.metrics.RecordConsensus(resourceID, reason, threshold, achieved)
	}

	quorum := ledger.QuorumVector{
		ResourceID:  resourceID,
		Threshold:   threshold,
		TotalWeight: total,
		AgreeWeight: agree,
		Achieved:    achieved,
		Reason:      reason,
		Votes:       wireVotes,
	}

	if b.sink == nil {
		return achieved, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	meta := ledger.Metadata{TraceID: resourceID}
	if _, err := b.sink.Append(ledger.ConsensusProposalEvent{Quorum: quorum}, meta); err != nil {
		return achieved, err
	}
	if _, err := b.sink.Append(ledger.ConsensusVoteEvent{Quorum: quorum}, meta); err != nil {
		return achieved, err
	}
	if _, err := b.sink.Append(ledger.ConsensusCommitEvent{Quorum: quorum}, meta); err != nil {
		return achieved, err
	}

	return achieved, nil
}

func clampUnit(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
