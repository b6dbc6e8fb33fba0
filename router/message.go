// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"time"

	"github.com/luxfi/forge/tier"
)

// Message is a queued envelope, per §3. EffectiveTier, AgingBoosts,
// Attempts and LastAttemptAt are mutated by the dispatcher; callers
// only ever see an immutable Delivery after the fact.
type Message struct {
	Payload       string
	SenderID      string
	RecipientID   string
	DeclaredTier  tier.Tier
	EffectiveTier tier.Tier
	EnqueuedAt    time.Time
	AgingBoosts   int
	Attempts      int
	LastAttemptAt time.Time
}

// Delivery is the immutable record broadcast to subscribers on every
// dispatch (§4.1).
type Delivery struct {
	Message     Message
	Effective   tier.Tier
	WaitTime    time.Duration
	QueueDepths [tier.Count]int64
	AgingBoosts int
	Attempts    int
}
