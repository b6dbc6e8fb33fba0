// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/forge/tier"
)

// SenderStats is the rate-limit view of a single sender's token bucket,
// as published by the router.
type SenderStats struct {
	TokensRemaining float64   `json:"tokensRemaining"`
	Capacity        float64   `json:"capacity"`
	RefillRate      float64   `json:"refillRate"`
	LastRefill      time.Time `json:"lastRefill"`
	Hits            int64     `json:"hits"`
}

// Snapshot is the serializable aggregate returned by Registry.Snapshot,
// and the shape embedded in a ledger StateCheckpoint's metrics field.
type Snapshot struct {
	// Performance
	MessageRoutingLatencyMs float64 `json:"messageRoutingLatencyMs"`
	AgentSpawnTimeMs        float64 `json:"agentSpawnTimeMs"`
	LeaseAcquisitionTimeMs  float64 `json:"leaseAcquisitionTimeMs"`
	TotalMessagesRouted     int64   `json:"totalMessagesRouted"`
	TotalLeasesAcquired     int64   `json:"totalLeasesAcquired"`
	RateLimitedMessages     int64   `json:"rateLimitedMessages"`

	// Router
	QueueDepths           [tier.Count]int64 `json:"queueDepths"`
	LastDispatchedTier    string            `json:"lastDispatchedTier"`
	LastDispatchedAtMs    int64             `json:"lastDispatchedAtMs"`

	// Rate limits
	Senders map[string]SenderStats `json:"senders"`

	// Leases
	ActiveLeases        int64          `json:"activeLeases"`
	TotalPending        int64          `json:"totalPending"`
	PendingByResource    map[string]int64 `json:"pendingByResource"`
	Deferrals           int64          `json:"deferrals"`
	Overrides           int64          `json:"overrides"`
	Escalations         int64          `json:"escalations"`
	OutstandingLeaseIDs []uint64       `json:"outstandingLeaseIds"`

	// Consensus
	ConsensusSuccess      int64   `json:"consensusSuccess"`
	ConsensusFailure      int64   `json:"consensusFailure"`
	ConsensusThreshold    float64 `json:"consensusThreshold"`
	ConsensusSuccessRatio float64 `json:"consensusSuccessRatio"`
	LastConsensusResource string  `json:"lastConsensusResource"`
	LastConsensusReason   string  `json:"lastConsensusReason"`

	// Heat
	HottestResource string  `json:"hottestResource"`
	HottestScore    float64 `json:"hottestScore"`
	TrackedCells    int     `json:"trackedCells"`

	// Ledger
	LastAppendLatencyMs float64 `json:"lastAppendLatencyMs"`
	AppendFailures      int64   `json:"appendFailures"`
	IntegrityErrors     int64   `json:"integrityErrors"`
}

// Registry is the thread-safe aggregator described in §4.6. All
// read/write methods may be called concurrently from any component.
type Registry struct {
	reg prometheus.Registerer

	messageRoutingLatencyMs Averager
	agentSpawnTimeMs        Averager
	leaseAcquisitionTimeMs  Averager
	totalMessagesRouted     Counter
	totalLeasesAcquired     Counter
	rateLimitedMessages     Counter

	mu                 sync.Mutex
	queueDepths        [tier.Count]int64
	lastDispatchedTier string
	lastDispatchedAt   time.Time

	senders map[string]SenderStats

	activeLeases        int64
	totalPending        int64
	pendingByResource    map[string]int64
	deferrals           int64
	overrides           int64
	escalations         int64
	outstandingLeaseIDs []uint64

	consensusSuccess      int64
	consensusFailure      int64
	consensusThreshold    float64
	lastConsensusResource string
	lastConsensusReason   string

	hottestResource string
	hottestScore    float64
	trackedCells    int

	lastAppendLatencyMs float64
	appendFailures      int64
	integrityErrors     int64
}

// NewRegistry builds a Registry. reg may be nil, in which case no
// Prometheus collectors are registered and the registry is purely
// in-process (used by tests).
func NewRegistry(reg prometheus.Registerer) *Registry {
	return &Registry{
		reg:                     reg,
		messageRoutingLatencyMs: newAverager("forge_message_routing_latency_ms", "message routing latency", reg),
		agentSpawnTimeMs:        newAverager("forge_agent_spawn_time_ms", "agent spawn time", reg),
		leaseAcquisitionTimeMs:  newAverager("forge_lease_acquisition_time_ms", "lease acquisition time", reg),
		totalMessagesRouted:     newCounter("forge_total_messages_routed", "total messages routed", reg),
		totalLeasesAcquired:     newCounter("forge_total_leases_acquired", "total leases acquired", reg),
		rateLimitedMessages:     newCounter("forge_rate_limited_messages", "rate limited messages", reg),
		senders:                 make(map[string]SenderStats),
		pendingByResource:       make(map[string]int64),
	}
}

// --- Performance ---

// ObserveRoutingLatency records one message's enqueue-to-dispatch wait.
func (r *Registry) ObserveRoutingLatency(d time.Duration) {
	r.messageRoutingLatencyMs.Observe(float64(d.Milliseconds()))
	r.totalMessagesRouted.Inc()
}

// ObserveAgentSpawnTime records a spawn duration (externally supplied).
func (r *Registry) ObserveAgentSpawnTime(d time.Duration) {
	r.agentSpawnTimeMs.Observe(float64(d.Milliseconds()))
}

// ObserveLeaseAcquisitionTime records an acquire()-to-grant duration.
func (r *Registry) ObserveLeaseAcquisitionTime(d time.Duration) {
	r.leaseAcquisitionTimeMs.Observe(float64(d.Milliseconds()))
}

// IncRateLimited records a rate-limit requeue.
func (r *Registry) IncRateLimited() { r.rateLimitedMessages.Inc() }

// IncLeasesAcquired records a successful grant, including a promotion
// from the queue; an override is counted by IncOverrides instead.
func (r *Registry) IncLeasesAcquired() { r.totalLeasesAcquired.Inc() }

// --- Router ---

// SetQueueDepths publishes the current per-tier queue depth gauge.
func (r *Registry) SetQueueDepths(depths [tier.Count]int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queueDepths = depths
}

// SetLastDispatched records the most recently dispatched tier and time.
func (r *Registry) SetLastDispatched(t tier.Tier, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastDispatchedTier = t.String()
	r.lastDispatchedAt = at
}

// SetSenderStats publishes the current rate-limit view for sender id.
func (r *Registry) SetSenderStats(senderID string, s SenderStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.senders[senderID] = s
}

// --- Leases ---

// SetLeaseInventory publishes the lease counts described in §4.4.
func (r *Registry) SetLeaseInventory(active int64, pendingByResource map[string]int64, outstanding []uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeLeases = active
	var total int64
	cp := make(map[string]int64, len(pendingByResource))
	for k, v := range pendingByResource {
		cp[k] = v
		total += v
	}
	r.pendingByResource = cp
	r.totalPending = total
	r.outstandingLeaseIDs = append([]uint64(nil), outstanding...)
}

// IncDeferrals, IncOverrides, IncEscalations record lease lifecycle
// transitions for the running counters in §4.4.
func (r *Registry) IncDeferrals()  { r.mu.Lock(); r.deferrals++; r.mu.Unlock() }
func (r *Registry) IncOverrides()  { r.mu.Lock(); r.overrides++; r.mu.Unlock() }
func (r *Registry) IncEscalations() { r.mu.Lock(); r.escalations++; r.mu.Unlock() }

// --- Consensus ---

// RecordConsensus records the outcome of a RecordQuorum call.
func (r *Registry) RecordConsensus(resourceID, reason string, threshold float64, achieved bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastConsensusResource = resourceID
	r.lastConsensusReason = reason
	r.consensusThreshold = threshold
	if achieved {
		r.consensusSuccess++
	} else {
		r.consensusFailure++
	}
}

// --- Heat ---

// SetHeatSummary publishes the hottest resource, its score, and the
// number of tracked cells.
func (r *Registry) SetHeatSummary(resource string, score float64, tracked int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hottestResource = resource
	r.hottestScore = score
	r.trackedCells = tracked
}

// --- Ledger ---

// ObserveAppendLatency records one append()'s latency.
func (r *Registry) ObserveAppendLatency(d time.Duration) {
	r.mu.Lock()
	r.lastAppendLatencyMs = float64(d.Microseconds()) / 1000.0
	r.mu.Unlock()
}

// IncAppendFailures records a dropped/failed ledger append.
func (r *Registry) IncAppendFailures() { r.mu.Lock(); r.appendFailures++; r.mu.Unlock() }

// IncIntegrityErrors records a hash-chain verification failure.
func (r *Registry) IncIntegrityErrors() { r.mu.Lock(); r.integrityErrors++; r.mu.Unlock() }

// Snapshot returns a serializable aggregate of every field above.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	senders := make(map[string]SenderStats, len(r.senders))
	for k, v := range r.senders {
		senders[k] = v
	}
	pending := make(map[string]int64, len(r.pendingByResource))
	for k, v := range r.pendingByResource {
		pending[k] = v
	}

	var successRatio float64
	total := r.consensusSuccess + r.consensusFailure
	if total > 0 {
		successRatio = float64(r.consensusSuccess) / float64(total)
	}

	return Snapshot{
		MessageRoutingLatencyMs: r.messageRoutingLatencyMs.Read(),
		AgentSpawnTimeMs:        r.agentSpawnTimeMs.Read(),
		LeaseAcquisitionTimeMs:  r.leaseAcquisitionTimeMs.Read(),
		TotalMessagesRouted:     r.totalMessagesRouted.Read(),
		TotalLeasesAcquired:     r.totalLeasesAcquired.Read(),
		RateLimitedMessages:     r.rateLimitedMessages.Read(),

		QueueDepths:        r.queueDepths,
		LastDispatchedTier: r.lastDispatchedTier,
		LastDispatchedAtMs: r.lastDispatchedAt.UnixMilli(),

		Senders: senders,

		ActiveLeases:        r.activeLeases,
		TotalPending:        r.totalPending,
		PendingByResource:   pending,
		Deferrals:           r.deferrals,
		Overrides:           r.overrides,
		Escalations:         r.escalations,
		OutstandingLeaseIDs: append([]uint64(nil), r.outstandingLeaseIDs...),

		ConsensusSuccess:      r.consensusSuccess,
		ConsensusFailure:      r.consensusFailure,
		ConsensusThreshold:    r.consensusThreshold,
		ConsensusSuccessRatio: successRatio,
		LastConsensusResource: r.lastConsensusResource,
		LastConsensusReason:   r.lastConsensusReason,

		HottestResource: r.hottestResource,
		HottestScore:    r.hottestScore,
		TrackedCells:    r.trackedCells,

		LastAppendLatencyMs: r.lastAppendLatencyMs,
		AppendFailures:      r.appendFailures,
		IntegrityErrors:     r.integrityErrors,
	}
}

// Reset zeroes every field, per §4.6.
func (r *Registry) Reset() {
	r.messageRoutingLatencyMs.Reset()
	r.agentSpawnTimeMs.Reset()
	r.leaseAcquisitionTimeMs.Reset()
	r.totalMessagesRouted.Reset()
	r.totalLeasesAcquired.Reset()
	r.rateLimitedMessages.Reset()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.queueDepths = [tier.Count]int64{}
	r.lastDispatchedTier = ""
	r.lastDispatchedAt = time.Time{}
	r.senders = make(map[string]SenderStats)
	r.activeLeases = 0
	r.totalPending = 0
	r.pendingByResource = make(map[string]int64)
	r.deferrals = 0
	r.overrides = 0
	r.escalations = 0
	r.outstandingLeaseIDs = nil
	r.consensusSuccess = 0
	r.consensusFailure = 0
	r.consensusThreshold = 0
	r.lastConsensusResource = ""
	r.lastConsensusReason = ""
	r.hottestResource = ""
	r.hottestScore = 0
	r.trackedCells = 0
	r.lastAppendLatencyMs = 0
	r.appendFailures = 0
	r.integrityErrors = 0
}
