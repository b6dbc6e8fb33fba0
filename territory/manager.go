// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package territory

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/luxfi/forge/consensus"
	"github.com/luxfi/forge/internal/idgen"
	"github.com/luxfi/forge/ledger"
	"github.com/luxfi/forge/log"
	"github.com/luxfi/forge/metrics"
	"github.com/luxfi/forge/tier"
)

// ErrNotHolder is returned by Release and Transfer when the caller
// does not match the current holder.
var ErrNotHolder = errors.New("territory: caller is not the current holder")

// ErrNoSuchLease is returned when a resource has no active lease.
var ErrNoSuchLease = errors.New("territory: no active lease for resource")

// EventSink is the subset of *ledger.Ledger the manager needs.
type EventSink interface {
	Append(evt ledger.Event, meta ledger.Metadata) (ledger.Envelope, error)
}

// Manager is the territory manager of §4.4: a lease state machine over
// a resource-keyed table, grounded on the teacher's validators.manager
// mutex-guarded map-of-maps, generalized to map[resourceID]*Lease.
type Manager struct {
	mu  sync.Mutex
	cfg Config

	metrics *metrics.Registry
	sink    EventSink
	broker  *consensus.Broker
	log     log.Logger

	leaseIDs   idgen.Counter
	requestIDs idgen.Counter

	leases  map[string]*Lease
	queues  map[string][]*queueEntry
	heat    *heatMap
	spatial *spatialIndex
}

// New constructs a Manager. sink, broker and reg may all be nil in
// tests exercising only the state machine.
func New(cfg Config, reg *metrics.Registry, sink EventSink, broker *consensus.Broker, logger log.Logger) *Manager {
	if logger == nil {
		logger = log.NoOp()
	}
	var spatial *spatialIndex
	if cfg.SpatialCellSize > 0 {
		spatial = newSpatialIndex(cfg.SpatialCellSize)
	}
	return &Manager{
		cfg:     cfg,
		metrics: reg,
		sink:    sink,
		broker:  broker,
		log:     logger,
		leases:  make(map[string]*Lease),
		queues:  make(map[string][]*queueEntry),
		heat:    newHeatMap(cfg.HeatDecayPerSecond, cfg.HeatIncrement, cfg.HeatMax),
		spatial: spatial,
	}
}

// Acquire implements §4.4's full state-machine diagram for a lease
// request.
func (m *Manager) Acquire(req AcquireRequest) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	existing, held := m.leases[req.ResourceID]

	if !held {
		lease := m.grantLocked(req, now)
		m.afterMutation(req.ResourceID, now)
		return Decision{Kind: DecisionGranted, Lease: *lease}, nil
	}

	timeLeft := existing.ExpiresAt.Sub(now)
	if timeLeft <= m.cfg.AutoExtendThreshold {
		until := now.Add(m.cfg.AutoExtendThreshold)
		entry := m.enqueueLocked(req, now)
		entry.State = StateDeferred
		entry.DeferUntil = until

		m.emit(ledger.LeaseDeferredEvent{
			ResourceID:   req.ResourceID,
			RequestID:    entry.RequestID,
			AgentID:      req.AgentID,
			DeferUntilMS: until.UnixMilli(),
			Tier:         req.Tier,
		}, ledger.Metadata{AgentID: req.AgentID, TerritoryID: req.ResourceID})

		if m.metrics != nil {
			m.metrics.IncDeferrals()
		}
		m.afterMutation(req.ResourceID, now)
		return Decision{Kind: DecisionDeferred, Until: until}, nil
	}

	if int(req.Tier)-int(existing.Tier) >= m.cfg.OverridePriorityDelta {
		if dec, ok := m.tryOverrideLocked(req, *existing, now); ok {
			m.afterMutation(req.ResourceID, now)
			return dec, nil
		}
	}

	entry := m.enqueueLocked(req, now)
	position := m.positionOf(req.ResourceID, entry.RequestID)
	m.checkEscalationLocked(req.ResourceID, now)
	m.afterMutation(req.ResourceID, now)
	return Decision{Kind: DecisionQueued, Position: position}, nil
}

func (m *Manager) grantLocked(req AcquireRequest, now time.Time) *Lease {
	ttl := req.LeaseTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	lease := &Lease{
		LeaseID:         m.leaseIDs.Next(),
		ResourceID:      req.ResourceID,
		HolderID:        req.AgentID,
		HolderRole:      req.Role,
		Tier:            req.Tier,
		GrantedAt:       now,
		ExpiresAt:       now.Add(ttl),
		LastHeartbeatAt: now,
		Coordinates:     req.Coordinates,
	}
	m.leases[req.ResourceID] = lease
	if m.spatial != nil {
		lease.SpatialCell = m.spatial.insert(req.ResourceID, req.Coordinates)
	}

	m.emit(leaseGrantedEvent(lease), ledger.Metadata{AgentID: lease.HolderID, TerritoryID: lease.ResourceID})
	if m.metrics != nil {
		m.metrics.IncLeasesAcquired()
	}
	m.heat.bump(req.ResourceID, now)
	return lease
}

func (m *Manager) enqueueLocked(req AcquireRequest, now time.Time) *queueEntry {
	entry := &queueEntry{
		RequestID:   m.requestIDs.Next(),
		AgentID:     req.AgentID,
		Tier:        req.Tier,
		Role:        req.Role,
		Coordinates: req.Coordinates,
		EnqueuedAt:  now,
		State:       StateQueued,
	}
	m.queues[req.ResourceID] = append(m.queues[req.ResourceID], entry)
	m.sortQueueLocked(req.ResourceID)
	m.heat.bump(req.ResourceID, now)
	return entry
}

// sortQueueLocked enforces §3's queue ordering invariant: descending
// tier, then ascending enqueued-at.
func (m *Manager) sortQueueLocked(resourceID string) {
	q := m.queues[resourceID]
	sort.SliceStable(q, func(i, j int) bool {
		if q[i].Tier != q[j].Tier {
			return q[i].Tier > q[j].Tier
		}
		return q[i].EnqueuedAt.Before(q[j].EnqueuedAt)
	})
}

// positionOf returns the 1-based position of requestID within its
// resource's queue.
func (m *Manager) positionOf(resourceID string, requestID uint64) int {
	for i, e := range m.queues[resourceID] {
		if e.RequestID == requestID {
			return i + 1
		}
	}
	return 0
}

// tryOverrideLocked runs the §4.4 override rule. On success it rewrites
// the lease in place and returns (decision, true); on a failed quorum
// it returns (Decision{}, false) and the caller falls through to
// queueing the request normally.
func (m *Manager) tryOverrideLocked(req AcquireRequest, previous Lease, now time.Time) (Decision, bool) {
	votes := []consensus.Vote{
		{AgentID: previous.HolderID, Weight: float64(previous.Tier) + 1, Vote: false},
		{AgentID: req.AgentID, Weight: float64(req.Tier) + 1, Vote: true},
	}
	for _, e := range m.queues[req.ResourceID] {
		votes = append(votes, consensus.Vote{AgentID: e.AgentID, Weight: float64(e.Tier) + 1, Vote: false})
	}

	achieved := true
	if m.broker != nil {
		var err error
		achieved, err = m.broker.RecordQuorum(req.ResourceID, m.cfg.overrideThreshold(), votes, "override")
		if err != nil {
			achieved = false
		}
	}
	if !achieved {
		return Decision{}, false
	}

	lease := m.leases[req.ResourceID]
	lease.HolderID = req.AgentID
	lease.HolderRole = req.Role
	lease.Tier = req.Tier
	lease.GrantedAt = now
	ttl := req.LeaseTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	lease.ExpiresAt = now.Add(ttl)
	lease.LastHeartbeatAt = now
	lease.Progress = 0
	lease.Overrides++
	if m.spatial != nil {
		m.spatial.remove(previous.ResourceID, previous.SpatialCell)
		lease.SpatialCell = m.spatial.insert(req.ResourceID, req.Coordinates)
	}
	lease.Coordinates = req.Coordinates

	m.emit(ledger.LeaseOverriddenEvent{
		Previous: leaseSnapshot(&previous),
		Lease:    leaseSnapshot(lease),
	}, ledger.Metadata{AgentID: lease.HolderID, TerritoryID: lease.ResourceID})

	if m.metrics != nil {
		m.metrics.IncOverrides()
	}
	m.heat.bump(req.ResourceID, now)
	return Decision{Kind: DecisionOverridden, Previous: previous, Lease: *lease}, true
}

// Release relinquishes resourceID's lease, held by agentID, and
// promotes the first eligible queue entry in priority order (§4.4).
func (m *Manager) Release(resourceID, agentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lease, ok := m.leases[resourceID]
	if !ok {
		return ErrNoSuchLease
	}
	if lease.HolderID != agentID {
		return ErrNotHolder
	}

	now := time.Now()
	delete(m.leases, resourceID)
	if m.spatial != nil {
		m.spatial.remove(resourceID, lease.SpatialCell)
	}
	m.emit(ledger.LeaseReleasedEvent{
		ResourceID: resourceID,
		LeaseID:    lease.LeaseID,
		HolderID:   lease.HolderID,
	}, ledger.Metadata{AgentID: agentID, TerritoryID: resourceID})

	m.promoteLocked(resourceID, now)
	m.afterMutation(resourceID, now)
	return nil
}

// promoteLocked grants the lease to the first eligible (non-deferred
// or deadline-passed) queue entry, in priority order.
func (m *Manager) promoteLocked(resourceID string, now time.Time) {
	q := m.queues[resourceID]
	for i, e := range q {
		if !e.eligible(now) {
			continue
		}
		m.queues[resourceID] = append(append([]*queueEntry{}, q[:i]...), q[i+1:]...)
		m.grantLocked(AcquireRequest{
			ResourceID:  resourceID,
			AgentID:     e.AgentID,
			Role:        e.Role,
			Tier:        e.Tier,
			Coordinates: e.Coordinates,
		}, now)
		return
	}
}

// Transfer atomically changes the holder of a live lease without
// touching the request queue. It rejects unless fromAgent exactly
// matches the current holder (§4.4).
func (m *Manager) Transfer(resourceID, fromAgent, toAgent, toRole string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lease, ok := m.leases[resourceID]
	if !ok {
		return ErrNoSuchLease
	}
	if lease.HolderID != fromAgent {
		return ErrNotHolder
	}

	now := time.Now()
	lease.HolderID = toAgent
	lease.HolderRole = toRole
	lease.GrantedAt = now
	if ttl <= 0 {
		ttl = time.Minute
	}
	lease.ExpiresAt = now.Add(ttl)
	lease.LastHeartbeatAt = now

	m.emit(leaseGrantedEvent(lease), ledger.Metadata{AgentID: toAgent, TerritoryID: resourceID})
	m.heat.bump(resourceID, now)
	m.afterMutation(resourceID, now)
	return nil
}

// Heartbeat refreshes a held lease's last-heartbeat timestamp.
func (m *Manager) Heartbeat(resourceID, agentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lease, ok := m.leases[resourceID]
	if !ok {
		return ErrNoSuchLease
	}
	if lease.HolderID != agentID {
		return ErrNotHolder
	}
	lease.LastHeartbeatAt = time.Now()
	return nil
}

// SetProgress records a held lease's completion fraction, clamped to
// [0,1].
func (m *Manager) SetProgress(resourceID, agentID string, progress float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lease, ok := m.leases[resourceID]
	if !ok {
		return ErrNoSuchLease
	}
	if lease.HolderID != agentID {
		return ErrNotHolder
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	lease.Progress = progress
	return nil
}

// checkEscalationLocked emits an Escalated event if the resource's
// queue has crossed the depth or starvation threshold (§4.4).
func (m *Manager) checkEscalationLocked(resourceID string, now time.Time) {
	q := m.queues[resourceID]
	if len(q) == 0 {
		return
	}
	oldestWait := now.Sub(q[0].EnqueuedAt)

	var reason ledger.EscalationReason
	switch {
	case len(q) >= m.cfg.EscalationQueueThreshold:
		reason = ledger.EscalationQueueDepth
	case oldestWait >= m.cfg.FairnessStarvationThreshold:
		reason = ledger.EscalationStarvation
	default:
		return
	}

	m.emit(ledger.LeaseEscalatedEvent{
		ResourceID:   resourceID,
		Reason:       reason,
		QueueDepth:   len(q),
		OldestWaitMS: oldestWait.Milliseconds(),
	}, ledger.Metadata{TerritoryID: resourceID})

	if m.metrics != nil {
		m.metrics.IncEscalations()
	}
}

// HeatSummary returns the current heat-map summary (§4.4).
func (m *Manager) HeatSummary() HeatSummary {
	s := m.heat.summary(time.Now())
	if m.metrics != nil {
		m.metrics.SetHeatSummary(s.HottestResource, s.HottestScore, s.TrackedCells)
	}
	return s
}

// afterMutation publishes the lease inventory to metrics, per §4.4's
// "after every mutation" rule.
func (m *Manager) afterMutation(_ string, _ time.Time) {
	if m.metrics == nil {
		return
	}
	pending := make(map[string]int64, len(m.queues))
	var total int64
	for resource, q := range m.queues {
		if len(q) == 0 {
			continue
		}
		pending[resource] = int64(len(q))
		total += int64(len(q))
	}
	outstanding := make([]uint64, 0, len(m.leases))
	for _, l := range m.leases {
		outstanding = append(outstanding, l.LeaseID)
	}
	m.metrics.SetLeaseInventory(int64(len(m.leases)), pending, outstanding)
	_ = total
}

func (m *Manager) emit(evt ledger.Event, meta ledger.Metadata) {
	if m.sink == nil {
		return
	}
	if _, err := m.sink.Append(evt, meta); err != nil && m.metrics != nil {
		m.metrics.IncAppendFailures()
	}
}

func leaseGrantedEvent(l *Lease) ledger.LeaseGrantedEvent {
	return ledger.LeaseGrantedEvent{Lease: leaseSnapshot(l)}
}

func leaseSnapshot(l *Lease) ledger.LeaseSnapshot {
	return ledger.LeaseSnapshot{
		LeaseID:     l.LeaseID,
		ResourceID:  l.ResourceID,
		HolderID:    l.HolderID,
		HolderRole:  l.HolderRole,
		Tier:        l.Tier,
		GrantedAtMS: l.GrantedAt.UnixMilli(),
		ExpiresAtMS: l.ExpiresAt.UnixMilli(),
	}
}

// overrideThreshold is the simple-majority threshold the override vote
// is evaluated against; §4.4 does not name a distinct threshold from
// the general consensus broker's, so a 0.5 majority is used.
func (c Config) overrideThreshold() float64 { return 0.5 }
