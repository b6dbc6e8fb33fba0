// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package forge is the composition root for the worker-fleet
// coordination core: the priority router, territory manager, ledger,
// consensus broker, metrics registry and maintenance scheduler wired
// together behind a single clean surface, mirroring the teacher's
// consensus.go "single-import SDK" pattern rather than a
// service-locator.
package forge

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/forge/config"
	"github.com/luxfi/forge/consensus"
	"github.com/luxfi/forge/internal/wrappers"
	"github.com/luxfi/forge/ledger"
	"github.com/luxfi/forge/log"
	"github.com/luxfi/forge/metrics"
	"github.com/luxfi/forge/router"
	"github.com/luxfi/forge/scheduler"
	"github.com/luxfi/forge/territory"
	"github.com/luxfi/forge/tier"
)

// Core composes every component named in §2: Metrics, Scheduler,
// Ledger, Consensus Broker, Router, Territory Manager, built in that
// dependency order by New.
type Core struct {
	Metrics   *metrics.Registry
	Ledger    *ledger.Ledger
	Consensus *consensus.Broker
	Scheduler *scheduler.Scheduler
	Router    *router.Router
	Territory *territory.Manager

	log    log.Logger
	runCtx context.Context
	cancel context.CancelFunc
}

// New builds a Core from cfg, wiring every component in dependency
// order (§2.1). logger may be nil, in which case a no-op logger is
// used. promReg may be nil, in which case metrics are tracked
// in-process only and never exposed to Prometheus; the caller (e.g.
// cmd/forge) is expected to pass a live *prometheus.Registry and serve
// it, mirroring the teacher's own poll.DefaultFactory wiring of a real
// prometheus.Registry through to its collectors.
func New(cfg config.Config, promReg prometheus.Registerer, logger log.Logger) (*Core, error) {
	if logger == nil {
		logger = log.NoOp()
	}

	// Errs accumulates failures across every component build so New
	// reports them all at once instead of bailing out of the sequence
	// on the first one, the same accumulate-then-check shape the
	// teacher uses for its own multi-step construction/teardown paths.
	errs := &wrappers.Errs{}

	reg := metrics.NewRegistry(promReg)

	sched := scheduler.New(0)

	led, err := ledger.Open(cfg.Ledger.ToLedgerConfig(), reg, sched, logger.With("component", "ledger"))
	errs.Add(err)

	broker := consensus.New(led, reg, logger.With("component", "consensus"))

	rt := router.New(cfg.Router.ToRouterConfig(), reg, led, logger.With("component", "router"))

	terr := territory.New(cfg.Territory.ToTerritoryConfig(), reg, led, broker, logger.With("component", "territory"))

	if errs.Errored() {
		return nil, fmt.Errorf("forge: constructing core: %w", errs.Err())
	}

	return &Core{
		Metrics:   reg,
		Ledger:    led,
		Consensus: broker,
		Scheduler: sched,
		Router:    rt,
		Territory: terr,
		log:       logger,
	}, nil
}

// Run starts the router's dispatch loop. It returns once ctx is
// cancelled or Close is called.
func (c *Core) Run(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	c.runCtx = runCtx
	c.cancel = cancel
	c.Router.Run(runCtx)
}

// Close shuts down every component in reverse dependency order and
// flushes the ledger.
func (c *Core) Close(_ context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}
	c.Router.Close()
	c.Scheduler.Shutdown()
	return c.Ledger.Close()
}

// RouteMessage submits a message to the priority router (§6.1).
func (c *Core) RouteMessage(senderID, recipientID, payload string, declared tier.Tier) error {
	return c.Router.Enqueue(senderID, recipientID, payload, declared)
}

// AcquireLease requests a lease on a resource (§6.1).
func (c *Core) AcquireLease(req territory.AcquireRequest) (territory.Decision, error) {
	return c.Territory.Acquire(req)
}

// ReleaseLease releases a held lease (§6.1).
func (c *Core) ReleaseLease(resourceID, agentID string) error {
	return c.Territory.Release(resourceID, agentID)
}

// TransferLease atomically changes a lease's holder (§6.1).
func (c *Core) TransferLease(resourceID, fromAgent, toAgent, toRole string, ttl time.Duration) error {
	return c.Territory.Transfer(resourceID, fromAgent, toAgent, toRole, ttl)
}

// GetSnapshot returns the current metrics snapshot (§6.1).
func (c *Core) GetSnapshot() metrics.Snapshot {
	return c.Metrics.Snapshot()
}

// ResetMetrics zeroes every metrics field (§6.1).
func (c *Core) ResetMetrics() {
	c.Metrics.Reset()
}

// LedgerReplay replays epoch (or the ledger's current epoch if empty)
// and returns the reconstructed state (§6.1).
func (c *Core) LedgerReplay(epoch string) (ledger.ReplayResult, error) {
	if epoch == "" {
		epoch = c.Ledger.CurrentEpoch()
	}
	envs, err := c.Ledger.ReadEpoch(epoch)
	if err != nil {
		return ledger.ReplayResult{}, err
	}
	return ledger.Replay(envs)
}

// LedgerStatus reports whether the current epoch's hash chain verifies
// (§6.1).
func (c *Core) LedgerStatus() (bool, error) {
	return c.Ledger.VerifyEpoch(c.Ledger.CurrentEpoch())
}

// LedgerTail returns up to limit of the most recent envelopes from
// epoch (or the current epoch if empty) (§6.1).
func (c *Core) LedgerTail(limit int, epoch string) ([]ledger.Envelope, error) {
	if epoch == "" {
		epoch = c.Ledger.CurrentEpoch()
	}
	envs, err := c.Ledger.ReadEpoch(epoch)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit >= len(envs) {
		return envs, nil
	}
	return envs[len(envs)-limit:], nil
}
