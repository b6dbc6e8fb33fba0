// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics implements the shared metrics registry consumed by
// the router, ledger, territory manager and consensus broker. Counter,
// Gauge and Averager are adapted from the teacher's metrics/metric.go:
// the same lock-guarded primitives, each optionally mirrored into a
// prometheus.Registerer so an operator can scrape the same numbers the
// in-process snapshot() exposes.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Counter is a monotonic (unless Reset) int64 counter.
type Counter interface {
	Inc()
	Add(delta int64)
	Read() int64
	Reset()
}

type counter struct {
	mu   sync.RWMutex
	val  int64
	prom prometheus.Counter
}

func newCounter(name, help string, reg prometheus.Registerer) Counter {
	c := &counter{}
	if reg != nil {
		pc := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
		if err := reg.Register(pc); err == nil {
			c.prom = pc
		}
	}
	return c
}

func (c *counter) Inc() { c.Add(1) }

func (c *counter) Add(delta int64) {
	c.mu.Lock()
	c.val += delta
	c.mu.Unlock()
	if c.prom != nil && delta > 0 {
		c.prom.Add(float64(delta))
	}
}

func (c *counter) Read() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val
}

func (c *counter) Reset() {
	c.mu.Lock()
	c.val = 0
	c.mu.Unlock()
}

// Gauge is a value that can move up and down.
type Gauge interface {
	Set(value float64)
	Add(delta float64)
	Read() float64
	Reset()
}

type gauge struct {
	mu   sync.RWMutex
	val  float64
	prom prometheus.Gauge
}

func newGauge(name, help string, reg prometheus.Registerer) Gauge {
	g := &gauge{}
	if reg != nil {
		pg := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
		if err := reg.Register(pg); err == nil {
			g.prom = pg
		}
	}
	return g
}

func (g *gauge) Set(value float64) {
	g.mu.Lock()
	g.val = value
	g.mu.Unlock()
	if g.prom != nil {
		g.prom.Set(value)
	}
}

func (g *gauge) Add(delta float64) {
	g.mu.Lock()
	g.val += delta
	g.mu.Unlock()
	if g.prom != nil {
		g.prom.Add(delta)
	}
}

func (g *gauge) Read() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.val
}

func (g *gauge) Reset() {
	g.mu.Lock()
	g.val = 0
	g.mu.Unlock()
}

// Averager tracks a cumulative-average running mean.
type Averager interface {
	Observe(value float64)
	Read() float64
	Reset()
}

type averager struct {
	mu        sync.RWMutex
	sum       float64
	count     float64
	promCount prometheus.Counter
	promSum   prometheus.Gauge
}

func newAverager(name, help string, reg prometheus.Registerer) Averager {
	a := &averager{}
	if reg != nil {
		pc := prometheus.NewCounter(prometheus.CounterOpts{Name: name + "_count", Help: "count of " + help})
		ps := prometheus.NewGauge(prometheus.GaugeOpts{Name: name + "_sum", Help: "sum of " + help})
		if err := reg.Register(pc); err == nil {
			a.promCount = pc
		}
		if err := reg.Register(ps); err == nil {
			a.promSum = ps
		}
	}
	return a
}

func (a *averager) Observe(value float64) {
	a.mu.Lock()
	a.sum += value
	a.count++
	a.mu.Unlock()
	if a.promCount != nil {
		a.promCount.Inc()
	}
	if a.promSum != nil {
		a.promSum.Add(value)
	}
}

func (a *averager) Read() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.count == 0 {
		return 0
	}
	return a.sum / a.count
}

func (a *averager) Reset() {
	a.mu.Lock()
	a.sum = 0
	a.count = 0
	a.mu.Unlock()
}
