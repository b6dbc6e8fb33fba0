// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package territory

import (
	"math"
	"sync"
	"time"
)

// heatCell is a per-resource activity score (§3's "Heat cell").
type heatCell struct {
	value      float64
	lastUpdate time.Time
}

// heatMap tracks per-resource activity with lazy exponential decay,
// grounded on the teacher's metric.Averager's own lazy-update-on-read
// style (metrics/metric.go), generalized from a running average to a
// decaying score.
type heatMap struct {
	mu       sync.Mutex
	cells    map[string]*heatCell
	decay    float64
	increment float64
	max      float64
}

func newHeatMap(decayPerSecond, increment, max float64) *heatMap {
	return &heatMap{
		cells:     make(map[string]*heatCell),
		decay:     decayPerSecond,
		increment: increment,
		max:       max,
	}
}

// decayLocked applies the decay formula in place; mu must be held.
func (h *heatMap) decayLocked(c *heatCell, now time.Time) {
	elapsed := now.Sub(c.lastUpdate).Seconds()
	if elapsed <= 0 {
		return
	}
	factor := math.Pow(1-h.decay, elapsed)
	c.value *= factor
	if c.value < 0 {
		c.value = 0
	}
	c.lastUpdate = now
}

// bump decays then increments the named resource's cell, clamping to
// max (§4.4).
func (h *heatMap) bump(resourceID string, now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.cells[resourceID]
	if !ok {
		c = &heatCell{lastUpdate: now}
		h.cells[resourceID] = c
	}
	h.decayLocked(c, now)
	c.value += h.increment
	if c.value > h.max {
		c.value = h.max
	}
}

// HeatSummary is the published view of the heat map.
type HeatSummary struct {
	HottestResource string
	HottestScore    float64
	TrackedCells    int
}

// summary decays every cell, prunes any below 0.01, and reports the
// hottest remaining resource (§4.4).
func (h *heatMap) summary(now time.Time) HeatSummary {
	h.mu.Lock()
	defer h.mu.Unlock()

	var hottestID string
	var hottestScore float64
	for id, c := range h.cells {
		h.decayLocked(c, now)
		if c.value < 0.01 {
			delete(h.cells, id)
			continue
		}
		if c.value > hottestScore {
			hottestScore = c.value
			hottestID = id
		}
	}
	return HeatSummary{
		HottestResource: hottestID,
		HottestScore:    hottestScore,
		TrackedCells:    len(h.cells),
	}
}
