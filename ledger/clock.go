// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"sync"
	"time"
)

// LogicalClock is a (wall, counter) hybrid logical clock: it tracks
// wall time but guarantees strictly increasing timestamps even when the
// wall clock stalls or rewinds, per §4.2.
type LogicalClock struct {
	WallMS  int64  `json:"wallMs"`
	Counter uint32 `json:"counter"`
}

// hybridClock is the mutable clock instance owned by a single Ledger.
type hybridClock struct {
	mu      sync.Mutex
	lastMS  int64
	counter uint32
}

// tick advances the clock using the supplied wall time and returns the
// resulting logical timestamp.
func (h *hybridClock) tick(now time.Time) LogicalClock {
	w := now.UnixMilli()

	h.mu.Lock()
	defer h.mu.Unlock()

	if w > h.lastMS {
		h.lastMS = w
		h.counter = 0
	} else {
		if h.counter != ^uint32(0) {
			h.counter++
		}
	}
	return LogicalClock{WallMS: h.lastMS, Counter: h.counter}
}
