// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package idgen hands out process-wide monotonic identifiers. Ordering
// across ids is not significant, only uniqueness within a process
// lifetime — ids reset on restart, same as the teacher's node-local
// counters; the ledger sequence number is the durable, cross-restart
// identifier.
package idgen

import "sync/atomic"

// Counter is a process-wide monotonic uint64 generator starting at 1.
type Counter struct {
	n atomic.Uint64
}

// Next returns the next value, starting from 1.
func (c *Counter) Next() uint64 {
	return c.n.Add(1)
}
