// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import "sync"

// tierQueue is a FIFO queue for a single priority tier, guarded by its
// own lock per §5 ("the router uses one lock per tier plus one lock
// per token bucket").
type tierQueue struct {
	mu    sync.Mutex
	items []*Message
}

// push appends m to the tail.
func (q *tierQueue) push(m *Message) {
	q.mu.Lock()
	q.items = append(q.items, m)
	q.mu.Unlock()
}

// popFront removes and returns the head, or nil if empty.
func (q *tierQueue) popFront() *Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	m := q.items[0]
	q.items = q.items[1:]
	return m
}

// peekFront returns the head without removing it, or nil if empty.
func (q *tierQueue) peekFront() *Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// len returns the current depth.
func (q *tierQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// extractMatching removes every entry for which match returns true,
// preserving the relative FIFO order of the remaining entries, and
// returns the removed entries in their original order. Used by the
// aging sweep (§4.1), which promotes qualifying entries out of their
// current tier.
func (q *tierQueue) extractMatching(match func(*Message) bool) []*Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	var kept, removed []*Message
	for _, m := range q.items {
		if match(m) {
			removed = append(removed, m)
		} else {
			kept = append(kept, m)
		}
	}
	q.items = kept
	return removed
}
