// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package broadcast implements the bounded, drop-slow-subscriber fan-out
// channel used by the ledger, router and territory manager (§5: "Broadcast
// channels have bounded capacity ... slow subscribers are dropped").
package broadcast

import "sync"

// Hub fans out values of type T to any number of subscribers. A
// subscriber that falls behind (its channel is full) is unregistered
// and its channel closed, rather than blocking the publisher or
// silently dropping individual messages for everyone else.
type Hub[T any] struct {
	mu       sync.Mutex
	capacity int
	nextID   uint64
	subs     map[uint64]chan T
}

// NewHub creates a Hub whose subscriber channels have the given
// buffered capacity.
func NewHub[T any](capacity int) *Hub[T] {
	return &Hub[T]{
		capacity: capacity,
		subs:     make(map[uint64]chan T),
	}
}

// Subscribe registers a new receiver and returns its channel plus an
// unsubscribe function. The channel is closed when unsubscribe is
// called, or automatically if the subscriber falls behind.
func (h *Hub[T]) Subscribe() (<-chan T, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan T, h.capacity)
	h.subs[id] = ch

	unsub := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	}
	return ch, unsub
}

// Publish delivers v to every current subscriber. Any subscriber whose
// channel is full is dropped.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		select {
		case ch <- v:
		default:
			delete(h.subs, id)
			close(ch)
		}
	}
}

// Len returns the current subscriber count.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
