// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package territory

import (
	"math"
	"sync"
)

// cellKey identifies a grid cell in the spatial index.
type cellKey struct {
	cx, cy int64
}

// spatialIndex buckets leases holding (x,y) coordinates into a uniform
// grid for per-cell membership queries (§4.4's optional feature).
// Leases without coordinates live in a separate non-spatial set.
type spatialIndex struct {
	mu          sync.Mutex
	cellSize    float64
	cells       map[cellKey]map[string]struct{} // cell -> resourceIDs
	nonSpatial  map[string]struct{}
}

func newSpatialIndex(cellSize float64) *spatialIndex {
	return &spatialIndex{
		cellSize:   cellSize,
		cells:      make(map[cellKey]map[string]struct{}),
		nonSpatial: make(map[string]struct{}),
	}
}

func (s *spatialIndex) keyFor(p Point) cellKey {
	return cellKey{
		cx: int64(math.Floor(p.X / s.cellSize)),
		cy: int64(math.Floor(p.Y / s.cellSize)),
	}
}

// insert adds resourceID to the cell containing p, or to the
// non-spatial set if p is nil.
func (s *spatialIndex) insert(resourceID string, p *Point) *cellKey {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p == nil {
		s.nonSpatial[resourceID] = struct{}{}
		return nil
	}
	key := s.keyFor(*p)
	bucket, ok := s.cells[key]
	if !ok {
		bucket = make(map[string]struct{})
		s.cells[key] = bucket
	}
	bucket[resourceID] = struct{}{}
	return &key
}

// remove deletes resourceID from wherever it was tracked.
func (s *spatialIndex) remove(resourceID string, key *cellKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key == nil {
		delete(s.nonSpatial, resourceID)
		return
	}
	if bucket, ok := s.cells[*key]; ok {
		delete(bucket, resourceID)
		if len(bucket) == 0 {
			delete(s.cells, *key)
		}
	}
}

// members returns every resourceID sharing the cell containing p.
func (s *spatialIndex) members(p Point) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.cells[s.keyFor(p)]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(bucket))
	for id := range bucket {
		out = append(out, id)
	}
	return out
}
