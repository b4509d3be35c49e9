// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package histogram

import "github.com/crossfilterx/crossfilterx/layout"

// Coarse is a low-resolution {front,back} view over the same row
// population as a fine Pair, with Bc ≤ B bins. Bin b of the fine histogram
// maps to coarse bin b/Factor (integer division).
type Coarse struct {
	Pair
	Factor uint32
}

// NewCoarse carves a coarse pair with bc bins for a fine histogram of b
// bins. Factor = ceil(b/bc).
func NewCoarse(arena *layout.Arena, b, bc uint32) Coarse {
	factor := (b + bc - 1) / bc
	return Coarse{Pair: New(arena, bc), Factor: factor}
}

// CoarseBin maps a fine bin index down to its coarse bin.
func (c Coarse) CoarseBin(fine uint16) uint16 {
	return uint16(uint32(fine) / c.Factor)
}

// Add applies delta to the coarse bin that fine maps to.
func (c Coarse) Add(fine uint16, delta int32) {
	c.Pair.Add(c.CoarseBin(fine), delta)
}

// RebuildFrom recomputes every coarse counter as Σ of the fine counters
// that map to it — a final-pass rebuild, kept as an alternative to
// maintaining coarse incrementally during activate/deactivate.
func (c Coarse) RebuildFrom(fine Pair) {
	c.Pair.Zero()
	for b, count := range fine.Front {
		if count == 0 {
			continue
		}
		cb := c.CoarseBin(uint16(b))
		c.Front[cb] += count
		c.Back[cb] += count
	}
}
