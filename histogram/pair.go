// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package histogram implements the per-dimension bin counters (front/back,
// and optional coarse) and the direct/buffered/SIMD update variants that
// maintain them.
package histogram

import (
	"unsafe"

	"github.com/crossfilterx/crossfilterx/layout"
)

// Pair is the {front, back} counter pair for one dimension's fine
// histogram. front is authoritative; back mirrors it, kept only to
// preserve the shape of a future double-buffered swap — this
// implementation always keeps the two equal.
type Pair struct {
	Front []uint32
	Back  []uint32
}

// New carves a fresh, zeroed {front,back} pair of b counters each out of
// arena.
func New(arena *layout.Arena, b uint32) Pair {
	raw := arena.Alloc(int(b) * 4 * 2)
	words := bytesToUint32(raw)
	return Pair{Front: words[:b], Back: words[b : 2*b]}
}

// B returns the number of bins.
func (p Pair) B() uint32 {
	return uint32(len(p.Front))
}

// Add applies delta to bin's counter in both front and back.
func (p Pair) Add(bin uint16, delta int32) {
	p.Front[bin] = addDelta(p.Front[bin], delta)
	p.Back[bin] = addDelta(p.Back[bin], delta)
}

// Zero resets every counter to 0.
func (p Pair) Zero() {
	for i := range p.Front {
		p.Front[i] = 0
		p.Back[i] = 0
	}
}

// Sum returns Σ front[i], used in tests to check that a histogram's total
// count agrees with the active row count.
func (p Pair) Sum() uint64 {
	var s uint64
	for _, c := range p.Front {
		s += uint64(c)
	}
	return s
}

func addDelta(c uint32, delta int32) uint32 {
	if delta >= 0 {
		return c + uint32(delta)
	}
	d := uint32(-delta)
	if d > c {
		// Never observed in a correctly driven engine (refcount/mask keep
		// deltas balanced); clamp defensively rather than wrap.
		return 0
	}
	return c - d
}

func bytesToUint32(b []byte) []uint32 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&b[0])), len(b)/4)
}
