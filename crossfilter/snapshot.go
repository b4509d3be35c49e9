// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package crossfilter

import (
	"unsafe"

	"github.com/crossfilterx/crossfilterx/layout"
	"github.com/crossfilterx/crossfilterx/protocol"
)

// Snapshot builds the GroupSnapshot set for a READY/FRAME reply: one entry
// per dimension, in the order dimensions were added.
func (e *Engine) Snapshot() []protocol.GroupSnapshot {
	out := make([]protocol.GroupSnapshot, 0, len(e.FE.Order))
	for _, name := range e.FE.Order {
		d := e.FE.Dims[name]
		base := dimensionArenaBytes(e.FE.DimArena[name])
		g := protocol.GroupSnapshot{
			ID:       name,
			Bins:     ref(base, d.Fine.Front),
			BinCount: d.Fine.B(),
			Count:    uint64(sum(d.Fine.Front)),
		}
		if d.Coarse != nil {
			cref := ref(base, d.Coarse.Front)
			g.CoarseBins = &cref
			g.CoarseBinCount = d.Coarse.B()
		}
		if d.Reduction != nil {
			// Reductions are attached after ingest, out of a plain heap
			// allocation rather than an arena, so there's no zero-copy arena
			// offset to report — ByteOffset is a sentinel (-1) and only
			// ByteLength is meaningful to the orchestrator.
			g.Sum = &protocol.SharedBufferRef{ByteOffset: -1, ByteLength: len(d.Reduction.Front) * 8}
		}
		out = append(out, g)
	}
	return out
}

// dimensionArenaBytes returns arena's backing bytes, or nil if arena is
// nil — a dimension should always have one registered, but ref() already
// treats a nil/empty base as "no offset available" rather than panicking.
func dimensionArenaBytes(arena *layout.Arena) []byte {
	if arena == nil {
		return nil
	}
	return arena.Bytes()
}

// ref computes a SharedBufferRef for a uint32 slice carved out of base: the
// front/back pair occupies one contiguous arena region of 2*len(front)
// counters (histogram.New allocates them together), so the ref spans both.
func ref(base []byte, front []uint32) protocol.SharedBufferRef {
	if len(base) == 0 || len(front) == 0 {
		return protocol.SharedBufferRef{}
	}
	offset := int(uintptr(unsafe.Pointer(&front[0])) - uintptr(unsafe.Pointer(&base[0])))
	return protocol.SharedBufferRef{ByteOffset: offset, ByteLength: len(front) * 4 * 2}
}

func sum(counts []uint32) uint64 {
	var s uint64
	for _, c := range counts {
		s += uint64(c)
	}
	return s
}
