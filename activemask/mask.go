// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package activemask implements the engine's active-row bitmap: one bit per
// row, set iff the row currently satisfies every installed filter. The
// bit-twiddling here mirrors the word/byte indexing circular.Bitmap builds
// on top of github.com/grailbio/base/bitset, specialized to the flat
// (non-circular), arena-backed case this engine needs: the mask has to be a
// byte-exact view over the shared arena, not an API that owns its own
// word slice the way bitset.Set does.
package activemask

import "github.com/crossfilterx/crossfilterx/layout"

// Mask is a dense bit-per-row array of ⌈N/8⌉ bytes.
type Mask struct {
	bits []byte
	n    int
}

// New carves a fresh, zeroed mask of n rows out of arena.
func New(arena *layout.Arena, n int) *Mask {
	nbytes := (n + 7) / 8
	return &Mask{bits: arena.Alloc(nbytes), n: n}
}

// Get reports whether row r is active.
func (m *Mask) Get(r uint32) bool {
	return m.bits[r>>3]&(1<<(r&7)) != 0
}

// Set marks row r active.
func (m *Mask) Set(r uint32) {
	m.bits[r>>3] |= 1 << (r & 7)
}

// Clear marks row r inactive.
func (m *Mask) Clear(r uint32) {
	m.bits[r>>3] &^= 1 << (r & 7)
}

// Zero resets every bit to inactive.
func (m *Mask) Zero() {
	for i := range m.bits {
		m.bits[i] = 0
	}
}

// Len returns the number of rows the mask covers.
func (m *Mask) Len() int {
	return m.n
}

// PopCount returns the number of set bits, i.e. the active row count that
// the Activator and the engine report.
func (m *Mask) PopCount() int {
	n := 0
	for _, b := range m.bits {
		n += popcount8(b)
	}
	return n
}

func popcount8(b byte) int {
	n := 0
	for b != 0 {
		b &= b - 1
		n++
	}
	return n
}
