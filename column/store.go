// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package column implements the quantized column store: one dense
// uint16-per-row array per dimension, carved out of a shared layout.Arena
// at 2 bytes per row.
package column

import (
	"unsafe"

	"github.com/crossfilterx/crossfilterx/layout"
)

// Column is a dense array of N bin indices for one dimension, backed by
// 2*N bytes of a shared arena.
type Column struct {
	bins []uint16
}

// New carves a fresh, zeroed column of n rows out of arena.
func New(arena *layout.Arena, n int) Column {
	raw := arena.Alloc(n * 2)
	return Column{bins: bytesToUint16(raw)}
}

// Set stores bin b for row r. Callers are responsible for ensuring b is
// already in [0, 2^bits) — Column performs no clamping of its own (that's
// the Quantizer's job).
func (c Column) Set(r uint32, b uint16) {
	c.bins[r] = b
}

// Get returns the bin stored for row r.
func (c Column) Get(r uint32) uint16 {
	return c.bins[r]
}

// Len returns the number of rows in the column.
func (c Column) Len() int {
	return len(c.bins)
}

// Raw exposes the underlying dense array, e.g. for the CSR index's counting
// sort or for a zero-copy reader.
func (c Column) Raw() []uint16 {
	return c.bins
}

// bytesToUint16 reinterprets an arena-backed byte slice (allocated 8-byte
// aligned, so also 2-byte aligned) as a []uint16 of half the length,
// without copying.
func bytesToUint16(b []byte) []uint16 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*uint16)(unsafe.Pointer(&b[0])), len(b)/2)
}
