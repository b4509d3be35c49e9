// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package csrindex builds a compressed-sparse-row index over a quantized
// column, grouping row ids by bin so that a range scan over bins touches
// exactly the matching rows. The field names echo the indptr/ind
// convention a compressed-sparse-row matrix uses elsewhere in the Go
// ecosystem (e.g. gonum/sparse's compressedSparse).
package csrindex

// Index is a CSR index over one dimension's quantized column.
type Index struct {
	// RowIDsByBin holds every row id, grouped by bin; rows in bin b occupy
	// RowIDsByBin[BinOffsets[b]:BinOffsets[b+1]].
	RowIDsByBin []uint32
	// BinOffsets has length B+1. BinOffsets[0]=0, BinOffsets[B]=N, monotone
	// non-decreasing.
	BinOffsets []uint32
}

// Build constructs a CSR index for column (length N, values in [0,b)) via a
// two-pass counting sort: O(N+b).
func Build(column []uint16, b uint32) *Index {
	n := len(column)
	offsets := make([]uint32, b+1)
	for _, bin := range column {
		offsets[bin+1]++
	}
	for i := uint32(1); i <= b; i++ {
		offsets[i] += offsets[i-1]
	}
	rowIDs := make([]uint32, n)
	cursor := make([]uint32, b)
	copy(cursor, offsets[:b])
	for r, bin := range column {
		pos := cursor[bin]
		rowIDs[pos] = uint32(r)
		cursor[bin]++
	}
	return &Index{RowIDsByBin: rowIDs, BinOffsets: offsets}
}

// Scan calls fn for every row whose bin lies in [lo,hi] (inclusive), in
// increasing-bin order. lo/hi are assumed already clamped to [0,B-1] by the
// caller.
func (idx *Index) Scan(lo, hi uint16, fn func(row uint32)) {
	if hi < lo {
		return
	}
	start := idx.BinOffsets[lo]
	end := idx.BinOffsets[uint32(hi)+1]
	for _, r := range idx.RowIDsByBin[start:end] {
		fn(r)
	}
}

// BinCount returns the number of rows in a single bin.
func (idx *Index) BinCount(b uint16) uint32 {
	return idx.BinOffsets[uint32(b)+1] - idx.BinOffsets[b]
}

// RangeCount returns the number of rows whose bin lies in [lo,hi].
func (idx *Index) RangeCount(lo, hi uint16) uint32 {
	if hi < lo {
		return 0
	}
	return idx.BinOffsets[uint32(hi)+1] - idx.BinOffsets[lo]
}

// N returns the total number of rows indexed.
func (idx *Index) N() int {
	return len(idx.RowIDsByBin)
}
