// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package histogram

// Buffer is a per-dimension local accumulator used by the buffered update
// variant: rows stream their ±1 deltas into Buffer instead of touching
// front/back directly, then a single Flush pass adds the nonzero deltas.
// This is the one per-operation allocation the engine permits itself,
// sized B per dimension, and only for a batch large enough to be worth it.
type Buffer struct {
	deltas []int32
	touched []uint32 // bins with a nonzero delta, in first-touch order
}

// NewBuffer allocates a buffer sized for b bins.
func NewBuffer(b uint32) *Buffer {
	return &Buffer{deltas: make([]int32, b)}
}

// Accumulate adds delta to bin's pending count.
func (buf *Buffer) Accumulate(bin uint16, delta int32) {
	if buf.deltas[bin] == 0 {
		buf.touched = append(buf.touched, uint32(bin))
	}
	buf.deltas[bin] += delta
}

// Flush adds every nonzero pending delta into fine (and, if non-nil,
// coarse), then resets the buffer for reuse.
func (buf *Buffer) Flush(fine Pair, coarse *Coarse) {
	for _, bin := range buf.touched {
		d := buf.deltas[bin]
		if d == 0 {
			continue
		}
		fine.Add(uint16(bin), d)
		if coarse != nil {
			coarse.Add(uint16(bin), d)
		}
		buf.deltas[bin] = 0
	}
	buf.touched = buf.touched[:0]
}
