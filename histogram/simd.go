// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package histogram

// SIMDBuffer is the vectorized-accumulator flavor of Buffer: instead of
// tracking which bins were touched, it keeps one int32 delta slot per bin
// (dense, not sparse) and flushes with a vectorized add across the whole
// range. This pays off once enough bins are touched that the touched-list
// bookkeeping in Buffer stops being worth it — exactly the regime
// ShouldBuffer's thresholds are tuned for.
type SIMDBuffer struct {
	deltas []int32
}

// NewSIMDBuffer allocates a dense delta buffer for b bins.
func NewSIMDBuffer(b uint32) *SIMDBuffer {
	return &SIMDBuffer{deltas: make([]int32, b)}
}

// Accumulate adds delta to bin's pending count.
func (s *SIMDBuffer) Accumulate(bin uint16, delta int32) {
	s.deltas[bin] += delta
}

// Flush vectorized-adds the pending deltas into fine (front and back), adds
// them into coarse via the ordinary per-bin mapping (coarse has fewer bins
// than fine, so there's no matching dense vector to add against), then
// zeroes the delta buffer for reuse. See simd_amd64.go / simd_generic.go for
// the two addInt32ToUint32 implementations.
func (s *SIMDBuffer) Flush(fine Pair, coarse *Coarse) {
	if coarse != nil {
		for bin, d := range s.deltas {
			if d != 0 {
				coarse.Add(uint16(bin), d)
			}
		}
	}
	addInt32ToUint32(s.deltas, fine.Front)
	addInt32ToUint32(s.deltas, fine.Back)
	for i := range s.deltas {
		s.deltas[i] = 0
	}
}
