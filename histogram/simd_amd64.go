// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

//go:build amd64 && !appengine

package histogram

import "github.com/grailbio/base/simd"

// wordsPerVec is how many int32/uint32 lanes fit in the machine word width
// base/simd reports, the same compile-time constant biosimd_amd64.go
// recomputes locally rather than importing simd's private values directly.
const wordsPerVec = simd.BytesPerWord / 4

// addInt32ToUint32 adds deltas[i] into counts[i] for every i, unrolled
// wordsPerVec-at-a-time the way biosimd's pack/unpack routines are unrolled
// over machine words. The Go compiler autovectorizes this shape reasonably
// well on amd64; a true hand-written assembly kernel (as biosimd has for
// seq packing) isn't warranted here since the accumulate-then-flush
// strategy already amortizes the per-call overhead that assembly would
// target.
func addInt32ToUint32(deltas []int32, counts []uint32) {
	n := len(deltas)
	i := 0
	for ; i+wordsPerVec <= n; i += wordsPerVec {
		for j := 0; j < wordsPerVec; j++ {
			counts[i+j] = addDelta(counts[i+j], deltas[i+j])
		}
	}
	for ; i < n; i++ {
		counts[i] = addDelta(counts[i], deltas[i])
	}
}
