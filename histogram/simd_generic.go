// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

//go:build !amd64 || appengine

package histogram

// addInt32ToUint32 is the portable fallback: a straight per-element loop.
// Same observable result as the amd64 variant — the implementation is
// platform-dependent, the result never is.
func addInt32ToUint32(deltas []int32, counts []uint32) {
	for i, d := range deltas {
		counts[i] = addDelta(counts[i], d)
	}
}
