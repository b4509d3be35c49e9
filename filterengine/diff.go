// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package filterengine

import "github.com/crossfilterx/crossfilterx/dimension"

// Range is an inclusive bin range.
type Range struct {
	Lo, Hi uint16
}

// diffRanges computes the symmetric difference of prev and next as
// added/removed ranges, grounded on interval/endpoint_index.go's
// endpoint-sequence scan technique, adapted from a union-of-many-intervals
// scan to a two-interval symmetric difference. A Filter with Hi < Lo
// (after clamping) is treated as an empty range — it matches no bins.
func diffRanges(prev, next dimension.Filter) (added, removed []Range) {
	prevEmpty := !prev.Active || prev.Hi < prev.Lo
	nextEmpty := !next.Active || next.Hi < next.Lo

	switch {
	case prevEmpty && nextEmpty:
		return nil, nil
	case prevEmpty:
		return []Range{{next.Lo, next.Hi}}, nil
	case nextEmpty:
		return nil, []Range{{prev.Lo, prev.Hi}}
	}

	a0, a1 := prev.Lo, prev.Hi
	b0, b1 := next.Lo, next.Hi
	oLo, oHi := maxU16(a0, b0), minU16(a1, b1)

	if oLo > oHi {
		// Disjoint: the whole of prev is removed, the whole of next added.
		return []Range{{b0, b1}}, []Range{{a0, a1}}
	}

	if a0 < b0 {
		removed = append(removed, Range{a0, b0 - 1})
	}
	if a1 > b1 {
		removed = append(removed, Range{b1 + 1, a1})
	}
	if b0 < a0 {
		added = append(added, Range{b0, a0 - 1})
	}
	if b1 > a1 {
		added = append(added, Range{a1 + 1, b1})
	}
	return added, removed
}

func maxU16(a, b uint16) uint16 {
	if a > b {
		return a
	}
	return b
}

func minU16(a, b uint16) uint16 {
	if a < b {
		return a
	}
	return b
}
