// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package filterengine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crossfilterx/crossfilterx/histogram"
	"github.com/crossfilterx/crossfilterx/layout"
	"github.com/crossfilterx/crossfilterx/quantize"
)

func mustArena(t *testing.T, size int) *layout.Arena {
	t.Helper()
	a, err := layout.NewArena(size)
	require.NoError(t, err)
	return a
}

// TestRecomputeAfterSimpleFilter checks that a single range filter on one
// dimension recomputes the mask and histogram to match the expected subset.
func TestRecomputeAfterSimpleFilter(t *testing.T) {
	a := mustArena(t, 1<<16)
	e := New(a, 4, histogram.ModeDirect, true)
	scale := quantize.NewScale(1, 4, 4) // B=16
	d := e.AddNumericDimension("value", scale, 16, 0)
	values := []float64{1, 2, 3, 4}
	for r, v := range values {
		d.QuantizeNumeric(uint32(r), v)
	}
	e.FullRecompute()

	wantBins := []uint32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	require.Equal(t, wantBins, d.Fine.Front)
	require.Equal(t, 4, e.Mask.PopCount())

	require.NoError(t, e.SetFilter("value", 5, 10))
	require.Equal(t, 2, e.Mask.PopCount())
	wantAfter := []uint32{0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0}
	require.Equal(t, wantAfter, d.Fine.Front)
}

// TestCSRDeltaHandlesWideningAndNarrowing checks that re-applying
// SetFilter with a wider then a narrower range, then ClearFilter, tracks
// the active row count correctly through the CSR delta path each time.
func TestCSRDeltaHandlesWideningAndNarrowing(t *testing.T) {
	a := mustArena(t, 1<<16)
	e := New(a, 6, histogram.ModeDirect, true)
	scale := quantize.NewScale(0, 5, 4) // B=16, q(v)=round(3v)
	d := e.AddNumericDimension("value", scale, 16, 0)
	for r := 0; r < 6; r++ {
		d.QuantizeNumeric(uint32(r), float64(r))
	}
	e.FullRecompute()

	q := func(v int) uint16 { return scale.Quantize(float64(v)) }

	require.NoError(t, e.SetFilter("value", q(1), q(4)))
	require.Equal(t, 4, e.Mask.PopCount())

	require.NoError(t, e.SetFilter("value", q(2), q(3)))
	require.Equal(t, 2, e.Mask.PopCount())

	require.NoError(t, e.ClearFilter("value"))
	require.Equal(t, 6, e.Mask.PopCount())
}

// TestMultiDimensionalIntersectionNarrowsActiveSet checks that filters on
// two independent dimensions intersect via the refcount mask.
func TestMultiDimensionalIntersectionNarrowsActiveSet(t *testing.T) {
	a := mustArena(t, 1<<16)
	e := New(a, 4, histogram.ModeDirect, true)
	scaleA := quantize.NewScale(0, 3, 4)
	scaleB := quantize.NewScale(10, 13, 4)
	da := e.AddNumericDimension("a", scaleA, 16, 0)
	db := e.AddNumericDimension("b", scaleB, 16, 0)
	for r := 0; r < 4; r++ {
		da.QuantizeNumeric(uint32(r), float64(r))
		db.QuantizeNumeric(uint32(r), float64(10+r))
	}
	e.FullRecompute()

	require.NoError(t, e.SetFilter("a", scaleA.Quantize(1), scaleA.Quantize(3)))
	require.NoError(t, e.SetFilter("b", scaleB.Quantize(12), scaleB.Quantize(13)))
	require.Equal(t, 2, e.Mask.PopCount())
}

// TestHistogramSumTracksActiveCount checks Σ front[b] == activeCount for
// every histogrammed dimension, across a sequence of filter mutations.
func TestHistogramSumTracksActiveCount(t *testing.T) {
	a := mustArena(t, 1<<16)
	e := New(a, 6, histogram.ModeDirect, true)
	scale := quantize.NewScale(0, 5, 4)
	d := e.AddNumericDimension("value", scale, 16, 0)
	for r := 0; r < 6; r++ {
		d.QuantizeNumeric(uint32(r), float64(r))
	}
	e.FullRecompute()
	checkSumMatchesActiveCount := func() {
		require.Equal(t, uint64(e.Mask.PopCount()), d.Fine.Sum())
	}
	checkSumMatchesActiveCount()
	require.NoError(t, e.SetFilter("value", scale.Quantize(1), scale.Quantize(4)))
	checkSumMatchesActiveCount()
	require.NoError(t, e.SetFilter("value", scale.Quantize(2), scale.Quantize(3)))
	checkSumMatchesActiveCount()
	require.NoError(t, e.ClearFilter("value"))
	checkSumMatchesActiveCount()
}

// TestActiveMaskAgreesWithRefcount checks activeMask[r]==1 iff
// refcount[r]==F across a two-dimension intersection.
func TestActiveMaskAgreesWithRefcount(t *testing.T) {
	a := mustArena(t, 1<<16)
	e := New(a, 4, histogram.ModeDirect, true)
	scaleA := quantize.NewScale(0, 3, 4)
	scaleB := quantize.NewScale(10, 13, 4)
	da := e.AddNumericDimension("a", scaleA, 16, 0)
	db := e.AddNumericDimension("b", scaleB, 16, 0)
	for r := 0; r < 4; r++ {
		da.QuantizeNumeric(uint32(r), float64(r))
		db.QuantizeNumeric(uint32(r), float64(10+r))
	}
	e.FullRecompute()

	require.NoError(t, e.SetFilter("a", scaleA.Quantize(1), scaleA.Quantize(3)))
	require.NoError(t, e.SetFilter("b", scaleB.Quantize(12), scaleB.Quantize(13)))

	f := e.activeFilterCount()
	require.Equal(t, 2, f)
	for r := uint32(0); r < 4; r++ {
		require.Equal(t, e.Mask.Get(r), e.Refcount[r] == uint32(f))
	}
}

// TestActiveRowsStayWithinFilterRange checks that every active row's bin
// lies within its dimension's active filter range.
func TestActiveRowsStayWithinFilterRange(t *testing.T) {
	a := mustArena(t, 1<<16)
	e := New(a, 6, histogram.ModeDirect, true)
	scale := quantize.NewScale(0, 5, 4)
	d := e.AddNumericDimension("value", scale, 16, 0)
	for r := 0; r < 6; r++ {
		d.QuantizeNumeric(uint32(r), float64(r))
	}
	e.FullRecompute()
	lo, hi := scale.Quantize(1), scale.Quantize(4)
	require.NoError(t, e.SetFilter("value", lo, hi))

	for r := uint32(0); r < 6; r++ {
		if e.Mask.Get(r) {
			bin := d.Column.Get(r)
			require.GreaterOrEqual(t, bin, lo)
			require.LessOrEqual(t, bin, hi)
		}
	}
}

// TestSetFilterConvergesRegardlessOfPriorFilter checks that applying
// SetFilter(R2) after SetFilter(R1) yields the same histogram state as
// applying SetFilter(R2) directly from no filter.
func TestSetFilterConvergesRegardlessOfPriorFilter(t *testing.T) {
	build := func() (*Engine, *struct{}) {
		a := mustArena(t, 1<<16)
		e := New(a, 6, histogram.ModeDirect, true)
		scale := quantize.NewScale(0, 5, 4)
		d := e.AddNumericDimension("value", scale, 16, 0)
		for r := 0; r < 6; r++ {
			d.QuantizeNumeric(uint32(r), float64(r))
		}
		e.FullRecompute()
		return e, nil
	}
	scale := quantize.NewScale(0, 5, 4)

	e1, _ := build()
	require.NoError(t, e1.SetFilter("value", scale.Quantize(0), scale.Quantize(5)))
	require.NoError(t, e1.SetFilter("value", scale.Quantize(2), scale.Quantize(3)))

	e2, _ := build()
	require.NoError(t, e2.SetFilter("value", scale.Quantize(2), scale.Quantize(3)))

	d1 := e1.Dims["value"]
	d2 := e2.Dims["value"]
	require.Equal(t, d1.Fine.Front, d2.Fine.Front)
	require.Equal(t, e1.Mask.PopCount(), e2.Mask.PopCount())
}

// TestClearFilterRestoresPriorHistogram checks that SetFilter then
// ClearFilter restores the pre-filter histogram bin-exactly.
func TestClearFilterRestoresPriorHistogram(t *testing.T) {
	a := mustArena(t, 1<<16)
	e := New(a, 6, histogram.ModeDirect, true)
	scale := quantize.NewScale(0, 5, 4)
	d := e.AddNumericDimension("value", scale, 16, 0)
	for r := 0; r < 6; r++ {
		d.QuantizeNumeric(uint32(r), float64(r))
	}
	e.FullRecompute()

	before := append([]uint32(nil), d.Fine.Front...)
	require.NoError(t, e.SetFilter("value", scale.Quantize(2), scale.Quantize(3)))
	require.NoError(t, e.ClearFilter("value"))
	require.Equal(t, before, d.Fine.Front)
}

func TestUnknownDimensionErrors(t *testing.T) {
	a := mustArena(t, 1024)
	e := New(a, 4, histogram.ModeDirect, true)
	require.Error(t, e.SetFilter("nope", 0, 1))
	require.Error(t, e.ClearFilter("nope"))
	_, err := e.TopK("nope", 3, false)
	require.Error(t, err)
}
