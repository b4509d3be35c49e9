// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package activator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crossfilterx/crossfilterx/activemask"
	"github.com/crossfilterx/crossfilterx/dimension"
	"github.com/crossfilterx/crossfilterx/histogram"
	"github.com/crossfilterx/crossfilterx/layout"
	"github.com/crossfilterx/crossfilterx/quantize"
)

func setup(t *testing.T, n int, bins uint32, mode histogram.Mode) (*Activator, *dimension.Dimension) {
	t.Helper()
	a, err := layout.NewArena(8192)
	require.NoError(t, err)
	mask := activemask.New(a, n)
	scale := quantize.NewScale(0, float64(bins-1), 4)
	d := dimension.NewNumeric(a, "x", n, scale, bins, 0)
	for r := 0; r < n; r++ {
		d.Column.Set(uint32(r), uint16(r)%uint16(bins))
	}
	act := New(mask, []*dimension.Dimension{d}, mode)
	return act, d
}

func TestActivateDeactivateSingleRowIsIdempotent(t *testing.T) {
	act, d := setup(t, 8, 4, histogram.ModeDirect)

	act.Activate(0)
	act.Activate(0) // no-op
	require.Equal(t, 1, act.ActiveCount())
	require.Equal(t, uint32(1), d.Fine.Front[d.Column.Get(0)])

	act.Deactivate(0)
	act.Deactivate(0) // no-op
	require.Equal(t, 0, act.ActiveCount())
	require.Equal(t, uint32(0), d.Fine.Front[d.Column.Get(0)])
}

func TestActivateRowsOnlyTogglesUnsetRows(t *testing.T) {
	act, d := setup(t, 8, 4, histogram.ModeDirect)
	act.Activate(2)
	toggled := act.ActivateRows([]uint32{0, 1, 2, 3})
	require.Equal(t, 3, toggled) // row 2 already active
	require.Equal(t, 4, act.ActiveCount())
	_ = d
}

func TestDirectBufferedSIMDProduceIdenticalHistograms(t *testing.T) {
	rows := []uint32{0, 1, 2, 3, 4, 5, 6, 7}
	modes := []histogram.Mode{histogram.ModeDirect, histogram.ModeBuffered, histogram.ModeSIMD}
	var fronts [][]uint32
	for _, m := range modes {
		act, d := setup(t, 8, 4, m)
		act.ActivateRows(rows)
		front := append([]uint32(nil), d.Fine.Front...)
		fronts = append(fronts, front)
	}
	require.Equal(t, fronts[0], fronts[1])
	require.Equal(t, fronts[0], fronts[2])
}

func TestAddDimensionAfterConstructionIsMaintained(t *testing.T) {
	a, err := layout.NewArena(8192)
	require.NoError(t, err)
	mask := activemask.New(a, 4)
	act := New(mask, nil, histogram.ModeDirect)

	scale := quantize.NewScale(0, 3, 4)
	d := dimension.NewNumeric(a, "late", 4, scale, 4, 0)
	for r := 0; r < 4; r++ {
		d.Column.Set(uint32(r), uint16(r))
	}
	act.AddDimension(d)

	act.Activate(2)
	require.Equal(t, uint32(1), d.Fine.Front[2])
}
