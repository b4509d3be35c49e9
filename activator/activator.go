// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package activator implements the Row Activator: the sole writer of
// per-row changes to the active mask, every dimension's histograms, and
// every attached reduction. The filter engine's full recompute zeroes those
// structures directly before re-activating rows through the Activator.
package activator

import (
	"github.com/crossfilterx/crossfilterx/activemask"
	"github.com/crossfilterx/crossfilterx/dimension"
	"github.com/crossfilterx/crossfilterx/histogram"
)

// Activator mutates the active mask and the per-dimension derived state in
// lockstep, choosing a histogram update strategy (direct/buffered/SIMD) per
// batch.
type Activator struct {
	mask *activemask.Mask
	dims []*dimension.Dimension
	mode histogram.Mode
}

// New creates an Activator over mask and dims, using mode to decide the
// histogram update strategy for batched activation.
func New(mask *activemask.Mask, dims []*dimension.Dimension, mode histogram.Mode) *Activator {
	return &Activator{mask: mask, dims: dims, mode: mode}
}

// SetMode changes the histogram update strategy for subsequent batches.
func (a *Activator) SetMode(mode histogram.Mode) {
	a.mode = mode
}

// AddDimension registers a newly appended dimension so future activate/
// deactivate calls maintain its histogram too.
func (a *Activator) AddDimension(d *dimension.Dimension) {
	a.dims = append(a.dims, d)
}

// ActiveCount returns the number of currently active rows.
func (a *Activator) ActiveCount() int {
	return a.mask.PopCount()
}

// Activate marks row active (a no-op if already active) and folds its
// contribution into every dimension's histogram/reduction.
func (a *Activator) Activate(row uint32) {
	if a.mask.Get(row) {
		return
	}
	a.mask.Set(row)
	a.applyDelta([]uint32{row}, 1)
}

// Deactivate marks row inactive (a no-op if already inactive) and removes
// its contribution from every dimension's histogram/reduction.
func (a *Activator) Deactivate(row uint32) {
	if !a.mask.Get(row) {
		return
	}
	a.mask.Clear(row)
	a.applyDelta([]uint32{row}, -1)
}

// ActivateRows marks every not-yet-active row in rows active, in one batch,
// and returns the number actually toggled.
func (a *Activator) ActivateRows(rows []uint32) int {
	toggled := a.filterToggled(rows, true)
	for _, r := range toggled {
		a.mask.Set(r)
	}
	a.applyDelta(toggled, 1)
	return len(toggled)
}

// DeactivateRows marks every currently-active row in rows inactive, in one
// batch, and returns the number actually toggled.
func (a *Activator) DeactivateRows(rows []uint32) int {
	toggled := a.filterToggled(rows, false)
	for _, r := range toggled {
		a.mask.Clear(r)
	}
	a.applyDelta(toggled, -1)
	return len(toggled)
}

// filterToggled keeps only the rows whose mask bit actually needs to flip:
// wantActive true keeps currently-inactive rows (candidates to activate),
// false keeps currently-active rows (candidates to deactivate).
func (a *Activator) filterToggled(rows []uint32, wantActive bool) []uint32 {
	out := make([]uint32, 0, len(rows))
	for _, r := range rows {
		if a.mask.Get(r) != wantActive {
			out = append(out, r)
		}
	}
	return out
}

// applyDelta folds sign (+1 activate, -1 deactivate) for every row in rows
// into each dimension's histogram and reduction, picking the update
// strategy via histogram.ShouldBuffer.
func (a *Activator) applyDelta(rows []uint32, sign int32) {
	if len(rows) == 0 {
		return
	}
	buffered := histogram.ShouldBuffer(a.mode, len(rows), len(a.dims))
	for _, d := range a.dims {
		switch {
		case a.mode == histogram.ModeSIMD:
			simdApply(d, rows, sign)
		case buffered:
			bufferedApply(d, rows, sign)
		default:
			directApply(d, rows, sign)
		}
		if d.Reduction != nil {
			applyReduction(d, rows, sign)
		}
	}
}

func directApply(d *dimension.Dimension, rows []uint32, sign int32) {
	for _, r := range rows {
		bin := d.Column.Get(r)
		d.Fine.Add(bin, sign)
		if d.Coarse != nil {
			d.Coarse.Add(bin, sign)
		}
	}
}

func bufferedApply(d *dimension.Dimension, rows []uint32, sign int32) {
	buf := histogram.NewBuffer(d.Bins)
	for _, r := range rows {
		buf.Accumulate(d.Column.Get(r), sign)
	}
	buf.Flush(d.Fine, d.Coarse)
}

func simdApply(d *dimension.Dimension, rows []uint32, sign int32) {
	buf := histogram.NewSIMDBuffer(d.Bins)
	for _, r := range rows {
		buf.Accumulate(d.Column.Get(r), sign)
	}
	buf.Flush(d.Fine, d.Coarse)
}

func applyReduction(d *dimension.Dimension, rows []uint32, sign int32) {
	for _, r := range rows {
		bin := d.Column.Get(r)
		d.Reduction.Add(bin, float64(sign)*d.Reduction.ValueAt(r))
	}
}
