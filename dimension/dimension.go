// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package dimension composes one filterable axis of the dataset: its
// quantizer, its quantized column, its fine/coarse histograms, its lazily
// built CSR index, an optional reduction, and its own filter/index state
// machine.
package dimension

import (
	"github.com/crossfilterx/crossfilterx/column"
	"github.com/crossfilterx/crossfilterx/csrindex"
	"github.com/crossfilterx/crossfilterx/histogram"
	"github.com/crossfilterx/crossfilterx/layout"
	"github.com/crossfilterx/crossfilterx/quantize"
	"github.com/crossfilterx/crossfilterx/reduction"
)

// IndexState tracks whether a dimension's CSR index has been built yet.
// It only ever moves Unindexed -> Indexed.
type IndexState int

const (
	Unindexed IndexState = iota
	Indexed
)

// Filter is the current range restriction on a dimension, or the absence of
// one (Active == false means NoFilter).
type Filter struct {
	Active bool
	Lo, Hi uint16
}

// Dimension is one filterable column plus everything derived from it.
type Dimension struct {
	Name string

	// Numeric dimensions carry Scale; categorical ones carry Dictionary.
	// Exactly one is non-nil.
	Scale      *quantize.Scale
	Dictionary *quantize.Dictionary

	Column Column
	Bins   uint32

	Fine   histogram.Pair
	Coarse *histogram.Coarse // nil unless a coarse resolution was requested

	indexState IndexState
	Index      *csrindex.Index

	Reduction *reduction.Sum // nil until GROUP_SET_REDUCTION attaches one

	filter Filter
}

// Column is a type alias for column.Column, the arena-backed quantized
// column a Dimension stores its bins in.
type Column = column.Column

// NewNumeric builds a dimension over a numeric scale.
func NewNumeric(arena *layout.Arena, name string, n int, scale quantize.Scale, bins, coarseBins uint32) *Dimension {
	return newDimension(arena, name, n, bins, coarseBins, &scale, nil)
}

// NewCategorical builds a dimension over a label dictionary.
func NewCategorical(arena *layout.Arena, name string, n int, dict *quantize.Dictionary, bins, coarseBins uint32) *Dimension {
	return newDimension(arena, name, n, bins, coarseBins, nil, dict)
}

func newDimension(arena *layout.Arena, name string, n int, bins, coarseBins uint32, scale *quantize.Scale, dict *quantize.Dictionary) *Dimension {
	d := &Dimension{
		Name:       name,
		Scale:      scale,
		Dictionary: dict,
		Column:     column.New(arena, n),
		Bins:       bins,
		Fine:       histogram.New(arena, bins),
	}
	if coarseBins > 0 && coarseBins < bins {
		c := histogram.NewCoarse(arena, bins, coarseBins)
		d.Coarse = &c
	}
	return d
}

// QuantizeNumeric stores the quantized bin for row r of a numeric value.
func (d *Dimension) QuantizeNumeric(r uint32, v float64) {
	d.Column.Set(r, d.Scale.Quantize(v))
}

// QuantizeLabel stores the quantized bin for row r of a categorical value.
func (d *Dimension) QuantizeLabel(r uint32, label string) {
	d.Column.Set(r, d.Dictionary.Code(label))
}

// AttachReduction wires a sum reduction over valueColumn. Attaching one
// always requires the caller to follow up with a full recompute, since
// historical Add calls were never made for already-active rows.
func (d *Dimension) AttachReduction(valueColumn []float32) {
	d.Reduction = reduction.New(valueColumn, d.Bins)
}

// EnsureIndex lazily builds the CSR index over the dimension's column, the
// first time a range operation needs it: Unindexed -> Indexed is
// irreversible and happens at most once.
func (d *Dimension) EnsureIndex() *csrindex.Index {
	if d.indexState == Unindexed {
		d.Index = csrindex.Build(d.Column.Raw(), d.Bins)
		d.indexState = Indexed
	}
	return d.Index
}

// IsIndexed reports whether EnsureIndex has already run.
func (d *Dimension) IsIndexed() bool {
	return d.indexState == Indexed
}

// CurrentFilter returns the dimension's current filter state.
func (d *Dimension) CurrentFilter() Filter {
	return d.filter
}

// SetFilter installs a new range filter [lo,hi], clamped to [0,Bins-1], and
// returns the previous filter state for the caller to diff against. An
// ill-formed range (hi < lo after clamping) is installed as an active filter
// that matches no bin, so it excludes every row; it is never an error.
func (d *Dimension) SetFilter(lo, hi uint16) Filter {
	prev := d.filter
	lo, hi = d.clamp(lo, hi)
	d.filter = Filter{Active: true, Lo: lo, Hi: hi}
	return prev
}

// ClearFilter removes the dimension's filter and returns the previous state.
func (d *Dimension) ClearFilter() Filter {
	prev := d.filter
	d.filter = Filter{}
	return prev
}

// clamp bounds [lo,hi] into [0,Bins-1]; a range that inverts after clamping
// (hi < lo) is kept as-is, since Contains/RangeCount/Scan all treat hi < lo
// as "matches nothing" uniformly.
func (d *Dimension) clamp(lo, hi uint16) (uint16, uint16) {
	max := uint16(d.Bins - 1)
	if lo > max {
		lo = max
	}
	if hi > max {
		hi = max
	}
	return lo, hi
}

// Contains reports whether bin b satisfies the dimension's current filter
// (always true if no filter is installed).
func (d *Dimension) Contains(b uint16) bool {
	if !d.filter.Active {
		return true
	}
	return b >= d.filter.Lo && b <= d.filter.Hi
}

// InsideOutside computes the row counts inside and outside range [lo,hi]
// using the CSR index's prefix-sum shape — the quantities the Clear
// Planner costs a delta clear against. EnsureIndex must have been called
// already.
func (d *Dimension) InsideOutside(lo, hi uint16) (inside, outside uint32) {
	total := uint32(d.Index.N())
	in := d.Index.RangeCount(lo, hi)
	return in, total - in
}
