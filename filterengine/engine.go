// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package filterengine owns the engine's core mutable state — dimensions,
// the per-row refcount, the active mask — and implements setFilter,
// clearFilter, and full recompute. It is the largest single component of
// the system.
package filterengine

import (
	"time"
	"unsafe"

	"github.com/crossfilterx/crossfilterx/activator"
	"github.com/crossfilterx/crossfilterx/activemask"
	"github.com/crossfilterx/crossfilterx/dimension"
	"github.com/crossfilterx/crossfilterx/histogram"
	"github.com/crossfilterx/crossfilterx/layout"
	"github.com/crossfilterx/crossfilterx/planner"
	"github.com/crossfilterx/crossfilterx/quantize"
	"github.com/crossfilterx/crossfilterx/topk"
	"github.com/grailbio/base/errors"
)

// Engine holds every dimension, the shared refcount/active-mask state, and
// the activator/planner that mutate it. One Engine per ingested dataset.
type Engine struct {
	Arena *layout.Arena
	N     int

	Dims  map[string]*dimension.Dimension
	Order []string

	Refcount []uint32
	Mask     *activemask.Mask

	Act  *activator.Activator
	Plan *planner.Planner
	Mode histogram.Mode

	// ExtraArenas holds the backing store for every dimension appended after
	// construction (see AppendNumericDimension/AppendCategoricalDimension):
	// unlike the dimensions built at construction time, which share Arena,
	// each of these owns a private arena sized just for itself.
	ExtraArenas []*layout.Arena

	// DimArena records which arena backs each dimension's column and
	// histograms, so a caller building a zero-copy reference (e.g.
	// crossfilter.Snapshot) knows which buffer a dimension's counters live
	// in — Arena for every dimension present at construction, one of
	// ExtraArenas for anything added later.
	DimArena map[string]*layout.Arena
}

// New creates an Engine over n rows, carving the active mask and refcount
// array out of arena.
func New(arena *layout.Arena, n int, mode histogram.Mode, legacyGuard bool) *Engine {
	mask := activemask.New(arena, n)
	refcount := bytesToUint32(arena.Alloc(n * 4))
	return &Engine{
		Arena:    arena,
		N:        n,
		Dims:     make(map[string]*dimension.Dimension),
		Refcount: refcount,
		Mask:     mask,
		Act:      activator.New(mask, nil, mode),
		Plan:     planner.New(legacyGuard),
		Mode:     mode,
		DimArena: make(map[string]*layout.Arena),
	}
}

// AddNumericDimension appends a new numeric dimension at construction time;
// new dimensions start unfiltered and contribute no change to existing
// rows' active state.
func (e *Engine) AddNumericDimension(name string, scale quantize.Scale, bins, coarseBins uint32) *dimension.Dimension {
	d := dimension.NewNumeric(e.Arena, name, e.N, scale, bins, coarseBins)
	e.registerDimension(name, d, e.Arena)
	return d
}

// AddCategoricalDimension appends a new categorical dimension.
func (e *Engine) AddCategoricalDimension(name string, dict *quantize.Dictionary, bins, coarseBins uint32) *dimension.Dimension {
	d := dimension.NewCategorical(e.Arena, name, e.N, dict, bins, coarseBins)
	e.registerDimension(name, d, e.Arena)
	return d
}

func (e *Engine) registerDimension(name string, d *dimension.Dimension, arena *layout.Arena) {
	e.Dims[name] = d
	e.Order = append(e.Order, name)
	e.Act.AddDimension(d)
	if e.DimArena == nil {
		e.DimArena = make(map[string]*layout.Arena)
	}
	e.DimArena[name] = arena
}

// appendArenaSlack pads each arena.Alloc call for the 8-byte alignment
// rounding layout.Arena performs on every call.
const appendArenaSlack = 8

// appendArenaSize sizes a private arena for one dimension's column and
// histograms, independent of the construction-time Arena (which was sized
// once, up front, for the original schema only): N·2 bytes for the column
// plus 8·B for the fine histogram, plus 8·Bc if a coarse resolution was
// requested.
func appendArenaSize(n int, bins, coarseBins uint32) int {
	size := n*2 + appendArenaSlack
	size += int(bins)*4*2 + appendArenaSlack
	if coarseBins > 0 && coarseBins < bins {
		size += int(coarseBins)*4*2 + appendArenaSlack
	}
	return size
}

// AppendNumericDimension adds a numeric dimension after construction
// (ADD_DIMENSION): no reallocation happens against the shared ingest
// Arena, which has no room left for it — instead the dimension's column
// and histograms are carved out of a freshly allocated arena of their own.
func (e *Engine) AppendNumericDimension(name string, scale quantize.Scale, bins, coarseBins uint32) (*dimension.Dimension, error) {
	arena, err := layout.NewArena(appendArenaSize(e.N, bins, coarseBins))
	if err != nil {
		return nil, errors.E(err, "filterengine: allocating arena for appended dimension", name)
	}
	d := dimension.NewNumeric(arena, name, e.N, scale, bins, coarseBins)
	e.registerDimension(name, d, arena)
	e.ExtraArenas = append(e.ExtraArenas, arena)
	return d, nil
}

// AppendCategoricalDimension is AppendNumericDimension's categorical
// counterpart.
func (e *Engine) AppendCategoricalDimension(name string, dict *quantize.Dictionary, bins, coarseBins uint32) (*dimension.Dimension, error) {
	arena, err := layout.NewArena(appendArenaSize(e.N, bins, coarseBins))
	if err != nil {
		return nil, errors.E(err, "filterengine: allocating arena for appended dimension", name)
	}
	d := dimension.NewCategorical(arena, name, e.N, dict, bins, coarseBins)
	e.registerDimension(name, d, arena)
	e.ExtraArenas = append(e.ExtraArenas, arena)
	return d, nil
}

// Dimension looks up a dimension by name, or an "unknown dimension" error.
func (e *Engine) Dimension(name string) (*dimension.Dimension, error) {
	d, ok := e.Dims[name]
	if !ok {
		return nil, errors.E("filterengine: unknown dimension:", name)
	}
	return d, nil
}

// activeFilterCount is F, the number of dimensions currently carrying an
// active filter: a row is active iff its refcount equals F.
func (e *Engine) activeFilterCount() int {
	f := 0
	for _, d := range e.Dims {
		if d.CurrentFilter().Active {
			f++
		}
	}
	return f
}

// BuildIndex forces a dimension's CSR index to exist, idempotently, in
// reply to BUILD_INDEX.
func (e *Engine) BuildIndex(name string) error {
	d, err := e.Dimension(name)
	if err != nil {
		return err
	}
	d.EnsureIndex()
	return nil
}

// AttachReduction installs a sum reduction on a dimension. Historical
// Add calls were never made for already-active rows, so attaching always
// requires a full recompute to follow.
func (e *Engine) AttachReduction(name string, valueColumn []float32) error {
	d, err := e.Dimension(name)
	if err != nil {
		return err
	}
	d.AttachReduction(valueColumn)
	e.FullRecompute()
	return nil
}

// TopK returns the k largest (or, if bottom, smallest) nonzero bins of a
// dimension's fine histogram.
func (e *Engine) TopK(name string, k int, bottom bool) ([]topk.Bin, error) {
	d, err := e.Dimension(name)
	if err != nil {
		return nil, err
	}
	if bottom {
		return topk.Bottom(d.Fine.Front, k), nil
	}
	return topk.Top(d.Fine.Front, k), nil
}

// SetFilter installs range [lo,hi] on dimension name. lo/hi are clamped to
// the dimension's bin range by dimension.Dimension.SetFilter; an inverted
// range after clamping is an active filter matching no bin, so it excludes
// every row; it is not an error.
func (e *Engine) SetFilter(name string, lo, hi uint16) error {
	d, err := e.Dimension(name)
	if err != nil {
		return err
	}
	prev := d.SetFilter(lo, hi)
	next := d.CurrentFilter()
	if prev == next {
		return nil
	}
	if !prev.Active {
		e.FullRecompute()
		return nil
	}

	d.EnsureIndex()
	added, removed := diffRanges(prev, next)
	f := e.activeFilterCount()
	for _, r := range removed {
		e.scanRange(d, r.Lo, r.Hi, -1, f)
	}
	for _, r := range added {
		e.scanRange(d, r.Lo, r.Hi, +1, f)
	}
	return nil
}

// ClearFilter removes the filter on dimension name, choosing a delta or
// full-recompute strategy via the Clear Planner and reporting the measured
// cost back to it.
func (e *Engine) ClearFilter(name string) error {
	d, err := e.Dimension(name)
	if err != nil {
		return err
	}
	prev := d.ClearFilter()
	if !prev.Active {
		e.FullRecompute()
		return nil
	}

	d.EnsureIndex()
	total := uint32(d.Index.N())
	inside, outside := d.InsideOutside(prev.Lo, prev.Hi)
	if prev.Hi < prev.Lo {
		inside, outside = 0, total
	}

	ctx := planner.Context{
		InsideCount:    uint64(inside),
		OutsideCount:   uint64(outside),
		TotalRows:      uint64(total),
		HistogramCount: len(e.Dims),
		OtherFilters:   e.activeFilterCount(),
		ActiveCount:    uint64(e.Mask.PopCount()),
	}
	strategy := e.Plan.Choose(ctx)

	start := time.Now()
	var rows uint32
	switch strategy {
	case planner.Recompute:
		e.FullRecompute()
		rows = uint32(e.N)
	default:
		rows = e.clearDelta(d, prev.Lo, prev.Hi)
	}
	elapsed := time.Since(start)
	e.Plan.Record(strategy, float64(elapsed.Microseconds())/1000, uint64(rows))
	return nil
}

// scanRange visits every row in [lo,hi] on d's CSR index, adjusting
// refcount by delta and toggling activation when a row crosses the F
// boundary.
func (e *Engine) scanRange(d *dimension.Dimension, lo, hi uint16, delta int32, f int) {
	if hi < lo {
		return
	}
	d.Index.Scan(lo, hi, func(row uint32) {
		e.Refcount[row] = addRefDelta(e.Refcount[row], delta)
		e.reevaluate(row, f)
	})
}

// clearDelta implements clearFilter's delta path: the lifted range's rows
// lose one satisfied filter (δ=-1); the complement's
// rows keep their refcount but may newly qualify now that F has dropped by
// one (δ=0, re-evaluated against the new F regardless).
func (e *Engine) clearDelta(d *dimension.Dimension, rmin, rmax uint16) uint32 {
	f := e.activeFilterCount()
	var rows uint32
	d.Index.Scan(rmin, rmax, func(row uint32) {
		e.Refcount[row] = addRefDelta(e.Refcount[row], -1)
		e.reevaluate(row, f)
		rows++
	})
	maxBin := uint16(d.Bins - 1)
	if rmin > 0 {
		d.Index.Scan(0, rmin-1, func(row uint32) {
			e.reevaluate(row, f)
			rows++
		})
	}
	if rmax < maxBin {
		d.Index.Scan(rmax+1, maxBin, func(row uint32) {
			e.reevaluate(row, f)
			rows++
		})
	}
	return rows
}

func (e *Engine) reevaluate(row uint32, f int) {
	wasActive := e.Mask.Get(row)
	isActive := e.Refcount[row] == uint32(f)
	switch {
	case !wasActive && isActive:
		e.Act.Activate(row)
	case wasActive && !isActive:
		e.Act.Deactivate(row)
	}
}

// FullRecompute re-derives refcount, active mask, histograms, and
// reductions from scratch by scanning every row against every active
// filter.
func (e *Engine) FullRecompute() {
	for _, d := range e.Dims {
		d.Fine.Zero()
		if d.Coarse != nil {
			d.Coarse.Zero()
		}
		if d.Reduction != nil {
			d.Reduction.Zero()
		}
	}
	e.Mask.Zero()
	for i := range e.Refcount {
		e.Refcount[i] = 0
	}

	f := e.activeFilterCount()
	for r := uint32(0); r < uint32(e.N); r++ {
		satisfied := 0
		for _, d := range e.Dims {
			filt := d.CurrentFilter()
			if !filt.Active {
				continue
			}
			bin := d.Column.Get(r)
			if filt.Hi >= filt.Lo && bin >= filt.Lo && bin <= filt.Hi {
				satisfied++
			}
		}
		e.Refcount[r] = uint32(satisfied)
		if satisfied == f {
			e.Act.Activate(r)
		}
	}
}

func addRefDelta(c uint32, delta int32) uint32 {
	if delta >= 0 {
		return c + uint32(delta)
	}
	d := uint32(-delta)
	if d > c {
		return 0
	}
	return c - d
}

func bytesToUint32(b []byte) []uint32 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&b[0])), len(b)/4)
}
