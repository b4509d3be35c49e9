// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package planner implements the clear-filter planner's adaptive cost
// model: an EWMA of measured cost-per-row for the delta and recompute
// strategies on the clear-filter path, falling back to a rows-touched
// baseline estimate until enough samples exist to calibrate.
package planner

import "math"

// Strategy is the clear-filter strategy the Planner recommends.
type Strategy int

const (
	// Delta applies the incremental inside/outside CSR traversal.
	Delta Strategy = iota
	// Recompute re-derives engine state from scratch.
	Recompute
)

func (s Strategy) String() string {
	if s == Delta {
		return "delta"
	}
	return "recompute"
}

// alpha is the EWMA smoothing factor for both cost-per-row estimates.
const alpha = 0.2

// Context is the clear-filter decision input passed to Choose.
type Context struct {
	InsideCount    uint64
	OutsideCount   uint64
	TotalRows      uint64
	HistogramCount int
	OtherFilters   int
	ActiveCount    uint64
}

// Planner is a single-worker cost model; one instance covers the whole
// engine (the clear-filter path only — it does not model SetFilter's
// delta path).
type Planner struct {
	legacyGuard bool

	deltaCalibrated bool
	deltaCostPerRow float64
	deltaCount      int
	deltaTotalMs    float64

	recomputeCalibrated bool
	recomputeCostPerRow float64
	recomputeCount      int
	recomputeTotalMs    float64
}

// New creates a Planner. legacyGuard enables a pre-calibration heuristic
// that bands the rows-touched baseline estimate; disabling it makes Choose
// rely purely on that baseline until real samples arrive.
func New(legacyGuard bool) *Planner {
	return &Planner{legacyGuard: legacyGuard}
}

// Choose recommends Delta or Recompute for the given clear-filter context.
func (p *Planner) Choose(ctx Context) Strategy {
	total := float64(maxU64(1, ctx.TotalRows))
	inside := float64(ctx.InsideCount)
	outside := float64(ctx.OutsideCount)
	h := float64(maxInt(1, ctx.HistogramCount))
	outsideWeight := 1.1 + 0.15*math.Min(4, float64(ctx.OtherFilters))
	outsideFraction := outside / total
	activeFraction := clamp01(float64(ctx.ActiveCount) / total)

	simdRows := inside + outside
	simdEstimate := (inside + outside*outsideWeight) * h

	var recomputeRows float64
	var recomputeEstimate float64
	if ctx.OtherFilters > 0 {
		active := float64(maxU64(1, ctx.ActiveCount))
		recomputeRows = math.Max(active, math.Round(total*math.Pow(math.Max(0.01, activeFraction), 0.85)))
		recomputeEstimate = recomputeRows * (0.9 + activeFraction*0.6)
	} else {
		recomputeRows = total
		recomputeEstimate = recomputeRows * 1.1
	}

	if p.deltaCalibrated {
		simdEstimate = p.deltaCostPerRow * simdRows
	}
	if p.recomputeCalibrated {
		recomputeEstimate = p.recomputeCostPerRow * recomputeRows
	}

	if !p.deltaCalibrated && !p.recomputeCalibrated && p.legacyGuard {
		if outsideFraction >= 0.35 && outsideFraction <= 0.65 {
			return Recompute
		}
		if activeFraction >= 0.2 && activeFraction <= 0.6 {
			return Recompute
		}
		if ctx.OtherFilters == 0 && activeFraction >= 0.05 && activeFraction <= 0.5 {
			return Recompute
		}
	}

	if simdEstimate <= recomputeEstimate {
		return Delta
	}
	return Recompute
}

// Record folds a measured clear operation into the EWMA cost-per-row
// estimate for strategy. Samples with non-positive timings or zero rows
// are ignored — they indicate a clock/measurement glitch, not a real-world
// zero-cost clear.
func (p *Planner) Record(strategy Strategy, ms float64, rows uint64) {
	if ms <= 0 || rows == 0 {
		return
	}
	costPerRow := ms / float64(rows)
	switch strategy {
	case Delta:
		p.deltaCount++
		p.deltaTotalMs += ms
		p.deltaCostPerRow = ewma(p.deltaCostPerRow, costPerRow, p.deltaCalibrated)
		p.deltaCalibrated = true
	case Recompute:
		p.recomputeCount++
		p.recomputeTotalMs += ms
		p.recomputeCostPerRow = ewma(p.recomputeCostPerRow, costPerRow, p.recomputeCalibrated)
		p.recomputeCalibrated = true
	}
}

func ewma(prev, sample float64, calibrated bool) float64 {
	if !calibrated {
		return sample
	}
	return alpha*sample + (1-alpha)*prev
}

// Snapshot is the observable state REQUEST_PLANNER returns.
type Snapshot struct {
	DeltaCostPerRow      float64
	DeltaCount           int
	DeltaAvgMs           float64
	RecomputeCostPerRow  float64
	RecomputeCount       int
	RecomputeAvgMs       float64
}

// Snapshot returns the Planner's current estimate tuple.
func (p *Planner) Snapshot() Snapshot {
	s := Snapshot{
		DeltaCostPerRow:     p.deltaCostPerRow,
		DeltaCount:          p.deltaCount,
		RecomputeCostPerRow: p.recomputeCostPerRow,
		RecomputeCount:      p.recomputeCount,
	}
	if p.deltaCount > 0 {
		s.DeltaAvgMs = p.deltaTotalMs / float64(p.deltaCount)
	}
	if p.recomputeCount > 0 {
		s.RecomputeAvgMs = p.recomputeTotalMs / float64(p.recomputeCount)
	}
	return s
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
