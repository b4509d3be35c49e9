// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package reduction implements the engine's per-group sum aggregation,
// grounded on pileup/common.go's shape: accumulate a per-position/per-bin
// quantity while scanning active rows.
package reduction

// Sum is a per-dimension sum reduction: for every bin b,
// Front[b] == Σ valueColumn[r] over active rows r with col[r] == b.
//
// Attached after ingest (GROUP_SET_REDUCTION), so — unlike the fine/coarse
// histograms — its storage isn't part of the arena sized at ingest time;
// the ingest-time layout budgets only for columns/mask/refcount/histograms.
type Sum struct {
	ValueColumn []float32
	Front       []float64
	Back        []float64
}

// New allocates a zeroed Sum of b bins over valueColumn.
func New(valueColumn []float32, b uint32) *Sum {
	return &Sum{
		ValueColumn: valueColumn,
		Front:       make([]float64, b),
		Back:        make([]float64, b),
	}
}

// Add applies amount to bin's running sum, in both front and back.
func (s *Sum) Add(bin uint16, amount float64) {
	s.Front[bin] += amount
	s.Back[bin] += amount
}

// Zero resets every bin's sum to 0.
func (s *Sum) Zero() {
	for i := range s.Front {
		s.Front[i] = 0
		s.Back[i] = 0
	}
}

// ValueAt returns the f64-promoted contribution of row r, for +/- updates
// driven by the Row Activator.
func (s *Sum) ValueAt(r uint32) float64 {
	return float64(s.ValueColumn[r])
}
