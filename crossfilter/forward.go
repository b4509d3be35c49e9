// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package crossfilter

import "github.com/crossfilterx/crossfilterx/protocol"

// SetFilter, ClearFilter, BuildIndex, and AttachReduction forward to the
// underlying filterengine.Engine; they exist on Engine itself so Engine
// satisfies protocol.Engine without the protocol package importing
// filterengine directly.

func (e *Engine) SetFilter(dimID string, lo, hi uint16) error {
	return e.FE.SetFilter(dimID, lo, hi)
}

func (e *Engine) ClearFilter(dimID string) error {
	return e.FE.ClearFilter(dimID)
}

func (e *Engine) BuildIndex(dimID string) error {
	return e.FE.BuildIndex(dimID)
}

func (e *Engine) AttachReduction(dimID string, valueColumn []float32) error {
	return e.FE.AttachReduction(dimID, valueColumn)
}

func (e *Engine) ActiveCount() int {
	return e.FE.Mask.PopCount()
}

// Fingerprint returns the schema+row-count fingerprint computed at ingest,
// echoed in READY and in the ERROR replies for rejected operations against
// this engine, so an
// orchestrator juggling several datasets can tell which one a message is
// about.
func (e *Engine) Fingerprint() uint64 {
	return e.fingerprint
}

// PlannerSnapshot returns the Clear Planner's current estimate tuple, in
// reply to REQUEST_PLANNER.
func (e *Engine) PlannerSnapshot() protocol.PlannerSnapshot {
	s := e.FE.Plan.Snapshot()
	return protocol.PlannerSnapshot{
		DeltaCostPerRow:     s.DeltaCostPerRow,
		DeltaCount:          s.DeltaCount,
		DeltaAvgMs:          s.DeltaAvgMs,
		RecomputeCostPerRow: s.RecomputeCostPerRow,
		RecomputeCount:      s.RecomputeCount,
		RecomputeAvgMs:      s.RecomputeAvgMs,
	}
}
