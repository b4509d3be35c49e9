// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package protocol

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeEngine is a minimal Engine stub so dispatcher_test can exercise
// Dispatcher.Handle without pulling in the real crossfilter/filterengine
// stack.
type fakeEngine struct {
	active       int
	filterErr    error
	lastDimID    string
	lastLo, lastHi uint16
}

func (f *fakeEngine) SetFilter(dimID string, lo, hi uint16) error {
	f.lastDimID, f.lastLo, f.lastHi = dimID, lo, hi
	return f.filterErr
}
func (f *fakeEngine) ClearFilter(dimID string) error { return f.filterErr }
func (f *fakeEngine) BuildIndex(dimID string) error  { return f.filterErr }
func (f *fakeEngine) AddDimension(msg AddDimension) error { return f.filterErr }
func (f *fakeEngine) AttachReduction(dimID string, valueColumn []float32) error { return f.filterErr }
func (f *fakeEngine) TopK(msg GroupTopK) (TopKResult, error) {
	return TopKResult{Seq: msg.Seq, DimID: msg.DimID}, f.filterErr
}
func (f *fakeEngine) PlannerSnapshot() PlannerSnapshot { return PlannerSnapshot{} }
func (f *fakeEngine) Snapshot() []GroupSnapshot        { return nil }
func (f *fakeEngine) ActiveCount() int                 { return f.active }
func (f *fakeEngine) Fingerprint() uint64              { return 42 }

func TestHandleBeforeIngestReturnsError(t *testing.T) {
	d := NewDispatcher(func(ctx context.Context, m Ingest) (Engine, error) { return &fakeEngine{}, nil })
	reply, err := d.Handle(context.Background(), FilterSet{DimID: "x", Seq: 1})
	require.NoError(t, err)
	errReply, ok := reply.(Error)
	require.True(t, ok)
	require.Equal(t, uint64(1), errReply.Seq)
	require.True(t, errReply.HasSeq)
}

func TestHandleIngestInstallsEngineAndRepliesReady(t *testing.T) {
	fe := &fakeEngine{active: 3}
	d := NewDispatcher(func(ctx context.Context, m Ingest) (Engine, error) { return fe, nil })
	reply, err := d.Handle(context.Background(), Ingest{
		Columnar: &ColumnarPayload{RowCount: 3},
	})
	require.NoError(t, err)
	ready, ok := reply.(Ready)
	require.True(t, ok)
	require.Equal(t, 3, ready.RowCount)
	require.Equal(t, uint64(42), ready.Fingerprint)
	require.Same(t, fe, d.Engine)
}

func TestHandleIngestFailurePropagatesError(t *testing.T) {
	d := NewDispatcher(func(ctx context.Context, m Ingest) (Engine, error) { return nil, errBoom{} })
	reply, err := d.Handle(context.Background(), Ingest{})
	require.NoError(t, err)
	_, ok := reply.(Error)
	require.True(t, ok)
	require.Nil(t, d.Engine)
}

func TestHandleFilterSetEmitsFrameOnSuccess(t *testing.T) {
	fe := &fakeEngine{active: 5}
	d := &Dispatcher{Engine: fe}
	reply, err := d.Handle(context.Background(), FilterSet{DimID: "value", RangeMin: 1, RangeMax: 9, Seq: 7})
	require.NoError(t, err)
	frame, ok := reply.(Frame)
	require.True(t, ok)
	require.Equal(t, uint64(7), frame.Seq)
	require.Equal(t, 5, frame.ActiveCount)
	require.Equal(t, "value", fe.lastDimID)
	require.Equal(t, uint16(1), fe.lastLo)
	require.Equal(t, uint16(9), fe.lastHi)
}

func TestHandleFilterSetEmitsErrorOnFailure(t *testing.T) {
	fe := &fakeEngine{filterErr: errBoom{}}
	d := &Dispatcher{Engine: fe}
	reply, err := d.Handle(context.Background(), FilterSet{DimID: "value", Seq: 9})
	require.NoError(t, err)
	errReply, ok := reply.(Error)
	require.True(t, ok)
	require.Equal(t, uint64(9), errReply.Seq)
	require.Equal(t, uint64(42), errReply.Fingerprint)
}

func TestHandleReservedMessagesAreNoOps(t *testing.T) {
	d := &Dispatcher{Engine: &fakeEngine{}}
	reply, err := d.Handle(context.Background(), Estimate{})
	require.NoError(t, err)
	require.Nil(t, reply)
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
