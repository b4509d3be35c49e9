// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package protocol

import (
	"context"

	"github.com/grailbio/base/log"
)

// Engine is the subset of crossfilter.Engine's behavior the dispatcher
// needs. Declaring the interface here (rather than importing the
// crossfilter package) keeps protocol free of a dependency on the engine
// it's dispatching to — crossfilter.Engine satisfies this interface, wired
// up by the process entry point.
type Engine interface {
	SetFilter(dimID string, lo, hi uint16) error
	ClearFilter(dimID string) error
	BuildIndex(dimID string) error
	AddDimension(msg AddDimension) error
	AttachReduction(dimID string, valueColumn []float32) error
	TopK(msg GroupTopK) (TopKResult, error)
	PlannerSnapshot() PlannerSnapshot
	Snapshot() []GroupSnapshot
	ActiveCount() int
	Fingerprint() uint64
}

// IngestFunc builds a fresh Engine from an INGEST request. It's a function
// value, not a method, because no Engine exists yet when INGEST arrives.
type IngestFunc func(context.Context, Ingest) (Engine, error)

// Dispatcher routes one decoded inbound message to the engine and produces
// the corresponding outbound reply: a Frame follows every seq'd mutating
// message; BUILD_INDEX and ADD_DIMENSION get their own typed reply and no
// Frame; INGEST replies with Ready.
type Dispatcher struct {
	Engine Engine
	Ingest IngestFunc
	Debug  bool
}

// NewDispatcher creates a Dispatcher with no engine yet (INGEST installs
// one).
func NewDispatcher(ingest IngestFunc) *Dispatcher {
	return &Dispatcher{Ingest: ingest}
}

// Handle decodes msg via a type switch and returns the reply to send back,
// or an Error reply if msg was rejected. A nil, nil result means msg
// produced no reply, which is what the reserved ESTIMATE and SWAP messages
// return.
func (d *Dispatcher) Handle(ctx context.Context, msg interface{}) (interface{}, error) {
	switch m := msg.(type) {
	case Ingest:
		return d.handleIngest(ctx, m)
	case BuildIndex:
		return d.handleBuildIndex(m)
	case FilterSet:
		return d.handleMutating(m.Seq, func() error { return d.Engine.SetFilter(m.DimID, m.RangeMin, m.RangeMax) })
	case FilterClear:
		return d.handleMutating(m.Seq, func() error { return d.Engine.ClearFilter(m.DimID) })
	case AddDimension:
		return d.handleAddDimension(m)
	case GroupSetReduction:
		return d.handleMutating(m.Seq, func() error { return d.Engine.AttachReduction(m.DimID, m.ValueColumn) })
	case GroupTopK:
		return d.handleTopK(m)
	case RequestPlanner:
		return d.handlePlanner()
	case Estimate, Swap:
		// Reserved; no-op until specified further.
		return nil, nil
	default:
		return Error{Message: "protocol: unrecognized message type"}, nil
	}
}

func (d *Dispatcher) requireEngine() error {
	if d.Engine == nil {
		return errNoEngine
	}
	return nil
}

var errNoEngine = errNotIngested{}

type errNotIngested struct{}

func (errNotIngested) Error() string { return "protocol: no engine; INGEST must run first" }

func (d *Dispatcher) handleIngest(ctx context.Context, m Ingest) (interface{}, error) {
	engine, err := d.Ingest(ctx, m)
	if err != nil {
		d.logReject("INGEST", err)
		return Error{Message: err.Error()}, nil
	}
	d.Engine = engine
	n, err := rowCountOf(m)
	if err != nil {
		n = 0
	}
	d.logAccept("INGEST")
	return Ready{RowCount: n, Groups: engine.Snapshot(), Fingerprint: engine.Fingerprint()}, nil
}

func rowCountOf(m Ingest) (int, error) {
	switch {
	case m.Columnar != nil:
		return m.Columnar.RowCount, nil
	case m.Rows != nil:
		return len(m.Rows.Rows), nil
	default:
		return 0, errNoEngine
	}
}

func (d *Dispatcher) handleBuildIndex(m BuildIndex) (interface{}, error) {
	if err := d.requireEngine(); err != nil {
		return Error{Message: err.Error()}, nil
	}
	if err := d.Engine.BuildIndex(m.DimID); err != nil {
		d.logReject("BUILD_INDEX", err)
		return Error{Message: err.Error(), Fingerprint: d.Engine.Fingerprint()}, nil
	}
	d.logAccept("BUILD_INDEX")
	return IndexBuilt{DimID: m.DimID}, nil
}

func (d *Dispatcher) handleAddDimension(m AddDimension) (interface{}, error) {
	if err := d.requireEngine(); err != nil {
		return Error{Message: err.Error()}, nil
	}
	if err := d.Engine.AddDimension(m); err != nil {
		d.logReject("ADD_DIMENSION", err)
		return Error{Message: err.Error(), Fingerprint: d.Engine.Fingerprint()}, nil
	}
	d.logAccept("ADD_DIMENSION")
	return DimensionAdded{Name: m.Name}, nil
}

func (d *Dispatcher) handleTopK(m GroupTopK) (interface{}, error) {
	if err := d.requireEngine(); err != nil {
		return Error{Seq: m.Seq, HasSeq: true, Message: err.Error()}, nil
	}
	result, err := d.Engine.TopK(m)
	if err != nil {
		d.logReject("GROUP_TOP_K", err)
		return Error{Seq: m.Seq, HasSeq: true, Message: err.Error(), Fingerprint: d.Engine.Fingerprint()}, nil
	}
	d.logAccept("GROUP_TOP_K")
	return result, nil
}

func (d *Dispatcher) handlePlanner() (interface{}, error) {
	if err := d.requireEngine(); err != nil {
		return Error{Message: err.Error()}, nil
	}
	return d.Engine.PlannerSnapshot(), nil
}

// handleMutating runs op, then — on success — emits a Frame echoing seq
// with the post-operation snapshot; on failure, an Error reply instead (no
// Frame). A rejected operation leaves engine state untouched.
func (d *Dispatcher) handleMutating(seq uint64, op func() error) (interface{}, error) {
	if err := d.requireEngine(); err != nil {
		return Error{Seq: seq, HasSeq: true, Message: err.Error()}, nil
	}
	if err := op(); err != nil {
		d.logReject("mutating", err)
		return Error{Seq: seq, HasSeq: true, Message: err.Error(), Fingerprint: d.Engine.Fingerprint()}, nil
	}
	d.logAccept("mutating")
	return Frame{Seq: seq, ActiveCount: d.Engine.ActiveCount(), Groups: d.Engine.Snapshot()}, nil
}

func (d *Dispatcher) logAccept(kind string) {
	if d.Debug {
		log.Debug.Printf("protocol: accepted %s", kind)
	}
}

func (d *Dispatcher) logReject(kind string, err error) {
	if d.Debug {
		log.Debug.Printf("protocol: rejected %s: %v", kind, err)
	}
}
