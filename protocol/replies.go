// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package protocol

// SharedBufferRef is a stable, zero-copy reference into the engine's
// backing arena: byte offset plus length, valid for the lifetime of the
// engine. Contents change across frames; the reference itself does not.
type SharedBufferRef struct {
	ByteOffset int
	ByteLength int
}

// GroupSnapshot is one dimension's observable state in a READY/FRAME
// reply.
type GroupSnapshot struct {
	ID               string
	Bins             SharedBufferRef
	BinCount         uint32
	Count            uint64
	CoarseBins       *SharedBufferRef
	CoarseBinCount   uint32
	Sum              *SharedBufferRef
}

// ClearProfile is the shape of an optional per-clear diagnostic on a FRAME.
// The Dispatcher leaves Frame.Profile nil, whether or not the worker's
// -profile flag is set.
type ClearProfile struct {
	Fallback        bool
	InsideRows      uint32
	OutsideRows     uint32
	InsideMs        float64
	OutsideMs       float64
	TotalMs         float64
	OutsideFraction float64
	RangeBins       uint32
	Buffered        bool
}

// Ready is emitted once, after INGEST.
type Ready struct {
	RowCount int
	Groups   []GroupSnapshot
	Fingerprint uint64
}

// Frame is emitted after every seq'd mutating message.
type Frame struct {
	Seq         uint64
	ActiveCount int
	Groups      []GroupSnapshot
	Profile     *ClearProfile
}

// IndexBuilt replies to BUILD_INDEX.
type IndexBuilt struct {
	DimID string
	Ms    float64
	Bytes int
}

// DimensionAdded replies to ADD_DIMENSION.
type DimensionAdded struct {
	Name string
}

// TopKEntry is one ranked bin in a TOP_K_RESULT, with both the raw bin
// index and (when reconstructible) its domain value or category label.
type TopKEntry struct {
	Bin   uint16
	Count uint32
	Value *float64
	Label *string
}

// TopKResult replies to GROUP_TOP_K.
type TopKResult struct {
	Seq     uint64
	DimID   string
	Entries []TopKEntry
}

// PlannerSnapshot replies to REQUEST_PLANNER.
type PlannerSnapshot struct {
	DeltaCostPerRow     float64
	DeltaCount          int
	DeltaAvgMs          float64
	RecomputeCostPerRow float64
	RecomputeCount      int
	RecomputeAvgMs      float64
}

// Progress is an optional long-operation progress update (e.g. ingest of a
// very large dataset).
type Progress struct {
	Stage   string
	Done    int
	Total   int
}

// Error replies to any rejected inbound message. Fingerprint echoes the
// dataset's ingest fingerprint when an operation against an existing engine
// (BUILD_INDEX, ADD_DIMENSION, GROUP_TOP_K, or a seq'd mutating message) is
// rejected, so an orchestrator juggling more than one dataset can tell which
// one a rejection is about; it's zero on every other Error.
type Error struct {
	Seq         uint64
	HasSeq      bool
	Message     string
	Fingerprint uint64
}
