// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package protocol defines the worker's message boundary: the inbound
// request types an orchestrator sends and the outbound reply types the
// engine emits, plus the dispatcher that routes one to the other.
package protocol

import (
	"encoding/binary"
	"math"

	"github.com/klauspost/compress/snappy"
	"github.com/pkg/errors"
)

// DimKind distinguishes a numeric (affine-quantized) dimension from a
// categorical (dictionary-coded) one.
type DimKind int

const (
	KindNumber DimKind = iota
	KindString
)

// DimSpec describes one dimension at ingest time.
type DimSpec struct {
	Name            string
	Kind            DimKind
	Bits            uint8
	CoarseTargetBins uint32 // 0 means no coarse resolution
}

// ColumnData is one typed column of a ColumnarPayload.
type ColumnData struct {
	Name string
	// Numbers holds the raw values for a numeric column, already
	// decompressed. Exactly one of Numbers/NumbersSnappy is set on the
	// wire; DecodeNumbers resolves either into a plain slice.
	Numbers []float64
	// NumbersSnappy holds Numbers packed as little-endian float64s and
	// snappy-compressed, for an orchestrator that wants to cross the
	// worker boundary with a large typed array cheaper than JSON-encoded
	// decimal text (§3 domain stack: klauspost/compress, grounded on the
	// teacher's bgzf/fasta transparently-compressed read paths).
	NumbersSnappy []byte
	// Labels holds the raw values for a categorical column.
	Labels []string
}

// DecodeNumbers returns c's numeric values, transparently snappy-decoding
// NumbersSnappy when Numbers wasn't sent directly.
func (c ColumnData) DecodeNumbers() ([]float64, error) {
	if c.Numbers != nil || c.NumbersSnappy == nil {
		return c.Numbers, nil
	}
	raw, err := snappy.Decode(nil, c.NumbersSnappy)
	if err != nil {
		return nil, errors.Wrapf(err, "protocol: snappy-decoding column %q", c.Name)
	}
	if len(raw)%8 != 0 {
		return nil, errors.Errorf("protocol: column %q decompressed to %d bytes, not a multiple of 8", c.Name, len(raw))
	}
	out := make([]float64, len(raw)/8)
	for i := range out {
		bits := binary.LittleEndian.Uint64(raw[i*8 : i*8+8])
		out[i] = math.Float64frombits(bits)
	}
	return out, nil
}

// Category supplies the fixed label set for a categorical column ingested
// columnar-style.
type Category struct {
	Name   string
	Labels []string
}

// ColumnarPayload is one ingest shape: parallel typed columns plus, for
// categorical columns, an explicit label set.
type ColumnarPayload struct {
	RowCount   int
	Columns    []ColumnData
	Categories []Category
}

// RowRecord is one row of a RowOriented payload: named raw values, numeric
// or string.
type RowRecord struct {
	Numbers map[string]float64
	Labels  map[string]string
}

// RowOriented is the other ingest shape: one record per row.
type RowOriented struct {
	Rows []RowRecord
}

// Ingest is the initial-load request.
type Ingest struct {
	Schema           []DimSpec
	Rows             *RowOriented
	Columnar         *ColumnarPayload
	ValueColumnNames []string
}

// BuildIndex forces a dimension's CSR index to exist.
type BuildIndex struct {
	DimID string
}

// FilterSet installs a range filter on a dimension.
type FilterSet struct {
	DimID    string
	RangeMin uint16
	RangeMax uint16
	Seq      uint64
}

// FilterClear removes a dimension's filter.
type FilterClear struct {
	DimID string
	Seq   uint64
}

// AddDimension appends a new dimension after ingest.
type AddDimension struct {
	Name     string
	Kind     DimKind
	Bits     uint8
	Column   []uint16
	Scale    *NumericScale
	Labels   []string
	Fallback uint16
}

// NumericScale carries a pre-computed quantizer domain for ADD_DIMENSION,
// when the caller supplies already-quantized bins rather than raw values.
type NumericScale struct {
	Min, Max float64
}

// GroupSetReduction installs a sum reduction over a dimension.
type GroupSetReduction struct {
	DimID       string
	ValueColumn []float32
	Seq         uint64
}

// GroupTopK requests the k largest/smallest nonzero bins of a dimension.
type GroupTopK struct {
	DimID    string
	K        int
	IsBottom bool
	Seq      uint64
}

// RequestPlanner asks for the Clear Planner's current estimate tuple.
type RequestPlanner struct{}

// Estimate and Swap are reserved inbound message shapes.
type Estimate struct{}
type Swap struct{}
