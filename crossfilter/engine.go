// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package crossfilter is the top-level engine: it owns ingest (turning a
// protocol.Ingest request into a sized layout.Arena and a populated
// filterengine.Engine) and exposes the operations the protocol dispatcher
// drives.
package crossfilter

import (
	"context"

	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/base/errors"

	"github.com/crossfilterx/crossfilterx/filterengine"
	"github.com/crossfilterx/crossfilterx/histogram"
	"github.com/crossfilterx/crossfilterx/layout"
	"github.com/crossfilterx/crossfilterx/protocol"
	"github.com/crossfilterx/crossfilterx/quantize"
)

// Engine is one ingested dataset's full runtime state.
type Engine struct {
	FE          *filterengine.Engine
	Profile     bool
	fingerprint uint64
	// ValueColumns caches the raw columns named in INGEST.valueColumnNames,
	// available for a later GROUP_SET_REDUCTION without re-sending the data.
	ValueColumns map[string][]float32
}

// allocSlack pads the computed arena size to absorb the 8-byte alignment
// rounding layout.Arena.Alloc performs on every call.
const allocSlack = 8

// Ingest builds a new Engine from req. mode selects the histogram updater
// variant; legacyGuard and profile are explicit worker configuration fixed
// at construction time rather than global mutable flags.
func Ingest(ctx context.Context, req protocol.Ingest, mode histogram.Mode, legacyGuard, profile bool) (*Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.E(err, "crossfilter: ingest canceled before it started")
	}
	n, err := rowCount(req)
	if err != nil {
		return nil, err
	}
	if err := validateSchema(req, n); err != nil {
		return nil, err
	}

	size := arenaSize(n, req.Schema)
	arena, err := layout.NewArena(size)
	if err != nil {
		return nil, errors.E(err, "crossfilter: allocating arena")
	}

	fe := filterengine.New(arena, n, mode, legacyGuard)
	if err := populate(fe, req, n); err != nil {
		return nil, err
	}

	e := &Engine{
		FE:           fe,
		Profile:      profile,
		fingerprint:  fingerprint(req.Schema, n),
		ValueColumns: make(map[string][]float32),
	}
	for _, name := range req.ValueColumnNames {
		col, err := findNumericColumn(req, name)
		if err != nil {
			return nil, err
		}
		if col != nil {
			e.ValueColumns[name] = toFloat32(col)
		}
	}
	return e, nil
}

func rowCount(req protocol.Ingest) (int, error) {
	switch {
	case req.Columnar != nil:
		return req.Columnar.RowCount, nil
	case req.Rows != nil:
		return len(req.Rows.Rows), nil
	default:
		return 0, errors.E("crossfilter: ingest requires either rows or columnar payload")
	}
}

// validateSchema checks for a schema mismatch: every column's length must
// agree with the declared row count, and every categorical column must
// carry labels.
func validateSchema(req protocol.Ingest, n int) error {
	if req.Columnar == nil {
		return nil
	}
	for _, col := range req.Columnar.Columns {
		numbers, err := col.DecodeNumbers()
		if err != nil {
			return errors.E(err, "crossfilter: decoding column", col.Name)
		}
		if numbers != nil && len(numbers) != n {
			return errors.E("crossfilter: schema mismatch: column", col.Name, "length", len(numbers), "!=", n)
		}
		if col.Labels != nil && len(col.Labels) != n {
			return errors.E("crossfilter: schema mismatch: column", col.Name, "length", len(col.Labels), "!=", n)
		}
	}
	for _, spec := range req.Schema {
		if spec.Kind != protocol.KindString {
			continue
		}
		if findCategory(req.Columnar, spec.Name) == nil {
			return errors.E("crossfilter: schema mismatch: categorical column", spec.Name, "missing labels")
		}
	}
	return nil
}

// arenaSize computes the total backing-store size up front: N·d·2 bytes for
// columns, ⌈N/8⌉ for the active mask, 4·N for refcount, and 8·Σ B_d (plus
// coarse) for histograms.
func arenaSize(n int, schema []protocol.DimSpec) int {
	size := (n+7)/8 + allocSlack // active mask
	size += n*4 + allocSlack     // refcount
	for _, spec := range schema {
		b := uint32(1) << spec.Bits
		size += n*2 + allocSlack      // column
		size += int(b)*4*2 + allocSlack // fine histogram front+back
		if spec.CoarseTargetBins > 0 && spec.CoarseTargetBins < b {
			size += int(spec.CoarseTargetBins)*4*2 + allocSlack
		}
	}
	return size
}

func fingerprint(schema []protocol.DimSpec, n int) uint64 {
	var buf []byte
	for _, s := range schema {
		buf = append(buf, s.Name...)
		buf = append(buf, byte(s.Kind), s.Bits)
	}
	return farm.Hash64WithSeed(buf, uint64(n))
}

func findCategory(payload *protocol.ColumnarPayload, name string) *protocol.Category {
	for i := range payload.Categories {
		if payload.Categories[i].Name == name {
			return &payload.Categories[i]
		}
	}
	return nil
}

// findNumericColumn returns name's decoded numeric values (transparently
// snappy-decompressing a wire-compressed column), or nil if no such column
// exists in a columnar payload.
func findNumericColumn(req protocol.Ingest, name string) ([]float64, error) {
	if req.Columnar == nil {
		return nil, nil
	}
	for _, col := range req.Columnar.Columns {
		if col.Name == name {
			return col.DecodeNumbers()
		}
	}
	return nil, nil
}

func toFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}

// populate quantizes every row of every schema dimension into the engine,
// registering each dimension via filterengine.Engine.
func populate(fe *filterengine.Engine, req protocol.Ingest, n int) error {
	for _, spec := range req.Schema {
		switch spec.Kind {
		case protocol.KindNumber:
			values, err := numericValues(req, spec.Name, n)
			if err != nil {
				return err
			}
			bits := spec.Bits
			scale := quantize.InferScale(values, bits)
			d := fe.AddNumericDimension(spec.Name, scale, uint32(1)<<bits, spec.CoarseTargetBins)
			for r, v := range values {
				d.QuantizeNumeric(uint32(r), v)
			}
		case protocol.KindString:
			labels, err := labelValues(req, spec.Name, n)
			if err != nil {
				return err
			}
			bits := spec.Bits
			dict := quantize.NewDictionaryFromLabels(bits, labelSet(req, spec.Name, labels))
			d := fe.AddCategoricalDimension(spec.Name, dict, uint32(1)<<bits, spec.CoarseTargetBins)
			for r, lbl := range labels {
				d.QuantizeLabel(uint32(r), lbl)
			}
		}
	}
	fe.FullRecompute()
	return nil
}

func numericValues(req protocol.Ingest, name string, n int) ([]float64, error) {
	if req.Columnar != nil {
		col, err := findNumericColumn(req, name)
		if err != nil {
			return nil, err
		}
		if col != nil {
			return col, nil
		}
		return nil, errors.E("crossfilter: schema mismatch: missing numeric column", name)
	}
	out := make([]float64, n)
	for i, row := range req.Rows.Rows {
		out[i] = row.Numbers[name]
	}
	return out, nil
}

func labelValues(req protocol.Ingest, name string, n int) ([]string, error) {
	if req.Columnar != nil {
		for _, col := range req.Columnar.Columns {
			if col.Name == name {
				return col.Labels, nil
			}
		}
		return nil, errors.E("crossfilter: schema mismatch: missing categorical column", name)
	}
	out := make([]string, n)
	for i, row := range req.Rows.Rows {
		out[i] = row.Labels[name]
	}
	return out, nil
}

// labelSet returns the explicit label order for a columnar category, or nil
// when there is no explicit category (e.g. row-oriented data); the
// dictionary then assigns codes in first-seen order as rows are quantized.
func labelSet(req protocol.Ingest, name string, observed []string) []string {
	if req.Columnar != nil {
		if cat := findCategory(req.Columnar, name); cat != nil {
			return cat.Labels
		}
	}
	return nil
}
