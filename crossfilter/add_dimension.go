// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package crossfilter

import (
	"github.com/grailbio/base/errors"

	"github.com/crossfilterx/crossfilterx/dimension"
	"github.com/crossfilterx/crossfilterx/protocol"
	"github.com/crossfilterx/crossfilterx/quantize"
)

// AddDimension appends a new dimension after ingest ("ADD_DIMENSION"): the
// caller supplies an already-quantized bin column directly, since a
// dimension is a pre-computed array at the message boundary, not a
// row-callback accessor. The new dimension's column and histograms are
// carved out of a private arena of their own — the ingest arena has no
// spare room, having been sized once, up front, for the original schema.
func (e *Engine) AddDimension(msg protocol.AddDimension) error {
	n := e.FE.N
	if len(msg.Column) != n {
		return errors.E("crossfilter: schema mismatch: ADD_DIMENSION column", msg.Name, "length", len(msg.Column), "!=", n)
	}
	if _, exists := e.FE.Dims[msg.Name]; exists {
		return errors.E("crossfilter: dimension already exists:", msg.Name)
	}

	bins := uint32(1) << msg.Bits
	var d *dimension.Dimension
	var err error
	switch msg.Kind {
	case protocol.KindNumber:
		scale := quantize.Scale{}
		if msg.Scale != nil {
			scale = quantize.NewScale(msg.Scale.Min, msg.Scale.Max, msg.Bits)
		}
		d, err = e.FE.AppendNumericDimension(msg.Name, scale, bins, 0)
	default:
		dict := quantize.NewDictionaryFromLabels(msg.Bits, msg.Labels)
		d, err = e.FE.AppendCategoricalDimension(msg.Name, dict, bins, 0)
	}
	if err != nil {
		return err
	}

	for r, bin := range msg.Column {
		d.Column.Set(uint32(r), bin)
	}
	e.FE.FullRecompute()
	return nil
}
