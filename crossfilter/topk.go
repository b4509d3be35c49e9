// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package crossfilter

import (
	"github.com/crossfilterx/crossfilterx/protocol"
)

// TopK runs GROUP_TOP_K and reconstructs each winning bin's domain value
// (numeric dimensions) or category label (categorical dimensions), so the
// reply carries more than a bare bin index.
func (e *Engine) TopK(msg protocol.GroupTopK) (protocol.TopKResult, error) {
	d, err := e.FE.Dimension(msg.DimID)
	if err != nil {
		return protocol.TopKResult{}, err
	}
	bins, err := e.FE.TopK(msg.DimID, msg.K, msg.IsBottom)
	if err != nil {
		return protocol.TopKResult{}, err
	}

	entries := make([]protocol.TopKEntry, len(bins))
	for i, b := range bins {
		entry := protocol.TopKEntry{Bin: b.Index, Count: b.Count}
		switch {
		case d.Scale != nil:
			v := d.Scale.Unquantize(b.Index)
			entry.Value = &v
		case d.Dictionary != nil:
			lbl := d.Dictionary.Label(b.Index)
			entry.Label = &lbl
		}
		entries[i] = entry
	}
	return protocol.TopKResult{Seq: msg.Seq, DimID: msg.DimID, Entries: entries}, nil
}
