// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package protocol

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/klauspost/compress/snappy"
	"github.com/stretchr/testify/require"
)

func encodeSnappy(t *testing.T, values []float64) []byte {
	t.Helper()
	raw := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}
	return snappy.Encode(nil, raw)
}

func TestDecodeNumbersPassesThroughUncompressed(t *testing.T) {
	col := ColumnData{Name: "x", Numbers: []float64{1, 2, 3}}
	got, err := col.DecodeNumbers()
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3}, got)
}

func TestDecodeNumbersDecompressesSnappyColumn(t *testing.T) {
	want := []float64{1.5, -2.25, 3, 0}
	col := ColumnData{Name: "x", NumbersSnappy: encodeSnappy(t, want)}
	got, err := col.DecodeNumbers()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestDecodeNumbersEmptyColumnReturnsNil(t *testing.T) {
	col := ColumnData{Name: "x"}
	got, err := col.DecodeNumbers()
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestDecodeNumbersRejectsCorruptPayload(t *testing.T) {
	col := ColumnData{Name: "x", NumbersSnappy: []byte("not snappy")}
	_, err := col.DecodeNumbers()
	require.Error(t, err)
}
