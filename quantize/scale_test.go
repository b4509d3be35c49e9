// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package quantize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuantizeClampsOutOfDomain(t *testing.T) {
	s := NewScale(0, 10, 4) // B=16
	require.Equal(t, uint16(0), s.Quantize(-5))
	require.Equal(t, uint16(15), s.Quantize(100))
}

func TestQuantizeNonFiniteMapsToZero(t *testing.T) {
	s := NewScale(0, 10, 4)
	require.Equal(t, uint16(0), s.Quantize(math.NaN()))
	require.Equal(t, uint16(0), s.Quantize(math.Inf(1)))
}

func TestDegenerateScaleFallsBackToBinZero(t *testing.T) {
	s := NewScale(5, 5, 4)
	require.Equal(t, uint16(0), s.Quantize(5))
	require.Equal(t, uint16(0), s.Quantize(123))
}

func TestInferScaleSkipsNonFiniteValues(t *testing.T) {
	s := InferScale([]float64{1, math.NaN(), 5, math.Inf(1)}, 4)
	require.Equal(t, 1.0, s.Min)
	require.Equal(t, 5.0, s.Max)
}

func TestInferScaleEmptyFallsBack(t *testing.T) {
	s := InferScale(nil, 4)
	require.Equal(t, uint16(0), s.Quantize(0))
}

// S1/S2's q(v) quantizer: min=0,max=5,bits=4 over value range {0..5}.
func TestQuantizeRoundsToNearestBin(t *testing.T) {
	s := NewScale(0, 5, 4)
	require.Equal(t, uint16(0), s.Quantize(0))
	require.Equal(t, uint16(15), s.Quantize(5))
	mid := s.Quantize(2.5)
	require.InDelta(t, 7.5, float64(mid), 0.5)
}

func TestUnquantizeRoundTrip(t *testing.T) {
	s := NewScale(0, 100, 8) // B=256
	for _, v := range []float64{0, 25, 50, 99} {
		bin := s.Quantize(v)
		recon := s.Unquantize(bin)
		require.InDelta(t, v, recon, 100.0/256+1)
	}
}
