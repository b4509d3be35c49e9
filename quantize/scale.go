// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package quantize maps raw numeric and categorical values to fixed-width
// bin indices.
package quantize

import "math"

// Scale is an affine numeric quantizer: it maps a float64 value in
// [min,max] onto a bin in [0, 2^bits).
//
// quantize(v) = round((clamp(v,min,max) - min) * invSpan)
type Scale struct {
	Min     float64
	Max     float64
	Bits    uint8
	Range   uint32 // 2^bits - 1
	InvSpan float64
}

// NewScale builds a Scale for the given domain and bit width. A degenerate
// or non-finite span (min==max, or either bound non-finite) falls back to
// {0, binCount}, per spec: quantize then always returns bin 0.
func NewScale(min, max float64, bits uint8) Scale {
	b := uint32(1) << bits
	s := Scale{Min: min, Max: max, Bits: bits, Range: b - 1}
	span := max - min
	if !isFinite(min) || !isFinite(max) || span <= 0 {
		s.Min = 0
		s.Max = float64(b)
		s.InvSpan = 0
		return s
	}
	s.InvSpan = float64(s.Range) / span
	return s
}

// InferScale computes {min,max} with one pass over values and returns the
// resulting Scale. An empty slice yields the same degenerate fallback as a
// zero-span domain.
func InferScale(values []float64, bits uint8) Scale {
	if len(values) == 0 {
		return NewScale(0, 0, bits)
	}
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if math.IsInf(min, 1) || math.IsInf(max, -1) {
		// every value was non-finite
		return NewScale(0, 0, bits)
	}
	return NewScale(min, max, bits)
}

// Quantize maps v onto a bin in [0, 2^bits). Out-of-domain values are
// clamped to the domain before mapping.
func (s Scale) Quantize(v float64) uint16 {
	if !isFinite(v) {
		return 0
	}
	if v < s.Min {
		v = s.Min
	} else if v > s.Max {
		v = s.Max
	}
	if s.InvSpan == 0 {
		return 0
	}
	bin := math.Round((v - s.Min) * s.InvSpan)
	if bin < 0 {
		bin = 0
	} else if bin > float64(s.Range) {
		bin = float64(s.Range)
	}
	return uint16(bin)
}

// Unquantize reconstructs an approximate domain value for bin b, the
// midpoint of the bin's sub-interval. Used by the Top-K engine when
// rendering results for numeric dimensions.
func (s Scale) Unquantize(b uint16) float64 {
	if s.InvSpan == 0 {
		return s.Min
	}
	return s.Min + float64(b)/s.InvSpan
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
