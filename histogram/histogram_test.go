// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package histogram

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crossfilterx/crossfilterx/layout"
)

func mustArena(t *testing.T, size int) *layout.Arena {
	t.Helper()
	a, err := layout.NewArena(size)
	require.NoError(t, err)
	return a
}

func TestPairAddAndZero(t *testing.T) {
	a := mustArena(t, 64)
	p := New(a, 4)
	p.Add(1, 3)
	p.Add(1, -1)
	require.Equal(t, uint32(2), p.Front[1])
	require.Equal(t, uint32(2), p.Back[1])
	p.Zero()
	require.Equal(t, uint64(0), p.Sum())
}

// TestCoarseBinsSumFineBinsTheyCover checks that every coarse bin equals
// the sum of the fine bins that map to it, whether maintained
// incrementally or rebuilt from scratch.
func TestCoarseBinsSumFineBinsTheyCover(t *testing.T) {
	a := mustArena(t, 256)
	fine := New(a, 8)
	coarse := NewCoarse(a, 8, 4) // factor 2: fine bins {0,1}->0, {2,3}->1, ...

	deltas := []int32{3, 1, 2, 0, 5, 1, 0, 4}
	for bin, d := range deltas {
		if d == 0 {
			continue
		}
		fine.Add(uint16(bin), d)
		coarse.Add(uint16(bin), d)
	}

	for cb := uint16(0); cb < 4; cb++ {
		want := int32(0)
		for fb := 0; fb < 8; fb++ {
			if coarse.CoarseBin(uint16(fb)) == cb {
				want += deltas[fb]
			}
		}
		require.Equal(t, uint32(want), coarse.Front[cb])
	}

	// RebuildFrom must reproduce the same coarse state.
	rebuilt := NewCoarse(a, 8, 4)
	rebuilt.RebuildFrom(fine)
	require.Equal(t, coarse.Front, rebuilt.Front)
}

func TestBufferFlushMatchesDirect(t *testing.T) {
	a1 := mustArena(t, 128)
	a2 := mustArena(t, 128)
	direct := New(a1, 6)
	viaBuffer := New(a2, 6)

	rows := []struct {
		bin   uint16
		delta int32
	}{{1, 1}, {3, 1}, {1, -1}, {5, 2}, {3, 1}}

	buf := NewBuffer(6)
	for _, r := range rows {
		direct.Add(r.bin, r.delta)
		buf.Accumulate(r.bin, r.delta)
	}
	buf.Flush(viaBuffer, nil)

	require.Equal(t, direct.Front, viaBuffer.Front)
}

func TestSIMDBufferFlushMatchesDirect(t *testing.T) {
	a1 := mustArena(t, 128)
	a2 := mustArena(t, 128)
	direct := New(a1, 6)
	viaSIMD := New(a2, 6)

	rows := []struct {
		bin   uint16
		delta int32
	}{{0, 1}, {2, 1}, {2, 1}, {4, -1}, {4, 1}}

	sb := NewSIMDBuffer(6)
	for _, r := range rows {
		direct.Add(r.bin, r.delta)
		sb.Accumulate(r.bin, r.delta)
	}
	sb.Flush(viaSIMD, nil)

	require.Equal(t, direct.Front, viaSIMD.Front)
}

func TestShouldBufferPolicy(t *testing.T) {
	require.True(t, ShouldBuffer(ModeBuffered, 1, 1))
	require.False(t, ShouldBuffer(ModeDirect, 10_000_000, 1))
	require.False(t, ShouldBuffer(ModeSIMD, 10_000_000, 1))
	require.False(t, ShouldBuffer(ModeAuto, 10, 1))
	require.True(t, ShouldBuffer(ModeAuto, 3_000_000, 1))
	require.True(t, ShouldBuffer(ModeAuto, 1000, 20000))
}

func TestParseModeRoundTrip(t *testing.T) {
	for _, s := range []string{"direct", "buffered", "auto", "simd", ""} {
		m, err := ParseMode(s)
		require.NoError(t, err)
		if s != "" {
			require.Equal(t, s, m.String())
		}
	}
	_, err := ParseMode("bogus")
	require.Error(t, err)
}
