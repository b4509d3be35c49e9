// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package layout implements the engine's shared backing store: one
// contiguous allocation per engine instance holding quantized columns,
// histograms, refcount, and the active mask, so that an external reader can
// observe the same bytes the engine writes.
package layout

import "github.com/pkg/errors"

// Arena is a bump allocator over one backing buffer, in the manner of
// encoding/pam's unsafeArena: callers Alloc() fixed-size regions up front at
// INGEST/ADD_DIMENSION time, and nothing is ever freed individually — the
// whole Arena is dropped when the engine terminates.
type Arena struct {
	buf     []byte
	n       int
	backing backing
}

// NewArena allocates a backing store of the given size, preferring a
// shared-memory (mmap) segment so that an external orchestrator can map the
// same bytes read-only. Falls back to a plain heap slice when the platform
// doesn't support it.
func NewArena(size int) (*Arena, error) {
	if size < 0 {
		return nil, errors.Errorf("layout: negative arena size %d", size)
	}
	b, bk, err := newBacking(size)
	if err != nil {
		return nil, errors.Wrap(err, "layout: allocating arena")
	}
	return &Arena{buf: b, backing: bk}, nil
}

// align rounds the allocator's cursor up to an 8-byte boundary, so that
// typed slices carved from the arena via Alloc are naturally aligned for
// uint32/uint64/float64 reinterpretation.
func (a *Arena) align() {
	const word = 8
	a.n = ((a.n + word - 1) / word) * word
}

// Alloc returns an n-byte zeroed slice carved out of the arena. It panics on
// overflow: arena sizes are computed up front from the ingested schema, so
// overflow indicates a sizing bug, not a runtime condition callers should
// recover from.
func (a *Arena) Alloc(n int) []byte {
	a.align()
	if a.n+n > len(a.buf) {
		panic(errors.Errorf("layout: arena overflow, used=%d requested=%d cap=%d", a.n, n, len(a.buf)))
	}
	s := a.buf[a.n : a.n+n : a.n+n]
	a.n += n
	return s
}

// Len returns the total capacity of the arena in bytes.
func (a *Arena) Len() int {
	return len(a.buf)
}

// Used returns the number of bytes allocated so far.
func (a *Arena) Used() int {
	return a.n
}

// Bytes returns the whole backing buffer, for an external reader that wants
// a single zero-copy view of engine state. Only the engine mutates it.
func (a *Arena) Bytes() []byte {
	return a.buf
}

// Shared reports whether the arena is backed by a shared-memory (mmap)
// segment as opposed to a plain Go heap allocation.
func (a *Arena) Shared() bool {
	return a.backing.shared
}

// Close releases the arena's backing store. Safe to call once, at worker
// termination.
func (a *Arena) Close() error {
	return a.backing.release()
}

type backing struct {
	shared  bool
	release func() error
}
