// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

//go:build linux || darwin

package layout

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// newBacking allocates an anonymous mmap segment, the way
// fusion/kmer_index.go maps its huge-page hash table: MAP_ANON|MAP_PRIVATE
// gives a zeroed region that isn't file-backed, but is still a distinct
// virtual-memory mapping an external process could, in principle, share via
// MAP_SHARED if the orchestrator lived in a different address space. Within
// one process, this buys us a stable, page-aligned, GC-invisible buffer.
func newBacking(size int) ([]byte, backing, error) {
	if size == 0 {
		// unix.Mmap rejects a zero length; a zero-size arena is legitimate
		// for a dimension-less ingest, so hand back an empty heap slice.
		return []byte{}, backing{release: func() error { return nil }}, nil
	}
	buf, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		// Fall back to a heap allocation rather than failing the engine:
		// mmap can be refused under restrictive sandboxes.
		return make([]byte, size), backing{release: func() error { return nil }}, nil
	}
	released := false
	release := func() error {
		if released {
			return nil
		}
		released = true
		if err := unix.Munmap(buf); err != nil {
			return errors.Wrap(err, "layout: munmap")
		}
		return nil
	}
	return buf, backing{shared: true, release: release}, nil
}
