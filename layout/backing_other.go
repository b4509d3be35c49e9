// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

//go:build !linux && !darwin

package layout

// newBacking falls back to a plain heap allocation on platforms without an
// anonymous-mmap syscall wrapper wired up. The arena's external contract
// (one contiguous, never-reallocated buffer) still holds; only the
// zero-copy-across-processes property is lost.
func newBacking(size int) ([]byte, backing, error) {
	return make([]byte, size), backing{release: func() error { return nil }}, nil
}
