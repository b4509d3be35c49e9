// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package topk implements a bounded-heap top-K / bottom-K scan over a
// histogram, grounded on the container/heap priority-queue shape used by
// the pack's graph-algorithm reference (katalvlaran-lvlath/dijkstra),
// applied here to histogram bins instead of shortest-path frontier entries.
package topk

import "container/heap"

// Bin is one (bin index, count) result entry.
type Bin struct {
	Index uint16
	Count uint32
}

// Top returns the k histogram bins with the largest counts, descending by
// count; ties are broken toward the larger bin index. Zero-count bins are
// never returned. If fewer than k bins are nonzero, the result is shorter
// than k.
func Top(hist []uint32, k int) []Bin {
	return scan(hist, k, false)
}

// Bottom returns the k histogram bins with the smallest (nonzero) counts,
// ascending by count; ties are broken toward the smaller bin index.
func Bottom(hist []uint32, k int) []Bin {
	return scan(hist, k, true)
}

// scan performs a single O(B log k) pass: a bounded heap of the best
// k-so-far candidates, with the insertion rule "keep if better than worst
// in heap".
func scan(hist []uint32, k int, ascending bool) []Bin {
	if k <= 0 {
		return nil
	}
	h := &boundedHeap{ascending: ascending}
	for b, count := range hist {
		if count == 0 {
			continue
		}
		cand := Bin{Index: uint16(b), Count: count}
		if h.Len() < k {
			heap.Push(h, cand)
			continue
		}
		if better(cand, h.items[0], ascending) {
			h.items[0] = cand
			heap.Fix(h, 0)
		}
	}
	out := h.items
	sortOutput(out, ascending)
	return out
}

// better reports whether a outranks b under the requested ordering: for
// top-k (ascending=false), higher count wins, ties go to the larger bin;
// for bottom-k (ascending=true), lower count wins, ties go to the smaller
// bin.
func better(a, b Bin, ascending bool) bool {
	if a.Count != b.Count {
		if ascending {
			return a.Count < b.Count
		}
		return a.Count > b.Count
	}
	if ascending {
		return a.Index < b.Index
	}
	return a.Index > b.Index
}

// sortOutput orders the final kept set for presentation: best first.
func sortOutput(items []Bin, ascending bool) {
	// Insertion sort: k is small (a UI-facing top-K request), so this beats
	// pulling in sort.Slice's reflection-based overhead.
	for i := 1; i < len(items); i++ {
		v := items[i]
		j := i - 1
		for j >= 0 && better(v, items[j], ascending) {
			items[j+1] = items[j]
			j--
		}
		items[j+1] = v
	}
}

// boundedHeap is a container/heap.Interface over up to k candidates, with
// the root always the current worst-ranked kept candidate so it can be
// evicted in O(log k).
type boundedHeap struct {
	items     []Bin
	ascending bool
}

func (h *boundedHeap) Len() int { return len(h.items) }

// Less defines heap order so that the worst-ranked candidate (the one a
// better newcomer should evict) sits at the root.
func (h *boundedHeap) Less(i, j int) bool {
	return better(h.items[j], h.items[i], h.ascending)
}

func (h *boundedHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *boundedHeap) Push(x interface{}) {
	h.items = append(h.items, x.(Bin))
}

func (h *boundedHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	v := old[n-1]
	h.items = old[:n-1]
	return v
}
