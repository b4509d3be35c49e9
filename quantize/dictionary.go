// Copyright 2026 The CrossfilterX Authors.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package quantize

import "blainsmith.com/go/seahash"

// numDictShards shards a Dictionary's label->code lookups the way
// encoding/bamprovider's concurrentMap shards mate lookups; CrossfilterX's
// worker runs single-threaded, so shards exist purely to keep any one
// bucket's map small for large dictionaries, not for concurrency.
const numDictShards = 64

type dictShard struct {
	codes map[string]uint16
}

// Dictionary maps categorical labels to bin codes in [0, B). Once B-1 real
// codes have been assigned, every further unseen label collapses to the
// fallback bin B-1.
type Dictionary struct {
	shards   [numDictShards]dictShard
	labels   []string
	bits     uint8
	capacity int // B - 1: number of assignable real codes
	fallback uint16
}

// NewDictionary creates an empty Dictionary for a dimension with the given
// bit width.
func NewDictionary(bits uint8) *Dictionary {
	b := int(uint32(1) << bits)
	d := &Dictionary{
		bits:     bits,
		capacity: b - 1,
		fallback: uint16(b - 1),
	}
	for i := range d.shards {
		d.shards[i].codes = make(map[string]uint16)
	}
	return d
}

// NewDictionaryFromLabels builds a Dictionary whose codes are pre-assigned
// by array position, as in ColumnarPayload.categories[].labels: labels[i]
// gets code i. Used when ingest supplies the label set up front rather than
// discovering it incrementally.
func NewDictionaryFromLabels(bits uint8, labels []string) *Dictionary {
	d := NewDictionary(bits)
	for _, label := range labels {
		d.Code(label)
	}
	return d
}

// Code returns the bin code for label, assigning a new one if label hasn't
// been seen before and capacity remains; otherwise the fallback bin.
func (d *Dictionary) Code(label string) uint16 {
	shard := d.shardFor(label)
	if code, ok := shard.codes[label]; ok {
		return code
	}
	if len(d.labels) >= d.capacity {
		return d.fallback
	}
	code := uint16(len(d.labels))
	d.labels = append(d.labels, label)
	shard.codes[label] = code
	return code
}

// Label reconstructs the label for a previously assigned code, or "" for
// the fallback bin or an out-of-range code.
func (d *Dictionary) Label(code uint16) string {
	if int(code) < len(d.labels) {
		return d.labels[code]
	}
	return ""
}

// Len returns the number of distinct real labels assigned so far.
func (d *Dictionary) Len() int {
	return len(d.labels)
}

// Fallback returns the fallback bin index (B-1).
func (d *Dictionary) Fallback() uint16 {
	return d.fallback
}

func (d *Dictionary) shardFor(label string) *dictShard {
	h := seahash.Sum64([]byte(label))
	return &d.shards[h%numDictShards]
}
