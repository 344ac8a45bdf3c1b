// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package arith

import (
	"github.com/carithio/carith/internal/bitio"
)

// model holds the order-0 frequency table for one block: per-symbol
// counts and their cumulative base, plus the total symbol count N.
type model struct {
	counts     [256]uint32
	countBase  [256]uint32
	n          uint64
}

func newModelFromCounts(counts [256]uint32) *model {
	m := &model{counts: counts}
	var base uint32
	for s := 0; s < 256; s++ {
		m.countBase[s] = base
		base += counts[s]
	}
	m.n = uint64(base)
	return m
}

func tabulate(input []byte) *model {
	var counts [256]uint32
	for _, b := range input {
		counts[b]++
	}
	return newModelFromCounts(counts)
}

// symbolAt returns the symbol whose [countBase, countBase+count) interval
// contains pos, via a linear scan; 256 entries makes a binary search not
// worth the complexity.
func (m *model) symbolAt(pos uint64) (int, bool) {
	for s := 0; s < 256; s++ {
		c := uint64(m.counts[s])
		if c == 0 {
			continue
		}
		base := uint64(m.countBase[s])
		if pos >= base && pos < base+c {
			return s, true
		}
	}
	return 0, false
}

// encodeFreqTable serializes m using whichever of the two encodings
// (full or enumerated) is shorter, as described by the flag bit each one
// leads with.
func encodeFreqTable(m *model) []byte {
	full := serializeFull(m)
	enum := serializeEnumerated(m)
	if len(enum) < len(full) {
		return enum
	}
	return full
}

func maxCountWidth(m *model) uint {
	var maxCount uint32
	for _, c := range m.counts {
		if c > maxCount {
			maxCount = c
		}
	}
	w := bitio.BitWidth(uint64(maxCount))
	if w == 0 {
		w = 1
	}
	return w
}

func serializeFull(m *model) []byte {
	w := maxCountWidth(m)
	totalBits := 1 + 5 + 256*int(w)
	buf := make([]byte, (totalBits+7)/8)
	c := bitio.NewCursor(buf)
	c.WriteMany(0, 1)
	c.WriteMany(uint64(w), 5)
	for s := 0; s < 256; s++ {
		c.WriteMany(uint64(m.counts[s]), w)
	}
	return buf
}

func serializeEnumerated(m *model) []byte {
	w := maxCountWidth(m)
	k := 0
	for _, c := range m.counts {
		if c > 0 {
			k++
		}
	}
	totalBits := 1 + 5 + 9 + k*(8+int(w))
	buf := make([]byte, (totalBits+7)/8)
	c := bitio.NewCursor(buf)
	c.WriteMany(1, 1)
	c.WriteMany(uint64(w), 5)
	c.WriteMany(uint64(k), 9)
	for s := 0; s < 256; s++ {
		if m.counts[s] == 0 {
			continue
		}
		c.WriteMany(uint64(s), 8)
		c.WriteMany(uint64(m.counts[s]), w)
	}
	return buf
}

// decodeFreqTable parses a frequency table blob produced by
// encodeFreqTable and rebuilds the model's cumulative bases.
func decodeFreqTable(buf []byte) (*model, error) {
	if len(buf) == 0 {
		return nil, ErrCorrupt
	}
	c := bitio.NewCursor(buf)
	kind := c.ReadMany(1)
	w := uint(c.ReadMany(5))
	if w == 0 || w > 32 {
		return nil, ErrCorrupt
	}
	var counts [256]uint32
	if kind == 0 {
		for s := 0; s < 256; s++ {
			counts[s] = uint32(c.ReadMany(w))
		}
	} else {
		k := int(c.ReadMany(9))
		if k > 256 {
			return nil, ErrCorrupt
		}
		for i := 0; i < k; i++ {
			s := c.ReadMany(8)
			counts[s] = uint32(c.ReadMany(w))
		}
	}
	m := newModelFromCounts(counts)
	if m.n == 0 {
		return nil, ErrCorrupt
	}
	return m, nil
}
