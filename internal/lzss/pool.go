// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package lzss

// pointerEntry tracks one byte symbol's occurrences within a pool's flat
// positions array: a fixed base/total established at construction time,
// and a search cursor that only ever advances as positions fall out of
// the sliding window and are pruned for good.
type pointerEntry struct {
	countBase  int
	searchBase int
	count      int // remaining live occurrences
}

// pointerPool indexes every occurrence of every byte value across a
// window's seed+input buffer, partitioned by symbol, so match search
// doesn't have to scan the buffer linearly for candidate positions.
type pointerPool struct {
	positions []uint32
	entries   [256]pointerEntry
}

func buildPointerPool(buf []byte, from int) *pointerPool {
	var counts [256]int
	for _, b := range buf[from:] {
		counts[b]++
	}
	pool := &pointerPool{positions: make([]uint32, len(buf)-from)}
	base := 0
	for s := 0; s < 256; s++ {
		pool.entries[s] = pointerEntry{countBase: base, searchBase: base, count: counts[s]}
		base += counts[s]
	}
	var cursor [256]int
	for s := 0; s < 256; s++ {
		cursor[s] = pool.entries[s].countBase
	}
	for i := from; i < len(buf); i++ {
		s := buf[i]
		pool.positions[cursor[s]] = uint32(i)
		cursor[s]++
	}
	return pool
}

// search finds the longest match for the byte at position p in w,
// walking the pointer list for buf[p]'s symbol and lazily pruning entries
// that have fallen behind the sliding window's back pointer b. It returns
// the match length (0 if none found) and the offset p-q of the best
// match.
func (pool *pointerPool) search(w *window, p int, params Params) (length, offset int) {
	b := p - params.WindowSize
	if b < w.seedStart {
		b = w.seedStart
	}
	sym := w.buf[p]
	ent := &pool.entries[sym]
	for ent.count > 0 && int(pool.positions[ent.searchBase]) < b {
		ent.searchBase++
		ent.count--
	}
	limit := p + params.MaxMatch
	if w.inputEnd < limit {
		limit = w.inputEnd
	}
	bestLen := 0
	bestOff := 0
	for i := 0; i < ent.count; i++ {
		q := int(pool.positions[ent.searchBase+i])
		if q > p-params.MinMatch {
			break
		}
		l := matchLength(w.buf, p, q, limit)
		if l >= bestLen {
			bestLen = l
			bestOff = p - q
		}
		if bestLen >= params.MaxMatch {
			break
		}
	}
	return bestLen, bestOff
}

func matchLength(buf []byte, p, q, limit int) int {
	n := 0
	for p+n < limit && buf[p+n] == buf[q+n] {
		n++
	}
	return n
}
