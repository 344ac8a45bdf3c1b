// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package arith implements an order-0, byte-alphabet arithmetic (range)
// coder. Two 64-bit endpoints lo/hi track the current coding interval;
// scaling a symbol's sub-interval out of [lo, hi] needs a 64x64 -> 128-bit
// multiply followed by a 128/64 -> 64-bit divide, which math/bits'
// Mul64/Div64 provide directly in hardware on 64-bit targets. Floating
// point is never used for the scaling arithmetic: it cannot reproduce the
// decoder's bit-exact interval walk.
package arith

import (
	"encoding/binary"
	"math/bits"
)

// Error is the wrapper type for errors specific to this package.
type Error string

func (e Error) Error() string { return "arith: " + string(e) }

// ErrCorrupt is returned by Decode when no symbol interval can be found
// for the current window position after the correction step, or when the
// frequency table itself is malformed.
var ErrCorrupt error = Error("stream is corrupted")

// scale computes floor(x * width / n) using a 128-bit intermediate
// product, matching the range-coder interval formula in the package
// comment. x is always <= n and width < 2^64, so the product is below
// n*2^64, its high word is always < n, and the division never overflows
// a uint64 quotient.
func scale(x, width, n uint64) uint64 {
	hi, lo := bits.Mul64(x, width)
	q, _ := bits.Div64(hi, lo, n)
	return q
}

// Encode range-codes input and returns the serialized frequency table and
// the compressed payload separately, matching the container format's
// separate freq_comp/comp fields.
func Encode(input []byte) (freqTable []byte, comp []byte) {
	m := tabulate(input)
	freqTable = encodeFreqTable(m)

	var out []byte
	lo, hi := uint64(0), ^uint64(0)
	n := m.n
	for _, s := range input {
		width := hi - lo
		base := uint64(m.countBase[s])
		cnt := uint64(m.counts[s])
		newLo := lo + scale(base, width, n)
		newHi := lo + scale(base+cnt, width, n) - 1
		lo, hi = newLo, newHi
		for lo>>56 == hi>>56 {
			out = append(out, byte(lo>>56))
			lo <<= 8
			hi = hi<<8 | 0xff
		}
	}
	var flush [8]byte
	binary.BigEndian.PutUint64(flush[:], lo)
	out = append(out, flush[:]...)
	return freqTable, out
}

// Decode reverses Encode. The frequency table is parsed first to
// recover N (the number of symbols to decode) and each symbol's
// cumulative interval; the compressed payload is then walked one symbol
// at a time.
func Decode(freqTable, comp []byte) ([]byte, error) {
	m, err := decodeFreqTable(freqTable)
	if err != nil {
		return nil, err
	}
	if uint64(len(comp)) < 8 {
		return nil, ErrCorrupt
	}

	var windowBuf [8]byte
	copy(windowBuf[:], comp[:8])
	window := binary.BigEndian.Uint64(windowBuf[:])
	comp = comp[8:]

	readByte := func() byte {
		if len(comp) == 0 {
			return 0
		}
		b := comp[0]
		comp = comp[1:]
		return b
	}

	out := make([]byte, 0, m.n)
	lo, hi := uint64(0), ^uint64(0)
	n := m.n
	for uint64(len(out)) < n {
		width := hi - lo
		countpos := scale(window-lo, n, width)
		if countpos >= n {
			countpos = n - 1
		}
		s, ok := m.symbolAt(countpos)
		if !ok {
			return nil, ErrCorrupt
		}
		base := uint64(m.countBase[s])
		cnt := uint64(m.counts[s])
		symLo := lo + scale(base, width, n)
		symHi := lo + scale(base+cnt, width, n) - 1
		for window > symHi {
			countpos++
			if countpos >= n {
				return nil, ErrCorrupt
			}
			s, ok = m.symbolAt(countpos)
			if !ok {
				return nil, ErrCorrupt
			}
			base = uint64(m.countBase[s])
			cnt = uint64(m.counts[s])
			symLo = lo + scale(base, width, n)
			symHi = lo + scale(base+cnt, width, n) - 1
		}
		out = append(out, byte(s))
		lo, hi = symLo, symHi
		for lo>>56 == hi>>56 {
			lo <<= 8
			hi = hi<<8 | 0xff
			window = window<<8 | uint64(readByte())
		}
	}
	return out, nil
}
