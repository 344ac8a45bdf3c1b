// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package lzss implements the two LZSS dictionary-coder variants used by
// the codec pipeline: a 4 KiB window with a 12-bit offset/4-bit length
// token (LZSS-4k) and a 32 KiB window with a 15-bit offset/6-bit length
// token (LZSS-32k). Both share the same match-search and token framing
// logic; only the numeric parameters in Params differ.
//
// The window is modeled as one contiguous buffer: a fixed-size seed
// region, followed by the variable-size input tail. All access goes
// through small helpers keyed off that split so the window/input boundary
// is never computed ad hoc at each call site.
package lzss

import "fmt"

// Error is the wrapper type for errors specific to this package.
type Error string

func (e Error) Error() string { return "lzss: " + string(e) }

var (
	// ErrCorrupt is wrapped by every error Decode returns on a short read,
	// a bad flag byte, an out-of-window offset, or a length that exceeds
	// MaxMatch.
	ErrCorrupt error = Error("stream is corrupted")
)

// Params parameterizes one LZSS variant.
type Params struct {
	WindowSize int
	// OffsetBits and LengthBits are the widths packed into a match token.
	OffsetBits uint
	LengthBits uint
	MinMatch   int
	MaxMatch   int
	// TokenBytes is the width, in bytes, of one match token on the wire.
	TokenBytes int
}

// Params4k is the 12-bit offset / 4-bit length variant (4095 byte window).
var Params4k = newParams(4095, 12, 4, 2)

// Params32k is the 15-bit offset / 6-bit length variant (32767 byte
// window); its 21 packed bits round up to a 3-byte token with 3 spare
// high bits left zero.
var Params32k = newParams(32767, 15, 6, 3)

func newParams(windowSize int, offsetBits, lengthBits uint, tokenBytes int) Params {
	return Params{
		WindowSize: windowSize,
		OffsetBits: offsetBits,
		LengthBits: lengthBits,
		MinMatch:   3,
		MaxMatch:   3 + (1<<lengthBits - 1),
		TokenBytes: tokenBytes,
	}
}

// window bundles the seed+input buffer shared by the encoder and decoder
// sides of one LZSS call.
type window struct {
	buf        []byte
	seedStart  int // first valid (non-zero-padding) byte of the window
	windowSize int
	inputStart int // == windowSize
	inputEnd   int // == windowSize + len(input)
}

func newWindow(p Params, inputLen int) *window {
	seedLen := len(seedDictionary)
	if seedLen > p.WindowSize {
		seedLen = p.WindowSize
	}
	buf := make([]byte, p.WindowSize+inputLen)
	copy(buf[p.WindowSize-seedLen:p.WindowSize], seedDictionary[len(seedDictionary)-seedLen:])
	return &window{
		buf:        buf,
		seedStart:  p.WindowSize - seedLen,
		windowSize: p.WindowSize,
		inputStart: p.WindowSize,
		inputEnd:   p.WindowSize + inputLen,
	}
}

func checkNonEmpty(input []byte) {
	if len(input) == 0 {
		panic("lzss: zero-length input")
	}
}

func packToken(offset, length int, p Params) uint64 {
	return uint64(offset)<<p.LengthBits | uint64(length-p.MinMatch)
}

func unpackToken(v uint64, p Params) (offset, length int) {
	mask := uint64(1)<<p.LengthBits - 1
	return int(v >> p.LengthBits), int(v&mask) + p.MinMatch
}

func fmtErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...))
}
