// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package rle implements a rotating-escape run-length encoder. A fixed
// escape byte is expensive: any input that happens to contain it needs
// every occurrence doubled. Rotating the escape byte by a fixed increment
// each time it is spent (either as a run header or as an escaped literal)
// spreads that cost across the whole byte range instead of concentrating
// it on one unlucky value.
package rle

// Error is the wrapper type for errors specific to this package.
type Error string

func (e Error) Error() string { return "rle: " + string(e) }

// ErrCorrupt is returned by Decode when the compressed stream is
// malformed (a zero-length run in the CHAR_SEEN state).
var ErrCorrupt error = Error("stream is corrupted")

const (
	initialEscape = 0x55
	escapeDelta   = 0x3B
	maxExtra      = 253 // max "extra repeats beyond the first" before a forced flush
)

func rotate(e byte) byte {
	return byte(int(e) + escapeDelta)
}

type encoder struct {
	out    []byte
	escape byte
	active bool
	old    byte
	count  int // extra repeats beyond the first occurrence, 0..253
}

func (e *encoder) emitLiteralRun() {
	for i := 0; i <= e.count; i++ {
		e.out = append(e.out, e.old)
	}
}

func (e *encoder) emitHeader() {
	e.out = append(e.out, e.escape, e.old, byte(e.count+1))
	e.escape = rotate(e.escape)
}

// flush emits whatever run is pending, if any, and clears the window. It
// does not perform the post-rotation collision check: callers that need
// it (the new-byte-equals-escape case in rule 3) do so themselves.
func (e *encoder) flush() {
	if !e.active {
		return
	}
	if e.count < 3 {
		e.emitLiteralRun()
	} else {
		e.emitHeader()
	}
	e.active = false
	e.count = 0
}

// Encode compresses src using the rotating-escape run-length scheme
// described in the package comment. It never fails. Runs shorter than 4
// are copied verbatim and spend no escape; every input byte equal to the
// current escape is doubled, so the output can be longer than the input.
func Encode(src []byte) []byte {
	e := &encoder{
		out:    make([]byte, 0, len(src)),
		escape: initialEscape,
	}
	for _, b := range src {
		switch {
		case b == e.escape:
			e.flush()
			if b != e.escape {
				// flush spent the escape on a run header, so b is no
				// longer the escape: it starts a new window instead.
				e.active = true
				e.old = b
				e.count = 0
				break
			}
			e.out = append(e.out, e.escape, e.escape)
			e.escape = rotate(e.escape)
			// window stays empty: the escape byte itself is fully
			// consumed by the doubled marker, it never becomes "old".
		case e.active && b == e.old:
			e.count++
			if e.count == maxExtra {
				e.emitHeader()
				e.active = false
				e.count = 0
			}
		case !e.active:
			e.active = true
			e.old = b
			e.count = 0
		default: // b != old, b != escape, window active
			if e.count < 3 {
				e.emitLiteralRun()
				e.active = true
				e.old = b
				e.count = 0
			} else {
				e.emitHeader()
				if b == e.escape {
					e.out = append(e.out, e.escape, e.escape)
					e.escape = rotate(e.escape)
					e.active = false
					e.count = 0
				} else {
					e.active = true
					e.old = b
					e.count = 0
				}
			}
		}
	}
	e.flush()
	return e.out
}

type decodeState int

const (
	collect decodeState = iota
	escSeen
	charSeen
)

// Decode reverses Encode. It is fatal (returns ErrCorrupt) on a
// zero-length run in the CHAR_SEEN state, which can only occur if the
// compressed stream was corrupted.
func Decode(src []byte) ([]byte, error) {
	out := make([]byte, 0, len(src))
	escape := byte(initialEscape)
	state := collect
	var repeatChar byte
	for _, b := range src {
		switch state {
		case collect:
			if b == escape {
				state = escSeen
			} else {
				out = append(out, b)
			}
		case escSeen:
			if b == escape {
				out = append(out, escape)
				escape = rotate(escape)
				state = collect
			} else {
				repeatChar = b
				state = charSeen
			}
		case charSeen:
			if b == 0 {
				return nil, ErrCorrupt
			}
			for i := byte(0); i < b; i++ {
				out = append(out, repeatChar)
			}
			escape = rotate(escape)
			state = collect
		}
	}
	if state != collect {
		return nil, ErrCorrupt
	}
	return out, nil
}
