// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.
package rle

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	cases := [][]byte{
		[]byte("BANANA"),
		bytes.Repeat([]byte{0x41}, 1000),
		{0x55, 0x55, 0x90, 0x90, 0x90, 0x90, 0x55, 0x55},
		{0x41, 0x41, 0x41, 0x41, 0x55},
		{},
		{0x55},
		{0x55, 0x55},
		bytes.Repeat([]byte{0x55}, 600),
		bytes.Repeat([]byte{0x00}, 10000),
	}
	for i, c := range cases {
		enc := Encode(c)
		got, err := Decode(enc)
		if err != nil {
			t.Fatalf("case %v: %v", i, err)
		}
		if !bytes.Equal(got, c) {
			t.Errorf("case %v: round trip mismatch:\n got  %x\n want %x", i, got, c)
		}
	}
}

func TestRoundTripRandom(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		n := rnd.Intn(4000)
		buf := make([]byte, n)
		for j := range buf {
			// bias toward a handful of symbols so runs actually occur.
			buf[j] = byte(rnd.Intn(6))
		}
		enc := Encode(buf)
		got, err := Decode(enc)
		if err != nil {
			t.Fatalf("iter %v: %v", i, err)
		}
		if !bytes.Equal(got, buf) {
			t.Errorf("iter %v: round trip mismatch (n=%v)", i, n)
		}
	}
}

func TestGolden1000As(t *testing.T) {
	src := bytes.Repeat([]byte{0x41}, 1000)
	enc := Encode(src)
	// three full 254-byte runs plus a 238-byte tail, each a 3-byte header.
	if len(enc) != 12 {
		t.Fatalf("got len %v, want 12", len(enc))
	}
	if enc[0] != 0x55 || enc[1] != 0x41 || enc[2] != 0xFE {
		t.Errorf("first header = %x %x %x, want 55 41 fe", enc[0], enc[1], enc[2])
	}
}

func TestShortRunsStayLiteral(t *testing.T) {
	// runs of 1-3 must never be more expensive than the input.
	for n := 1; n <= 3; n++ {
		src := bytes.Repeat([]byte{0x7A}, n)
		enc := Encode(src)
		if len(enc) != n {
			t.Errorf("n=%v: got encoded len %v, want %v", n, len(enc), n)
		}
	}
}

func TestCorruptZeroCount(t *testing.T) {
	escape := byte(initialEscape)
	bad := []byte{escape, 0x41, 0x00}
	if _, err := Decode(bad); err != ErrCorrupt {
		t.Errorf("got %v, want ErrCorrupt", err)
	}
}

func TestEscapeRotationInvariant(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	buf := make([]byte, 5000)
	for i := range buf {
		buf[i] = byte(rnd.Intn(8))
	}
	e := &encoder{out: make([]byte, 0, len(buf)), escape: initialEscape}
	k := 0
	checkPrefix := func() {
		want := byte(int(initialEscape) + k*escapeDelta)
		if e.escape != want {
			t.Fatalf("after %v rotations: escape = %#x, want %#x", k, e.escape, want)
		}
	}
	for _, b := range buf {
		checkPrefix()
		before := e.escape
		switch {
		case b == e.escape:
			e.flush()
			if e.escape != before {
				k++ // flush's header branch rotated
				e.active = true
				e.old = b
				e.count = 0
				break
			}
			e.out = append(e.out, e.escape, e.escape)
			e.escape = rotate(e.escape)
			k++
		case e.active && b == e.old:
			e.count++
			if e.count == maxExtra {
				e.emitHeader()
				e.active = false
				e.count = 0
				k++
			}
		case !e.active:
			e.active = true
			e.old = b
			e.count = 0
		default:
			if e.count < 3 {
				e.emitLiteralRun()
				e.active = true
				e.old = b
				e.count = 0
			} else {
				e.emitHeader()
				k++
				if b == e.escape {
					e.out = append(e.out, e.escape, e.escape)
					e.escape = rotate(e.escape)
					k++
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
	checkPrefix()
}
