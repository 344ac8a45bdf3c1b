// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.
package arith

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	cases := [][]byte{
		[]byte("BANANA"),
		[]byte("a"),
		bytes.Repeat([]byte{0x00}, 2000),
		[]byte("the quick brown fox jumps over the lazy dog"),
	}
	for i, c := range cases {
		freq, comp := Encode(c)
		got, err := Decode(freq, comp)
		if err != nil {
			t.Fatalf("case %v: %v", i, err)
		}
		if !bytes.Equal(got, c) {
			t.Errorf("case %v: mismatch:\n got  %q\n want %q", i, got, c)
		}
	}
}

func TestRoundTripRandom(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	for iter := 0; iter < 50; iter++ {
		n := 1 + rnd.Intn(8000)
		buf := make([]byte, n)
		rnd.Read(buf)
		freq, comp := Encode(buf)
		got, err := Decode(freq, comp)
		if err != nil {
			t.Fatalf("iter %v (n=%v): %v", iter, n, err)
		}
		if !bytes.Equal(got, buf) {
			t.Fatalf("iter %v (n=%v): mismatch", iter, n)
		}
	}
}

func TestRoundTripSkewedDistribution(t *testing.T) {
	rnd := rand.New(rand.NewSource(21))
	buf := make([]byte, 5000)
	for i := range buf {
		if rnd.Intn(10) == 0 {
			buf[i] = byte(rnd.Intn(256))
		} else {
			buf[i] = 'x'
		}
	}
	freq, comp := Encode(buf)
	got, err := Decode(freq, comp)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, buf) {
		t.Fatal("mismatch")
	}
}

func TestBananaFitsInSixteenBytes(t *testing.T) {
	freq, comp := Encode([]byte("BANANA"))
	if total := len(freq) + len(comp); total > 16 {
		t.Errorf("total size %v exceeds 16 bytes (freq=%v comp=%v)", total, len(freq), len(comp))
	}
	got, err := Decode(freq, comp)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "BANANA" {
		t.Errorf("got %q, want BANANA", got)
	}
}

func TestEnumeratedChosenForSparseAlphabet(t *testing.T) {
	// 40 distinct symbols out of a 1KiB block: 15+k*(8+w) bits should
	// beat 6+256*w bits.
	buf := make([]byte, 1024)
	rnd := rand.New(rand.NewSource(3))
	for i := range buf {
		buf[i] = byte(rnd.Intn(40))
	}
	m := tabulate(buf)
	enumBits := len(serializeEnumerated(m))
	fullBits := len(serializeFull(m))
	if enumBits >= fullBits {
		t.Errorf("expected enumerated (%v bytes) to beat full (%v bytes)", enumBits, fullBits)
	}
	freq := encodeFreqTable(m)
	if len(freq) != enumBits {
		t.Errorf("encodeFreqTable chose the larger encoding: got %v, want %v", len(freq), enumBits)
	}
}

func TestCorruptEmptyFreqTable(t *testing.T) {
	if _, err := Decode(nil, []byte{0, 0, 0, 0, 0, 0, 0, 0}); err != ErrCorrupt {
		t.Errorf("got %v, want ErrCorrupt", err)
	}
}
