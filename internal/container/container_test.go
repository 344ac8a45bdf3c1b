// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.
package container

import (
	"bytes"
	"io"
	"testing"

	"github.com/carithio/carith/internal/scheme"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		Scheme:        scheme.RLE | scheme.LZSS32k | scheme.AC,
		Mode:          0644,
		PlainCRC:      0xdeadbeef,
		TotalPlainLen: 123456,
		TotalRLELen:   98765,
		SegSize:       1 << 19,
	}
	var buf bytes.Buffer
	if err := WriteHeader(&buf, h); err != nil {
		t.Fatal(err)
	}
	got, err := ReadHeader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != h {
		t.Errorf("got %+v, want %+v", got, h)
	}
}

func TestReadHeaderBadCookie(t *testing.T) {
	buf := bytes.NewReader(make([]byte, headerLen))
	if _, err := ReadHeader(buf); err != ErrBadCookie {
		t.Errorf("got %v, want ErrBadCookie", err)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	frames := []Frame{
		{RLEIntermediateLen: 0, BlockPlainLen: 10, FreqComp: nil, Comp: []byte("hello")},
		{RLEIntermediateLen: 42, BlockPlainLen: 100, FreqComp: []byte{1, 2, 3}, Comp: []byte("compressed-bytes-here")},
		{RLEIntermediateLen: 0, BlockPlainLen: 0, FreqComp: nil, Comp: nil},
	}
	var buf bytes.Buffer
	for _, f := range frames {
		if err := WriteFrame(&buf, f); err != nil {
			t.Fatal(err)
		}
	}
	for i, want := range frames {
		got, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("frame %v: %v", i, err)
		}
		if got.RLEIntermediateLen != want.RLEIntermediateLen ||
			got.BlockPlainLen != want.BlockPlainLen ||
			!bytes.Equal(got.FreqComp, want.FreqComp) ||
			!bytes.Equal(got.Comp, want.Comp) {
			t.Errorf("frame %v: got %+v, want %+v", i, got, want)
		}
	}
	if _, err := ReadFrame(&buf); err != io.EOF {
		t.Errorf("got %v, want io.EOF at stream end", err)
	}
}

func TestReadFrameTruncated(t *testing.T) {
	f := Frame{BlockPlainLen: 10, Comp: []byte("abcdefghij")}
	var buf bytes.Buffer
	if err := WriteFrame(&buf, f); err != nil {
		t.Fatal(err)
	}
	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-3])
	if _, err := ReadFrame(truncated); err == nil {
		t.Fatal("expected error on truncated frame")
	}
}

func TestBlockFrameConversion(t *testing.T) {
	b := scheme.Block{
		Scheme:    scheme.RLE | scheme.LZSS32k | scheme.AC,
		RLELen:    55,
		FreqTable: []byte{9, 8, 7},
		Payload:   []byte("payload-bytes"),
	}
	f := BlockToFrame(b, 200)
	if f.RLEIntermediateLen != 55 || f.BlockPlainLen != 200 {
		t.Errorf("unexpected frame: %+v", f)
	}
	back := FrameToBlock(f, b.Scheme)
	if back.Scheme != b.Scheme || back.RLELen != b.RLELen ||
		!bytes.Equal(back.FreqTable, b.FreqTable) || !bytes.Equal(back.Payload, b.Payload) {
		t.Errorf("got %+v, want %+v", back, b)
	}
}

func TestBlockFrameConversionSkipsUnusedStages(t *testing.T) {
	// Master scheme wants RLE+LZSS32k+AC, but this frame records no RLE
	// intermediate length and no frequency table, so only the master's
	// LZSS bit is left.
	master := byte(scheme.RLE | scheme.LZSS32k | scheme.AC)
	f := Frame{BlockPlainLen: 50, Comp: []byte("lzss-only-output")}
	back := FrameToBlock(f, master)
	if back.Scheme != scheme.LZSS32k {
		t.Errorf("got scheme %#x, want %#x", back.Scheme, scheme.LZSS32k)
	}
}

func TestBlockFrameConversionACOnlyMasterFallsBackToStored(t *testing.T) {
	// Master scheme is AC alone; this block's AC stage was dropped by
	// the expansion guard, so the frame carries no RLE/freq evidence
	// and the master has no LZSS bit to fall back on either.
	master := byte(scheme.AC)
	f := Frame{BlockPlainLen: 50, Comp: []byte("plain-bytes-unchanged")}
	back := FrameToBlock(f, master)
	if back.Scheme != scheme.Stored || !bytes.Equal(back.Payload, f.Comp) {
		t.Errorf("got %+v, want Stored scheme with untouched payload", back)
	}
}

func TestBlockFrameConversionStored(t *testing.T) {
	f := Frame{BlockPlainLen: 50, Comp: []byte("raw-bytes")}
	back := FrameToBlock(f, scheme.Stored)
	if back.Scheme != scheme.Stored || !bytes.Equal(back.Payload, f.Comp) {
		t.Errorf("got %+v", back)
	}
}
