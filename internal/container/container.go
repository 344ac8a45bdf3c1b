// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package container reads and writes the on-disk framing for a
// compressed file: a fixed file header followed by a sequence of
// per-block frames, each sized independently since the codec stages
// that precede it (RLE, LZSS) change a block's length unpredictably.
// The last frame is detected by EOF; there is no terminating sentinel.
package container

import (
	"encoding/binary"
	"io"

	"github.com/carithio/carith/internal/scheme"
)

const cookie = 0xD5AA

// Error is the wrapper type for errors specific to this package.
type Error string

func (e Error) Error() string { return "container: " + string(e) }

// ErrBadCookie is returned by ReadHeader when the leading magic bytes
// don't match cookie.
var ErrBadCookie error = Error("bad magic cookie")

// Header is the fixed file-level preamble. Scheme records the chain
// applied uniformly to every block in the file (the AC stage may still
// be skipped on a per-block basis when it doesn't shrink that particular
// block; see BlockToFrame/FrameToBlock).
type Header struct {
	Scheme        byte
	Mode          uint32
	PlainCRC      uint32
	TotalPlainLen uint32
	TotalRLELen   uint32
	SegSize       uint32
}

const headerLen = 2 + 1 + 4 + 4 + 4 + 4 + 4

// WriteHeader writes h's fixed 23-byte layout to w.
func WriteHeader(w io.Writer, h Header) error {
	var buf [headerLen]byte
	binary.BigEndian.PutUint16(buf[0:2], cookie)
	buf[2] = h.Scheme
	binary.BigEndian.PutUint32(buf[3:7], h.Mode)
	binary.BigEndian.PutUint32(buf[7:11], h.PlainCRC)
	binary.BigEndian.PutUint32(buf[11:15], h.TotalPlainLen)
	binary.BigEndian.PutUint32(buf[15:19], h.TotalRLELen)
	binary.BigEndian.PutUint32(buf[19:23], h.SegSize)
	_, err := w.Write(buf[:])
	return err
}

// ReadHeader reads and validates a file header from r.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [headerLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, err
	}
	if binary.BigEndian.Uint16(buf[0:2]) != cookie {
		return Header{}, ErrBadCookie
	}
	return Header{
		Scheme:        buf[2],
		Mode:          binary.BigEndian.Uint32(buf[3:7]),
		PlainCRC:      binary.BigEndian.Uint32(buf[7:11]),
		TotalPlainLen: binary.BigEndian.Uint32(buf[11:15]),
		TotalRLELen:   binary.BigEndian.Uint32(buf[15:19]),
		SegSize:       binary.BigEndian.Uint32(buf[19:23]),
	}, nil
}

// Frame is one block's on-wire record.
type Frame struct {
	RLEIntermediateLen uint32
	BlockPlainLen      uint32
	FreqComp           []byte
	Comp               []byte
}

func (f Frame) totalPayloadLen() uint32 {
	return uint32(len(f.FreqComp)) + uint32(len(f.Comp))
}

const frameFixedLen = 4 + 4 + 2 + 4

// WriteFrame writes one block frame to w.
func WriteFrame(w io.Writer, f Frame) error {
	var buf [frameFixedLen]byte
	binary.BigEndian.PutUint32(buf[0:4], f.RLEIntermediateLen)
	binary.BigEndian.PutUint32(buf[4:8], f.totalPayloadLen())
	binary.BigEndian.PutUint16(buf[8:10], uint16(len(f.FreqComp)))
	binary.BigEndian.PutUint32(buf[10:14], f.BlockPlainLen)
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	if len(f.FreqComp) > 0 {
		if _, err := w.Write(f.FreqComp); err != nil {
			return err
		}
	}
	if len(f.Comp) > 0 {
		if _, err := w.Write(f.Comp); err != nil {
			return err
		}
	}
	return nil
}

// ReadFrame reads one block frame from r. It returns io.EOF, unwrapped,
// exactly when r has no more frames (i.e. EOF lands on the frame
// boundary); any other read failure, including a short read mid-frame,
// is reported as-is so callers can tell a clean end from a truncated
// file.
func ReadFrame(r io.Reader) (Frame, error) {
	var fixed [frameFixedLen]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return Frame{}, Error("truncated frame header")
		}
		return Frame{}, err
	}
	rleLen := binary.BigEndian.Uint32(fixed[0:4])
	totalPayloadLen := binary.BigEndian.Uint32(fixed[4:8])
	freqLen := binary.BigEndian.Uint16(fixed[8:10])
	blockPlainLen := binary.BigEndian.Uint32(fixed[10:14])
	if uint32(freqLen) > totalPayloadLen {
		return Frame{}, Error("freq_comp_len exceeds total_payload_len")
	}

	f := Frame{RLEIntermediateLen: rleLen, BlockPlainLen: blockPlainLen}
	if freqLen > 0 {
		f.FreqComp = make([]byte, freqLen)
		if _, err := io.ReadFull(r, f.FreqComp); err != nil {
			return Frame{}, Error("truncated frequency table")
		}
	}
	compLen := totalPayloadLen - uint32(freqLen)
	if compLen > 0 {
		f.Comp = make([]byte, compLen)
		if _, err := io.ReadFull(r, f.Comp); err != nil {
			return Frame{}, Error("truncated payload")
		}
	}
	return f, nil
}

// BlockToFrame packs a compressed block into its wire frame.
// blockPlainLen is the length of the original plain bytes this block
// covers, prior to any codec stage.
func BlockToFrame(b scheme.Block, blockPlainLen uint32) Frame {
	f := Frame{BlockPlainLen: blockPlainLen, Comp: b.Payload}
	if b.Scheme&scheme.RLE != 0 {
		f.RLEIntermediateLen = uint32(b.RLELen)
	}
	if b.Scheme&scheme.AC != 0 {
		f.FreqComp = b.FreqTable
	}
	return f
}

// FrameToBlock rebuilds the scheme.Block that BlockToFrame would have
// produced, given the file's master scheme. RLE and AC are included
// exactly when the frame shows evidence of them (a non-zero RLE length
// or a non-empty frequency table); the LZSS variant, which has no
// per-block tell, always follows the master scheme, matching
// applyChain's unconditional application of whatever LZSS bit the
// master scheme carries.
func FrameToBlock(f Frame, masterScheme byte) scheme.Block {
	if masterScheme == scheme.Stored {
		return scheme.Block{Scheme: scheme.Stored, Payload: f.Comp}
	}
	sch := masterScheme & (scheme.LZSS4k | scheme.LZSS32k)
	if f.RLEIntermediateLen > 0 {
		sch |= scheme.RLE
	}
	if len(f.FreqComp) > 0 {
		sch |= scheme.AC
	}
	if sch == 0 {
		// Only reachable when masterScheme is AC alone and this block's
		// AC stage was dropped by the expansion guard: no stage left
		// any evidence, so f.Comp is the untouched plain payload.
		return scheme.Block{Scheme: scheme.Stored, Payload: f.Comp}
	}
	return scheme.Block{
		Scheme:    sch,
		RLELen:    int(f.RLEIntermediateLen),
		FreqTable: f.FreqComp,
		Payload:   f.Comp,
	}
}
