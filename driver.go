// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package carith implements a general-purpose lossless file compressor
// built around a composable codec pipeline (rotating-escape RLE, two
// LZSS variants, and an order-0 arithmetic coder). An outer driver
// splits input into fixed-size blocks, fans them out to a worker pool
// via Compressor/Decompressor, and serializes the result into a
// self-describing container with per-block framing and a whole-file
// CRC32.
package carith

import (
	"context"
	"hash/crc32"
	"io"

	"cloudeng.io/errors"

	"github.com/carithio/carith/internal/container"
	"github.com/carithio/carith/internal/scheme"
)

// Error is the wrapper type for errors specific to this package.
type Error string

func (e Error) Error() string { return "carith: " + string(e) }

// ErrCRCMismatch is returned by ExtractFile when the decompressed
// stream's CRC32 does not match the one recorded in the file header.
var ErrCRCMismatch error = Error("plain CRC does not match header")

// Stats summarizes one completed compression.
type Stats struct {
	Scheme        byte
	TotalPlainLen uint64
	TotalRLELen   uint64
	TotalFileLen  uint64
	PlainCRC      uint32
}

// CompressFile reads all of src, compresses it in parallel, and writes
// a complete container to dst. dst must support Seek: the file header
// carries running totals (plain length, RLE length, CRC) that are only
// known once the whole input has been read, so a zero-valued header is
// written first and patched in place once those totals are final.
func CompressFile(ctx context.Context, src io.Reader, dst io.WriteSeeker, mode uint32, chain byte, opts ...CompressorOption) (Stats, error) {
	if _, err := dst.Seek(0, io.SeekStart); err != nil {
		return Stats{}, err
	}
	if err := container.WriteHeader(dst, container.Header{}); err != nil {
		return Stats{}, err
	}

	o := compressorOpts{segSize: DefaultSegSize}
	for _, fn := range opts {
		fn(&o)
	}

	first, rd, err := peekSegment(src, o.segSize)
	if err != nil {
		return Stats{}, err
	}
	if len(first) == 0 {
		// Nothing to compress: the file header alone is the whole
		// container, with the scheme byte left as Stored for an empty
		// payload.
		if _, err := dst.Seek(0, io.SeekStart); err != nil {
			return Stats{}, err
		}
		hdr := container.Header{Scheme: scheme.Stored, Mode: mode, SegSize: uint32(o.segSize)}
		if err := container.WriteHeader(dst, hdr); err != nil {
			return Stats{}, err
		}
		return Stats{Scheme: scheme.Stored}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	comp, err := NewCompressor(ctx, first, chain, opts...)
	if err != nil {
		return Stats{}, err
	}

	errs := &errors.M{}
	copyDone := make(chan error, 1)
	go func() {
		_, err := io.Copy(dst, comp)
		copyDone <- err
	}()

	plainCRC := crc32.NewIEEE()
	var totalPlainLen uint64
	submit := func(seg []byte) error {
		plainCRC.Write(seg)
		totalPlainLen += uint64(len(seg))
		return comp.Submit(seg)
	}

	if len(first) > 0 {
		if err := submit(first); err != nil {
			comp.Cancel(err)
			errs.Append(err)
		}
	}
	buf := make([]byte, o.segSize)
	for errs.Err() == nil {
		n, rerr := io.ReadFull(rd, buf)
		if n > 0 {
			seg := make([]byte, n)
			copy(seg, buf[:n])
			if err := submit(seg); err != nil {
				comp.Cancel(err)
				errs.Append(err)
				break
			}
		}
		if rerr == io.EOF || rerr == io.ErrUnexpectedEOF {
			break
		}
		if rerr != nil {
			errs.Append(rerr)
			comp.Cancel(rerr)
			break
		}
	}

	errs.Append(comp.Finish())
	errs.Append(<-copyDone)
	if errs.Err() != nil {
		return Stats{}, errs.Err()
	}

	stats := Stats{
		Scheme:        comp.Scheme(),
		TotalPlainLen: totalPlainLen,
		TotalRLELen:   comp.TotalRLELen(),
		PlainCRC:      plainCRC.Sum32(),
	}
	if _, err := dst.Seek(0, io.SeekStart); err != nil {
		return Stats{}, err
	}
	if err := container.WriteHeader(dst, container.Header{
		Scheme:        stats.Scheme,
		Mode:          mode,
		PlainCRC:      stats.PlainCRC,
		TotalPlainLen: uint32(stats.TotalPlainLen),
		TotalRLELen:   uint32(stats.TotalRLELen),
		SegSize:       uint32(o.segSize),
	}); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// ExtractFile reads a complete container from src and writes the
// reassembled plain bytes to dst, verifying the whole-file CRC32
// recorded in the header. A CRC mismatch is the one recovered error in
// this package: dst has already received every decompressed byte by
// the time the checksum is known, so ExtractFile reports the mismatch
// by returning ErrCRCMismatch alongside a fully populated Stats rather
// than discarding what was written. Callers that want a stricter
// all-or-nothing file should write to a temporary file and rename it
// into place only once ExtractFile returns a nil error.
func ExtractFile(ctx context.Context, src io.Reader, dst io.Writer, opts ...DecompressorOption) (Stats, error) {
	hdr, err := container.ReadHeader(src)
	if err != nil {
		return Stats{}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dc := NewDecompressor(ctx, hdr.Scheme, opts...)

	errs := &errors.M{}
	copyDone := make(chan error, 1)
	plainCRC := crc32.NewIEEE()
	go func() {
		_, err := io.Copy(io.MultiWriter(dst, plainCRC), dc)
		copyDone <- err
	}()

	for {
		frame, ferr := container.ReadFrame(src)
		if ferr == io.EOF {
			break
		}
		if ferr != nil {
			errs.Append(ferr)
			dc.Cancel(ferr)
			break
		}
		if err := dc.Submit(frame); err != nil {
			errs.Append(err)
			break
		}
	}

	errs.Append(dc.Finish())
	errs.Append(<-copyDone)
	if errs.Err() != nil {
		return Stats{}, errs.Err()
	}

	stats := Stats{
		Scheme:        hdr.Scheme,
		TotalPlainLen: uint64(hdr.TotalPlainLen),
		TotalRLELen:   uint64(hdr.TotalRLELen),
		PlainCRC:      hdr.PlainCRC,
	}
	if plainCRC.Sum32() != hdr.PlainCRC {
		return stats, ErrCRCMismatch
	}
	return stats, nil
}

// peekSegment reads up to segSize bytes from src so the caller can
// resolve a roulette scheme request before any blocks are submitted for
// compression, then returns an io.Reader that continues with whatever
// of src was not consumed by the peek.
func peekSegment(src io.Reader, segSize int) ([]byte, io.Reader, error) {
	buf := make([]byte, segSize)
	n, err := io.ReadFull(src, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, nil, err
	}
	return buf[:n], src, nil
}
