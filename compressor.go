// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package carith

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/carithio/carith/internal/container"
	"github.com/carithio/carith/internal/scheme"
)

// Compressor represents a concurrent block compressor. Blocks submitted
// via Submit are compressed in parallel and reassembled into their
// original order on the stream returned by Read.
type Compressor struct {
	e             *engine[[]byte, container.Frame]
	concreteChain byte
	totalRLELen   uint64 // accessed atomically from worker goroutines.
}

// NewCompressor creates a new parallel compressor. chain must be one of
// the legal scheme combinations, or scheme.Roulette in which case it is
// resolved, once, from sample (typically the file's first block): every
// subsequent Submit applies that same concrete chain, since the
// container format ties the LZSS variant to the whole file rather than
// to an individual block.
func NewCompressor(ctx context.Context, sample []byte, chain byte, opts ...CompressorOption) (*Compressor, error) {
	o := compressorOpts{scheme: chain}
	for _, fn := range opts {
		fn(&o)
	}
	concreteChain := o.scheme
	if concreteChain&scheme.Roulette != 0 {
		resolved, err := scheme.Compress(sample, scheme.Roulette)
		if err != nil {
			return nil, err
		}
		concreteChain = resolved.Scheme
	}
	c := &Compressor{concreteChain: concreteChain}
	c.e = newEngine(ctx, o.engineOpts,
		func(seg []byte) (container.Frame, error) {
			block, err := scheme.Compress(seg, c.concreteChain)
			if err != nil {
				return container.Frame{}, err
			}
			if block.Scheme&scheme.RLE != 0 {
				atomic.AddUint64(&c.totalRLELen, uint64(block.RLELen))
			}
			return container.BlockToFrame(block, uint32(len(seg))), nil
		},
		func(w io.Writer, f container.Frame) error { return container.WriteFrame(w, f) },
		func(seg []byte) int { return len(seg) },
		func(f container.Frame) int { return int(f.BlockPlainLen) },
	)
	return c, nil
}

// Scheme returns the concrete chain this compressor applies to every
// block, resolved once at construction time.
func (c *Compressor) Scheme() byte { return c.concreteChain }

// TotalRLELen returns the sum of per-block RLE intermediate lengths
// across every block submitted so far whose chain actually used RLE.
// It is only meaningful after Finish has returned.
func (c *Compressor) TotalRLELen() uint64 { return atomic.LoadUint64(&c.totalRLELen) }

// Submit compresses one plain-text segment. Segments must be submitted
// in file order; they are reassembled in that same order regardless of
// which worker finishes first.
func (c *Compressor) Submit(segment []byte) error { return c.e.Submit(segment) }

// Cancel unblocks any readers and aborts outstanding work.
func (c *Compressor) Cancel(err error) { c.e.Cancel(err) }

// Finish waits for all outstanding compression and reassembly to
// complete. It must be called exactly once, after the last Submit.
func (c *Compressor) Finish() error { return c.e.Finish() }

// Read implements io.Reader over the stream of serialized block frames,
// in order.
func (c *Compressor) Read(buf []byte) (int, error) { return c.e.Read(buf) }
