// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package carith

import (
	"context"
	"io"

	"github.com/carithio/carith/internal/container"
	"github.com/carithio/carith/internal/scheme"
)

// Decompressor represents a concurrent block decompressor. Frames
// submitted via Submit are extracted in parallel and reassembled into
// their original order on the stream returned by Read.
type Decompressor struct {
	e *engine[container.Frame, []byte]
}

// NewDecompressor creates a new parallel decompressor for a file whose
// header recorded masterScheme.
func NewDecompressor(ctx context.Context, masterScheme byte, opts ...DecompressorOption) *Decompressor {
	o := decompressorOpts{}
	for _, fn := range opts {
		fn(&o)
	}
	dc := &Decompressor{}
	dc.e = newEngine(ctx, o.engineOpts,
		func(f container.Frame) ([]byte, error) {
			block := container.FrameToBlock(f, masterScheme)
			return scheme.Extract(block)
		},
		func(w io.Writer, plain []byte) error { _, err := w.Write(plain); return err },
		func(f container.Frame) int { return int(f.BlockPlainLen) },
		func(plain []byte) int { return len(plain) },
	)
	return dc
}

// Submit queues one block frame for extraction. Frames must be
// submitted in file order.
func (dc *Decompressor) Submit(f container.Frame) error { return dc.e.Submit(f) }

// Cancel unblocks any readers and aborts outstanding work.
func (dc *Decompressor) Cancel(err error) { dc.e.Cancel(err) }

// Finish waits for all outstanding extraction and reassembly to
// complete. It must be called exactly once, after the last Submit.
func (dc *Decompressor) Finish() error { return dc.e.Finish() }

// Read implements io.Reader over the reassembled plain-text stream.
func (dc *Decompressor) Read(buf []byte) (int, error) { return dc.e.Read(buf) }
