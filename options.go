// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package carith

import "github.com/carithio/carith/internal/scheme"

const (
	// MinSegSize is the smallest segment size accepted by NewCompressor.
	MinSegSize = 32 * 1024
	// MaxSegSize is the largest segment size accepted by NewCompressor,
	// chosen to bound per-worker memory (roughly 8x segment size).
	MaxSegSize = 16 * 1024 * 1024
	// DefaultSegSize is used when no WithSegSize option is supplied.
	DefaultSegSize = 512 * 1024
)

type compressorOpts struct {
	engineOpts
	segSize int
	scheme  byte
}

// CompressorOption represents an option to NewCompressor.
type CompressorOption func(*compressorOpts)

// WithConcurrency sets the number of workers used to compress blocks
// in parallel. It defaults to runtime.GOMAXPROCS(-1).
func WithConcurrency(n int) CompressorOption {
	return func(o *compressorOpts) { o.concurrency = n }
}

// WithVerbose enables trace logging of per-block activity.
func WithVerbose(v bool) CompressorOption {
	return func(o *compressorOpts) { o.verbose = v }
}

// WithProgress sets the channel progress events are sent on.
func WithProgress(ch chan<- Progress) CompressorOption {
	return func(o *compressorOpts) { o.progressCh = ch }
}

// WithSegSize sets the block size used to split the input. It is
// clamped to [MinSegSize, MaxSegSize].
func WithSegSize(n int) CompressorOption {
	return func(o *compressorOpts) {
		if n < MinSegSize {
			n = MinSegSize
		}
		if n > MaxSegSize {
			n = MaxSegSize
		}
		o.segSize = n
	}
}

// WithScheme selects the codec chain to request for every block,
// overriding the chain passed to NewCompressor. scheme.Roulette is
// resolved once, from the sample block, into the concrete chain that is
// then applied to every block. WithNoRLE and
// WithRLEOnly are shorthand for the two request variants the CLI
// exposes.
func WithScheme(s byte) CompressorOption {
	return func(o *compressorOpts) { o.scheme = s }
}

// WithNoRLE requests the fixed LZSS-32k + AC chain, without RLE; no
// roulette selection is made.
func WithNoRLE() CompressorOption {
	return func(o *compressorOpts) { o.scheme = scheme.LZSS32k | scheme.AC }
}

// WithRLEOnly requests the RLE stage alone, with no LZSS or AC pass.
func WithRLEOnly() CompressorOption {
	return func(o *compressorOpts) { o.scheme = scheme.RLE }
}

type decompressorOpts struct {
	engineOpts
}

// DecompressorOption represents an option to NewDecompressor.
type DecompressorOption func(*decompressorOpts)

// DecompressConcurrency sets the number of workers used to decompress
// blocks in parallel.
func DecompressConcurrency(n int) DecompressorOption {
	return func(o *decompressorOpts) { o.concurrency = n }
}

// DecompressVerbose enables trace logging of per-block activity.
func DecompressVerbose(v bool) DecompressorOption {
	return func(o *decompressorOpts) { o.verbose = v }
}

// DecompressProgress sets the channel progress events are sent on.
func DecompressProgress(ch chan<- Progress) DecompressorOption {
	return func(o *decompressorOpts) { o.progressCh = ch }
}
