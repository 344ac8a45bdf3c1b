// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package scheme decides, per block, which of the three codec stages
// (RLE, LZSS, AC) apply and in what combination, and drives the pipeline
// itself. The scheme byte is a tagged bitmask rather than a free-form
// enum, matching the finite set of legal chains the format allows; the
// dispatch below is a straight bitmask switch, never a goto.
package scheme

import (
	"fmt"

	"github.com/carithio/carith/internal/arith"
	"github.com/carithio/carith/internal/lzss"
	"github.com/carithio/carith/internal/rle"
)

// Bits of the scheme byte. See the container package for how this byte
// is framed on the wire.
const (
	AC       byte = 0x80
	RLE      byte = 0x40
	LZSS4k   byte = 0x20
	LZSS32k  byte = 0x10
	Stored   byte = 0x08
	Roulette byte = 0x01
)

// legal enumerates every scheme byte the encoder may emit. 0x01
// (Roulette) is a request-only bit and never appears here: a roulette
// request always resolves to one of these concrete chains.
var legal = map[byte]bool{
	RLE:                true,
	LZSS4k:             true,
	LZSS32k:            true,
	AC:                 true,
	RLE | LZSS4k:       true,
	RLE | LZSS32k:      true,
	RLE | AC:           true,
	LZSS4k | AC:        true,
	LZSS32k | AC:       true,
	RLE | LZSS4k | AC:  true,
	RLE | LZSS32k | AC: true,
	Stored:             true,
}

// Error is the wrapper type for errors specific to this package.
type Error string

func (e Error) Error() string { return "scheme: " + string(e) }

// Block is the result of compressing one block: the scheme that was
// used, the RLE intermediate length (0 if RLE was not used), the
// serialized frequency table (nil if AC was not used), and the final
// payload bytes.
type Block struct {
	Scheme    byte
	RLELen    int
	FreqTable []byte
	Payload   []byte
}

// Compress applies request to input. If request has the Roulette bit
// set, roulette's candidate chains are evaluated and the smallest result
// is kept (falling back to Stored if nothing shrinks the input); otherwise
// request must already be one of the legal concrete chains and is
// applied unconditionally.
func Compress(input []byte, request byte) (Block, error) {
	if request&Roulette != 0 {
		return roulette(input), nil
	}
	if !legal[request] {
		return Block{}, Error(fmt.Sprintf("illegal scheme byte %#x", request))
	}
	if request == Stored {
		return Block{Scheme: Stored, Payload: append([]byte(nil), input...)}, nil
	}
	return applyChain(input, request), nil
}

// Extract reverses Compress: it decodes block.Payload back through
// whatever stages block.Scheme records, in reverse pipeline order
// (AC -> LZSS -> RLE).
func Extract(block Block) ([]byte, error) {
	if block.Scheme == Stored {
		return append([]byte(nil), block.Payload...), nil
	}
	if !legal[block.Scheme] {
		return nil, Error(fmt.Sprintf("illegal scheme byte %#x", block.Scheme))
	}
	cur := block.Payload
	var err error
	if block.Scheme&AC != 0 {
		cur, err = arith.Decode(block.FreqTable, cur)
		if err != nil {
			return nil, err
		}
	}
	switch {
	case block.Scheme&LZSS4k != 0:
		cur, err = lzss.Decode(cur, lzss.Params4k)
	case block.Scheme&LZSS32k != 0:
		cur, err = lzss.Decode(cur, lzss.Params32k)
	}
	if err != nil {
		return nil, err
	}
	if block.Scheme&RLE != 0 {
		cur, err = rle.Decode(cur)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// applyChain runs the stages requested by scheme, in pipeline order
// RLE -> LZSS -> AC. RLE and LZSS apply unconditionally: a caller that
// names an explicit chain is assumed to know what it is asking for.
// AC is the one stage the format guards universally (its frequency
// table is pure overhead on data it fails to shrink), so it is dropped
// whenever comp_len+freq_table_len would not beat the stage's input,
// even outside roulette.
func applyChain(input []byte, requested byte) Block {
	cur := input
	rleLen := 0
	if requested&RLE != 0 {
		cur = rle.Encode(cur)
		rleLen = len(cur)
	}
	switch {
	case requested&LZSS4k != 0:
		cur = lzss.Encode(cur, lzss.Params4k)
	case requested&LZSS32k != 0:
		cur = lzss.Encode(cur, lzss.Params32k)
	}
	actual := requested
	var freqTable []byte
	if requested&AC != 0 {
		freq, acOut := arith.Encode(cur)
		if len(acOut)+len(freq) < len(cur) {
			freqTable, cur = freq, acOut
		} else {
			actual &^= AC
		}
	}
	if actual == 0 {
		// Every stage the caller requested was skipped for this block
		// (only reachable when requested is AC alone and the guard
		// dropped it): cur is still the untouched input, so frame it
		// as Stored rather than emit an empty, illegal scheme byte.
		return Block{Scheme: Stored, Payload: append([]byte(nil), cur...)}
	}
	return Block{Scheme: actual, RLELen: rleLen, FreqTable: freqTable, Payload: cur}
}

// roulette tries every meaningful chain independently and keeps the
// smallest result, as described in the package's governing
// specification: plain LZSS-32k on the raw input is always a candidate,
// compared against whatever RLE(+LZSS) produces; AC is then layered on
// top of whichever intermediate wins, and is itself kept only if it
// actually shrinks that intermediate.
func roulette(input []byte) Block {
	lzss32Raw := lzss.Encode(input, lzss.Params32k)

	rleOut := rle.Encode(input)
	useRLE := len(rleOut) < len(input)
	source := input
	if useRLE {
		source = rleOut
	}

	lzss4Source := lzss.Encode(source, lzss.Params4k)
	lzss32Source := lzss.Encode(source, lzss.Params32k)

	bestLen := len(source)
	lzssBits := byte(0)
	intermediate := source
	if len(lzss4Source) < bestLen {
		bestLen = len(lzss4Source)
		lzssBits = LZSS4k
		intermediate = lzss4Source
	}
	if len(lzss32Source) < bestLen {
		bestLen = len(lzss32Source)
		lzssBits = LZSS32k
		intermediate = lzss32Source
	}

	var chosenScheme byte
	rleLen := 0
	if len(lzss32Raw) < len(intermediate) {
		intermediate = lzss32Raw
		chosenScheme = LZSS32k
	} else {
		if useRLE {
			chosenScheme |= RLE
			rleLen = len(rleOut)
		}
		chosenScheme |= lzssBits
	}

	freqTable, acPayload := arith.Encode(intermediate)
	payload := intermediate
	if len(acPayload)+len(freqTable) < len(intermediate) {
		chosenScheme |= AC
		payload = acPayload
	} else {
		freqTable = nil
	}

	if chosenScheme == 0 {
		return Block{Scheme: Stored, Payload: append([]byte(nil), input...)}
	}
	return Block{Scheme: chosenScheme, RLELen: rleLen, FreqTable: freqTable, Payload: payload}
}
