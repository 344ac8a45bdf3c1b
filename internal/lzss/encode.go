// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package lzss

import "encoding/binary"

type token struct {
	isMatch bool
	lit     byte
	offset  int
	length  int
}

// Encode compresses input against params, using the shared seed
// dictionary to pre-warm the window. It panics on a zero-length input:
// that is a caller-contract violation, not a recoverable error.
func Encode(input []byte, params Params) []byte {
	checkNonEmpty(input)

	w := newWindow(params, len(input))
	copy(w.buf[w.inputStart:w.inputEnd], input)
	pool := buildPointerPool(w.buf, w.seedStart)

	var rawPrefix []byte
	var tokens []token
	foundFirstMatch := false

	p := w.inputStart
	for p < w.inputEnd {
		length, offset := pool.search(w, p, params)
		if length >= params.MinMatch {
			foundFirstMatch = true
			tokens = append(tokens, token{isMatch: true, offset: offset, length: length})
			p += length
			continue
		}
		if !foundFirstMatch {
			rawPrefix = append(rawPrefix, w.buf[p])
		} else {
			tokens = append(tokens, token{isMatch: false, lit: w.buf[p]})
		}
		p++
	}

	out := make([]byte, 8, 8+len(rawPrefix)+len(tokens)*(params.TokenBytes+1))
	binary.BigEndian.PutUint32(out[0:4], uint32(len(rawPrefix)))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(tokens)))
	out = append(out, rawPrefix...)
	out = appendTokens(out, tokens, params)
	return out
}

func appendTokens(out []byte, tokens []token, params Params) []byte {
	for i := 0; i < len(tokens); i += 8 {
		group := tokens[i:min(i+8, len(tokens))]
		var flags byte
		for t, tk := range group {
			if tk.isMatch {
				flags |= 1 << uint(t)
			}
		}
		out = append(out, flags)
		for _, tk := range group {
			if tk.isMatch {
				out = appendToken(out, packToken(tk.offset, tk.length, params), params)
			} else {
				out = append(out, tk.lit)
			}
		}
	}
	return out
}

func appendToken(out []byte, v uint64, params Params) []byte {
	switch params.TokenBytes {
	case 2:
		return append(out, byte(v>>8), byte(v))
	case 3:
		return append(out, byte(v>>16), byte(v>>8), byte(v))
	default:
		panic("lzss: unsupported token width")
	}
}

