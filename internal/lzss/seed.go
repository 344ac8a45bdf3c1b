// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package lzss

// seedDictionary is preloaded into the window before the first byte of
// input is ever examined, so that small inputs can still reference common
// C/C++ keywords and standard-library names instead of starting with a
// cold, match-free window. Both LZSS-4k and LZSS-32k share this exact
// text: two hosts must agree on it byte-for-byte to interoperate, so it
// is never derived or configurable.
const seedDictionary = "the and over if else printf do while goto define " +
	"include size_t int unsigned uint8_t uint16_t uint32_t uint64_t for " +
	"void return char short long long static typedef union enum stdio.h " +
	"stdlib.h errno.h string.h iostream map queue list stack sys/fcntl.h " +
	"sys/time.h unistd.h class public private protected default memcpy " +
	"memset volatile pthread exit mutex condition"

func init() {
	if len(seedDictionary) == 0 {
		panic("lzss: empty seed dictionary")
	}
}
