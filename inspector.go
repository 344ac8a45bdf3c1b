// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package carith

import (
	"io"

	"github.com/carithio/carith/internal/container"
)

// BlockReport describes one block frame as found on disk, without
// decompressing its payload; it backs the `tell` command.
type BlockReport struct {
	Index              int
	RLEIntermediateLen uint32
	BlockPlainLen      uint32
	FreqCompLen        int
	CompLen            int
}

// FileReport summarizes an entire container: its header fields plus
// one BlockReport per frame.
type FileReport struct {
	container.Header
	Blocks []BlockReport
}

// Inspect reads src's header and walks every block frame, reporting
// their sizes without running any codec. It is purely a forward,
// sequential scan: the format has no index, so inspecting a large file
// costs one pass over it.
func Inspect(src io.Reader) (FileReport, error) {
	hdr, err := container.ReadHeader(src)
	if err != nil {
		return FileReport{}, err
	}
	report := FileReport{Header: hdr}
	for i := 0; ; i++ {
		f, err := container.ReadFrame(src)
		if err == io.EOF {
			break
		}
		if err != nil {
			return FileReport{}, err
		}
		report.Blocks = append(report.Blocks, BlockReport{
			Index:              i,
			RLEIntermediateLen: f.RLEIntermediateLen,
			BlockPlainLen:      f.BlockPlainLen,
			FreqCompLen:        len(f.FreqComp),
			CompLen:            len(f.Comp),
		})
	}
	return report, nil
}
