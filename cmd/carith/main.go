// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"cloudeng.io/cmdutil"
	"cloudeng.io/cmdutil/subcmd"
	"cloudeng.io/errors"
	"github.com/schollz/progressbar/v2"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/carithio/carith"
	"github.com/carithio/carith/internal/scheme"
)

type CommonFlags struct {
	Concurrency int  `subcmd:"threads,0,'number of workers, defaults to GOMAXPROCS'"`
	Verbose     bool `subcmd:"verbose,false,verbose trace/debug information"`
	Debug       bool `subcmd:"debug,false,accepted but has no effect"`
	NoColor     bool `subcmd:"nocolor,false,disable colored/progress-bar output"`
}

type compressFlags struct {
	CommonFlags
	SegSize  int  `subcmd:"g,524288,'block size in bytes, clamped to [32768, 16777216]'"`
	NoRLE    bool `subcmd:"norle,false,use the fixed LZSS-32k plus arithmetic coder chain without RLE"`
	RLEOnly  bool `subcmd:"rleonly,false,use RLE alone, skipping LZSS and the arithmetic coder"`
	NoKeep   bool `subcmd:"nokeep,false,delete the source file after a successful run"`
	Progress bool `subcmd:"progress,true,display a progress bar"`
}

type extractFlags struct {
	CommonFlags
	NoKeep   bool `subcmd:"nokeep,false,delete the source file after a successful run, and do not append .plain"`
	Progress bool `subcmd:"progress,true,display a progress bar"`
}

type tellFlags struct {
	CommonFlags
}

var cmdSet *subcmd.CommandSet

func init() {
	compressCmd := subcmd.NewCommand("compress",
		subcmd.MustRegisterFlagStruct(&compressFlags{}, nil, nil),
		compress, subcmd.ExactlyNumArguments(1))
	compressCmd.Document(`compress a single file, writing <input>.carith`)

	extractCmd := subcmd.NewCommand("extract",
		subcmd.MustRegisterFlagStruct(&extractFlags{}, nil, nil),
		extract, subcmd.ExactlyNumArguments(1))
	extractCmd.Document(`extract a single .carith file`)

	tellCmd := subcmd.NewCommand("tell",
		subcmd.MustRegisterFlagStruct(&tellFlags{}, nil, nil),
		tell, subcmd.AtLeastNArguments(1))
	tellCmd.Document(`report the header and per-block framing of one or more .carith files without decompressing their payloads`)

	cmdSet = subcmd.NewCommandSet(compressCmd, extractCmd, tellCmd)
	cmdSet.Document(`compress, extract and inspect carith files`)
}

func main() {
	cmdSet.MustDispatch(context.Background())
}

func concurrency(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(-1)
	}
	return n
}

func schemeRequest(norle, rleonly bool) byte {
	switch {
	case rleonly:
		return scheme.RLE
	case norle:
		return scheme.LZSS32k | scheme.AC
	default:
		return scheme.Roulette
	}
}

func progressBar(ctx context.Context, wr io.Writer, ch chan carith.Progress, size int64) {
	bar := progressbar.NewOptions64(size,
		progressbar.OptionSetBytes64(size),
		progressbar.OptionSetWriter(wr),
		progressbar.OptionSetPredictTime(true))
	bar.RenderBlank()
	for {
		select {
		case p, ok := <-ch:
			if !ok {
				fmt.Fprintf(wr, "\n")
				return
			}
			bar.Add(p.InputLen)
		case <-ctx.Done():
			return
		}
	}
}

func compress(ctx context.Context, values interface{}, args []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	cl := values.(*compressFlags)
	cmdutil.HandleSignals(cancel, os.Interrupt)

	in := args[0]
	info, err := os.Stat(in)
	if err != nil {
		return err
	}
	src, err := os.Open(in)
	if err != nil {
		return err
	}
	defer src.Close()

	out := in + ".carith"
	dst, err := os.Create(out)
	if err != nil {
		return err
	}
	defer dst.Close()

	opts := []carith.CompressorOption{
		carith.WithConcurrency(concurrency(cl.Concurrency)),
		carith.WithVerbose(cl.Verbose),
		carith.WithSegSize(cl.SegSize),
	}

	isTTY := terminal.IsTerminal(int(os.Stdout.Fd()))
	var progressWg sync.WaitGroup
	if cl.Progress && !cl.NoColor {
		ch := make(chan carith.Progress, concurrency(cl.Concurrency))
		opts = append(opts, carith.WithProgress(ch))
		wr := os.Stdout
		if !isTTY {
			wr = os.Stderr
		}
		progressWg.Add(1)
		go func() {
			defer progressWg.Done()
			progressBar(ctx, wr, ch, info.Size())
		}()
		defer func() { close(ch); progressWg.Wait() }()
	}

	stats, err := carith.CompressFile(ctx, src, dst, uint32(info.Mode().Perm()), schemeRequest(cl.NoRLE, cl.RLEOnly), opts...)
	if err != nil {
		os.Remove(out)
		return err
	}
	if cl.Verbose {
		log.Printf("%v: %v -> %v bytes (scheme %#x)", in, stats.TotalPlainLen, statFileSize(out), stats.Scheme)
	}
	if cl.NoKeep {
		return os.Remove(in)
	}
	return nil
}

func statFileSize(name string) int64 {
	info, err := os.Stat(name)
	if err != nil {
		return -1
	}
	return info.Size()
}

func extract(ctx context.Context, values interface{}, args []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	cl := values.(*extractFlags)
	cmdutil.HandleSignals(cancel, os.Interrupt)

	in := args[0]
	src, err := os.Open(in)
	if err != nil {
		return err
	}
	defer src.Close()

	outName := strings.TrimSuffix(in, ".carith")
	if !cl.NoKeep {
		outName += ".plain"
	}
	dst, err := os.Create(outName)
	if err != nil {
		return err
	}
	defer dst.Close()

	opts := []carith.DecompressorOption{
		carith.DecompressConcurrency(concurrency(cl.Concurrency)),
		carith.DecompressVerbose(cl.Verbose),
	}

	errs := &errors.M{}
	_, err = carith.ExtractFile(ctx, src, dst, opts...)
	if goerrors.Is(err, carith.ErrCRCMismatch) {
		// The only recovered error: the decompressed bytes are already
		// written to outName, so warn instead of discarding them.
		log.Printf("%v: warning: %v (output kept at %v)", in, err, outName)
	} else {
		errs.Append(err)
		if errs.Err() != nil {
			os.Remove(outName)
			return errs.Err()
		}
	}
	if cl.NoKeep {
		errs.Append(os.Remove(in))
	}
	return errs.Err()
}

func tell(ctx context.Context, values interface{}, args []string) error {
	errs := &errors.M{}
	for _, arg := range args {
		errs.Append(tellFile(arg))
	}
	return errs.Err()
}

func tellFile(name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	report, err := carith.Inspect(f)
	if err != nil {
		return fmt.Errorf("%v: %v", name, err)
	}
	fmt.Printf("=== %v ===\n", filepath.Base(name))
	fmt.Printf("scheme %#x, mode %o, plain_crc %#x, total_plain_len %v, total_rle_len %v, segsize %v\n",
		report.Scheme, report.Mode, report.PlainCRC, report.TotalPlainLen, report.TotalRLELen, report.SegSize)
	fmt.Printf("block  rle_len  plain_len  freq_len  comp_len\n")
	for _, b := range report.Blocks {
		fmt.Printf("% 5d  % 7d  % 9d  % 8d  % 8d\n", b.Index, b.RLEIntermediateLen, b.BlockPlainLen, b.FreqCompLen, b.CompLen)
	}
	return nil
}
