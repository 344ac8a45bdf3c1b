// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package carith

import (
	"container/heap"
	"context"
	"fmt"
	"io"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Progress reports on one block's worth of work once it has been
// written out in order; Compressor and Decompressor both emit these on
// whatever channel was supplied via WithProgress/DecompressProgress.
type Progress struct {
	Duration  time.Duration
	Block     uint64
	InputLen  int
	OutputLen int
}

// engine drives a pool of workers that each transform one ordered unit
// of In into Out, then reassembles the results strictly in submission
// order before handing them to writeOut. It is the shared shape behind
// both Compressor and Decompressor: the two differ only in what In and
// Out are and how a finished Out gets serialized.
type engine[In, Out any] struct {
	order uint64 // accessed atomically; kept first for alignment.

	ctx        context.Context
	workWg     sync.WaitGroup
	doneWg     sync.WaitGroup
	workCh     chan *item[In, Out]
	doneCh     chan *item[In, Out]
	progressCh chan<- Progress
	prd        *io.PipeReader
	pwr        *io.PipeWriter

	heap    *itemHeap[In, Out]
	verbose bool

	transform func(In) (Out, error)
	writeOut  func(io.Writer, Out) error
	inputLen  func(In) int
	outputLen func(Out) int
}

type item[In, Out any] struct {
	order    uint64
	in       In
	out      Out
	err      error
	duration time.Duration
}

func (it *item[In, Out]) String() string {
	if it == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%v", it.order)
}

type engineOpts struct {
	verbose     bool
	concurrency int
	progressCh  chan<- Progress
}

func newEngine[In, Out any](ctx context.Context, o engineOpts, transform func(In) (Out, error), writeOut func(io.Writer, Out) error, inputLen func(In) int, outputLen func(Out) int) *engine[In, Out] {
	if o.concurrency <= 0 {
		o.concurrency = runtime.GOMAXPROCS(-1)
	}
	e := &engine[In, Out]{
		ctx:        ctx,
		doneCh:     make(chan *item[In, Out], o.concurrency),
		workCh:     make(chan *item[In, Out], o.concurrency),
		progressCh: o.progressCh,
		heap:       &itemHeap[In, Out]{},
		verbose:    o.verbose,
		transform:  transform,
		writeOut:   writeOut,
		inputLen:   inputLen,
		outputLen:  outputLen,
	}
	e.prd, e.pwr = io.Pipe()
	heap.Init(e.heap)
	e.workWg.Add(o.concurrency)
	e.doneWg.Add(1)
	for i := 0; i < o.concurrency; i++ {
		go func() {
			e.worker(ctx, e.workCh, e.doneCh)
			e.workWg.Done()
		}()
	}
	go func() {
		e.assemble(ctx, e.doneCh)
		e.doneWg.Done()
	}()
	return e
}

func (e *engine[In, Out]) trace(format string, args ...interface{}) {
	if e.verbose {
		log.Printf(format, args...)
	}
}

func (e *engine[In, Out]) worker(ctx context.Context, in <-chan *item[In, Out], out chan<- *item[In, Out]) {
	for {
		select {
		case it := <-in:
			if it == nil {
				return
			}
			e.trace("processing: %s", it)
			start := time.Now()
			it.out, it.err = e.transform(it.in)
			it.duration = time.Since(start)
			select {
			case out <- it:
			case <-ctx.Done():
			}
		case <-ctx.Done():
			return
		}
	}
}

// Submit enqueues one unit of work. The order in which Submit is called
// determines the order results are written out in, regardless of the
// order in which workers finish.
func (e *engine[In, Out]) Submit(in In) error {
	order := atomic.AddUint64(&e.order, 1)
	select {
	case e.workCh <- &item[In, Out]{order: order, in: in}:
	case <-e.ctx.Done():
		return e.ctx.Err()
	}
	return nil
}

// Cancel unblocks any readers and aborts outstanding work.
func (e *engine[In, Out]) Cancel(err error) {
	e.pwr.CloseWithError(err)
}

// Finish waits for all outstanding work and its reassembly to
// complete. It must be called exactly once, after the last Submit.
func (e *engine[In, Out]) Finish() error {
	select {
	case <-e.ctx.Done():
	default:
	}
	close(e.workCh)
	e.workWg.Wait()
	close(e.doneCh)
	e.doneWg.Wait()
	select {
	case <-e.ctx.Done():
		return e.ctx.Err()
	default:
		return nil
	}
}

func (e *engine[In, Out]) assemble(ctx context.Context, ch <-chan *item[In, Out]) {
	defer e.pwr.Close()
	expected := uint64(1)
	for {
		select {
		case it := <-ch:
			if it != nil {
				heap.Push(e.heap, it)
			}
			for len(*e.heap) > 0 {
				min := (*e.heap)[0]
				if min.order != expected {
					break
				}
				heap.Remove(e.heap, 0)
				expected++
				if min.err != nil {
					e.pwr.CloseWithError(min.err)
					return
				}
				if err := e.writeOut(e.pwr, min.out); err != nil {
					e.pwr.CloseWithError(err)
					return
				}
				if e.progressCh != nil {
					e.progressCh <- Progress{
						Duration:  min.duration,
						Block:     min.order,
						InputLen:  e.inputLen(min.in),
						OutputLen: e.outputLen(min.out),
					}
				}
			}
			if it == nil && len(*e.heap) == 0 {
				return
			}
		case <-ctx.Done():
			e.pwr.CloseWithError(ctx.Err())
			return
		}
	}
}

// Read implements io.Reader over whatever writeOut wrote, in order.
func (e *engine[In, Out]) Read(buf []byte) (int, error) {
	return e.prd.Read(buf)
}

type itemHeap[In, Out any] []*item[In, Out]

func (h itemHeap[In, Out]) Len() int           { return len(h) }
func (h itemHeap[In, Out]) Less(i, j int) bool { return h[i].order < h[j].order }
func (h itemHeap[In, Out]) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *itemHeap[In, Out]) Push(x interface{}) {
	*h = append(*h, x.(*item[In, Out]))
}

func (h *itemHeap[In, Out]) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
