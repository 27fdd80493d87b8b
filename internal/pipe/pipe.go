// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package pipe

import (
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Pipe copies data from an input reader to an output writer.
type Pipe struct {
	// Name identifies the pipe in errors and in [Pipes.BytesWritten].
	Name string

	// InputReader is the source of the data.
	InputReader io.Reader

	// InputCloser is closed if the pipe is terminated before the input
	// reached EOF or if copying fails, so writers to the input do not block
	// forever. If it has a CloseWithError method, like [io.PipeReader], the
	// copy error is passed to it.
	InputCloser io.Closer

	// Output is the destination of the data.
	Output io.Writer

	// CopyFunc copies the data from InputReader to Output.
	CopyFunc CopyFunc

	// MayBeSilent suppresses [ErrNoOutput] if nothing was written.
	MayBeSilent bool

	bytesWritten int64
}

func (p *Pipe) run() error {
	n, err := p.CopyFunc(p.Output, p.InputReader)

	p.bytesWritten = n

	if err != nil {
		p.closeInput(err)
		return &Error{Name: p.Name, Written: n, Err: err}
	}

	if n == 0 && !p.MayBeSilent {
		return &Error{Name: p.Name, Err: ErrNoOutput}
	}

	return nil
}

func (p *Pipe) closeInput(cause error) {
	switch closer := p.InputCloser.(type) {
	case nil:
	case interface{ CloseWithError(err error) error }:
		_ = closer.CloseWithError(cause)
	default:
		_ = closer.Close()
	}
}

// Pipes is a collection of concurrently running [Pipe]s.
//
// The zero value is ready to use.
type Pipes struct {
	mu    sync.Mutex
	pipes []*Pipe
	group errgroup.Group
}

// Run starts copying the data of the given pipe in a new goroutine.
func (p *Pipes) Run(pipe *Pipe) {
	p.mu.Lock()
	p.pipes = append(p.pipes, pipe)
	p.mu.Unlock()

	p.group.Go(pipe.run)
}

// Len returns the number of pipes.
func (p *Pipes) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.pipes)
}

// Wait waits for all pipes to finish and returns the first error that
// occurred.
//
// If the pipes do not finish in time, their inputs are closed and
// [ErrWaitTimeout] is returned once all pipes terminated.
func (p *Pipes) Wait(timeout time.Duration) error {
	done := make(chan error, 1)

	go func() {
		done <- p.group.Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
	}

	p.mu.Lock()
	for _, pipe := range p.pipes {
		if pipe.InputCloser != nil {
			_ = pipe.InputCloser.Close()
		}
	}
	p.mu.Unlock()

	<-done

	return ErrWaitTimeout
}

// BytesWritten returns the number of bytes written by each pipe. It must
// only be called after [Pipes.Wait] returned.
func (p *Pipes) BytesWritten() map[string]int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	written := make(map[string]int64, len(p.pipes))
	for _, pipe := range p.pipes {
		written[pipe.Name] += pipe.bytesWritten
	}

	return written
}
