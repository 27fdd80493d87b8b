// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package link

import (
	"bytes"
	"sync"

	"github.com/eapache/queue"
)

// closedChan is returned to subscribers if data is buffered already.
var closedChan = func() chan struct{} {
	c := make(chan struct{})
	close(c)

	return c
}()

// Buffer is an ordered byte queue with a broadcast notification that fires on
// every non-empty write.
//
// Each write is stored as one chunk, so bytes of a single write are always
// contiguous. The zero value is not usable, use [Link] which initializes its
// buffers.
type Buffer struct {
	mu sync.Mutex

	chunks   *queue.Queue
	offset   int
	size     int
	capacity int

	// ready is closed and replaced on every non-empty write.
	ready chan struct{}
}

func (b *Buffer) init(capacity int) {
	b.chunks = queue.New()
	b.capacity = capacity
	b.ready = make(chan struct{})
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.size
}

// Read drains up to len(p) bytes into p and returns the number of bytes
// copied. It never blocks and returns 0 if the buffer is empty.
func (b *Buffer) Read(p []byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	var read int

	for read < len(p) && b.chunks.Length() > 0 {
		head, _ := b.chunks.Peek().([]byte)

		n := copy(p[read:], head[b.offset:])
		read += n
		b.offset += n

		if b.offset == len(head) {
			b.chunks.Remove()
			b.offset = 0
		}
	}

	b.size -= read

	return read
}

// ReadChunk removes and returns the oldest write, or what is left of it after
// partial reads. It never blocks and returns nil if the buffer is empty.
func (b *Buffer) ReadChunk() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.chunks.Length() == 0 {
		return nil
	}

	head, _ := b.chunks.Remove().([]byte)
	head = head[b.offset:]
	b.offset = 0
	b.size -= len(head)

	return head
}

// ReadAll drains and returns all buffered bytes. The result is empty, but not
// nil, if nothing is buffered.
func (b *Buffer) ReadAll() []byte {
	b.mu.Lock()
	size := b.size
	b.mu.Unlock()

	// Writes that happen in between are picked up by the loop below, as Read
	// is called until the buffer is empty.
	data := make([]byte, 0, size)
	chunk := make([]byte, max(size, bytes.MinRead))

	for {
		n := b.Read(chunk)
		if n == 0 {
			return data
		}

		data = append(data, chunk[:n]...)
	}
}

// Write appends a copy of p as one contiguous chunk and wakes all current
// subscribers. Writing zero bytes is a no-op and wakes nobody.
//
// If the buffer has a capacity and p does not fit entirely, nothing is written
// and [ErrBufferFull] is returned.
func (b *Buffer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.capacity > 0 && b.size+len(p) > b.capacity {
		return 0, ErrBufferFull
	}

	b.chunks.Add(bytes.Clone(p))
	b.size += len(p)
	b.broadcast()

	return len(p), nil
}

// Subscribe returns a channel that is closed as soon as the buffer is
// non-empty. If data is buffered already, the returned channel is closed
// immediately.
//
// The emptiness check and the registration happen under the same lock, so
// a write racing with the subscription is never missed. Abandoning the
// channel is all it takes to unsubscribe.
func (b *Buffer) Subscribe() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size > 0 {
		return closedChan
	}

	return b.ready
}

// Wake wakes all current subscribers without writing data. Woken subscribers
// must re-check the state they are interested in.
func (b *Buffer) Wake() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.broadcast()
}

// broadcast must be called with b.mu held.
func (b *Buffer) broadcast() {
	close(b.ready)
	b.ready = make(chan struct{})
}
