// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package link

// Link is a duplex byte stream made of two buffers, one per direction.
//
// Slot 0 is written by the first endpoint and read by the second one, slot 1
// the other way round. A link has no reference to its endpoints.
type Link struct {
	bufs [2]Buffer
}

type config struct {
	capacity int
}

// Option configures a new [Link].
type Option func(*config)

// WithCapacity bounds each direction of the link to the given number of
// bytes. Zero or negative values mean unbounded, which is the default.
func WithCapacity(capacity int) Option {
	return func(c *config) {
		c.capacity = max(capacity, 0)
	}
}

// NewPair creates a new [Link] and returns its two endpoints.
func NewPair(opts ...Option) (Endpoint, Endpoint) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	link := &Link{}
	for idx := range link.bufs {
		link.bufs[idx].init(cfg.capacity)
	}

	return Endpoint{first: true, link: link}, Endpoint{first: false, link: link}
}

// Endpoint is one side of a [Link].
//
// It reads from the slot its peer writes to and vice versa. Endpoint is a
// value handle: copies refer to the same link and the same side.
type Endpoint struct {
	first bool
	link  *Link
}

// IsZero reports whether e is the zero value that is not attached to any
// link.
func (e Endpoint) IsZero() bool {
	return e.link == nil
}

func (e Endpoint) readBuf() *Buffer {
	if e.first {
		return &e.link.bufs[1]
	}

	return &e.link.bufs[0]
}

func (e Endpoint) writeBuf() *Buffer {
	if e.first {
		return &e.link.bufs[0]
	}

	return &e.link.bufs[1]
}

// Read drains up to len(p) bytes sent by the peer. It never blocks.
func (e Endpoint) Read(p []byte) int {
	return e.readBuf().Read(p)
}

// ReadFrame drains the oldest single write of the peer. It never blocks and
// returns nil if nothing is buffered.
func (e Endpoint) ReadFrame() []byte {
	return e.readBuf().ReadChunk()
}

// ReadAll drains everything sent by the peer. It never blocks.
func (e Endpoint) ReadAll() []byte {
	return e.readBuf().ReadAll()
}

// Write sends p to the peer and wakes everyone waiting for the peer's read
// readiness.
func (e Endpoint) Write(p []byte) (int, error) {
	return e.writeBuf().Write(p)
}

// Buffered returns the number of bytes ready to be read.
func (e Endpoint) Buffered() int {
	return e.readBuf().Len()
}

// ReadReady reports whether at least one byte is ready to be read.
func (e Endpoint) ReadReady() bool {
	return e.Buffered() > 0
}

// SubscribeReadReady returns a channel that is closed once data is ready to be
// read. See [Buffer.Subscribe].
func (e Endpoint) SubscribeReadReady() <-chan struct{} {
	return e.readBuf().Subscribe()
}

// WakeReaders wakes everyone waiting for this endpoint's read readiness
// without providing data.
func (e Endpoint) WakeReaders() {
	e.readBuf().Wake()
}
