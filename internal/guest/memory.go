// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest

import (
	"fmt"
	"sync"

	"github.com/aibor/sandboxer/internal/readiness"
)

// PageSize is the size of a page of linear memory.
const PageSize = 1 << 16

var _ readiness.Memory = (*Memory)(nil)

// Memory is the linear memory of a guest process.
//
// Allocations follow stack discipline: [Memory.Release] frees the given and
// all later allocations.
type Memory struct {
	mu   sync.Mutex
	data []byte
	next uint32
}

// NewMemory creates a new linear memory with the given number of pages.
func NewMemory(pages uint32) *Memory {
	return &Memory{
		data: make([]byte, uint64(pages)*PageSize),
	}
}

// Size returns the size of the memory in bytes.
func (m *Memory) Size() uint32 {
	return uint32(len(m.data)) //nolint:gosec
}

// Read returns a view of byteCount bytes at offset.
func (m *Memory) Read(offset, byteCount uint32) ([]byte, bool) {
	end := uint64(offset) + uint64(byteCount)
	if end > uint64(len(m.data)) {
		return nil, false
	}

	return m.data[offset:end:end], true
}

// Write copies b to offset.
func (m *Memory) Write(offset uint32, b []byte) bool {
	end := uint64(offset) + uint64(len(b))
	if end > uint64(len(m.data)) {
		return false
	}

	copy(m.data[offset:end], b)

	return true
}

// Alloc allocates size zeroed bytes and returns their offset.
func (m *Memory) Alloc(size uint32) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	offset := m.next
	end := uint64(offset) + uint64(size)

	if end > uint64(len(m.data)) {
		return 0, fmt.Errorf("%w: %d bytes", ErrOutOfMemory, size)
	}

	clear(m.data[offset:end])
	m.next = uint32(end)

	return offset, nil
}

// Release frees the allocation at offset and all allocations made after it.
func (m *Memory) Release(offset uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if offset < m.next {
		m.next = offset
	}
}
