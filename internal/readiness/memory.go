// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package readiness

import (
	"fmt"
)

// Memory is the linear memory of a guest.
type Memory interface {
	// Size returns the size of the memory in bytes.
	Size() uint32

	// Read returns byteCount bytes at offset. It returns false if the range
	// exceeds the memory.
	Read(offset, byteCount uint32) ([]byte, bool)

	// Write writes b at offset. It returns false if the range exceeds the
	// memory.
	Write(offset uint32, b []byte) bool
}

// Resolver resolves guest file descriptors to device numbers.
type Resolver interface {
	DeviceNumber(descriptor uint32) (uint64, error)
}

// Request describes the interest and ready arrays in guest memory.
type Request struct {
	Interests     uint32
	InterestCount uint32
	Ready         uint32
	ReadyCount    uint32
}

func (r Request) validate(mem Memory) error {
	if r.InterestCount != r.ReadyCount {
		return fmt.Errorf("%w: %d interests, %d ready",
			ErrContractViolation, r.InterestCount, r.ReadyCount)
	}

	size := uint64(mem.Size())

	for _, region := range [][2]uint32{
		{r.Interests, r.InterestCount},
		{r.Ready, r.ReadyCount},
	} {
		end := uint64(region[0]) + uint64(region[1])*RecordSize
		if end > size {
			return fmt.Errorf("%w: %d records at %#x", ErrMemoryAccess, region[1], region[0])
		}
	}

	return nil
}

func (r Request) interestBytes() uint32 {
	return r.InterestCount * RecordSize
}
