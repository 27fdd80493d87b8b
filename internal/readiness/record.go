// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package readiness

import (
	"encoding/binary"
)

// RecordSize is the size of an [Interest] record in guest memory.
const RecordSize = 8

// Flag is a bit mask of the directions an [Interest] waits for.
type Flag uint32

const (
	// Read waits until the descriptor has data to be read.
	Read Flag = 1 << iota
	// Write is accepted, but the host does not wait for writability as
	// writes never block.
	Write
)

// Interest is a descriptor and the directions to wait for. The same record
// layout is used for ready records the host reports back.
//
// In guest memory it is laid out as two little-endian 32 bit words.
type Interest struct {
	Descriptor uint32
	Flags      Flag
}

func (i Interest) put(b []byte) {
	binary.LittleEndian.PutUint32(b[0:4], i.Descriptor)
	binary.LittleEndian.PutUint32(b[4:8], uint32(i.Flags))
}

func decodeInterest(b []byte) Interest {
	return Interest{
		Descriptor: binary.LittleEndian.Uint32(b[0:4]),
		Flags:      Flag(binary.LittleEndian.Uint32(b[4:8])),
	}
}

// EncodeInterests returns the guest memory representation of the given
// interests.
func EncodeInterests(interests []Interest) []byte {
	b := make([]byte, len(interests)*RecordSize)
	for idx, interest := range interests {
		interest.put(b[idx*RecordSize:])
	}

	return b
}

// DecodeInterests decodes records from their guest memory representation.
// Trailing bytes not filling a whole record are ignored.
func DecodeInterests(b []byte) []Interest {
	interests := make([]Interest, 0, len(b)/RecordSize)
	for off := 0; off+RecordSize <= len(b); off += RecordSize {
		interests = append(interests, decodeInterest(b[off:off+RecordSize]))
	}

	return interests
}
