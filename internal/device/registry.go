// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package device

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aibor/sandboxer/internal/link"
)

var (
	// ErrNoDevice is returned if a family and index do not refer to an
	// attached device.
	ErrNoDevice = errors.New("no such device")

	// ErrTooManyDevices is returned if a family has no free index left.
	ErrTooManyDevices = errors.New("too many devices")
)

// Slot is a registry entry holding one attached endpoint.
//
// A slot is never removed from the registry. Detaching only marks it, so
// indices stay stable for the lifetime of the registry.
type Slot struct {
	family   Family
	index    int
	endpoint link.Endpoint
	detached atomic.Bool
}

// Family returns the family the slot belongs to.
func (s *Slot) Family() Family {
	return s.family
}

// Index returns the slot's index within its family.
func (s *Slot) Index() int {
	return s.index
}

// Number returns the slot's device number.
func (s *Slot) Number() Number {
	return s.family.Number(s.index)
}

// Name returns the slot's name in the device directory, like "ethernet0".
func (s *Slot) Name() string {
	return fmt.Sprintf("%s%d", s.family, s.index)
}

// Endpoint returns the attached endpoint.
func (s *Slot) Endpoint() link.Endpoint {
	return s.endpoint
}

// Detached reports whether the slot has been detached.
func (s *Slot) Detached() bool {
	return s.detached.Load()
}

// Registry holds the attached devices of one computer.
//
// Each family has its own ordered list of slots. The index of a slot is its
// insertion position. Attaching is expected to be rare while readiness checks
// are frequent and concurrent, so the registry uses a reader/writer lock.
type Registry struct {
	mu    sync.RWMutex
	slots [maxFamily + 1][]*Slot // Indexed by family, 0 is unused.
}

// NewRegistry creates a new empty [Registry].
func NewRegistry() *Registry {
	return &Registry{}
}

// Attach appends the endpoint to the family's list and returns its index.
func (r *Registry) Attach(family Family, endpoint link.Endpoint) (int, error) {
	if !family.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownFamily, uint8(family))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	index := len(r.slots[family])
	if index > MaxMinor {
		return 0, fmt.Errorf("%s: %w", family, ErrTooManyDevices)
	}

	slot := &Slot{
		family:   family,
		index:    index,
		endpoint: endpoint,
	}
	r.slots[family] = append(r.slots[family], slot)

	slog.Debug("Device attached",
		slog.String("family", family.String()),
		slog.Int("index", index))

	return index, nil
}

// Detach marks the slot as detached. The index is not reused. Everyone waiting
// for read readiness on the slot is woken, so waits can notice the removal.
func (r *Registry) Detach(family Family, index int) error {
	slot, exists := r.Slot(family, index)
	if !exists {
		return fmt.Errorf("%s%d: %w", family, index, ErrNoDevice)
	}

	if slot.detached.Swap(true) {
		return fmt.Errorf("%s%d: %w", family, index, ErrNoDevice)
	}

	slot.endpoint.WakeReaders()

	slog.Debug("Device detached",
		slog.String("family", family.String()),
		slog.Int("index", index))

	return nil
}

// Slot returns the attached slot for family and index. It returns false if
// the slot does not exist or has been detached.
func (r *Registry) Slot(family Family, index int) (*Slot, bool) {
	if !family.Valid() || index < 0 {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if index >= len(r.slots[family]) {
		return nil, false
	}

	slot := r.slots[family][index]
	if slot.Detached() {
		return nil, false
	}

	return slot, true
}

// Slots returns a snapshot of all slots of the family in index order,
// including detached ones.
func (r *Registry) Slots(family Family) []*Slot {
	if !family.Valid() {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	slots := make([]*Slot, len(r.slots[family]))
	copy(slots, r.slots[family])

	return slots
}

// Len returns the number of slots of the family ever attached.
func (r *Registry) Len(family Family) int {
	if !family.Valid() {
		return 0
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.slots[family])
}

// Contains reports whether an attached device exists for family and index.
func (r *Registry) Contains(family Family, index int) bool {
	_, exists := r.Slot(family, index)
	return exists
}

// IsReadyForRead reports whether the device has data ready to be read. The
// second return value is false if the device does not exist.
func (r *Registry) IsReadyForRead(family Family, index int) (bool, bool) {
	slot, exists := r.Slot(family, index)
	if !exists {
		return false, false
	}

	return slot.endpoint.ReadReady(), true
}

// WaitUntilReadyForRead returns a channel that is closed once the device has
// data ready to be read. It is closed immediately if data is ready already.
// The second return value is false if the device does not exist.
func (r *Registry) WaitUntilReadyForRead(
	family Family,
	index int,
) (<-chan struct{}, bool) {
	slot, exists := r.Slot(family, index)
	if !exists {
		return nil, false
	}

	ready := slot.endpoint.SubscribeReadReady()

	// A detach racing with the subscription may have woken the readers before
	// we subscribed.
	if slot.Detached() {
		return nil, false
	}

	return ready, true
}
