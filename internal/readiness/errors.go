// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package readiness

import (
	"errors"
	"fmt"
)

var (
	// ErrContractViolation is returned if the interest and ready arrays are
	// not of equal length. It indicates a broken caller.
	ErrContractViolation = errors.New("interest and ready count differ")

	// ErrUnknownDevice is returned if a descriptor refers to a device that is
	// not attached to the computer.
	ErrUnknownDevice = errors.New("unknown device")

	// ErrMemoryAccess is returned if an array exceeds the guest memory.
	ErrMemoryAccess = errors.New("guest memory access out of range")
)

// ResolveError is returned if a descriptor can not be resolved to a device
// number.
type ResolveError struct {
	Descriptor uint32
	Err        error
}

// Error implements the [error] interface.
func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve descriptor %d: %v", e.Descriptor, e.Err)
}

// Is implements the [errors.Is] interface.
func (*ResolveError) Is(other error) bool {
	_, ok := other.(*ResolveError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *ResolveError) Unwrap() error {
	return e.Err
}
