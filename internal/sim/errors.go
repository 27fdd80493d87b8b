// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sim

import (
	"errors"
	"fmt"
)

// ErrInvalidTopology is returned if a topology fails validation.
var ErrInvalidTopology = errors.New("invalid topology")

// GuestError is returned if the guest program of a computer failed.
type GuestError struct {
	Computer string
	Err      error
}

// Error implements the [error] interface.
func (e *GuestError) Error() string {
	return fmt.Sprintf("computer %s: %v", e.Computer, e.Err)
}

// Is implements the [errors.Is] interface.
func (*GuestError) Is(other error) bool {
	_, ok := other.(*GuestError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *GuestError) Unwrap() error {
	return e.Err
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTopology, fmt.Sprintf(format, args...))
}
