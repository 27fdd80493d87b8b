// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

var (
	// ErrOutOfMemory is returned if the linear memory can not satisfy an
	// allocation.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrBadDescriptor is returned for descriptors that are not open.
	ErrBadDescriptor = unix.EBADF

	// ErrUnknownProgram is returned if no program with the requested name
	// exists.
	ErrUnknownProgram = errors.New("unknown program")
)

// ExitError is returned if a guest program failed.
type ExitError struct {
	Program string
	Err     error
}

// Error implements the [error] interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("program %s: %v", e.Program, e.Err)
}

// Is implements the [errors.Is] interface.
func (*ExitError) Is(other error) bool {
	_, ok := other.(*ExitError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *ExitError) Unwrap() error {
	return e.Err
}
