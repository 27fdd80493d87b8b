// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package pipe

import (
	"errors"
	"fmt"
)

var (
	// ErrNoOutput is returned if a console pipe did not output anything.
	// The guest program might have failed before it printed anything.
	ErrNoOutput = errors.New("pipe did not output anything")

	// ErrWaitTimeout is returned if the inputs of the pipes were not closed
	// in time after the guest programs terminated.
	ErrWaitTimeout = errors.New("pipe wait timed out")
)

// Error is returned if a [Pipe] fails. It carries the number of bytes that
// made it to the output before, so partial console output can be told from
// none.
type Error struct {
	Name    string
	Written int64
	Err     error
}

// Error implements the [error] interface.
func (e *Error) Error() string {
	if e.Written == 0 {
		return fmt.Sprintf("pipe %s: %v", e.Name, e.Err)
	}

	return fmt.Sprintf("pipe %s after %d bytes: %v", e.Name, e.Written, e.Err)
}

// Is reports whether other is an [*Error], regardless of its fields.
func (*Error) Is(other error) bool {
	_, ok := other.(*Error)
	return ok
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}
