// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package devfs

import (
	"io/fs"

	"golang.org/x/sys/unix"
)

var (
	// ErrNotSupported is returned for unsupported flags and operations.
	ErrNotSupported = unix.ENOTSUP

	// ErrPermission is returned for attempts to modify the directory.
	ErrPermission = unix.EPERM

	// ErrBadDescriptor is returned if a file is used in a way it has not been
	// opened for.
	ErrBadDescriptor = unix.EBADF

	// ErrNotExist is returned if a path does not name an attached device.
	ErrNotExist = unix.ENOENT

	// ErrNoDevice is returned by files whose device has been detached.
	ErrNoDevice = unix.ENODEV

	// ErrWouldBlock is returned if a write does not fit into the device's
	// bounded buffer.
	ErrWouldBlock = unix.EAGAIN
)

// PathError records an error and the operation and file path that caused it.
type PathError = fs.PathError

func pathError(op, path string, err error) error {
	return &PathError{
		Op:   op,
		Path: path,
		Err:  err,
	}
}
