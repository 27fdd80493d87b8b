// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest

import (
	"fmt"
	"io"
	"os"

	"github.com/aibor/sandboxer/internal/devfs"
	"golang.org/x/sys/unix"
)

// descriptor is an open file of a process.
type descriptor interface {
	io.ReadWriteCloser

	// deviceNumber returns the device number reported by the file's stat.
	deviceNumber() (uint64, error)
}

// hostFile is a file of the computer's storage root.
type hostFile struct {
	*os.File
}

func (f hostFile) deviceNumber() (uint64, error) {
	conn, err := f.SyscallConn()
	if err != nil {
		return 0, fmt.Errorf("stat: %w", err)
	}

	var (
		stat    unix.Stat_t
		statErr error
	)

	err = conn.Control(func(fd uintptr) {
		statErr = unix.Fstat(int(fd), &stat)
	})
	if err != nil {
		return 0, fmt.Errorf("stat: %w", err)
	}

	if statErr != nil {
		return 0, &os.PathError{Op: "fstat", Path: f.Name(), Err: statErr}
	}

	return uint64(stat.Dev), nil //nolint:unconvert
}

// deviceFile is a file of the device directory.
type deviceFile struct {
	devfs.File
}

func (f deviceFile) deviceNumber() (uint64, error) {
	stat, err := f.Stat()
	if err != nil {
		return 0, err //nolint:wrapcheck
	}

	return stat.Device, nil
}

// stream is one of the standard streams.
type stream struct {
	io.Reader
	io.Writer
}

func (stream) Close() error {
	return nil
}

func (stream) deviceNumber() (uint64, error) {
	return 0, nil
}

func (s stream) Read(p []byte) (int, error) {
	if s.Reader == nil {
		return 0, ErrBadDescriptor
	}

	return s.Reader.Read(p) //nolint:wrapcheck
}

func (s stream) Write(p []byte) (int, error) {
	if s.Writer == nil {
		return 0, ErrBadDescriptor
	}

	return s.Writer.Write(p) //nolint:wrapcheck
}
