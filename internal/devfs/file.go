// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package devfs

import (
	"errors"
	"io/fs"

	"github.com/aibor/sandboxer/internal/device"
	"github.com/aibor/sandboxer/internal/link"
)

const deviceMode = fs.ModeDevice | fs.ModeCharDevice | 0o660

// Stat describes a file of the device directory.
type Stat struct {
	Device uint64
	Inode  uint64
	Mode   fs.FileMode
	Nlink  uint64
	Size   int64
}

func dirStat() Stat {
	return Stat{
		Device: uint64(device.MakeNumber(device.DirectoryMajor, 0)),
		Inode:  dirInode,
		Mode:   fs.ModeDir | 0o555,
	}
}

// File is an open file of the device directory.
type File interface {
	// Stat returns the file's stat.
	Stat() (Stat, error)

	// Read reads buffered data. It never blocks and returns 0 if nothing is
	// buffered.
	Read(p []byte) (int, error)

	// Write writes p as a whole.
	Write(p []byte) (int, error)

	// FDFlags returns the file's fd flags.
	FDFlags() FDFlag

	// SetFDFlags sets the file's fd flags.
	SetFDFlags(flags FDFlag) error

	// BytesReady returns the number of bytes that can be read without
	// blocking.
	BytesReady() (int, error)

	// Readable returns an error if the file can not be read.
	Readable() error

	// Writable returns an error if the file can not be written.
	Writable() error

	// Close closes the file.
	Close() error
}

var _ File = (*deviceFile)(nil)

// deviceFile is an open device bound to the slot's endpoint.
//
// Buffer length is not reported as file size, as it changes asynchronously.
type deviceFile struct {
	slot  *device.Slot
	read  bool
	write bool
}

func (f *deviceFile) Stat() (Stat, error) {
	return Stat{
		Device: uint64(f.slot.Number()),
		Inode:  1,
		Mode:   deviceMode,
	}, nil
}

func (f *deviceFile) Read(p []byte) (int, error) {
	err := f.Readable()
	if err != nil {
		return 0, err
	}

	if f.slot.Detached() {
		return 0, pathError("read", f.slot.Name(), ErrNoDevice)
	}

	return f.slot.Endpoint().Read(p), nil
}

func (f *deviceFile) Write(p []byte) (int, error) {
	err := f.Writable()
	if err != nil {
		return 0, err
	}

	if f.slot.Detached() {
		return 0, pathError("write", f.slot.Name(), ErrNoDevice)
	}

	n, err := f.slot.Endpoint().Write(p)
	if errors.Is(err, link.ErrBufferFull) {
		return n, pathError("write", f.slot.Name(), ErrWouldBlock)
	}

	return n, err //nolint:wrapcheck
}

func (*deviceFile) FDFlags() FDFlag {
	return FDAppend
}

func (f *deviceFile) SetFDFlags(flags FDFlag) error {
	if flags != FDAppend {
		return pathError("setfdflags", f.slot.Name(), ErrNotSupported)
	}

	return nil
}

func (f *deviceFile) BytesReady() (int, error) {
	err := f.Readable()
	if err != nil {
		return 0, err
	}

	return f.slot.Endpoint().Buffered(), nil
}

func (f *deviceFile) Readable() error {
	if !f.read {
		return pathError("read", f.slot.Name(), ErrBadDescriptor)
	}

	return nil
}

func (f *deviceFile) Writable() error {
	if !f.write {
		return pathError("write", f.slot.Name(), ErrBadDescriptor)
	}

	return nil
}

func (*deviceFile) Close() error {
	return nil
}

var _ File = (*dirFile)(nil)

// dirFile is the directory opened as file by its name ".".
type dirFile struct{}

func (*dirFile) Stat() (Stat, error) {
	return dirStat(), nil
}

func (*dirFile) Read(_ []byte) (int, error) {
	return 0, pathError("read", dirName, ErrBadDescriptor)
}

func (*dirFile) Write(_ []byte) (int, error) {
	return 0, pathError("write", dirName, ErrNotSupported)
}

func (*dirFile) FDFlags() FDFlag {
	return 0
}

func (*dirFile) SetFDFlags(_ FDFlag) error {
	return pathError("setfdflags", dirName, ErrNotSupported)
}

func (*dirFile) BytesReady() (int, error) {
	return 0, pathError("read", dirName, ErrBadDescriptor)
}

func (*dirFile) Readable() error {
	return nil
}

func (*dirFile) Writable() error {
	return pathError("write", dirName, ErrNotSupported)
}

func (*dirFile) Close() error {
	return nil
}
