// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package devfs

import (
	"io/fs"
	"iter"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aibor/sandboxer/internal/device"
)

const (
	dirName  = "."
	dirInode = 1
)

// Cursor is a position in a directory listing. A listing started with a
// cursor continues after the entry that returned it as [Entry.Next].
type Cursor uint64

// Entry is a single directory listing entry.
type Entry struct {
	Next  Cursor
	Inode uint64
	Name  string
	Type  fs.FileMode
}

// Dir is the virtual device directory of one computer.
//
// It holds no state besides the computer's registry, so it always reflects
// the currently attached devices.
type Dir struct {
	registry *device.Registry
}

// New creates a new [Dir] serving the devices of the given registry.
func New(registry *device.Registry) *Dir {
	return &Dir{
		registry: registry,
	}
}

// Open opens the device file with the given name.
//
// Any open flag and any of the synchronize-on-write fd flags are rejected with
// [ErrNotSupported]. The name "." opens the directory itself. Names that do
// not refer to an attached device fail with [ErrNotExist].
func (d *Dir) Open(
	name string,
	oflags OpenFlag,
	read, write bool,
	fdflags FDFlag,
) (File, error) {
	if oflags != 0 {
		return nil, pathError("open", name, ErrNotSupported)
	}

	if fdflags&fdSyncFlags != 0 {
		return nil, pathError("open", name, ErrNotSupported)
	}

	if name == dirName {
		return &dirFile{}, nil
	}

	family, index, ok := parseName(name)
	if !ok {
		return nil, pathError("open", name, ErrNotExist)
	}

	slot, exists := d.registry.Slot(family, index)
	if !exists {
		return nil, pathError("open", name, ErrNotExist)
	}

	slog.Debug("Open device file",
		slog.String("name", name),
		slog.Bool("read", read),
		slog.Bool("write", write))

	return &deviceFile{
		slot:  slot,
		read:  read,
		write: write,
	}, nil
}

// OpenDir fails always, as the directory has no subdirectories.
func (*Dir) OpenDir(name string) (*Dir, error) {
	return nil, pathError("opendir", name, ErrNotExist)
}

// Stat returns the stat of the directory itself.
func (*Dir) Stat() Stat {
	return dirStat()
}

// StatPath returns the stat of the file with the given name.
func (d *Dir) StatPath(name string) (Stat, error) {
	file, err := d.Open(name, 0, true, false, 0)
	if err != nil {
		return Stat{}, err
	}
	defer file.Close()

	return file.Stat()
}

// ReadDir returns the directory listing starting at the given cursor.
//
// The listing contains all attached ethernet devices in index order followed
// by all attached wireless devices in index order. It is computed for the
// devices attached at the time of the call and may be iterated more than once.
// Every entry carries the cursor to resume the listing after it.
func (d *Dir) ReadDir(cursor Cursor) iter.Seq[Entry] {
	var slots []*device.Slot
	for _, family := range device.Families() {
		slots = append(slots, d.registry.Slots(family)...)
	}

	return func(yield func(Entry) bool) {
		for pos := cursor; pos < Cursor(len(slots)); pos++ {
			slot := slots[pos]
			if slot.Detached() {
				continue
			}

			entry := Entry{
				Next:  pos + 1,
				Inode: dirInode + uint64(pos),
				Name:  slot.Name(),
				Type:  deviceMode.Type(),
			}

			if !yield(entry) {
				return
			}
		}
	}
}

// Mkdir fails always, the directory is protected.
func (*Dir) Mkdir(name string, _ fs.FileMode) error {
	return pathError("mkdir", name, ErrPermission)
}

// Rmdir fails always, the directory is protected.
func (*Dir) Rmdir(name string) error {
	return pathError("rmdir", name, ErrPermission)
}

// Rename fails always, the directory is protected.
func (*Dir) Rename(oldName, _ string) error {
	return pathError("rename", oldName, ErrPermission)
}

// Utimens fails always, the directory is protected.
func (*Dir) Utimens(name string, _, _ time.Time) error {
	return pathError("utimens", name, ErrPermission)
}

// Unlink fails always, device files can not be removed.
func (*Dir) Unlink(name string) error {
	return pathError("unlink", name, ErrNotSupported)
}

// Link fails always, hard links are not supported.
func (*Dir) Link(_, newName string) error {
	return pathError("link", newName, ErrNotSupported)
}

// Symlink fails always, symbolic links are not supported.
func (*Dir) Symlink(_, newName string) error {
	return pathError("symlink", newName, ErrNotSupported)
}

// Readlink fails always, symbolic links are not supported.
func (*Dir) Readlink(name string) (string, error) {
	return "", pathError("readlink", name, ErrNotSupported)
}

// parseName splits a device file name into family and index. The index is
// the digit run following the family name up to the end of the name.
func parseName(name string) (device.Family, int, bool) {
	digits := strings.IndexFunc(name, isDigit)
	if digits < 0 {
		return 0, 0, false
	}

	family, err := device.ParseFamily(name[:digits])
	if err != nil {
		return 0, 0, false
	}

	indexStr := name[digits:]
	if strings.ContainsFunc(indexStr, func(r rune) bool { return !isDigit(r) }) {
		return 0, 0, false
	}

	index, err := strconv.Atoi(indexStr)
	if err != nil || index > device.MaxMinor {
		return 0, 0, false
	}

	return family, index, true
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}
