// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package computer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/cavaliergopher/cpio"
)

const numLinks = 2

// SeedImage extracts the cpio archive read from r into the storage root.
//
// Only directories and regular files are supported. Existing files are
// overwritten. Missing parent directories are created.
func (c *Computer) SeedImage(r io.Reader) error {
	root, err := c.OpenRoot()
	if err != nil {
		return err
	}
	defer root.Close()

	archive := cpio.NewReader(r)

	for {
		hdr, err := archive.Next()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}

		name, err := entryName(hdr.Name)
		if err != nil {
			return err
		}

		if name == "." {
			continue
		}

		err = extract(root, name, hdr, archive)
		if err != nil {
			return err
		}
	}

	slog.Debug("Image seeded", slog.String("id", c.id.String()))

	return nil
}

func entryName(name string) (string, error) {
	name = path.Clean(strings.TrimPrefix(name, "/"))
	if !fs.ValidPath(name) {
		return "", &fs.PathError{Op: "extract", Path: name, Err: ErrInvalidPath}
	}

	return name, nil
}

func extract(root *os.Root, name string, hdr *cpio.Header, body io.Reader) error {
	err := mkdirAll(root, path.Dir(name))
	if err != nil {
		return err
	}

	perm := fs.FileMode(hdr.Mode.Perm())

	switch hdr.Mode & cpio.ModeType {
	case cpio.TypeDir:
		return mkdirAll(root, name)
	case cpio.TypeReg:
		file, err := root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
		if err != nil {
			return fmt.Errorf("extract: %w", err)
		}
		defer file.Close()

		_, err = io.Copy(file, body)
		if err != nil {
			return fmt.Errorf("extract %s: %w", name, err)
		}

		return file.Close()
	default:
		return &fs.PathError{Op: "extract", Path: name, Err: ErrUnsupportedType}
	}
}

// mkdirAll creates the directory and all missing parents in root.
func mkdirAll(root *os.Root, name string) error {
	if name == "." {
		return nil
	}

	info, err := root.Stat(name)
	if err == nil {
		if !info.IsDir() {
			return &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrExist}
		}

		return nil
	}

	err = mkdirAll(root, path.Dir(name))
	if err != nil {
		return err
	}

	err = root.Mkdir(name, dirMode)
	if err != nil && !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("extract: %w", err)
	}

	return nil
}

// ExportImage writes the content of the storage root as cpio archive to w.
//
// Directories and regular files are exported. Other files are skipped.
func (c *Computer) ExportImage(w io.Writer) error {
	root, err := c.OpenRoot()
	if err != nil {
		return err
	}
	defer root.Close()

	fsys := root.FS()
	archive := cpio.NewWriter(w)

	err = fs.WalkDir(fsys, ".", func(name string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if name == "." {
			return nil
		}

		switch {
		case entry.IsDir():
			info, err := entry.Info()
			if err != nil {
				return err //nolint:wrapcheck
			}

			return writeHeader(archive, &cpio.Header{
				Name:  name,
				Mode:  cpio.TypeDir | cpio.FileMode(info.Mode().Perm()),
				Links: numLinks,
			})
		case entry.Type().IsRegular():
			return exportRegular(archive, fsys, name)
		default:
			slog.Warn("Skip unsupported file on export",
				slog.String("id", c.id.String()),
				slog.String("path", name))

			return nil
		}
	})
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	err = archive.Close()
	if err != nil {
		return fmt.Errorf("export: close: %w", err)
	}

	return nil
}

func exportRegular(archive *cpio.Writer, fsys fs.FS, name string) error {
	file, err := fsys.Open(name)
	if err != nil {
		return err //nolint:wrapcheck
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err //nolint:wrapcheck
	}

	hdr, err := cpio.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("create header: %w", err)
	}

	hdr.Name = name

	err = writeHeader(archive, hdr)
	if err != nil {
		return err
	}

	_, err = io.Copy(archive, file)
	if err != nil {
		return fmt.Errorf("write body for %s: %w", name, err)
	}

	return nil
}

func writeHeader(archive *cpio.Writer, hdr *cpio.Header) error {
	err := archive.WriteHeader(hdr)
	if err != nil {
		return fmt.Errorf("write header for %s: %w", hdr.Name, err)
	}

	return nil
}
