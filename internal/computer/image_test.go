// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package computer_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aibor/sandboxer/internal/computer"
	"github.com/cavaliergopher/cpio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	name string
	mode cpio.FileMode
	body string
}

func archive(t *testing.T, entries ...entry) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer

	w := cpio.NewWriter(&buf)

	for _, e := range entries {
		err := w.WriteHeader(&cpio.Header{
			Name: e.name,
			Mode: e.mode,
			Size: int64(len(e.body)),
		})
		require.NoError(t, err)

		_, err = w.Write([]byte(e.body))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())

	return &buf
}

func TestComputer_SeedImage(t *testing.T) {
	c, err := computer.Create(t.TempDir())
	require.NoError(t, err)

	image := archive(t,
		entry{name: ".", mode: cpio.TypeDir | 0o755},
		entry{name: "etc", mode: cpio.TypeDir | 0o755},
		entry{name: "etc/hostname", mode: cpio.TypeReg | 0o644, body: "alpha\n"},
		entry{name: "/home/user/notes.txt", mode: cpio.TypeReg | 0o600, body: "hi"},
		entry{name: "var/lib/data", mode: cpio.TypeReg | 0o644, body: "nested"},
	)

	require.NoError(t, c.SeedImage(image))

	content, err := os.ReadFile(filepath.Join(c.RootDir(), "etc", "hostname"))
	require.NoError(t, err)
	assert.Equal(t, "alpha\n", string(content))

	content, err = os.ReadFile(filepath.Join(c.HomeDir(), "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(content))

	content, err = os.ReadFile(filepath.Join(c.RootDir(), "var", "lib", "data"))
	require.NoError(t, err)
	assert.Equal(t, "nested", string(content))

	info, err := os.Stat(filepath.Join(c.HomeDir(), "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestComputer_SeedImageErrors(t *testing.T) {
	tests := []struct {
		name        string
		entries     []entry
		expectedErr error
	}{
		{
			name: "parent path",
			entries: []entry{
				{name: "../evil", mode: cpio.TypeReg | 0o644, body: "x"},
			},
			expectedErr: computer.ErrInvalidPath,
		},
		{
			name: "nested parent path",
			entries: []entry{
				{name: "etc/../../evil", mode: cpio.TypeReg | 0o644, body: "x"},
			},
			expectedErr: computer.ErrInvalidPath,
		},
		{
			name: "symlink",
			entries: []entry{
				{name: "link", mode: cpio.TypeSymlink | 0o777, body: "/etc"},
			},
			expectedErr: computer.ErrUnsupportedType,
		},
		{
			name: "fifo",
			entries: []entry{
				{name: "fifo", mode: cpio.TypeFifo | 0o644},
			},
			expectedErr: computer.ErrUnsupportedType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			baseDir := t.TempDir()

			c, err := computer.Create(baseDir)
			require.NoError(t, err)

			err = c.SeedImage(archive(t, tt.entries...))
			require.ErrorIs(t, err, tt.expectedErr)

			assert.NoFileExists(t, filepath.Join(baseDir, "evil"))
		})
	}
}

func TestComputer_SeedImageCorrupt(t *testing.T) {
	c, err := computer.Create(t.TempDir())
	require.NoError(t, err)

	err = c.SeedImage(bytes.NewBufferString("not an archive at all, definitely not"))
	require.Error(t, err)
}

func TestComputer_ExportImage(t *testing.T) {
	c, err := computer.Create(t.TempDir())
	require.NoError(t, err)

	err = os.WriteFile(filepath.Join(c.HomeDir(), "greeting"), []byte("Hello!"), 0o640)
	require.NoError(t, err)

	var buf bytes.Buffer

	require.NoError(t, c.ExportImage(&buf))

	found := map[string]string{}
	modes := map[string]cpio.FileMode{}
	r := cpio.NewReader(&buf)

	for {
		hdr, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		require.NoError(t, err)

		body, err := io.ReadAll(r)
		require.NoError(t, err)

		found[hdr.Name] = string(body)
		modes[hdr.Name] = hdr.Mode
	}

	expected := map[string]string{
		"home":               "",
		"home/user":          "",
		"home/user/greeting": "Hello!",
	}

	assert.Equal(t, expected, found)
	assert.Equal(t, cpio.FileMode(cpio.TypeReg|0o640), modes["home/user/greeting"])
	assert.Equal(t, cpio.FileMode(cpio.TypeDir), modes["home"]&^cpio.ModePerm)

	t.Run("seed into other computer", func(t *testing.T) {
		other, err := computer.Create(t.TempDir())
		require.NoError(t, err)

		var image bytes.Buffer

		require.NoError(t, c.ExportImage(&image))
		require.NoError(t, other.SeedImage(&image))

		content, err := os.ReadFile(filepath.Join(other.HomeDir(), "greeting"))
		require.NoError(t, err)
		assert.Equal(t, "Hello!", string(content))
	})
}
