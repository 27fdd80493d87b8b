// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest_test

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/aibor/sandboxer/internal/computer"
	"github.com/aibor/sandboxer/internal/devfs"
	"github.com/aibor/sandboxer/internal/device"
	"github.com/aibor/sandboxer/internal/guest"
	"github.com/aibor/sandboxer/internal/link"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProcess(t *testing.T, args ...string) (*guest.Process, *computer.Computer, *bytes.Buffer) {
	t.Helper()

	c, err := computer.Create(t.TempDir())
	require.NoError(t, err)

	var stdout bytes.Buffer

	proc, err := guest.NewProcess(c, guest.Config{
		Args:   args,
		Stdout: &stdout,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, proc.Shutdown())
	})

	return proc, c, &stdout
}

func TestProcess_HostFiles(t *testing.T) {
	proc, c, _ := newProcess(t)

	fd, err := proc.Open("notes", os.O_WRONLY|os.O_CREATE, 0o644)
	require.NoError(t, err)

	_, err = proc.Write(fd, []byte("in home"))
	require.NoError(t, err)
	require.NoError(t, proc.Close(fd))

	content, err := os.ReadFile(filepath.Join(c.HomeDir(), "notes"))
	require.NoError(t, err)
	assert.Equal(t, "in home", string(content))

	fd, err = proc.Open("/home/user/notes", os.O_RDONLY, 0)
	require.NoError(t, err)

	data, err := proc.ReadAvailable(fd)
	require.NoError(t, err)
	assert.Equal(t, "in home", string(data))

	dev, err := proc.DeviceNumber(fd)
	require.NoError(t, err)

	_, _, managed := device.DecodeNumber(dev)
	assert.False(t, managed, "host files are not managed devices")

	names, err := proc.ReadDir("/")
	require.NoError(t, err)
	assert.Equal(t, []string{"home"}, names)

	_, err = proc.Open("../../../escape", os.O_WRONLY|os.O_CREATE, 0o644)
	require.Error(t, err)
}

func TestProcess_Devices(t *testing.T) {
	proc, c, _ := newProcess(t)

	local, remote := link.NewPair()
	_, err := c.Attach(device.Ethernet, local)
	require.NoError(t, err)

	fd, err := proc.Open("/dev/ethernet0", os.O_RDWR, 0)
	require.NoError(t, err)

	dev, err := proc.DeviceNumber(fd)
	require.NoError(t, err)
	assert.Equal(t, uint64(device.Ethernet.Number(0)), dev)

	_, err = remote.Write([]byte("incoming"))
	require.NoError(t, err)

	data, err := proc.ReadAvailable(fd)
	require.NoError(t, err)
	assert.Equal(t, "incoming", string(data))

	_, err = proc.Write(fd, []byte("outgoing"))
	require.NoError(t, err)
	assert.Equal(t, "outgoing", string(remote.ReadAll()))

	names, err := proc.ReadDir("/dev")
	require.NoError(t, err)
	assert.Equal(t, []string{"ethernet0"}, names)

	_, err = proc.ReadDir("/dev/ethernet0")
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestProcess_DeviceOpenErrors(t *testing.T) {
	proc, c, _ := newProcess(t)

	local, _ := link.NewPair()
	_, err := c.Attach(device.Ethernet, local)
	require.NoError(t, err)

	tests := []struct {
		name        string
		path        string
		flag        int
		expectedErr error
	}{
		{
			name:        "create",
			path:        "/dev/ethernet0",
			flag:        os.O_WRONLY | os.O_CREATE,
			expectedErr: devfs.ErrNotSupported,
		},
		{
			name:        "truncate",
			path:        "/dev/ethernet0",
			flag:        os.O_WRONLY | os.O_TRUNC,
			expectedErr: devfs.ErrNotSupported,
		},
		{
			name:        "sync",
			path:        "/dev/ethernet0",
			flag:        os.O_WRONLY | os.O_SYNC,
			expectedErr: devfs.ErrNotSupported,
		},
		{
			name:        "missing",
			path:        "/dev/wireless0",
			expectedErr: devfs.ErrNotExist,
		},
		{
			name:        "not a device",
			path:        "/dev/null",
			expectedErr: devfs.ErrNotExist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := proc.Open(tt.path, tt.flag, 0)
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestProcess_Capabilities(t *testing.T) {
	proc, c, _ := newProcess(t)

	local, _ := link.NewPair()
	_, err := c.Attach(device.Wireless, local)
	require.NoError(t, err)

	fd, err := proc.Open("/dev/wireless0", os.O_RDONLY, 0)
	require.NoError(t, err)

	_, err = proc.Write(fd, []byte("x"))
	require.ErrorIs(t, err, devfs.ErrBadDescriptor)

	fd, err = proc.Open("/dev/wireless0", os.O_WRONLY|os.O_APPEND, 0)
	require.NoError(t, err)

	_, err = proc.Read(fd, make([]byte, 1))
	require.ErrorIs(t, err, devfs.ErrBadDescriptor)
}

func TestProcess_Descriptors(t *testing.T) {
	proc, _, stdout := newProcess(t, "a", "b")

	assert.Equal(t, []string{"a", "b"}, proc.Args())
	assert.Equal(t, "b", proc.Arg(1))
	assert.Empty(t, proc.Arg(2))

	proc.Printf("hello %d\n", 42)
	assert.Equal(t, "hello 42\n", stdout.String())

	_, err := proc.Read(guest.Stdin, make([]byte, 1))
	require.ErrorIs(t, err, guest.ErrBadDescriptor, "stdin not connected")

	_, err = proc.Write(guest.Stderr, []byte("x"))
	require.ErrorIs(t, err, guest.ErrBadDescriptor, "stderr not connected")

	_, err = proc.Read(99, make([]byte, 1))
	require.ErrorIs(t, err, guest.ErrBadDescriptor)

	_, err = proc.DeviceNumber(99)
	require.ErrorIs(t, err, guest.ErrBadDescriptor)

	require.ErrorIs(t, proc.Close(99), guest.ErrBadDescriptor)
}

func TestProcess_WaitUntilReadyForRead(t *testing.T) {
	proc, c, _ := newProcess(t)

	local, remote := link.NewPair()
	_, err := c.Attach(device.Ethernet, local)
	require.NoError(t, err)

	fd, err := proc.Open("/dev/ethernet0", os.O_RDONLY, 0)
	require.NoError(t, err)

	t.Run("unmanaged always ready", func(t *testing.T) {
		ready, err := proc.WaitUntilReadyForRead(t.Context(), fd, guest.Stdout)
		require.NoError(t, err)
		assert.Equal(t, []uint32{guest.Stdout}, ready)
	})

	t.Run("device ready", func(t *testing.T) {
		_, err := remote.Write([]byte("data"))
		require.NoError(t, err)

		ready, err := proc.WaitUntilReadyForRead(t.Context(), fd)
		require.NoError(t, err)
		assert.Equal(t, []uint32{fd}, ready)
	})

	t.Run("repeated descriptor", func(t *testing.T) {
		_, err := remote.Write([]byte("more"))
		require.NoError(t, err)

		ready, err := proc.WaitUntilReadyForRead(t.Context(), fd, fd)
		require.NoError(t, err)
		assert.Equal(t, []uint32{fd, fd}, ready)
	})

	t.Run("no descriptors", func(t *testing.T) {
		ready, err := proc.WaitUntilReadyForRead(t.Context())
		require.NoError(t, err)
		assert.Empty(t, ready)
	})

	t.Run("bad descriptor", func(t *testing.T) {
		_, err := proc.WaitUntilReadyForRead(t.Context(), 99)
		require.ErrorIs(t, err, guest.ErrBadDescriptor)
	})

	t.Run("memory released", func(t *testing.T) {
		ptr, err := proc.Memory().Alloc(1)
		require.NoError(t, err)
		assert.Zero(t, ptr)
		proc.Memory().Release(ptr)
	})
}
