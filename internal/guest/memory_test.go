// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest_test

import (
	"testing"

	"github.com/aibor/sandboxer/internal/guest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_ReadWrite(t *testing.T) {
	mem := guest.NewMemory(1)
	require.Equal(t, uint32(guest.PageSize), mem.Size())

	assert.True(t, mem.Write(guest.PageSize-3, []byte("abc")))
	assert.False(t, mem.Write(guest.PageSize-2, []byte("abc")))

	b, ok := mem.Read(guest.PageSize-3, 3)
	require.True(t, ok)
	assert.Equal(t, "abc", string(b))

	_, ok = mem.Read(guest.PageSize-3, 4)
	assert.False(t, ok)

	_, ok = mem.Read(^uint32(0), 2)
	assert.False(t, ok, "offset overflow")
}

func TestMemory_Alloc(t *testing.T) {
	mem := guest.NewMemory(1)

	first, err := mem.Alloc(16)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), first)

	require.True(t, mem.Write(first, []byte("dirty")))

	second, err := mem.Alloc(8)
	require.NoError(t, err)
	assert.Equal(t, uint32(16), second)

	mem.Release(first)

	again, err := mem.Alloc(4)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	b, _ := mem.Read(again, 4)
	assert.Equal(t, []byte{0, 0, 0, 0}, b, "allocation must be zeroed")

	_, err = mem.Alloc(guest.PageSize)
	require.ErrorIs(t, err, guest.ErrOutOfMemory)
}
