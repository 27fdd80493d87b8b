// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package device_test

import (
	"sync"
	"testing"

	"github.com/aibor/sandboxer/internal/device"
	"github.com/aibor/sandboxer/internal/link"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestRegistry_Attach(t *testing.T) {
	registry := device.NewRegistry()

	for expected := range 3 {
		endpoint, _ := link.NewPair()
		index, err := registry.Attach(device.Ethernet, endpoint)
		require.NoError(t, err)
		assert.Equal(t, expected, index)
	}

	endpoint, _ := link.NewPair()
	index, err := registry.Attach(device.Wireless, endpoint)
	require.NoError(t, err)
	assert.Zero(t, index)

	assert.Equal(t, 3, registry.Len(device.Ethernet))
	assert.Equal(t, 1, registry.Len(device.Wireless))

	_, err = registry.Attach(device.Family(7), endpoint)
	require.ErrorIs(t, err, device.ErrUnknownFamily)

	_, err = registry.Attach(device.Family(0), endpoint)
	require.ErrorIs(t, err, device.ErrUnknownFamily)
}

func TestRegistry_Contains(t *testing.T) {
	registry := device.NewRegistry()
	endpoint, _ := link.NewPair()

	_, err := registry.Attach(device.Ethernet, endpoint)
	require.NoError(t, err)

	assert.True(t, registry.Contains(device.Ethernet, 0))
	assert.False(t, registry.Contains(device.Ethernet, 1))
	assert.False(t, registry.Contains(device.Ethernet, -1))
	assert.False(t, registry.Contains(device.Wireless, 0))
	assert.False(t, registry.Contains(device.Family(5), 0))
	assert.False(t, registry.Contains(device.Family(0), 0))
}

func TestRegistry_Readiness(t *testing.T) {
	registry := device.NewRegistry()
	local, remote := link.NewPair()

	_, err := registry.Attach(device.Ethernet, local)
	require.NoError(t, err)

	ready, exists := registry.IsReadyForRead(device.Ethernet, 0)
	assert.True(t, exists)
	assert.False(t, ready)

	_, exists = registry.IsReadyForRead(device.Ethernet, 1)
	assert.False(t, exists)

	wait, exists := registry.WaitUntilReadyForRead(device.Ethernet, 0)
	require.True(t, exists)
	assert.False(t, isClosed(wait))

	_, exists = registry.WaitUntilReadyForRead(device.Wireless, 0)
	assert.False(t, exists)

	_, err = remote.Write([]byte("ping"))
	require.NoError(t, err)

	assert.True(t, isClosed(wait))

	ready, exists = registry.IsReadyForRead(device.Ethernet, 0)
	assert.True(t, exists)
	assert.True(t, ready)

	wait, exists = registry.WaitUntilReadyForRead(device.Ethernet, 0)
	require.True(t, exists)
	assert.True(t, isClosed(wait), "already ready must resolve immediately")
}

func TestRegistry_Detach(t *testing.T) {
	registry := device.NewRegistry()

	for range 2 {
		endpoint, _ := link.NewPair()
		_, err := registry.Attach(device.Ethernet, endpoint)
		require.NoError(t, err)
	}

	wait, exists := registry.WaitUntilReadyForRead(device.Ethernet, 0)
	require.True(t, exists)

	err := registry.Detach(device.Ethernet, 0)
	require.NoError(t, err)

	assert.True(t, isClosed(wait), "waiters must be woken")
	assert.False(t, registry.Contains(device.Ethernet, 0))
	assert.True(t, registry.Contains(device.Ethernet, 1))

	_, exists = registry.IsReadyForRead(device.Ethernet, 0)
	assert.False(t, exists)

	err = registry.Detach(device.Ethernet, 0)
	require.ErrorIs(t, err, device.ErrNoDevice)

	err = registry.Detach(device.Wireless, 0)
	require.ErrorIs(t, err, device.ErrNoDevice)

	// Indices are never reused.
	endpoint, _ := link.NewPair()
	index, err := registry.Attach(device.Ethernet, endpoint)
	require.NoError(t, err)
	assert.Equal(t, 2, index)

	slots := registry.Slots(device.Ethernet)
	require.Len(t, slots, 3)
	assert.True(t, slots[0].Detached())
	assert.Equal(t, "ethernet2", slots[2].Name())
	assert.Equal(t, device.Ethernet.Number(2), slots[2].Number())
}

func TestRegistry_Concurrent(t *testing.T) {
	registry := device.NewRegistry()

	var wg sync.WaitGroup

	for range 4 {
		wg.Add(2)

		go func() {
			defer wg.Done()

			endpoint, _ := link.NewPair()
			_, err := registry.Attach(device.Wireless, endpoint)
			assert.NoError(t, err)
		}()

		go func() {
			defer wg.Done()

			for idx := range registry.Len(device.Wireless) {
				_, exists := registry.IsReadyForRead(device.Wireless, idx)
				assert.True(t, exists)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 4, registry.Len(device.Wireless))
}
