// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build integration

package hostlink_test

import (
	"net"
	"os"
	"testing"

	"github.com/aibor/sandboxer/internal/hostlink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTAP(t *testing.T) {
	if os.Geteuid() != 0 {
		t.Skip("requires root")
	}

	tap, err := hostlink.CreateTAP("sbxtest%d")
	require.NoError(t, err)

	assert.Regexp(t, `^sbxtest\d+$`, tap.Name())

	iface, err := net.InterfaceByName(tap.Name())
	require.NoError(t, err)
	assert.NotZero(t, iface.Flags&net.FlagUp, "interface must be up")

	require.NoError(t, tap.Close())

	_, err = net.InterfaceByName(tap.Name())
	require.Error(t, err, "interface must be removed")
}
