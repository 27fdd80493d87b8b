// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	defaultBaseDir := MustAbsoluteFilePath(baseDirDefault)

	tests := []struct {
		name          string
		args          []string
		expectedFlags *flags
		expectedErr   error
	}{
		{
			name: "defaults",
			expectedFlags: &flags{
				BaseDir: defaultBaseDir,
			},
		},
		{
			name:        "help",
			args:        []string{"-help"},
			expectedErr: ErrHelp,
		},
		{
			name: "version",
			args: []string{"-version"},
			expectedFlags: &flags{
				BaseDir: defaultBaseDir,
				Version: true,
			},
		},
		{
			name: "all",
			args: []string{
				"-config=/etc/topology.yaml",
				"-baseDir", "/tmp/computers",
				"-bufferCapacity=4096",
				"-keepComputers",
				"-exportDir=/tmp/images",
				"-debug",
			},
			expectedFlags: &flags{
				ConfigPath:     "/etc/topology.yaml",
				BaseDir:        "/tmp/computers",
				BufferCapacity: 4096,
				KeepComputers:  true,
				ExportDir:      "/tmp/images",
				Debug:          true,
			},
		},
		{
			name: "relative paths",
			args: []string{
				"-config=topology.yaml",
				"-baseDir=out",
				"-exportDir=images",
			},
			expectedFlags: &flags{
				ConfigPath: MustAbsoluteFilePath("topology.yaml"),
				BaseDir:    MustAbsoluteFilePath("out"),
				ExportDir:  MustAbsoluteFilePath("images"),
			},
		},
		{
			name: "later wins",
			args: []string{
				"-bufferCapacity=16",
				"-bufferCapacity=32",
			},
			expectedFlags: &flags{
				BaseDir:        defaultBaseDir,
				BufferCapacity: 32,
			},
		},
		{
			name:        "empty config path",
			args:        []string{"-config="},
			expectedErr: ErrEmptyFilePath,
		},
		{
			name:        "capacity too large",
			args:        []string{"-bufferCapacity=2000000000"},
			expectedErr: ErrValueOutOfRange,
		},
		{
			name:        "unknown flag",
			args:        []string{"-kernel=/boot/vmlinuz"},
			expectedErr: &ParseArgsError{},
		},
		{
			name:        "positional args",
			args:        []string{"-debug", "topology.yaml"},
			expectedErr: &ParseArgsError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer

			flags, err := parseArgs(tt.args, &output)
			require.ErrorIs(t, err, tt.expectedErr)

			assert.Equal(t, tt.expectedFlags, flags)
		})
	}
}

func TestParseArgs_Usage(t *testing.T) {
	var output bytes.Buffer

	_, err := parseArgs([]string{"-help"}, &output)
	require.ErrorIs(t, err, ErrHelp)

	assert.Contains(t, output.String(), "Usage of 'sandboxer'")
	assert.Contains(t, output.String(), "Programs: echo, hello")
	assert.Contains(t, output.String(), "-bufferCapacity")
	assert.Contains(t, output.String(), "-exportDir")
}

func TestFlags_LogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, (&flags{}).logLevel())
	assert.Equal(t, slog.LevelDebug, (&flags{Debug: true}).logLevel())
}
