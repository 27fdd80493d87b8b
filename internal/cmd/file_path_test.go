// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd_test

import (
	"testing"

	"github.com/aibor/sandboxer/internal/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilePath_Set(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    string
		expectedErr error
	}{
		{
			name:        "empty",
			expectedErr: cmd.ErrEmptyFilePath,
		},
		{
			name:     "relative",
			input:    "path",
			expected: cmd.MustAbsoluteFilePath("path"),
		},
		{
			name:     "absolute",
			input:    "/some/../path",
			expected: "/path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var path cmd.FilePath

			err := path.Set(tt.input)
			require.ErrorIs(t, err, tt.expectedErr)

			assert.Equal(t, tt.expected, string(path))
		})
	}
}

func TestFilePath_String(t *testing.T) {
	path := cmd.FilePath("/path")
	assert.Equal(t, "/path", path.String())
}
