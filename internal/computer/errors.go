// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package computer

import "errors"

var (
	// ErrUnsupportedType is returned for archive entries that are neither
	// directories nor regular files.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrInvalidPath is returned for archive entries whose path leaves the
	// storage root.
	ErrInvalidPath = errors.New("invalid path")
)
