// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package device provides the device families, the device number encoding
// and the per computer device [Registry].
//
// A device is identified by its [Family] and its slot index within that
// family. The pair is encoded into a 32 bit [Number] that is reported as the
// device id of opened device files, so a file descriptor can be correlated
// with its registry entry again.
package device
