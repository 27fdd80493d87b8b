// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package pipe provides the transport of guest console output to the host.
//
// Each guest writes its stdout and stderr into a pipe. The host side copies
// the data to its own output, usually line by line prefixed with the name of
// the computer, so the output of concurrently running guests can be told
// apart.
package pipe
