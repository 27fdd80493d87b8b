// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package guest provides the environment guest programs run in.
//
// A [Process] gives a program access to the storage root of its computer, to
// the device directory mounted at /dev and to the readiness host call. The
// host call is invoked through the process' linear [Memory] the same way a
// compiled guest would invoke it. Guest programs are registered by name, see
// [Lookup].
package guest
