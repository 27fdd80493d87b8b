// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package readiness implements the host call guests use to wait until any of
// a set of file descriptors is ready.
//
// The guest passes two arrays of fixed size records in its linear memory: the
// interests it waits for and an output array of equal length the host fills
// with the interests that are ready. The host resolves every descriptor to
// its device number, waits until at least one of them is ready for reading
// and then reports all interests that are ready at that time. Descriptors
// that are not devices of the device directory are always ready.
package readiness
