// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sim runs a network of sandboxed computers.
//
// A [Topology] describes the computers, the guest program each of them runs
// and the links between their devices. [Run] creates the computers, wires
// their devices, runs all guest programs concurrently and collects their
// console output.
package sim
