// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package hostlink connects device endpoints of computers to network
// interfaces of the host.
//
// A [Bridge] copies data between an endpoint and a frame device, usually a
// [TAP] interface created with netlink. Data arriving from the host is
// written into the endpoint one frame per write. Data written by the guest
// is forwarded to the host in chunks of at most the frame size.
package hostlink
