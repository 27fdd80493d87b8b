// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package link provides the byte transport between two device endpoints.
//
// A [Link] consists of two independently locked [Buffer]s, one per direction.
// [NewPair] returns the two [Endpoint]s of a new link. Each endpoint reads
// from the buffer the other one writes to. Endpoints are small value handles
// and may be copied freely. The link is released once no endpoint copy
// references it anymore.
//
// Reads never block. Callers that want to wait for data subscribe to read
// readiness with [Endpoint.SubscribeReadReady] and wait on the returned
// channel.
package link
