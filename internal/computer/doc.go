// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package computer provides sandboxed computers.
//
// A computer has a random identity, a private storage root on the host that
// is exposed to its guest program as file system and a device registry its
// network devices are attached to. The storage root can be seeded from and
// exported to cpio archives.
package computer
