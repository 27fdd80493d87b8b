// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package devfs provides the virtual device directory of a computer, usually
// mounted at /dev in the guest.
//
// Every attached device of the computer's [device.Registry] is exposed as a
// character device file named after its family and index, like "ethernet0" or
// "wireless3". Opening such a file returns a [File] bound to the device's
// link endpoint. Reads and writes go directly to the endpoint's buffers and
// never block.
//
// The namespace is fixed: every structural modification is rejected. Errors
// are [fs.PathError]s wrapping errno values, so they can be passed on to a
// guest as they are and still match [fs.ErrNotExist], [fs.ErrPermission] and
// [errors.ErrUnsupported].
package devfs
