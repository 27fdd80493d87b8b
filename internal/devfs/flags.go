// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package devfs

// OpenFlag are flags that change how a path is opened. Bit values follow the
// WASI oflags.
type OpenFlag uint16

const (
	OpenCreate OpenFlag = 1 << iota
	OpenDirectory
	OpenExclusive
	OpenTruncate
)

// FDFlag are flags of an open file. Bit values follow the WASI fdflags.
type FDFlag uint16

const (
	FDAppend FDFlag = 1 << iota
	FDDataSync
	FDNonblock
	FDReadSync
	FDSync
)

// fdSyncFlags are the synchronize-on-write flags, none of them is supported.
const fdSyncFlags = FDDataSync | FDReadSync | FDSync
