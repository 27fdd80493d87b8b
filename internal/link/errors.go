// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package link

import "errors"

// ErrBufferFull is returned if a write does not fit into a bounded buffer.
var ErrBufferFull = errors.New("buffer full")
