// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package pipe

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
)

// CopyFunc defines a function that reads the data from the given reader into
// the given writer.
//
// It may copy the data as is, like [io.Copy], or mutate or filter it as needed.
type CopyFunc func(dst io.Writer, src io.Reader) (int64, error)

var _ CopyFunc = io.Copy

// MaxLineLength is the length after which [PrefixLines] breaks a line.
const MaxLineLength = 64 << 10

// PrefixLines returns a [CopyFunc] that copies the data line by line, each
// line prefixed with the given prefix and a colon. Carriage returns at line
// ends are removed. A missing line break at the end is added. Lines longer
// than [MaxLineLength] are broken into multiple lines.
//
// Each line is written with a single write call, so lines of different
// sources do not interleave if dst is synchronized, see [Synchronized].
func PrefixLines(prefix string) CopyFunc {
	return func(dst io.Writer, src io.Reader) (int64, error) {
		var written int64

		reader := bufio.NewReaderSize(src, MaxLineLength)
		line := make([]byte, 0, len(prefix)+MaxLineLength+3)

		for {
			data, readErr := reader.ReadSlice('\n')

			complete := readErr == nil || errors.Is(readErr, io.EOF)
			if complete {
				data = bytes.TrimSuffix(data, []byte{'\n'})
				data = bytes.TrimSuffix(data, []byte{'\r'})
			}

			if len(data) > 0 || readErr == nil || errors.Is(readErr, bufio.ErrBufferFull) {
				line = append(line[:0], prefix...)
				line = append(line, ": "...)
				line = append(line, data...)
				line = append(line, '\n')

				n, err := dst.Write(line)

				written += int64(n)

				if err != nil {
					return written, fmt.Errorf("write: %w", err)
				}
			}

			switch {
			case readErr == nil, errors.Is(readErr, bufio.ErrBufferFull):
			case errors.Is(readErr, io.EOF):
				return written, nil
			default:
				return written, fmt.Errorf("read: %w", readErr)
			}
		}
	}
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.w.Write(p) //nolint:wrapcheck
}

// Synchronized returns a writer that serializes all writes to w.
func Synchronized(w io.Writer) io.Writer {
	return &syncWriter{w: w}
}
