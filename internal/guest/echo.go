// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest

import (
	"context"
	"errors"
	"os"
	"strconv"
)

// Echo sends everything received on any device back on the same device.
//
// An optional first argument limits the number of messages to echo. Without
// it, Echo runs until ctx is canceled.
func Echo(ctx context.Context, proc *Process) error {
	limit := -1

	if arg := proc.Arg(0); arg != "" {
		var err error

		limit, err = strconv.Atoi(arg)
		if err != nil {
			return err //nolint:wrapcheck
		}
	}

	names, err := proc.ReadDir(devDir)
	if err != nil {
		return err
	}

	fds := make([]uint32, 0, len(names))
	devices := make(map[uint32]string, len(names))

	for _, name := range names {
		fd, err := proc.Open(devDir+"/"+name, os.O_RDWR, 0)
		if err != nil {
			return err
		}
		defer proc.Close(fd) //nolint:errcheck

		fds = append(fds, fd)
		devices[fd] = name
	}

	proc.Printf("Echoing on %d devices\n", len(fds))

	if len(fds) == 0 {
		return nil
	}

	for echoed := 0; limit < 0 || echoed < limit; {
		ready, err := proc.WaitUntilReadyForRead(ctx, fds...)
		if errors.Is(err, context.Canceled) {
			return nil
		} else if err != nil {
			return err
		}

		for _, fd := range ready {
			data, err := proc.ReadAvailable(fd)
			if err != nil {
				return err
			}

			if len(data) == 0 {
				continue
			}

			_, err = proc.Write(fd, data)
			if err != nil {
				return err
			}

			proc.Printf("Echoed %d bytes on %s\n", len(data), devices[fd])

			echoed++
		}
	}

	return nil
}
