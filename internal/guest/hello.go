// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest

import (
	"context"
	"os"
	"slices"
	"time"
)

const (
	helloDevice  = "/dev/ethernet0"
	helloMessage = "Hello!"

	// HelloReceiver is the argument that makes [Hello] receive.
	HelloReceiver = "1"
)

// Hello sends or receives a greeting over the first ethernet device.
//
// With [HelloReceiver] as first argument it waits until data arrives and
// prints it together with the time it waited. Otherwise it sends the
// greeting.
func Hello(ctx context.Context, proc *Process) error {
	if proc.Arg(0) != HelloReceiver {
		fd, err := proc.Open(helloDevice, os.O_WRONLY, 0)
		if err != nil {
			return err
		}
		defer proc.Close(fd) //nolint:errcheck

		_, err = proc.Write(fd, []byte(helloMessage))
		if err != nil {
			return err
		}

		proc.Printf("Written '%s' to %s\n", helloMessage, helloDevice)

		return nil
	}

	fd, err := proc.Open(helloDevice, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer proc.Close(fd) //nolint:errcheck

	proc.Printf("Waiting for data on %s...\n", helloDevice)

	start := time.Now()

	err = waitFor(ctx, proc, fd)
	if err != nil {
		return err
	}

	data, err := proc.ReadAvailable(fd)
	if err != nil {
		return err
	}

	proc.Printf("Got '%s' after %dms\n", data, time.Since(start).Milliseconds())

	return nil
}

// waitFor blocks until fd is ready. The host call may report other or no
// descriptors, so it is repeated until fd is among the ready ones.
func waitFor(ctx context.Context, proc *Process, fd uint32) error {
	for {
		ready, err := proc.WaitUntilReadyForRead(ctx, fd)
		if err != nil {
			return err
		}

		if slices.Contains(ready, fd) {
			return nil
		}
	}
}
