// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package hostlink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aibor/sandboxer/internal/link"
	"golang.org/x/sync/errgroup"
)

// DefaultFrameSize is the ethernet MTU plus header.
const DefaultFrameSize = 1514

// Bridge copies data between a device endpoint and a frame device.
type Bridge struct {
	// Name identifies the bridge in log messages.
	Name string

	// Endpoint is the host side of a link whose other side is attached to
	// a computer.
	Endpoint link.Endpoint

	// Device is the host side frame device, usually a [TAP]. It is closed
	// when the bridge stops.
	Device io.ReadWriteCloser

	// FrameSize is the maximum size of a frame. Defaults to
	// [DefaultFrameSize]. Larger guest writes are dropped.
	FrameSize int
}

func (b *Bridge) frameSize() int {
	if b.FrameSize > 0 {
		return b.FrameSize
	}

	return DefaultFrameSize
}

// Run copies data in both directions until ctx is canceled or an error
// occurs. Data the guest sent before the cancellation is still forwarded to
// the device. The device is closed before Run returns.
func (b *Bridge) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)
	flushed := make(chan struct{})

	slog.Debug("Bridge started", slog.String("name", b.Name))
	defer slog.Debug("Bridge stopped", slog.String("name", b.Name))

	// Closing the device unblocks the pending read.
	group.Go(func() error {
		<-ctx.Done()
		<-flushed

		return b.Device.Close() //nolint:wrapcheck
	})

	group.Go(func() error {
		return b.toGuest(ctx)
	})

	group.Go(func() error {
		defer close(flushed)
		return b.toHost(ctx)
	})

	err := group.Wait()
	if err != nil {
		return fmt.Errorf("bridge %s: %w", b.Name, err)
	}

	return nil
}

func (b *Bridge) toGuest(ctx context.Context) error {
	frame := make([]byte, b.frameSize())

	for {
		n, err := b.Device.Read(frame)
		if ctx.Err() != nil || errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		_, err = b.Endpoint.Write(frame[:n])
		if errors.Is(err, link.ErrBufferFull) {
			slog.Warn("Drop frame for full device",
				slog.String("name", b.Name),
				slog.Int("size", n))

			continue
		} else if err != nil {
			return fmt.Errorf("forward: %w", err)
		}
	}
}

func (b *Bridge) toHost(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return b.flush()
		case <-b.Endpoint.SubscribeReadReady():
		}

		err := b.flush()
		if err != nil {
			return err
		}
	}
}

// flush writes everything buffered in the endpoint to the device. Each guest
// write is one device write, as the device treats every write as one frame.
func (b *Bridge) flush() error {
	for {
		frame := b.Endpoint.ReadFrame()
		if frame == nil {
			return nil
		}

		if len(frame) > b.frameSize() {
			slog.Warn("Drop oversized frame",
				slog.String("name", b.Name),
				slog.Int("size", len(frame)))

			continue
		}

		_, err := b.Device.Write(frame)
		if err != nil {
			return fmt.Errorf("write: %w", err)
		}
	}
}
