// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package readiness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/aibor/sandboxer/internal/device"
	"golang.org/x/sync/errgroup"
)

const (
	// ModuleName is the name of the host module exporting the host call.
	ModuleName = "event"
	// FunctionName is the name of the host call.
	FunctionName = "wait_until_ready"
)

// errReady stops the remaining waits once one of them is satisfied.
var errReady = errors.New("ready")

// target is an interest with its resolved device.
type target struct {
	interest Interest
	family   device.Family
	index    int
	managed  bool
}

// Host serves the readiness host call for the guest of one computer.
type Host struct {
	registry *device.Registry
	resolver Resolver
}

// NewHost creates a new [Host] for the devices of registry and the
// descriptors known to resolver.
func NewHost(registry *device.Registry, resolver Resolver) *Host {
	return &Host{
		registry: registry,
		resolver: resolver,
	}
}

// Call is the raw host call. The stack holds the interest array address, the
// ready array address and the element count, in this order. The number of
// ready records written is returned in the first stack word.
func (h *Host) Call(ctx context.Context, mem Memory, stack []uint64) error {
	if len(stack) < 3 {
		return fmt.Errorf("%w: %d arguments", ErrContractViolation, len(stack))
	}

	for _, arg := range stack[:3] {
		if arg > math.MaxUint32 {
			return fmt.Errorf("%w: argument %#x", ErrMemoryAccess, arg)
		}
	}

	count := uint32(stack[2])

	n, err := h.WaitUntilReady(ctx, mem, Request{
		Interests:     uint32(stack[0]),
		InterestCount: count,
		Ready:         uint32(stack[1]),
		ReadyCount:    count,
	})
	if err != nil {
		return err
	}

	stack[0] = uint64(n)

	return nil
}

// WaitUntilReady blocks until at least one of the requested interests is
// ready and writes all interests ready at that time into the ready array. It
// returns the number of records written. Records are written in the order of
// the interests, starting at the beginning of the ready array. Records behind
// are not touched.
//
// Any failure to resolve a descriptor aborts the whole call. Waiting is
// aborted if ctx is canceled.
func (h *Host) WaitUntilReady(
	ctx context.Context,
	mem Memory,
	req Request,
) (uint32, error) {
	err := req.validate(mem)
	if err != nil {
		return 0, err
	}

	if req.InterestCount == 0 {
		return 0, nil
	}

	b, ok := mem.Read(req.Interests, req.interestBytes())
	if !ok {
		return 0, fmt.Errorf("%w: read interests", ErrMemoryAccess)
	}

	targets, err := h.resolve(DecodeInterests(b))
	if err != nil {
		return 0, err
	}

	slog.Debug("Wait until ready", slog.Int("interests", len(targets)))

	var ready []Interest

	for len(ready) == 0 {
		err := h.wait(ctx, targets)
		if err != nil {
			return 0, err
		}

		// The data that woke us may have been consumed already, so wait
		// again if nothing is ready anymore.
		ready, err = h.scan(targets)
		if err != nil {
			return 0, err
		}
	}

	if !mem.Write(req.Ready, EncodeInterests(ready)) {
		return 0, fmt.Errorf("%w: write ready", ErrMemoryAccess)
	}

	slog.Debug("Ready", slog.Int("ready", len(ready)))

	return uint32(len(ready)), nil //nolint:gosec
}

func (h *Host) resolve(interests []Interest) ([]target, error) {
	targets := make([]target, 0, len(interests))

	for _, interest := range interests {
		dev, err := h.resolver.DeviceNumber(interest.Descriptor)
		if err != nil {
			return nil, &ResolveError{
				Descriptor: interest.Descriptor,
				Err:        err,
			}
		}

		t := target{interest: interest}
		t.family, t.index, t.managed = device.DecodeNumber(dev)

		if t.managed && !h.registry.Contains(t.family, t.index) {
			return nil, t.unknownDevice()
		}

		targets = append(targets, t)
	}

	return targets, nil
}

// wait blocks until any of the targets is ready for reading.
func (h *Host) wait(ctx context.Context, targets []target) error {
	subscriptions := make([]<-chan struct{}, 0, len(targets))

	for _, t := range targets {
		if !t.managed {
			return nil
		}

		ch, exists := h.registry.WaitUntilReadyForRead(t.family, t.index)
		if !exists {
			return t.unknownDevice()
		}

		subscriptions = append(subscriptions, ch)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	for _, ch := range subscriptions {
		group.Go(func() error {
			select {
			case <-ch:
				return errReady
			case <-groupCtx.Done():
				return groupCtx.Err()
			}
		})
	}

	err := group.Wait()
	if errors.Is(err, errReady) {
		return nil
	}

	return fmt.Errorf("wait: %w", err)
}

// scan returns the interests of all targets that are currently ready.
func (h *Host) scan(targets []target) ([]Interest, error) {
	var ready []Interest

	for _, t := range targets {
		if !t.managed {
			ready = append(ready, t.interest)
			continue
		}

		isReady, exists := h.registry.IsReadyForRead(t.family, t.index)
		if !exists {
			return nil, t.unknownDevice()
		}

		if isReady {
			ready = append(ready, t.interest)
		}
	}

	return ready, nil
}

func (t target) unknownDevice() error {
	return fmt.Errorf("%w: %s%d (descriptor %d)",
		ErrUnknownDevice, t.family, t.index, t.interest.Descriptor)
}
