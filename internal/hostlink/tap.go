// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package hostlink

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/vishvananda/netlink"
)

// ErrNoQueue is returned if the kernel did not provide a queue for a newly
// created TAP interface.
var ErrNoQueue = errors.New("no queue")

// TAP is a non-persistent TAP interface of the host. It is removed by the
// kernel once it is closed.
type TAP struct {
	link *netlink.Tuntap
	file *os.File
}

// CreateTAP creates a new TAP interface with the given name and sets it up.
// The name may contain a "%d" template the kernel replaces with the next
// free number. It requires CAP_NET_ADMIN.
func CreateTAP(name string) (*TAP, error) {
	attrs := netlink.NewLinkAttrs()
	attrs.Name = name

	tuntap := &netlink.Tuntap{
		LinkAttrs:  attrs,
		Mode:       netlink.TUNTAP_MODE_TAP,
		Flags:      netlink.TUNTAP_MULTI_QUEUE_DEFAULTS,
		NonPersist: true,
		Queues:     1,
	}

	err := netlink.LinkAdd(tuntap)
	if err != nil {
		return nil, fmt.Errorf("create tap %s: %w", name, err)
	}

	if len(tuntap.Fds) == 0 {
		return nil, fmt.Errorf("create tap %s: %w", name, ErrNoQueue)
	}

	tap := &TAP{
		link: tuntap,
		file: tuntap.Fds[0],
	}

	for _, extra := range tuntap.Fds[1:] {
		_ = extra.Close()
	}

	err = netlink.LinkSetUp(tuntap)
	if err != nil {
		_ = tap.Close()
		return nil, fmt.Errorf("set up tap %s: %w", tap.Name(), err)
	}

	slog.Debug("TAP created", slog.String("name", tap.Name()))

	return tap, nil
}

// Name returns the name of the interface as assigned by the kernel.
func (t *TAP) Name() string {
	return t.link.Name
}

// Read reads a single frame.
func (t *TAP) Read(p []byte) (int, error) {
	return t.file.Read(p) //nolint:wrapcheck
}

// Write writes a single frame.
func (t *TAP) Write(p []byte) (int, error) {
	return t.file.Write(p) //nolint:wrapcheck
}

// Close closes the interface queue which removes the interface.
func (t *TAP) Close() error {
	err := t.file.Close()
	if err != nil {
		return fmt.Errorf("close tap %s: %w", t.Name(), err)
	}

	slog.Debug("TAP closed", slog.String("name", t.Name()))

	return nil
}
