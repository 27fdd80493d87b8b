// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package computer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aibor/sandboxer/internal/device"
	"github.com/aibor/sandboxer/internal/link"
	"github.com/google/uuid"
)

const (
	dirMode = 0o755

	// HomeDir is the guest path of the user's home directory.
	HomeDir = "home/user"
)

// Computer is a single sandboxed computer.
type Computer struct {
	id       uuid.UUID
	rootDir  string
	registry *device.Registry
}

// Create creates a new computer with a random identity. Its storage root is
// created in baseDir, named by the identity.
func Create(baseDir string) (*Computer, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("generate id: %w", err)
	}

	rootDir, err := filepath.Abs(filepath.Join(baseDir, id.String()))
	if err != nil {
		return nil, fmt.Errorf("root dir: %w", err)
	}

	err = os.MkdirAll(filepath.Join(rootDir, HomeDir), dirMode)
	if err != nil {
		return nil, fmt.Errorf("create storage: %w", err)
	}

	slog.Debug("Computer created",
		slog.String("id", id.String()),
		slog.String("root", rootDir))

	return &Computer{
		id:       id,
		rootDir:  rootDir,
		registry: device.NewRegistry(),
	}, nil
}

// ID returns the computer's identity.
func (c *Computer) ID() uuid.UUID {
	return c.id
}

// RootDir returns the host path of the computer's storage root.
func (c *Computer) RootDir() string {
	return c.rootDir
}

// HomeDir returns the host path of the computer's home directory.
func (c *Computer) HomeDir() string {
	return filepath.Join(c.rootDir, HomeDir)
}

// Devices returns the computer's device registry.
func (c *Computer) Devices() *device.Registry {
	return c.registry
}

// Attach attaches the endpoint as next device of the family and returns its
// index.
func (c *Computer) Attach(family device.Family, endpoint link.Endpoint) (int, error) {
	index, err := c.registry.Attach(family, endpoint)
	if err != nil {
		return 0, fmt.Errorf("computer %s: %w", c.id, err)
	}

	return index, nil
}

// OpenRoot opens the storage root. Access through it can not escape the
// storage root.
func (c *Computer) OpenRoot() (*os.Root, error) {
	root, err := os.OpenRoot(c.rootDir)
	if err != nil {
		return nil, fmt.Errorf("open root: %w", err)
	}

	return root, nil
}

// Remove removes the computer's storage.
func (c *Computer) Remove() error {
	err := os.RemoveAll(c.rootDir)
	if err != nil {
		return fmt.Errorf("remove storage: %w", err)
	}

	return nil
}
