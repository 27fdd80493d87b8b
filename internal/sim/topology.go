// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sim

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aibor/sandboxer/internal/device"
	"github.com/aibor/sandboxer/internal/guest"
	"gopkg.in/yaml.v3"
)

// Topology describes a network of computers.
type Topology struct {
	Computers []Computer `yaml:"computers"`
	Links     []Link     `yaml:"links"`
	HostLinks []HostLink `yaml:"hostLinks"`
}

// Computer describes a computer and the guest program it runs.
type Computer struct {
	Name    string   `yaml:"name"`
	Program string   `yaml:"program"`
	Args    []string `yaml:"args"`

	// Image is the path of a cpio archive the storage root is seeded with.
	Image string `yaml:"image"`
}

// Link describes a duplex link between devices of two computers. Each
// computer gets its next device of the family attached.
type Link struct {
	Family device.Family `yaml:"family"`
	A      string        `yaml:"a"`
	B      string        `yaml:"b"`
}

// HostLink describes a device of a computer bridged to a TAP interface of
// the host.
type HostLink struct {
	Computer string        `yaml:"computer"`
	Family   device.Family `yaml:"family"`
	TAP      string        `yaml:"tap"`
}

// DemoTopology returns two computers linked by ethernet. One sends a
// greeting the other one waits for.
func DemoTopology() *Topology {
	return &Topology{
		Computers: []Computer{
			{Name: "receiver", Program: "hello", Args: []string{guest.HelloReceiver}},
			{Name: "sender", Program: "hello", Args: []string{"0"}},
		},
		Links: []Link{
			{Family: device.Ethernet, A: "receiver", B: "sender"},
		},
	}
}

// LoadTopology reads a topology from the YAML file at path.
func LoadTopology(path string) (*Topology, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read topology: %w", err)
	}
	defer file.Close()

	return ParseTopology(file)
}

// ParseTopology parses a YAML topology. Unknown fields are rejected.
func ParseTopology(r io.Reader) (*Topology, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var topology Topology

	err := decoder.Decode(&topology)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse topology: %w", err)
	}

	return &topology, nil
}

// Validate checks that the topology is consistent.
func (t *Topology) Validate() error {
	if len(t.Computers) == 0 {
		return invalid("no computers")
	}

	names := make(map[string]bool, len(t.Computers))

	for idx, c := range t.Computers {
		if c.Name == "" {
			return invalid("computer %d: name is required", idx)
		}

		if names[c.Name] {
			return invalid("computer %q: duplicate name", c.Name)
		}

		names[c.Name] = true

		_, err := guest.Lookup(c.Program)
		if err != nil {
			return invalid("computer %q: %v", c.Name, err)
		}
	}

	for idx, l := range t.Links {
		if !l.Family.Valid() {
			return invalid("link %d: %v", idx, device.ErrUnknownFamily)
		}

		for _, name := range []string{l.A, l.B} {
			if !names[name] {
				return invalid("link %d: unknown computer %q", idx, name)
			}
		}

		if l.A == l.B {
			return invalid("link %d: computer %q linked to itself", idx, l.A)
		}
	}

	taps := make(map[string]bool, len(t.HostLinks))

	for idx, h := range t.HostLinks {
		if !h.Family.Valid() {
			return invalid("host link %d: %v", idx, device.ErrUnknownFamily)
		}

		if !names[h.Computer] {
			return invalid("host link %d: unknown computer %q", idx, h.Computer)
		}

		if h.TAP == "" {
			return invalid("host link %d: tap is required", idx)
		}

		if taps[h.TAP] {
			return invalid("host link %d: duplicate tap %q", idx, h.TAP)
		}

		taps[h.TAP] = true
	}

	return nil
}
