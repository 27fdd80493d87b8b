// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package device

import (
	"errors"
	"fmt"
)

// ErrUnknownFamily is returned if a family name or value is not known.
var ErrUnknownFamily = errors.New("unknown device family")

// Family is the closed set of device families. The zero value is not a
// valid family.
type Family uint8

const (
	Ethernet Family = iota + 1
	Wireless

	maxFamily = Wireless
)

// Families returns all families in listing order.
func Families() []Family {
	return []Family{Ethernet, Wireless}
}

// String returns the family name as used in device paths.
func (f Family) String() string {
	switch f {
	case Ethernet:
		return "ethernet"
	case Wireless:
		return "wireless"
	default:
		return fmt.Sprintf("family(%d)", uint8(f))
	}
}

// Valid reports whether f is one of the known families.
func (f Family) Valid() bool {
	return f >= Ethernet && f <= maxFamily
}

// MarshalText implements [encoding.TextMarshaler].
func (f Family) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFamily, uint8(f))
	}

	return []byte(f.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (f *Family) UnmarshalText(text []byte) error {
	family, err := ParseFamily(string(text))
	if err != nil {
		return err
	}

	*f = family

	return nil
}

// ParseFamily returns the family with the given name.
func ParseFamily(name string) (Family, error) {
	for _, family := range Families() {
		if family.String() == name {
			return family, nil
		}
	}

	return 0, fmt.Errorf("%w: %s", ErrUnknownFamily, name)
}
