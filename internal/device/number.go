// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package device

// Major is the 12 bit family code in the upper bits of a [Number].
type Major uint16

const (
	// DirectoryMajor identifies the device directory pseudo device.
	DirectoryMajor Major = 511
	// EthernetMajor identifies [Ethernet] devices.
	EthernetMajor Major = 510
	// WirelessMajor identifies [Wireless] devices.
	WirelessMajor Major = 509
)

const (
	minorBits = 20
	majorBits = 12

	// MaxMinor is the highest slot index that can be encoded.
	MaxMinor = 1<<minorBits - 1

	minorMask = MaxMinor
	majorMask = 1<<majorBits - 1
)

// Number encodes a device major and minor: the top 12 bits are the major,
// the low 20 bits the minor.
type Number uint32

// MakeNumber packs major and minor into a [Number]. Bits of minor exceeding
// [MaxMinor] are dropped.
func MakeNumber(major Major, minor uint32) Number {
	return Number(uint32(major&majorMask)<<minorBits | minor&minorMask)
}

// Major returns the family code of n.
func (n Number) Major() Major {
	return Major(uint32(n) >> minorBits & majorMask)
}

// Minor returns the slot index part of n.
func (n Number) Minor() uint32 {
	return uint32(n) & minorMask
}

// Decode returns the family and slot index encoded in n. It returns false for
// majors that do not belong to a device family. Such devices are not managed
// by the device directory.
func (n Number) Decode() (Family, int, bool) {
	var family Family

	switch n.Major() {
	case EthernetMajor:
		family = Ethernet
	case WirelessMajor:
		family = Wireless
	default:
		return 0, 0, false
	}

	return family, int(n.Minor()), true
}

// DecodeNumber decodes a device id as reported by file stats. Only the low 32
// bits are considered.
func DecodeNumber(dev uint64) (Family, int, bool) {
	return Number(uint32(dev)).Decode() //nolint:gosec
}

// Major returns the family code of f.
func (f Family) Major() Major {
	switch f {
	case Ethernet:
		return EthernetMajor
	case Wireless:
		return WirelessMajor
	default:
		return 0
	}
}

// Number returns the device number of the slot with the given index.
func (f Family) Number(index int) Number {
	return MakeNumber(f.Major(), uint32(index)) //nolint:gosec
}
