// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package wfdb

import (
	"encoding/binary"
	"errors"
)

// Format identifies one of the WFDB signal storage formats.
type Format int

const (
	Format8   Format = 8   // 8-bit first differences
	Format16  Format = 16  // 16-bit two's complement, little-endian
	Format24  Format = 24  // 24-bit two's complement, little-endian
	Format32  Format = 32  // 32-bit two's complement, little-endian
	Format61  Format = 61  // 16-bit two's complement, big-endian
	Format80  Format = 80  // 8-bit offset binary
	Format160 Format = 160 // 16-bit offset binary, little-endian
	Format212 Format = 212 // 12-bit two's complement, packed 2 samples per 3 bytes
	Format310 Format = 310 // 10-bit two's complement, packed 3 samples per 4 bytes
	Format311 Format = 311 // 10-bit two's complement, packed 3 samples per 4 bytes
)

// Class describes how a format represents sample amplitudes.
type Class int

const (
	TwosComplement Class = iota
	OffsetBinary
	BitPacked
	FirstDifference
)

// Descriptor holds the packing geometry of a signal format. Sample data is
// always decoded and encoded in whole groups of BytesPerGroup bytes carrying
// SamplesPerGroup samples.
type Descriptor struct {
	BitsPerSample   int
	BytesPerGroup   int
	SamplesPerGroup int
	ByteOrder       binary.ByteOrder
	Class           Class
}

var descriptors = map[Format]Descriptor{
	Format8:   {8, 1, 1, binary.LittleEndian, FirstDifference},
	Format16:  {16, 2, 1, binary.LittleEndian, TwosComplement},
	Format24:  {24, 3, 1, binary.LittleEndian, TwosComplement},
	Format32:  {32, 4, 1, binary.LittleEndian, TwosComplement},
	Format61:  {16, 2, 1, binary.BigEndian, TwosComplement},
	Format80:  {8, 1, 1, binary.LittleEndian, OffsetBinary},
	Format160: {16, 2, 1, binary.LittleEndian, OffsetBinary},
	Format212: {12, 3, 2, binary.LittleEndian, BitPacked},
	Format310: {10, 4, 3, binary.LittleEndian, BitPacked},
	Format311: {10, 4, 3, binary.LittleEndian, BitPacked},
}

// Describe returns the packing geometry of a format. It is total over the
// Format constants above; unknown codes are rejected by Decode and Encode
// before geometry is ever consulted.
func Describe(f Format) Descriptor {
	return descriptors[f]
}

var (
	// ErrUnsupportedFormat is returned for format codes outside the
	// descriptor table.
	ErrUnsupportedFormat = errors.New("unsupported signal format")

	// ErrMalformedData is returned when a byte buffer or sample sequence
	// does not divide evenly into the expected group or channel geometry.
	ErrMalformedData = errors.New("malformed signal data")
)

// Signal holds the per-channel metadata declared in a record header. The
// codec layer reads only FileName, Format and InitialValue; the calibration
// fields are carried through for consumers converting to physical units.
type Signal struct {
	FileName      string  // Name of the file holding this signal's samples
	Format        Format  // Storage format of the samples
	Gain          float64 // ADC units per physical unit
	Baseline      int     // Sample value corresponding to 0 physical units
	Units         string  // Physical units (e.g. mV)
	ADCResolution int     // ADC resolution in bits
	ADCZero       int     // Sample value at the middle of the ADC range
	InitialValue  int     // Value of sample 0, seeds format 8 decoding
	Checksum      int     // 16-bit checksum of all samples
	BlockSize     int     // I/O block size, 0 if unused
	Description   string  // Human-readable signal description
}

// Header holds the metadata of a single-segment WFDB record.
type Header struct {
	Name              string   // Record name
	SignalCount       int      // Number of signals
	SamplingFrequency float64  // Samples per signal per second
	SampleCount       int      // Number of samples per signal
	Signals           []Signal // Per-signal metadata, in declaration order
}
