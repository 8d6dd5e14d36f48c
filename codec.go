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
	"fmt"
)

// codec converts between the raw contents of a signal file and the flat
// sample stream stored in it, for exactly one storage format. The flat
// stream is still multiplexed: samples appear in file order, round-robin
// across the signals sharing the file. Splitting it per channel is the
// job of Demultiplex.
type codec interface {
	decode(data []byte, signals []Signal) ([]int, error)
	encode(samples []int, signals []Signal) ([]byte, error)
}

func codecFor(f Format) (codec, error) {
	switch f {
	case Format8:
		return format8{}, nil
	case Format16:
		return format16{}, nil
	case Format24:
		return format24{}, nil
	case Format32:
		return format32{}, nil
	case Format61:
		return format61{}, nil
	case Format80:
		return format80{}, nil
	case Format160:
		return format160{}, nil
	case Format212:
		return format212{}, nil
	case Format310:
		return format310{}, nil
	case Format311:
		return format311{}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFormat, f)
	}
}

// Decode converts the raw contents of a signal file into the flat sample
// stream it stores. The signals are those sharing the file, in header order;
// they must all carry the given format. Samples are returned in file order,
// not yet split per channel.
func Decode(f Format, data []byte, signals []Signal) ([]int, error) {
	c, err := codecFor(f)
	if err != nil {
		return nil, err
	}
	if err := checkByteShape(f, len(data)); err != nil {
		return nil, err
	}
	return c.decode(data, signals)
}

// Encode converts a flat sample stream into the raw contents of a signal
// file. It is the inverse of Decode for the lossless formats; for format 8
// encoding is the authoritative direction and decoding reconstructs the
// clamped first-difference trajectory.
func Encode(f Format, samples []int, signals []Signal) ([]byte, error) {
	c, err := codecFor(f)
	if err != nil {
		return nil, err
	}
	if err := checkSampleShape(f, len(samples)); err != nil {
		return nil, err
	}
	return c.encode(samples, signals)
}

func checkByteShape(f Format, n int) error {
	if g := Describe(f).BytesPerGroup; n%g != 0 {
		return fmt.Errorf("%w: %d bytes is not a multiple of the format %d group size %d", ErrMalformedData, n, f, g)
	}
	return nil
}

func checkSampleShape(f Format, n int) error {
	if g := Describe(f).SamplesPerGroup; n%g != 0 {
		return fmt.Errorf("%w: %d samples is not a multiple of the format %d group size %d", ErrMalformedData, n, f, g)
	}
	return nil
}

// format8 stores each sample as an 8-bit first difference from the previous
// sample of the same channel, seeded by the channel's initial value from the
// header. Differences are per channel even though storage is interleaved;
// otherwise channels with baselines 128 or more units apart could not share
// a file.
type format8 struct{}

func seedValues(signals []Signal) ([]int, error) {
	if len(signals) == 0 {
		return nil, fmt.Errorf("%w: format 8 requires at least one signal to seed decoding", ErrMalformedData)
	}
	prev := make([]int, len(signals))
	for i, s := range signals {
		prev[i] = s.InitialValue
	}
	return prev, nil
}

func (format8) decode(data []byte, signals []Signal) ([]int, error) {
	prev, err := seedValues(signals)
	if err != nil {
		return nil, err
	}
	samples := make([]int, len(data))
	for i, b := range data {
		ch := i % len(prev)
		prev[ch] += int(int8(b))
		samples[i] = prev[ch]
	}
	return samples, nil
}

// encode clamps differences that do not fit in a signed byte to -128 or +127
// and advances the running value by the stored difference only, so the
// residual carries into the following differences and the reconstruction
// converges to the true amplitude as quickly as possible. Signals whose
// deltas exceed the 8-bit range are therefore stored lossily.
func (format8) encode(samples []int, signals []Signal) ([]byte, error) {
	prev, err := seedValues(signals)
	if err != nil {
		return nil, err
	}
	data := make([]byte, len(samples))
	for i, s := range samples {
		ch := i % len(prev)
		diff := s - prev[ch]
		if diff > 127 {
			diff = 127
		} else if diff < -128 {
			diff = -128
		}
		data[i] = byte(int8(diff))
		prev[ch] += diff
	}
	return data, nil
}

// format16 stores each sample as a 16-bit two's complement amplitude, least
// significant byte first.
type format16 struct{}

func (format16) decode(data []byte, _ []Signal) ([]int, error) {
	samples := make([]int, len(data)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(data[2*i:])))
	}
	return samples, nil
}

func (format16) encode(samples []int, _ []Signal) ([]byte, error) {
	data := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(s))
	}
	return data, nil
}

// format24 stores each sample as a 24-bit two's complement amplitude, least
// significant byte first.
type format24 struct{}

func (format24) decode(data []byte, _ []Signal) ([]int, error) {
	samples := make([]int, len(data)/3)
	for i := range samples {
		v := int(data[3*i]) | int(data[3*i+1])<<8 | int(data[3*i+2])<<16
		if v > 1<<23-1 {
			v -= 1 << 24
		}
		samples[i] = v
	}
	return samples, nil
}

func (format24) encode(samples []int, _ []Signal) ([]byte, error) {
	data := make([]byte, 3*len(samples))
	for i, s := range samples {
		data[3*i] = byte(s)
		data[3*i+1] = byte(s >> 8)
		data[3*i+2] = byte(s >> 16)
	}
	return data, nil
}

// format32 stores each sample as a 32-bit two's complement amplitude, least
// significant byte first.
type format32 struct{}

func (format32) decode(data []byte, _ []Signal) ([]int, error) {
	samples := make([]int, len(data)/4)
	for i := range samples {
		samples[i] = int(int32(binary.LittleEndian.Uint32(data[4*i:])))
	}
	return samples, nil
}

func (format32) encode(samples []int, _ []Signal) ([]byte, error) {
	data := make([]byte, 4*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(data[4*i:], uint32(s))
	}
	return data, nil
}

// format61 stores each sample as a 16-bit two's complement amplitude, most
// significant byte first.
type format61 struct{}

func (format61) decode(data []byte, _ []Signal) ([]int, error) {
	samples := make([]int, len(data)/2)
	for i := range samples {
		samples[i] = int(int16(binary.BigEndian.Uint16(data[2*i:])))
	}
	return samples, nil
}

func (format61) encode(samples []int, _ []Signal) ([]byte, error) {
	data := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.BigEndian.PutUint16(data[2*i:], uint16(s))
	}
	return data, nil
}

// format80 stores each sample as an 8-bit amplitude in offset binary form;
// subtracting 128 from the unsigned byte recovers the signed amplitude.
type format80 struct{}

func (format80) decode(data []byte, _ []Signal) ([]int, error) {
	samples := make([]int, len(data))
	for i, b := range data {
		samples[i] = int(b) - 128
	}
	return samples, nil
}

func (format80) encode(samples []int, _ []Signal) ([]byte, error) {
	data := make([]byte, len(samples))
	for i, s := range samples {
		data[i] = byte(s + 128)
	}
	return data, nil
}

// format160 stores each sample as a 16-bit amplitude in offset binary form,
// least significant byte first; subtracting 32768 recovers the signed
// amplitude.
type format160 struct{}

func (format160) decode(data []byte, _ []Signal) ([]int, error) {
	samples := make([]int, len(data)/2)
	for i := range samples {
		samples[i] = int(binary.LittleEndian.Uint16(data[2*i:])) - 32768
	}
	return samples, nil
}

func (format160) encode(samples []int, _ []Signal) ([]byte, error) {
	data := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(s+32768))
	}
	return data, nil
}

// format212 packs two 12-bit two's complement amplitudes into three bytes.
// The first sample is the 12 least significant bits of the first byte pair
// (least significant byte first); the second sample is the remaining 4 bits
// of that pair (its high 4 bits) followed by the third byte.
//
// Given the bytes 244 15 78:
//
//	first sample:  [1111|11110100] -> 4084 -> -12
//	second sample: [0000|01001110] -> 78
type format212 struct{}

func (format212) decode(data []byte, _ []Signal) ([]int, error) {
	samples := make([]int, len(data)/3*2)
	for i, j := 0, 0; i < len(data); i, j = i+3, j+2 {
		a := int(data[i+1]&0x0F)<<8 | int(data[i])
		if a > 2047 {
			a -= 4096
		}
		b := int(data[i+1]>>4)<<8 | int(data[i+2])
		if b > 2047 {
			b -= 4096
		}
		samples[j] = a
		samples[j+1] = b
	}
	return samples, nil
}

func (format212) encode(samples []int, _ []Signal) ([]byte, error) {
	data := make([]byte, len(samples)/2*3)
	for i, j := 0, 0; j < len(samples); i, j = i+3, j+2 {
		a := uint16(samples[j]) & 0x0FFF
		b := uint16(samples[j+1]) & 0x0FFF
		data[i] = byte(a)
		data[i+1] = byte(a>>8) | byte(b>>8)<<4
		data[i+2] = byte(b)
	}
	return data, nil
}

// format310 packs three 10-bit two's complement amplitudes into two
// little-endian byte pairs. The first sample is bits 1..10 of the first
// pair (the low bit is discarded), the second sample likewise from the
// second pair, and the third sample is the top 5 bits of each pair, those
// of the first pair forming its low 5 bits. The discarded pad bits are
// written as zero on encode.
type format310 struct{}

func (format310) decode(data []byte, _ []Signal) ([]int, error) {
	samples := make([]int, len(data)/4*3)
	for i, j := 0, 0; i < len(data); i, j = i+4, j+3 {
		a := int(data[i+1]&0x07)<<7 | int(data[i]>>1)
		if a > 511 {
			a -= 1024
		}
		b := int(data[i+3]&0x07)<<7 | int(data[i+2]>>1)
		if b > 511 {
			b -= 1024
		}
		c := int(data[i+3]>>3)<<5 | int(data[i+1]>>3)
		if c > 511 {
			c -= 1024
		}
		samples[j] = a
		samples[j+1] = b
		samples[j+2] = c
	}
	return samples, nil
}

func (format310) encode(samples []int, _ []Signal) ([]byte, error) {
	data := make([]byte, len(samples)/3*4)
	for i, j := 0, 0; j < len(samples); i, j = i+4, j+3 {
		a := uint16(samples[j]) & 0x3FF
		b := uint16(samples[j+1]) & 0x3FF
		c := uint16(samples[j+2]) & 0x3FF
		data[i] = byte(a&0x7F) << 1
		data[i+1] = byte(a>>7) | byte(c&0x1F)<<3
		data[i+2] = byte(b&0x7F) << 1
		data[i+3] = byte(b>>7) | byte(c>>5)<<3
	}
	return data, nil
}

// format311 packs three 10-bit two's complement amplitudes into one
// little-endian 32-bit word: the first sample in bits 0..9, the second in
// bits 10..19, the third in bits 20..29. The top two bits are unused and
// written as zero on encode.
type format311 struct{}

func (format311) decode(data []byte, _ []Signal) ([]int, error) {
	samples := make([]int, len(data)/4*3)
	for i, j := 0, 0; i < len(data); i, j = i+4, j+3 {
		w := binary.LittleEndian.Uint32(data[i:])
		for k := 0; k < 3; k++ {
			v := int(w >> (10 * k) & 0x3FF)
			if v > 511 {
				v -= 1024
			}
			samples[j+k] = v
		}
	}
	return samples, nil
}

func (format311) encode(samples []int, _ []Signal) ([]byte, error) {
	data := make([]byte, len(samples)/3*4)
	for i, j := 0, 0; j < len(samples); i, j = i+4, j+3 {
		w := uint32(samples[j])&0x3FF |
			uint32(samples[j+1])&0x3FF<<10 |
			uint32(samples[j+2])&0x3FF<<20
		binary.LittleEndian.PutUint32(data[i:], w)
	}
	return data, nil
}
