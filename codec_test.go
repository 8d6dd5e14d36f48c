// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package wfdb_test

import (
	"fmt"
	"testing"

	"github.com/OpenPSG/wfdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var oneSignal = []wfdb.Signal{{FileName: "test.dat"}}

func TestDecodeFormat16(t *testing.T) {
	samples, err := wfdb.Decode(wfdb.Format16, []byte{1, 2, 3, 4}, oneSignal)
	require.NoError(t, err)
	assert.Equal(t, []int{513, 1027}, samples)

	data, err := wfdb.Encode(wfdb.Format16, []int{513, 1027}, oneSignal)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)
}

func TestDecodeFormat80(t *testing.T) {
	samples, err := wfdb.Decode(wfdb.Format80, []byte{0, 128, 255}, oneSignal)
	require.NoError(t, err)
	assert.Equal(t, []int{-128, 0, 127}, samples)
}

func TestDecodeFormat212(t *testing.T) {
	samples, err := wfdb.Decode(wfdb.Format212, []byte{244, 15, 78}, oneSignal)
	require.NoError(t, err)
	assert.Equal(t, []int{-12, 78}, samples)

	data, err := wfdb.Encode(wfdb.Format212, []int{-12, 78}, oneSignal)
	require.NoError(t, err)
	assert.Equal(t, []byte{244, 15, 78}, data)
}

func TestDecodeFormat310(t *testing.T) {
	samples, err := wfdb.Decode(wfdb.Format310, []byte{246, 223, 0, 248}, oneSignal)
	require.NoError(t, err)
	assert.Equal(t, []int{-5, 0, -5}, samples)
}

func TestDecodeFormat311(t *testing.T) {
	samples, err := wfdb.Decode(wfdb.Format311, []byte{1, 2, 3, 4}, oneSignal)
	require.NoError(t, err)
	assert.Equal(t, []int{-511, 192, 64}, samples)

	data, err := wfdb.Encode(wfdb.Format311, []int{-511, 192, 64}, oneSignal)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)
}

func TestDecodeSignExtension(t *testing.T) {
	for _, tt := range []struct {
		format wfdb.Format
		data   []byte
		want   int
	}{
		{wfdb.Format16, []byte{0x00, 0x80}, -32768},
		{wfdb.Format16, []byte{0xFF, 0xFF}, -1},
		{wfdb.Format24, []byte{0x00, 0x00, 0x80}, -8388608},
		{wfdb.Format24, []byte{0xFF, 0xFF, 0xFF}, -1},
		{wfdb.Format32, []byte{0x00, 0x00, 0x00, 0x80}, -2147483648},
		{wfdb.Format61, []byte{0x80, 0x00}, -32768},
		{wfdb.Format160, []byte{0x00, 0x00}, -32768},
		{wfdb.Format160, []byte{0xFF, 0xFF}, 32767},
	} {
		t.Run(fmt.Sprintf("format%d", tt.format), func(t *testing.T) {
			samples, err := wfdb.Decode(tt.format, tt.data, oneSignal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, samples[0])
		})
	}
}

// Every lossless format must reproduce the original bytes after a decode
// and re-encode. The buffers for formats 310 and 311 keep their pad bits
// zero, as a compliant encoder writes them.
func TestRoundTripBytes(t *testing.T) {
	for _, tt := range []struct {
		format wfdb.Format
		data   []byte
	}{
		{wfdb.Format16, []byte{1, 2, 253, 254, 0x00, 0x80, 0xFF, 0x7F}},
		{wfdb.Format24, []byte{1, 2, 3, 253, 254, 255}},
		{wfdb.Format32, []byte{1, 2, 3, 4, 252, 253, 254, 255}},
		{wfdb.Format61, []byte{2, 1, 254, 253}},
		{wfdb.Format80, []byte{0, 1, 127, 128, 254, 255}},
		{wfdb.Format160, []byte{1, 2, 253, 254}},
		{wfdb.Format212, []byte{244, 15, 78, 1, 35, 69}},
		{wfdb.Format310, []byte{246, 223, 0, 248, 2, 133, 254, 59}},
		{wfdb.Format311, []byte{1, 2, 3, 4, 255, 255, 255, 0x3F}},
	} {
		t.Run(fmt.Sprintf("format%d", tt.format), func(t *testing.T) {
			samples, err := wfdb.Decode(tt.format, tt.data, oneSignal)
			require.NoError(t, err)
			data, err := wfdb.Encode(tt.format, samples, oneSignal)
			require.NoError(t, err)
			assert.Equal(t, tt.data, data)
		})
	}
}

// Flipping any single payload bit must change exactly one decoded sample,
// by a power of two: the packed formats may not bleed bits across fields.
func TestBitFieldIsolation(t *testing.T) {
	for _, tt := range []struct {
		format wfdb.Format
		size   int
		unused func(byteIdx, bit int) bool
	}{
		{wfdb.Format212, 3, func(int, int) bool { return false }},
		{wfdb.Format310, 4, func(byteIdx, bit int) bool {
			return bit == 0 && (byteIdx == 0 || byteIdx == 2) // discarded pad bits
		}},
		{wfdb.Format311, 4, func(byteIdx, bit int) bool {
			return byteIdx == 3 && bit >= 6 // unused top bits of the word
		}},
	} {
		t.Run(fmt.Sprintf("format%d", tt.format), func(t *testing.T) {
			zero, err := wfdb.Decode(tt.format, make([]byte, tt.size), oneSignal)
			require.NoError(t, err)

			for byteIdx := 0; byteIdx < tt.size; byteIdx++ {
				for bit := 0; bit < 8; bit++ {
					if tt.unused(byteIdx, bit) {
						continue
					}
					data := make([]byte, tt.size)
					data[byteIdx] = 1 << bit

					samples, err := wfdb.Decode(tt.format, data, oneSignal)
					require.NoError(t, err)

					changed := 0
					for i := range samples {
						if samples[i] != zero[i] {
							changed++
							diff := samples[i] - zero[i]
							if diff < 0 {
								diff = -diff
							}
							assert.Zerof(t, diff&(diff-1), "byte %d bit %d: delta %d is not a power of two", byteIdx, bit, diff)
						}
					}
					assert.Equalf(t, 1, changed, "byte %d bit %d changed %d samples", byteIdx, bit, changed)
				}
			}
		})
	}
}

func TestFormat8Decode(t *testing.T) {
	signals := []wfdb.Signal{{FileName: "test.dat", Format: wfdb.Format8, InitialValue: 10}}

	samples, err := wfdb.Decode(wfdb.Format8, []byte{5, 0xFF, 0x80}, signals)
	require.NoError(t, err)
	assert.Equal(t, []int{15, 14, -114}, samples)
}

// First differences are taken against the same channel's previous sample,
// never across channels, even though storage is interleaved.
func TestFormat8PerChannelDifferences(t *testing.T) {
	signals := []wfdb.Signal{
		{FileName: "test.dat", Format: wfdb.Format8, InitialValue: 0},
		{FileName: "test.dat", Format: wfdb.Format8, InitialValue: 100},
	}

	samples, err := wfdb.Decode(wfdb.Format8, []byte{1, 2, 3, 4}, signals)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 102, 4, 106}, samples)

	data, err := wfdb.Encode(wfdb.Format8, samples, signals)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)
}

func TestFormat8RoundTrip(t *testing.T) {
	signals := []wfdb.Signal{{FileName: "test.dat", Format: wfdb.Format8, InitialValue: -3}}
	samples := []int{-3, 2, -5, 100, 102, 0}

	data, err := wfdb.Encode(wfdb.Format8, samples, signals)
	require.NoError(t, err)
	decoded, err := wfdb.Decode(wfdb.Format8, data, signals)
	require.NoError(t, err)
	assert.Equal(t, samples, decoded)
}

// Differences beyond the signed 8-bit range are clamped and the residual
// carried forward, so the decoded signal converges to the true amplitude
// over the following samples.
func TestFormat8ClampCatchUp(t *testing.T) {
	signals := []wfdb.Signal{{FileName: "test.dat", Format: wfdb.Format8, InitialValue: 0}}

	data, err := wfdb.Encode(wfdb.Format8, []int{0, 300, 300, 300}, signals)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 127, 127, 46}, data)

	decoded, err := wfdb.Decode(wfdb.Format8, data, signals)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 127, 254, 300}, decoded)

	data, err = wfdb.Encode(wfdb.Format8, []int{0, -300, -300}, signals)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0x80, 0x80}, data)

	decoded, err = wfdb.Decode(wfdb.Format8, data, signals)
	require.NoError(t, err)
	assert.Equal(t, []int{0, -128, -256}, decoded)
}

func TestFormat8RequiresSignals(t *testing.T) {
	_, err := wfdb.Decode(wfdb.Format8, []byte{1}, nil)
	require.ErrorIs(t, err, wfdb.ErrMalformedData)

	_, err = wfdb.Encode(wfdb.Format8, []int{1}, nil)
	require.ErrorIs(t, err, wfdb.ErrMalformedData)
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := wfdb.Decode(wfdb.Format(17), []byte{1, 2}, oneSignal)
	require.ErrorIs(t, err, wfdb.ErrUnsupportedFormat)

	_, err = wfdb.Encode(wfdb.Format(0), []int{1}, oneSignal)
	require.ErrorIs(t, err, wfdb.ErrUnsupportedFormat)
}

func TestMalformedBufferShape(t *testing.T) {
	for _, tt := range []struct {
		format wfdb.Format
		data   []byte
	}{
		{wfdb.Format16, []byte{1, 2, 3}},
		{wfdb.Format24, []byte{1, 2, 3, 4}},
		{wfdb.Format212, []byte{1, 2, 3, 4}},
		{wfdb.Format310, []byte{1, 2, 3, 4, 5, 6}},
		{wfdb.Format311, []byte{1, 2, 3}},
	} {
		t.Run(fmt.Sprintf("format%d", tt.format), func(t *testing.T) {
			_, err := wfdb.Decode(tt.format, tt.data, oneSignal)
			require.ErrorIs(t, err, wfdb.ErrMalformedData)
		})
	}
}

func TestMalformedSampleShape(t *testing.T) {
	_, err := wfdb.Encode(wfdb.Format212, []int{1, 2, 3}, oneSignal)
	require.ErrorIs(t, err, wfdb.ErrMalformedData)

	_, err = wfdb.Encode(wfdb.Format311, []int{1, 2}, oneSignal)
	require.ErrorIs(t, err, wfdb.ErrMalformedData)
}

func TestDescribe(t *testing.T) {
	d := wfdb.Describe(wfdb.Format212)
	assert.Equal(t, 12, d.BitsPerSample)
	assert.Equal(t, 3, d.BytesPerGroup)
	assert.Equal(t, 2, d.SamplesPerGroup)
	assert.Equal(t, wfdb.BitPacked, d.Class)

	d = wfdb.Describe(wfdb.Format8)
	assert.Equal(t, wfdb.FirstDifference, d.Class)
}
