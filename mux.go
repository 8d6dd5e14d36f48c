// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package wfdb

import "fmt"

// Demultiplex splits a flat multiplexed sample stream into n per-channel
// sequences: channel k receives flat[k], flat[k+n], flat[k+2n] and so on.
// The stream length must be an exact multiple of n; a remainder indicates a
// truncated or corrupt signal file.
func Demultiplex(flat []int, n int) ([][]int, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: channel count %d", ErrMalformedData, n)
	}
	if len(flat)%n != 0 {
		return nil, fmt.Errorf("%w: %d samples cannot be distributed across %d channels", ErrMalformedData, len(flat), n)
	}
	channels := make([][]int, n)
	for ch := range channels {
		seq := make([]int, len(flat)/n)
		for i := range seq {
			seq[i] = flat[ch+i*n]
		}
		channels[ch] = seq
	}
	return channels, nil
}

// Interleave weaves equal-length per-channel sequences back into one flat
// multiplexed stream, the exact inverse of Demultiplex.
func Interleave(channels [][]int) ([]int, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("%w: no channels to interleave", ErrMalformedData)
	}
	for ch, seq := range channels {
		if len(seq) != len(channels[0]) {
			return nil, fmt.Errorf("%w: channel %d has %d samples, channel 0 has %d", ErrMalformedData, ch, len(seq), len(channels[0]))
		}
	}
	flat := make([]int, len(channels)*len(channels[0]))
	for ch, seq := range channels {
		for i, s := range seq {
			flat[ch+i*len(channels)] = s
		}
	}
	return flat, nil
}
