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
	"fmt"
	"io/fs"
	"time"
)

// Record is a fully decoded single-segment WFDB record: its header and one
// sample sequence per signal, rows in header declaration order.
type Record struct {
	Header  *Header
	Samples [][]int
}

// Duration returns the length of the recording.
func (r *Record) Duration() time.Duration {
	if r.Header.SamplingFrequency == 0 {
		return 0
	}
	return time.Duration(float64(r.Header.SampleCount) / r.Header.SamplingFrequency * float64(time.Second))
}

// ReadRecord reads and decodes the record of the given name from fsys: the
// header from "<name>.hea" and each signal file it references, each read
// exactly once however many signals share it.
func ReadRecord(fsys fs.FS, name string) (*Record, error) {
	f, err := fsys.Open(name + ".hea")
	if err != nil {
		return nil, fmt.Errorf("error opening header: %w", err)
	}
	defer f.Close()

	hdr, err := ParseHeader(f)
	if err != nil {
		return nil, err
	}

	buffers := make(map[string][]byte)
	for _, sig := range hdr.Signals {
		if _, ok := buffers[sig.FileName]; ok {
			continue
		}
		data, err := fs.ReadFile(fsys, sig.FileName)
		if err != nil {
			return nil, fmt.Errorf("error reading signal data: %w", err)
		}
		buffers[sig.FileName] = data
	}

	samples, err := DecodeSignals(hdr.Signals, buffers)
	if err != nil {
		return nil, err
	}

	return &Record{Header: hdr, Samples: samples}, nil
}

// DecodeSignals decodes the sample matrix of a record from the raw contents
// of its signal files, keyed by file name. Signals sharing a file are
// demultiplexed in declaration order; row k of the result always belongs to
// signals[k] regardless of how signals are grouped across files.
func DecodeSignals(signals []Signal, buffers map[string][]byte) ([][]int, error) {
	samples := make([][]int, len(signals))
	for _, g := range groupByFile(signals) {
		data, ok := buffers[g.file]
		if !ok {
			return nil, fmt.Errorf("no data for signal file %q", g.file)
		}
		format, err := g.format(signals)
		if err != nil {
			return nil, err
		}
		flat, err := Decode(format, data, g.members(signals))
		if err != nil {
			return nil, fmt.Errorf("error decoding %q: %w", g.file, err)
		}
		channels, err := Demultiplex(flat, len(g.indices))
		if err != nil {
			return nil, fmt.Errorf("error demultiplexing %q: %w", g.file, err)
		}
		for k, idx := range g.indices {
			samples[idx] = channels[k]
		}
	}
	return samples, nil
}

// EncodeSignals is the inverse of DecodeSignals: it interleaves and encodes
// the per-signal sample matrix into freshly allocated raw signal file
// contents, keyed by file name.
func EncodeSignals(signals []Signal, samples [][]int) (map[string][]byte, error) {
	if len(samples) != len(signals) {
		return nil, fmt.Errorf("%w: %d sample sequences for %d signals", ErrMalformedData, len(samples), len(signals))
	}
	buffers := make(map[string][]byte)
	for _, g := range groupByFile(signals) {
		channels := make([][]int, len(g.indices))
		for k, idx := range g.indices {
			channels[k] = samples[idx]
		}
		flat, err := Interleave(channels)
		if err != nil {
			return nil, fmt.Errorf("error interleaving %q: %w", g.file, err)
		}
		format, err := g.format(signals)
		if err != nil {
			return nil, err
		}
		data, err := Encode(format, flat, g.members(signals))
		if err != nil {
			return nil, fmt.Errorf("error encoding %q: %w", g.file, err)
		}
		buffers[g.file] = data
	}
	return buffers, nil
}

// fileGroup collects the signals stored in one signal file, in header
// declaration order.
type fileGroup struct {
	file    string
	indices []int
}

func (g fileGroup) members(signals []Signal) []Signal {
	members := make([]Signal, len(g.indices))
	for k, idx := range g.indices {
		members[k] = signals[idx]
	}
	return members
}

// format returns the shared format of the group. Signals multiplexed into
// one file must all use the same format; the codecs cannot mix packing
// schemes within a byte stream.
func (g fileGroup) format(signals []Signal) (Format, error) {
	f := signals[g.indices[0]].Format
	for _, idx := range g.indices[1:] {
		if signals[idx].Format != f {
			return 0, fmt.Errorf("signal file %q mixes formats %d and %d", g.file, f, signals[idx].Format)
		}
	}
	return f, nil
}

func groupByFile(signals []Signal) []fileGroup {
	byFile := make(map[string]int)
	var groups []fileGroup
	for i, sig := range signals {
		k, ok := byFile[sig.FileName]
		if !ok {
			k = len(groups)
			byFile[sig.FileName] = k
			groups = append(groups, fileGroup{file: sig.FileName})
		}
		groups[k].indices = append(groups[k].indices, i)
	}
	return groups
}
