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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// defaultGain is assumed when a signal line omits its gain field, per the
// WFDB header conventions.
const defaultGain = 200

// ParseHeader parses the textual header (.hea) file of a single-segment
// WFDB record. Blank lines and # comment lines are skipped. The first
// remaining line declares the record; each subsequent line declares one
// signal, with trailing fields optional.
func ParseHeader(r io.Reader) (*Header, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("error parsing header: no record line")
	}

	hdr, err := parseRecordLine(lines[0])
	if err != nil {
		return nil, err
	}

	if len(lines)-1 < hdr.SignalCount {
		return nil, fmt.Errorf("error parsing header: %d signals declared, %d signal lines present", hdr.SignalCount, len(lines)-1)
	}
	hdr.Signals = make([]Signal, hdr.SignalCount)
	for i := range hdr.Signals {
		sig, err := parseSignalLine(lines[1+i])
		if err != nil {
			return nil, fmt.Errorf("error parsing signal %d: %w", i, err)
		}
		hdr.Signals[i] = sig
	}

	return hdr, nil
}

// parseRecordLine parses "name nsig [fs [nsamples [base_time [base_date]]]]".
func parseRecordLine(line string) (*Header, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil, fmt.Errorf("error parsing record line: expected at least a name and signal count, got %q", line)
	}
	if strings.Contains(fields[0], "/") {
		return nil, fmt.Errorf("error parsing record line: multi-segment records are not supported")
	}

	hdr := &Header{Name: fields[0], SamplingFrequency: 250}

	count, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("error parsing signal count: %w", err)
	}
	hdr.SignalCount = count

	if len(fields) > 2 {
		hdr.SamplingFrequency, err = strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("error parsing sampling frequency: %w", err)
		}
	}
	if len(fields) > 3 {
		hdr.SampleCount, err = strconv.Atoi(fields[3])
		if err != nil {
			return nil, fmt.Errorf("error parsing sample count: %w", err)
		}
	}

	// Base time and date, if present, are not needed by the codec layer.
	return hdr, nil
}

// parseSignalLine parses
// "filename format [gain[(baseline)][/units] [adcres [adczero [initval [checksum [blocksize [description]]]]]]]".
func parseSignalLine(line string) (Signal, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Signal{}, fmt.Errorf("expected at least a file name and format, got %q", line)
	}
	sig := Signal{FileName: fields[0], Gain: defaultGain, ADCResolution: 12}

	// The format code may carry xN, :skew or +offset suffixes; only the
	// code itself matters here.
	code := fields[1]
	if i := strings.IndexAny(code, "x:+"); i >= 0 {
		code = code[:i]
	}
	f, err := strconv.Atoi(code)
	if err != nil {
		return Signal{}, fmt.Errorf("error parsing format code: %w", err)
	}
	sig.Format = Format(f)

	baselineSet := false
	if len(fields) > 2 {
		gain := fields[2]
		if i := strings.Index(gain, "/"); i >= 0 {
			sig.Units = gain[i+1:]
			gain = gain[:i]
		}
		if i := strings.Index(gain, "("); i >= 0 {
			end := strings.Index(gain, ")")
			if end < i {
				return Signal{}, fmt.Errorf("error parsing baseline: unbalanced parentheses in %q", fields[2])
			}
			sig.Baseline, err = strconv.Atoi(gain[i+1 : end])
			if err != nil {
				return Signal{}, fmt.Errorf("error parsing baseline: %w", err)
			}
			baselineSet = true
			gain = gain[:i]
		}
		sig.Gain, err = strconv.ParseFloat(gain, 64)
		if err != nil {
			return Signal{}, fmt.Errorf("error parsing gain: %w", err)
		}
	}

	intFields := []struct {
		dst  *int
		name string
	}{
		{&sig.ADCResolution, "adc resolution"},
		{&sig.ADCZero, "adc zero"},
		{&sig.InitialValue, "initial value"},
		{&sig.Checksum, "checksum"},
		{&sig.BlockSize, "block size"},
	}
	for i, f := range intFields {
		if len(fields) <= 3+i {
			break
		}
		*f.dst, err = strconv.Atoi(fields[3+i])
		if err != nil {
			return Signal{}, fmt.Errorf("error parsing %s: %w", f.name, err)
		}
	}
	if len(fields) > 8 {
		sig.Description = strings.Join(fields[8:], " ")
	}

	// Omitted baseline and initial value default to the ADC zero.
	if !baselineSet {
		sig.Baseline = sig.ADCZero
	}
	if len(fields) <= 5 {
		sig.InitialValue = sig.ADCZero
	}

	return sig, nil
}

// WriteTo renders the header in WFDB .hea syntax, mirroring what
// ParseHeader accepts.
func (h *Header) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d %g %d\n", h.Name, len(h.Signals), h.SamplingFrequency, h.SampleCount)
	for _, s := range h.Signals {
		gain := strconv.FormatFloat(s.Gain, 'g', -1, 64)
		if s.Baseline != s.ADCZero {
			gain += fmt.Sprintf("(%d)", s.Baseline)
		}
		if s.Units != "" {
			gain += "/" + s.Units
		}
		fmt.Fprintf(&b, "%s %d %s %d %d %d %d %d", s.FileName, s.Format, gain,
			s.ADCResolution, s.ADCZero, s.InitialValue, s.Checksum, s.BlockSize)
		if s.Description != "" {
			b.WriteByte(' ')
			b.WriteString(s.Description)
		}
		b.WriteByte('\n')
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
