// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ips2550

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
)

// Channel identifies one of the device's analog outputs.
type Channel int

const (
	ChannelRX1 Channel = iota
	ChannelRX2
	ChannelRef
)

func (c Channel) String() string {
	switch c {
	case ChannelRX1:
		return "RX1"
	case ChannelRX2:
		return "RX2"
	case ChannelRef:
		return "REF"
	}
	return fmt.Sprintf("Channel(%d)", int(c))
}

// AnalogOpts holds the conversion constants for the host ADC.
type AnalogOpts struct {
	// Reference is the potential a full-scale sample corresponds to,
	// normally the converter's reference voltage. Leave 0 to use 3.3V.
	Reference physic.ElectricPotential
	// FullScale is the raw count of a full-scale sample. Leave 0 to use
	// 65535, a 16-bit converter.
	FullScale int32
}

// DefaultAnalogOpts holds the default conversion constants.
var DefaultAnalogOpts = AnalogOpts{
	Reference: 3300 * physic.MilliVolt,
	FullScale: 65535,
}

// AnalogReader samples the device's RX1/RX2/REF outputs through host
// supplied ADC pins. Sampling causes no I²C traffic.
//
// The outputs only carry a meaningful signal once the device is in
// single-ended output mode; the reader does not check this, a
// differential-mode reading is meaningless but not an error.
type AnalogReader struct {
	rx1, rx2, ref analog.PinADC
	opts          AnalogOpts
}

// NewAnalogReader returns a reader for the three analog outputs. opts can
// be nil for defaults.
func NewAnalogReader(rx1, rx2, ref analog.PinADC, opts *AnalogOpts) (*AnalogReader, error) {
	if rx1 == nil || rx2 == nil || ref == nil {
		return nil, errors.New("ips2550: rx1, rx2 and ref pins are all required")
	}
	if opts == nil {
		opts = &DefaultAnalogOpts
	}
	a := &AnalogReader{rx1: rx1, rx2: rx2, ref: ref, opts: *opts}
	if a.opts.Reference <= 0 {
		a.opts.Reference = DefaultAnalogOpts.Reference
	}
	if a.opts.FullScale <= 0 {
		a.opts.FullScale = DefaultAnalogOpts.FullScale
	}
	return a, nil
}

// ReadRaw returns one unconverted sample of ch.
func (a *AnalogReader) ReadRaw(ch Channel) (int32, error) {
	p, err := a.pin(ch)
	if err != nil {
		return 0, err
	}
	return a.sample(p)
}

// ReadVolts returns one sample of ch scaled against the configured
// reference. A full-scale count maps to exactly the reference potential, a
// zero count to 0.
func (a *AnalogReader) ReadVolts(ch Channel) (physic.ElectricPotential, error) {
	p, err := a.pin(ch)
	if err != nil {
		return 0, err
	}
	return a.volts(p)
}

// RX1 returns the RX1 amplitude relative to the REF output.
func (a *AnalogReader) RX1() (physic.ElectricPotential, error) {
	return a.relative(a.rx1)
}

// RX2 returns the RX2 amplitude relative to the REF output.
func (a *AnalogReader) RX2() (physic.ElectricPotential, error) {
	return a.relative(a.rx2)
}

func (a *AnalogReader) pin(ch Channel) (analog.PinADC, error) {
	switch ch {
	case ChannelRX1:
		return a.rx1, nil
	case ChannelRX2:
		return a.rx2, nil
	case ChannelRef:
		return a.ref, nil
	}
	return nil, ErrUnknownChannel
}

func (a *AnalogReader) sample(p analog.PinADC) (int32, error) {
	s, err := p.Read()
	if err != nil {
		return 0, fmt.Errorf("ips2550: %w", err)
	}
	return s.Raw, nil
}

func (a *AnalogReader) volts(p analog.PinADC) (physic.ElectricPotential, error) {
	raw, err := a.sample(p)
	if err != nil {
		return 0, err
	}
	return physic.ElectricPotential(int64(a.opts.Reference) * int64(raw) / int64(a.opts.FullScale)), nil
}

func (a *AnalogReader) relative(p analog.PinADC) (physic.ElectricPotential, error) {
	v, err := a.volts(p)
	if err != nil {
		return 0, err
	}
	ref, err := a.volts(a.ref)
	if err != nil {
		return 0, err
	}
	return v - ref, nil
}
