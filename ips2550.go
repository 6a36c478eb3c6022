// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ips2550

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// DefaultAddress is the default I²C address of an IPS2550.
const DefaultAddress uint16 = 0x18

var (
	// ErrInvalidValue is returned when a value passed to a setter lies
	// outside the setting's legal domain. No bus traffic has occurred.
	ErrInvalidValue = errors.New("ips2550: value out of range")
	// ErrCRC is returned when a register frame read from the device fails
	// its CRC check.
	ErrCRC = errors.New("ips2550: crc mismatch on register read")
	// ErrDecode is returned when the device holds a bit pattern with no
	// defined meaning, such as a master gain code above the last
	// datasheet-defined code.
	ErrDecode = errors.New("ips2550: reserved bit pattern")
	// ErrUnknownSetting is returned for a Setting outside the table in
	// registers.go.
	ErrUnknownSetting = errors.New("ips2550: unknown setting")
	// ErrUnknownChannel is returned for a Channel the device does not have.
	ErrUnknownChannel = errors.New("ips2550: unknown analog channel")
)

// OutputMode selects how the RX outputs are referenced.
type OutputMode uint16

const (
	// Differential references RX1 and RX2 against each other.
	Differential OutputMode = 0
	// SingleEnded references both outputs against the common REF output.
	// Required for sampling through an AnalogReader.
	SingleEnded OutputMode = 1
)

func (m OutputMode) String() string {
	switch m {
	case Differential:
		return "Differential"
	case SingleEnded:
		return "SingleEnded"
	}
	return fmt.Sprintf("OutputMode(%d)", uint16(m))
}

// SupplyVoltage selects the supply range the device is operated at.
type SupplyVoltage uint16

const (
	Supply3V3 SupplyVoltage = 0
	Supply5V0 SupplyVoltage = 1
)

// Opts holds the configuration options for the device.
type Opts struct {
	// SettleTime is the pause after each configuration bank write. The
	// device needs time to apply a change before it accepts the next one.
	// Leave 0 to use the default of 50ms.
	SettleTime time.Duration
}

// DefaultOpts holds the default configuration options for the device.
var DefaultOpts = Opts{SettleTime: 50 * time.Millisecond}

// Dev is a handle to one IPS2550 on an I²C bus.
//
// Every read and write goes to the bus; no register state is cached, the
// physical device is the sole source of truth. The handle performs no
// internal locking; concurrent callers must serialize access themselves.
type Dev struct {
	d      *i2c.Dev
	settle time.Duration
}

// New returns a handle to the IPS2550 at addr on bus. opts can be nil for
// defaults.
func New(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	if addr > 0x7F {
		return nil, fmt.Errorf("ips2550: invalid i2c address 0x%x", addr)
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	settle := opts.SettleTime
	if settle <= 0 {
		settle = DefaultOpts.SettleTime
	}
	return &Dev{d: &i2c.Dev{Bus: b, Addr: addr}, settle: settle}, nil
}

// ReadRegister returns the 11-bit value of the register at addr after
// verifying the frame CRC. Transport failures propagate without retry;
// retry policy is the caller's concern.
func (d *Dev) ReadRegister(addr uint8) (uint16, error) {
	var buf [2]byte
	if err := d.d.Tx([]byte{addr}, buf[:]); err != nil {
		return 0, fmt.Errorf("ips2550: %w", err)
	}
	frame := uint16(buf[0])<<8 | uint16(buf[1])
	value := frame >> 5
	if crc3(readMessage(value), uint32(frame&0b111)) != 0 {
		return 0, ErrCRC
	}
	return value, nil
}

// writeFlags sits between the value and CRC bits of every write frame.
const writeFlags uint16 = 0b11000

// WriteRegister writes an 11-bit value to the register at addr. It does
// not pause for the device to settle and it does not touch the shadow
// bank; WriteSetting does both.
func (d *Dev) WriteRegister(addr uint8, value uint16) error {
	if value > 0x7FF {
		return ErrInvalidValue
	}
	frame := value<<5 | writeFlags | uint16(crc3(writeMessage(addr, value), 0))
	if err := d.d.Tx([]byte{addr, byte(frame >> 8), byte(frame)}, nil); err != nil {
		return fmt.Errorf("ips2550: %w", err)
	}
	return nil
}

// ReadSetting returns the raw field value of s from its primary register.
func (d *Dev) ReadSetting(s Setting) (uint16, error) {
	if s < 0 || s >= settingCount {
		return 0, ErrUnknownSetting
	}
	f := &settingDescs[s]
	reg, err := d.ReadRegister(f.reg)
	if err != nil {
		return 0, err
	}
	return f.extract(reg), nil
}

// WriteSetting writes value into the bit-field of s and mirrors the write
// into the shadow bank. Each bank register is read, merged and written
// back, so sibling fields packed into the same register keep their current
// value and reserved bits are write-preserved. Values outside the
// setting's legal domain return ErrInvalidValue before any bus traffic.
//
// The read-modify-write is not atomic against a second controller on the
// same bus; single-controller use is assumed.
func (d *Dev) WriteSetting(s Setting, value uint16) error {
	if s < 0 || s >= settingCount {
		return ErrUnknownSetting
	}
	f := &settingDescs[s]
	if value > f.max {
		return ErrInvalidValue
	}
	for _, reg := range [2]uint8{f.reg, f.reg + shadowBankOffset} {
		cur, err := d.ReadRegister(reg)
		if err != nil {
			return err
		}
		if err := d.WriteRegister(reg, cur&^f.mask()|value<<f.shift); err != nil {
			return err
		}
		time.Sleep(d.settle)
	}
	return nil
}

// OutputMode returns the active output mode.
func (d *Dev) OutputMode() (OutputMode, error) {
	v, err := d.ReadSetting(SettingOutputMode)
	return OutputMode(v), err
}

// SetOutputMode selects differential or single-ended RX outputs.
func (d *Dev) SetOutputMode(m OutputMode) error {
	if m != Differential && m != SingleEnded {
		return ErrInvalidValue
	}
	return d.WriteSetting(SettingOutputMode, uint16(m))
}

// SupplyVoltage returns the supply range the device is configured for.
func (d *Dev) SupplyVoltage() (physic.ElectricPotential, error) {
	v, err := d.ReadSetting(SettingSupplyVoltage)
	if err != nil {
		return 0, err
	}
	if SupplyVoltage(v) == Supply5V0 {
		return 5 * physic.Volt, nil
	}
	return 3300 * physic.MilliVolt, nil
}

// SetSupplyVoltage configures the supply range. It must match the actual
// supply the device is powered from.
func (d *Dev) SetSupplyVoltage(v SupplyVoltage) error {
	if v != Supply3V3 && v != Supply5V0 {
		return ErrInvalidValue
	}
	return d.WriteSetting(SettingSupplyVoltage, uint16(v))
}

// AGC reports whether automatic gain control is active. The device stores
// the inverted form; a set bit disables AGC.
func (d *Dev) AGC() (bool, error) {
	v, err := d.ReadSetting(SettingAGCDisabled)
	return v == 0, err
}

// SetAGC enables or disables automatic gain control. With AGC off the
// master gain code is applied as programmed.
func (d *Dev) SetAGC(enabled bool) error {
	var bit uint16
	if !enabled {
		bit = 1
	}
	return d.WriteSetting(SettingAGCDisabled, bit)
}

// MasterGainCode returns the programmed master gain code.
func (d *Dev) MasterGainCode() (uint8, error) {
	v, err := d.ReadSetting(SettingMasterGainCode)
	return uint8(v), err
}

// SetMasterGainCode programs the master gain. Legal codes are
// 0..maxMasterGainCode; see MasterGain for the factor a code selects.
func (d *Dev) SetMasterGainCode(code uint8) error {
	return d.WriteSetting(SettingMasterGainCode, uint16(code))
}

// MasterGain returns the amplification factor selected by the current
// master gain code. A reserved code stored on the device returns ErrDecode.
func (d *Dev) MasterGain() (float64, error) {
	code, err := d.MasterGainCode()
	if err != nil {
		return 0, err
	}
	if int(code) >= len(masterGainFactors) {
		return 0, fmt.Errorf("%w: master gain code %d", ErrDecode, code)
	}
	return masterGainFactors[code], nil
}

// MasterGainBoost reports whether the 2x master gain boost is on.
func (d *Dev) MasterGainBoost() (bool, error) {
	v, err := d.ReadSetting(SettingMasterGainBoost)
	return v == 1, err
}

// SetMasterGainBoost turns the 2x master gain boost on or off.
func (d *Dev) SetMasterGainBoost(on bool) error {
	var bit uint16
	if on {
		bit = 1
	}
	return d.WriteSetting(SettingMasterGainBoost, bit)
}

// FineGain1Code returns the RX1 fine gain code.
func (d *Dev) FineGain1Code() (uint8, error) {
	v, err := d.ReadSetting(SettingFineGain1)
	return uint8(v), err
}

// SetFineGain1Code programs the RX1 fine gain. Legal codes are 0..0x7F.
func (d *Dev) SetFineGain1Code(code uint8) error {
	return d.WriteSetting(SettingFineGain1, uint16(code))
}

// FineGain1 returns the RX1 fine gain multiplier.
func (d *Dev) FineGain1() (float64, error) {
	code, err := d.FineGain1Code()
	return fineGainFactor(code), err
}

// FineGain2Code returns the RX2 fine gain code.
func (d *Dev) FineGain2Code() (uint8, error) {
	v, err := d.ReadSetting(SettingFineGain2)
	return uint8(v), err
}

// SetFineGain2Code programs the RX2 fine gain. Legal codes are 0..0x7F.
func (d *Dev) SetFineGain2Code(code uint8) error {
	return d.WriteSetting(SettingFineGain2, uint16(code))
}

// FineGain2 returns the RX2 fine gain multiplier.
func (d *Dev) FineGain2() (float64, error) {
	code, err := d.FineGain2Code()
	return fineGainFactor(code), err
}

// Offset1 returns the signed RX1 offset code.
func (d *Dev) Offset1() (int, error) {
	v, err := d.ReadSetting(SettingOffset1)
	return decodeOffset(v), err
}

// SetOffset1 programs the RX1 offset compensation. Legal codes are
// -127..127.
func (d *Dev) SetOffset1(code int) error {
	if code < -127 || code > 127 {
		return ErrInvalidValue
	}
	return d.WriteSetting(SettingOffset1, encodeOffset(code))
}

// Offset1Fraction returns the RX1 offset as the fraction of the TX
// amplitude it compensates.
func (d *Dev) Offset1Fraction() (float64, error) {
	code, err := d.Offset1()
	return offsetFraction(code), err
}

// Offset2 returns the signed RX2 offset code.
func (d *Dev) Offset2() (int, error) {
	v, err := d.ReadSetting(SettingOffset2)
	return decodeOffset(v), err
}

// SetOffset2 programs the RX2 offset compensation. Legal codes are
// -127..127.
func (d *Dev) SetOffset2(code int) error {
	if code < -127 || code > 127 {
		return ErrInvalidValue
	}
	return d.WriteSetting(SettingOffset2, encodeOffset(code))
}

// Offset2Fraction returns the RX2 offset as the fraction of the TX
// amplitude it compensates.
func (d *Dev) Offset2Fraction() (float64, error) {
	code, err := d.Offset2()
	return offsetFraction(code), err
}

// CurrentBias returns the TX current bias code.
func (d *Dev) CurrentBias() (uint8, error) {
	v, err := d.ReadSetting(SettingCurrentBias)
	return uint8(v), err
}

// SetCurrentBias programs the TX coil drive current. Legal codes are
// 0..0xFF; see TXCurrentBias for the current a code selects.
func (d *Dev) SetCurrentBias(code uint8) error {
	return d.WriteSetting(SettingCurrentBias, uint16(code))
}

// TXCurrentBias returns the TX coil drive current selected by the current
// bias code.
func (d *Dev) TXCurrentBias() (physic.ElectricCurrent, error) {
	code, err := d.CurrentBias()
	return txBiasCurrent(code), err
}

// TXFrequency returns the transmit oscillator frequency, counted by the
// device in 20kHz steps.
func (d *Dev) TXFrequency() (physic.Frequency, error) {
	v, err := d.ReadRegister(RegTxCount)
	if err != nil {
		return 0, err
	}
	return physic.Frequency(v) * 20 * physic.KiloHertz, nil
}

// Offsets are stored sign-magnitude: bits 0-6 carry the magnitude, a set
// bit 7 marks the offset negative.
func decodeOffset(raw uint16) int {
	code := int(raw & 0x7F)
	if raw&0x80 != 0 {
		return -code
	}
	return code
}

func encodeOffset(code int) uint16 {
	if code < 0 {
		return 0x80 | uint16(-code)
	}
	return uint16(code)
}

// offsetFraction converts a signed offset code to the fraction of the TX
// amplitude it compensates. One step is 0.006% of Vtx.
func offsetFraction(code int) float64 {
	return float64(code) * 4 * 0.0015 / 100
}

// fineGainFactor converts a fine gain code to its multiplier. One step
// adds 0.25%.
func fineGainFactor(code uint8) float64 {
	return 1 + float64(code)*0.125/100*2
}

// txBiasCurrent converts a TX current bias code to the drive current it
// selects. Bits 6-7 pick a 4ⁿ multiplier over a 63-step scale of 31.5µA.
func txBiasCurrent(code uint8) physic.ElectricCurrent {
	mul := uint(code) >> 6
	base := float64(code & 0x3F)
	uA := float64(uint64(1)<<(2*mul)) * 31.5 * base / 63
	return physic.ElectricCurrent(uA * float64(physic.MicroAmpere))
}

// Configuration is a snapshot of the device's analog front end settings.
type Configuration struct {
	SupplyVoltage   physic.ElectricPotential
	OutputMode      OutputMode
	AGC             bool
	MasterGainCode  uint8
	MasterGain      float64
	MasterGainBoost bool
	FineGain1Code   uint8
	FineGain1       float64
	FineGain2Code   uint8
	FineGain2       float64
	Offset1         int
	Offset1Fraction float64
	Offset2         int
	Offset2Fraction float64
	CurrentBiasCode uint8
	TXCurrentBias   physic.ElectricCurrent
	TXFrequency     physic.Frequency
}

// Configuration reads the device's full configuration, one register read
// per configuration register.
func (d *Dev) Configuration() (*Configuration, error) {
	cfg := &Configuration{}

	sys, err := d.ReadRegister(RegSystemConfig)
	if err != nil {
		return nil, err
	}
	cfg.OutputMode = OutputMode(settingDescs[SettingOutputMode].extract(sys))
	cfg.AGC = settingDescs[SettingAGCDisabled].extract(sys) == 0

	if cfg.SupplyVoltage, err = d.SupplyVoltage(); err != nil {
		return nil, err
	}

	gain, err := d.ReadRegister(RegMasterGain)
	if err != nil {
		return nil, err
	}
	cfg.MasterGainCode = uint8(settingDescs[SettingMasterGainCode].extract(gain))
	cfg.MasterGainBoost = settingDescs[SettingMasterGainBoost].extract(gain) == 1
	if int(cfg.MasterGainCode) >= len(masterGainFactors) {
		return nil, fmt.Errorf("%w: master gain code %d", ErrDecode, cfg.MasterGainCode)
	}
	cfg.MasterGain = masterGainFactors[cfg.MasterGainCode]

	if cfg.FineGain1Code, err = d.FineGain1Code(); err != nil {
		return nil, err
	}
	cfg.FineGain1 = fineGainFactor(cfg.FineGain1Code)

	if cfg.Offset1, err = d.Offset1(); err != nil {
		return nil, err
	}
	cfg.Offset1Fraction = offsetFraction(cfg.Offset1)

	if cfg.FineGain2Code, err = d.FineGain2Code(); err != nil {
		return nil, err
	}
	cfg.FineGain2 = fineGainFactor(cfg.FineGain2Code)

	if cfg.Offset2, err = d.Offset2(); err != nil {
		return nil, err
	}
	cfg.Offset2Fraction = offsetFraction(cfg.Offset2)

	if cfg.CurrentBiasCode, err = d.CurrentBias(); err != nil {
		return nil, err
	}
	cfg.TXCurrentBias = txBiasCurrent(cfg.CurrentBiasCode)

	if cfg.TXFrequency, err = d.TXFrequency(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Configuration) String() string {
	return fmt.Sprintf(`{
	SupplyVoltage: %s,
	OutputMode: %s,
	AGC: %t,
	MasterGain: %d (%gx, boost=%t),
	FineGain1: %d (%gx),
	FineGain2: %d (%gx),
	Offset1: %d (%g*Vtx),
	Offset2: %d (%g*Vtx),
	TXCurrentBias: %d (%s),
	TXFrequency: %s
	}`,
		cfg.SupplyVoltage,
		cfg.OutputMode,
		cfg.AGC,
		cfg.MasterGainCode, cfg.MasterGain, cfg.MasterGainBoost,
		cfg.FineGain1Code, cfg.FineGain1,
		cfg.FineGain2Code, cfg.FineGain2,
		cfg.Offset1, cfg.Offset1Fraction,
		cfg.Offset2, cfg.Offset2Fraction,
		cfg.CurrentBiasCode, cfg.TXCurrentBias,
		cfg.TXFrequency)
}

func (d *Dev) String() string {
	return fmt.Sprintf("ips2550: %s", d.d.String())
}

// Halt implements conn.Resource. The device has no shutdown sequence.
func (d *Dev) Halt() error {
	return nil
}

var _ conn.Resource = &Dev{}
