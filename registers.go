// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ips2550

import "fmt"

// Register addresses from the IPS2550 datasheet. The configuration
// registers 0x00..0x07 are mirrored in a shadow bank shadowBankOffset above
// their primary address. Reads use the primary bank; setting writes must
// land in both banks.
const (
	RegSystemConfig uint8 = 0x00 // output mode (bit 1), AGC disable (bit 9)
	RegSupplyConfig uint8 = 0x01 // supply voltage range (bit 0)
	RegMasterGain   uint8 = 0x02 // gain code (bits 0-6), gain boost (bit 7)
	RegFineGain1    uint8 = 0x03 // RX1 fine gain code (bits 0-6)
	RegOffset1      uint8 = 0x04 // RX1 offset magnitude (bits 0-6), sign (bit 7)
	RegFineGain2    uint8 = 0x05 // RX2 fine gain code (bits 0-6)
	RegOffset2      uint8 = 0x06 // RX2 offset magnitude (bits 0-6), sign (bit 7)
	RegCurrentBias  uint8 = 0x07 // TX current bias code (bits 0-7)
	RegTxCount      uint8 = 0x6E // TX oscillator count, read-only

	shadowBankOffset uint8 = 0x40
)

// Setting identifies one configurable bit-field on the device. Each setting
// is bound to a fixed (register, bit offset, width) tuple below so the
// register table can be audited against the datasheet in one place.
type Setting int

const (
	SettingOutputMode Setting = iota
	SettingAGCDisabled
	SettingSupplyVoltage
	SettingMasterGainCode
	SettingMasterGainBoost
	SettingFineGain1
	SettingOffset1
	SettingFineGain2
	SettingOffset2
	SettingCurrentBias
	settingCount
)

type settingDesc struct {
	name  string
	reg   uint8
	shift uint8
	width uint8
	// max is the highest legal value. It is smaller than the field can hold
	// where the datasheet defines fewer codes.
	max uint16
}

var settingDescs = [settingCount]settingDesc{
	SettingOutputMode:      {"OutputMode", RegSystemConfig, 1, 1, 1},
	SettingAGCDisabled:     {"AGCDisabled", RegSystemConfig, 9, 1, 1},
	SettingSupplyVoltage:   {"SupplyVoltage", RegSupplyConfig, 0, 1, 1},
	SettingMasterGainCode:  {"MasterGainCode", RegMasterGain, 0, 7, maxMasterGainCode},
	SettingMasterGainBoost: {"MasterGainBoost", RegMasterGain, 7, 1, 1},
	SettingFineGain1:       {"FineGain1", RegFineGain1, 0, 7, 0x7F},
	SettingOffset1:         {"Offset1", RegOffset1, 0, 8, 0xFF},
	SettingFineGain2:       {"FineGain2", RegFineGain2, 0, 7, 0x7F},
	SettingOffset2:         {"Offset2", RegOffset2, 0, 8, 0xFF},
	SettingCurrentBias:     {"CurrentBias", RegCurrentBias, 0, 8, 0xFF},
}

func (s Setting) String() string {
	if s < 0 || s >= settingCount {
		return fmt.Sprintf("Setting(%d)", int(s))
	}
	return settingDescs[s].name
}

// mask returns the field's bit mask within its register.
func (f *settingDesc) mask() uint16 {
	m := uint16(1)<<f.width - 1
	return m << f.shift
}

// extract returns the field's value from a raw register word.
func (f *settingDesc) extract(reg uint16) uint16 {
	return reg >> f.shift & (uint16(1)<<f.width - 1)
}

const maxMasterGainCode = 95

// masterGainFactors maps a master gain code to the amplification factor it
// selects. Codes above maxMasterGainCode are reserved.
var masterGainFactors = [maxMasterGainCode + 1]float64{
	2.0, 2.1, 2.18, 2.29, 2.38, 2.5, 2.59, 2.72,
	2.83, 2.97, 3.09, 3.24, 3.36, 3.53, 3.67, 3.85,
	4.0, 4.2, 4.36, 4.58, 4.76, 4.99, 5.19, 5.45,
	5.66, 5.94, 6.17, 6.48, 6.73, 7.06, 7.34, 7.7,
	8.0, 8.4, 8.72, 9.16, 9.51, 9.99, 10.38, 10.89,
	11.31, 11.88, 12.34, 12.96, 13.46, 14.13, 14.67, 15.41,
	16.0, 16.8, 17.45, 18.32, 19.02, 19.98, 20.75, 21.79,
	22.62, 23.76, 24.68, 25.91, 26.91, 28.26, 29.34, 30.81,
	32.0, 33.6, 34.9, 36.64, 38.05, 39.95, 41.5, 43.58,
	45.25, 47.51, 49.36, 51.83, 53.82, 56.52, 58.69, 61.62,
	64.0, 67.2, 69.79, 73.28, 76.1, 79.9, 83.01, 87.16,
	90.5, 95.02, 98.72, 103.66, 107.65, 113.03, 117.38, 123.24,
}
