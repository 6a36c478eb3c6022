// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ips2550 controls a Renesas IPS2550 inductive position sensor
// analog front end over I²C.
//
// The device keeps its configuration in 11-bit registers carried in 16-bit
// frames protected by a 3-bit CRC. Every configuration register is mirrored
// in a shadow bank 0x40 above its primary address; setting writes land in
// both banks.
//
// The demodulated RX1/RX2/REF outputs are analog. When the device is in
// single-ended output mode they can be sampled with the host's ADC through
// an AnalogReader; no I²C traffic is involved in sampling.
//
// # Datasheet
//
// https://www.renesas.com/us/en/document/dst/ips2550-datasheet
package ips2550
