// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ips2550

import "math/bits"

// Register frames carry a 3-bit CRC with polynomial x³ + x + 1. The
// remainder of the message word followed by the received CRC bits is zero
// for an intact frame.
const crcPolynomial = 0b1011

// crc3 returns the CRC-3 remainder of word with filler appended as the low
// three bits.
func crc3(word, filler uint32) uint32 {
	word = word<<3 | filler
	for word>>3 != 0 {
		word ^= crcPolynomial << (bits.Len32(word) - 4)
	}
	return word
}

// readMessage rebuilds the CRC input word for a register value received
// from the device. The value's low three bits sit in the frame positions
// the CRC itself occupies, so they are checked separately from the high
// byte.
func readMessage(value uint16) uint32 {
	return uint32(value)<<5&0xFF00 | uint32(value&0b111)
}

// writeMessage builds the CRC input word for a register write: the
// register address octet followed by the value split around the frame's
// flag bits.
func writeMessage(addr uint8, value uint16) uint32 {
	return uint32(addr&0x7F)<<17 | uint32(value>>3&0xFF)<<8 | uint32(value&0b111)
}
