// {{{ Copyright (c) Paul R. Tagliamonte <paul@k3xec.com>, 2022
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE. }}}

// Package btle implements the Bluetooth Low Energy link layer primitives
// needed to validate a packet pulled off the air: the data whitening LFSR,
// the 24 bit CRC, and the advertising channel constants.
//
// All functions here operate on bytes as they come out of the bit
// extractor, which reads the over-the-air bits most significant bit first.
// Since BTLE transmits least significant bit first, those bytes are the bit
// reversal of the values Bluetooth documents and tools use.
package btle

import (
	"fmt"
	"math/bits"

	"hz.tools/rf"
)

const (
	// AdvertisingAccessAddress is the access address used by every packet
	// sent on the advertising channels.
	AdvertisingAccessAddress uint32 = 0x8E89BED6

	// AdvertisingChannel is the channel index the receiver is expected to
	// be tuned to, and the index whitening is keyed with by default.
	AdvertisingChannel uint8 = 38

	// MaxChannel is the largest valid BTLE channel index.
	MaxChannel uint8 = 39

	// HeaderSize is the size of the PDU header in bytes.
	HeaderSize = 2

	// CRCSize is the size of the trailing CRC in bytes.
	CRCSize = 3

	// LengthMask selects the payload length bits from the second header
	// byte.
	LengthMask = 0x3F
)

var (
	// AdvertisingCRCInit is the CRC-24 initial state for advertising
	// channel packets.
	AdvertisingCRCInit = [3]byte{0x55, 0x55, 0x55}
)

// Whiten will XOR the data in place with the whitening sequence for the
// provided channel index. Whitening is its own inverse, so the same call
// both whitens and dewhitens.
func Whiten(data []byte, channel uint8) {
	lfsr := bits.Reverse8(channel) | 0x02
	for i := range data {
		for mask := byte(0x80); mask != 0; mask >>= 1 {
			if lfsr&0x80 != 0 {
				lfsr ^= 0x11
				data[i] ^= mask
			}
			lfsr <<= 1
		}
	}
}

// CRC will compute the BTLE CRC-24 of data, starting from the provided
// initial state. The result is the three state bytes, big-endian, which is
// how the CRC appears after the PDU in extracted bytes.
func CRC(data []byte, seed [3]byte) uint32 {
	state := seed
	for _, b := range data {
		d := bits.Reverse8(b)
		for i := 0; i < 8; i++ {
			carry := state[0] >> 7

			state[0] <<= 1
			if state[1]&0x80 != 0 {
				state[0] |= 1
			}
			state[1] <<= 1
			if state[2]&0x80 != 0 {
				state[1] |= 1
			}
			state[2] <<= 1

			if carry != d&1 {
				state[2] ^= 0x5B
				state[1] ^= 0x06
			}
			d >>= 1
		}
	}
	return uint32(state[0])<<16 | uint32(state[1])<<8 | uint32(state[2])
}

// ChannelFrequency will return the center frequency of the BTLE channel
// index. Indexes 37, 38 and 39 are the advertising channels, which sit at
// the bottom, middle and top of the band.
func ChannelFrequency(channel uint8) (rf.Hz, error) {
	var mhz int
	switch {
	case channel == 37:
		mhz = 2402
	case channel == 38:
		mhz = 2426
	case channel == 39:
		mhz = 2480
	case channel <= 10:
		mhz = 2404 + 2*int(channel)
	case channel <= 36:
		mhz = 2428 + 2*(int(channel)-11)
	default:
		return 0, fmt.Errorf("btle: channel %d out of range", channel)
	}
	return rf.Hz(mhz) * rf.MHz, nil
}

// vim: foldmethod=marker
