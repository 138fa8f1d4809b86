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

// Package nrf24 implements the Enhanced ShockBurst framing used by the
// Nordic NRF24L01+: the 9 bit packet control field, the CRC-16, and the
// byte realignment that lets the CRC run over whole bytes.
package nrf24

import (
	"fmt"

	"hz.tools/rf"
)

const (
	// AddressSize is the size of the address field in bytes.
	AddressSize = 5

	// PCFBits is the width of the packet control field.
	PCFBits = 9

	// HeaderSize is the size of the packed address and PCF, in bytes.
	HeaderSize = 7

	// MaxPayload is the largest payload an NRF24L01+ will send. Anything
	// claiming to be longer is noise.
	MaxPayload = 32

	// MaxPackedSize bounds the output of AppendPacked.
	MaxPackedSize = 50

	// CRCInit is the CCITT register state after the 7 zero bits of padding
	// AppendPacked puts in front of the 49 bit header have been shifted
	// through an 0xFFFF register.
	CRCInit uint16 = 0x3C18

	// MaxChannel is the highest RF_CH setting.
	MaxChannel uint8 = 125

	// DefaultChannel is the RF_CH reset value.
	DefaultChannel uint8 = 2
)

// PCF is the packet control field: 6 bits of payload length, a 2 bit
// packet id and the no-acknowledge flag, in the low 9 bits.
type PCF uint16

// NewPCF will assemble a PCF from its fields. Values wider than their field
// are truncated.
func NewPCF(length int, pid uint8, noAck bool) PCF {
	pcf := PCF(length&0x3F)<<3 | PCF(pid&0x3)<<1
	if noAck {
		pcf |= 1
	}
	return pcf
}

// Length returns the payload length.
func (p PCF) Length() int {
	return int(p>>3) & 0x3F
}

// PID returns the packet id used to spot retransmissions.
func (p PCF) PID() uint8 {
	return uint8(p>>1) & 0x3
}

// NoAck reports whether the sender asked not to be acknowledged.
func (p PCF) NoAck() bool {
	return p&1 == 1
}

// AppendPacked will append the address and PCF, left padded to 7 bytes,
// followed by the payload. Everything after the padding is bit-for-bit what
// went over the air, so CRC can run over the result one byte at a time.
func AppendPacked(dst []byte, address uint64, pcf PCF, payload []byte) []byte {
	header := address<<PCFBits | uint64(pcf&0x1FF)
	for c := 0; c < HeaderSize; c++ {
		dst = append(dst, byte(header>>((HeaderSize-1-c)*8)))
	}
	return append(dst, payload...)
}

// CRC will compute the CRC-16 of a packed packet.
func CRC(data []byte) uint16 {
	crc := CRCInit
	for _, c := range data {
		for mask := byte(0x80); mask != 0; mask >>= 1 {
			bit := crc&0x8000 != 0
			if c&mask != 0 {
				bit = !bit
			}
			crc <<= 1
			if bit {
				crc ^= 0x1021
			}
		}
	}
	return crc
}

// ChannelFrequency will return the frequency of an RF_CH setting, which
// is 1 MHz per channel up from 2.4 GHz.
func ChannelFrequency(channel uint8) (rf.Hz, error) {
	if channel > MaxChannel {
		return 0, fmt.Errorf("nrf24: channel %d out of range", channel)
	}
	return rf.Hz(2400+int(channel)) * rf.MHz, nil
}

// vim: foldmethod=marker
