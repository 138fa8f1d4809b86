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

package nrfbtle

import (
	"math/bits"

	"github.com/sirupsen/logrus"

	"hz.tools/nrfbtle/btle"
)

const (
	// Bit offsets of the BTLE fields, counted from the start of the
	// preamble.
	btleAddressBit = 8
	btleHeaderBit  = 40
)

// decodeBTLE pulls an advertising channel packet out of the history. Only
// the advertising access address is understood; anything else is read with
// a zero length and an all zero CRC seed, which doesn't validate.
func (d *Decoder) decodeBTLE() (Packet, bool) {
	var address uint32
	for c := 0; c < 4; c++ {
		b := bits.Reverse8(d.extractByte(btleAddressBit + c*8))
		address |= uint32(b) << (8 * c)
	}

	// Dewhiten just the header to find out how long the PDU is.
	var header [btle.HeaderSize]byte
	d.extractBytes(btleHeaderBit, header[:])
	btle.Whiten(header[:], d.cfg.Channel)

	var (
		length int
		seed   [3]byte
	)
	if address == btle.AdvertisingAccessAddress {
		length = int(bits.Reverse8(header[1]) & btle.LengthMask)
		seed = btle.AdvertisingCRCInit
	}

	// Then the whole thing, header included, so the whitening sequence
	// lines up with the start of the PDU.
	pdu := d.pdu[:length+btle.HeaderSize+btle.CRCSize]
	d.extractBytes(btleHeaderBit, pdu)
	btle.Whiten(pdu, d.cfg.Channel)

	body := pdu[:length+btle.HeaderSize]
	tail := pdu[length+btle.HeaderSize:]
	crc := uint32(tail[0])<<16 | uint32(tail[1])<<8 | uint32(tail[2])
	calculated := btle.CRC(body, seed)
	if crc != calculated {
		d.stats.CRCErrors++
		d.reject("btle crc mismatch", logrus.Fields{
			"address":    address,
			"length":     length,
			"crc":        crc,
			"calculated": calculated,
		})
		return Packet{}, false
	}

	data := make([]byte, len(body))
	for i, b := range body {
		data[i] = bits.Reverse8(b)
	}

	return Packet{
		Address: uint64(address),
		Length:  length,
		CRC:     crc,
		Data:    data,
	}, true
}

// vim: foldmethod=marker
