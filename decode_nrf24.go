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
	"github.com/sirupsen/logrus"

	"hz.tools/nrfbtle/nrf24"
)

const (
	// Bit offsets of the NRF24 fields, counted from the start of the
	// preamble.
	nrf24AddressBit = 8
	nrf24PCFBit     = 48
	nrf24PayloadBit = nrf24PCFBit + nrf24.PCFBits
)

// decodeNRF24 pulls an Enhanced ShockBurst packet with a 5 byte address and
// a 2 byte CRC out of the history.
func (d *Decoder) decodeNRF24() (Packet, bool) {
	var tmp [nrf24.AddressSize]byte

	d.extractBytes(nrf24AddressBit, tmp[:])
	var address uint64
	for _, b := range tmp {
		address = address<<8 | uint64(b)
	}

	// The PCF is the top 9 bits of the next 2 bytes.
	d.extractBytes(nrf24PCFBit, tmp[:2])
	pcf := nrf24.PCF(uint16(tmp[0])<<8|uint16(tmp[1])) >> 7

	length := pcf.Length()
	if d.cfg.FixedLength > 0 {
		length = d.cfg.FixedLength
	}
	if length > nrf24.MaxPayload {
		d.stats.Oversize++
		d.reject("nrf24 payload too long", logrus.Fields{
			"address": address,
			"length":  length,
		})
		return Packet{}, false
	}

	payload := d.pdu[:length]
	d.extractBytes(nrf24PayloadBit, payload)

	packed := nrf24.AppendPacked(d.packed[:0], address, pcf, payload)
	calculated := nrf24.CRC(packed)

	d.extractBytes(nrf24PayloadBit+length*8, tmp[:2])
	crc := uint16(tmp[0])<<8 | uint16(tmp[1])
	if crc != calculated {
		d.stats.CRCErrors++
		d.reject("nrf24 crc mismatch", logrus.Fields{
			"address":    address,
			"length":     length,
			"crc":        crc,
			"calculated": calculated,
		})
		return Packet{}, false
	}

	return Packet{
		Address: address,
		Length:  length,
		PID:     pcf.PID(),
		NoAck:   pcf.NoAck(),
		CRC:     uint32(crc),
		Data:    append([]byte(nil), payload...),
	}, true
}

// vim: foldmethod=marker
