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
	"io"
	"math/bits"
	"testing"

	"hz.tools/nrfbtle/btle"
	"hz.tools/nrfbtle/nrf24"
)

const (
	high int16 = 1000
	low  int16 = -1000
)

func level(bit bool) int16 {
	if bit {
		return high
	}
	return low
}

// bitsOf expands bytes into bits, most significant first.
func bitsOf(data ...byte) []bool {
	out := make([]bool, 0, len(data)*8)
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			out = append(out, (b>>i)&1 == 1)
		}
	}
	return out
}

// withPreamble prefixes 8 alternating bits that lead into the first bit of
// the packet, as a transmitter picks 0x55 or 0xAA.
func withPreamble(packet []bool) []bool {
	out := make([]bool, 8, 8+len(packet))
	for i := range out {
		out[i] = (i%2 == 1) != packet[0]
	}
	return append(out, packet...)
}

// nrf24Frame builds the bits of an NRF24 packet, preamble first, with the
// CRC filled in.
func nrf24Frame(address uint64, pcf nrf24.PCF, payload []byte) []bool {
	crc := nrf24.CRC(nrf24.AppendPacked(nil, address, pcf, payload))
	return nrf24FrameWithCRC(address, pcf, payload, crc)
}

func nrf24FrameWithCRC(address uint64, pcf nrf24.PCF, payload []byte, crc uint16) []bool {
	var out []bool
	for i := 39; i >= 0; i-- {
		out = append(out, (address>>i)&1 == 1)
	}
	for i := nrf24.PCFBits - 1; i >= 0; i-- {
		out = append(out, (pcf>>i)&1 == 1)
	}
	out = append(out, bitsOf(payload...)...)
	out = append(out, bitsOf(byte(crc>>8), byte(crc))...)
	return withPreamble(out)
}

// btleFrame builds the bits of a BTLE packet, preamble first. pdu is the
// header and payload with the usual Bluetooth bit numbering (LSB sent first).
func btleFrame(address uint32, pdu []byte, seed [3]byte, channel uint8) []bool {
	body := make([]byte, len(pdu))
	for i, b := range pdu {
		body[i] = bits.Reverse8(b)
	}
	crc := btle.CRC(body, seed)
	body = append(body, byte(crc>>16), byte(crc>>8), byte(crc))
	btle.Whiten(body, channel)

	var air []byte
	for c := 0; c < 4; c++ {
		air = append(air, bits.Reverse8(byte(address>>(8*c))))
	}
	air = append(air, body...)
	return withPreamble(bitsOf(air...))
}

// load fills the Decoder history so that bit i of the quantized window is
// frame[i], the way a full buffer looks once a packet has scrolled into
// position.
func load(t *testing.T, d *Decoder, frame []bool) {
	t.Helper()

	size := d.buf.Cap()
	if (len(frame)-1)*d.spb >= size {
		t.Fatalf("frame of %d bits does not fit in %d samples", len(frame), size)
	}

	samples := make([]int16, size)
	for i := 1; i < len(frame); i++ {
		for k := (i - 1) * d.spb; k < i*d.spb; k++ {
			samples[k] = level(frame[i])
		}
	}
	samples[size-1] = level(frame[0])

	for _, s := range samples {
		d.Push(s)
	}
}

// stream renders frame as a chronological sample stream: lead samples of
// silence, spb samples per bit, then enough idle carrier to push the packet
// back through the whole buffer.
func stream(d *Decoder, frame []bool, lead int) []int16 {
	var out []int16
	for i := 0; i < lead; i++ {
		out = append(out, 0)
	}
	for _, bit := range frame {
		for k := 0; k < d.spb; k++ {
			out = append(out, level(bit))
		}
	}
	for i := 0; i < d.buf.Cap()+d.spb; i++ {
		out = append(out, level(frame[0]))
	}
	return out
}

type sliceSource struct {
	samples []int16
	pos     int
}

func (s *sliceSource) Next() (int16, error) {
	if s.pos >= len(s.samples) {
		return 0, io.EOF
	}
	v := s.samples[s.pos]
	s.pos++
	return v, nil
}

func newTestDecoder(t *testing.T, cfg Config) *Decoder {
	t.Helper()
	d, err := NewDecoder(cfg)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	return d
}

// vim: foldmethod=marker
