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
	"fmt"
	"strings"
	"time"

	"hz.tools/rf"
)

// Packet is a decoded packet that passed its CRC.
type Packet struct {
	// Type of the packet.
	Type PacketType

	// Sample is the number of samples written when the packet was found,
	// starting at 1.
	Sample uint64

	// Offset is how far into the stream Sample is. Only set when the
	// Config has a SampleRate.
	Offset time.Duration

	// Threshold is the quantization threshold the packet was read with.
	Threshold int32

	// Address is the 32 bit BTLE access address, or the 40 bit NRF24
	// address.
	Address uint64

	// Length of the payload, in bytes.
	Length int

	// PID and NoAck are the NRF24 packet id and no-acknowledge flag.
	PID   uint8
	NoAck bool

	// CRC as sent: 24 bits for BTLE, 16 bits for NRF24.
	CRC uint32

	// Data is the PDU header and payload for BTLE, with the usual Bluetooth
	// bit numbering. For NRF24 it is the payload as received.
	Data []byte

	// Channel and Frequency the Decoder was configured with.
	Channel   uint8
	Frequency rf.Hz
}

// String formats the packet as a single line report.
func (p Packet) String() string {
	data := make([]string, len(p.Data))
	for i, b := range p.Data {
		data[i] = fmt.Sprintf("%02X", b)
	}

	switch p.Type {
	case BTLE:
		return fmt.Sprintf("BTLE Packet start sample %d, Threshold:%d, Address: 0x%08X, CRC:0x%06X length:%d data:%s",
			p.Sample, p.Threshold, p.Address, p.CRC, p.Length, strings.Join(data, " "))
	default:
		noAck := 0
		if p.NoAck {
			noAck = 1
		}
		return fmt.Sprintf("%s Packet start sample %d, Threshold:%d, Address: 0x%010X length:%d, pid:%d, no_ack:%d, CRC:0x%04X data:%s",
			p.Type, p.Sample, p.Threshold, p.Address, p.Length, p.PID, noAck, p.CRC, strings.Join(data, " "))
	}
}

// vim: foldmethod=marker
