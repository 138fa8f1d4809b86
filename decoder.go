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
	"io"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"hz.tools/nrfbtle/btle"
	"hz.tools/nrfbtle/internal/ring"
	"hz.tools/nrfbtle/nrf24"
	"hz.tools/rf"
)

const (
	// BufferSize is the smallest number of samples the Decoder keeps. It is
	// grown when the longest packet at the configured downsample ratio
	// would not fit.
	BufferSize = 1000

	// ThresholdLimit bounds the magnitude of the quantization threshold.
	// A threshold this far from zero means the front end is saturated or
	// there's nothing but noise, and no preamble is reported.
	ThresholdLimit = 15500

	// preambleBits is the number of bits inspected to find a preamble.
	preambleBits = 10

	// maxPacketData bounds the BTLE PDU scratch buffer.
	maxPacketData = 500

	// Last bit each engine can read, counted from the start of the
	// preamble.
	btleLastBit  = btleHeaderBit + (btle.LengthMask+btle.HeaderSize+btle.CRCSize)*8 - 1
	nrf24LastBit = nrf24PayloadBit + nrf24.MaxPayload*8 + 16 - 1
)

// Stats counts what the Decoder has seen so far.
type Stats struct {
	// Samples is the number of samples written.
	Samples uint64

	// Attempts is the number of positions a preamble was looked for at.
	Attempts uint64

	// Preambles is the number of attempts that found a preamble.
	Preambles uint64

	// Packets is the number of packets that passed their CRC.
	Packets uint64

	// CRCErrors is the number of preambles followed by a bad CRC.
	CRCErrors uint64

	// Oversize is the number of NRF24 packets thrown out for claiming a
	// payload longer than nrf24.MaxPayload.
	Oversize uint64

	// Squelched is the number of samples skipped after a good packet.
	Squelched uint64
}

// Decoder holds the recent sample history and decoding state for a single
// stream of FM demodulated samples. It is not safe for concurrent use.
type Decoder struct {
	cfg Config
	log *logrus.Logger

	buf       *ring.Buffer
	spb       int
	threshold int32
	skip      int
	frequency rf.Hz

	stats Stats

	// Scratch space, reused between attempts.
	pdu    [maxPacketData]byte
	packed [nrf24.MaxPackedSize]byte
}

// NewDecoder will create a Decoder for the provided configuration.
func NewDecoder(cfg Config) (*Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	frequency, err := cfg.Frequency()
	if err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = logrus.New()
		log.Out = io.Discard
	}

	spb := cfg.samplesPerBit()
	if cfg.Type == BTLE && cfg.Downsample != uint(spb) {
		log.WithFields(logrus.Fields{
			"requested": cfg.Downsample,
			"using":     spb,
		}).Debug("BTLE forces the downsample ratio")
	}

	last := nrf24LastBit
	if cfg.Type == BTLE {
		last = btleLastBit
	}
	size := last*spb + 1
	if size < BufferSize {
		size = BufferSize
	}

	d := &Decoder{
		cfg:       cfg,
		log:       log,
		buf:       ring.New(size),
		spb:       spb,
		frequency: frequency,
		skip:      size,
	}

	log.WithFields(logrus.Fields{
		"type":        cfg.Type,
		"downsample":  spb,
		"fixedLength": cfg.FixedLength,
		"channel":     cfg.Channel,
		"frequency":   frequency,
		"buffer":      size,
		"squelch":     cfg.Squelch,
	}).Debug("decoder configured")

	return d, nil
}

// Config returns the Config the Decoder was created with.
func (d *Decoder) Config() Config {
	return d.cfg
}

// Stats returns a copy of the Decoder counters.
func (d *Decoder) Stats() Stats {
	return d.stats
}

// Threshold returns the quantization threshold computed by the last decode
// attempt.
func (d *Decoder) Threshold() int32 {
	return d.threshold
}

// Push adds a sample to the history without attempting a decode.
func (d *Decoder) Push(s int16) {
	d.buf.Push(s)
	d.stats.Samples++
}

// Write will add a sample to the history and, unless the Decoder is still
// filling its buffer or is squelched after a recent packet, attempt a
// decode at the new position.
func (d *Decoder) Write(s int16) (Packet, bool) {
	d.Push(s)

	if d.skip > 0 {
		d.skip--
	}
	if d.skip > 0 {
		if d.stats.Packets > 0 {
			d.stats.Squelched++
		}
		return Packet{}, false
	}

	pkt, ok := d.Decode()
	if ok {
		d.skip = d.cfg.Squelch
	}
	return pkt, ok
}

// Decode will look for a packet at the current position in the history.
// Rejections of any kind (no preamble, implausible threshold, bad length,
// CRC mismatch) are reported by returning false.
func (d *Decoder) Decode() (Packet, bool) {
	d.stats.Attempts++
	d.threshold = d.estimateThreshold()
	if !d.detectPreamble() {
		return Packet{}, false
	}
	d.stats.Preambles++

	var (
		pkt Packet
		ok  bool
	)
	switch d.cfg.Type {
	case BTLE:
		pkt, ok = d.decodeBTLE()
	case NRF24:
		pkt, ok = d.decodeNRF24()
	}
	if !ok {
		return Packet{}, false
	}

	d.stats.Packets++
	pkt.Type = d.cfg.Type
	pkt.Sample = d.stats.Samples
	pkt.Threshold = d.threshold
	pkt.Channel = d.cfg.Channel
	pkt.Frequency = d.frequency
	if d.cfg.SampleRate > 0 {
		pkt.Offset = time.Duration(math.Round(float64(d.stats.Samples) * float64(time.Second) / float64(d.cfg.SampleRate)))
	}
	return pkt, true
}

// estimateThreshold averages the samples spanning the first 8 bits of the
// preamble, which sit evenly either side of the DC offset.
func (d *Decoder) estimateThreshold() int32 {
	n := 8 * d.spb
	var sum int32
	for c := 0; c < n; c++ {
		sum += int32(d.buf.At(c))
	}
	return sum / int32(n)
}

// quantize returns the bit decision for the bit'th bit.
func (d *Decoder) quantize(bit int) bool {
	return int32(d.buf.At(bit*d.spb)) > d.threshold
}

// detectPreamble checks for 0x55 or 0xAA, whichever polarity the front end
// gave us. Alternation over the first 9 bits gives exactly 4 edges each way;
// bit 9 only picks which way is counted.
func (d *Decoder) detectPreamble() bool {
	var q [preambleBits]bool
	for c := range q {
		q[c] = d.quantize(c)
	}

	transitions := 0
	for c := 0; c < 8; c++ {
		if q[9] {
			if q[c] && !q[c+1] {
				transitions++
			}
		} else if !q[c] && q[c+1] {
			transitions++
		}
	}

	threshold := d.threshold
	if threshold < 0 {
		threshold = -threshold
	}
	return transitions == 4 && threshold < ThresholdLimit
}

// extractByte packs 8 bits starting at bit into a byte, first bit in the
// most significant position.
func (d *Decoder) extractByte(bit int) byte {
	var b byte
	for c := 0; c < 8; c++ {
		if d.quantize(bit + c) {
			b |= 1 << (7 - c)
		}
	}
	return b
}

// extractBytes fills dst with consecutive bytes starting at bit.
func (d *Decoder) extractBytes(bit int, dst []byte) {
	for t := range dst {
		dst[t] = d.extractByte(bit + t*8)
	}
}

// reject logs why a preamble didn't turn into a packet.
func (d *Decoder) reject(reason string, fields logrus.Fields) {
	if !d.log.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	fields["sample"] = d.stats.Samples
	fields["threshold"] = d.threshold
	d.log.WithFields(fields).Debug(reason)
}

// String returns the counters in a single line.
func (s Stats) String() string {
	return fmt.Sprintf("samples=%d attempts=%d preambles=%d packets=%d crc_errors=%d oversize=%d squelched=%d",
		s.Samples, s.Attempts, s.Preambles, s.Packets, s.CRCErrors, s.Oversize, s.Squelched)
}

// vim: foldmethod=marker
