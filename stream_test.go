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
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"hz.tools/nrfbtle/btle"
	"hz.tools/nrfbtle/nrf24"
)

func TestSampleReader(t *testing.T) {
	raw := []byte{0x01, 0x00, 0xFF, 0xFF, 0x00, 0x80, 0xFF, 0x7F, 0x2A}
	sr := NewSampleReader(bytes.NewReader(raw))

	want := []int16{1, -1, -32768, 32767}
	for i, w := range want {
		s, err := sr.Next()
		if err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}
		if s != w {
			t.Errorf("sample %d = %d, want %d", i, s, w)
		}
	}
	if _, err := sr.Next(); err != io.EOF {
		t.Errorf("trailing byte: err = %v, want io.EOF", err)
	}
}

// oneByteReader hands out a single byte per Read.
type oneByteReader struct {
	r io.Reader
}

func (o oneByteReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return o.r.Read(p[:1])
}

func TestSampleReaderRead(t *testing.T) {
	var raw bytes.Buffer
	for i := 0; i < 5000; i++ {
		binary.Write(&raw, binary.LittleEndian, int16(i-2500))
	}

	sr := NewSampleReader(oneByteReader{bytes.NewReader(raw.Bytes())})
	buf := make([]int16, 3000)

	n, err := sr.Read(buf)
	if err != nil || n != 3000 {
		t.Fatalf("first read = %d, %v", n, err)
	}
	if buf[0] != -2500 || buf[2999] != 499 {
		t.Errorf("first read got %d .. %d", buf[0], buf[2999])
	}

	n, err = sr.Read(buf)
	if err != nil || n != 2000 {
		t.Fatalf("second read = %d, %v", n, err)
	}
	if buf[1999] != 2499 {
		t.Errorf("last sample = %d, want 2499", buf[1999])
	}

	if n, err = sr.Read(buf); n != 0 || err != io.EOF {
		t.Errorf("third read = %d, %v, want 0, EOF", n, err)
	}
}

func TestRunSquelch(t *testing.T) {
	tests := []struct {
		name    string
		squelch int
		want    int
	}{
		{"default", DefaultSquelch, 1},
		// At 2 samples per bit the packet lines up on two consecutive
		// samples.
		{"disabled", 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(BTLE)
			cfg.Squelch = tt.squelch
			d := newTestDecoder(t, cfg)

			const lead = 300
			frame := btleFrame(btle.AdvertisingAccessAddress, advPDU, btle.AdvertisingCRCInit, btle.AdvertisingChannel)
			src := &sliceSource{samples: stream(d, frame, lead)}

			var pkts []Packet
			err := Run(context.Background(), src, d, func(pkt Packet) error {
				pkts = append(pkts, pkt)
				return nil
			})
			if err != nil {
				t.Fatalf("Run: %v", err)
			}

			if len(pkts) != tt.want {
				t.Fatalf("got %d packets, want %d (stats %s)", len(pkts), tt.want, d.Stats())
			}
			for i, pkt := range pkts {
				if !bytes.Equal(pkt.Data, advPDU) {
					t.Errorf("packet %d data = % X", i, pkt.Data)
				}
				if want := uint64(lead + d.buf.Cap() + 1 + i); pkt.Sample != want {
					t.Errorf("packet %d sample = %d, want %d", i, pkt.Sample, want)
				}
			}

			stats := d.Stats()
			if stats.Samples != uint64(len(src.samples)) {
				t.Errorf("samples = %d, want %d", stats.Samples, len(src.samples))
			}
			if tt.squelch > 1 && stats.Squelched != uint64(tt.squelch-1) {
				t.Errorf("squelched = %d, want %d", stats.Squelched, tt.squelch-1)
			}
		})
	}
}

func TestRunSampleReader(t *testing.T) {
	cfg := DefaultConfig(NRF24)
	cfg.Downsample = 8
	d := newTestDecoder(t, cfg)

	payload := []byte("hello, world")
	frame := nrf24Frame(0xE7E7E7E7E7, nrf24.NewPCF(len(payload), 2, false), payload)

	var raw bytes.Buffer
	for _, s := range stream(d, frame, 1234) {
		binary.Write(&raw, binary.LittleEndian, s)
	}

	var pkts []Packet
	err := Run(context.Background(), NewSampleReader(&raw), d, func(pkt Packet) error {
		pkts = append(pkts, pkt)
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(pkts) != 1 {
		t.Fatalf("got %d packets, want 1 (stats %s)", len(pkts), d.Stats())
	}
	if !bytes.Equal(pkts[0].Data, payload) || pkts[0].PID != 2 {
		t.Errorf("got %s", pkts[0])
	}
}

func TestRunCallbackError(t *testing.T) {
	d := newTestDecoder(t, DefaultConfig(BTLE))
	frame := btleFrame(btle.AdvertisingAccessAddress, advPDU, btle.AdvertisingCRCInit, btle.AdvertisingChannel)
	src := &sliceSource{samples: stream(d, frame, 0)}

	stop := errors.New("stop")
	err := Run(context.Background(), src, d, func(Packet) error {
		return stop
	})
	if err != stop {
		t.Fatalf("Run = %v, want %v", err, stop)
	}
	if src.pos == len(src.samples) {
		t.Error("Run kept reading after the callback failed")
	}
}

type failingSource struct{}

func (failingSource) Next() (int16, error) {
	return 0, io.ErrUnexpectedEOF
}

func TestRunSourceError(t *testing.T) {
	d := newTestDecoder(t, DefaultConfig(BTLE))
	err := Run(context.Background(), failingSource{}, d, func(Packet) error {
		return nil
	})
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("Run = %v, want wrapped io.ErrUnexpectedEOF", err)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := newTestDecoder(t, DefaultConfig(BTLE))
	src := &sliceSource{samples: make([]int16, 100)}
	err := Run(ctx, src, d, func(Packet) error {
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if src.pos != 0 {
		t.Errorf("read %d samples after cancel", src.pos)
	}
}

// vim: foldmethod=marker
