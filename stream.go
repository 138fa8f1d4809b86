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
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// SampleSource provides samples one at a time. Next returns io.EOF once the
// stream is over.
type SampleSource interface {
	Next() (int16, error)
}

// SampleReader will read little-endian int16 samples, such as the output of
// rtl_fm, from an io.Reader.
type SampleReader struct {
	r   *bufio.Reader
	buf []byte
	pos int
	end int
}

// NewSampleReader will create a SampleReader reading from r.
func NewSampleReader(r io.Reader) *SampleReader {
	return &SampleReader{
		r:   bufio.NewReader(r),
		buf: make([]byte, 1024*8),
	}
}

// Read will fill samples as far as the underlying reader allows. A trailing
// odd byte at the end of the stream is dropped.
func (sr *SampleReader) Read(samples []int16) (int, error) {
	for i := range samples {
		s, err := sr.Next()
		if err != nil {
			if i > 0 && err == io.EOF {
				return i, nil
			}
			return i, err
		}
		samples[i] = s
	}
	return len(samples), nil
}

// Next returns the next sample.
func (sr *SampleReader) Next() (int16, error) {
	if sr.end-sr.pos < 2 {
		if err := sr.fill(); err != nil {
			return 0, err
		}
	}
	s := int16(binary.LittleEndian.Uint16(sr.buf[sr.pos:]))
	sr.pos += 2
	return s, nil
}

// fill moves any leftover byte to the front of buf and reads until there is
// at least one whole sample.
func (sr *SampleReader) fill() error {
	n := copy(sr.buf, sr.buf[sr.pos:sr.end])
	sr.pos, sr.end = 0, n
	for sr.end < 2 {
		i, err := sr.r.Read(sr.buf[sr.end:])
		sr.end += i
		if err == nil {
			continue
		}
		if sr.end >= 2 {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return err
	}
	return nil
}

// checkEvery is how many samples Run handles between checks of the
// context.
const checkEvery = 4096

// Run will feed samples from src into the Decoder until the source runs
// dry, calling fn with each packet found. End of stream is not an error;
// an error from fn stops the run and is returned as is.
func Run(ctx context.Context, src SampleSource, d *Decoder, fn func(Packet) error) error {
	for n := 0; ; n++ {
		if n%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		s, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("nrfbtle: reading samples: %w", err)
		}

		pkt, ok := d.Write(s)
		if !ok {
			continue
		}
		if err := fn(pkt); err != nil {
			return err
		}
	}
}

// vim: foldmethod=marker
