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

// Package ring contains a fixed-size circular buffer of int16 samples,
// addressed relative to the most recently written slot.
package ring

// Buffer is a fixed capacity ring of samples. Writing a sample advances the
// head and overwrites the oldest slot.
//
// Reads are relative to the head with plain modulo arithmetic: offset 0 is
// the most recent sample, and offsets 1 through Cap()-1 walk forward in time
// starting from the oldest retained sample.
type Buffer struct {
	buf  []int16
	head int
}

// New will create a Buffer able to hold capacity samples. The buffer starts
// zero filled.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		panic("ring: capacity must be positive")
	}
	return &Buffer{
		buf:  make([]int16, capacity),
		head: capacity - 1,
	}
}

// Cap returns the number of samples held by the Buffer.
func (b *Buffer) Cap() int {
	return len(b.buf)
}

// Push advances the head and stores s in the slot it now points at.
func (b *Buffer) Push(s int16) {
	b.head++
	if b.head == len(b.buf) {
		b.head = 0
	}
	b.buf[b.head] = s
}

// At returns the sample offset slots past the head. Offsets must be in the
// range [0, Cap()).
func (b *Buffer) At(offset int) int16 {
	return b.buf[(b.head+offset)%len(b.buf)]
}

// vim: foldmethod=marker
