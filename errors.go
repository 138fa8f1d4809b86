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
	"errors"
)

var (
	// ErrInvalidPacketType is returned when the Config names a packet type
	// this package can not decode.
	ErrInvalidPacketType = errors.New("nrfbtle: invalid packet type")

	// ErrInvalidDownsample is returned when the downsample ratio is not
	// one of 1, 2 or 8.
	ErrInvalidDownsample = errors.New("nrfbtle: downsample ratio must be 1, 2 or 8")

	// ErrInvalidFixedLength is returned when the fixed payload length is
	// out of range, or set for a packet type that has no use for it.
	ErrInvalidFixedLength = errors.New("nrfbtle: invalid fixed packet length")

	// ErrInvalidChannel is returned when the channel is out of range for
	// the packet type.
	ErrInvalidChannel = errors.New("nrfbtle: invalid channel")

	// ErrInvalidSquelch is returned when the squelch window is negative.
	ErrInvalidSquelch = errors.New("nrfbtle: squelch must not be negative")
)

// vim: foldmethod=marker
