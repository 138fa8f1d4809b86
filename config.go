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

	"github.com/sirupsen/logrus"

	"hz.tools/nrfbtle/btle"
	"hz.tools/nrfbtle/nrf24"
	"hz.tools/rf"
)

// PacketType selects which link layer the Decoder looks for.
type PacketType uint8

const (
	// NRF24 is the Nordic NRF24L01+ Enhanced ShockBurst framing.
	NRF24 PacketType = iota

	// BTLE is Bluetooth Low Energy, advertising channel packets only.
	BTLE
)

// String returns the name of the packet type as used in reports.
func (t PacketType) String() string {
	switch t {
	case NRF24:
		return "NRF24"
	case BTLE:
		return "BTLE"
	default:
		return fmt.Sprintf("PacketType(%d)", uint8(t))
	}
}

// ParsePacketType will map a user supplied name onto a PacketType.
func ParsePacketType(name string) (PacketType, error) {
	switch strings.ToLower(name) {
	case "nrf", "nrf24", "nrf24l01":
		return NRF24, nil
	case "btle", "ble":
		return BTLE, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidPacketType, name)
	}
}

const (
	// DefaultSquelch is the number of samples to wait after a good packet
	// before looking for the next one.
	DefaultSquelch = 20

	// btleDownsample is the only ratio BTLE decoding runs at: 1 Mbps
	// GFSK at 2 Msps.
	btleDownsample = 2
)

// Config will define what the Decoder looks for, and how the incoming
// samples map onto bits.
type Config struct {
	// Type is the kind of packet to decode.
	Type PacketType

	// Downsample is the number of samples per bit, and must be 1, 2 or 8.
	// BTLE always runs at 2, whatever is set here.
	Downsample uint

	// FixedLength, if set, overrides the payload length read from the NRF24
	// packet control field. Zero means use the PCF. Only valid for NRF24.
	FixedLength int

	// Channel is the channel the front end is tuned to. For BTLE this is
	// the channel index whitening is keyed on; for NRF24 it is the RF_CH
	// value, and is only used to report the frequency.
	Channel uint8

	// SampleRate of the incoming samples. Optional; when set, packets carry
	// their offset from the start of the stream.
	SampleRate rf.Hz

	// Squelch is the number of samples to skip after a good packet, so the
	// tail of the same packet isn't picked up again. 0 or 1 disables it.
	Squelch int

	// Logger gets debug output about rejected packets. If nil, nothing is
	// logged.
	Logger *logrus.Logger
}

// DefaultConfig will return a Config set up to decode packets of type t
// with the settings the decoder has always defaulted to.
func DefaultConfig(t PacketType) Config {
	cfg := Config{
		Type:       t,
		Downsample: btleDownsample,
		Squelch:    DefaultSquelch,
	}
	switch t {
	case BTLE:
		cfg.Channel = btle.AdvertisingChannel
	case NRF24:
		cfg.Channel = nrf24.DefaultChannel
	}
	return cfg
}

// Validate checks the Config for errors.
func (c Config) Validate() error {
	switch c.Type {
	case BTLE:
		if c.FixedLength != 0 {
			return fmt.Errorf("%w: fixed length only applies to NRF24", ErrInvalidFixedLength)
		}
		if c.Channel > btle.MaxChannel {
			return fmt.Errorf("%w: BTLE channel %d", ErrInvalidChannel, c.Channel)
		}
	case NRF24:
		switch c.Downsample {
		case 1, 2, 8:
		default:
			return fmt.Errorf("%w: got %d", ErrInvalidDownsample, c.Downsample)
		}
		if c.FixedLength < 0 || c.FixedLength > nrf24.MaxPayload {
			return fmt.Errorf("%w: %d is outside 0..%d",
				ErrInvalidFixedLength, c.FixedLength, nrf24.MaxPayload)
		}
		if c.Channel > nrf24.MaxChannel {
			return fmt.Errorf("%w: NRF24 channel %d", ErrInvalidChannel, c.Channel)
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidPacketType, c.Type)
	}

	if c.Squelch < 0 {
		return ErrInvalidSquelch
	}
	return nil
}

// Frequency returns the center frequency of the configured channel.
func (c Config) Frequency() (rf.Hz, error) {
	switch c.Type {
	case BTLE:
		return btle.ChannelFrequency(c.Channel)
	case NRF24:
		return nrf24.ChannelFrequency(c.Channel)
	default:
		return 0, fmt.Errorf("%w: %s", ErrInvalidPacketType, c.Type)
	}
}

// samplesPerBit returns the effective downsample ratio.
func (c Config) samplesPerBit() int {
	if c.Type == BTLE {
		return btleDownsample
	}
	return int(c.Downsample)
}

// vim: foldmethod=marker
