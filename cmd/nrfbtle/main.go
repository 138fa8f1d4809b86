package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"hz.tools/nrfbtle"
	"hz.tools/rf"
)

const version = "0.4"

var (
	packetType  string
	downsample  uint
	fixedLength int
	channel     uint8
	sampleRate  float64
	squelch     int
	verbose     bool
)

var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "nrfbtle [file]",
	Short: "Decode NRF24L01+ and Bluetooth Low Energy packets from FM demodulated samples",
	Long: `nrfbtle reads signed 16 bit little-endian FM demodulated samples, such as
the output of rtl_fm, and prints every NRF24L01+ or BTLE advertising packet
that passes its CRC.

Samples are read from the named file, or stdin if none is given.

Downsample ratio is samples per bit:
  NRF24 250 kbps at 2 Msps   -d 8
  NRF24 1 Mbps at 2 Msps     -d 2
  NRF24 2 Mbps at 2 Msps     -d 1
  BTLE always uses 2.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}

		t, err := nrfbtle.ParsePacketType(packetType)
		if err != nil {
			return err
		}

		cfg := nrfbtle.DefaultConfig(t)
		cfg.Downsample = downsample
		cfg.FixedLength = fixedLength
		cfg.SampleRate = rf.Hz(sampleRate)
		cfg.Squelch = squelch
		cfg.Logger = log
		if cmd.Flags().Changed("channel") {
			cfg.Channel = channel
		}

		dec, err := nrfbtle.NewDecoder(cfg)
		if err != nil {
			return err
		}

		in := io.Reader(os.Stdin)
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		return run(cmd.Context(), in, cmd.OutOrStdout(), dec)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&packetType, "type", "t", "nrf", "packet type to decode (nrf, btle)")
	rootCmd.Flags().UintVarP(&downsample, "downsample", "d", 2, "samples per bit (1, 2 or 8)")
	rootCmd.Flags().IntVarP(&fixedLength, "length", "l", 0, "fixed NRF24 payload length, 0 reads it from the packet")
	rootCmd.Flags().Uint8VarP(&channel, "channel", "c", 0, "channel the front end is tuned to (default 38 for BTLE, 2 for NRF24)")
	rootCmd.Flags().Float64VarP(&sampleRate, "sample-rate", "s", 2e6, "sample rate in Hz, used for packet offsets")
	rootCmd.Flags().IntVar(&squelch, "squelch", nrfbtle.DefaultSquelch, "samples to skip after a packet")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log rejected packets")
}

func run(ctx context.Context, in io.Reader, out io.Writer, dec *nrfbtle.Decoder) error {
	w := bufio.NewWriter(out)
	defer w.Flush()

	cfg := dec.Config()
	frequency, _ := cfg.Frequency()
	log.WithFields(logrus.Fields{
		"type":      cfg.Type,
		"channel":   cfg.Channel,
		"frequency": frequency,
	}).Infof("NRF24L01+ and Bluetooth Low Energy decoder v%s", version)

	start := time.Now()
	err := nrfbtle.Run(ctx, nrfbtle.NewSampleReader(in), dec, func(pkt nrfbtle.Packet) error {
		now := time.Now()
		if _, err := fmt.Fprintf(w, "%d.%06d %s\n", now.Unix(), now.Nanosecond()/1000, pkt); err != nil {
			return err
		}
		return w.Flush()
	})

	stats := dec.Stats()
	log.WithFields(logrus.Fields{
		"preambles":  stats.Preambles,
		"packets":    stats.Packets,
		"crc_errors": stats.CRCErrors,
		"oversize":   stats.Oversize,
	}).Infof("%d samples received in %d seconds", stats.Samples, int(time.Since(start).Seconds()))

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func main() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
