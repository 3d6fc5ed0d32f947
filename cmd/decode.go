package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"firestige.xyz/geonet/internal/config"
	"firestige.xyz/geonet/internal/dedup"
	"firestige.xyz/geonet/internal/denm"
	"firestige.xyz/geonet/internal/geonet"
	"firestige.xyz/geonet/internal/log"
	"firestige.xyz/geonet/internal/sink/console"
)

// maxLineSize bounds one hex dump line read from stdin.
const maxLineSize = 64 * 1024

var decodeStrict bool

var decodeCmd = &cobra.Command{
	Use:   "decode [hex...]",
	Short: "Decode GeoNetworking frames given as hex dumps",
	Long: `Decode GeoNetworking frames given as hex dumps, one per argument or, without
arguments, one per line on stdin. Whitespace inside a dump is ignored; blank lines
and lines starting with '#' are skipped.

Examples:
  geonet decode "12 00 50 0a 03 81 ..."
  geonet decode -o yaml < frames.txt
  geonet decode --strict --gn-version 1 < frames.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader
		if len(args) == 0 {
			in = cmd.InOrStdin()
			if in == os.Stdin && stdinIsTerminal() {
				fmt.Fprintln(cmd.ErrOrStderr(), "reading hex dumps from stdin, one frame per line")
			}
		}
		summary, err := runDecode(cfg, args, in, cmd.OutOrStdout(), decodeStrict, log.GetLogger())
		log.GetLogger().WithFields(summary.fields()).Debug("decode finished")
		return err
	},
}

func init() {
	decodeCmd.Flags().BoolVar(&decodeStrict, "strict", false,
		"stop at the first frame that fails to decode")
}

// decodeSummary counts the outcome of every input frame.
type decodeSummary struct {
	Decoded int
	Ignored int
	Failed  int
}

func (s decodeSummary) fields() map[string]interface{} {
	return map[string]interface{}{
		"decoded": s.Decoded,
		"ignored": s.Ignored,
		"failed":  s.Failed,
	}
}

// newFrameDecoder builds the GeoNetworking decoder described by cfg, with DENM as
// the upper layer. The duplicate filter is nil unless enabled.
func newFrameDecoder(cfg *config.GlobalConfig, logger log.Logger) (*geonet.Decoder, *dedup.Filter) {
	opts := []geonet.DecoderOption{geonet.WithLogger(logger)}
	var seen *dedup.Filter
	if cfg.Dedup.Enabled {
		seen = dedup.New(cfg.Dedup.TTL, cfg.Dedup.CleanupInterval)
		opts = append(opts, geonet.WithDuplicateFilter(seen))
	}
	dec := geonet.NewDecoder(
		geonet.Config{ExpectedVersion: cfg.Station.ItsGnProtocolVersion},
		denm.NewDecoder(),
		opts...,
	)
	return dec, seen
}

// runDecode decodes every dump in inputs, then every line of in when in is not nil,
// and writes one record per decoded frame to out.
func runDecode(cfg *config.GlobalConfig, inputs []string, in io.Reader, out io.Writer, strict bool, logger log.Logger) (decodeSummary, error) {
	var summary decodeSummary

	sink, err := console.NewSink(out, cfg.Output.Format)
	if err != nil {
		return summary, err
	}
	defer sink.Close()

	dec, _ := newFrameDecoder(cfg, logger)

	handle := func(n int, dump string) error {
		frame, err := geonet.BytesFromHexString(dump)
		if err == nil {
			var ind *geonet.Indication
			ind, err = dec.Decode(frame)
			if err == nil {
				if ind == nil {
					summary.Ignored++
					logger.WithField("frame", n).Debug("frame ignored")
					return nil
				}
				summary.Decoded++
				return sink.Send(ind)
			}
		}
		summary.Failed++
		if strict {
			return fmt.Errorf("frame %d: %w", n, err)
		}
		logger.WithFields(map[string]interface{}{
			"frame":  n,
			"reason": geonet.Reason(err),
		}).WithError(err).Warn("can't decode frame, skipping")
		return nil
	}

	n := 0
	for _, dump := range inputs {
		n++
		if err := handle(n, dump); err != nil {
			return summary, err
		}
	}
	if in == nil {
		return summary, nil
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		n++
		if err := handle(n, line); err != nil {
			return summary, err
		}
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("read input: %w", err)
	}
	return summary, nil
}

// stdinIsTerminal reports whether stdin is an interactive terminal rather than a
// pipe or file.
func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
