package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"firestige.xyz/geonet/internal/config"
	"firestige.xyz/geonet/internal/decoder"
	"firestige.xyz/geonet/internal/filter"
	"firestige.xyz/geonet/internal/geonet"
	"firestige.xyz/geonet/internal/log"
	"firestige.xyz/geonet/internal/metrics"
	"firestige.xyz/geonet/internal/pipeline"
	"firestige.xyz/geonet/internal/sink/console"
	"firestige.xyz/geonet/internal/source/file"
)

var replayFile string

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Decode every GeoNetworking frame in a capture file",
	Long: `Replay a pcap or pcapng capture through the decoding pipeline.

Ethernet (EtherType 0x8947, optionally VLAN tagged), 802.11 and radiotap captures
are supported. Frames of other protocols are filtered out; each decoded frame is
printed as one record. Packet ids use the capture timestamps.

Examples:
  geonet replay -f its-g5.pcap
  geonet replay -f its-g5.pcapng -o yaml
  GEONET_METRICS_ENABLED=true geonet replay -f its-g5.pcap`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := log.GetLogger()
		summary, err := runReplay(ctx, cfg, replayFile, cmd.OutOrStdout(), logger)
		logger.WithField("file", replayFile).WithFields(summary.fields()).Info("replay finished")
		return err
	},
}

func init() {
	replayCmd.Flags().StringVarP(&replayFile, "file", "f", "",
		"pcap or pcapng capture to replay (required)")
	replayCmd.MarkFlagRequired("file")
}

// replaySummary collects the counters of one replay.
type replaySummary struct {
	pipeline.Stats
	Link         decoder.Stats
	BPFRejected  int64
	RateLimited  int64
	DedupEntries int
}

func (s replaySummary) fields() map[string]interface{} {
	return map[string]interface{}{
		"received":      s.Received,
		"filtered":      s.Filtered,
		"decoded":       s.Decoded,
		"ignored":       s.Ignored,
		"dropped":       s.Dropped,
		"sink_errors":   s.SinkErrors,
		"bpf_rejected":  s.BPFRejected,
		"rate_limited":  s.RateLimited,
		"link_ethernet": s.Link.Ethernet,
		"link_dot11":    s.Link.Dot11,
		"link_other":    s.Link.Other,
		"dedup_entries": s.DedupEntries,
	}
}

// runReplay decodes the capture at path and writes one record per decoded frame to
// out. It serves Prometheus metrics for the duration of the replay when enabled.
func runReplay(ctx context.Context, cfg *config.GlobalConfig, path string, out io.Writer, logger log.Logger) (replaySummary, error) {
	var summary replaySummary

	src, err := file.NewSource(&file.FileCfg{FilePath: path})
	if err != nil {
		return summary, err
	}
	if err := src.Start(ctx); err != nil {
		return summary, err
	}
	defer src.Stop()
	if lt := src.LinkType(); !decoder.Supported(lt) {
		return summary, fmt.Errorf("%s: %w: %v", path, decoder.ErrUnsupportedLinkType, lt)
	}

	sink, err := console.NewSink(out, cfg.Output.Format)
	if err != nil {
		return summary, err
	}
	defer sink.Close()

	bpfFilter, err := filter.NewBPFFilter(filter.EtherTypeProgram(geonet.EtherType))
	if err != nil {
		return summary, err
	}

	filters := []filter.Filter{bpfFilter}
	limiter := filter.NewRateLimiter(filter.RateLimiterConfig{
		MaxFramesPerStation: cfg.Pipeline.RateLimit.MaxFramesPerStation,
		Window:              cfg.Pipeline.RateLimit.Window,
	})
	if limiter != nil {
		filters = append(filters, limiter)
	}

	m := metrics.New()
	if cfg.Metrics.Enabled {
		server := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path, m.Registry, logger)
		if err := server.Start(ctx); err != nil {
			return summary, err
		}
		defer server.Stop(context.Background())
	}

	dec, seen := newFrameDecoder(cfg, logger)
	p := pipeline.New(pipeline.Config{
		Source:     src,
		Filters:    filters,
		Decoder:    dec,
		Sink:       sink,
		Workers:    cfg.Pipeline.Workers,
		BufferSize: cfg.Pipeline.BufferSize,
		Metrics:    m,
		Logger:     logger,
	})
	err = p.Run(ctx)

	summary.Stats = p.Stats()
	summary.Link = p.LinkStats()
	summary.BPFRejected = bpfFilter.Rejected()
	if limiter != nil {
		summary.RateLimited = limiter.Rejected()
	}
	if seen != nil {
		summary.DedupEntries = seen.Len()
	}
	return summary, err
}
