// Package metrics implements Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Frame results.
const (
	ResultDecoded  = "decoded"
	ResultIgnored  = "ignored"
	ResultDropped  = "dropped"
	ResultFiltered = "filtered"
)

// Metrics groups the decoder's collectors. Each instance registers against its own
// registry so that tests and multiple replays do not collide.
type Metrics struct {
	Registry *prometheus.Registry

	// FramesTotal counts frames by outcome
	FramesTotal *prometheus.CounterVec
	// DropsTotal counts dropped frames by error reason
	DropsTotal *prometheus.CounterVec
	// MessagesTotal counts decoded messages by BTP destination service
	MessagesTotal *prometheus.CounterVec
	// DecodeLatencySeconds measures the time spent in the GeoNetworking decoder
	DecodeLatencySeconds prometheus.Histogram
	// LinkFramesTotal counts captured frames by link type
	LinkFramesTotal *prometheus.CounterVec
	// FilterRejectsTotal counts frames dropped before decoding by filter
	FilterRejectsTotal *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		FramesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geonet_frames_total",
				Help: "Total number of GeoNetworking frames by result",
			},
			[]string{"result"},
		),
		DropsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geonet_drops_total",
				Help: "Total number of dropped GeoNetworking frames by reason",
			},
			[]string{"reason"},
		),
		MessagesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geonet_messages_total",
				Help: "Total number of decoded upper-layer messages by BTP service",
			},
			[]string{"service"},
		),
		DecodeLatencySeconds: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "geonet_decode_latency_seconds",
				Help:    "Latency of GeoNetworking decoding in seconds",
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 20), // 1µs to ~1s
			},
		),
		LinkFramesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geonet_link_frames_total",
				Help: "Total number of captured link-layer frames",
			},
			[]string{"link_type"},
		),
		FilterRejectsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geonet_filter_rejects_total",
				Help: "Total number of frames dropped before decoding by filter",
			},
			[]string{"filter"},
		),
	}
}

// ObserveDecoded records a successfully decoded frame.
func (m *Metrics) ObserveDecoded(service string, took time.Duration) {
	m.FramesTotal.WithLabelValues(ResultDecoded).Inc()
	if service == "" {
		service = "unknown"
	}
	m.MessagesTotal.WithLabelValues(service).Inc()
	m.DecodeLatencySeconds.Observe(took.Seconds())
}

// ObserveIgnored records a frame of a header type that is not processed.
func (m *Metrics) ObserveIgnored(took time.Duration) {
	m.FramesTotal.WithLabelValues(ResultIgnored).Inc()
	m.DecodeLatencySeconds.Observe(took.Seconds())
}

// ObserveDropped records a frame rejected by the decoder.
func (m *Metrics) ObserveDropped(reason string, took time.Duration) {
	m.FramesTotal.WithLabelValues(ResultDropped).Inc()
	m.DropsTotal.WithLabelValues(reason).Inc()
	m.DecodeLatencySeconds.Observe(took.Seconds())
}

// ObserveFiltered records a link-layer frame dropped by the named filter before
// it reached the decoder.
func (m *Metrics) ObserveFiltered(filter string) {
	m.FramesTotal.WithLabelValues(ResultFiltered).Inc()
	m.FilterRejectsTotal.WithLabelValues(filter).Inc()
}
