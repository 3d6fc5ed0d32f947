// Package pipeline implements the frame processing pipeline engine.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"firestige.xyz/geonet/internal/btp"
	"firestige.xyz/geonet/internal/decoder"
	"firestige.xyz/geonet/internal/filter"
	"firestige.xyz/geonet/internal/geonet"
	"firestige.xyz/geonet/internal/log"
	"firestige.xyz/geonet/internal/metrics"
)

const (
	defaultBufferSize = 1024
	defaultWorkers    = 1
)

// Filter labels for rejects that do not come from a named filter.
const (
	FilterLink   = "link"
	FilterCustom = "custom"
)

// Source yields captured link-layer frames; io.EOF ends the run.
type Source interface {
	ReadPacket() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

// FrameDecoder decodes GeoNetworking frames. *geonet.Decoder implements it.
type FrameDecoder interface {
	DecodeAt(frame []byte, receivedAt time.Time) (*geonet.Indication, error)
}

// Sink receives decoded indications from any worker.
type Sink interface {
	Send(ind *geonet.Indication) error
}

// Pipeline reads frames on one goroutine, runs them through the filter chain and
// link-layer decoder there, and fans the GeoNetworking frames out to a pool of
// decode workers.
type Pipeline struct {
	source   Source
	chain    *filter.FilterChain
	link     *decoder.Decoder
	decoder  FrameDecoder
	sink     Sink
	workers  int
	metrics  *Metrics
	observer *metrics.Metrics
	logger   log.Logger

	// Runtime state
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	errMu  sync.Mutex
	err    error

	// Channel for backpressure control
	frames chan filter.Frame
}

// Config contains pipeline configuration.
type Config struct {
	Source     Source
	Filters    []filter.Filter
	Decoder    FrameDecoder
	Sink       Sink
	Workers    int
	BufferSize int // Frame channel buffer size
	// Metrics is optional; nil disables Prometheus accounting.
	Metrics *metrics.Metrics
	Logger  log.Logger
}

// New creates a new pipeline.
func New(cfg Config) *Pipeline {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Discard()
	}

	p := &Pipeline{
		source:   cfg.Source,
		link:     decoder.NewDecoder(),
		decoder:  cfg.Decoder,
		sink:     cfg.Sink,
		workers:  cfg.Workers,
		metrics:  NewMetrics(),
		observer: cfg.Metrics,
		logger:   cfg.Logger,
		frames:   make(chan filter.Frame, cfg.BufferSize),
	}
	filters := make([]filter.Filter, 0, len(cfg.Filters)+1)
	for _, f := range cfg.Filters {
		filters = append(filters, &tracked{filter: f, name: filterName(f), reject: p.reject})
	}
	filters = append(filters, filter.Func(p.extract))
	p.chain = filter.NewFilterChain(p.enqueue, filters)
	return p
}

// Start starts the pipeline processing. Cancelling ctx, or calling Stop, ends it
// early; otherwise it runs until the source is exhausted.
func (p *Pipeline) Start(ctx context.Context) error {
	if p.source == nil || p.decoder == nil || p.sink == nil {
		return errors.New("pipeline requires a source, a decoder and a sink")
	}
	p.logger.WithFields(map[string]interface{}{
		"workers":   p.workers,
		"link_type": p.source.LinkType().String(),
	}).Info("pipeline starting")

	p.ctx, p.cancel = context.WithCancel(ctx)

	// Start capture goroutine
	p.wg.Add(1)
	go p.captureLoop()

	// Start processing goroutines
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.processLoop(i)
	}

	return nil
}

// Wait blocks until every frame has been processed and returns the source error,
// if reading stopped on anything but io.EOF.
func (p *Pipeline) Wait() error {
	p.wg.Wait()
	if p.cancel != nil {
		p.cancel()
	}
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.err
}

// Stop stops the pipeline and waits for its goroutines.
func (p *Pipeline) Stop() error {
	p.logger.Info("pipeline stopping")
	if p.cancel != nil {
		p.cancel()
	}
	err := p.Wait()
	p.logger.WithFields(p.Stats().fields()).Info("pipeline stopped")
	return err
}

// Run is Start followed by Wait.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.Start(ctx); err != nil {
		return err
	}
	return p.Wait()
}

// captureLoop reads frames from the source and feeds the filter chain.
func (p *Pipeline) captureLoop() {
	defer p.wg.Done()
	// Close channel when capture ends
	defer close(p.frames)

	for {
		if p.ctx.Err() != nil {
			return
		}
		data, ci, err := p.source.ReadPacket()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				p.setErr(fmt.Errorf("capture failed: %w", err))
			}
			return
		}
		p.metrics.Received.Add(1)
		if p.observer != nil {
			p.observer.LinkFramesTotal.WithLabelValues(p.source.LinkType().String()).Inc()
		}
		p.chain.Filter(&filter.Frame{Data: data, CaptureInfo: ci, LinkType: p.source.LinkType()})
	}
}

// extract is the last filter: it swaps the link-layer frame for the GeoNetworking
// frame it carries.
func (p *Pipeline) extract(frame *filter.Frame, chain filter.Chain) {
	gn, err := p.link.Decode(frame.Data, frame.LinkType)
	if err != nil {
		p.reject(FilterLink)
		if p.logger.IsTraceEnabled() {
			p.logger.WithError(err).Trace("skipping non-GeoNetworking frame")
		}
		return
	}
	frame.Data = gn
	chain.Filter(frame)
}

// reject accounts for a frame dropped before decoding.
func (p *Pipeline) reject(by string) {
	p.metrics.Filtered.Add(1)
	if p.observer != nil {
		p.observer.ObserveFiltered(by)
	}
}

func filterName(f filter.Filter) string {
	if n, ok := f.(filter.Named); ok {
		return n.Name()
	}
	return FilterCustom
}

// tracked notices when a filter drops a frame by not passing it on.
type tracked struct {
	filter filter.Filter
	name   string
	reject func(by string)
}

type passed struct {
	chain  filter.Chain
	called bool
}

func (c *passed) Filter(frame *filter.Frame) {
	c.called = true
	c.chain.Filter(frame)
}

func (t *tracked) Filter(frame *filter.Frame, chain filter.Chain) {
	next := &passed{chain: chain}
	t.filter.Filter(frame, next)
	if !next.called {
		t.reject(t.name)
	}
}

func (p *Pipeline) enqueue(frame *filter.Frame) {
	select {
	case p.frames <- *frame:
	case <-p.ctx.Done():
	}
}

// processLoop is the main processing loop of one worker.
func (p *Pipeline) processLoop(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return

		case frame, ok := <-p.frames:
			if !ok {
				// Channel closed, source exhausted
				return
			}
			p.processFrame(id, frame)
		}
	}
}

// processFrame decodes one GeoNetworking frame and reports the result.
func (p *Pipeline) processFrame(worker int, frame filter.Frame) {
	start := time.Now()
	ind, err := p.decoder.DecodeAt(frame.Data, frame.CaptureInfo.Timestamp)
	took := time.Since(start)

	switch {
	case err != nil:
		p.metrics.Dropped.Add(1)
		reason := geonet.Reason(err)
		if p.observer != nil {
			p.observer.ObserveDropped(reason, took)
		}
		if p.logger.IsDebugEnabled() {
			p.logger.WithFields(map[string]interface{}{
				"worker": worker,
				"reason": reason,
			}).WithError(err).Debug("frame dropped")
		}
		return
	case ind == nil:
		p.metrics.Ignored.Add(1)
		if p.observer != nil {
			p.observer.ObserveIgnored(took)
		}
		return
	}

	p.metrics.Decoded.Add(1)
	if p.observer != nil {
		p.observer.ObserveDecoded(btp.PortName(ind.Transport.DestinationPort), took)
	}
	if err := p.sink.Send(ind); err != nil {
		p.metrics.SinkErrors.Add(1)
		p.logger.WithError(err).Error("sink failed")
	}
}

func (p *Pipeline) setErr(err error) {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	if p.err == nil {
		p.err = err
	}
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Received:   p.metrics.Received.Load(),
		Filtered:   p.metrics.Filtered.Load(),
		Decoded:    p.metrics.Decoded.Load(),
		Ignored:    p.metrics.Ignored.Load(),
		Dropped:    p.metrics.Dropped.Load(),
		SinkErrors: p.metrics.SinkErrors.Load(),
	}
}

// LinkStats returns the link-layer decoder's counters.
func (p *Pipeline) LinkStats() decoder.Stats {
	return p.link.Stats()
}

// Stats represents pipeline statistics.
type Stats struct {
	Received   uint64
	Filtered   uint64
	Decoded    uint64
	Ignored    uint64
	Dropped    uint64
	SinkErrors uint64
}

func (s Stats) fields() map[string]interface{} {
	return map[string]interface{}{
		"received":    s.Received,
		"filtered":    s.Filtered,
		"decoded":     s.Decoded,
		"ignored":     s.Ignored,
		"dropped":     s.Dropped,
		"sink_errors": s.SinkErrors,
	}
}
