package filter

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/gopacket/layers"
)

// RateLimiter tracks per-station frame counts so that one flooding transmitter
// cannot starve the decoder. Stations are told apart by the Ethernet source address
// and counted in fixed windows that rotate on the capture clock.
type RateLimiter struct {
	mu           sync.Mutex
	current      map[[6]byte]*atomic.Int64 // source MAC → frame count in current window
	windowStart  time.Time
	windowSize   time.Duration
	maxPerWindow int64

	// Metrics
	rejected atomic.Int64 // total rejected frames
}

// RateLimiterConfig configures per-station rate limiting.
type RateLimiterConfig struct {
	MaxFramesPerStation int           // Max frames per station per window (0 = disabled)
	Window              time.Duration // Window size (default 1s)
}

// NewRateLimiter creates a rate limiter. Returns nil if disabled (MaxFramesPerStation <= 0).
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.MaxFramesPerStation <= 0 {
		return nil
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Second
	}
	return &RateLimiter{
		current:      make(map[[6]byte]*atomic.Int64),
		windowSize:   cfg.Window,
		maxPerWindow: int64(cfg.MaxFramesPerStation),
	}
}

// Allow checks if a frame from the given station is allowed at now.
// Returns true if allowed, false if rate-limited.
func (l *RateLimiter) Allow(station [6]byte, now time.Time) bool {
	l.mu.Lock()

	// Rotate window if expired
	if l.windowStart.IsZero() || now.Sub(l.windowStart) >= l.windowSize {
		l.current = make(map[[6]byte]*atomic.Int64)
		l.windowStart = now
	}

	counter, exists := l.current[station]
	if !exists {
		counter = &atomic.Int64{}
		l.current[station] = counter
	}
	l.mu.Unlock()

	count := counter.Add(1)
	if count > l.maxPerWindow {
		l.rejected.Add(1)
		return false
	}
	return true
}

// Filter drops Ethernet frames over the station's budget. Frames of other link
// types, or too short to carry a source address, pass.
func (l *RateLimiter) Filter(frame *Frame, chain Chain) {
	if frame.LinkType != layers.LinkTypeEthernet || len(frame.Data) < 12 {
		chain.Filter(frame)
		return
	}
	var station [6]byte
	copy(station[:], frame.Data[6:12])
	if !l.Allow(station, frame.CaptureInfo.Timestamp) {
		return
	}
	chain.Filter(frame)
}

// Rejected returns the total number of rejected frames.
func (l *RateLimiter) Rejected() int64 {
	return l.rejected.Load()
}

func (l *RateLimiter) Name() string { return "rate_limit" }
