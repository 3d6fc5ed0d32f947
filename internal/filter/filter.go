// Package filter runs captured link-layer frames through a chain of filters before
// they reach the GeoNetworking decoder.
package filter

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Frame is one captured link-layer frame. Filters may replace Data, e.g. with the
// GeoNetworking frame extracted from it.
type Frame struct {
	Data        []byte
	CaptureInfo gopacket.CaptureInfo
	LinkType    layers.LinkType
}

// Chain hands a frame to the rest of the chain.
type Chain interface {
	Filter(frame *Frame)
}

// Filter inspects a frame and either passes it on through chain or drops it by
// returning without calling chain.
type Filter interface {
	Filter(frame *Frame, chain Chain)
}

// Func adapts a function to Filter.
type Func func(frame *Frame, chain Chain)

func (f Func) Filter(frame *Frame, chain Chain) { f(frame, chain) }

// Named is implemented by filters that report their rejects under a label.
type Named interface {
	Name() string
}
