// Package decoder strips link-layer framing from captured frames and returns the
// GeoNetworking frame inside.
package decoder

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// EtherTypeGeoNetworking is the EtherType (and SNAP protocol id) of GeoNetworking.
const EtherTypeGeoNetworking layers.EthernetType = 0x8947

var (
	ErrNotGeoNetworking    = errors.New("frame does not carry GeoNetworking")
	ErrUnsupportedLinkType = errors.New("unsupported link type")
)

// Decoder extracts GeoNetworking frames. Ethernet goes through a reusable
// DecodingLayerParser; 802.11 frames, with or without radiotap, are decoded with
// gopacket.NewPacket since their layer sequence varies with the frame subtype.
//
// A Decoder is not safe for concurrent use; give each capture goroutine its own.
type Decoder struct {
	parser *gopacket.DecodingLayerParser

	eth     layers.Ethernet
	dot1q   layers.Dot1Q
	payload gopacket.Payload

	decoded []gopacket.LayerType

	statistics
}

type statistics struct {
	ethernetCount uint64
	dot11Count    uint64
	gnCount       uint64
	otherCount    uint64
}

// Stats is a snapshot of the decoder's counters.
type Stats struct {
	Ethernet      uint64
	Dot11         uint64
	GeoNetworking uint64
	Other         uint64
}

func NewDecoder() *Decoder {
	d := &Decoder{}
	d.parser = gopacket.NewDecodingLayerParser(
		layers.LayerTypeEthernet,
		&d.eth,
		&d.dot1q,
		&d.payload,
	)
	d.parser.IgnoreUnsupported = true
	return d
}

// Supported reports whether Decode understands lt.
func Supported(lt layers.LinkType) bool {
	switch lt {
	case layers.LinkTypeEthernet, layers.LinkTypeIEEE802_11, layers.LinkTypeIEEE80211Radio:
		return true
	}
	return false
}

// Decode returns the GeoNetworking frame carried by data. The result aliases data.
func (d *Decoder) Decode(data []byte, lt layers.LinkType) ([]byte, error) {
	var (
		gn  []byte
		err error
	)
	switch lt {
	case layers.LinkTypeEthernet:
		atomic.AddUint64(&d.ethernetCount, 1)
		gn, err = d.decodeEthernet(data)
	case layers.LinkTypeIEEE802_11, layers.LinkTypeIEEE80211Radio:
		atomic.AddUint64(&d.dot11Count, 1)
		gn, err = decodeDot11(data, lt)
	default:
		err = fmt.Errorf("%w: %v", ErrUnsupportedLinkType, lt)
	}
	if err != nil {
		atomic.AddUint64(&d.otherCount, 1)
		return nil, err
	}
	atomic.AddUint64(&d.gnCount, 1)
	return gn, nil
}

func (d *Decoder) decodeEthernet(data []byte) ([]byte, error) {
	d.decoded = d.decoded[:0] // reset for reuse
	if err := d.parser.DecodeLayers(data, &d.decoded); err != nil {
		return nil, fmt.Errorf("decode ethernet: %w", err)
	}

	etherType, payload := layers.EthernetType(0), []byte(nil)
	for _, layerType := range d.decoded {
		switch layerType {
		case layers.LayerTypeEthernet:
			etherType, payload = d.eth.EthernetType, d.eth.Payload
		case layers.LayerTypeDot1Q:
			etherType, payload = d.dot1q.Type, d.dot1q.Payload
		}
	}
	if etherType != EtherTypeGeoNetworking {
		return nil, fmt.Errorf("%w: ethertype %#04x", ErrNotGeoNetworking, uint16(etherType))
	}
	return payload, nil
}

func decodeDot11(data []byte, lt layers.LinkType) ([]byte, error) {
	pkt := gopacket.NewPacket(data, lt, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
	l := pkt.Layer(layers.LayerTypeSNAP)
	if l == nil {
		return nil, fmt.Errorf("%w: no SNAP header", ErrNotGeoNetworking)
	}
	snap := l.(*layers.SNAP)
	if snap.Type != EtherTypeGeoNetworking {
		return nil, fmt.Errorf("%w: SNAP type %#04x", ErrNotGeoNetworking, uint16(snap.Type))
	}
	return snap.LayerPayload(), nil
}

// Stats returns the counters accumulated so far.
func (d *Decoder) Stats() Stats {
	return Stats{
		Ethernet:      atomic.LoadUint64(&d.ethernetCount),
		Dot11:         atomic.LoadUint64(&d.dot11Count),
		GeoNetworking: atomic.LoadUint64(&d.gnCount),
		Other:         atomic.LoadUint64(&d.otherCount),
	}
}
