package geonet

import (
	"fmt"
	"time"
)

// BasicHeaderLength is the fixed width of the Basic Header.
const BasicHeaderLength = 4

// NextHeader identifies what follows the Basic Header.
type NextHeader uint8

const (
	NextHeaderAny           NextHeader = 0
	NextHeaderCommonHeader  NextHeader = 1
	NextHeaderSecuredPacket NextHeader = 2
)

func (n NextHeader) String() string {
	switch n {
	case NextHeaderAny:
		return "ANY"
	case NextHeaderCommonHeader:
		return "COMMON_HEADER"
	case NextHeaderSecuredPacket:
		return "SECURED_PACKET"
	default:
		return fmt.Sprintf("NextHeader(%d)", uint8(n))
	}
}

// Lifetime is the encoded packet lifetime: a 6-bit multiplier and a 2-bit base.
type Lifetime uint8

var lifetimeBases = [4]time.Duration{
	50 * time.Millisecond,
	time.Second,
	10 * time.Second,
	100 * time.Second,
}

// NewLifetime encodes multiplier (0..63) and base index (0..3).
func NewLifetime(multiplier, base uint8) Lifetime {
	return Lifetime(multiplier<<2 | base&0x03)
}

func (l Lifetime) Multiplier() uint8 { return uint8(l) >> 2 }

func (l Lifetime) Base() uint8 { return uint8(l) & 0x03 }

// Duration returns the lifetime as a time.Duration.
func (l Lifetime) Duration() time.Duration {
	return time.Duration(l.Multiplier()) * lifetimeBases[l.Base()]
}

// AsSeconds returns the lifetime in seconds.
func (l Lifetime) AsSeconds() float64 {
	return l.Duration().Seconds()
}

// BasicHeader is the first header of every GeoNetworking packet.
type BasicHeader struct {
	Version           uint8
	NextHeader        NextHeader
	Lifetime          Lifetime
	RemainingHopLimit uint8
}

// ParseBasicHeader reads the 4-byte Basic Header.
func ParseBasicHeader(c *Cursor) (BasicHeader, error) {
	var h BasicHeader
	if c.Remaining() < BasicHeaderLength {
		return h, fmt.Errorf("basic header: %w",
			newError(ErrTruncated, "read", "need %d bytes, %d remaining", BasicHeaderLength, c.Remaining()))
	}
	b0, _ := c.Uint8()
	_, _ = c.Uint8() // reserved
	lt, _ := c.Uint8()
	rhl, _ := c.Uint8()

	h.Version = b0 >> 4
	h.NextHeader = NextHeader(b0 & 0x0f)
	h.Lifetime = Lifetime(lt)
	h.RemainingHopLimit = rhl
	return h, nil
}

func (h BasicHeader) validNextHeader() error {
	switch h.NextHeader {
	case NextHeaderAny, NextHeaderCommonHeader, NextHeaderSecuredPacket:
		return nil
	}
	return newError(ErrUnknownHeaderType, "basic header", "next header %d", uint8(h.NextHeader))
}
