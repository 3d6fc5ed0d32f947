package geonet

import "fmt"

// CommonHeaderLength is the fixed width of the Common Header.
const CommonHeaderLength = 8

// UpperProtocol is the Common Header's next-header field.
type UpperProtocol uint8

const (
	UpperProtocolAny  UpperProtocol = 0
	UpperProtocolBTPA UpperProtocol = 1
	UpperProtocolBTPB UpperProtocol = 2
	UpperProtocolIPv6 UpperProtocol = 3
)

func (u UpperProtocol) String() string {
	switch u {
	case UpperProtocolAny:
		return "ANY"
	case UpperProtocolBTPA:
		return "BTP-A"
	case UpperProtocolBTPB:
		return "BTP-B"
	case UpperProtocolIPv6:
		return "IPv6"
	default:
		return fmt.Sprintf("UpperProtocol(%d)", uint8(u))
	}
}

// TrafficClass packs store-carry-forward, channel offload and the class id.
type TrafficClass uint8

func (t TrafficClass) StoreCarryForward() bool { return t&0x80 != 0 }

func (t TrafficClass) ChannelOffload() bool { return t&0x40 != 0 }

func (t TrafficClass) ID() uint8 { return uint8(t) & 0x3f }

// Flags is the Common Header flags byte.
type Flags uint8

// Mobile reports whether the originating station is mobile.
func (f Flags) Mobile() bool { return f&0x80 != 0 }

// CommonHeader follows the Basic Header (or the secured envelope).
type CommonHeader struct {
	NextHeader      UpperProtocol
	TypeAndSubtype  HeaderType
	TrafficClass    TrafficClass
	Flags           Flags
	PayloadLength   uint16
	MaximumHopLimit uint8
}

// ParseCommonHeader reads the 8-byte Common Header.
func ParseCommonHeader(c *Cursor) (CommonHeader, error) {
	var h CommonHeader
	if c.Remaining() < CommonHeaderLength {
		return h, fmt.Errorf("common header: %w",
			newError(ErrTruncated, "read", "need %d bytes, %d remaining", CommonHeaderLength, c.Remaining()))
	}
	nh, _ := c.Uint8()
	hst, _ := c.Uint8()
	tc, _ := c.Uint8()
	flags, _ := c.Uint8()
	pl, _ := c.Uint16()
	mhl, _ := c.Uint8()
	_, _ = c.Uint8() // reserved

	h.NextHeader = UpperProtocol(nh >> 4)
	if h.NextHeader > UpperProtocolIPv6 {
		return h, newError(ErrUnknownHeaderType, "common header", "next header %d", uint8(h.NextHeader))
	}
	ht, err := ParseHeaderType(hst)
	if err != nil {
		return h, err
	}
	h.TypeAndSubtype = ht
	h.TrafficClass = TrafficClass(tc)
	h.Flags = Flags(flags)
	h.PayloadLength = pl
	h.MaximumHopLimit = mhl
	return h, nil
}
