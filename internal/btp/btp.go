// Package btp implements the Basic Transport Protocol header (EN 302 636-5-1)
// carried inside GeoNetworking packets.
package btp

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderLength is the size of both BTP-A and BTP-B headers.
const HeaderLength = 4

var (
	ErrTruncated   = errors.New("btp: payload shorter than header")
	ErrUnknownType = errors.New("btp: unknown header type")
)

// Type distinguishes interactive (A) from non-interactive (B) transport.
type Type uint8

const (
	TypeA Type = 1
	TypeB Type = 2
)

func (t Type) String() string {
	switch t {
	case TypeA:
		return "BTP-A"
	case TypeB:
		return "BTP-B"
	default:
		return fmt.Sprintf("BTP(%d)", uint8(t))
	}
}

// Well-known destination ports (ISO TS 17419).
const (
	PortCAM      uint16 = 2001
	PortDENM     uint16 = 2002
	PortMAPEM    uint16 = 2003
	PortSPATEM   uint16 = 2004
	PortSAEM     uint16 = 2005
	PortIVIM     uint16 = 2006
	PortSREM     uint16 = 2007
	PortSSEM     uint16 = 2008
	PortCPM      uint16 = 2009
	PortEVCSNPOI uint16 = 2010
)

var portNames = map[uint16]string{
	PortCAM:      "CAM",
	PortDENM:     "DENM",
	PortMAPEM:    "MAPEM",
	PortSPATEM:   "SPATEM",
	PortSAEM:     "SAEM",
	PortIVIM:     "IVIM",
	PortSREM:     "SREM",
	PortSSEM:     "SSEM",
	PortCPM:      "CPM",
	PortEVCSNPOI: "EVCSN-POI",
}

// PortName returns the service name for a well-known port, or "" if unknown.
func PortName(port uint16) string { return portNames[port] }

// Packet is one BTP datagram.
type Packet struct {
	Type            Type
	DestinationPort uint16
	// SourcePort is set for BTP-A only.
	SourcePort uint16
	// DestinationPortInfo is set for BTP-B only.
	DestinationPortInfo uint16
	Payload             []byte
}

// Parse splits a BTP header off b. Payload aliases b.
func Parse(t Type, b []byte) (Packet, error) {
	if t != TypeA && t != TypeB {
		return Packet{}, fmt.Errorf("%w: %d", ErrUnknownType, uint8(t))
	}
	if len(b) < HeaderLength {
		return Packet{}, fmt.Errorf("%w: %d bytes", ErrTruncated, len(b))
	}
	p := Packet{
		Type:            t,
		DestinationPort: binary.BigEndian.Uint16(b[0:2]),
		Payload:         b[HeaderLength:],
	}
	second := binary.BigEndian.Uint16(b[2:4])
	if t == TypeA {
		p.SourcePort = second
	} else {
		p.DestinationPortInfo = second
	}
	return p, nil
}
