// Package denm reads the ITS PDU header of Decentralized Environmental
// Notification Messages and selects the schema generation they were encoded with.
//
// Only the header is decoded; the UPER body is kept as raw bytes for an external
// ASN.1 codec.
package denm

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderLength is the byte-aligned size of the ItsPduHeader in UPER:
// protocolVersion(8) messageID(8) stationID(32).
const HeaderLength = 6

// MessageIDDENM is the ItsPduHeader messageID of a DENM.
const MessageIDDENM = 1

var (
	ErrTruncated          = errors.New("denm: message shorter than header")
	ErrNotDENM            = errors.New("denm: not a DENM")
	ErrUnsupportedVersion = errors.New("denm: unsupported protocol version")
)

// Schema is the DENM schema generation selected from the protocol version.
type Schema uint8

const (
	// SchemaV1 is EN 302 637-3 v1.2.x (protocolVersion 1).
	SchemaV1 Schema = 1
	// SchemaV2 is EN 302 637-3 v1.3.x (protocolVersion 2).
	SchemaV2 Schema = 2
)

func (s Schema) String() string {
	switch s {
	case SchemaV1:
		return "DENMv1"
	case SchemaV2:
		return "DENMv2"
	default:
		return fmt.Sprintf("Schema(%d)", uint8(s))
	}
}

// Header is the ItsPduHeader common to all CAM/DENM-family messages.
type Header struct {
	ProtocolVersion uint8
	MessageID       uint8
	StationID       uint32
}

// Message is a DENM whose header has been decoded.
type Message struct {
	Header Header
	Schema Schema
	// Body holds the remaining UPER-encoded containers, starting right after the header.
	Body []byte
}

// StationID returns the originating station of the message.
func (m *Message) StationID() uint32 { return m.Header.StationID }

// ParseHeader reads the ItsPduHeader from b.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderLength {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrTruncated, len(b))
	}
	return Header{
		ProtocolVersion: b[0],
		MessageID:       b[1],
		StationID:       binary.BigEndian.Uint32(b[2:6]),
	}, nil
}

// Decoder selects the DENM schema from the embedded protocol version.
// It is stateless and safe for concurrent use.
type Decoder struct{}

func NewDecoder() *Decoder { return &Decoder{} }

// Decode parses payload into a Message. The body is copied.
func (d *Decoder) Decode(payload []byte) (*Message, error) {
	h, err := ParseHeader(payload)
	if err != nil {
		return nil, err
	}
	if h.MessageID != MessageIDDENM {
		return nil, fmt.Errorf("%w: messageID %d", ErrNotDENM, h.MessageID)
	}
	var schema Schema
	switch h.ProtocolVersion {
	case 1:
		schema = SchemaV1
	case 2:
		schema = SchemaV2
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.ProtocolVersion)
	}
	body := make([]byte, len(payload)-HeaderLength)
	copy(body, payload[HeaderLength:])
	return &Message{Header: h, Schema: schema, Body: body}, nil
}

// DecodeMessage lets Decoder serve as the GeoNetworking upper-layer decoder.
func (d *Decoder) DecodeMessage(payload []byte) (any, error) {
	return d.Decode(payload)
}
