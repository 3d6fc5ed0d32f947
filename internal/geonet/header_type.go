package geonet

import "fmt"

// HeaderType is the combined Common Header type (high nibble) and subtype (low nibble).
type HeaderType uint8

const (
	HeaderTypeAny                   HeaderType = 0x00
	HeaderTypeBeacon                HeaderType = 0x10
	HeaderTypeGeoUnicast            HeaderType = 0x20
	HeaderTypeGeoAnycastCircle      HeaderType = 0x30
	HeaderTypeGeoAnycastRectangle   HeaderType = 0x31
	HeaderTypeGeoAnycastEllipse     HeaderType = 0x32
	HeaderTypeGeoBroadcastCircle    HeaderType = 0x40
	HeaderTypeGeoBroadcastRectangle HeaderType = 0x41
	HeaderTypeGeoBroadcastEllipse   HeaderType = 0x42
	HeaderTypeSingleHop             HeaderType = 0x50
	HeaderTypeMultiHop              HeaderType = 0x51
	HeaderTypeLSRequest             HeaderType = 0x60
	HeaderTypeLSReply               HeaderType = 0x61
)

var headerTypeNames = map[HeaderType]string{
	HeaderTypeAny:                   "ANY",
	HeaderTypeBeacon:                "BEACON",
	HeaderTypeGeoUnicast:            "GEOUNICAST",
	HeaderTypeGeoAnycastCircle:      "GEOANYCAST_CIRCLE",
	HeaderTypeGeoAnycastRectangle:   "GEOANYCAST_RECTANGLE",
	HeaderTypeGeoAnycastEllipse:     "GEOANYCAST_ELLIPSE",
	HeaderTypeGeoBroadcastCircle:    "GEOBROADCAST_CIRCLE",
	HeaderTypeGeoBroadcastRectangle: "GEOBROADCAST_RECTANGLE",
	HeaderTypeGeoBroadcastEllipse:   "GEOBROADCAST_ELLIPSE",
	HeaderTypeSingleHop:             "SINGLE_HOP",
	HeaderTypeMultiHop:              "MULTI_HOP",
	HeaderTypeLSRequest:             "LOCATION_SERVICE_REQUEST",
	HeaderTypeLSReply:               "LOCATION_SERVICE_REPLY",
}

// ParseHeaderType validates a raw HT|HST byte.
func ParseHeaderType(b uint8) (HeaderType, error) {
	ht := HeaderType(b)
	if _, ok := headerTypeNames[ht]; !ok {
		return 0, newError(ErrUnknownHeaderType, "common header", "type %d subtype %d", b>>4, b&0x0f)
	}
	return ht, nil
}

// Type returns the header type nibble.
func (h HeaderType) Type() uint8 { return uint8(h) >> 4 }

// Subtype returns the header subtype nibble.
func (h HeaderType) Subtype() uint8 { return uint8(h) & 0x0f }

// IsGeoAddressed reports whether packets of this type carry an Area.
func (h HeaderType) IsGeoAddressed() bool {
	t := h.Type()
	return t == HeaderTypeGeoAnycastCircle.Type() || t == HeaderTypeGeoBroadcastCircle.Type()
}

// IsAnycast reports whether h is one of the GEOANYCAST types.
func (h HeaderType) IsAnycast() bool {
	return h.Type() == HeaderTypeGeoAnycastCircle.Type()
}

func (h HeaderType) String() string {
	if s, ok := headerTypeNames[h]; ok {
		return s
	}
	return fmt.Sprintf("HeaderType(0x%02x)", uint8(h))
}
