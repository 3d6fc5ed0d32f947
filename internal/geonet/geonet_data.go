package geonet

import "firestige.xyz/geonet/internal/btp"

// GeonetData is what the network layer hands to the transport layer.
type GeonetData struct {
	UpperProtocol UpperProtocol
	Destination   Destination
	TrafficClass  Option[TrafficClass]
	Sender        Option[LongPositionVector]
	// Payload is owned by the value; it never aliases the received frame.
	Payload []byte
}

// NewGeonetData copies payload so the result outlives the source buffer.
func NewGeonetData(proto UpperProtocol, dest Destination, tc Option[TrafficClass], sender Option[LongPositionVector], payload []byte) GeonetData {
	owned := make([]byte, len(payload))
	copy(owned, payload)
	return GeonetData{
		UpperProtocol: proto,
		Destination:   dest,
		TrafficClass:  tc,
		Sender:        sender,
		Payload:       owned,
	}
}

// BTP extracts the transport packet. Only BTP-A and BTP-B are understood.
func (d GeonetData) BTP() (btp.Packet, error) {
	var t btp.Type
	switch d.UpperProtocol {
	case UpperProtocolBTPA:
		t = btp.TypeA
	case UpperProtocolBTPB:
		t = btp.TypeB
	default:
		return btp.Packet{}, newError(ErrUnknownHeaderType, "btp", "upper protocol %v", d.UpperProtocol)
	}
	p, err := btp.Parse(t, d.Payload)
	if err != nil {
		return btp.Packet{}, newError(ErrTruncated, "btp", "%v", err)
	}
	return p, nil
}
