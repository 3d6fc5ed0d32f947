package geonet

import "time"

// PacketID identifies a received geo-addressed packet. Values built with
// NewPacketID hold a normalised timestamp, so == is structural and PacketID can key
// a map.
type PacketID struct {
	ReceivedAt     time.Time
	SequenceNumber uint16
	Sender         Address
}

// NewPacketID strips the monotonic clock reading and location from receivedAt.
func NewPacketID(receivedAt time.Time, seq uint16, sender Address) PacketID {
	return PacketID{ReceivedAt: receivedAt.Round(0).UTC(), SequenceNumber: seq, Sender: sender}
}

// Equal compares all three fields; ReceivedAt is compared with time.Time.Equal.
func (p PacketID) Equal(o PacketID) bool {
	return p.ReceivedAt.Equal(o.ReceivedAt) && p.SequenceNumber == o.SequenceNumber && p.Sender == o.Sender
}

// RelayKey identifies the same packet across relays: the sender and its sequence
// number, without the local receive time.
type RelayKey struct {
	Sender         Address
	SequenceNumber uint16
}

func (p PacketID) RelayKey() RelayKey {
	return RelayKey{Sender: p.Sender, SequenceNumber: p.SequenceNumber}
}

// DuplicateFilter remembers recently seen packets. Seen records id and reports
// whether an equivalent packet was already recorded. Implementations must be safe
// for concurrent use.
type DuplicateFilter interface {
	Seen(id PacketID) bool
}
