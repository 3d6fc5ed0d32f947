package geonet

import (
	"errors"
	"fmt"
	"time"

	"firestige.xyz/geonet/internal/btp"
	"firestige.xyz/geonet/internal/log"
)

// EtherType is the link-layer protocol number assigned to GeoNetworking.
const EtherType = 0x8947

// Config is the read-only configuration of a Decoder.
type Config struct {
	// ExpectedVersion is the GeoNetworking protocol version accepted in the Basic Header.
	ExpectedVersion uint8
}

// MessageDecoder decodes the application payload carried by BTP.
type MessageDecoder interface {
	DecodeMessage(payload []byte) (any, error)
}

// MessageDecoderFunc adapts a function to MessageDecoder.
type MessageDecoderFunc func(payload []byte) (any, error)

func (f MessageDecoderFunc) DecodeMessage(payload []byte) (any, error) { return f(payload) }

// Indication is the full record of one successfully decoded frame.
type Indication struct {
	Basic          BasicHeader
	Security       Option[SecuredPacket]
	Common         CommonHeader
	SequenceNumber uint16
	Data           GeonetData
	Transport      btp.Packet
	PacketID       PacketID
	// Message is the upper-layer decoder's result; nil when no decoder is configured.
	Message any
}

// Decoder turns GeoNetworking frames into indications. It holds no mutable state
// of its own and may be shared by any number of goroutines, provided the injected
// collaborators are themselves safe for concurrent use.
type Decoder struct {
	cfg        Config
	messages   MessageDecoder
	duplicates DuplicateFilter
	logger     log.Logger
	now        func() time.Time
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

func WithLogger(l log.Logger) DecoderOption {
	return func(d *Decoder) { d.logger = l }
}

// WithDuplicateFilter enables duplicate suppression for geo-addressed packets.
func WithDuplicateFilter(f DuplicateFilter) DecoderOption {
	return func(d *Decoder) { d.duplicates = f }
}

// WithClock overrides the receive-time source used for packet ids.
func WithClock(now func() time.Time) DecoderOption {
	return func(d *Decoder) { d.now = now }
}

// NewDecoder returns a decoder handing payloads to messages. messages may be nil, in
// which case indications carry no Message.
func NewDecoder(cfg Config, messages MessageDecoder, opts ...DecoderOption) *Decoder {
	d := &Decoder{
		cfg:      cfg,
		messages: messages,
		logger:   log.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DecodeGeoNetworking is the lenient entry point: it returns the upper-layer
// message, or nil when the frame is ignored, duplicated, malformed or of another
// protocol version. Failures are logged, never returned.
func (d *Decoder) DecodeGeoNetworking(frame []byte) any {
	ind, err := d.Decode(frame)
	if err != nil {
		d.logFailure(len(frame), err)
		return nil
	}
	if ind == nil {
		return nil
	}
	return ind.Message
}

func (d *Decoder) logFailure(size int, err error) {
	l := d.logger.WithFields(map[string]interface{}{
		"frame_len": size,
		"reason":    Reason(err),
	})
	switch {
	case errors.Is(err, ErrProtocolVersionMismatch):
		l.Warnf("unrecognized protocol version: %v", err)
	case errors.Is(err, ErrDuplicatePacket):
		l.Debugf("dropping duplicate: %v", err)
	default:
		l.WithError(err).Warn("can't parse the packet, ignoring")
	}
}

// Decode is the strict entry point. It returns the decoded indication, (nil, nil)
// for header types that are deliberately not processed, or an error whose kind is
// one of the package's Err values.
func (d *Decoder) Decode(frame []byte) (*Indication, error) {
	return d.DecodeAt(frame, d.now())
}

// DecodeAt is Decode with an explicit receive time, e.g. a capture timestamp.
func (d *Decoder) DecodeAt(frame []byte, receivedAt time.Time) (*Indication, error) {
	if d.logger.IsDebugEnabled() {
		d.logger.Debugf("GN received payload of size %d", len(frame))
	}
	c := NewCursor(frame)

	basic, err := ParseBasicHeader(c)
	if err != nil {
		return nil, err
	}
	if basic.Version != d.cfg.ExpectedVersion {
		return nil, newError(ErrProtocolVersionMismatch, "basic header", "version %d, want %d", basic.Version, d.cfg.ExpectedVersion)
	}
	if err := basic.validNextHeader(); err != nil {
		return nil, err
	}

	ind := &Indication{Basic: basic}
	if basic.NextHeader == NextHeaderSecuredPacket {
		sp, inner, err := ParseSecuredPacket(c)
		if err != nil {
			return nil, err
		}
		if d.logger.IsDebugEnabled() {
			d.logger.Debugf("secured packet v%d choice=%d hashId=%d opt=%d vsn2=%d choice2=%d plen=%d",
				sp.Version, sp.ContentChoice, sp.HashID, sp.PayloadOpt, sp.InnerVersion, sp.InnerChoice, sp.Length)
		}
		ind.Security = Some(sp)
		c = inner
	}

	common, err := ParseCommonHeader(c)
	if err != nil {
		return nil, err
	}
	ind.Common = common

	switch ht := common.TypeAndSubtype; ht {
	case HeaderTypeSingleHop:
		return d.ignore(ht, "single-hop broadcast")
	case HeaderTypeMultiHop:
		return d.ignore(ht, "topologically-scoped broadcast")
	case HeaderTypeBeacon:
		return d.ignore(ht, "beacon")
	case HeaderTypeLSRequest, HeaderTypeLSReply:
		// No location table is maintained.
		return d.ignore(ht, "location service")
	case HeaderTypeGeoUnicast:
		return d.ignore(ht, "geounicast")
	case HeaderTypeAny:
		return d.ignore(ht, "any")
	case HeaderTypeGeoBroadcastCircle, HeaderTypeGeoBroadcastRectangle, HeaderTypeGeoBroadcastEllipse,
		HeaderTypeGeoAnycastCircle, HeaderTypeGeoAnycastRectangle, HeaderTypeGeoAnycastEllipse:
		if err := d.decodeGeoAddressed(c, ind, receivedAt); err != nil {
			return nil, err
		}
		return ind, nil
	default:
		return nil, newError(ErrUnknownHeaderType, "dispatch", "%v", ht)
	}
}

func (d *Decoder) ignore(ht HeaderType, what string) (*Indication, error) {
	if d.logger.IsDebugEnabled() {
		d.logger.WithField("header_type", ht.String()).Debugf("ignoring %s", what)
	}
	return nil, nil
}

// decodeGeoAddressed handles GBC/GAC: the extended header, the payload slice and
// the hand-off to the transport and application layers.
func (d *Decoder) decodeGeoAddressed(c *Cursor, ind *Indication, receivedAt time.Time) error {
	common := ind.Common
	seq, err := c.Uint16()
	if err != nil {
		return fmt.Errorf("extended header: %w", err)
	}
	if err := c.Skip(2); err != nil { // reserved
		return fmt.Errorf("extended header: %w", err)
	}
	sender, err := ParseLongPositionVector(c)
	if err != nil {
		return err
	}
	shape, err := AreaShapeOf(common.TypeAndSubtype)
	if err != nil {
		return err
	}
	area, err := ParseArea(c, shape)
	if err != nil {
		return err
	}
	if err := c.Skip(2); err != nil { // reserved
		return fmt.Errorf("extended header: %w", err)
	}

	declared := int(common.PayloadLength)
	if declared > c.Remaining() {
		return newError(ErrPayloadLengthExceedsBuffer, "payload",
			"%v declares %d bytes, %d remaining", common.TypeAndSubtype, declared, c.Remaining())
	}
	payload, _ := c.Bytes(declared)

	dest := NewGeobroadcast(area)
	if common.TypeAndSubtype.IsAnycast() {
		dest = NewGeoanycast(area)
	}
	dest = dest.
		WithMaxLifetimeSeconds(ind.Basic.Lifetime.AsSeconds()).
		WithRemainingHopLimit(ind.Basic.RemainingHopLimit).
		WithMaxHopLimit(common.MaximumHopLimit)

	ind.SequenceNumber = seq
	ind.Data = NewGeonetData(common.NextHeader, dest, Some(common.TrafficClass), Some(sender), payload)
	ind.PacketID = NewPacketID(receivedAt, seq, sender.Address)

	pkt, err := ind.Data.BTP()
	if err != nil {
		return err
	}
	// Only packets that de-encapsulate are recorded as seen.
	if d.duplicates != nil && d.duplicates.Seen(ind.PacketID) {
		return newError(ErrDuplicatePacket, "dedup", "sender %v sequence %d", sender.Address, seq)
	}
	ind.Transport = pkt
	if d.logger.IsDebugEnabled() {
		d.logger.WithFields(map[string]interface{}{
			"header_type": common.TypeAndSubtype.String(),
			"sequence":    seq,
			"sender":      sender.Address.String(),
			"btp_port":    pkt.DestinationPort,
		}).Debugf("de-encapsulated %d byte %s payload", len(pkt.Payload), btp.PortName(pkt.DestinationPort))
	}

	if d.messages == nil {
		return nil
	}
	msg, err := d.decodeMessage(pkt.Payload)
	if err != nil {
		return err
	}
	ind.Message = msg
	return nil
}

func (d *Decoder) decodeMessage(payload []byte) (msg any, err error) {
	defer func() {
		if r := recover(); r != nil {
			msg, err = nil, newError(ErrUpperLayerDecode, "message", "decoder panic: %v", r)
		}
	}()
	msg, err = d.messages.DecodeMessage(payload)
	if err != nil {
		return nil, fmt.Errorf("geonet: message: %w: %w", ErrUpperLayerDecode, err)
	}
	return msg, nil
}
