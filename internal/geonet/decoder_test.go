package geonet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/geonet/internal/btp"
	"firestige.xyz/geonet/internal/denm"
	"firestige.xyz/geonet/internal/log"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

// stationIDDecoder returns the ITS PDU header stationID as a uint32.
type stationIDDecoder struct {
	calls int
}

func (s *stationIDDecoder) DecodeMessage(payload []byte) (any, error) {
	s.calls++
	if len(payload) < 6 {
		return nil, errors.New("short message")
	}
	return binary.BigEndian.Uint32(payload[2:6]), nil
}

type mapFilter map[RelayKey]bool

func (m mapFilter) Seen(id PacketID) bool {
	k := id.RelayKey()
	if m[k] {
		return true
	}
	m[k] = true
	return false
}

func TestDecodeSecuredDENM(t *testing.T) {
	frame := mustHex(t, securedDENMv2)
	require.Len(t, frame, 463)

	msgs := &stationIDDecoder{}
	d := NewDecoder(Config{ExpectedVersion: 1}, msgs, WithClock(fixedClock))

	ind, err := d.Decode(frame)
	require.NoError(t, err)
	require.NotNil(t, ind)

	assert.Equal(t, uint32(777777777), ind.Message)
	assert.Equal(t, 1, msgs.calls)

	assert.Equal(t, uint8(1), ind.Basic.Version)
	assert.Equal(t, NextHeaderSecuredPacket, ind.Basic.NextHeader)
	assert.Equal(t, time.Second, ind.Basic.Lifetime.Duration())
	assert.Equal(t, uint8(10), ind.Basic.RemainingHopLimit)

	sp, ok := ind.Security.Get()
	require.True(t, ok)
	assert.Equal(t, uint8(SecurityVersion), sp.Version)
	assert.Equal(t, 101, sp.Length)

	assert.Equal(t, UpperProtocolBTPB, ind.Common.NextHeader)
	assert.Equal(t, HeaderTypeGeoBroadcastCircle, ind.Common.TypeAndSubtype)
	assert.Equal(t, uint16(49), ind.Common.PayloadLength)
	assert.True(t, ind.Common.Flags.Mobile())
	assert.Equal(t, uint16(63186), ind.SequenceNumber)

	sender, ok := ind.Data.Sender.Get()
	require.True(t, ok)
	assert.Equal(t, Address(0x140000020337424d), sender.Address)
	assert.Equal(t, StationTypePassengerCar, sender.Address.StationType())
	assert.Equal(t, "00:02:03:37:42:4d", sender.Address.MID().String())
	assert.Equal(t, Position{Lat: 599161200, Lon: 107226300}, sender.Position)
	assert.True(t, sender.PositionConfident)

	gb, ok := ind.Data.Destination.(Geobroadcast)
	require.True(t, ok)
	assert.False(t, gb.IsAnycast())
	assert.Equal(t, NewCircle(Position{Lat: 0x24721100, Lon: 0x05312de0}, 200), gb.Area())
	assert.Equal(t, Some(1.0), gb.MaxLifetimeSeconds())
	assert.Equal(t, Some(uint8(10)), gb.MaxHopLimit())
	assert.Equal(t, Some(uint8(10)), gb.RemainingHopLimit())

	assert.Equal(t, btp.TypeB, ind.Transport.Type)
	assert.Equal(t, uint16(btp.PortDENM), ind.Transport.DestinationPort)
	assert.Len(t, ind.Transport.Payload, 45)

	assert.Equal(t, NewPacketID(fixedTime, 63186, sender.Address), ind.PacketID)
}

func TestDecodeGeoNetworkingDENMSchemas(t *testing.T) {
	tests := []struct {
		name   string
		frame  string
		seq    uint16
		schema denm.Schema
	}{
		{"denm v1", securedDENMv1, 0x586f, denm.SchemaV1},
		{"denm v2", securedDENMv2, 0xf6d2, denm.SchemaV2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(Config{ExpectedVersion: 1}, denm.NewDecoder(), WithClock(fixedClock))
			frame := mustHex(t, tt.frame)

			msg, ok := d.DecodeGeoNetworking(frame).(*denm.Message)
			require.True(t, ok)
			assert.Equal(t, uint32(777777777), msg.StationID())
			assert.Equal(t, tt.schema, msg.Schema)
			assert.Len(t, msg.Body, 39)

			ind, err := d.Decode(frame)
			require.NoError(t, err)
			assert.Equal(t, tt.seq, ind.SequenceNumber)
			assert.Equal(t, HeaderTypeGeoBroadcastCircle, ind.Common.TypeAndSubtype)
		})
	}
}

func TestDecodeGeoNetworkingReturnsMessage(t *testing.T) {
	d := NewDecoder(Config{ExpectedVersion: 1}, &stationIDDecoder{})
	assert.Equal(t, uint32(777777777), d.DecodeGeoNetworking(mustHex(t, securedDENMv2)))
}

func TestDecodeVersionGating(t *testing.T) {
	frame := mustHex(t, securedDENMv2)
	msgs := &stationIDDecoder{}
	d := NewDecoder(Config{ExpectedVersion: 2}, msgs)

	_, err := d.Decode(frame)
	assert.ErrorIs(t, err, ErrProtocolVersionMismatch)
	assert.Nil(t, d.DecodeGeoNetworking(frame))
	assert.Zero(t, msgs.calls)
}

func TestDecodeVersionCheckedBeforeNextHeader(t *testing.T) {
	fb := newFrameBuilder()
	fb.version = 3
	fb.nextHeader = 7

	_, err := NewDecoder(Config{ExpectedVersion: 1}, nil).Decode(fb.bytes())
	assert.ErrorIs(t, err, ErrProtocolVersionMismatch)

	fb.version = 1
	_, err = NewDecoder(Config{ExpectedVersion: 1}, nil).Decode(fb.bytes())
	assert.ErrorIs(t, err, ErrUnknownHeaderType)
}

func TestDecodeIsIdempotent(t *testing.T) {
	frame := mustHex(t, securedDENMv2)
	original := bytes.Clone(frame)
	d := NewDecoder(Config{ExpectedVersion: 1}, &stationIDDecoder{}, WithClock(fixedClock))

	first, err := d.Decode(frame)
	require.NoError(t, err)
	second, err := d.Decode(frame)
	require.NoError(t, err)

	exportAll := cmp.Exporter(func(reflect.Type) bool { return true })
	if diff := cmp.Diff(first, second, exportAll); diff != "" {
		t.Errorf("second decode differs (-first +second):\n%s", diff)
	}
	assert.Equal(t, original, frame, "decoder must not modify its input")
}

func TestDecodePayloadDoesNotAliasFrame(t *testing.T) {
	frame := mustHex(t, securedDENMv2)
	ind, err := NewDecoder(Config{ExpectedVersion: 1}, nil).Decode(frame)
	require.NoError(t, err)

	want := bytes.Clone(ind.Data.Payload)
	for i := range frame {
		frame[i] = 0
	}
	assert.Equal(t, want, ind.Data.Payload)
	assert.Nil(t, ind.Message)
}

func TestDecodeIgnoredHeaderTypes(t *testing.T) {
	for _, ht := range []HeaderType{
		HeaderTypeSingleHop,
		HeaderTypeMultiHop,
		HeaderTypeBeacon,
		HeaderTypeLSRequest,
		HeaderTypeLSReply,
		HeaderTypeGeoUnicast,
		HeaderTypeAny,
	} {
		t.Run(ht.String(), func(t *testing.T) {
			fb := newFrameBuilder()
			fb.headerType = ht
			msgs := &stationIDDecoder{}
			d := NewDecoder(Config{ExpectedVersion: 1}, msgs)

			ind, err := d.Decode(fb.basicAndCommon())
			assert.NoError(t, err)
			assert.Nil(t, ind)
			assert.Nil(t, d.DecodeGeoNetworking(fb.bytes()))
			assert.Zero(t, msgs.calls)
		})
	}
}

func TestDecodeUnknownHeaderType(t *testing.T) {
	fb := newFrameBuilder()
	fb.headerType = 0x70
	_, err := NewDecoder(Config{ExpectedVersion: 1}, nil).Decode(fb.bytes())
	assert.ErrorIs(t, err, ErrUnknownHeaderType)
	assert.Equal(t, "unknown_header_type", Reason(err))
}

func TestDecodeEveryPrefixOfSecuredFrame(t *testing.T) {
	frame := mustHex(t, securedDENMv2)
	// basic(4) + security preamble(6) + length(1) + inner(101)
	const complete = 112
	d := NewDecoder(Config{ExpectedVersion: 1}, &stationIDDecoder{})

	for n := 0; n <= len(frame); n++ {
		ind, err := d.Decode(frame[:n])
		if n < complete {
			require.ErrorIs(t, err, ErrTruncated, "prefix %d", n)
			require.Nil(t, ind, "prefix %d", n)
			require.Nil(t, d.DecodeGeoNetworking(frame[:n]), "prefix %d", n)
			continue
		}
		require.NoError(t, err, "prefix %d", n)
		require.Equal(t, uint32(777777777), ind.Message, "prefix %d", n)
	}
}

func TestDecodePayloadLengthExceedsBuffer(t *testing.T) {
	fb := newFrameBuilder()
	fb.declaredLen = len(fb.payload) + 1
	msgs := &stationIDDecoder{}
	d := NewDecoder(Config{ExpectedVersion: 1}, msgs)

	_, err := d.Decode(fb.bytes())
	assert.ErrorIs(t, err, ErrPayloadLengthExceedsBuffer)
	assert.Zero(t, msgs.calls)
}

func TestDecodeTrailingBytesBeyondPayload(t *testing.T) {
	fb := newFrameBuilder()
	fb.declaredLen = 6
	ind, err := NewDecoder(Config{ExpectedVersion: 1}, nil).Decode(fb.bytes())
	require.NoError(t, err)
	assert.Equal(t, fb.payload[:6], ind.Data.Payload)
	assert.Equal(t, []byte{0x02, 0x01}, ind.Transport.Payload)
}

func TestDecodeGeoAnycast(t *testing.T) {
	tests := []struct {
		ht   HeaderType
		area Area
	}{
		{HeaderTypeGeoAnycastCircle, NewCircle(Position{Lat: 100, Lon: 200}, 50)},
		{HeaderTypeGeoAnycastRectangle, NewRectangle(Position{Lat: -100, Lon: 200}, 50, 60, 90)},
		{HeaderTypeGeoAnycastEllipse, NewEllipse(Position{Lat: 100, Lon: -200}, 70, 30, 45)},
		{HeaderTypeGeoBroadcastRectangle, NewRectangle(Position{Lat: 1, Lon: 2}, 3, 4, 5)},
		{HeaderTypeGeoBroadcastEllipse, NewEllipse(Position{Lat: 1, Lon: 2}, 3, 4, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.ht.String(), func(t *testing.T) {
			fb := newFrameBuilder()
			fb.headerType = tt.ht
			fb.area = tt.area

			ind, err := NewDecoder(Config{ExpectedVersion: 1}, nil).Decode(fb.bytes())
			require.NoError(t, err)
			gb := ind.Data.Destination.(Geobroadcast)
			assert.Equal(t, tt.ht.IsAnycast(), gb.IsAnycast())
			assert.Equal(t, tt.area, gb.Area())
			assert.Equal(t, tt.ht, ind.Data.Destination.TypeAndSubtype())
		})
	}
}

func TestDecodeBTPA(t *testing.T) {
	fb := newFrameBuilder()
	fb.upper = UpperProtocolBTPA
	fb.payload = []byte{0x07, 0xd1, 0x04, 0x00, 0xaa}

	ind, err := NewDecoder(Config{ExpectedVersion: 1}, nil).Decode(fb.bytes())
	require.NoError(t, err)
	assert.Equal(t, btp.TypeA, ind.Transport.Type)
	assert.Equal(t, uint16(btp.PortCAM), ind.Transport.DestinationPort)
	assert.Equal(t, uint16(0x0400), ind.Transport.SourcePort)
	assert.Equal(t, []byte{0xaa}, ind.Transport.Payload)
}

func TestDecodeNonBTPUpperProtocol(t *testing.T) {
	fb := newFrameBuilder()
	fb.upper = UpperProtocolIPv6
	_, err := NewDecoder(Config{ExpectedVersion: 1}, nil).Decode(fb.bytes())
	assert.ErrorIs(t, err, ErrUnknownHeaderType)
}

func TestDecodeShortBTPHeader(t *testing.T) {
	fb := newFrameBuilder()
	fb.payload = []byte{0x07, 0xd2}
	_, err := NewDecoder(Config{ExpectedVersion: 1}, nil).Decode(fb.bytes())
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeDuplicates(t *testing.T) {
	frame := newFrameBuilder().bytes()
	msgs := &stationIDDecoder{}
	d := NewDecoder(Config{ExpectedVersion: 1}, msgs, WithDuplicateFilter(mapFilter{}))

	ind, err := d.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, uint32(12345), ind.Message)

	_, err = d.Decode(frame)
	assert.ErrorIs(t, err, ErrDuplicatePacket)
	assert.Nil(t, d.DecodeGeoNetworking(frame))
	assert.Equal(t, 1, msgs.calls)

	fb := newFrameBuilder()
	fb.seq++
	_, err = d.Decode(fb.bytes())
	assert.NoError(t, err)
}

func TestDecodeMalformedBTPNotRecordedAsSeen(t *testing.T) {
	short := newFrameBuilder()
	short.payload = []byte{0x07, 0xd2}

	msgs := &stationIDDecoder{}
	seen := mapFilter{}
	d := NewDecoder(Config{ExpectedVersion: 1}, msgs, WithDuplicateFilter(seen))

	_, err := d.Decode(short.bytes())
	require.ErrorIs(t, err, ErrTruncated)
	assert.Empty(t, seen)

	// same sender and sequence number, well-formed this time
	ind, err := d.Decode(newFrameBuilder().bytes())
	require.NoError(t, err)
	assert.Equal(t, uint32(12345), ind.Message)
	assert.Len(t, seen, 1)
	assert.Equal(t, 1, msgs.calls)
}

func TestDecodeUpperLayerFailures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		fn   MessageDecoderFunc
	}{
		{"error", func([]byte) (any, error) { return nil, boom }},
		{"panic", func([]byte) (any, error) { panic("index out of range") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(Config{ExpectedVersion: 1}, tt.fn)
			_, err := d.Decode(newFrameBuilder().bytes())
			assert.ErrorIs(t, err, ErrUpperLayerDecode)
			assert.Equal(t, "upper_layer", Reason(err))
			assert.Nil(t, d.DecodeGeoNetworking(newFrameBuilder().bytes()))
		})
	}

	d := NewDecoder(Config{ExpectedVersion: 1}, tests[0].fn)
	_, err := d.Decode(newFrameBuilder().bytes())
	assert.ErrorIs(t, err, boom)
}

func TestDecodeGeoNetworkingLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	logger, err := log.New(&log.LoggerConfig{Level: "info", Pattern: "[%level] %msg %field"}, &buf)
	require.NoError(t, err)

	fb := newFrameBuilder()
	fb.declaredLen = 500
	d := NewDecoder(Config{ExpectedVersion: 1}, nil, WithLogger(logger))
	assert.Nil(t, d.DecodeGeoNetworking(fb.bytes()))

	out := buf.String()
	assert.Contains(t, out, "[WARNING] can't parse the packet, ignoring")
	assert.Contains(t, out, "reason=payload_length")
}

func TestDecodeAtUsesGivenTime(t *testing.T) {
	at := fixedTime.Add(time.Hour)
	ind, err := NewDecoder(Config{ExpectedVersion: 1}, nil, WithClock(fixedClock)).DecodeAt(newFrameBuilder().bytes(), at)
	require.NoError(t, err)
	assert.True(t, ind.PacketID.ReceivedAt.Equal(at))
}
