package geonet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDestinationHeaderTypeRoundTrip(t *testing.T) {
	center := NewPosition(57.7, 11.9)
	areas := []Area{
		NewCircle(center, 100),
		NewRectangle(center, 100, 50, 30),
		NewEllipse(center, 100, 50, 30),
	}
	for _, anycast := range []bool{false, true} {
		for _, area := range areas {
			dest := NewGeobroadcast(area)
			if anycast {
				dest = NewGeoanycast(area)
			}
			ht := dest.TypeAndSubtype()
			assert.True(t, ht.IsGeoAddressed())
			assert.Equal(t, anycast, ht.IsAnycast())

			shape, err := AreaShapeOf(ht)
			require.NoError(t, err)
			assert.Equal(t, area.Shape, shape, "%v", ht)
		}
	}
}

func TestAreaShapeOfRejectsNonGeoTypes(t *testing.T) {
	_, err := AreaShapeOf(HeaderTypeSingleHop)
	assert.ErrorIs(t, err, ErrUnknownHeaderType)
	_, err = AreaShapeOf(HeaderType(0x43))
	assert.ErrorIs(t, err, ErrUnknownHeaderType)
}

func TestGeobroadcastIsComparable(t *testing.T) {
	area := NewCircle(Position{Lat: 1, Lon: 2}, 3)
	a := NewGeobroadcast(area).WithMaxHopLimit(5).WithMaxLifetimeSeconds(60)
	b := NewGeobroadcast(area).WithMaxLifetimeSeconds(60).WithMaxHopLimit(5)
	assert.True(t, a == b)
	assert.False(t, a == b.WithRemainingHopLimit(1))
	assert.False(t, a == NewGeoanycast(area).WithMaxHopLimit(5).WithMaxLifetimeSeconds(60))

	seen := map[Destination]int{a: 1}
	assert.Equal(t, 1, seen[b])
}

func TestGeobroadcastWithLeavesOriginal(t *testing.T) {
	g := NewGeobroadcast(NewCircle(Position{}, 10))
	_ = g.WithRemainingHopLimit(3)
	assert.False(t, g.RemainingHopLimit().IsPresent())
	assert.Equal(t, uint8(7), g.MaxHopLimit().OrElse(7))
}

func TestParseArea(t *testing.T) {
	in := []byte{
		0x24, 0x72, 0x11, 0x00,
		0x05, 0x31, 0x2d, 0xe0,
		0x00, 0xc8, 0x00, 0x64, 0x00, 0x2d,
	}
	a, err := ParseArea(NewCursor(in), AreaEllipse)
	require.NoError(t, err)
	assert.Equal(t, NewEllipse(Position{Lat: 0x24721100, Lon: 0x05312de0}, 200, 100, 45), a)

	_, err = ParseArea(NewCursor(in[:13]), AreaCircle)
	assert.ErrorIs(t, err, ErrTruncated)
	_, err = ParseArea(NewCursor(in), AreaShape(3))
	assert.ErrorIs(t, err, ErrUnknownHeaderType)
}

func TestPacketIDNormalisesTime(t *testing.T) {
	now := time.Now()
	a := NewPacketID(now.Local(), 7, 0xabc)
	b := NewPacketID(now, 7, 0xabc)
	assert.True(t, a == b)
	assert.True(t, a.Equal(b))
	assert.Equal(t, RelayKey{Sender: 0xabc, SequenceNumber: 7}, a.RelayKey())
	assert.False(t, a.Equal(NewPacketID(now, 8, 0xabc)))
}

func TestGeonetDataBTP(t *testing.T) {
	dest := NewGeobroadcast(NewCircle(Position{}, 1))
	d := NewGeonetData(UpperProtocolBTPB, dest, None[TrafficClass](), None[LongPositionVector](),
		[]byte{0x07, 0xd2, 0x00, 0x00, 0x01})
	p, err := d.BTP()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, p.Payload)

	d.UpperProtocol = UpperProtocolAny
	_, err = d.BTP()
	assert.ErrorIs(t, err, ErrUnknownHeaderType)
}
