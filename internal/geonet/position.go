package geonet

import (
	"encoding/binary"
	"fmt"
	"net"
)

// LongPositionVectorLength is the encoded size of a Long Position Vector.
const LongPositionVectorLength = 24

// StationType is the ITS station type carried in a GN address.
type StationType uint8

const (
	StationTypeUnknown        StationType = 0
	StationTypePedestrian     StationType = 1
	StationTypeCyclist        StationType = 2
	StationTypeMoped          StationType = 3
	StationTypeMotorcycle     StationType = 4
	StationTypePassengerCar   StationType = 5
	StationTypeBus            StationType = 6
	StationTypeLightTruck     StationType = 7
	StationTypeHeavyTruck     StationType = 8
	StationTypeTrailer        StationType = 9
	StationTypeSpecialVehicle StationType = 10
	StationTypeTram           StationType = 11
	StationTypeRoadSideUnit   StationType = 15
)

// Address is the 64-bit GeoNetworking address of a station.
type Address uint64

// NewAddress packs the address fields; mid is the 48-bit link-layer identifier.
func NewAddress(manual bool, st StationType, countryCode uint16, mid net.HardwareAddr) Address {
	var a uint64
	if manual {
		a |= 1 << 63
	}
	a |= uint64(st&0x1f) << 58
	a |= uint64(countryCode&0x3ff) << 48
	var m [8]byte
	copy(m[2:], mid)
	a |= binary.BigEndian.Uint64(m[:]) & 0xffffffffffff
	return Address(a)
}

func (a Address) IsManual() bool { return a>>63 == 1 }

func (a Address) StationType() StationType { return StationType(a >> 58 & 0x1f) }

func (a Address) CountryCode() uint16 { return uint16(a >> 48 & 0x3ff) }

// MID returns the 48-bit link-layer address part.
func (a Address) MID() net.HardwareAddr {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(a))
	return net.HardwareAddr(b[2:])
}

func (a Address) String() string {
	return fmt.Sprintf("%016x", uint64(a))
}

// Position is a WGS84 point in 1/10 micro-degree units.
type Position struct {
	Lat int32
	Lon int32
}

// NewPosition converts degrees into the wire representation.
func NewPosition(latDeg, lonDeg float64) Position {
	return Position{Lat: int32(latDeg * 1e7), Lon: int32(lonDeg * 1e7)}
}

func (p Position) LatitudeDegrees() float64 { return float64(p.Lat) / 1e7 }

func (p Position) LongitudeDegrees() float64 { return float64(p.Lon) / 1e7 }

func parsePosition(c *Cursor) (Position, error) {
	lat, err := c.Int32()
	if err != nil {
		return Position{}, err
	}
	lon, err := c.Int32()
	if err != nil {
		return Position{}, err
	}
	return Position{Lat: lat, Lon: lon}, nil
}

// LongPositionVector is the sender's position snapshot at send time.
type LongPositionVector struct {
	Address Address
	// Timestamp is in milliseconds, TAI modulo 2^32.
	Timestamp         uint32
	Position          Position
	PositionConfident bool
	// Speed is in 0.01 m/s.
	Speed int16
	// Heading is in 0.1 degree from north.
	Heading uint16
}

// SpeedMetersPerSecond returns the speed in m/s.
func (v LongPositionVector) SpeedMetersPerSecond() float64 { return float64(v.Speed) / 100 }

// HeadingDegrees returns the heading in degrees.
func (v LongPositionVector) HeadingDegrees() float64 { return float64(v.Heading) / 10 }

// ParseLongPositionVector reads a 24-byte Long Position Vector.
func ParseLongPositionVector(c *Cursor) (LongPositionVector, error) {
	var v LongPositionVector
	if c.Remaining() < LongPositionVectorLength {
		return v, fmt.Errorf("position vector: %w",
			newError(ErrTruncated, "read", "need %d bytes, %d remaining", LongPositionVectorLength, c.Remaining()))
	}
	hi, _ := c.Uint32()
	lo, _ := c.Uint32()
	v.Address = Address(uint64(hi)<<32 | uint64(lo))
	v.Timestamp, _ = c.Uint32()
	v.Position, _ = parsePosition(c)
	ps, _ := c.Uint16()
	v.PositionConfident = ps&0x8000 != 0
	// 15-bit two's complement
	v.Speed = int16(ps<<1) >> 1
	v.Heading, _ = c.Uint16()
	return v, nil
}
