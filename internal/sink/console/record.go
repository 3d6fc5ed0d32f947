package console

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"google.golang.org/protobuf/types/known/structpb"

	"firestige.xyz/geonet/internal/btp"
	"firestige.xyz/geonet/internal/denm"
	"firestige.xyz/geonet/internal/geonet"
)

// Record is the flat output form of an indication. Fields use only types that
// map directly onto JSON, YAML and protobuf Struct values.
type Record struct {
	ReceivedAt     string  `json:"received_at" yaml:"received_at" mapstructure:"received_at"`
	HeaderType     string  `json:"header_type" yaml:"header_type" mapstructure:"header_type"`
	Secured        bool    `json:"secured" yaml:"secured" mapstructure:"secured"`
	SequenceNumber int64   `json:"sequence_number" yaml:"sequence_number" mapstructure:"sequence_number"`
	Sender         string  `json:"sender" yaml:"sender" mapstructure:"sender"`
	StationType    int64   `json:"station_type" yaml:"station_type" mapstructure:"station_type"`
	Latitude       float64 `json:"latitude" yaml:"latitude" mapstructure:"latitude"`
	Longitude      float64 `json:"longitude" yaml:"longitude" mapstructure:"longitude"`
	Speed          float64 `json:"speed_mps" yaml:"speed_mps" mapstructure:"speed_mps"`
	Heading        float64 `json:"heading_deg" yaml:"heading_deg" mapstructure:"heading_deg"`
	Anycast        bool    `json:"anycast" yaml:"anycast" mapstructure:"anycast"`
	AreaShape      string  `json:"area_shape" yaml:"area_shape" mapstructure:"area_shape"`
	AreaLatitude   float64 `json:"area_latitude" yaml:"area_latitude" mapstructure:"area_latitude"`
	AreaLongitude  float64 `json:"area_longitude" yaml:"area_longitude" mapstructure:"area_longitude"`
	AreaDistanceA  int64   `json:"area_distance_a" yaml:"area_distance_a" mapstructure:"area_distance_a"`
	AreaDistanceB  int64   `json:"area_distance_b" yaml:"area_distance_b" mapstructure:"area_distance_b"`
	AreaAngle      int64   `json:"area_angle" yaml:"area_angle" mapstructure:"area_angle"`
	Lifetime       float64 `json:"lifetime_s" yaml:"lifetime_s" mapstructure:"lifetime_s"`
	RemainingHops  int64   `json:"remaining_hops" yaml:"remaining_hops" mapstructure:"remaining_hops"`
	MaxHops        int64   `json:"max_hops" yaml:"max_hops" mapstructure:"max_hops"`
	Transport      string  `json:"transport" yaml:"transport" mapstructure:"transport"`
	Port           int64   `json:"port" yaml:"port" mapstructure:"port"`
	Service        string  `json:"service,omitempty" yaml:"service,omitempty" mapstructure:"service"`
	StationID      int64   `json:"station_id,omitempty" yaml:"station_id,omitempty" mapstructure:"station_id"`
	Schema         string  `json:"schema,omitempty" yaml:"schema,omitempty" mapstructure:"schema"`
	Payload        string  `json:"payload" yaml:"payload" mapstructure:"payload"`
}

// NewRecord flattens ind.
func NewRecord(ind *geonet.Indication) Record {
	r := Record{
		ReceivedAt:     ind.PacketID.ReceivedAt.Format(time.RFC3339Nano),
		HeaderType:     ind.Common.TypeAndSubtype.String(),
		Secured:        ind.Security.IsPresent(),
		SequenceNumber: int64(ind.SequenceNumber),
		Transport:      ind.Transport.Type.String(),
		Port:           int64(ind.Transport.DestinationPort),
		Service:        btp.PortName(ind.Transport.DestinationPort),
		Payload:        hex.EncodeToString(ind.Transport.Payload),
	}
	if s, ok := ind.Data.Sender.Get(); ok {
		r.Sender = s.Address.String()
		r.StationType = int64(s.Address.StationType())
		r.Latitude = s.Position.LatitudeDegrees()
		r.Longitude = s.Position.LongitudeDegrees()
		r.Speed = s.SpeedMetersPerSecond()
		r.Heading = s.HeadingDegrees()
	}
	if gb, ok := ind.Data.Destination.(geonet.Geobroadcast); ok {
		a := gb.Area()
		r.Anycast = gb.IsAnycast()
		r.AreaShape = a.Shape.String()
		r.AreaLatitude = a.Center.LatitudeDegrees()
		r.AreaLongitude = a.Center.LongitudeDegrees()
		r.AreaDistanceA = int64(a.DistanceA)
		r.AreaDistanceB = int64(a.DistanceB)
		r.AreaAngle = int64(a.Angle)
		r.Lifetime = gb.MaxLifetimeSeconds().OrElse(0)
		r.RemainingHops = int64(gb.RemainingHopLimit().OrElse(0))
		r.MaxHops = int64(gb.MaxHopLimit().OrElse(0))
	}
	switch m := ind.Message.(type) {
	case *denm.Message:
		r.StationID = int64(m.StationID())
		r.Schema = m.Schema.String()
	case interface{ StationID() uint32 }:
		r.StationID = int64(m.StationID())
	}
	return r
}

// Map returns the record as a field map keyed like the JSON form.
func (r Record) Map() (map[string]interface{}, error) {
	m := make(map[string]interface{})
	if err := mapstructure.Decode(r, &m); err != nil {
		return nil, fmt.Errorf("record to map: %w", err)
	}
	return m, nil
}

// Struct converts the record into a protobuf Struct.
func (r Record) Struct() (*structpb.Struct, error) {
	m, err := r.Map()
	if err != nil {
		return nil, err
	}
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("record to struct: %w", err)
	}
	return st, nil
}
