package geonet

import "fmt"

// AreaLength is the encoded size of an Area.
const AreaLength = 14

// AreaShape selects the geometric interpretation of an Area.
type AreaShape uint8

const (
	AreaCircle    AreaShape = 0
	AreaRectangle AreaShape = 1
	AreaEllipse   AreaShape = 2
)

func (s AreaShape) String() string {
	switch s {
	case AreaCircle:
		return "CIRCLE"
	case AreaRectangle:
		return "RECTANGLE"
	case AreaEllipse:
		return "ELLIPSE"
	default:
		return fmt.Sprintf("AreaShape(%d)", uint8(s))
	}
}

// Area is a geographic target area. For a circle DistanceA is the radius and
// DistanceB and Angle are zero.
type Area struct {
	Shape     AreaShape
	Center    Position
	DistanceA uint16 // metres
	DistanceB uint16 // metres
	Angle     uint16 // degrees from north
}

func NewCircle(center Position, radius uint16) Area {
	return Area{Shape: AreaCircle, Center: center, DistanceA: radius}
}

func NewRectangle(center Position, a, b, angle uint16) Area {
	return Area{Shape: AreaRectangle, Center: center, DistanceA: a, DistanceB: b, Angle: angle}
}

func NewEllipse(center Position, a, b, angle uint16) Area {
	return Area{Shape: AreaEllipse, Center: center, DistanceA: a, DistanceB: b, Angle: angle}
}

// AreaShapeOf maps a geo-addressed header type onto its area shape.
// Non geo-addressed types and unmapped subtypes are ErrUnknownHeaderType.
func AreaShapeOf(ht HeaderType) (AreaShape, error) {
	if !ht.IsGeoAddressed() {
		return 0, newError(ErrUnknownHeaderType, "area", "%v carries no area", ht)
	}
	switch ht.Subtype() {
	case 0:
		return AreaCircle, nil
	case 1:
		return AreaRectangle, nil
	case 2:
		return AreaEllipse, nil
	}
	return 0, newError(ErrUnknownHeaderType, "area", "subtype %d", ht.Subtype())
}

// ParseArea reads an Area of the given shape.
func ParseArea(c *Cursor, shape AreaShape) (Area, error) {
	if shape > AreaEllipse {
		return Area{}, newError(ErrUnknownHeaderType, "area", "shape %d", uint8(shape))
	}
	if c.Remaining() < AreaLength {
		return Area{}, fmt.Errorf("area: %w",
			newError(ErrTruncated, "read", "need %d bytes, %d remaining", AreaLength, c.Remaining()))
	}
	a := Area{Shape: shape}
	a.Center, _ = parsePosition(c)
	a.DistanceA, _ = c.Uint16()
	a.DistanceB, _ = c.Uint16()
	a.Angle, _ = c.Uint16()
	return a, nil
}
