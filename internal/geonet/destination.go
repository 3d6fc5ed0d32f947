package geonet

// Destination is a routable target. Geobroadcast is currently the only variant;
// new kinds are added as new types implementing the unexported marker.
type Destination interface {
	TypeAndSubtype() HeaderType
	MaxLifetimeSeconds() Option[float64]
	MaxHopLimit() Option[uint8]
	RemainingHopLimit() Option[uint8]
	destination()
}

// Geobroadcast targets every (or, when anycast, any one) station inside an area.
// Values are immutable: the With methods return modified copies. All fields are
// comparable, so == is structural equality and the value can key a map.
type Geobroadcast struct {
	area               Area
	maxLifetimeSeconds Option[float64]
	maxHopLimit        Option[uint8]
	remainingHopLimit  Option[uint8]
	isAnycast          bool
}

// NewGeobroadcast returns a geobroadcast destination with no limits set.
func NewGeobroadcast(area Area) Geobroadcast {
	return Geobroadcast{area: area}
}

// NewGeoanycast returns a geoanycast destination with no limits set.
func NewGeoanycast(area Area) Geobroadcast {
	return Geobroadcast{area: area, isAnycast: true}
}

func (Geobroadcast) destination() {}

func (g Geobroadcast) Area() Area { return g.area }

func (g Geobroadcast) IsAnycast() bool { return g.isAnycast }

func (g Geobroadcast) MaxLifetimeSeconds() Option[float64] { return g.maxLifetimeSeconds }

func (g Geobroadcast) MaxHopLimit() Option[uint8] { return g.maxHopLimit }

func (g Geobroadcast) RemainingHopLimit() Option[uint8] { return g.remainingHopLimit }

func (g Geobroadcast) WithMaxLifetimeSeconds(seconds float64) Geobroadcast {
	g.maxLifetimeSeconds = Some(seconds)
	return g
}

func (g Geobroadcast) WithMaxHopLimit(hops uint8) Geobroadcast {
	g.maxHopLimit = Some(hops)
	return g
}

func (g Geobroadcast) WithRemainingHopLimit(hops uint8) Geobroadcast {
	g.remainingHopLimit = Some(hops)
	return g
}

// TypeAndSubtype is the inverse of AreaShapeOf for the destination's kind and shape.
func (g Geobroadcast) TypeAndSubtype() HeaderType {
	base := HeaderTypeGeoBroadcastCircle
	if g.isAnycast {
		base = HeaderTypeGeoAnycastCircle
	}
	switch g.area.Shape {
	case AreaCircle, AreaRectangle, AreaEllipse:
		return base | HeaderType(g.area.Shape)
	}
	return HeaderTypeAny
}
