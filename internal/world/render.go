package world

import (
	"image/color"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// NightDim scales terrain, building and non-light prop colors at night.
const NightDim = 0.35

// Light colors for emissive instances.
var (
	LampDayColor   = Hex(0x9e9e9e)
	LampNightColor = Hex(0xffc46b)
	MarkerColor    = Hex(0x7fe7ff)
	TaxiColor      = Hex(0xf7c600)
	RedBusColor    = Hex(0xc8102e)
	TreeColor      = Hex(0x2f6b2f)
	BoatColor      = Hex(0x8d5b3a)
)

// Instance is one render-ready primitive.
type Instance struct {
	Transform
	Color    color.RGBA `json:"color"`
	Emissive bool       `json:"emissive,omitempty"`
}

// RenderSet is the scene mapped to instances for one lighting state.
type RenderSet struct {
	Terrain   []Instance `json:"terrain"`
	Buildings []Instance `json:"buildings"`
	Props     []Instance `json:"props"`
	Markers   []Instance `json:"markers"`
}

// Render maps the scene into instances, applying the day/night color pass.
// Markers are scaled by their pulse at elapsed seconds.
func (s *Scene) Render(daytime bool, elapsed float64) RenderSet {
	rs := RenderSet{
		Terrain:   make([]Instance, 0, len(s.Terrain)),
		Buildings: make([]Instance, 0, len(s.Buildings)),
		Props:     make([]Instance, 0, len(s.Props)),
		Markers:   make([]Instance, 0, len(s.Markers)),
	}
	for _, t := range s.Terrain {
		rs.Terrain = append(rs.Terrain, Instance{Transform: t.Transform, Color: tint(t.Color, daytime)})
	}
	for _, b := range s.Buildings {
		rs.Buildings = append(rs.Buildings, Instance{Transform: b.Transform, Color: tint(b.Color, daytime)})
	}
	for _, p := range s.Props {
		rs.Props = append(rs.Props, PropInstance(p, daytime))
	}
	for _, m := range s.Markers {
		tr := m.Transform
		tr.Scale = r3.Scale(MarkerPulse(m.Phase, elapsed), tr.Scale)
		rs.Markers = append(rs.Markers, Instance{Transform: tr, Color: MarkerColor, Emissive: true})
	}
	return rs
}

// PropInstance maps one prop variant to its instance.
func PropInstance(p Prop, daytime bool) Instance {
	switch v := p.(type) {
	case Lamp:
		if daytime {
			return Instance{Transform: v.Transform, Color: LampDayColor}
		}
		return Instance{Transform: v.Transform, Color: LampNightColor, Emissive: true}
	case Vehicle:
		c := TaxiColor
		if v.Kind == VehicleRedBus {
			c = RedBusColor
		}
		return Instance{Transform: v.Transform, Color: tint(c, daytime)}
	case Tree:
		return Instance{Transform: v.Transform, Color: tint(TreeColor, daytime)}
	case Boat:
		return Instance{Transform: v.Transform, Color: tint(BoatColor, daytime)}
	default:
		return Instance{Transform: p.Placement(), Color: tint(DefaultStyle().RoadColor, daytime)}
	}
}

func tint(c color.RGBA, daytime bool) color.RGBA {
	if daytime {
		return c
	}
	return Dim(c, NightDim)
}

// Dim multiplies the color channels by f, leaving alpha untouched.
func Dim(c color.RGBA, f float64) color.RGBA {
	scale := func(v uint8) uint8 {
		return uint8(math.Round(float64(v) * f))
	}
	return color.RGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: c.A}
}

// MarkerPulse returns a marker's scale multiplier at elapsed time t (seconds).
func MarkerPulse(phase, t float64) float64 {
	return 1 + 0.3*math.Sin(t*2+phase)
}
