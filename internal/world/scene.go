package world

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"image/color"
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is an instance's placement: position, Euler rotation (radians,
// XYZ order) and non-uniform scale.
type Transform struct {
	Position r3.Vec `json:"position"`
	Rotation r3.Vec `json:"rotation"`
	Scale    r3.Vec `json:"scale"`
}

// Tile is a flat terrain instance for a water, park or road cell.
type Tile struct {
	Transform
	Kind  CellKind   `json:"kind"`
	Color color.RGBA `json:"color"`
}

// Building is an extruded block on a building cell.
type Building struct {
	Transform
	Color color.RGBA `json:"color"`
	Spire bool       `json:"spire,omitempty"`
}

// Prop is a decorative instance. The concrete types are Lamp, Vehicle, Tree
// and Boat; render mapping switches on the type.
type Prop interface {
	Placement() Transform
	prop()
}

// Lamp is a streetlamp. Lamps are the only light-emitting props.
type Lamp struct {
	Transform
}

// VehicleKind picks a vehicle's model and livery.
type VehicleKind uint8

const (
	VehicleTaxi VehicleKind = iota
	VehicleRedBus
)

// String returns the vehicle kind name.
func (k VehicleKind) String() string {
	if k == VehicleTaxi {
		return "taxi"
	}
	return "red_bus"
}

// Vehicle is a themed road vehicle.
type Vehicle struct {
	Transform
	Kind VehicleKind
}

// Tree sits on a park cell.
type Tree struct {
	Transform
}

// Boat floats on a water cell.
type Boat struct {
	Transform
}

func (p Lamp) Placement() Transform    { return p.Transform }
func (p Vehicle) Placement() Transform { return p.Transform }
func (p Tree) Placement() Transform    { return p.Transform }
func (p Boat) Placement() Transform    { return p.Transform }

func (Lamp) prop()    {}
func (Vehicle) prop() {}
func (Tree) prop()    {}
func (Boat) prop()    {}

// Marker is a glowing locator for another viewer's concurrent session.
type Marker struct {
	Transform
	Phase   float64   `json:"phase"` // Pulse offset in radians
	Session uuid.UUID `json:"session"`
}

// Scene is the full output of one generation pass. It is replaced
// wholesale on city change and never edited afterwards.
type Scene struct {
	City  string       `json:"city"`
	Style StyleProfile `json:"style"`

	Cells     []GridCell `json:"cells"`
	Terrain   []Tile     `json:"terrain"`
	Buildings []Building `json:"buildings"`
	Props     []Prop     `json:"-"`
	Markers   []Marker   `json:"markers"`
}

// Counts summarizes a scene.
type Counts struct {
	Water     int `json:"water"`
	Park      int `json:"park"`
	Road      int `json:"road"`
	Building  int `json:"building"`
	Buildings int `json:"buildings"`
	Spires    int `json:"spires"`
	Lamps     int `json:"lamps"`
	Vehicles  int `json:"vehicles"`
	Trees     int `json:"trees"`
	Boats     int `json:"boats"`
	Markers   int `json:"markers"`
}

// Counts tallies cells by kind and instances by category.
func (s *Scene) Counts() Counts {
	var c Counts
	for _, cell := range s.Cells {
		switch cell.Kind {
		case CellWater:
			c.Water++
		case CellPark:
			c.Park++
		case CellRoad:
			c.Road++
		case CellBuilding:
			c.Building++
		}
	}
	c.Buildings = len(s.Buildings)
	for _, b := range s.Buildings {
		if b.Spire {
			c.Spires++
		}
	}
	for _, p := range s.Props {
		switch p.(type) {
		case Lamp:
			c.Lamps++
		case Vehicle:
			c.Vehicles++
		case Tree:
			c.Trees++
		case Boat:
			c.Boats++
		}
	}
	c.Markers = len(s.Markers)
	return c
}

// String returns a short summary of the scene.
func (s *Scene) String() string {
	c := s.Counts()
	return fmt.Sprintf("Scene(city=%q, cells=%d, buildings=%d, props=%d, markers=%d)",
		s.City, len(s.Cells), c.Buildings, len(s.Props), c.Markers)
}

// Fingerprint hashes every cell, transform and color in insertion order.
// Two scenes with equal fingerprints are, for practical purposes, identical.
func (s *Scene) Fingerprint() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	f := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	tr := func(t Transform) {
		for _, v := range [...]r3.Vec{t.Position, t.Rotation, t.Scale} {
			f(v.X)
			f(v.Y)
			f(v.Z)
		}
	}
	rgba := func(c color.RGBA) { h.Write([]byte{c.R, c.G, c.B, c.A}) }

	for _, c := range s.Cells {
		f(float64(c.X))
		f(float64(c.Z))
		h.Write([]byte{byte(c.Kind)})
	}
	for _, t := range s.Terrain {
		tr(t.Transform)
		rgba(t.Color)
	}
	for _, b := range s.Buildings {
		tr(b.Transform)
		rgba(b.Color)
	}
	for _, p := range s.Props {
		tr(p.Placement())
		switch v := p.(type) {
		case Lamp:
			h.Write([]byte{'L'})
		case Vehicle:
			h.Write([]byte{'V', byte(v.Kind)})
		case Tree:
			h.Write([]byte{'T'})
		case Boat:
			h.Write([]byte{'B'})
		}
	}
	for _, m := range s.Markers {
		tr(m.Transform)
		f(m.Phase)
		h.Write(m.Session[:])
	}
	return h.Sum64()
}
