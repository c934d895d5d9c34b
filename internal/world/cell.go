// Package world provides the seeded city grid and its render primitives.
// Cells use integer (x, z) coordinates on a square lattice clipped to a disc.
package world

import "math"

// CellKind classifies a grid cell.
type CellKind uint8

const (
	CellWater CellKind = iota
	CellPark
	CellRoad
	CellBuilding
)

// String returns a human-readable name for a cell kind.
func (k CellKind) String() string {
	switch k {
	case CellWater:
		return "water"
	case CellPark:
		return "park"
	case CellRoad:
		return "road"
	case CellBuilding:
		return "building"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k CellKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// GridCell is one classified cell of a generated city.
type GridCell struct {
	X     int      `json:"x"`
	Z     int      `json:"z"`
	Kind  CellKind `json:"kind"`
	Noise float64  `json:"noise"` // After layout overrides
}

// Dist returns the cell's radial distance from the grid center, in cells.
func (c GridCell) Dist() float64 {
	return math.Hypot(float64(c.X), float64(c.Z))
}

// inDisc reports whether (x, z) lies within the carved disc of a grid
// with the given half-extent.
func inDisc(x, z, halfExtent int) bool {
	return math.Hypot(float64(x), float64(z)) <= float64(halfExtent-1)
}
