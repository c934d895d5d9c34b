package world

import (
	"image/color"
	"maps"
	"slices"
	"strings"
)

// Layout selects how streets are carved into a city.
type Layout uint8

const (
	LayoutOrganic Layout = iota // Irregular streets, moderate density
	LayoutGrid                  // Regular lattice of streets
	LayoutDense                 // Few streets, packed blocks
	LayoutSparse                // Wide open lanes between blocks
	LayoutVillage               // Low-rise, lots of lanes
	LayoutWalled                // Ring road around an old town
)

var layoutNames = [...]string{
	LayoutOrganic: "organic",
	LayoutGrid:    "grid",
	LayoutDense:   "dense",
	LayoutSparse:  "sparse",
	LayoutVillage: "village",
	LayoutWalled:  "walled",
}

// String returns the lowercase layout name.
func (l Layout) String() string {
	if int(l) < len(layoutNames) {
		return layoutNames[l]
	}
	return "organic"
}

// ParseLayout maps a layout name to a Layout. Unknown names read as organic.
func ParseLayout(s string) Layout {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range layoutNames {
		if name == s {
			return Layout(i)
		}
	}
	return LayoutOrganic
}

// MarshalText implements encoding.TextMarshaler.
func (l Layout) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Layout) UnmarshalText(b []byte) error {
	*l = ParseLayout(string(b))
	return nil
}

// Features toggles city-specific set pieces.
type Features struct {
	HasBoats       bool `json:"has_boats,omitempty"`
	HasSpire       bool `json:"has_spire,omitempty"`
	HasTaxis       bool `json:"has_taxis,omitempty"`
	HasRedVehicles bool `json:"has_red_vehicles,omitempty"`
	HasCentralPark bool `json:"has_central_park,omitempty"`
	HasRiver       bool `json:"has_river,omitempty"`
}

// StyleProfile holds the generation parameters for one city.
type StyleProfile struct {
	Name    string       `json:"name"`
	Palette []color.RGBA `json:"palette"`
	Ground  *color.RGBA  `json:"ground,omitempty"` // Overrides RoadColor when set

	// WaterBias shifts the water threshold down: positive is drier, negative wetter.
	WaterBias   float64    `json:"water_bias"`
	Layout      Layout     `json:"layout"`
	HeightScale float64    `json:"height_scale"`
	DensityBias float64    `json:"density_bias"` // -1 (open) to +1 (packed)
	RoadColor   color.RGBA `json:"road_color"`
	Features    Features   `json:"features"`
}

// Hex builds an opaque color from a 0xRRGGBB literal.
func Hex(v uint32) color.RGBA {
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

func hexes(vs ...uint32) []color.RGBA {
	out := make([]color.RGBA, len(vs))
	for i, v := range vs {
		out[i] = Hex(v)
	}
	return out
}

func ground(v uint32) *color.RGBA {
	c := Hex(v)
	return &c
}

// DefaultStyle is the profile used for any city without its own entry.
func DefaultStyle() StyleProfile {
	return StyleProfile{
		Name:        "default",
		Palette:     hexes(0xd9d4c7, 0xc2b8a3, 0xa89f91, 0xe8e2d5, 0x8c8a86),
		WaterBias:   0,
		Layout:      LayoutOrganic,
		HeightScale: 1.0,
		RoadColor:   Hex(0x555555),
	}
}

// DefaultStyles returns the built-in city catalog.
func DefaultStyles() map[string]StyleProfile {
	return map[string]StyleProfile{
		"London": {
			Name:        "London",
			Palette:     hexes(0x8b8680, 0xa39e93, 0x6e6259, 0xc9c1b4, 0x7d5a50),
			WaterBias:   -0.08,
			Layout:      LayoutOrganic,
			HeightScale: 1.0,
			RoadColor:   Hex(0x4a4a4a),
			Features:    Features{HasBoats: true, HasRedVehicles: true, HasRiver: true},
		},
		"New York": {
			Name:        "New York",
			Palette:     hexes(0x9aa5b1, 0x7b8794, 0xc4b7a6, 0x5f6b7a, 0xb0a08a),
			WaterBias:   0,
			Layout:      LayoutGrid,
			HeightScale: 1.8,
			DensityBias: 0.4,
			RoadColor:   Hex(0x3d3d3d),
			Features:    Features{HasTaxis: true, HasCentralPark: true, HasSpire: true},
		},
		"Paris": {
			Name:        "Paris",
			Palette:     hexes(0xe6dcc6, 0xd8ccb0, 0xcfc3a8, 0xb9ad95, 0x9fa6a8),
			WaterBias:   -0.03,
			Layout:      LayoutOrganic,
			HeightScale: 0.8,
			DensityBias: 0.3,
			RoadColor:   Hex(0x6b6357),
			Features:    Features{HasSpire: true, HasRiver: true, HasBoats: true},
		},
		"Tokyo": {
			Name:        "Tokyo",
			Palette:     hexes(0xf2f2f2, 0xd6d9dc, 0xe84a5f, 0x2a363b, 0xfecea8),
			WaterBias:   0.05,
			Layout:      LayoutDense,
			HeightScale: 1.5,
			DensityBias: 0.6,
			RoadColor:   Hex(0x2f2f2f),
			Features:    Features{HasSpire: true, HasTaxis: true},
		},
		"Venice": {
			Name:        "Venice",
			Palette:     hexes(0xe3a587, 0xd98c6a, 0xf2d0a9, 0xc96f53, 0xeee2c0),
			Ground:      ground(0xc9b79c),
			WaterBias:   -0.2,
			Layout:      LayoutOrganic,
			HeightScale: 0.6,
			DensityBias: 0.2,
			RoadColor:   Hex(0xb8a88a),
			Features:    Features{HasBoats: true},
		},
		"Amsterdam": {
			Name:        "Amsterdam",
			Palette:     hexes(0x7a3b2e, 0x9c5b3b, 0x3f4e4f, 0xd6c6a5, 0x5a2e22),
			WaterBias:   -0.12,
			Layout:      LayoutGrid,
			HeightScale: 0.7,
			RoadColor:   Hex(0x6d5f55),
			Features:    Features{HasBoats: true, HasRiver: true},
		},
		"Dubai": {
			Name:        "Dubai",
			Palette:     hexes(0xe8d8b0, 0xcfd8dc, 0x90a4ae, 0xf5e6c4, 0xb0bec5),
			Ground:      ground(0xdcc48e),
			WaterBias:   0.1,
			Layout:      LayoutSparse,
			HeightScale: 2.2,
			DensityBias: -0.3,
			RoadColor:   Hex(0x4e4e4e),
			Features:    Features{HasSpire: true},
		},
		"Reykjavik": {
			Name:        "Reykjavik",
			Palette:     hexes(0xd64541, 0xf5f5f5, 0x3c6e91, 0xf2c14e, 0x4f9d69),
			WaterBias:   -0.05,
			Layout:      LayoutVillage,
			HeightScale: 0.5,
			DensityBias: -0.4,
			RoadColor:   Hex(0x5b5b5b),
			Features:    Features{HasBoats: true, HasRedVehicles: true},
		},
		"Kyoto": {
			Name:        "Kyoto",
			Palette:     hexes(0x5d4037, 0x8d6e63, 0xbcaaa4, 0x3e2723, 0xc62828),
			WaterBias:   0.05,
			Layout:      LayoutGrid,
			HeightScale: 0.55,
			DensityBias: -0.1,
			RoadColor:   Hex(0x8a7f70),
			Features:    Features{HasSpire: true},
		},
		"Carcassonne": {
			Name:        "Carcassonne",
			Palette:     hexes(0xcdb891, 0xb89f74, 0xa3875b, 0xdecba4, 0x8e7350),
			Ground:      ground(0xa89a7e),
			WaterBias:   0.08,
			Layout:      LayoutWalled,
			HeightScale: 0.7,
			DensityBias: 0.5,
			RoadColor:   Hex(0x9b8d75),
			Features:    Features{HasSpire: true},
		},
		"Sydney": {
			Name:        "Sydney",
			Palette:     hexes(0xf4f1ea, 0xc9d6df, 0x52616b, 0xe3c08d, 0x1e2022),
			WaterBias:   -0.1,
			Layout:      LayoutOrganic,
			HeightScale: 1.3,
			RoadColor:   Hex(0x444444),
			Features:    Features{HasBoats: true, HasSpire: true},
		},
		"Moscow": {
			Name:        "Moscow",
			Palette:     hexes(0xc0392b, 0xe6b0aa, 0xf0e6d2, 0x7f8c8d, 0xd4ac0d),
			WaterBias:   0.02,
			Layout:      LayoutWalled,
			HeightScale: 1.1,
			DensityBias: 0.2,
			RoadColor:   Hex(0x505050),
			Features:    Features{HasSpire: true, HasRiver: true, HasRedVehicles: true},
		},
	}
}

// StyleTable is an immutable city → profile mapping built once at startup
// and handed to the generator.
type StyleTable struct {
	profiles map[string]StyleProfile
	fallback StyleProfile
}

// NewStyleTable copies profiles into a new table. Profiles with an empty
// palette inherit the fallback palette so generation never divides by zero.
func NewStyleTable(profiles map[string]StyleProfile, fallback StyleProfile) *StyleTable {
	if len(fallback.Palette) == 0 {
		fallback.Palette = DefaultStyle().Palette
	}
	t := &StyleTable{
		profiles: make(map[string]StyleProfile, len(profiles)),
		fallback: fallback,
	}
	for name, p := range profiles {
		if len(p.Palette) == 0 {
			p.Palette = fallback.Palette
		}
		p.Palette = slices.Clone(p.Palette)
		t.profiles[name] = p
	}
	return t
}

// DefaultStyleTable builds a table from the built-in catalog.
func DefaultStyleTable() *StyleTable {
	return NewStyleTable(DefaultStyles(), DefaultStyle())
}

// Resolve returns the profile registered for city, or the fallback profile.
// Lookup is an exact, case-sensitive match.
func (t *StyleTable) Resolve(city string) StyleProfile {
	if p, ok := t.profiles[city]; ok {
		return p
	}
	return t.fallback
}

// Known reports whether city has its own profile.
func (t *StyleTable) Known(city string) bool {
	_, ok := t.profiles[city]
	return ok
}

// Names returns the registered city names in sorted order.
func (t *StyleTable) Names() []string {
	return slices.Sorted(maps.Keys(t.profiles))
}
