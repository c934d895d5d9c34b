// City generation from a seeded draw sequence.
// Classification thresholds and set-piece sizes are tunable through GenConfig.
package world

import (
	"fmt"
	"image/color"
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/talgya/snow-globe/internal/entropy"
)

// GenConfig holds city generation parameters.
type GenConfig struct {
	HalfExtent int     // Cells from center to bounding-box edge; the disc keeps HalfExtent-1
	CellSize   float64 // World units per cell

	WaterLevel  float64 // Noise below (WaterLevel - WaterBias) is water
	ParkLevel   float64 // Noise above this is park
	StreetLevel float64 // Road band width above water is StreetLevel - WaterLevel
	StreetValue float64 // Noise forced onto grid lattices and wall rings; always road
	GridStride  int     // Lattice spacing for LayoutGrid

	MinHeight   float64 // Building height floor
	SpireHeight float64 // Base height of a spire, before HeightScale
	SpireRadius float64 // Spires only appear within this many cells of center
	SpireChance float64

	BoatChance    float64
	TreeChance    float64
	LampChance    float64
	TaxiChance    float64
	ThemedChance  float64
	PresenceRate  float64
	FootprintFill float64 // Building footprint as a fraction of CellSize
}

// DefaultGenConfig returns the standard globe-sized city.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		HalfExtent:    12,
		CellSize:      0.5,
		WaterLevel:    0.22,
		ParkLevel:     0.78,
		StreetLevel:   0.3,
		StreetValue:   0.28,
		GridStride:    4,
		MinHeight:     0.25,
		SpireHeight:   5.0,
		SpireRadius:   3,
		SpireChance:   0.08,
		BoatChance:    0.04,
		TreeChance:    0.35,
		LampChance:    0.05,
		TaxiChance:    0.08,
		ThemedChance:  0.06,
		PresenceRate:  0.015,
		FootprintFill: 0.85,
	}
}

// SmallTestConfig returns a tiny grid for rapid iteration.
func SmallTestConfig() GenConfig {
	cfg := DefaultGenConfig()
	cfg.HalfExtent = 5
	return cfg
}

// Fixed colors shared by every style.
var (
	WaterColor = Hex(0x3a7bd5)
	ParkColor  = Hex(0x5a9e4b)
	SpireColor = Hex(0xd4af37)
)

const (
	tileThickness = 0.05
	parkNoise     = 0.9
	riverNoise    = 0.05
)

// markerNamespace scopes presence-marker session IDs.
var markerNamespace = uuid.MustParse("6f1c0c8e-3d4b-5a8e-9b61-2f9a4c7d1e05")

// GenerateCity resolves city's style from table and generates it with a
// fresh draw sequence keyed by the city name.
func GenerateCity(table *StyleTable, city string, cfg GenConfig) *Scene {
	return Generate(city, entropy.NewSeq(city), table.Resolve(city), cfg)
}

// Generate builds a city scene. The result depends only on the arguments and
// the position of rng; given a fresh sequence for the same key it is identical
// on every run.
func Generate(city string, rng *entropy.Seq, style StyleProfile, cfg GenConfig) *Scene {
	if len(style.Palette) == 0 {
		style.Palette = DefaultStyle().Palette
	}
	if cfg.HalfExtent < 1 {
		cfg.HalfExtent = 1
	}

	g := &generator{
		city:  city,
		rng:   rng,
		style: style,
		cfg:   cfg,
		scene: &Scene{City: city, Style: style},
	}

	h := cfg.HalfExtent
	for x := -h; x <= h; x++ {
		for z := -h; z <= h; z++ {
			if !inDisc(x, z, h) {
				continue
			}
			g.cell(x, z)
		}
	}
	return g.scene
}

type generator struct {
	city  string
	rng   *entropy.Seq
	style StyleProfile
	cfg   GenConfig
	scene *Scene
}

func (g *generator) cell(x, z int) {
	noise := baseNoise(x, z) + (g.rng.Float()-0.5)*0.2
	noise, street := g.override(x, z, noise)
	kind := g.classify(noise, street)

	g.scene.Cells = append(g.scene.Cells, GridCell{X: x, Z: z, Kind: kind, Noise: noise})

	px := float64(x) * g.cfg.CellSize
	pz := float64(z) * g.cfg.CellSize

	switch kind {
	case CellWater:
		g.water(px, pz)
	case CellPark:
		g.park(px, pz)
	case CellRoad:
		g.road(px, pz)
	case CellBuilding:
		g.building(x, z, px, pz)
	}
}

// baseNoise is a smooth sin/cos blend in roughly [0.1, 0.9].
func baseNoise(x, z int) float64 {
	fx, fz := float64(x), float64(z)
	return 0.5 + 0.25*math.Sin(fx*0.45)*math.Cos(fz*0.45) + 0.15*math.Sin((fx+fz)*0.2)
}

// override applies the style's set pieces before classification. street
// reports a carved street (grid lattice or wall ring), which is road
// whatever the city's water bias.
func (g *generator) override(x, z int, noise float64) (float64, bool) {
	f := g.style.Features
	fx, fz := float64(x), float64(z)

	if f.HasCentralPark && x >= -2 && x <= 2 && z >= -5 && z <= -1 {
		return parkNoise, false
	}
	if f.HasRiver && math.Abs(fz-(3*math.Sin(fx*0.3)+2)) < 1.2 {
		return riverNoise, false
	}

	switch g.style.Layout {
	case LayoutGrid:
		stride := g.cfg.GridStride
		if stride > 0 && (x%stride == 0 || z%stride == 0) {
			return g.cfg.StreetValue, true
		}
	case LayoutWalled:
		d := math.Hypot(fx, fz)
		ring := float64(g.cfg.HalfExtent) - 3
		if d >= ring-0.5 && d < ring+0.5 {
			return g.cfg.StreetValue, true
		}
	}
	return noise, false
}

// classify consumes exactly one draw for every land cell that is not park.
func (g *generator) classify(noise float64, street bool) CellKind {
	water := g.cfg.WaterLevel - g.style.WaterBias
	if !street && noise < water {
		return CellWater
	}
	if noise > g.cfg.ParkLevel {
		return CellPark
	}
	draw := g.rng.Float()
	if street || noise < water+g.streetBand() || draw < roadChance(g.style) {
		return CellRoad
	}
	return CellBuilding
}

// streetBand is the width of the always-road shoreline above the water
// threshold. It moves with the threshold so wet cities keep their band.
func (g *generator) streetBand() float64 {
	return max(g.cfg.StreetLevel-g.cfg.WaterLevel, 0)
}

// roadChance is the probability an unforced cell becomes road.
func roadChance(s StyleProfile) float64 {
	var base float64
	switch s.Layout {
	case LayoutGrid:
		base = 0.05
	case LayoutDense:
		base = 0.06
	case LayoutSparse:
		base = 0.28
	case LayoutVillage:
		base = 0.24
	case LayoutWalled:
		base = 0.10
	default:
		base = 0.14
	}
	p := base - s.DensityBias*0.08
	return math.Max(0.02, math.Min(0.5, p))
}

func (g *generator) tile(kind CellKind, px, y, pz float64, c color.RGBA) {
	g.scene.Terrain = append(g.scene.Terrain, Tile{
		Transform: Transform{
			Position: r3.Vec{X: px, Y: y, Z: pz},
			Scale:    r3.Vec{X: g.cfg.CellSize, Y: tileThickness, Z: g.cfg.CellSize},
		},
		Kind:  kind,
		Color: c,
	})
}

func (g *generator) water(px, pz float64) {
	g.tile(CellWater, px, -0.02, pz, WaterColor)

	if g.style.Features.HasBoats && g.rng.Chance(g.cfg.BoatChance) {
		g.scene.Props = append(g.scene.Props, Boat{Transform{
			Position: r3.Vec{X: px, Y: 0.03, Z: pz},
			Rotation: r3.Vec{Y: g.rng.Float() * 2 * math.Pi},
			Scale:    r3.Vec{X: 0.12, Y: 0.06, Z: 0.3},
		}})
	}
}

func (g *generator) park(px, pz float64) {
	g.tile(CellPark, px, 0, pz, ParkColor)

	if g.rng.Chance(g.cfg.TreeChance) {
		jx := (g.rng.Float() - 0.5) * 0.2
		jz := (g.rng.Float() - 0.5) * 0.2
		g.scene.Props = append(g.scene.Props, Tree{Transform{
			Position: r3.Vec{X: px + jx, Y: 0.18, Z: pz + jz},
			Scale:    r3.Vec{X: 0.18, Y: 0.35, Z: 0.18},
		}})
	}
}

func (g *generator) road(px, pz float64) {
	c := g.style.RoadColor
	if g.style.Ground != nil {
		c = *g.style.Ground
	}
	// Lift each road tile a hair so coplanar tiles don't z-fight.
	g.tile(CellRoad, px, 0.001+g.rng.Float()*0.004, pz, c)

	// Lamp, then taxi, then themed vehicle; at most one per cell.
	switch {
	case g.rng.Chance(g.cfg.LampChance):
		off := g.cfg.CellSize * 0.35
		g.scene.Props = append(g.scene.Props, Lamp{Transform{
			Position: r3.Vec{X: px + off, Y: 0.15, Z: pz + off},
			Scale:    r3.Vec{X: 0.03, Y: 0.3, Z: 0.03},
		}})
	case g.style.Features.HasTaxis && g.rng.Chance(g.cfg.TaxiChance):
		g.vehicle(VehicleTaxi, px, pz)
	case g.style.Features.HasRedVehicles && g.rng.Chance(g.cfg.ThemedChance):
		g.vehicle(VehicleRedBus, px, pz)
	}
}

func (g *generator) vehicle(kind VehicleKind, px, pz float64) {
	scale := r3.Vec{X: 0.12, Y: 0.08, Z: 0.22}
	if kind == VehicleRedBus {
		scale = r3.Vec{X: 0.14, Y: 0.16, Z: 0.34}
	}
	g.scene.Props = append(g.scene.Props, Vehicle{
		Transform: Transform{
			Position: r3.Vec{X: px, Y: scale.Y / 2, Z: pz},
			Rotation: r3.Vec{Y: g.rng.Float() * 2 * math.Pi},
			Scale:    scale,
		},
		Kind: kind,
	})
}

func (g *generator) building(x, z int, px, pz float64) {
	dist := math.Hypot(float64(x), float64(z))
	inv := 1 - dist/float64(g.cfg.HalfExtent-1)
	if inv < 0 || math.IsNaN(inv) {
		inv = 0
	}
	centerWeight := inv * inv

	height := (0.4 + centerWeight*2.6) * (0.6 + g.rng.Float()*0.8) * g.style.HeightScale
	if height < g.cfg.MinHeight {
		height = g.cfg.MinHeight
	}

	footprint := g.cfg.CellSize * g.cfg.FootprintFill
	col := g.style.Palette[g.rng.Intn(len(g.style.Palette))]
	spire := false

	if g.style.Features.HasSpire && dist < g.cfg.SpireRadius && g.rng.Chance(g.cfg.SpireChance) {
		spire = true
		height = math.Max(g.cfg.SpireHeight*g.style.HeightScale, g.cfg.MinHeight)
		footprint *= 0.5
		col = SpireColor
	}

	g.scene.Buildings = append(g.scene.Buildings, Building{
		Transform: Transform{
			Position: r3.Vec{X: px, Y: height / 2, Z: pz},
			Scale:    r3.Vec{X: footprint, Y: height, Z: footprint},
		},
		Color: col,
		Spire: spire,
	})

	if g.rng.Chance(g.cfg.PresenceRate) {
		g.marker(px+footprint/2+0.06, g.rng.Float()*height, pz)
	}
}

func (g *generator) marker(px, y, pz float64) {
	idx := len(g.scene.Markers)
	g.scene.Markers = append(g.scene.Markers, Marker{
		Transform: Transform{
			Position: r3.Vec{X: px, Y: y, Z: pz},
			Scale:    r3.Vec{X: 0.05, Y: 0.05, Z: 0.05},
		},
		Phase:   g.rng.Float() * 2 * math.Pi,
		Session: uuid.NewSHA1(markerNamespace, []byte(fmt.Sprintf("%s/%d", g.city, idx))),
	})
}
