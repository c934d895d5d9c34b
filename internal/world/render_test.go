package world

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

var unit = Transform{Scale: r3.Vec{X: 1, Y: 1, Z: 1}}

func TestRenderDaytimeKeepsColors(t *testing.T) {
	scene := GenerateCity(DefaultStyleTable(), "London", DefaultGenConfig())
	rs := scene.Render(true, 0)

	require.Len(t, rs.Terrain, len(scene.Terrain))
	require.Len(t, rs.Buildings, len(scene.Buildings))
	require.Len(t, rs.Props, len(scene.Props))
	require.Len(t, rs.Markers, len(scene.Markers))

	for i, b := range scene.Buildings {
		assert.Equal(t, b.Color, rs.Buildings[i].Color)
	}
}

func TestRenderNightDimsAndLightsLamps(t *testing.T) {
	scene := &Scene{
		Terrain:   []Tile{{Transform: unit, Kind: CellPark, Color: Hex(0x646464)}},
		Buildings: []Building{{Transform: unit, Color: Hex(0xc8c8c8)}},
		Props: []Prop{
			Lamp{unit},
			Vehicle{Transform: unit, Kind: VehicleRedBus},
			Tree{unit},
		},
		Markers: []Marker{{Transform: unit}},
	}

	rs := scene.Render(false, 0)

	assert.Equal(t, Dim(Hex(0x646464), NightDim), rs.Terrain[0].Color)
	assert.Equal(t, Dim(Hex(0xc8c8c8), NightDim), rs.Buildings[0].Color)

	lamp := rs.Props[0]
	assert.Equal(t, LampNightColor, lamp.Color)
	assert.True(t, lamp.Emissive)

	assert.Equal(t, Dim(RedBusColor, NightDim), rs.Props[1].Color)
	assert.False(t, rs.Props[1].Emissive)
	assert.Equal(t, Dim(TreeColor, NightDim), rs.Props[2].Color)

	assert.True(t, rs.Markers[0].Emissive)
	assert.Equal(t, MarkerColor, rs.Markers[0].Color)
}

func TestDim(t *testing.T) {
	c := Dim(Hex(0x804020), 0.5)
	assert.Equal(t, uint8(0x40), c.R)
	assert.Equal(t, uint8(0x20), c.G)
	assert.Equal(t, uint8(0x10), c.B)
	assert.Equal(t, uint8(0xff), c.A)
}

func TestRenderPulsesMarkers(t *testing.T) {
	base := Transform{Scale: r3.Vec{X: 0.4, Y: 0.4, Z: 0.4}}
	scene := &Scene{Markers: []Marker{
		{Transform: base},
		{Transform: base, Phase: math.Pi / 2},
	}}

	rs := scene.Render(true, 0)
	assert.InDelta(t, 0.4, rs.Markers[0].Scale.X, 1e-12)
	assert.InDelta(t, 0.4*1.3, rs.Markers[1].Scale.Y, 1e-12)

	rs = scene.Render(true, math.Pi/4)
	assert.InDelta(t, 0.4*1.3, rs.Markers[0].Scale.Z, 1e-12)
	assert.InDelta(t, 0.4, rs.Markers[1].Scale.X, 1e-12)
	assert.Equal(t, 0.4, scene.Markers[0].Scale.X, "scene is left untouched")
}

func TestMarkerPulseBounded(t *testing.T) {
	for i := 0; i < 100; i++ {
		p := MarkerPulse(float64(i)*0.3, float64(i)*0.1)
		assert.GreaterOrEqual(t, p, 0.7)
		assert.LessOrEqual(t, p, 1.3)
	}
}
