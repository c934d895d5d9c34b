package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveKnownCity(t *testing.T) {
	table := DefaultStyleTable()
	p := table.Resolve("New York")
	assert.Equal(t, "New York", p.Name)
	assert.Equal(t, LayoutGrid, p.Layout)
	assert.True(t, p.Features.HasTaxis)
}

func TestResolveUnknownFallsBack(t *testing.T) {
	table := DefaultStyleTable()
	for _, city := range []string{"", "london", "Atlantis", "LONDON "} {
		p := table.Resolve(city)
		assert.Equal(t, "default", p.Name, city)
		assert.False(t, table.Known(city))
	}
}

func TestStyleTableIsolatedFromInput(t *testing.T) {
	in := map[string]StyleProfile{"Testville": {Name: "Testville"}}
	table := NewStyleTable(in, DefaultStyle())
	delete(in, "Testville")

	p := table.Resolve("Testville")
	assert.Equal(t, "Testville", p.Name)
	assert.NotEmpty(t, p.Palette, "empty palette inherits fallback")
}

func TestNamesSorted(t *testing.T) {
	names := DefaultStyleTable().Names()
	assert.Len(t, names, len(DefaultStyles()))
	assert.IsIncreasing(t, names)
}

func TestParseLayout(t *testing.T) {
	for l := LayoutOrganic; l <= LayoutWalled; l++ {
		assert.Equal(t, l, ParseLayout(l.String()))
	}
	assert.Equal(t, LayoutOrganic, ParseLayout("spiral"))
	assert.Equal(t, LayoutGrid, ParseLayout(" GRID "))
}

func TestRoadChanceBounded(t *testing.T) {
	s := DefaultStyle()
	for _, bias := range []float64{-100, -1, 0, 1, 100} {
		s.DensityBias = bias
		p := roadChance(s)
		assert.GreaterOrEqual(t, p, 0.02)
		assert.LessOrEqual(t, p, 0.5)
	}
}
