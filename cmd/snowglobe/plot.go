package main

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/talgya/snow-globe/internal/world"
)

// plotScene writes a top-down map of the scene's cells to path. The image
// format follows the file extension.
func plotScene(scene *world.Scene, daytime bool, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%s)", scene.City, scene.Style.Layout)
	p.X.Label.Text = "x"
	p.Y.Label.Text = "z"

	rs := scene.Render(daytime, 0)
	byKind := map[world.CellKind]plotter.XYs{}
	colors := map[world.CellKind]color.RGBA{}
	// Render preserves terrain order, so tile kinds line up by index.
	for i, t := range rs.Terrain {
		kind := scene.Terrain[i].Kind
		byKind[kind] = append(byKind[kind], plotter.XY{X: t.Position.X, Y: t.Position.Z})
		colors[kind] = t.Color
	}
	buildings := make(plotter.XYs, 0, len(rs.Buildings))
	for _, b := range rs.Buildings {
		buildings = append(buildings, plotter.XY{X: b.Position.X, Y: b.Position.Z})
	}
	byKind[world.CellBuilding] = buildings
	if len(rs.Buildings) > 0 {
		colors[world.CellBuilding] = rs.Buildings[0].Color
	}

	for _, kind := range []world.CellKind{world.CellWater, world.CellPark, world.CellRoad, world.CellBuilding} {
		pts := byKind[kind]
		if len(pts) == 0 {
			continue
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("%s scatter: %w", kind, err)
		}
		s.GlyphStyle.Shape = draw.BoxGlyph{}
		s.GlyphStyle.Radius = vg.Points(3)
		s.GlyphStyle.Color = colors[kind]
		p.Add(s)
		p.Legend.Add(kind.String(), s)
	}

	var lights plotter.XYs
	for _, m := range rs.Markers {
		lights = append(lights, plotter.XY{X: m.Position.X, Y: m.Position.Z})
	}
	for _, pr := range rs.Props {
		if pr.Emissive {
			lights = append(lights, plotter.XY{X: pr.Position.X, Y: pr.Position.Z})
		}
	}
	if len(lights) > 0 {
		s, err := plotter.NewScatter(lights)
		if err != nil {
			return fmt.Errorf("lights scatter: %w", err)
		}
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(2)
		s.GlyphStyle.Color = world.MarkerColor
		p.Add(s)
		p.Legend.Add("lights", s)
	}

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}
