package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/talgya/snow-globe/internal/engine"
	"github.com/talgya/snow-globe/internal/forcing"
	"github.com/talgya/snow-globe/internal/weather"
	"github.com/talgya/snow-globe/internal/world"
)

// weatherFeed refreshes live conditions for whichever city is showing and
// feeds the ambient wind source.
type weatherFeed struct {
	wx      *weather.Client
	sim     *engine.Simulation
	windMax float64
	every   time.Duration
	refresh chan struct{}
}

func newWeatherFeed(wx *weather.Client, sim *engine.Simulation, windMax float64, every time.Duration) *weatherFeed {
	return &weatherFeed{wx: wx, sim: sim, windMax: windMax, every: every, refresh: make(chan struct{}, 1)}
}

// Refresh asks for a fetch ahead of the next period. It never blocks.
func (f *weatherFeed) Refresh() {
	select {
	case f.refresh <- struct{}{}:
	default:
	}
}

// onGenerated matches Simulation.OnGenerated; a new city needs its own
// weather.
func (f *weatherFeed) onGenerated(*world.Scene, time.Duration) {
	f.Refresh()
}

func (f *weatherFeed) update(ctx context.Context) {
	city := f.sim.Conditions().City
	cond, err := f.wx.Fetch(ctx, city)
	if err != nil {
		slog.Warn("weather fetch failed", "city", city, "error", err)
		return
	}
	if !f.sim.RequestWeather(city, cond.Category, cond.IsDaytime) {
		slog.Debug("discarding weather for previous city", "city", city)
		return
	}
	f.sim.Inbox.ReportWind(forcing.SourceAmbient, cond.AmbientWind(f.windMax))
}

func (f *weatherFeed) run(ctx context.Context) {
	ticker := time.NewTicker(f.every)
	defer ticker.Stop()

	f.update(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.update(ctx)
		case <-f.refresh:
			f.update(ctx)
		}
	}
}
