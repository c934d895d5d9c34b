// Package engine provides the fixed-rate tick loop and the globe's
// simulation state.
package engine

import (
	"context"
	"log/slog"
	"time"
)

// Tick schedule defaults.
const (
	FrameRate      = 60              // Ticks per second (display-synchronized)
	DecayEvery     = 6               // Forcing decay interval in ticks (100ms)
	TicksPerReport = FrameRate * 10 // Periodic summary every 10 seconds
)

// Engine drives the simulation forward.
type Engine struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Speed    float64       // Multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // Tick interval; also the simulated dt of each tick

	DecayEvery  uint64
	ReportEvery uint64

	// Callbacks for each tick layer, populated during setup.
	OnFrame  func(tick uint64, dt float64) // Every tick
	OnDecay  func(tick uint64)             // Every DecayEvery ticks
	OnReport func(tick uint64)             // Every ReportEvery ticks
}

// NewEngine creates an engine ticking at FrameRate.
func NewEngine() *Engine {
	return &Engine{
		Speed:       1.0,
		Interval:    time.Second / FrameRate,
		DecayEvery:  DecayEvery,
		ReportEvery: TicksPerReport,
	}
}

// TicksFor converts a wall duration into a whole number of ticks (at least one).
func TicksFor(d, interval time.Duration) uint64 {
	if interval <= 0 || d <= interval {
		return 1
	}
	return uint64(d / interval)
}

// Run ticks until ctx is cancelled. Ticks never overlap: each completes
// before the next begins.
func (e *Engine) Run(ctx context.Context) {
	slog.Info("simulation engine started", "tick", e.Tick, "speed", e.Speed, "interval", e.Interval)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation engine stopped", "tick", e.Tick)
			return
		case <-timer.C:
		}

		if e.Speed <= 0 {
			// Paused: sleep briefly and check again.
			timer.Reset(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		e.Step()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / e.Speed)
		wait := target - elapsed
		if wait < 0 {
			wait = 0
		}
		timer.Reset(wait)
	}
}

// Step advances the simulation by one tick. Frame-driven hosts that own
// their own display loop call Step directly instead of Run.
func (e *Engine) Step() {
	e.Tick++

	if e.OnFrame != nil {
		e.OnFrame(e.Tick, e.Interval.Seconds())
	}

	if e.DecayEvery > 0 && e.Tick%e.DecayEvery == 0 && e.OnDecay != nil {
		e.OnDecay(e.Tick)
	}

	if e.ReportEvery > 0 && e.Tick%e.ReportEvery == 0 && e.OnReport != nil {
		e.OnReport(e.Tick)
	}
}
