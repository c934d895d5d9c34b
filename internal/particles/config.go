// Package particles simulates the rain and snow inside the globe.
// The pool is fixed at construction; respawning only resets fields.
package particles

import "gonum.org/v1/gonum/spatial/r3"

// Config holds simulator parameters. Per-tick quantities are expressed per
// 60 Hz frame and scaled by the actual tick length.
type Config struct {
	Count  int     // Pool size; <= 0 yields an idle simulator
	Radius float64 // Containment sphere radius around the globe center
	Floor  float64 // Height (globe-local) below which particles respawn
	Center r3.Vec  // Globe center in world space

	Drag          float64 // Velocity multiplier per frame (< 1)
	ShakeImpulse  float64 // Max random velocity kick per unit shake
	WindImpulse   float64 // Lateral velocity gained per unit wind
	WindThreshold float64 // Wind below this applies no impulse
	HighWind      float64 // Wind above this biases respawns upwind
	UpwindBias    float64 // Upwind respawn offset, fraction of Radius

	FallMin         float64 // Base fall speed range per frame
	FallMax         float64
	HeavyMultiplier float64 // Fall multiplier for rain and thunderstorms

	SpawnLow    float64 // Respawn height band, fraction of Radius
	SpawnHigh   float64
	SpawnJitter float64 // Horizontal respawn half-range, fraction of Radius

	SwirlBase  float64 // Swirl amplitude at rest
	SwirlShake float64 // Extra swirl amplitude per unit shake

	Size         float64 // Rendered particle size
	StreakLength float64 // Rain stretch factor

	FrameRate float64 // Frames per second the per-frame quantities assume
	MaxDt     float64 // Longest tick simulated in one step (seconds)
	Seed      uint64
}

// DefaultConfig returns the standard globe simulation.
func DefaultConfig() Config {
	return Config{
		Count:  1500,
		Radius: 4.5,
		Floor:  -1.5,
		Center: r3.Vec{Y: 1.5},

		Drag:          0.95,
		ShakeImpulse:  0.004,
		WindImpulse:   0.004,
		WindThreshold: 0.05,
		HighWind:      0.6,
		UpwindBias:    0.35,

		FallMin:         0.008,
		FallMax:         0.02,
		HeavyMultiplier: 3,

		SpawnLow:    0.45,
		SpawnHigh:   0.8,
		SpawnJitter: 0.25,

		SwirlBase:  0.002,
		SwirlShake: 0.004,

		Size:         0.04,
		StreakLength: 4,

		FrameRate: 60,
		MaxDt:     0.1,
		Seed:      1,
	}
}
