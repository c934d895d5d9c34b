// Package orientation fuses a remote tilt signal into the globe's bounded
// world rotation, easing back to level when the signal goes away.
package orientation

import (
	"math"

	"github.com/talgya/snow-globe/internal/forcing"
)

// Config holds clamp and blend parameters. Rates are fractions of the
// remaining distance covered per 60 Hz frame.
type Config struct {
	MaxAngle   float64 // Radians; both axes stay within ±MaxAngle
	FollowRate float64 // Blend toward the tilt target
	IdleRate   float64 // Blend toward level with no signal
	FrameRate  float64
}

// DefaultConfig returns the standard fuser configuration.
func DefaultConfig() Config {
	return Config{
		MaxAngle:   0.5,
		FollowRate: 0.1,
		IdleRate:   0.02,
		FrameRate:  60,
	}
}

// State is the world rotation offset.
type State struct {
	Pitch float64 `json:"pitch"` // Rotation about X, from front/back tilt
	Roll  float64 `json:"roll"`  // Rotation about Z, from left/right tilt
}

// Fuser tracks the smoothed rotation.
type Fuser struct {
	cfg   Config
	state State
}

// NewFuser creates a level fuser.
func NewFuser(cfg Config) *Fuser {
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = 60
	}
	cfg.MaxAngle = math.Abs(cfg.MaxAngle)
	return &Fuser{cfg: cfg}
}

// State returns the current rotation.
func (f *Fuser) State() State { return f.state }

// Target converts a tilt in degrees to the clamped rotation it asks for.
// Front/back maps directly to pitch; left/right maps inverted to roll.
func (f *Fuser) Target(t forcing.Tilt) State {
	return State{
		Pitch: f.clamp(t.FrontBack * math.Pi / 180),
		Roll:  f.clamp(-t.LeftRight * math.Pi / 180),
	}
}

// Update eases the rotation toward tilt's target, or toward level when tilt
// is nil or unusable, over dt seconds.
func (f *Fuser) Update(tilt *forcing.Tilt, dt float64) State {
	if math.IsNaN(dt) || dt < 0 {
		dt = 0
	}
	frames := dt * f.cfg.FrameRate

	target := State{}
	rate := f.cfg.IdleRate
	if tilt != nil && !math.IsNaN(tilt.FrontBack) && !math.IsNaN(tilt.LeftRight) {
		target = f.Target(*tilt)
		rate = f.cfg.FollowRate
	}

	// Frame-rate independent lerp factor.
	k := 1 - math.Pow(1-clamp01(rate), frames)

	f.state.Pitch = f.clamp(f.state.Pitch + (target.Pitch-f.state.Pitch)*k)
	f.state.Roll = f.clamp(f.state.Roll + (target.Roll-f.state.Roll)*k)
	return f.state
}

func (f *Fuser) clamp(a float64) float64 {
	if math.IsNaN(a) {
		return 0
	}
	return math.Max(-f.cfg.MaxAngle, math.Min(f.cfg.MaxAngle, a))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
