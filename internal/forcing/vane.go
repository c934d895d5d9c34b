package forcing

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// WindVane produces a slowly wandering wind direction.
type WindVane struct {
	noise     opensimplex.Noise
	frequency float64
}

// NewWindVane creates a vane seeded for reproducible wandering.
func NewWindVane(seed int64, frequency float64) *WindVane {
	return &WindVane{
		noise:     opensimplex.New(seed),
		frequency: frequency,
	}
}

// Angle returns the wind heading in radians at elapsed time t (seconds).
// Wind blows toward (cos a, sin a) in the horizontal plane.
func (v *WindVane) Angle(t float64) float64 {
	return v.noise.Eval2(t*v.frequency, 0.5) * math.Pi
}
