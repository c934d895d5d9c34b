// Package forcing coalesces shake, wind and tilt events into decaying scalars
// read once per simulation tick. Producers report from any goroutine through
// an Inbox; only the simulation thread touches Signals.
package forcing

import "math"

// Sanitize returns v, or 0 when v is negative or not finite.
func Sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Scalar is a non-negative intensity that events raise and time decays.
type Scalar struct {
	Max   float64 // Clamp ceiling
	Step  float64 // Linear decrement per decay interval; 0 disables decay
	value float64
}

// Value returns the current intensity.
func (s *Scalar) Value() float64 { return s.value }

// Raise adds v to the scalar, clamped to Max.
func (s *Scalar) Raise(v float64) {
	s.value = math.Min(s.value+Sanitize(v), s.Max)
}

// Set replaces the value, clamped to Max.
func (s *Scalar) Set(v float64) {
	s.value = math.Min(Sanitize(v), s.Max)
}

// Decay lowers the value by Step, stopping at exactly zero.
func (s *Scalar) Decay() {
	if s.Step <= 0 {
		return
	}
	s.value -= s.Step
	if s.value < 0 {
		s.value = 0
	}
}
