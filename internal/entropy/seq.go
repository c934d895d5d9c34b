// Package entropy provides the deterministic draw sequences used by city generation.
// A sequence is keyed by a string (the city name) and never touches an external
// entropy source, so the same key replays the same draws on every platform.
package entropy

import "math"

// Seq is a reproducible stream of floats in [0, 1).
// Each generation run owns its own Seq; sequences never share state.
type Seq struct {
	seed    int64
	counter int64
}

// SeedFromKey derives the integer seed for a key by summing its character codes.
func SeedFromKey(key string) int64 {
	var sum int64
	for _, r := range key {
		sum += int64(r)
	}
	return sum
}

// NewSeq starts a fresh sequence for key.
func NewSeq(key string) *Seq {
	return seqFromSeed(SeedFromKey(key))
}

func seqFromSeed(seed int64) *Seq {
	return &Seq{seed: seed}
}

// draws returns how many values have been drawn so far.
func (s *Seq) draws() int64 { return s.counter }

// Float returns the next value in [0, 1).
func (s *Seq) Float() float64 {
	x := math.Sin(float64(s.seed+s.counter)) * 10000
	s.counter++
	f := x - math.Floor(x)
	// Rounding in the subtraction can land exactly on 1 for large |x|.
	if f >= 1 {
		return math.Nextafter(1, 0)
	}
	return f
}

// Range returns the next value scaled into [lo, hi).
func (s *Seq) Range(lo, hi float64) float64 {
	return lo + s.Float()*(hi-lo)
}

// Chance draws once and reports whether the draw fell below p.
func (s *Seq) Chance(p float64) bool {
	return s.Float() < p
}

// Intn returns the next value as an int in [0, n). Returns 0 for n <= 0
// without consuming a draw.
func (s *Seq) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	i := int(s.Float() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
