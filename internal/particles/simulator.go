package particles

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/talgya/snow-globe/internal/forcing"
	"github.com/talgya/snow-globe/internal/weather"
	"github.com/talgya/snow-globe/internal/world"
)

// ErrNegativeRadius is returned when the containment radius is negative.
var ErrNegativeRadius = errors.New("particles: negative containment radius")

// Particle is one drop or flake, in globe-local coordinates.
type Particle struct {
	Pos   r3.Vec  `json:"pos"`
	Vel   r3.Vec  `json:"vel"`
	Fall  float64 `json:"fall"`  // Base fall speed per frame
	Phase float64 `json:"phase"` // Swirl and tumble offset
}

// Stats summarizes simulator activity.
type Stats struct {
	Active   bool   `json:"active"`
	Alive    int    `json:"alive"`
	Ticks    uint64 `json:"ticks"`
	Respawns uint64 `json:"respawns"`
}

// Simulator owns the particle pool.
type Simulator struct {
	cfg      Config
	rng      *rand.Rand
	pool     []Particle
	category weather.Category
	active   bool

	last     forcing.Snapshot
	ticks    uint64
	respawns uint64
}

// New creates a simulator with a fixed pool of cfg.Count particles spread
// uniformly through the containment sphere. The simulator starts idle
// (Clear) until SetCategory selects a precipitating category.
func New(cfg Config) (*Simulator, error) {
	if cfg.Radius < 0 || math.IsNaN(cfg.Radius) {
		return nil, fmt.Errorf("%w: %v", ErrNegativeRadius, cfg.Radius)
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = 60
	}

	s := &Simulator{
		cfg:      cfg,
		rng:      rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		category: weather.Clear,
	}
	if cfg.Count > 0 {
		s.pool = make([]Particle, cfg.Count)
		for i := range s.pool {
			s.seed(&s.pool[i])
		}
	}
	return s, nil
}

func (s *Simulator) seed(p *Particle) {
	p.Pos = s.inSphere()
	p.Vel = r3.Vec{}
	p.Fall = s.cfg.FallMin + s.rng.Float64()*(s.cfg.FallMax-s.cfg.FallMin)
	p.Phase = s.rng.Float64() * 2 * math.Pi
}

// inSphere draws a uniform point inside the containment sphere.
func (s *Simulator) inSphere() r3.Vec {
	for i := 0; i < 32; i++ {
		v := r3.Vec{
			X: s.rng.Float64()*2 - 1,
			Y: s.rng.Float64()*2 - 1,
			Z: s.rng.Float64()*2 - 1,
		}
		if r3.Norm2(v) <= 1 {
			return r3.Scale(s.cfg.Radius, v)
		}
	}
	return r3.Vec{}
}

// SetCategory selects the precipitation style. Non-precipitating categories
// idle the simulator.
func (s *Simulator) SetCategory(c weather.Category) {
	s.category = c
	s.active = c.Precipitates()
}

// Active reports whether the simulator is running and has particles.
func (s *Simulator) Active() bool { return s.active && len(s.pool) > 0 }

// Tick advances every particle by dt seconds under the given forcing.
func (s *Simulator) Tick(sig forcing.Snapshot, dt float64) {
	if !s.Active() {
		return
	}

	sig = sanitizeSnapshot(sig)
	s.last = sig
	s.ticks++

	if math.IsNaN(dt) || dt < 0 {
		dt = 0
	}
	if s.cfg.MaxDt > 0 && dt > s.cfg.MaxDt {
		dt = s.cfg.MaxDt
	}
	frames := dt * s.cfg.FrameRate

	drag := math.Pow(s.cfg.Drag, frames)
	fallMul := 1.0
	if s.category.Heavy() {
		fallMul = s.cfg.HeavyMultiplier
	}

	shake := sig.Shake
	wind := sig.Wind
	t := sig.Elapsed

	// Gust heading wobbles around the vane direction.
	gustAngle := sig.WindAngle + 0.3*math.Sin(t*0.7)
	gustX, gustZ := math.Cos(gustAngle), math.Sin(gustAngle)
	swirl := (s.cfg.SwirlBase + shake*s.cfg.SwirlShake) * frames

	for i := range s.pool {
		p := &s.pool[i]

		if shake > 0 {
			k := shake * s.cfg.ShakeImpulse * frames
			p.Vel.X += (s.rng.Float64() - 0.5) * 2 * k
			p.Vel.Y += (s.rng.Float64() - 0.5) * 2 * k
			p.Vel.Z += (s.rng.Float64() - 0.5) * 2 * k
		}

		if wind > s.cfg.WindThreshold {
			gust := wind * s.cfg.WindImpulse * frames * (0.75 + 0.25*math.Sin(t*1.3+p.Phase))
			p.Vel.X += gustX * gust
			p.Vel.Z += gustZ * gust
		}

		p.Vel = r3.Scale(drag, p.Vel)

		p.Pos.Y += -p.Fall*fallMul*frames + p.Vel.Y*frames
		p.Pos.X += p.Vel.X * frames
		p.Pos.Z += p.Vel.Z * frames

		p.Pos.X += math.Sin(t+p.Phase) * swirl
		p.Pos.Z += math.Cos(t*0.8+p.Phase) * swirl

		if s.escaped(p) {
			s.respawn(p, sig)
		}
	}
}

// escaped reports whether p left the containment volume or went non-finite.
func (s *Simulator) escaped(p *Particle) bool {
	if !finite(p.Pos) || !finite(p.Vel) {
		return true
	}
	if p.Pos.Y < s.cfg.Floor {
		return true
	}
	return r3.Norm(p.Pos) > s.cfg.Radius
}

// respawn resets p near the top of the sphere. Under high wind the new
// position is pushed upwind so particles blow into frame.
func (s *Simulator) respawn(p *Particle, sig forcing.Snapshot) {
	s.respawns++
	r := s.cfg.Radius

	y := r * (s.cfg.SpawnLow + s.rng.Float64()*(s.cfg.SpawnHigh-s.cfg.SpawnLow))
	x := (s.rng.Float64() - 0.5) * 2 * s.cfg.SpawnJitter * r
	z := (s.rng.Float64() - 0.5) * 2 * s.cfg.SpawnJitter * r

	if sig.Wind > s.cfg.HighWind {
		wx, wz := sig.WindDir()
		x -= wx * s.cfg.UpwindBias * r
		z -= wz * s.cfg.UpwindBias * r
	}

	// Keep the respawn strictly inside the sphere.
	limit := math.Sqrt(math.Max(r*r-y*y, 0)) * 0.95
	if h := math.Hypot(x, z); h > limit {
		if h > 0 {
			x *= limit / h
			z *= limit / h
		}
	}
	if y < s.cfg.Floor {
		y = s.cfg.Floor
	}

	p.Pos = r3.Vec{X: x, Y: y, Z: z}
	p.Vel = r3.Vec{}
}

// Transforms writes one render transform per particle into dst (reusing its
// storage) and returns it. An idle simulator returns an empty slice.
func (s *Simulator) Transforms(dst []world.Transform) []world.Transform {
	dst = dst[:0]
	if !s.Active() {
		return dst
	}

	size := s.cfg.Size
	t := s.last.Elapsed
	wx, wz := s.last.WindDir()
	wind := s.last.Wind

	for i := range s.pool {
		p := &s.pool[i]
		tr := world.Transform{
			Position: r3.Add(s.cfg.Center, p.Pos),
			Scale:    r3.Vec{X: size, Y: size, Z: size},
		}
		if s.category.Streaks() {
			speed := math.Hypot(p.Vel.X, p.Vel.Z)
			tr.Scale.Y = size * s.cfg.StreakLength * (1 + speed*10)
			tr.Rotation = r3.Vec{
				X: clampAngle(p.Vel.Z*8 + wz*wind*0.5),
				Z: clampAngle(-(p.Vel.X*8 + wx*wind*0.5)),
			}
		} else {
			tr.Rotation = r3.Vec{X: t*0.5 + p.Phase, Y: t*0.3 + p.Phase}
		}
		dst = append(dst, tr)
	}
	return dst
}

// Particles returns a copy of the pool.
func (s *Simulator) Particles() []Particle {
	return slices.Clone(s.pool)
}

// Stats returns activity counters.
func (s *Simulator) Stats() Stats {
	st := Stats{Active: s.Active(), Ticks: s.ticks, Respawns: s.respawns}
	if st.Active {
		st.Alive = len(s.pool)
	}
	return st
}

func sanitizeSnapshot(sig forcing.Snapshot) forcing.Snapshot {
	sig.Shake = forcing.Sanitize(sig.Shake)
	sig.Wind = forcing.Sanitize(sig.Wind)
	sig.Elapsed = forcing.Sanitize(sig.Elapsed)
	if math.IsNaN(sig.WindAngle) || math.IsInf(sig.WindAngle, 0) {
		sig.WindAngle = 0
	}
	return sig
}

func finite(v r3.Vec) bool {
	for _, c := range [...]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// clampAngle keeps streak tilt within a quarter turn.
func clampAngle(a float64) float64 {
	return math.Max(-math.Pi/4, math.Min(math.Pi/4, a))
}
