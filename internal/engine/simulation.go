// Simulation ties together the city scene, particles, orientation and
// forcing signals and advances them once per tick.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/talgya/snow-globe/internal/forcing"
	"github.com/talgya/snow-globe/internal/orientation"
	"github.com/talgya/snow-globe/internal/particles"
	"github.com/talgya/snow-globe/internal/weather"
	"github.com/talgya/snow-globe/internal/world"
)

// Config bundles the per-component configuration and the starting conditions.
type Config struct {
	Gen         world.GenConfig
	Particles   particles.Config
	Orientation orientation.Config
	Forcing     forcing.Config

	City     string
	Category weather.Category
	Daytime  bool
}

// DefaultConfig returns a daytime snowy London.
func DefaultConfig() Config {
	return Config{
		Gen:         world.DefaultGenConfig(),
		Particles:   particles.DefaultConfig(),
		Orientation: orientation.DefaultConfig(),
		Forcing:     forcing.DefaultConfig(),
		City:        "London",
		Category:    weather.Snow,
		Daytime:     true,
	}
}

// Snapshot is the read-only state published after each tick.
type Snapshot struct {
	Tick      uint64            `json:"tick"`
	Elapsed   float64           `json:"elapsed"`
	City      string            `json:"city"`
	Category  weather.Category  `json:"category"`
	Daytime   bool              `json:"daytime"`
	Rotation  orientation.State `json:"rotation"`
	Forcing   forcing.Snapshot  `json:"forcing"`
	Stats     particles.Stats   `json:"stats"`
	Particles []world.Transform `json:"particles"`
}

// Conditions are the external inputs that select a scene and its weather.
type Conditions struct {
	City     string           `json:"city"`
	Category weather.Category `json:"category"`
	Daytime  bool             `json:"daytime"`
}

// Simulation holds the complete globe state. Frame, Decay and Report run on
// the tick goroutine only; RequestConditions, Inbox reports and the read
// accessors are safe from any goroutine.
type Simulation struct {
	Styles *world.StyleTable
	Inbox  *forcing.Inbox

	// OnGenerated is called on the tick goroutine after each regeneration.
	OnGenerated func(scene *world.Scene, took time.Duration)

	cfg       Config
	particles *particles.Simulator
	fuser     *orientation.Fuser
	signals   *forcing.Signals

	mu      sync.Mutex
	pending *Conditions
	current Conditions

	scene   atomic.Pointer[world.Scene]
	latest  atomic.Pointer[Snapshot]
	elapsed float64
	now     func() time.Time
}

// NewSimulation builds the simulation and generates the starting city.
func NewSimulation(styles *world.StyleTable, cfg Config) (*Simulation, error) {
	ps, err := particles.New(cfg.Particles)
	if err != nil {
		return nil, fmt.Errorf("particles: %w", err)
	}

	s := &Simulation{
		Styles:    styles,
		Inbox:     forcing.NewInbox(),
		cfg:       cfg,
		particles: ps,
		fuser:     orientation.NewFuser(cfg.Orientation),
		signals:   forcing.NewSignals(cfg.Forcing),
		now:       time.Now,
	}

	s.apply(Conditions{City: cfg.City, Category: cfg.Category, Daytime: cfg.Daytime}, true)
	s.latest.Store(&Snapshot{
		City:     cfg.City,
		Category: cfg.Category,
		Daytime:  cfg.Daytime,
	})
	return s, nil
}

// RequestConditions queues a city/weather change. It takes effect at the
// start of the next tick, so regeneration never overlaps a particle update.
func (s *Simulation) RequestConditions(c Conditions) {
	s.mu.Lock()
	s.pending = &c
	s.mu.Unlock()
}

// RequestCity queues a city change, keeping the current weather.
func (s *Simulation) RequestCity(city string) {
	c := s.Conditions()
	s.mu.Lock()
	if s.pending != nil {
		c = *s.pending
	}
	c.City = city
	s.pending = &c
	s.mu.Unlock()
}

// RequestWeather queues a weather change for city. It is dropped, and
// false returned, when city is no longer the city being shown or queued,
// so a slow weather fetch cannot undo a city change.
func (s *Simulation) RequestWeather(city string, category weather.Category, daytime bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.current
	if s.pending != nil {
		c = *s.pending
	}
	if c.City != city {
		return false
	}
	c.Category = category
	c.Daytime = daytime
	s.pending = &c
	return true
}

// Conditions returns the conditions currently in effect.
func (s *Simulation) Conditions() Conditions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Frame runs one tick of dt seconds.
func (s *Simulation) Frame(tick uint64, dt float64) {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	if pending != nil {
		s.apply(*pending, false)
	}

	s.signals.Apply(s.Inbox.Drain())

	if dt > 0 {
		s.elapsed += dt
	}
	sig := s.signals.Snapshot(s.elapsed, s.now())

	s.particles.Tick(sig, dt)
	rot := s.fuser.Update(sig.Tilt, dt)

	cur := s.Conditions()
	s.latest.Store(&Snapshot{
		Tick:      tick,
		Elapsed:   s.elapsed,
		City:      cur.City,
		Category:  cur.Category,
		Daytime:   cur.Daytime,
		Rotation:  rot,
		Forcing:   sig,
		Stats:     s.particles.Stats(),
		Particles: s.particles.Transforms(make([]world.Transform, 0, max(s.cfg.Particles.Count, 0))),
	})
}

// Decay advances the forcing scalars by one decay interval.
func (s *Simulation) Decay(tick uint64) {
	s.signals.Decay()
}

// Report logs a periodic summary.
func (s *Simulation) Report(tick uint64) {
	snap := s.Latest()
	slog.Info("globe report",
		"tick", tick,
		"city", snap.City,
		"category", snap.Category,
		"daytime", snap.Daytime,
		"alive", snap.Stats.Alive,
		"respawns", snap.Stats.Respawns,
		"shake", fmt.Sprintf("%.2f", snap.Forcing.Shake),
		"wind", fmt.Sprintf("%.2f", snap.Forcing.Wind),
		"pitch", fmt.Sprintf("%.3f", snap.Rotation.Pitch),
		"roll", fmt.Sprintf("%.3f", snap.Rotation.Roll),
	)
}

// Latest returns the most recently published snapshot.
func (s *Simulation) Latest() *Snapshot {
	return s.latest.Load()
}

// Scene returns the current city scene.
func (s *Simulation) Scene() *world.Scene {
	return s.scene.Load()
}

func (s *Simulation) apply(c Conditions, force bool) {
	s.mu.Lock()
	prev := s.current
	s.current = c
	s.mu.Unlock()

	s.particles.SetCategory(c.Category)

	if !force && c.City == prev.City && s.scene.Load() != nil {
		if c.Category != prev.Category || c.Daytime != prev.Daytime {
			slog.Info("conditions changed", "city", c.City, "category", c.Category, "daytime", c.Daytime)
		}
		return
	}

	start := time.Now()
	scene := world.GenerateCity(s.Styles, c.City, s.cfg.Gen)
	took := time.Since(start)
	s.scene.Store(scene)

	counts := scene.Counts()
	slog.Info("city generated",
		"city", c.City,
		"known_style", s.Styles.Known(c.City),
		"cells", len(scene.Cells),
		"buildings", counts.Buildings,
		"props", len(scene.Props),
		"markers", counts.Markers,
		"took", took,
	)

	if s.OnGenerated != nil {
		s.OnGenerated(scene, took)
	}
}
