package forcing

import (
	"math"
	"time"
)

// Config controls clamp ceilings and decay rates.
type Config struct {
	ShakeMax  float64
	ShakeStep float64 // Per decay interval
	WindMax   float64
	WindStep  float64 // Per decay interval, local and remote sources

	DecayInterval time.Duration // How often Decay should be called
	TiltTimeout   time.Duration // Remote tilt older than this reads as absent

	VaneSeed      int64
	VaneFrequency float64
}

// DefaultConfig returns the standard forcing configuration.
func DefaultConfig() Config {
	return Config{
		ShakeMax:      10,
		ShakeStep:     0.5,
		WindMax:       1,
		WindStep:      0.05,
		DecayInterval: 100 * time.Millisecond,
		TiltTimeout:   time.Second,
		VaneSeed:      7,
		VaneFrequency: 0.05,
	}
}

// Snapshot is the read-only forcing view for one tick.
type Snapshot struct {
	Shake     float64 `json:"shake"`
	Wind      float64 `json:"wind"`       // Max over sources
	WindAngle float64 `json:"wind_angle"` // Radians
	Tilt      *Tilt   `json:"tilt,omitempty"`
	Elapsed   float64 `json:"elapsed"` // Seconds since start
}

// WindDir returns the horizontal unit direction the wind blows toward.
func (s Snapshot) WindDir() (x, z float64) {
	return math.Cos(s.WindAngle), math.Sin(s.WindAngle)
}

// Signals is the simulation thread's decaying forcing state.
type Signals struct {
	cfg    Config
	shake  Scalar
	wind   [numSources]Scalar
	vane   *WindVane
	tilt   *Tilt
	tiltAt time.Time
}

// NewSignals creates zeroed signals.
func NewSignals(cfg Config) *Signals {
	s := &Signals{
		cfg:   cfg,
		shake: Scalar{Max: cfg.ShakeMax, Step: cfg.ShakeStep},
		vane:  NewWindVane(cfg.VaneSeed, cfg.VaneFrequency),
	}
	s.wind[SourceLocal] = Scalar{Max: cfg.WindMax, Step: cfg.WindStep}
	s.wind[SourceRemote] = Scalar{Max: cfg.WindMax, Step: cfg.WindStep}
	// Ambient tracks live weather; it changes only when re-reported.
	s.wind[SourceAmbient] = Scalar{Max: cfg.WindMax}
	return s
}

// Apply folds a drained batch into the scalars.
func (s *Signals) Apply(b Batch) {
	s.shake.Raise(b.Shake)
	s.wind[SourceLocal].Raise(b.Wind[SourceLocal])
	s.wind[SourceRemote].Raise(b.Wind[SourceRemote])
	if b.Ambient != nil {
		s.wind[SourceAmbient].Set(*b.Ambient)
	}
	if b.ClearTilt {
		s.tilt = nil
	}
	if b.Tilt != nil {
		t := *b.Tilt
		s.tilt = &t
		s.tiltAt = b.TiltAt
	}
}

// Decay advances every decaying scalar by one interval.
func (s *Signals) Decay() {
	s.shake.Decay()
	for i := range s.wind {
		s.wind[i].Decay()
	}
}

// Shake returns the current shake intensity.
func (s *Signals) Shake() float64 { return s.shake.Value() }

// Wind returns the combined wind intensity: the maximum over sources, so
// several producers can never accumulate past a single one.
func (s *Signals) Wind() float64 {
	w := 0.0
	for i := range s.wind {
		w = math.Max(w, s.wind[i].Value())
	}
	return w
}

// WindFrom returns one source's wind intensity.
func (s *Signals) WindFrom(src Source) float64 {
	if src >= numSources {
		return 0
	}
	return s.wind[src].Value()
}

// Snapshot captures the forcing view for the tick at elapsed seconds and
// wall time now.
func (s *Signals) Snapshot(elapsed float64, now time.Time) Snapshot {
	snap := Snapshot{
		Shake:     s.shake.Value(),
		Wind:      s.Wind(),
		WindAngle: s.vane.Angle(elapsed),
		Elapsed:   elapsed,
	}
	if s.tilt != nil && (s.cfg.TiltTimeout <= 0 || now.Sub(s.tiltAt) <= s.cfg.TiltTimeout) {
		t := *s.tilt
		snap.Tilt = &t
	}
	return snap
}
