package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/snow-globe/internal/forcing"
	"github.com/talgya/snow-globe/internal/particles"
	"github.com/talgya/snow-globe/internal/weather"
	"github.com/talgya/snow-globe/internal/world"
)

const frame = 1.0 / FrameRate

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Gen = world.SmallTestConfig()
	cfg.Particles.Count = 200
	return cfg
}

func newTestSim(t *testing.T, cfg Config) *Simulation {
	t.Helper()
	sim, err := NewSimulation(world.DefaultStyleTable(), cfg)
	require.NoError(t, err)
	return sim
}

func TestNewSimulationGeneratesStartingCity(t *testing.T) {
	sim := newTestSim(t, testConfig())

	scene := sim.Scene()
	require.NotNil(t, scene)
	assert.Equal(t, "London", scene.City)
	assert.Equal(t, "London", sim.Latest().City)
}

func TestNewSimulationRejectsNegativeRadius(t *testing.T) {
	cfg := testConfig()
	cfg.Particles.Radius = -2
	_, err := NewSimulation(world.DefaultStyleTable(), cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, particles.ErrNegativeRadius))
}

func TestFramePublishesSnapshot(t *testing.T) {
	cfg := testConfig()
	sim := newTestSim(t, cfg)

	sim.Frame(1, frame)
	snap := sim.Latest()

	assert.Equal(t, uint64(1), snap.Tick)
	assert.Len(t, snap.Particles, cfg.Particles.Count)
	assert.Equal(t, weather.Snow, snap.Category)
	assert.InDelta(t, frame, snap.Elapsed, 1e-12)

	// Old snapshots stay intact after later ticks.
	first := snap.Particles[0]
	for i := uint64(2); i < 10; i++ {
		sim.Frame(i, frame)
	}
	assert.Equal(t, first, snap.Particles[0])
}

func TestCityChangeAppliesOnNextFrame(t *testing.T) {
	sim := newTestSim(t, testConfig())
	var generated []string
	sim.OnGenerated = func(scene *world.Scene, took time.Duration) {
		generated = append(generated, scene.City)
	}

	sim.RequestConditions(Conditions{City: "Tokyo", Category: weather.Rain, Daytime: false})
	assert.Equal(t, "London", sim.Scene().City, "change waits for the tick")

	sim.Frame(1, frame)
	assert.Equal(t, "Tokyo", sim.Scene().City)
	assert.Equal(t, []string{"Tokyo"}, generated)

	snap := sim.Latest()
	assert.Equal(t, weather.Rain, snap.Category)
	assert.False(t, snap.Daytime)

	// Weather-only change keeps the scene.
	before := sim.Scene()
	sim.RequestConditions(Conditions{City: "Tokyo", Category: weather.Clear, Daytime: true})
	sim.Frame(2, frame)
	assert.Same(t, before, sim.Scene())
	assert.Equal(t, []string{"Tokyo"}, generated)
	assert.Empty(t, sim.Latest().Particles)
}

func TestInboxEventsReachTheTick(t *testing.T) {
	cfg := testConfig()
	sim := newTestSim(t, cfg)

	for i := 0; i < 10; i++ {
		sim.Inbox.ReportShake(5)
	}
	sim.Inbox.ReportWind(forcing.SourceLocal, 0.3)
	sim.Inbox.ReportWind(forcing.SourceRemote, 0.6)
	sim.Inbox.ReportTilt(30, 0)

	sim.Frame(1, frame)
	snap := sim.Latest()

	assert.Equal(t, cfg.Forcing.ShakeMax, snap.Forcing.Shake)
	assert.InDelta(t, 0.6, snap.Forcing.Wind, 1e-12)
	require.NotNil(t, snap.Forcing.Tilt)
	assert.Greater(t, snap.Rotation.Pitch, 0.0)

	ticks := int(cfg.Forcing.ShakeMax/cfg.Forcing.ShakeStep) + 1
	for i := 0; i < ticks; i++ {
		sim.Decay(uint64(i))
	}
	sim.Frame(2, frame)
	assert.Zero(t, sim.Latest().Forcing.Shake)
	assert.Zero(t, sim.Latest().Forcing.Wind)
}

func TestEngineDrivesSimulation(t *testing.T) {
	sim := newTestSim(t, testConfig())
	e := NewEngine()
	e.OnFrame = sim.Frame
	e.OnDecay = sim.Decay
	e.OnReport = sim.Report
	e.ReportEvery = 5

	sim.Inbox.ReportShake(1)
	for i := 0; i < 12; i++ {
		e.Step()
	}

	snap := sim.Latest()
	assert.Equal(t, uint64(12), snap.Tick)
	// One decay at tick 6 and one at tick 12 (after the frame was published).
	assert.InDelta(t, 0.5, snap.Forcing.Shake, 1e-12)
}

func TestRequestCityKeepsWeather(t *testing.T) {
	sim := newTestSim(t, testConfig())
	sim.RequestConditions(Conditions{City: "London", Category: weather.Rain, Daytime: false})
	sim.RequestCity("Paris")

	sim.Frame(1, frame)
	assert.Equal(t, Conditions{City: "Paris", Category: weather.Rain, Daytime: false}, sim.Conditions())
}

func TestRequestWeatherKeepsCity(t *testing.T) {
	sim := newTestSim(t, testConfig())
	var generated []string
	sim.OnGenerated = func(scene *world.Scene, took time.Duration) {
		generated = append(generated, scene.City)
	}

	assert.True(t, sim.RequestWeather("London", weather.Rain, false))
	sim.Frame(1, frame)
	assert.Equal(t, Conditions{City: "London", Category: weather.Rain, Daytime: false}, sim.Conditions())
	assert.Empty(t, generated, "weather alone never regenerates")
}

func TestRequestWeatherForStaleCityIsDropped(t *testing.T) {
	sim := newTestSim(t, testConfig())

	// Queued but not yet applied city change.
	sim.RequestCity("Tokyo")
	assert.False(t, sim.RequestWeather("London", weather.Thunderstorm, false))
	assert.True(t, sim.RequestWeather("Tokyo", weather.Drizzle, true))

	sim.Frame(1, frame)
	assert.Equal(t, Conditions{City: "Tokyo", Category: weather.Drizzle, Daytime: true}, sim.Conditions())

	// Applied city change.
	assert.False(t, sim.RequestWeather("London", weather.Rain, true))
	sim.Frame(2, frame)
	assert.Equal(t, "Tokyo", sim.Scene().City)
	assert.Equal(t, weather.Drizzle, sim.Conditions().Category)
}
