package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/snow-globe/internal/engine"
	"github.com/talgya/snow-globe/internal/weather"
	"github.com/talgya/snow-globe/internal/world"
)

const frame = 1.0 / engine.FrameRate

func owmBody(main string) string {
	return fmt.Sprintf(`{
	"dt": 1700000000,
	"main": {"temp": 3},
	"weather": [{"main": %q, "description": "test"}],
	"wind": {"speed": 4},
	"sys": {"sunrise": 1699990000, "sunset": 1700020000}
}`, main)
}

func newFeedSim(t *testing.T) *engine.Simulation {
	t.Helper()
	cfg := engine.DefaultConfig()
	cfg.Gen = world.SmallTestConfig()
	cfg.Particles.Count = 100
	cfg.City = "London"
	cfg.Category = weather.Snow
	sim, err := engine.NewSimulation(world.DefaultStyleTable(), cfg)
	require.NoError(t, err)
	return sim
}

func TestWeatherFeedDropsResultForPreviousCity(t *testing.T) {
	fetching := make(chan string, 4)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetching <- r.URL.Query().Get("q")
		<-release
		w.Write([]byte(owmBody("Rain")))
	}))
	defer srv.Close()

	sim := newFeedSim(t)
	feed := newWeatherFeed(weather.NewClient("key").WithBaseURL(srv.URL), sim, 8, time.Hour)

	done := make(chan struct{})
	go func() {
		feed.update(context.Background())
		close(done)
	}()
	assert.Equal(t, "London", <-fetching)

	// The city changes while London's weather is in flight.
	sim.RequestCity("Tokyo")
	sim.Frame(1, frame)
	require.Equal(t, "Tokyo", sim.Scene().City)

	close(release)
	<-done

	sim.Frame(2, frame)
	assert.Equal(t, "Tokyo", sim.Scene().City)
	assert.Equal(t, engine.Conditions{City: "Tokyo", Category: weather.Snow, Daytime: true}, sim.Conditions())
}

func TestWeatherFeedFetchesNewCity(t *testing.T) {
	var mu sync.Mutex
	var asked []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		city := r.URL.Query().Get("q")
		mu.Lock()
		asked = append(asked, city)
		mu.Unlock()
		if city == "Tokyo" {
			w.Write([]byte(owmBody("Rain")))
			return
		}
		w.Write([]byte(owmBody("Snow")))
	}))
	defer srv.Close()

	sim := newFeedSim(t)
	feed := newWeatherFeed(weather.NewClient("key").WithBaseURL(srv.URL), sim, 8, time.Hour)
	sim.OnGenerated = feed.onGenerated

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go feed.run(ctx)

	fetched := func(city string) bool {
		mu.Lock()
		defer mu.Unlock()
		for _, c := range asked {
			if c == city {
				return true
			}
		}
		return false
	}
	require.Eventually(t, func() bool { return fetched("London") }, 2*time.Second, 5*time.Millisecond)

	tick := uint64(0)
	sim.RequestCity("Tokyo")
	tick++
	sim.Frame(tick, frame)

	require.Eventually(t, func() bool {
		tick++
		sim.Frame(tick, frame)
		return sim.Conditions().Category == weather.Rain
	}, 2*time.Second, 5*time.Millisecond)

	assert.True(t, fetched("Tokyo"), "city change triggers a fetch well before the hourly period")
	assert.Equal(t, "Tokyo", sim.Conditions().City)
}
