package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/talgya/snow-globe/internal/api"
	"github.com/talgya/snow-globe/internal/engine"
	"github.com/talgya/snow-globe/internal/persistence"
	"github.com/talgya/snow-globe/internal/weather"
	"github.com/talgya/snow-globe/internal/world"
)

var serveOpts struct {
	port            int
	city            string
	category        string
	night           bool
	particles       int
	weatherInterval time.Duration
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulation and the HTTP API",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.IntVar(&serveOpts.port, "port", 8080, "HTTP API port")
	f.StringVar(&serveOpts.city, "city", envOr("SNOWGLOBE_CITY", "London"), "starting city")
	f.StringVar(&serveOpts.category, "category", "snow", "starting weather category when no live weather is available")
	f.BoolVar(&serveOpts.night, "night", false, "start at night")
	f.IntVar(&serveOpts.particles, "particles", engine.DefaultConfig().Particles.Count, "particle count")
	f.DurationVar(&serveOpts.weatherInterval, "weather-interval", 10*time.Minute, "live weather refresh period")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := uuid.New()
	slog.Info("snow globe starting", "run_id", runID)

	// ── Store and styles ─────────────────────────────────────────────
	db, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if db != nil {
		defer db.Close()
	}

	styles, err := loadStyleTable(db)
	if err != nil {
		return err
	}
	slog.Info("style catalog ready", "cities", len(styles.Names()))

	// ── Live weather ─────────────────────────────────────────────────
	cfg := engine.DefaultConfig()
	cfg.City = serveOpts.city
	cfg.Category = weather.ParseCategory(serveOpts.category)
	cfg.Daytime = !serveOpts.night
	cfg.Particles.Count = serveOpts.particles

	wx := weather.NewClient(os.Getenv("OPENWEATHER_API_KEY"))
	if wx != nil {
		slog.Info("weather client enabled (OpenWeatherMap)")
		if cond, err := wx.Fetch(ctx, cfg.City); err != nil {
			slog.Warn("initial weather fetch failed, using flags", "error", err)
		} else {
			cfg.Category = cond.Category
			cfg.Daytime = cond.IsDaytime
		}
	} else {
		slog.Warn("OPENWEATHER_API_KEY not set, using static conditions", "category", cfg.Category)
	}

	// ── Simulation ───────────────────────────────────────────────────
	sim, err := engine.NewSimulation(styles, cfg)
	if err != nil {
		return fmt.Errorf("create simulation: %w", err)
	}

	genLog := newGenerationLog(db, runID, styles)
	genLog.record(sim.Scene(), 0)
	go genLog.run(ctx)

	var feed *weatherFeed
	if wx != nil {
		feed = newWeatherFeed(wx, sim, cfg.Forcing.WindMax, serveOpts.weatherInterval)
	}
	sim.OnGenerated = func(scene *world.Scene, took time.Duration) {
		genLog.record(scene, took)
		if feed != nil {
			feed.onGenerated(scene, took)
		}
	}

	eng := engine.NewEngine()
	eng.DecayEvery = engine.TicksFor(cfg.Forcing.DecayInterval, eng.Interval)
	eng.OnFrame = sim.Frame
	eng.OnDecay = sim.Decay
	eng.OnReport = sim.Report

	if feed != nil {
		go feed.run(ctx)
	}

	// ── HTTP API ─────────────────────────────────────────────────────
	adminKey := os.Getenv("SNOWGLOBE_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("SNOWGLOBE_ADMIN_KEY not set, city endpoint will be disabled")
	}
	apiServer := &api.Server{
		Sim:      sim,
		DB:       db,
		Port:     serveOpts.port,
		AdminKey: adminKey,
	}
	apiServer.Start()

	fmt.Printf("\nThe globe is alive: %s under %s.\n", sim.Scene().City, strings.ToLower(cfg.Category.String()))
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", serveOpts.port)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown failed", "error", err)
	}

	fmt.Println("Simulation stopped.")
	return nil
}

// generationLog moves generation records off the tick goroutine into the
// store.
type generationLog struct {
	db     *persistence.DB
	runID  uuid.UUID
	styles *world.StyleTable
	ch     chan persistence.Generation
}

func newGenerationLog(db *persistence.DB, runID uuid.UUID, styles *world.StyleTable) *generationLog {
	return &generationLog{db: db, runID: runID, styles: styles, ch: make(chan persistence.Generation, 16)}
}

func (g *generationLog) record(scene *world.Scene, took time.Duration) {
	if g.db == nil || scene == nil {
		return
	}
	gen := persistence.Generation{
		RunID:       g.runID,
		City:        scene.City,
		KnownStyle:  g.styles.Known(scene.City),
		Fingerprint: scene.Fingerprint(),
		Counts:      scene.Counts(),
		Took:        took,
		At:          time.Now(),
	}
	select {
	case g.ch <- gen:
	default:
		slog.Warn("generation log full, dropping record", "city", scene.City)
	}
}

func (g *generationLog) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case gen := <-g.ch:
			if err := g.db.RecordGeneration(gen); err != nil {
				slog.Error("record generation failed", "city", gen.City, "error", err)
			}
		}
	}
}
