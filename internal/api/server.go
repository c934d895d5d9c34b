// Package api is the globe's HTTP bridge. GET endpoints publish the scene
// and per-tick snapshots to renderers; sensor POSTs feed the forcing inbox;
// the city POST requires a bearer token.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/talgya/snow-globe/internal/engine"
	"github.com/talgya/snow-globe/internal/forcing"
	"github.com/talgya/snow-globe/internal/persistence"
	"github.com/talgya/snow-globe/internal/weather"
	"github.com/talgya/snow-globe/internal/world"
)

const (
	maxSSEConns       = 2
	maxBodyBytes      = 4 << 10
	defaultGenLimit   = 20
	maxGenLimit       = 200
	sensorRate        = 120 // requests per sensorWindow per IP
	sensorWindow      = time.Second
	defaultStreamRate = 100 * time.Millisecond
)

// Server serves the globe over HTTP.
type Server struct {
	Sim      *engine.Simulation
	DB       *persistence.DB // Optional; generation log is unavailable without it
	Port     int
	AdminKey string // Bearer token for the city endpoint. Empty = disabled.

	// StreamInterval is the SSE frame period. Zero means 100ms.
	StreamInterval time.Duration

	started       time.Time
	sseConns      int32
	sensorLimiter *RateLimiter
	srv           *http.Server
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	if s.started.IsZero() {
		s.started = time.Now()
	}
	if s.sensorLimiter == nil {
		s.sensorLimiter = NewRateLimiter(sensorRate, sensorWindow)
	}
	sensorLimiter := s.sensorLimiter

	mux := http.NewServeMux()

	// Public observation endpoints.
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/scene", s.handleScene)
	mux.HandleFunc("/api/v1/frame", s.handleFrame)
	mux.HandleFunc("/api/v1/styles", s.handleStyles)
	mux.HandleFunc("/api/v1/generations", s.handleGenerations)
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	// Sensor bridge (POST, rate limited per IP).
	mux.HandleFunc("/api/v1/shake", RateLimitMiddleware(sensorLimiter, postOnly(s.handleShake)))
	mux.HandleFunc("/api/v1/wind", RateLimitMiddleware(sensorLimiter, postOnly(s.handleWind)))
	mux.HandleFunc("/api/v1/tilt", RateLimitMiddleware(sensorLimiter, postOnly(s.handleTilt)))

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/city", s.adminOnly(s.handleCity))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "store", s.DB != nil)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops the server started by Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no SNOWGLOBE_ADMIN_KEY set)", http.StatusForbidden)
				return
			}

			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

func postOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.Sim.Latest()
	scene := s.Sim.Scene()

	status := map[string]any{
		"name":       "Snow Globe",
		"tick":       snap.Tick,
		"elapsed":    snap.Elapsed,
		"uptime":     time.Since(s.started).Round(time.Second).String(),
		"city":       snap.City,
		"category":   snap.Category,
		"daytime":    snap.Daytime,
		"known_city": s.Sim.Styles.Known(snap.City),
		"particles":  snap.Stats,
		"forcing":    snap.Forcing,
		"rotation":   snap.Rotation,
	}
	if scene != nil {
		status["counts"] = scene.Counts()
		status["fingerprint"] = strconv.FormatUint(scene.Fingerprint(), 16)
	}
	writeJSON(w, status)
}

// handleScene returns the render-ready city. ?night=1 applies the night
// pass; otherwise the current daytime flag decides.
func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	scene := s.Sim.Scene()
	if scene == nil {
		http.Error(w, "scene not ready", http.StatusServiceUnavailable)
		return
	}

	snap := s.Sim.Latest()
	daytime := snap.Daytime
	if v := r.URL.Query().Get("night"); v != "" {
		night, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "night must be a boolean", http.StatusBadRequest)
			return
		}
		daytime = !night
	}

	writeJSON(w, map[string]any{
		"city":        scene.City,
		"style":       scene.Style,
		"daytime":     daytime,
		"counts":      scene.Counts(),
		"fingerprint": strconv.FormatUint(scene.Fingerprint(), 16),
		"instances":   scene.Render(daytime, snap.Elapsed),
	})
}

// handleFrame returns the latest snapshot. ?particles=0 omits the
// particle transforms.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	snap := s.Sim.Latest()
	if r.URL.Query().Get("particles") == "0" {
		trimmed := *snap
		trimmed.Particles = nil
		snap = &trimmed
	}
	writeJSON(w, snap)
}

func (s *Server) handleStyles(w http.ResponseWriter, r *http.Request) {
	names := s.Sim.Styles.Names()
	styles := make([]world.StyleProfile, 0, len(names))
	for _, name := range names {
		styles = append(styles, s.Sim.Styles.Resolve(name))
	}
	writeJSON(w, map[string]any{
		"styles":   styles,
		"fallback": s.Sim.Styles.Resolve(""),
	})
}

func (s *Server) handleGenerations(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	limit := defaultGenLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxGenLimit)
	}

	gens, err := s.DB.RecentGenerations(limit)
	if err != nil {
		slog.Error("generation log query failed", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, gens)
}

func (s *Server) handleShake(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Intensity float64 `json:"intensity"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.Sim.Inbox.ReportShake(req.Intensity)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleWind(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source    string  `json:"source"`
		Intensity float64 `json:"intensity"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	src := forcing.ParseSource(req.Source)
	if src == forcing.SourceAmbient {
		// Ambient wind is owned by the weather feed.
		http.Error(w, "source must be local or remote", http.StatusBadRequest)
		return
	}
	s.Sim.Inbox.ReportWind(src, req.Intensity)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleTilt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FrontBack float64 `json:"front_back"`
		LeftRight float64 `json:"left_right"`
		Clear     bool    `json:"clear"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Clear {
		s.Sim.Inbox.ClearTilt()
		w.WriteHeader(http.StatusAccepted)
		return
	}
	s.Sim.Inbox.ReportTilt(req.FrontBack, req.LeftRight)
	w.WriteHeader(http.StatusAccepted)
}

// handleCity queues a city and/or weather change. Omitted fields keep
// their current values.
func (s *Server) handleCity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, s.Sim.Conditions())
		return
	}

	var req struct {
		City     *string `json:"city"`
		Category *string `json:"category"`
		Daytime  *bool   `json:"daytime"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	c := s.Sim.Conditions()
	if req.City != nil {
		city := strings.TrimSpace(*req.City)
		if city == "" {
			http.Error(w, "city must not be empty", http.StatusBadRequest)
			return
		}
		c.City = city
	}
	if req.Category != nil {
		c.Category = weather.ParseCategory(*req.Category)
	}
	if req.Daytime != nil {
		c.Daytime = *req.Daytime
	}

	s.Sim.RequestConditions(c)
	slog.Info("conditions requested", "city", c.City, "category", c.Category, "daytime", c.Daytime)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]any{
		"requested":  c,
		"known_city": s.Sim.Styles.Known(c.City),
	})
}

// handleStream pushes snapshots as server-sent events. Concurrent
// connections are capped.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	current := atomic.AddInt32(&s.sseConns, 1)
	if current > maxSSEConns {
		atomic.AddInt32(&s.sseConns, -1)
		http.Error(w, "too many SSE connections", http.StatusServiceUnavailable)
		return
	}
	defer atomic.AddInt32(&s.sseConns, -1)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// SSE headers.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	withParticles := r.URL.Query().Get("particles") != "0"
	interval := s.StreamInterval
	if interval <= 0 {
		interval = defaultStreamRate
	}

	slog.Info("SSE client connected", "remote", clientIP(r))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	var last *engine.Snapshot
	send := func() {
		snap := s.Sim.Latest()
		if snap == last {
			return
		}
		if last == nil || snap.City != last.City {
			writeSSEEvent(w, "city", engine.Conditions{City: snap.City, Category: snap.Category, Daytime: snap.Daytime})
		}
		last = snap
		if !withParticles {
			trimmed := *snap
			trimmed.Particles = nil
			snap = &trimmed
		}
		writeSSEEvent(w, "frame", snap)
		flusher.Flush()
	}

	send()
	for {
		select {
		case <-ticker.C:
			send()
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			slog.Info("SSE client disconnected", "remote", clientIP(r))
			return
		}
	}
}

// writeSSEEvent writes a single event in SSE format.
func writeSSEEvent(w http.ResponseWriter, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
