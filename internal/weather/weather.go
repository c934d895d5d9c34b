// Package weather provides real-world weather data integration.
// Maps OpenWeatherMap conditions to the category and day/night inputs of the globe.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// Client fetches weather data from OpenWeatherMap.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client

	mu          sync.Mutex
	cache       map[string]cachedConditions
	cacheTTL    time.Duration
	lastFailAt  time.Time
	failBackoff time.Duration
}

type cachedConditions struct {
	conditions *Conditions
	at         time.Time
}

// NewClient creates a weather API client. Returns nil if apiKey is empty.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey:   apiKey,
		baseURL:  defaultBaseURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		cache:    make(map[string]cachedConditions),
		cacheTTL: 5 * time.Minute,
	}
}

// WithBaseURL points the client at a different endpoint (used by tests).
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// Conditions holds parsed weather data from the API.
type Conditions struct {
	City        string   `json:"city"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
	Temp        float64  `json:"temp"`       // Celsius
	WindSpeed   float64  `json:"wind_speed"` // m/s
	IsDaytime   bool     `json:"is_daytime"`
}

// Fetch retrieves current conditions for city, using the cache if fresh.
func (c *Client) Fetch(ctx context.Context, city string) (*Conditions, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, ok := c.cache[city]
	if ok && time.Since(cached.at) < c.cacheTTL {
		return cached.conditions, nil
	}

	// Backoff on repeated failures (up to 10 minutes).
	if c.failBackoff > 0 && time.Since(c.lastFailAt) < c.failBackoff {
		if ok {
			return cached.conditions, nil
		}
		return nil, fmt.Errorf("weather API backoff (%s remaining)", c.failBackoff-time.Since(c.lastFailAt))
	}

	conditions, err := c.fetchFromAPI(ctx, city)
	if err != nil {
		c.lastFailAt = time.Now()
		if c.failBackoff == 0 {
			c.failBackoff = 1 * time.Minute
		} else if c.failBackoff < 10*time.Minute {
			c.failBackoff *= 2
		}
		if ok {
			return cached.conditions, nil
		}
		return nil, err
	}

	c.cache[city] = cachedConditions{conditions: conditions, at: time.Now()}
	c.failBackoff = 0
	return conditions, nil
}

func (c *Client) fetchFromAPI(ctx context.Context, city string) (*Conditions, error) {
	apiURL := fmt.Sprintf("%s?q=%s&appid=%s&units=metric", c.baseURL, url.QueryEscape(city), c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build weather request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather API call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read weather response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API error %d: %s", resp.StatusCode, string(body))
	}

	conditions, err := parseConditions(city, body)
	if err != nil {
		return nil, err
	}

	slog.Debug("weather fetched", "city", city, "category", conditions.Category, "daytime", conditions.IsDaytime)
	return conditions, nil
}

func parseConditions(city string, body []byte) (*Conditions, error) {
	var owm struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Sys struct {
			Sunrise int64 `json:"sunrise"`
			Sunset  int64 `json:"sunset"`
		} `json:"sys"`
	}

	if err := json.Unmarshal(body, &owm); err != nil {
		return nil, fmt.Errorf("parse weather: %w", err)
	}

	conditions := &Conditions{
		City:      city,
		Category:  Clouds,
		Temp:      owm.Main.Temp,
		WindSpeed: owm.Wind.Speed,
		IsDaytime: true,
	}

	if len(owm.Weather) > 0 {
		conditions.Description = owm.Weather[0].Description
		conditions.Category = ParseCategory(owm.Weather[0].Main)
	}

	if owm.Dt > 0 && owm.Sys.Sunrise > 0 && owm.Sys.Sunset > 0 {
		conditions.IsDaytime = owm.Dt >= owm.Sys.Sunrise && owm.Dt < owm.Sys.Sunset
	}

	return conditions, nil
}

// AmbientWind maps the reported wind speed onto the globe's wind scale.
// 20 m/s (a strong gale) saturates at max.
func (c *Conditions) AmbientWind(max float64) float64 {
	if c == nil || c.WindSpeed <= 0 {
		return 0
	}
	v := c.WindSpeed / 20 * max
	if v > max {
		v = max
	}
	return v
}
