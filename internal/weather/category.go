package weather

import "strings"

// Category is the coarse weather condition that drives particle activation.
type Category uint8

const (
	Clear Category = iota
	Clouds
	Rain
	Snow
	Thunderstorm
	Drizzle
)

var categoryNames = [...]string{
	Clear:        "Clear",
	Clouds:       "Clouds",
	Rain:         "Rain",
	Snow:         "Snow",
	Thunderstorm: "Thunderstorm",
	Drizzle:      "Drizzle",
}

// String returns the OpenWeatherMap-style name of the category.
func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "Unknown"
}

// ParseCategory maps a condition name (case-insensitive) to a Category.
// Atmosphere groups such as "Mist" or "Fog" and unknown names read as Clouds.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "clear":
		return Clear
	case "rain":
		return Rain
	case "snow":
		return Snow
	case "thunderstorm":
		return Thunderstorm
	case "drizzle":
		return Drizzle
	default:
		return Clouds
	}
}

// Precipitates reports whether the globe should run its particle system.
func (c Category) Precipitates() bool {
	switch c {
	case Rain, Snow, Thunderstorm, Drizzle:
		return true
	}
	return false
}

// Heavy reports categories whose particles fall at triple speed.
func (c Category) Heavy() bool {
	return c == Rain || c == Thunderstorm
}

// Streaks reports categories rendered as stretched drops rather than tumbling flakes.
func (c Category) Streaks() bool {
	return c == Rain || c == Thunderstorm || c == Drizzle
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(b []byte) error {
	*c = ParseCategory(string(b))
	return nil
}
