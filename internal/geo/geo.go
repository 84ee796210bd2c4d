// Package geo resolves coordinates and travel durations for listings,
// best-effort, behind persistent caches and an external rate limit.
package geo

import (
	"encoding/json"
	"math"
	"time"

	"github.com/caarlos0/env/v11"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeocodeCache maps a normalized query to its coordinates. A nil value
// records a lookup that failed outright, so it isn't retried within the
// same scan; failures are dropped at the JSON boundary, so the next scan
// retries them. Place coordinates don't expire, so there is no TTL.
type GeocodeCache map[string]*Coordinates

// MarshalJSON persists only resolved lookups. Failed ones stay
// in-memory for the current scan and are retried on the next.
func (c GeocodeCache) MarshalJSON() ([]byte, error) {
	resolved := make(map[string]*Coordinates, len(c))
	for query, coords := range c {
		if coords != nil {
			resolved[query] = coords
		}
	}
	return json.Marshal(resolved)
}

// UnmarshalJSON discards null entries written by older versions,
// turning them back into cache misses.
func (c *GeocodeCache) UnmarshalJSON(data []byte) error {
	var raw map[string]*Coordinates
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(GeocodeCache, len(raw))
	for query, coords := range raw {
		if coords != nil {
			out[query] = coords
		}
	}
	*c = out
	return nil
}

// RouteEntry is one cached travel duration.
type RouteEntry struct {
	Minutes   *int      `json:"minutes"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RouteCache maps an endpoint+coordinate key to a duration.
type RouteCache map[string]RouteEntry

// Travel is the enrichment payload for one listing.
type Travel struct {
	DistanceKm     *float64 `json:"distanceKm,omitempty"`
	DriveMinutes   *int     `json:"driveMinutes,omitempty"`
	TransitMinutes *int     `json:"transitMinutes,omitempty"`
}

// Config holds the external service endpoints and pacing limits, read
// from the environment.
type Config struct {
	GeocoderURL         string        `env:"FW_GEOCODER_URL" envDefault:"https://nominatim.openstreetmap.org/search"`
	FallbackGeocoderURL string        `env:"FW_GEOCODER_FALLBACK_URL" envDefault:"https://photon.komoot.io/api"`
	RoutingURL          string        `env:"FW_ROUTING_URL" envDefault:"https://router.project-osrm.org/route/v1/driving"`
	TransitURL          string        `env:"FW_TRANSIT_URL" envDefault:"https://transport.opendata.ch/v1/connections"`
	UserAgent           string        `env:"FW_GEO_USER_AGENT" envDefault:"flatwatch/1.0"`
	MinRequestInterval  time.Duration `env:"FW_GEOCODE_INTERVAL" envDefault:"1100ms"`
	RouteCacheTTL       time.Duration `env:"FW_ROUTE_CACHE_TTL" envDefault:"12h"`
}

// ConfigFromEnv parses the geo configuration from environment variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points.
// Intentionally an approximation, not road distance.
func HaversineKm(a, b Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// NextMonday0800 pins the transit reference departure to the next Monday
// at 08:00 local time, so commute estimates stay comparable across scans.
func NextMonday0800(now time.Time) time.Time {
	days := (int(time.Monday) - int(now.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	d := now.AddDate(0, 0, days)
	return time.Date(d.Year(), d.Month(), d.Day(), 8, 0, 0, 0, now.Location())
}
