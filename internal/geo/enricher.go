package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcloughlin/geohash"
)

// cache keys bucket coordinates to ~150 m so tiny geocoder jitter
// doesn't defeat the route cache.
const routeKeyPrecision = 7

// Enricher resolves work/listing coordinates and travel durations.
// The caches are owned by the caller and passed in by reference, so a
// scan persists exactly what it used and tests can substitute their own.
type Enricher struct {
	cfg     Config
	client  *http.Client
	logger  *slog.Logger
	geocode GeocodeCache
	routes  RouteCache

	// injectable for tests
	now   func() time.Time
	sleep func(time.Duration)

	lastRequest time.Time
}

// NewEnricher creates an enricher over the given caches.
func NewEnricher(cfg Config, geocodeCache GeocodeCache, routeCache RouteCache) *Enricher {
	return &Enricher{
		cfg:     cfg,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  slog.Default(),
		geocode: geocodeCache,
		routes:  routeCache,
		now:     time.Now,
		sleep:   time.Sleep,
	}
}

// Enrich produces the travel payload for one listing address against the
// work address. Every failure degrades to nil fields, never an error.
func (e *Enricher) Enrich(ctx context.Context, workAddress, listingAddress string) Travel {
	var t Travel

	work := e.Geocode(ctx, workAddress)
	place := e.Geocode(ctx, listingAddress)
	if work == nil || place == nil {
		return t
	}

	km := HaversineKm(*work, *place)
	t.DistanceKm = &km
	t.DriveMinutes = e.driveMinutes(ctx, *work, *place)
	t.TransitMinutes = e.transitMinutes(ctx, workAddress, listingAddress, *work, *place)
	return t
}

// Geocode resolves a query to coordinates, consulting the cache first.
// A failed lookup is cached as nil so it doesn't burn the rate budget
// again within this scan; the cache drops failures when persisted, so
// the next scan retries them.
func (e *Enricher) Geocode(ctx context.Context, query string) *Coordinates {
	query = strings.ToLower(strings.Join(strings.Fields(query), " "))
	if query == "" {
		return nil
	}
	if c, ok := e.geocode[query]; ok {
		return c
	}

	c, err := e.geocodePrimary(ctx, query)
	if err != nil {
		e.logger.Warn("primary geocoder failed", "query", query, "error", err)
		c, err = e.geocodeFallback(ctx, query)
		if err != nil {
			e.logger.Warn("fallback geocoder failed", "query", query, "error", err)
			c = nil
		}
	}
	e.geocode[query] = c
	return c
}

// throttle enforces the minimum spacing between geocoder requests.
func (e *Enricher) throttle() {
	if e.cfg.MinRequestInterval <= 0 {
		return
	}
	if !e.lastRequest.IsZero() {
		if wait := e.cfg.MinRequestInterval - e.now().Sub(e.lastRequest); wait > 0 {
			e.sleep(wait)
		}
	}
	e.lastRequest = e.now()
}

// geocodePrimary queries a Nominatim-style endpoint.
func (e *Enricher) geocodePrimary(ctx context.Context, query string) (*Coordinates, error) {
	e.throttle()

	params := url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {"1"},
	}
	body, err := e.get(ctx, e.cfg.GeocoderURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decoding geocoder response: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result for %q", query)
	}
	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing lat: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing lon: %w", err)
	}
	return &Coordinates{Lat: lat, Lon: lon}, nil
}

// geocodeFallback queries a Photon-style endpoint.
func (e *Enricher) geocodeFallback(ctx context.Context, query string) (*Coordinates, error) {
	e.throttle()

	params := url.Values{
		"q":     {query},
		"limit": {"1"},
	}
	body, err := e.get(ctx, e.cfg.FallbackGeocoderURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var result struct {
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"` // lon, lat
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding fallback geocoder response: %w", err)
	}
	if len(result.Features) == 0 || len(result.Features[0].Geometry.Coordinates) < 2 {
		return nil, fmt.Errorf("no result for %q", query)
	}
	coords := result.Features[0].Geometry.Coordinates
	return &Coordinates{Lat: coords[1], Lon: coords[0]}, nil
}

// driveMinutes looks up the car duration via the routing service,
// caching by endpoint and bucketed coordinates with a TTL. A fetch
// failure falls back to the last cached value, however stale.
func (e *Enricher) driveMinutes(ctx context.Context, work, place Coordinates) *int {
	key := routeKey("drive", work, place)
	if entry, ok := e.routes[key]; ok && e.now().Sub(entry.UpdatedAt) < e.cfg.RouteCacheTTL {
		return entry.Minutes
	}

	minutes, err := e.fetchDrive(ctx, work, place)
	if err != nil {
		e.logger.Warn("drive routing failed", "error", err)
		if entry, ok := e.routes[key]; ok {
			return entry.Minutes
		}
		return nil
	}
	e.routes[key] = RouteEntry{Minutes: minutes, UpdatedAt: e.now()}
	return minutes
}

// transitMinutes looks up the public-transport duration, departure
// pinned to next Monday 08:00 for reproducible estimates.
func (e *Enricher) transitMinutes(ctx context.Context, workAddress, listingAddress string, work, place Coordinates) *int {
	key := routeKey("transit", work, place)
	if entry, ok := e.routes[key]; ok && e.now().Sub(entry.UpdatedAt) < e.cfg.RouteCacheTTL {
		return entry.Minutes
	}

	minutes, err := e.fetchTransit(ctx, listingAddress, workAddress)
	if err != nil {
		e.logger.Warn("transit routing failed", "error", err)
		if entry, ok := e.routes[key]; ok {
			return entry.Minutes
		}
		return nil
	}
	e.routes[key] = RouteEntry{Minutes: minutes, UpdatedAt: e.now()}
	return minutes
}

// fetchDrive queries an OSRM-style endpoint.
func (e *Enricher) fetchDrive(ctx context.Context, from, to Coordinates) (*int, error) {
	u := fmt.Sprintf("%s/%f,%f;%f,%f?overview=false",
		e.cfg.RoutingURL, from.Lon, from.Lat, to.Lon, to.Lat)
	body, err := e.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var result struct {
		Routes []struct {
			Duration float64 `json:"duration"` // seconds
		} `json:"routes"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding routing response: %w", err)
	}
	if len(result.Routes) == 0 {
		return nil, fmt.Errorf("no route")
	}
	minutes := int(result.Routes[0].Duration / 60)
	return &minutes, nil
}

// fetchTransit queries a transport.opendata.ch-style journey planner.
func (e *Enricher) fetchTransit(ctx context.Context, from, to string) (*int, error) {
	departure := NextMonday0800(e.now())
	params := url.Values{
		"from":  {from},
		"to":    {to},
		"date":  {departure.Format("2006-01-02")},
		"time":  {departure.Format("15:04")},
		"limit": {"1"},
	}
	body, err := e.get(ctx, e.cfg.TransitURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var result struct {
		Connections []struct {
			From struct {
				Departure string `json:"departure"`
			} `json:"from"`
			To struct {
				Arrival string `json:"arrival"`
			} `json:"to"`
		} `json:"connections"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding transit response: %w", err)
	}
	if len(result.Connections) == 0 {
		return nil, fmt.Errorf("no connection")
	}
	conn := result.Connections[0]
	dep, err := parseTransitTime(conn.From.Departure)
	if err != nil {
		return nil, fmt.Errorf("parsing departure: %w", err)
	}
	arr, err := parseTransitTime(conn.To.Arrival)
	if err != nil {
		return nil, fmt.Errorf("parsing arrival: %w", err)
	}
	minutes := int(arr.Sub(dep).Minutes())
	return &minutes, nil
}

// parseTransitTime accepts RFC 3339 and the colonless zone offset
// transport.opendata.ch emits ("2026-08-17T08:04:00+0200").
func parseTransitTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05-0700", s)
}

// routeKey builds the cache key from the endpoint kind and both
// coordinates bucketed by geohash.
func routeKey(kind string, from, to Coordinates) string {
	return kind + ":" +
		geohash.EncodeWithPrecision(from.Lat, from.Lon, routeKeyPrecision) + ":" +
		geohash.EncodeWithPrecision(to.Lat, to.Lon, routeKeyPrecision)
}

func (e *Enricher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
