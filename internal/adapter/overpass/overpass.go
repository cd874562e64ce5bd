// Package overpass implements location.POISource against an OpenStreetMap
// Overpass API endpoint.
package overpass

import (
	"context"
	"fmt"
	"net/http"
	"time"

	goverpass "github.com/serjvanilla/go-overpass"
	"golang.org/x/time/rate"

	"github.com/hotspot-prioritizer/hotspot/pkg/location"
)

// DefaultEndpoint is the public Overpass interpreter.
const DefaultEndpoint = "https://overpass-api.de/api/interpreter"

// Config holds Overpass client settings.
type Config struct {
	Endpoint string
	Timeout  time.Duration
	// RequestsPerSecond throttles outgoing queries; public endpoints ban
	// aggressive clients.
	RequestsPerSecond float64
	Burst             int
}

// Source queries Overpass for sensitive POIs.
type Source struct {
	client  goverpass.Client
	limiter *rate.Limiter
	timeout time.Duration
	observe func(outcome string, d time.Duration)
}

// New creates an Overpass source.
func New(cfg Config) *Source {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 2
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}
	return &Source{
		client:  goverpass.NewWithSettings(cfg.Endpoint, 2, httpClient),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		timeout: cfg.Timeout,
	}
}

// SetObserver registers a callback for query outcomes ("success", "error",
// "throttled") and durations.
func (s *Source) SetObserver(fn func(outcome string, d time.Duration)) {
	s.observe = fn
}

// Query builds the Overpass QL for sensitive POIs around a point.
func Query(lat, lon float64, radius int, timeout time.Duration) string {
	around := fmt.Sprintf("(around:%d,%f,%f)", radius, lat, lon)
	return fmt.Sprintf(`[out:json][timeout:%d];
(
  node["amenity"~"school|kindergarten|college|university|hospital|clinic|doctors|pharmacy"]%[2]s;
  way["amenity"~"school|kindergarten|college|university|hospital|clinic|doctors|pharmacy"]%[2]s;
  node["leisure"~"park|playground|nature_reserve"]%[2]s;
  way["leisure"~"park|playground|nature_reserve"]%[2]s;
);
out body;
>;
out skel qt;`, int(timeout.Seconds()), around)
}

// Nearby returns POIs within radius meters of (lat, lon).
func (s *Source) Nearby(ctx context.Context, lat, lon float64, radius int) ([]location.POI, error) {
	start := time.Now()
	if err := s.limiter.Wait(ctx); err != nil {
		s.record("throttled", start)
		return nil, fmt.Errorf("overpass rate limit: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type queryResult struct {
		res goverpass.Result
		err error
	}
	ch := make(chan queryResult, 1)
	q := Query(lat, lon, radius, s.timeout)
	go func() {
		res, err := s.client.Query(q)
		ch <- queryResult{res, err}
	}()

	select {
	case <-ctx.Done():
		s.record("error", start)
		return nil, fmt.Errorf("overpass query: %w", ctx.Err())
	case r := <-ch:
		if r.err != nil {
			s.record("error", start)
			return nil, fmt.Errorf("overpass query: %w", r.err)
		}
		s.record("success", start)
		return convert(&r.res), nil
	}
}

func (s *Source) record(outcome string, start time.Time) {
	if s.observe != nil {
		s.observe(outcome, time.Since(start))
	}
}

// convert keeps tagged nodes and ways, placing ways at their node centroid.
func convert(res *goverpass.Result) []location.POI {
	var pois []location.POI
	for _, node := range res.Nodes {
		poiType := poiTypeOf(node.Tags)
		if poiType == "" {
			continue
		}
		pois = append(pois, location.POI{
			Type: poiType,
			Name: node.Tags["name"],
			Lat:  node.Lat,
			Lon:  node.Lon,
		})
	}
	for _, way := range res.Ways {
		poiType := poiTypeOf(way.Tags)
		if poiType == "" || len(way.Nodes) == 0 {
			continue
		}
		var lat, lon float64
		for _, n := range way.Nodes {
			lat += n.Lat
			lon += n.Lon
		}
		count := float64(len(way.Nodes))
		pois = append(pois, location.POI{
			Type: poiType,
			Name: way.Tags["name"],
			Lat:  lat / count,
			Lon:  lon / count,
		})
	}
	return pois
}

func poiTypeOf(tags map[string]string) string {
	if v := tags["amenity"]; v != "" {
		return v
	}
	return tags["leisure"]
}
