// Package location resolves a coordinate into a priority multiplier and
// zone label from nearby sensitive points of interest.
//
// The multiplier is the maximum, over nearby POIs, of the POI's base
// priority decayed by distance. A dense cluster of POIs never pushes the
// multiplier past the strongest single POI.
package location

import (
	"context"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/hotspot-prioritizer/hotspot/pkg/signals"
)

// DefaultRadius is the POI search radius in meters.
const DefaultRadius = 500

// maxNearby is how many of the closest POIs are reported.
const maxNearby = 5

// POI is a point of interest returned by a POISource.
type POI struct {
	Type string  `json:"type"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// POISource looks up sensitive POIs within radius meters of a point.
type POISource interface {
	Nearby(ctx context.Context, lat, lon float64, radius int) ([]POI, error)
}

// Priorities maps POI types to their base priority weight.
var Priorities = map[string]float64{
	"school":         1.5,
	"kindergarten":   1.5,
	"college":        1.4,
	"university":     1.4,
	"hospital":       1.4,
	"clinic":         1.4,
	"doctors":        1.4,
	"pharmacy":       1.3,
	"park":           1.3,
	"nature_reserve": 1.3,
	"playground":     1.3,
	"residential":    1.1,
	"apartments":     1.1,
	"commercial":     1.0,
	"industrial":     0.9,
}

var zones = map[string]signals.Zone{
	"school":         signals.ZoneEducational,
	"kindergarten":   signals.ZoneEducational,
	"college":        signals.ZoneEducational,
	"university":     signals.ZoneEducational,
	"hospital":       signals.ZoneHealthcare,
	"clinic":         signals.ZoneHealthcare,
	"doctors":        signals.ZoneHealthcare,
	"pharmacy":       signals.ZoneHealthcare,
	"park":           signals.ZoneEco,
	"nature_reserve": signals.ZoneEco,
	"playground":     signals.ZoneEco,
	"residential":    signals.ZoneResidential,
	"apartments":     signals.ZoneResidential,
	"industrial":     signals.ZoneIndustrial,
}

// Priority returns the base weight of a POI type (1.0 when unknown).
func Priority(poiType string) float64 {
	if p, ok := Priorities[strings.ToLower(poiType)]; ok {
		return p
	}
	return 1.0
}

// ZoneFor returns the zone a POI type belongs to (commercial when unknown).
func ZoneFor(poiType string) signals.Zone {
	if z, ok := zones[strings.ToLower(poiType)]; ok {
		return z
	}
	return signals.ZoneCommercial
}

// DistanceFactor is the share of a POI's excess priority kept at distance
// d meters: 1.0 within 100m, falling linearly to 0.7 at 500m, flat beyond.
func DistanceFactor(d float64) float64 {
	switch {
	case d <= 100:
		return 1.0
	case d <= 500:
		return 1.0 - ((d-100)/400)*0.3
	default:
		return 0.7
	}
}

// AdjustedMultiplier decays a base priority by distance.
func AdjustedMultiplier(priority, distance float64) float64 {
	return 1.0 + (priority-1.0)*DistanceFactor(distance)
}

// Haversine returns the great-circle distance in meters.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371000.0
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return earthRadius * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Resolver computes location context from a POISource.
type Resolver struct {
	source POISource
	radius int
	logger *zap.Logger
	onFail func(error)
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithRadius sets the search radius in meters.
func WithRadius(m int) ResolverOption {
	return func(r *Resolver) {
		if m > 0 {
			r.radius = m
		}
	}
}

// WithLogger sets the logger used for degraded lookups.
func WithLogger(l *zap.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// WithFailureHook is called whenever a lookup degrades to neutral.
func WithFailureHook(fn func(error)) ResolverOption {
	return func(r *Resolver) { r.onFail = fn }
}

// NewResolver creates a Resolver over source.
func NewResolver(source POISource, opts ...ResolverOption) *Resolver {
	r := &Resolver{source: source, radius: DefaultRadius, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve never fails: lookup errors produce the neutral context marked
// Degraded, and an empty neighborhood produces the neutral context.
func (r *Resolver) Resolve(ctx context.Context, lat, lon float64) signals.LocationContext {
	if r.source == nil {
		return signals.NeutralLocation()
	}
	pois, err := r.source.Nearby(ctx, lat, lon, r.radius)
	if err != nil {
		r.logger.Warn("location lookup failed, using neutral context",
			zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
		if r.onFail != nil {
			r.onFail(err)
		}
		neutral := signals.NeutralLocation()
		neutral.Degraded = true
		return neutral
	}
	return Compute(lat, lon, pois)
}

// Compute derives the location context for a point from its POIs.
func Compute(lat, lon float64, pois []POI) signals.LocationContext {
	if len(pois) == 0 {
		return signals.NeutralLocation()
	}

	nearby := make([]signals.NearbyLocation, 0, len(pois))
	for _, p := range pois {
		name := p.Name
		if name == "" {
			name = "Unnamed " + p.Type
		}
		nearby = append(nearby, signals.NearbyLocation{
			Type:           p.Type,
			Name:           name,
			DistanceMeters: math.Round(Haversine(lat, lon, p.Lat, p.Lon)*10) / 10,
		})
	}
	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceMeters < nearby[j].DistanceMeters
	})

	best := 1.0
	zone := signals.ZoneCommercial
	var highest *signals.NearbyLocation
	for i := range nearby {
		n := nearby[i]
		m := AdjustedMultiplier(Priority(n.Type), n.DistanceMeters)
		if m > best {
			best = m
			zone = ZoneFor(n.Type)
			hp := n
			highest = &hp
		}
	}

	if len(nearby) > maxNearby {
		nearby = nearby[:maxNearby]
	}

	return signals.LocationContext{
		PriorityMultiplier: math.Round(best*100) / 100,
		ZoneType:           zone,
		NearbyLocations:    nearby,
		HighestPriority:    highest,
	}
}
