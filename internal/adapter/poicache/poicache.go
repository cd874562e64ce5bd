// Package poicache wraps a location.POISource with a Redis read-through
// cache. Concurrent lookups for the same cell share one upstream query.
package poicache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hotspot-prioritizer/hotspot/pkg/location"
)

// DefaultTTL is how long a POI lookup stays cached. POIs change slowly.
const DefaultTTL = 24 * time.Hour

// DefaultLookupTimeout bounds a shared upstream lookup. It runs detached from
// the caller that started it so other waiters are not cut off when that
// caller goes away.
const DefaultLookupTimeout = 10 * time.Second

const keyPrefix = "hotspot:poi:"

// Cache is a caching location.POISource.
type Cache struct {
	rdb     *redis.Client
	source  location.POISource
	ttl     time.Duration
	timeout time.Duration
	logger  *zap.Logger
	group   singleflight.Group

	onHit  func()
	onMiss func()
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithLookupTimeout overrides DefaultLookupTimeout.
func WithLookupTimeout(d time.Duration) Option {
	return func(c *Cache) { c.timeout = d }
}

// WithLogger sets the logger used for cache failures.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithHitMissHooks registers counters for cache hits and misses.
func WithHitMissHooks(hit, miss func()) Option {
	return func(c *Cache) { c.onHit, c.onMiss = hit, miss }
}

// New wraps source with a Redis cache.
func New(rdb *redis.Client, source location.POISource, opts ...Option) *Cache {
	c := &Cache{
		rdb:     rdb,
		source:  source,
		ttl:     DefaultTTL,
		timeout: DefaultLookupTimeout,
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewFromURL parses a redis:// URL and wraps source.
func NewFromURL(redisURL string, source location.POISource, opts ...Option) (*Cache, error) {
	ropts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return New(redis.NewClient(ropts), source, opts...), nil
}

// Key returns the cache key for a lookup. Coordinates are rounded to four
// decimals (about 11 m) so nearby reports share an entry.
func Key(lat, lon float64, radius int) string {
	return fmt.Sprintf("%s%.4f:%.4f:%d", keyPrefix, lat, lon, radius)
}

// Nearby returns cached POIs, querying the wrapped source on a miss.
// Redis failures fall through to the source.
func (c *Cache) Nearby(ctx context.Context, lat, lon float64, radius int) ([]location.POI, error) {
	key := Key(lat, lon, radius)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var pois []location.POI
		if jerr := json.Unmarshal(data, &pois); jerr == nil {
			c.hit()
			return pois, nil
		}
		c.logger.Warn("discarding corrupt poi cache entry", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("poi cache read failed", zap.String("key", key), zap.Error(err))
	}
	c.miss()

	ch := c.group.DoChan(key, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		pois, err := c.source.Nearby(lookupCtx, lat, lon, radius)
		if err != nil {
			return nil, err
		}
		if pois == nil {
			pois = []location.POI{}
		}
		if payload, err := json.Marshal(pois); err == nil {
			if err := c.rdb.Set(lookupCtx, key, payload, c.ttl).Err(); err != nil {
				c.logger.Warn("poi cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return pois, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]location.POI), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

func (c *Cache) hit() {
	if c.onHit != nil {
		c.onHit()
	}
}

func (c *Cache) miss() {
	if c.onMiss != nil {
		c.onMiss()
	}
}
