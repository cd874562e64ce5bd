package poicache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotspot-prioritizer/hotspot/pkg/location"
)

type countingSource struct {
	calls atomic.Int32
	pois  []location.POI
	err   error
}

func (s *countingSource) Nearby(ctx context.Context, lat, lon float64, radius int) ([]location.POI, error) {
	s.calls.Add(1)
	return s.pois, s.err
}

// gatedSource blocks each lookup until release is closed or ctx ends.
type gatedSource struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
	pois    []location.POI
}

func newGatedSource(pois []location.POI) *gatedSource {
	return &gatedSource{started: make(chan struct{}), release: make(chan struct{}), pois: pois}
}

func (s *gatedSource) Nearby(ctx context.Context, lat, lon float64, radius int) ([]location.POI, error) {
	s.once.Do(func() { close(s.started) })
	select {
	case <-s.release:
		return s.pois, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func setup(t *testing.T, src location.POISource, opts ...Option) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, src, opts...), mr
}

func TestKeyRoundsCoordinates(t *testing.T) {
	assert.Equal(t, "hotspot:poi:12.9716:77.5946:500", Key(12.97161, 77.594649, 500))
	assert.Equal(t, Key(12.97161, 77.59461, 500), Key(12.97162, 77.59462, 500))
	assert.NotEqual(t, Key(12.9716, 77.5946, 500), Key(12.9716, 77.5946, 300))
}

func TestNearbyReadThrough(t *testing.T) {
	src := &countingSource{pois: []location.POI{{Type: "school", Name: "Greenwood", Lat: 1, Lon: 2}}}
	var hits, misses int
	cache, mr := setup(t, src, WithHitMissHooks(func() { hits++ }, func() { misses++ }))
	ctx := context.Background()

	first, err := cache.Nearby(ctx, 12.9716, 77.5946, 500)
	require.NoError(t, err)
	second, err := cache.Nearby(ctx, 12.9716, 77.5946, 500)
	require.NoError(t, err)

	assert.Equal(t, src.pois, first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
	assert.True(t, mr.Exists(Key(12.9716, 77.5946, 500)))
}

func TestNearbyExpires(t *testing.T) {
	src := &countingSource{pois: []location.POI{{Type: "park"}}}
	cache, mr := setup(t, src, WithTTL(time.Minute))
	ctx := context.Background()

	_, err := cache.Nearby(ctx, 1, 1, 500)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	_, err = cache.Nearby(ctx, 1, 1, 500)
	require.NoError(t, err)

	assert.Equal(t, int32(2), src.calls.Load())
}

func TestNearbyCachesEmptyResult(t *testing.T) {
	src := &countingSource{}
	cache, _ := setup(t, src)
	ctx := context.Background()

	pois, err := cache.Nearby(ctx, 1, 1, 500)
	require.NoError(t, err)
	assert.Empty(t, pois)
	_, err = cache.Nearby(ctx, 1, 1, 500)
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestNearbySourceErrorNotCached(t *testing.T) {
	src := &countingSource{err: errors.New("overpass down")}
	cache, mr := setup(t, src)

	_, err := cache.Nearby(context.Background(), 1, 1, 500)
	assert.EqualError(t, err, "overpass down")
	assert.False(t, mr.Exists(Key(1, 1, 500)))
}

func TestNearbyCorruptEntryRefetches(t *testing.T) {
	src := &countingSource{pois: []location.POI{{Type: "clinic"}}}
	cache, mr := setup(t, src)
	require.NoError(t, mr.Set(Key(1, 1, 500), "{not json"))

	pois, err := cache.Nearby(context.Background(), 1, 1, 500)
	require.NoError(t, err)
	assert.Equal(t, src.pois, pois)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestNearbyRedisDownFallsThrough(t *testing.T) {
	src := &countingSource{pois: []location.POI{{Type: "hospital"}}}
	cache, mr := setup(t, src)
	mr.Close()

	pois, err := cache.Nearby(context.Background(), 1, 1, 500)
	require.NoError(t, err)
	assert.Equal(t, src.pois, pois)
}

func TestNearbySharedLookupOutlivesFirstCaller(t *testing.T) {
	src := newGatedSource([]location.POI{{Type: "school", Name: "Greenwood"}})
	cache, mr := setup(t, src)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cache.Nearby(firstCtx, 1, 1, 500)
		firstErr <- err
	}()
	<-src.started

	type result struct {
		pois []location.POI
		err  error
	}
	second := make(chan result, 1)
	go func() {
		pois, err := cache.Nearby(context.Background(), 1, 1, 500)
		second <- result{pois, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(src.release)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, src.pois, res.pois)
	assert.True(t, mr.Exists(Key(1, 1, 500)))
}

func TestNearbyLookupTimeout(t *testing.T) {
	src := newGatedSource(nil)
	cache, mr := setup(t, src, WithLookupTimeout(20*time.Millisecond))

	_, err := cache.Nearby(context.Background(), 1, 1, 500)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, mr.Exists(Key(1, 1, 500)))
}
