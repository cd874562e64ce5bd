package ingestion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotspot-prioritizer/hotspot/internal/adapter/vision"
	"github.com/hotspot-prioritizer/hotspot/internal/events"
	"github.com/hotspot-prioritizer/hotspot/internal/observability"
	"github.com/hotspot-prioritizer/hotspot/internal/store"
	"github.com/hotspot-prioritizer/hotspot/pkg/scoring"
	"github.com/hotspot-prioritizer/hotspot/pkg/signals"
)

var now = time.Date(2025, 7, 9, 10, 0, 0, 0, time.UTC)

type stubLocation struct{ ctx signals.LocationContext }

func (s stubLocation) Resolve(context.Context, float64, float64) signals.LocationContext {
	return s.ctx
}

type stubText struct{ out signals.TextAnalysis }

func (s stubText) Analyze(context.Context, string) signals.TextAnalysis { return s.out }

type stubDetector struct {
	res vision.Result
	err error
}

func (s stubDetector) Analyze(context.Context, string) (vision.Result, error) { return s.res, s.err }

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ReportScored
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evs ...events.ReportScored) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evs...)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func park() signals.LocationContext {
	return signals.LocationContext{
		PriorityMultiplier: 1.3,
		ZoneType:           signals.ZoneEco,
		NearbyLocations:    []signals.NearbyLocation{{Type: "park", Name: "Lalbagh", DistanceMeters: 60}},
		HighestPriority:    &signals.NearbyLocation{Type: "park", Name: "Lalbagh", DistanceMeters: 60},
	}
}

func smelly() signals.TextAnalysis {
	return signals.TextAnalysis{
		SentimentScore: 0.9,
		UrgencyLevel:   signals.UrgencyMedium,
		SeverityBoost:  16,
		Keywords:       []string{"overflowing", "smelly"},
		RiskClass:      signals.RiskNone,
	}
}

func dirtyImage() vision.Result {
	return vision.Result{
		ObjectDetection:     signals.ObjectDetection{Count: 9, CoverageRatio: 0.3, Density: 0.4, HasOverflow: true},
		SceneClassification: signals.SceneClassification{Dirtiness: 0.7, Confidence: 0.85, DirtyIndicator: 0.7},
	}
}

type fixture struct {
	svc       *Service
	store     *store.Memory
	storage   *LocalStorage
	publisher *recordingPublisher
	metrics   *observability.Metrics
	engine    *scoring.Engine
}

func newFixture(t *testing.T, det Detector) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(now)
	engine, err := scoring.NewEngine(scoring.DefaultProfiles(),
		scoring.WithClock(clock),
		scoring.WithRoutes(map[string]string{"garbage": scoring.ProfileGarbage, "pothole": scoring.ProfileGeneral}),
	)
	require.NoError(t, err)

	f := &fixture{
		store:     store.NewMemory(clock),
		storage:   NewLocalStorage(t.TempDir()),
		publisher: &recordingPublisher{},
		metrics:   observability.NewMetricsForTesting(),
		engine:    engine,
	}
	f.svc = NewService(engine, f.store,
		WithStorage(f.storage),
		WithLocation(stubLocation{park()}),
		WithText(stubText{smelly()}),
		WithDetector(det),
		WithPublisher(f.publisher),
		WithMetrics(f.metrics),
		WithClock(clock),
	)
	return f
}

func request() ReportRequest {
	lat, lon := 12.95, 77.58
	return ReportRequest{
		Category:    "garbage",
		Description: "Bins overflowing and smelly near the park",
		ImageURL:    "https://img.example/1.jpg",
		Lat:         &lat,
		Lon:         &lon,
	}
}

func TestResolveGathersAllCollaborators(t *testing.T) {
	f := newFixture(t, stubDetector{res: dirtyImage()})

	b, err := f.svc.Resolve(context.Background(), request())
	require.NoError(t, err)
	require.NotNil(t, b.Location)
	require.NotNil(t, b.Text)
	assert.Equal(t, park(), *b.Location)
	assert.Equal(t, smelly(), *b.Text)
	assert.Equal(t, dirtyImage().ObjectDetection, b.ObjectDetection)
}

func TestResolveSkipsMissingInputs(t *testing.T) {
	f := newFixture(t, stubDetector{res: dirtyImage()})

	b, err := f.svc.Resolve(context.Background(), ReportRequest{Category: "pothole"})
	require.NoError(t, err)
	assert.Nil(t, b.Location)
	assert.Nil(t, b.Text)
	assert.Zero(t, b.ObjectDetection)
}

func TestResolvePrefersSuppliedVision(t *testing.T) {
	f := newFixture(t, stubDetector{err: errors.New("must not be called")})
	req := request()
	supplied := dirtyImage()
	supplied.ObjectDetection.Count = 2
	req.Vision = &supplied

	b, err := f.svc.Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, b.ObjectDetection.Count)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.Degraded.WithLabelValues("vision")))
}

func TestResolveVisionFailureIsNeutral(t *testing.T) {
	f := newFixture(t, stubDetector{err: errors.New("detector down")})

	b, err := f.svc.Resolve(context.Background(), request())
	require.NoError(t, err)
	assert.Zero(t, b.ObjectDetection)
	assert.Zero(t, b.SceneClassification)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Degraded.WithLabelValues("vision")))
}

func TestResolveCancelled(t *testing.T) {
	f := newFixture(t, stubDetector{res: dirtyImage()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.svc.Resolve(ctx, request())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCreateReport(t *testing.T) {
	f := newFixture(t, stubDetector{res: dirtyImage()})
	ctx := context.Background()

	r, err := f.svc.CreateReport(ctx, request())
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, scoring.ProfileGarbage, r.Snapshot.Profile)
	assert.Equal(t, scoring.ProfileGarbage, r.Result.Profile)
	assert.Equal(t, scoring.MethodRuleBased, r.Result.PredictionMethod)

	// matches scoring the same bundle directly
	b, err := f.svc.Resolve(ctx, request())
	require.NoError(t, err)
	assert.Equal(t, f.engine.Score(scoring.ProfileGarbage, b), r.Result)

	stored, err := f.store.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Result, stored.Result)

	archived, err := f.storage.GetSnapshot(ctx, r.ID)
	require.NoError(t, err)
	assert.Contains(t, string(archived), `"profile":"garbage"`)
	snap, err := f.svc.ArchivedSnapshot(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Snapshot, snap)
	_, err = f.svc.ArchivedSnapshot(ctx, "missing")
	assert.ErrorIs(t, err, ErrBlobNotFound)

	require.Len(t, f.publisher.events, 1)
	ev := f.publisher.events[0]
	assert.Equal(t, r.ID, ev.ReportID)
	assert.Equal(t, events.TriggerCreated, ev.Trigger)
	assert.Equal(t, r.Result.SeverityScore, ev.SeverityScore)
	assert.Equal(t, now, ev.ScoredAt)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ReportsScored.WithLabelValues("garbage", "rule_based", "created")))
}

func TestCreateReportValidation(t *testing.T) {
	f := newFixture(t, nil)
	lat := 12.0
	bad := 95.0
	lon := 77.0

	_, err := f.svc.CreateReport(context.Background(), ReportRequest{})
	assert.ErrorContains(t, err, "category")
	_, err = f.svc.CreateReport(context.Background(), ReportRequest{Category: "garbage", Lat: &lat})
	assert.ErrorContains(t, err, "together")
	_, err = f.svc.CreateReport(context.Background(), ReportRequest{Category: "garbage", Lat: &bad, Lon: &lon})
	assert.ErrorContains(t, err, "out of range")
}

func TestCreateReportPublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, stubDetector{res: dirtyImage()})
	f.publisher.err = errors.New("broker unavailable")

	_, err := f.svc.CreateReport(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PublishErrors))
}

func TestVoteRescoresPartially(t *testing.T) {
	f := newFixture(t, stubDetector{res: dirtyImage()})
	ctx := context.Background()
	r, err := f.svc.CreateReport(ctx, request())
	require.NoError(t, err)

	var out *store.VoteOutcome
	for _, user := range []string{"u1", "u2", "u3"} {
		out, err = f.svc.Vote(ctx, r.ID, user, store.Up)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, out.Report.Upvotes)

	// equals a full score of the original bundle with the new count
	b, err := f.svc.Resolve(ctx, request())
	require.NoError(t, err)
	b.Social.UpvoteCount = 3
	assert.Equal(t, f.engine.Score(scoring.ProfileGarbage, b), out.Report.Result)

	require.Len(t, f.publisher.events, 4)
	assert.Equal(t, events.TriggerVote, f.publisher.events[3].Trigger)
	assert.Equal(t, 3, f.publisher.events[3].Upvotes)
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.Votes.WithLabelValues("up")))
}

func TestVoteErrors(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Vote(context.Background(), "missing", "u1", store.Up)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.svc.Vote(context.Background(), "missing", "", store.Up)
	assert.Error(t, err)
}

func TestRescoreAll(t *testing.T) {
	f := newFixture(t, stubDetector{res: dirtyImage()})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.svc.CreateReport(ctx, request())
		require.NoError(t, err)
	}
	f.publisher.events = nil

	summary, err := f.svc.RescoreAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, RescoreSummary{Total: 3, Updated: 3}, summary)
	require.Len(t, f.publisher.events, 3)
	for _, ev := range f.publisher.events {
		assert.Equal(t, events.TriggerRescore, ev.Trigger)
	}
}
