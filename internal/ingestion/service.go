// Package ingestion orchestrates the report pipeline: collaborator
// resolution, scoring, persistence, snapshot archival and event publishing.
package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hotspot-prioritizer/hotspot/internal/adapter/vision"
	"github.com/hotspot-prioritizer/hotspot/internal/events"
	"github.com/hotspot-prioritizer/hotspot/internal/observability"
	"github.com/hotspot-prioritizer/hotspot/internal/store"
	"github.com/hotspot-prioritizer/hotspot/pkg/scoring"
	"github.com/hotspot-prioritizer/hotspot/pkg/signals"
)

// LocationResolver resolves coordinates into location context. It never fails.
type LocationResolver interface {
	Resolve(ctx context.Context, lat, lon float64) signals.LocationContext
}

// TextAnalyzer turns a description into text signals. It never fails.
type TextAnalyzer interface {
	Analyze(ctx context.Context, s string) signals.TextAnalysis
}

// Detector runs vision inference on a report image.
type Detector interface {
	Analyze(ctx context.Context, imageURL string) (vision.Result, error)
}

// ReportRequest is a new report submitted by a citizen.
type ReportRequest struct {
	Category    string   `json:"category"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	// Vision carries detector output computed upstream. When nil and
	// ImageURL is set, the configured Detector is called.
	Vision *vision.Result `json:"vision,omitempty"`
}

// Validate checks the request is scorable.
func (r ReportRequest) Validate() error {
	if r.Category == "" {
		return errors.New("category is required")
	}
	if (r.Lat == nil) != (r.Lon == nil) {
		return errors.New("lat and lon must be given together")
	}
	if r.Lat != nil && (*r.Lat < -90 || *r.Lat > 90 || *r.Lon < -180 || *r.Lon > 180) {
		return errors.New("coordinates out of range")
	}
	return nil
}

// RescoreSummary reports the outcome of a bulk re-score.
type RescoreSummary struct {
	Total   int      `json:"total"`
	Updated int      `json:"updated"`
	Failed  []string `json:"failed,omitempty"`
}

// Service orchestrates the report pipeline.
type Service struct {
	engine    *scoring.Engine
	store     store.Store
	storage   StorageClient
	location  LocationResolver
	text      TextAnalyzer
	detector  Detector
	publisher events.Publisher
	metrics   *observability.Metrics
	logger    *zap.Logger
	clock     clockwork.Clock
}

// Option configures a Service.
type Option func(*Service)

// WithStorage archives feature snapshots to blob storage.
func WithStorage(st StorageClient) Option {
	return func(s *Service) { s.storage = st }
}

// WithLocation sets the location resolver.
func WithLocation(l LocationResolver) Option {
	return func(s *Service) { s.location = l }
}

// WithText sets the text analyzer.
func WithText(t TextAnalyzer) Option {
	return func(s *Service) { s.text = t }
}

// WithDetector sets the vision detector.
func WithDetector(d Detector) Option {
	return func(s *Service) { s.detector = d }
}

// WithPublisher sets the event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock sets the clock used for durations.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// NewService creates a new ingestion Service.
func NewService(engine *scoring.Engine, st store.Store, opts ...Option) *Service {
	s := &Service{
		engine:    engine,
		store:     st,
		publisher: events.Nop{},
		metrics:   observability.NewMetricsForTesting(),
		logger:    zap.NewNop(),
		clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the scoring engine.
func (s *Service) Engine() *scoring.Engine { return s.engine }

// Resolve gathers collaborator signals for a request concurrently.
// Collaborator failures degrade to neutral signals; only context
// cancellation is returned as an error.
func (s *Service) Resolve(ctx context.Context, req ReportRequest) (signals.Bundle, error) {
	var b signals.Bundle
	g, gctx := errgroup.WithContext(ctx)

	if req.Lat != nil && req.Lon != nil && s.location != nil {
		g.Go(func() error {
			loc := s.location.Resolve(gctx, *req.Lat, *req.Lon)
			b.Location = &loc
			return nil
		})
	}
	if req.Description != "" && s.text != nil {
		g.Go(func() error {
			txt := s.text.Analyze(gctx, req.Description)
			b.Text = &txt
			return nil
		})
	}
	switch {
	case req.Vision != nil:
		b.ObjectDetection = req.Vision.ObjectDetection
		b.SceneClassification = req.Vision.SceneClassification
	case req.ImageURL != "" && s.detector != nil:
		g.Go(func() error {
			res, err := s.detector.Analyze(gctx, req.ImageURL)
			if err != nil {
				// zero vision signals: no detections, scene confidence unknown
				s.logger.Warn("vision analysis failed, using neutral signals",
					zap.String("image_url", req.ImageURL), zap.Error(err))
				s.metrics.Degraded.WithLabelValues("vision").Inc()
				return nil
			}
			b.ObjectDetection = res.ObjectDetection
			b.SceneClassification = res.SceneClassification
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return signals.Bundle{}, err
	}
	return b, nil
}

// CreateReport resolves signals, scores, persists and announces a new report.
func (s *Service) CreateReport(ctx context.Context, req ReportRequest) (*store.Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := s.clock.Now()

	b, err := s.Resolve(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("resolve signals: %w", err)
	}

	result, snap := s.engine.ScoreWithSnapshot(s.engine.ProfileFor(req.Category), b)
	r := &store.Report{
		Category:    req.Category,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Lat:         req.Lat,
		Lon:         req.Lon,
		Result:      result,
		Snapshot:    snap,
	}
	if err := s.store.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("store report: %w", err)
	}

	s.archive(ctx, r)
	s.observe(r, events.TriggerCreated)
	s.metrics.ScoreDuration.Observe(s.clock.Since(start).Seconds())
	s.publish(ctx, s.event(r, events.TriggerCreated))

	s.logger.Info("report scored",
		zap.String("report_id", r.ID),
		zap.String("profile", snap.Profile),
		zap.Int("severity", result.SeverityScore),
		zap.String("method", string(result.PredictionMethod)))
	return r, nil
}

// GetReport returns a stored report.
func (s *Service) GetReport(ctx context.Context, id string) (*store.Report, error) {
	return s.store.Get(ctx, id)
}

// Vote applies a user's vote and re-scores the report from its snapshot.
func (s *Service) Vote(ctx context.Context, reportID, userID string, dir store.Direction) (*store.VoteOutcome, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	out, err := s.store.Vote(ctx, reportID, userID, dir, s.engine.Rescore)
	if err != nil {
		return nil, err
	}
	s.metrics.Votes.WithLabelValues(dir.String()).Inc()
	s.observe(out.Report, events.TriggerVote)
	s.publish(ctx, s.event(out.Report, events.TriggerVote))
	return out, nil
}

// RescoreAll re-scores every stored report from its snapshot and current
// upvotes. Individual failures are collected, not fatal.
func (s *Service) RescoreAll(ctx context.Context) (RescoreSummary, error) {
	ids, err := s.store.ListIDs(ctx)
	if err != nil {
		return RescoreSummary{}, fmt.Errorf("list reports: %w", err)
	}

	summary := RescoreSummary{Total: len(ids)}
	var evs []events.ReportScored
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		r, err := s.store.Rescore(ctx, id, s.engine.Rescore)
		if err != nil {
			s.logger.Warn("rescore failed", zap.String("report_id", id), zap.Error(err))
			summary.Failed = append(summary.Failed, id)
			continue
		}
		summary.Updated++
		s.observe(r, events.TriggerRescore)
		evs = append(evs, s.event(r, events.TriggerRescore))
	}
	s.publish(ctx, evs...)
	return summary, nil
}

// ErrNoArchive is returned when no blob storage is configured.
var ErrNoArchive = errors.New("snapshot archive not configured")

// ArchivedSnapshot reads the feature snapshot archived when the report was
// created. Unlike the stored row it is never re-scored, so it shows exactly
// what the first score was computed from.
func (s *Service) ArchivedSnapshot(ctx context.Context, reportID string) (scoring.Snapshot, error) {
	var snap scoring.Snapshot
	if s.storage == nil {
		return snap, ErrNoArchive
	}
	data, err := s.storage.GetSnapshot(ctx, reportID)
	if err != nil {
		return snap, fmt.Errorf("read archived snapshot %s: %w", reportID, err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("decode archived snapshot %s: %w", reportID, err)
	}
	return snap, nil
}

// archive copies the feature snapshot to blob storage. Best effort: the
// database row is authoritative.
func (s *Service) archive(ctx context.Context, r *store.Report) {
	if s.storage == nil {
		return
	}
	data, err := json.Marshal(r.Snapshot)
	if err == nil {
		err = s.storage.PutSnapshot(ctx, r.ID, data)
	}
	if err != nil {
		s.metrics.ArchiveErrors.Inc()
		s.logger.Warn("archive snapshot", zap.String("report_id", r.ID), zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, evs ...events.ReportScored) {
	if len(evs) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.publisher.Publish(ctx, evs...); err != nil {
		s.metrics.PublishErrors.Add(float64(len(evs)))
		s.logger.Warn("publish report events", zap.Int("count", len(evs)), zap.Error(err))
	}
}

func (s *Service) observe(r *store.Report, trigger events.Trigger) {
	s.metrics.ReportsScored.WithLabelValues(r.Snapshot.Profile, string(r.Result.PredictionMethod), string(trigger)).Inc()
	s.metrics.SeverityScore.WithLabelValues(r.Snapshot.Profile).Observe(float64(r.Result.SeverityScore))
}

func (s *Service) event(r *store.Report, trigger events.Trigger) events.ReportScored {
	return events.ReportScored{
		ReportID:         r.ID,
		Category:         r.Category,
		Profile:          r.Snapshot.Profile,
		SeverityScore:    r.Result.SeverityScore,
		SeverityCategory: r.Result.Category,
		Confidence:       r.Result.Confidence,
		PredictionMethod: string(r.Result.PredictionMethod),
		Upvotes:          r.Upvotes,
		Trigger:          trigger,
		ScoredAt:         r.Result.ScoredAt,
	}
}
