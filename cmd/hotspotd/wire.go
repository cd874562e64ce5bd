package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/hotspot-prioritizer/hotspot/internal/adapter/inference"
	"github.com/hotspot-prioritizer/hotspot/internal/adapter/kafka"
	"github.com/hotspot-prioritizer/hotspot/internal/adapter/overpass"
	"github.com/hotspot-prioritizer/hotspot/internal/adapter/poicache"
	"github.com/hotspot-prioritizer/hotspot/internal/adapter/vision"
	"github.com/hotspot-prioritizer/hotspot/internal/api"
	"github.com/hotspot-prioritizer/hotspot/internal/config"
	"github.com/hotspot-prioritizer/hotspot/internal/events"
	"github.com/hotspot-prioritizer/hotspot/internal/ingestion"
	"github.com/hotspot-prioritizer/hotspot/internal/observability"
	"github.com/hotspot-prioritizer/hotspot/internal/platform"
	"github.com/hotspot-prioritizer/hotspot/internal/store"
	scoringconfig "github.com/hotspot-prioritizer/hotspot/pkg/config"
	"github.com/hotspot-prioritizer/hotspot/pkg/location"
	"github.com/hotspot-prioritizer/hotspot/pkg/model"
	"github.com/hotspot-prioritizer/hotspot/pkg/scoring"
	"github.com/hotspot-prioritizer/hotspot/pkg/text"
)

// deps holds the wired collaborators of the service.
type deps struct {
	engine    *scoring.Engine
	models    api.ModelInfo
	store     store.Store
	storage   ingestion.StorageClient
	location  ingestion.LocationResolver
	text      ingestion.TextAnalyzer
	detector  ingestion.Detector
	publisher events.Publisher
	ping      func(context.Context) error

	closers []func() error
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		_ = d.closers[i]()
	}
}

func wire(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *zap.Logger) (*deps, error) {
	d := &deps{}

	storage, err := ingestion.OpenStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	d.storage = storage

	scoringCfg, err := loadScoringConfig(cfg.ScoringConfig)
	if err != nil {
		return nil, err
	}

	var artifacts model.ArtifactStore
	if storage != nil {
		artifacts = storage
	}
	var engineOpts []scoring.Option
	if src := scoringCfg.ModelSource(artifacts); src != nil {
		loader := model.NewLoader(src, logger.Named("model"))
		d.models = loader
		engineOpts = append(engineOpts, scoring.WithPredictor(loader))
		go func() {
			// load eagerly so the first request does not pay for it
			if loader.Info().Loaded {
				metrics.ModelLoaded.Set(1)
			}
		}()
	}
	d.engine, err = scoringCfg.NewEngine(engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("build scoring engine: %w", err)
	}

	if err := d.openStore(ctx, cfg.Database, logger); err != nil {
		d.Close()
		return nil, err
	}

	if err := d.wireLocation(cfg, scoringCfg.Location.Radius, metrics, logger); err != nil {
		d.Close()
		return nil, err
	}

	textOpts := []text.Option{
		text.WithLogger(logger.Named("text")),
		text.WithFailureHook(metrics.DegradedHook("text")),
	}
	if cfg.Inference.URL != "" {
		client := inference.New(cfg.Inference.URL, cfg.Inference.Token, cfg.Inference.Timeout)
		textOpts = append(textOpts, text.WithSentiment(client), text.WithRisk(client))
	}
	d.text = text.NewResolver(textOpts...)

	if cfg.Vision.URL != "" {
		d.detector = vision.New(cfg.Vision.URL, cfg.Vision.Timeout)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		w := kafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger.Named("kafka"))
		d.publisher = w
		d.closers = append(d.closers, w.Close)
	} else {
		d.publisher = events.Nop{}
	}

	logger.Info("service wired",
		zap.Strings("profiles", d.engine.Profiles()),
		zap.String("storage", cfg.Storage.Backend),
		zap.Bool("postgres", cfg.Database.URL != ""),
		zap.Bool("redis", cfg.Redis.URL != ""),
		zap.Bool("inference", cfg.Inference.URL != ""),
		zap.Bool("vision", cfg.Vision.URL != ""),
		zap.Int("kafka_brokers", len(cfg.Kafka.Brokers)))
	return d, nil
}

// openStore uses Postgres when a URL is configured and memory otherwise.
func (d *deps) openStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) error {
	if cfg.URL == "" {
		logger.Warn("no database configured, reports are kept in memory")
		d.store = store.NewMemory(clockwork.NewRealClock())
		d.ping = func(context.Context) error { return nil }
		return nil
	}

	pg, err := store.OpenPostgres(ctx, cfg.URL)
	if err != nil {
		return err
	}
	d.closers = append(d.closers, pg.Close)
	if cfg.AutoMigrate {
		if err := platform.AutoMigrate(pg.DB()); err != nil {
			return err
		}
	}
	d.store = pg
	d.ping = pg.DB().PingContext
	return nil
}

func (d *deps) wireLocation(cfg *config.Config, radius int, metrics *observability.Metrics, logger *zap.Logger) error {
	var src location.POISource
	if !cfg.Overpass.Disabled {
		op := overpass.New(overpass.Config{
			Endpoint:          cfg.Overpass.Endpoint,
			Timeout:           cfg.Overpass.Timeout,
			RequestsPerSecond: cfg.Overpass.RequestsPerSecond,
			Burst:             cfg.Overpass.Burst,
		})
		op.SetObserver(metrics.ObserveOverpass)
		src = op

		if cfg.Redis.URL != "" {
			cache, err := poicache.NewFromURL(cfg.Redis.URL, op,
				poicache.WithTTL(cfg.Redis.TTL),
				poicache.WithLogger(logger.Named("poicache")),
				poicache.WithHitMissHooks(
					func() { metrics.POICache.WithLabelValues("hit").Inc() },
					func() { metrics.POICache.WithLabelValues("miss").Inc() },
				),
			)
			if err != nil {
				return fmt.Errorf("connect redis: %w", err)
			}
			d.closers = append(d.closers, cache.Close)
			src = cache
		}
	}

	d.location = location.NewResolver(src,
		location.WithRadius(radius),
		location.WithLogger(logger.Named("location")),
		location.WithFailureHook(metrics.DegradedHook("location")),
	)
	return nil
}

// loadScoringConfig reads the scoring YAML, falling back to the nearest
// .hotspot/config.yaml and then to the built-in defaults.
func loadScoringConfig(path string) (*scoringconfig.Config, error) {
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = scoringconfig.FindConfigFile(wd)
		}
	}
	if path == "" {
		return scoringconfig.DefaultConfig(), nil
	}
	cfg, err := scoringconfig.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load scoring config: %w", err)
	}
	return cfg, nil
}
