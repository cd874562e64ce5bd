package model

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hotspot-prioritizer/hotspot/pkg/features"
)

// Source fetches raw artifact bytes.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	String() string
}

// FileSource reads an artifact from the local filesystem.
type FileSource string

func (f FileSource) Fetch(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoArtifact
		}
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return data, nil
}

func (f FileSource) String() string { return "file://" + string(f) }

// ArtifactStore is the blob storage capability needed to fetch models.
type ArtifactStore interface {
	GetModel(ctx context.Context, name string) ([]byte, error)
}

// BlobSource reads an artifact from blob storage.
type BlobSource struct {
	Store ArtifactStore
	Name  string
}

func (b BlobSource) Fetch(ctx context.Context) ([]byte, error) {
	return b.Store.GetModel(ctx, b.Name)
}

func (b BlobSource) String() string { return "blob://" + b.Name }

// Info describes the loader state for status endpoints.
type Info struct {
	Loaded  bool   `json:"loaded"`
	Type    string `json:"type,omitempty"`
	Version string `json:"version,omitempty"`
	Source  string `json:"source,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Loader lazily loads one artifact the first time a prediction is needed
// and then serves it read-only. A missing or invalid artifact makes every
// prediction report absent; the error is logged once.
type Loader struct {
	source  Source
	logger  *zap.Logger
	timeout time.Duration

	once      sync.Once
	predictor Predictor
	info      Info
}

// NewLoader creates a Loader. A nil source means no model is configured.
func NewLoader(source Source, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{source: source, logger: logger, timeout: 30 * time.Second}
}

func (l *Loader) load() {
	l.once.Do(func() {
		if l.source == nil {
			l.info = Info{Error: ErrNoArtifact.Error()}
			return
		}
		l.info.Source = l.source.String()

		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()

		data, err := l.source.Fetch(ctx)
		if err != nil {
			l.info.Error = err.Error()
			if errors.Is(err, ErrNoArtifact) {
				l.logger.Info("no trained model, using rule-based scoring", zap.String("source", l.info.Source))
			} else {
				l.logger.Warn("fetch model artifact", zap.String("source", l.info.Source), zap.Error(err))
			}
			return
		}

		p, a, err := Parse(data)
		if err != nil {
			l.info.Error = err.Error()
			l.logger.Warn("invalid model artifact", zap.String("source", l.info.Source), zap.Error(err))
			return
		}

		l.predictor = p
		l.info.Loaded = true
		l.info.Type = a.Type
		l.info.Version = a.Version
		l.logger.Info("trained model loaded",
			zap.String("source", l.info.Source),
			zap.String("type", a.Type),
			zap.String("version", a.Version))
	})
}

// Predict loads the artifact on first use and evaluates it.
func (l *Loader) Predict(mv features.ModelView) (Prediction, bool) {
	l.load()
	if l.predictor == nil {
		return Prediction{}, false
	}
	return l.predictor.Predict(mv)
}

// Info loads the artifact if needed and reports its state.
func (l *Loader) Info() Info {
	l.load()
	return l.info
}
