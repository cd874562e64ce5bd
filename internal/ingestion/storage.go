package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hotspot-prioritizer/hotspot/internal/config"
	"github.com/hotspot-prioritizer/hotspot/pkg/model"
)

// StorageClient abstracts blob storage for archived feature snapshots and
// trained model artifacts. It satisfies model.ArtifactStore.
type StorageClient interface {
	PutSnapshot(ctx context.Context, reportID string, data []byte) error
	GetSnapshot(ctx context.Context, reportID string) ([]byte, error)
	PutModel(ctx context.Context, name string, data []byte) error
	GetModel(ctx context.Context, name string) ([]byte, error)
}

const (
	kindSnapshots = "snapshots"
	kindModels    = "models"
)

// ErrBlobNotFound is returned when the requested snapshot or model blob does
// not exist in the backend. Missing models also match model.ErrNoArtifact.
var ErrBlobNotFound = errors.New("blob not found")

func blobKey(kind, id string) string {
	return kind + "/" + id + ".json"
}

// notFound wraps a backend miss so callers can match on the sentinel rather
// than on backend-specific error types.
func notFound(kind, id string, err error) error {
	if kind == kindModels {
		return fmt.Errorf("%w: %w: %s: %w", model.ErrNoArtifact, ErrBlobNotFound, blobKey(kind, id), err)
	}
	return fmt.Errorf("%w: %s: %w", ErrBlobNotFound, blobKey(kind, id), err)
}

// OpenStorage builds the configured backend. It returns nil for "none".
func OpenStorage(ctx context.Context, cfg config.StorageConfig) (StorageClient, error) {
	switch cfg.Backend {
	case "local":
		return NewLocalStorage(cfg.LocalPath), nil
	case "s3":
		s, err := NewS3Storage(ctx, S3Config{
			Bucket:    cfg.Bucket,
			Prefix:    cfg.Prefix,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create s3 storage: %w", err)
		}
		return s, nil
	case "gcs":
		s, err := NewGCSStorage(ctx, cfg.Bucket, cfg.Prefix)
		if err != nil {
			return nil, fmt.Errorf("create gcs storage: %w", err)
		}
		return s, nil
	default:
		return nil, nil
	}
}

// LocalStorage implements StorageClient using the local filesystem.
// Useful for development and testing.
type LocalStorage struct {
	BaseDir string
}

// NewLocalStorage creates a LocalStorage rooted at the given directory.
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{BaseDir: baseDir}
}

func (s *LocalStorage) path(kind, id string) string {
	return filepath.Join(s.BaseDir, kind, id+".json")
}

func (s *LocalStorage) get(kind, id string) ([]byte, error) {
	data, err := os.ReadFile(s.path(kind, id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(kind, id, err)
	}
	return data, err
}

func (s *LocalStorage) put(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// PutSnapshot archives a report's feature snapshot.
func (s *LocalStorage) PutSnapshot(ctx context.Context, reportID string, data []byte) error {
	return s.put(s.path(kindSnapshots, reportID), data)
}

// GetSnapshot reads an archived feature snapshot.
func (s *LocalStorage) GetSnapshot(ctx context.Context, reportID string) ([]byte, error) {
	return s.get(kindSnapshots, reportID)
}

// PutModel stores a model artifact.
func (s *LocalStorage) PutModel(ctx context.Context, name string, data []byte) error {
	return s.put(s.path(kindModels, name), data)
}

// GetModel reads a model artifact.
func (s *LocalStorage) GetModel(ctx context.Context, name string) ([]byte, error) {
	return s.get(kindModels, name)
}
