package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
)

// GCSStorage implements StorageClient using Google Cloud Storage.
type GCSStorage struct {
	client *gcs.Client
	bucket string
	prefix string
}

// NewGCSStorage creates a GCS-backed StorageClient.
// It uses Application Default Credentials (works with Workload Identity, SA keys, gcloud auth).
func NewGCSStorage(ctx context.Context, bucket, prefix string) (*GCSStorage, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSStorage{client: client, bucket: bucket, prefix: prefix}, nil
}

func (s *GCSStorage) put(ctx context.Context, key string, data []byte) error {
	w := s.client.Bucket(s.bucket).Object(s.prefix + key).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("gcs write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs close %s: %w", key, err)
	}
	return nil
}

func (s *GCSStorage) get(ctx context.Context, kind, id string) ([]byte, error) {
	key := blobKey(kind, id)
	r, err := s.client.Bucket(s.bucket).Object(s.prefix + key).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, notFound(kind, id, err)
	}
	if err != nil {
		return nil, fmt.Errorf("gcs read %s: %w", key, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (s *GCSStorage) PutSnapshot(ctx context.Context, reportID string, data []byte) error {
	return s.put(ctx, blobKey(kindSnapshots, reportID), data)
}

func (s *GCSStorage) GetSnapshot(ctx context.Context, reportID string) ([]byte, error) {
	return s.get(ctx, kindSnapshots, reportID)
}

func (s *GCSStorage) PutModel(ctx context.Context, name string, data []byte) error {
	return s.put(ctx, blobKey(kindModels, name), data)
}

func (s *GCSStorage) GetModel(ctx context.Context, name string) ([]byte, error) {
	return s.get(ctx, kindModels, name)
}
