package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gocloud.dev/blob"
)

// BlobStore writes run archives to a gocloud bucket (GCS, S3 or in-memory).
type BlobStore struct {
	bucket  *blob.Bucket
	uriBase string // "gs://bucket" or "s3://bucket"
	prefix  string
}

// NewBlobStore wraps an open bucket. The store owns the bucket and closes it.
func NewBlobStore(bucket *blob.Bucket, uriBase, prefix string) *BlobStore {
	return &BlobStore{
		bucket:  bucket,
		uriBase: uriBase,
		prefix:  prefix,
	}
}

func (s *BlobStore) write(ctx context.Context, key string, data []byte) error {
	w, err := s.bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return fmt.Errorf("create writer for %s: %w", key, err)
	}

	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write data to %s: %w", key, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer for %s: %w", key, err)
	}
	return nil
}

// WriteParquetTemp writes parquet bytes to a temporary key.
func (s *BlobStore) WriteParquetTemp(ctx context.Context, ref RunRef, data []byte) (string, error) {
	tempKey := ref.Path(s.prefix) + ".tmp." + uuid.New().String()
	if err := s.write(ctx, tempKey, data); err != nil {
		return "", err
	}
	return tempKey, nil
}

// WriteManifestTemp writes a manifest to a temporary key.
func (s *BlobStore) WriteManifestTemp(ctx context.Context, ref RunRef, manifest *Manifest) (string, error) {
	tempKey := ref.ManifestPath(s.prefix) + ".tmp." + uuid.New().String()

	data, err := manifest.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	if err := s.write(ctx, tempKey, data); err != nil {
		return "", err
	}
	return tempKey, nil
}

// Finalize moves temp objects to their canonical keys.
// Uses copy + delete pattern.
func (s *BlobStore) Finalize(ctx context.Context, ref RunRef, tempKeys []string) error {
	keys := finalKeys(ref, s.prefix)
	if len(tempKeys) != len(keys) {
		return fmt.Errorf("expected %d temp keys, got %d", len(keys), len(tempKeys))
	}

	for _, key := range keys {
		exists, err := s.bucket.Exists(ctx, key)
		if err != nil {
			return fmt.Errorf("check %s: %w", key, err)
		}
		if exists {
			s.Abort(ctx, tempKeys)
			return fmt.Errorf("%w: %s", ErrRunExists, s.URI(key))
		}
	}

	// Copy all temp files to final locations
	for i, tempKey := range tempKeys {
		if err := s.bucket.Copy(ctx, keys[i], tempKey, nil); err != nil {
			// Rollback: delete any copied objects
			for j := 0; j < i; j++ {
				s.bucket.Delete(ctx, keys[j])
			}
			s.Abort(ctx, tempKeys)
			return fmt.Errorf("finalize %s -> %s: %w", tempKey, keys[i], err)
		}
	}

	// Delete all temp files after successful copy
	for _, tempKey := range tempKeys {
		s.bucket.Delete(ctx, tempKey) // ignore errors
	}
	return nil
}

// Abort removes temporary objects without publishing.
func (s *BlobStore) Abort(ctx context.Context, tempKeys []string) error {
	var lastErr error
	for _, key := range tempKeys {
		if err := s.bucket.Delete(ctx, key); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Exists checks if a run already exists in the bucket.
func (s *BlobStore) Exists(ctx context.Context, ref RunRef) (bool, error) {
	for _, key := range finalKeys(ref, s.prefix) {
		exists, err := s.bucket.Exists(ctx, key)
		if err != nil || exists {
			return exists, err
		}
	}
	return false, nil
}

// ReadAll returns the contents of an object.
func (s *BlobStore) ReadAll(ctx context.Context, key string) ([]byte, error) {
	data, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Head returns metadata about a stored object.
func (s *BlobStore) Head(ctx context.Context, key string) (*ObjectInfo, error) {
	attrs, err := s.bucket.Attributes(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get attributes for %s: %w", key, err)
	}

	return &ObjectInfo{
		Key:     key,
		Size:    attrs.Size,
		ETag:    attrs.ETag,
		ModTime: attrs.ModTime,
	}, nil
}

// Prefix returns the path prefix applied to run keys.
func (s *BlobStore) Prefix() string {
	return s.prefix
}

// URI returns the canonical URI for the given key.
func (s *BlobStore) URI(key string) string {
	return fmt.Sprintf("%s/%s", s.uriBase, key)
}

// Close releases the bucket connection.
func (s *BlobStore) Close() error {
	if s.bucket != nil {
		return s.bucket.Close()
	}
	return nil
}

// Verify BlobStore implements ReportStore.
var _ ReportStore = (*BlobStore)(nil)
