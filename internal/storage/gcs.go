package storage

import (
	"context"
	"fmt"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/gcsblob" // GCS driver
)

// NewGCSStore creates a store backed by Google Cloud Storage.
// Uses Application Default Credentials (ADC) for authentication.
func NewGCSStore(ctx context.Context, bucketName, prefix string) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, fmt.Sprintf("gs://%s", bucketName))
	if err != nil {
		return nil, fmt.Errorf("open GCS bucket %s: %w", bucketName, err)
	}
	return NewBlobStore(bucket, "gs://"+bucketName, prefix), nil
}
