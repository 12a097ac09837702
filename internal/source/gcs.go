package source

import (
	"context"
	"fmt"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/gcsblob" // GCS driver

	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/metrics"
)

// NewGCSSource creates a source reading one object from Google Cloud Storage.
// Uses Application Default Credentials (ADC) for authentication.
func NewGCSSource(ctx context.Context, bucketName, key, compression string, m *metrics.Metrics) (*BlobSource, error) {
	// URL format: gs://bucket-name
	bucket, err := blob.OpenBucket(ctx, fmt.Sprintf("gs://%s", bucketName))
	if err != nil {
		return nil, fmt.Errorf("open GCS bucket %s: %w", bucketName, err)
	}
	return NewBlobSource(bucket, key, compression, m), nil
}
