package source

import (
	"context"
	"fmt"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/s3blob" // S3 driver

	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/metrics"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/storage"
)

// NewS3Source creates a source reading one object from S3-compatible storage.
// endpoint can be empty for AWS S3, or a custom URL for B2/R2/MinIO.
func NewS3Source(ctx context.Context, bucketName, key, endpoint, region, compression string, m *metrics.Metrics) (*BlobSource, error) {
	bucket, err := blob.OpenBucket(ctx, storage.S3BucketURL(bucketName, endpoint, region))
	if err != nil {
		return nil, fmt.Errorf("open S3 bucket %s: %w", bucketName, err)
	}
	return NewBlobSource(bucket, key, compression, m), nil
}
