package storage

import (
	"context"
	"fmt"
	"net/url"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/s3blob" // S3 driver
)

// S3BucketURL builds a gocloud URL for an S3-compatible bucket.
// endpoint can be empty for AWS S3, or a custom URL for B2/R2/MinIO.
func S3BucketURL(bucketName, endpoint, region string) string {
	// For AWS: s3://bucket-name?region=us-east-1
	// For custom endpoint: s3://bucket-name?endpoint=https://...&region=...
	bucketURL := fmt.Sprintf("s3://%s", bucketName)

	params := url.Values{}
	if region != "" {
		params.Set("region", region)
	}
	if endpoint != "" {
		params.Set("endpoint", endpoint)
		// custom endpoints generally need path-style addressing
		params.Set("s3ForcePathStyle", "true")
	}
	if len(params) > 0 {
		bucketURL = bucketURL + "?" + params.Encode()
	}
	return bucketURL
}

// NewS3Store creates a store backed by S3-compatible storage.
// Works with AWS S3, Backblaze B2, Cloudflare R2, and MinIO.
func NewS3Store(ctx context.Context, bucketName, prefix, endpoint, region string) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, S3BucketURL(bucketName, endpoint, region))
	if err != nil {
		return nil, fmt.Errorf("open S3 bucket %s: %w", bucketName, err)
	}
	return NewBlobStore(bucket, "s3://"+bucketName, prefix), nil
}
