package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"gocloud.dev/blob"

	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/metrics"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/record"
)

// BlobSource reads traffic records from a single object in a gocloud bucket.
type BlobSource struct {
	bucket      *blob.Bucket
	key         string
	compression string
	log         *slog.Logger
	metrics     *metrics.Metrics
}

// NewBlobSource wraps an open bucket. The source owns the bucket and closes it.
func NewBlobSource(bucket *blob.Bucket, key, compression string, m *metrics.Metrics) *BlobSource {
	return &BlobSource{
		bucket:      bucket,
		key:         key,
		compression: compression,
		log:         slog.With("component", "source", "mode", "blob", "key", key),
		metrics:     m,
	}
}

// Stream implements RecordSource.Stream for bucket objects.
func (s *BlobSource) Stream(ctx context.Context) (<-chan record.Record, <-chan error) {
	return streamFrom(ctx, s.log, s.metrics, s.open)
}

func (s *BlobSource) open(ctx context.Context) (io.ReadCloser, error) {
	reader, err := s.bucket.NewReader(ctx, s.key, nil)
	if err != nil {
		return nil, fmt.Errorf("open object %s: %w", s.key, err)
	}
	if useZstd(s.key, s.compression) {
		return decompressed(reader)
	}
	return reader, nil
}

// Close releases resources.
func (s *BlobSource) Close() error {
	if s.bucket != nil {
		return s.bucket.Close()
	}
	return nil
}
