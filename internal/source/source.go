package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/metrics"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/record"
)

// RecordSource streams validated traffic records from an input.
type RecordSource interface {
	Stream(ctx context.Context) (<-chan record.Record, <-chan error)
	Close() error
}

type SourceConfig struct {
	Mode        string // "local" | "gcs" | "s3"
	Path        string
	Bucket      string
	Key         string
	Endpoint    string
	Region      string
	Compression string // "auto" | "zstd" | "none"
}

var ErrInvalidSourceMode = errors.New("invalid source mode")

// NewRecordSource constructs a record source based on the configured mode.
// m may be nil.
func NewRecordSource(ctx context.Context, cfg SourceConfig, m *metrics.Metrics) (RecordSource, error) {
	switch cfg.Mode {
	case "local":
		return NewLocalSource(cfg.Path, cfg.Compression, m)
	case "gcs":
		return NewGCSSource(ctx, cfg.Bucket, cfg.Key, cfg.Compression, m)
	case "s3":
		return NewS3Source(ctx, cfg.Bucket, cfg.Key, cfg.Endpoint, cfg.Region, cfg.Compression, m)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSourceMode, cfg.Mode)
	}
}

// Collect drains src into a slice, preserving input order.
func Collect(ctx context.Context, src RecordSource) ([]record.Record, error) {
	recordCh, errCh := src.Stream(ctx)

	var records []record.Record
	for r := range recordCh {
		records = append(records, r)
	}

	if err := <-errCh; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
