package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/metrics"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/record"
)

// LocalSource reads traffic records from a file on the local filesystem.
type LocalSource struct {
	path        string
	compression string
	log         *slog.Logger
	metrics     *metrics.Metrics
}

// NewLocalSource creates a new local file source.
func NewLocalSource(path, compression string, m *metrics.Metrics) (*LocalSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("invalid input path %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("input path %s is a directory", path)
	}

	return &LocalSource{
		path:        path,
		compression: compression,
		log:         slog.With("component", "source", "mode", "local", "path", path),
		metrics:     m,
	}, nil
}

// Stream implements RecordSource.Stream for local files.
func (s *LocalSource) Stream(ctx context.Context) (<-chan record.Record, <-chan error) {
	return streamFrom(ctx, s.log, s.metrics, s.open)
}

func (s *LocalSource) open(_ context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	if useZstd(s.path, s.compression) {
		return decompressed(f)
	}
	return f, nil
}

// Close releases resources.
func (s *LocalSource) Close() error {
	return nil
}
