package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/metrics"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/record"
)

const maxLineBytes = 1 << 20

// scanRecords parses r line by line and sends every valid record to out.
// Invalid lines are logged and dropped; blank lines are ignored.
func scanRecords(ctx context.Context, r io.Reader, out chan<- record.Record, log *slog.Logger, m *metrics.Metrics) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	loaded := 0
	defer func() { m.AddRecordsLoaded(loaded) }()

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		rec, err := record.ParseLine(line)
		if err != nil {
			var pe *record.ParseError
			if errors.As(err, &pe) {
				m.IncRecordsSkipped(pe.Field)
			}
			log.Warn("skipped invalid line", "line_no", lineNo, "line", line, "error", err)
			continue
		}

		select {
		case out <- rec:
			loaded++
		case <-ctx.Done():
			return loaded, ctx.Err()
		}
	}

	if err := scanner.Err(); err != nil {
		return loaded, fmt.Errorf("scan line %d: %w", lineNo+1, err)
	}
	return loaded, nil
}

// streamFrom runs open in a goroutine and scans the reader it returns.
func streamFrom(ctx context.Context, log *slog.Logger, m *metrics.Metrics, open func(ctx context.Context) (io.ReadCloser, error)) (<-chan record.Record, <-chan error) {
	recordCh := make(chan record.Record, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(recordCh)
		defer close(errCh)

		rc, err := open(ctx)
		if err != nil {
			errCh <- err
			return
		}
		defer rc.Close()

		n, err := scanRecords(ctx, rc, recordCh, log, m)
		if err != nil {
			errCh <- err
			return
		}
		log.Info("stream complete", "records", n)
	}()

	return recordCh, errCh
}
