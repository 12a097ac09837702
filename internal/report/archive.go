package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/rank"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/storage"
)

// Version is set at build time.
var Version = "dev"

// ProducerName identifies this program in archive manifests.
const ProducerName = "traffic-ranker"

// ErrArchiveMismatch is returned when a published object differs from what was written.
var ErrArchiveMismatch = errors.New("archived object size mismatch")

// RunInfo describes the run being archived.
type RunInfo struct {
	ID      string
	Mode    string
	Workers int
	Records int
}

// ArchiveResult contains the outcome of a successful archive.
type ArchiveResult struct {
	ParquetKey  string
	ManifestKey string
	Checksum    string
	ByteSize    int64
	RowCount    int64
	Published   time.Time
}

// Archive publishes the rankings of one run to store.
//
// Order of operations:
//  1. Refuse if the run already exists
//  2. Generate parquet in memory
//  3. Compute checksum
//  4. Write parquet and manifest to temp keys
//  5. Finalize (aborting the temp keys on failure)
//  6. Verify the published parquet size
func Archive(ctx context.Context, store storage.ReportStore, run RunInfo, rankings []rank.HourRanking) (*ArchiveResult, error) {
	log := slog.With("component", "archive", "run_id", run.ID)
	ref := storage.RunRef{RunID: run.ID}

	exists, err := store.Exists(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("check run %s: %w", run.ID, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", storage.ErrRunExists, run.ID)
	}

	rows := Rows(run.ID, rankings)
	data, err := EncodeParquet(rows)
	if err != nil {
		return nil, err
	}
	checksum := storage.ComputeChecksum(data)

	manifest := &storage.Manifest{
		Run: storage.RunInfo{
			ID:      run.ID,
			Mode:    run.Mode,
			Workers: run.Workers,
			Records: run.Records,
			Hours:   len(rankings),
		},
		Tables: map[string]storage.TableInfo{
			RankingRow{}.TableName(): {
				File:     "rankings.parquet",
				Checksum: checksum,
				RowCount: int64(len(rows)),
				ByteSize: int64(len(data)),
			},
		},
		Producer: storage.ProducerInfo{
			Name:    ProducerName,
			Version: Version,
		},
		CreatedAt: time.Now().UTC(),
	}

	tempParquet, err := store.WriteParquetTemp(ctx, ref, data)
	if err != nil {
		return nil, fmt.Errorf("write parquet: %w", err)
	}
	tempManifest, err := store.WriteManifestTemp(ctx, ref, manifest)
	if err != nil {
		store.Abort(ctx, []string{tempParquet})
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	if err := store.Finalize(ctx, ref, []string{tempParquet, tempManifest}); err != nil {
		if !errors.Is(err, storage.ErrRunExists) {
			store.Abort(ctx, []string{tempParquet, tempManifest})
		}
		return nil, fmt.Errorf("finalize run %s: %w", run.ID, err)
	}

	parquetKey := ref.Path(store.Prefix())
	info, err := store.Head(ctx, parquetKey)
	if err != nil {
		return nil, fmt.Errorf("verify run %s: %w", run.ID, err)
	}
	if info.Size != int64(len(data)) {
		return nil, fmt.Errorf("%w: %s has %d bytes, wrote %d", ErrArchiveMismatch, store.URI(parquetKey), info.Size, len(data))
	}

	result := &ArchiveResult{
		ParquetKey:  parquetKey,
		ManifestKey: ref.ManifestPath(store.Prefix()),
		Checksum:    checksum,
		ByteSize:    int64(len(data)),
		RowCount:    int64(len(rows)),
		Published:   manifest.CreatedAt,
	}

	log.Info("run archived",
		"uri", store.URI(result.ParquetKey),
		"rows", result.RowCount,
		"bytes", result.ByteSize,
		"checksum", checksum,
	)
	return result, nil
}
