package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRunExists is returned when finalizing a run that is already published.
var ErrRunExists = errors.New("run already archived")

// RunRef describes the archive location of a single ranking run.
type RunRef struct {
	RunID string
}

// Path returns the storage path for this run's rankings parquet file.
func (r RunRef) Path(prefix string) string {
	return fmt.Sprintf("%sruns/%s/rankings.parquet", prefix, r.RunID)
}

// ManifestPath returns the storage path for this run's manifest.
func (r RunRef) ManifestPath(prefix string) string {
	return fmt.Sprintf("%sruns/%s/_manifest.json", prefix, r.RunID)
}

// Manifest describes the contents of an archived run.
type Manifest struct {
	Run       RunInfo              `json:"run"`
	Tables    map[string]TableInfo `json:"tables"`
	Producer  ProducerInfo         `json:"producer"`
	CreatedAt time.Time            `json:"created_at"`
}

// RunInfo describes how the run was executed.
type RunInfo struct {
	ID      string `json:"id"`
	Mode    string `json:"mode"`
	Workers int    `json:"workers"`
	Records int    `json:"records"`
	Hours   int    `json:"hours"`
}

// TableInfo describes a single table in the run.
type TableInfo struct {
	File     string `json:"file"`
	Checksum string `json:"checksum"`
	RowCount int64  `json:"row_count"`
	ByteSize int64  `json:"byte_size"`
}

// ProducerInfo describes the software that produced the run.
type ProducerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// MarshalJSON returns the manifest as JSON bytes.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	type Alias Manifest
	return json.MarshalIndent((*Alias)(m), "", "  ")
}

// ComputeChecksum returns the SHA256 checksum of data as "sha256:<hex>".
func ComputeChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(hash[:])
}

// ReportStore publishes run archives with temp-then-finalize semantics.
type ReportStore interface {
	// WriteParquetTemp writes parquet bytes to a temporary location.
	// Returns the temp key that can be passed to Finalize.
	WriteParquetTemp(ctx context.Context, ref RunRef, parquetBytes []byte) (tempKey string, err error)

	// WriteManifestTemp writes a manifest to a temporary location.
	WriteManifestTemp(ctx context.Context, ref RunRef, manifest *Manifest) (tempKey string, err error)

	// Finalize moves temp files to their canonical location, parquet first.
	// It fails with ErrRunExists if either canonical key is already present.
	Finalize(ctx context.Context, ref RunRef, tempKeys []string) error

	// Abort removes temporary files without publishing.
	Abort(ctx context.Context, tempKeys []string) error

	// Exists checks if a run has already been archived.
	Exists(ctx context.Context, ref RunRef) (bool, error)

	// ReadAll returns the contents of a canonical key.
	ReadAll(ctx context.Context, key string) ([]byte, error)

	// Head returns metadata about a stored object.
	Head(ctx context.Context, key string) (*ObjectInfo, error)

	// Prefix returns the path prefix applied to run keys.
	Prefix() string

	// URI returns the canonical URI for the given key.
	// For local: file:///path, GCS: gs://bucket/path, S3: s3://bucket/path
	URI(key string) string

	// Close releases any resources.
	Close() error
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key     string
	Size    int64
	ETag    string // MD5 for S3/GCS, empty for local
	ModTime time.Time
}

// StorageConfig configures the storage backend.
type StorageConfig struct {
	Backend string // "local" | "gcs" | "s3"

	// Local filesystem
	LocalDir string

	// GCS or S3 (also works for B2, R2, MinIO)
	Bucket   string
	Endpoint string // custom endpoint for B2/MinIO/R2
	Region   string

	// Common
	Prefix string // "traffic/" (path prefix within bucket or local dir)
}

// NewReportStore creates a storage backend based on configuration.
func NewReportStore(ctx context.Context, cfg StorageConfig) (ReportStore, error) {
	switch cfg.Backend {
	case "local":
		if cfg.LocalDir == "" {
			return nil, fmt.Errorf("LocalDir required for local backend")
		}
		return NewLocalStore(cfg.LocalDir, cfg.Prefix)
	case "gcs":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("Bucket required for gcs backend")
		}
		return NewGCSStore(ctx, cfg.Bucket, cfg.Prefix)
	case "s3":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("Bucket required for s3 backend")
		}
		return NewS3Store(ctx, cfg.Bucket, cfg.Prefix, cfg.Endpoint, cfg.Region)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

func finalKeys(ref RunRef, prefix string) []string {
	return []string{ref.Path(prefix), ref.ManifestPath(prefix)}
}
