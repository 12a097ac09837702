package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// LocalStore writes run archives to the local filesystem.
type LocalStore struct {
	baseDir string
	prefix  string
}

// NewLocalStore creates a new local filesystem store.
func NewLocalStore(baseDir, prefix string) (*LocalStore, error) {
	// Ensure base directory exists
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create base directory %s: %w", baseDir, err)
	}

	return &LocalStore{
		baseDir: baseDir,
		prefix:  prefix,
	}, nil
}

func (s *LocalStore) writeTemp(path string, data []byte) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create directory %s: %w", dir, err)
	}

	tempPath := path + ".tmp." + uuid.NewString()
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return "", fmt.Errorf("write temp file %s: %w", tempPath, err)
	}
	return tempPath, nil
}

// WriteParquetTemp writes parquet bytes next to their final path.
func (s *LocalStore) WriteParquetTemp(ctx context.Context, ref RunRef, data []byte) (string, error) {
	return s.writeTemp(filepath.Join(s.baseDir, ref.Path(s.prefix)), data)
}

// WriteManifestTemp writes a manifest next to its final path.
func (s *LocalStore) WriteManifestTemp(ctx context.Context, ref RunRef, manifest *Manifest) (string, error) {
	data, err := manifest.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	return s.writeTemp(filepath.Join(s.baseDir, ref.ManifestPath(s.prefix)), data)
}

// Finalize renames temp files into place.
func (s *LocalStore) Finalize(ctx context.Context, ref RunRef, tempKeys []string) error {
	keys := finalKeys(ref, s.prefix)
	if len(tempKeys) != len(keys) {
		return fmt.Errorf("expected %d temp keys, got %d", len(keys), len(tempKeys))
	}

	for _, key := range keys {
		path := filepath.Join(s.baseDir, key)
		if _, err := os.Stat(path); err == nil {
			s.Abort(ctx, tempKeys)
			return fmt.Errorf("%w: %s", ErrRunExists, path)
		}
	}

	for i, tempPath := range tempKeys {
		path := filepath.Join(s.baseDir, keys[i])
		if err := os.Rename(tempPath, path); err != nil {
			// Rollback: remove any already published files
			for j := 0; j < i; j++ {
				os.Remove(filepath.Join(s.baseDir, keys[j]))
			}
			s.Abort(ctx, tempKeys[i:])
			return fmt.Errorf("rename %s to %s: %w", tempPath, path, err)
		}
	}
	return nil
}

// Abort removes temporary files without publishing.
func (s *LocalStore) Abort(ctx context.Context, tempKeys []string) error {
	var lastErr error
	for _, path := range tempKeys {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			lastErr = err
		}
	}
	return lastErr
}

// Exists checks if a run already exists.
func (s *LocalStore) Exists(ctx context.Context, ref RunRef) (bool, error) {
	for _, key := range finalKeys(ref, s.prefix) {
		_, err := os.Stat(filepath.Join(s.baseDir, key))
		if err == nil {
			return true, nil
		}
		if !os.IsNotExist(err) {
			return false, err
		}
	}
	return false, nil
}

// ReadAll returns the contents of a stored key.
func (s *LocalStore) ReadAll(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, key))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Head returns metadata about a stored file.
func (s *LocalStore) Head(ctx context.Context, key string) (*ObjectInfo, error) {
	info, err := os.Stat(filepath.Join(s.baseDir, key))
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", key, err)
	}
	return &ObjectInfo{
		Key:     key,
		Size:    info.Size(),
		ModTime: info.ModTime().UTC().Truncate(time.Second),
	}, nil
}

// Prefix returns the path prefix applied to run keys.
func (s *LocalStore) Prefix() string {
	return s.prefix
}

// URI returns the canonical URI for the given key.
func (s *LocalStore) URI(key string) string {
	absPath := filepath.Join(s.baseDir, key)
	return "file://" + absPath
}

// Close is a no-op for local storage.
func (s *LocalStore) Close() error {
	return nil
}

// Verify LocalStore implements ReportStore.
var _ ReportStore = (*LocalStore)(nil)
