package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Cluster.Workers != 4 || cfg.Cluster.Mode != ModeDistributed {
		t.Errorf("unexpected cluster defaults: %+v", cfg.Cluster)
	}
	if cfg.Input.Path != "traffic_data.txt" {
		t.Errorf("Input.Path = %s", cfg.Input.Path)
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := writeFile(t, `
input:
  mode: s3
  bucket: counts
  key: day1.txt.zst
cluster:
  mode: sequential
  workers: 2
report:
  archive: true
  backend: gcs
  bucket: reports
`)
	t.Setenv("WORKERS", "8")
	t.Setenv("REPORT_SUMMARY", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Input.Mode != "s3" || cfg.Input.Bucket != "counts" || cfg.Input.Key != "day1.txt.zst" {
		t.Errorf("unexpected input: %+v", cfg.Input)
	}
	if cfg.Input.Compression != "auto" {
		t.Errorf("default compression lost: %s", cfg.Input.Compression)
	}
	if cfg.Cluster.Mode != ModeSequential {
		t.Errorf("Cluster.Mode = %s", cfg.Cluster.Mode)
	}
	if cfg.Cluster.Workers != 8 {
		t.Errorf("env should override workers, got %d", cfg.Cluster.Workers)
	}
	if !cfg.Report.Archive || !cfg.Report.Summary || cfg.Report.Backend != "gcs" {
		t.Errorf("unexpected report: %+v", cfg.Report)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero workers", "cluster:\n  workers: 0\n"},
		{"bad mode", "cluster:\n  mode: mesh\n"},
		{"bad input", "input:\n  mode: ftp\n"},
		{"s3 without key", "input:\n  mode: s3\n  bucket: b\n"},
		{"bad compression", "input:\n  compression: lz4\n"},
		{"bad backend", "report:\n  archive: true\n  backend: tape\n"},
		{"bad yaml", "cluster: [\n"},
	}

	for _, tt := range tests {
		if _, err := Load(writeFile(t, tt.body)); err == nil {
			t.Errorf("%s: Load should fail", tt.name)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load should fail for missing file")
	}
}

func TestLoad_OverridesApplyBeforeValidate(t *testing.T) {
	t.Setenv("INPUT_MODE", "gcs")

	if _, err := Load(""); err == nil {
		t.Fatal("gcs input without bucket should fail")
	}

	cfg, err := Load("", func(c *Config) {
		c.Input.Mode = "local"
		c.Input.Path = "counts.txt"
	})
	if err != nil {
		t.Fatalf("override should repair input: %v", err)
	}
	if cfg.Input.Mode != "local" || cfg.Input.Path != "counts.txt" {
		t.Errorf("unexpected input: %+v", cfg.Input)
	}

	if _, err := Load("", func(c *Config) { c.Cluster.Workers = -1 }); err == nil {
		t.Error("overrides must still be validated")
	}
}
