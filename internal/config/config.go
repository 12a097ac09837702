package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Input   InputConfig   `yaml:"input"`
	Cluster ClusterConfig `yaml:"cluster"`
	Report  ReportConfig  `yaml:"report"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type InputConfig struct {
	Mode        string `yaml:"mode"` // "local" | "gcs" | "s3"
	Path        string `yaml:"path"`
	Bucket      string `yaml:"bucket"`
	Key         string `yaml:"key"`
	Endpoint    string `yaml:"endpoint"`
	Region      string `yaml:"region"`
	Compression string `yaml:"compression"` // "auto" | "zstd" | "none"
}

type ClusterConfig struct {
	Mode    string `yaml:"mode"` // "sequential" | "distributed"
	Workers int    `yaml:"workers"`
}

type ReportConfig struct {
	Archive  bool   `yaml:"archive"`
	Summary  bool   `yaml:"summary"`
	Backend  string `yaml:"backend"` // "local" | "gcs" | "s3"
	LocalDir string `yaml:"local_dir"`
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Endpoint string `yaml:"endpoint"`
	Region   string `yaml:"region"`
}

type LoggingConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

const (
	ModeSequential  = "sequential"
	ModeDistributed = "distributed"
)

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Input: InputConfig{
			Mode:        "local",
			Path:        "traffic_data.txt",
			Compression: "auto",
		},
		Cluster: ClusterConfig{
			Mode:    ModeDistributed,
			Workers: 4,
		},
		Report: ReportConfig{
			Backend:  "local",
			LocalDir: "./reports",
			Prefix:   "traffic/",
		},
		Logging: LoggingConfig{
			Format: "text",
			Level:  "info",
		},
		Metrics: MetricsConfig{
			Address: ":9090",
		},
	}
}

// Override adjusts a loaded configuration before it is validated.
type Override func(*Config)

// Load builds the configuration from defaults, an optional YAML file,
// environment overrides and then overrides, in that order, and validates
// the result.
func Load(path string, overrides ...Override) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	for _, o := range overrides {
		o(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MustLoad is Load that exits the process on error.
func MustLoad(path string, overrides ...Override) Config {
	slog.Info("loading config", "component", "config", "path", path)

	cfg, err := Load(path, overrides...)
	if err != nil {
		slog.Error("invalid configuration", "component", "config", "error", err)
		os.Exit(1)
	}
	return cfg
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	switch c.Input.Mode {
	case "local":
		if c.Input.Path == "" {
			return fmt.Errorf("input.path required for local input")
		}
	case "gcs", "s3":
		if c.Input.Bucket == "" || c.Input.Key == "" {
			return fmt.Errorf("input.bucket and input.key required for %s input", c.Input.Mode)
		}
	default:
		return fmt.Errorf("unknown input mode: %s", c.Input.Mode)
	}

	switch c.Input.Compression {
	case "auto", "zstd", "none":
	default:
		return fmt.Errorf("unknown input compression: %s", c.Input.Compression)
	}

	switch c.Cluster.Mode {
	case ModeSequential, ModeDistributed:
	default:
		return fmt.Errorf("unknown cluster mode: %s", c.Cluster.Mode)
	}
	if c.Cluster.Workers < 1 {
		return fmt.Errorf("cluster.workers must be at least 1, got %d", c.Cluster.Workers)
	}

	if c.Report.Archive {
		switch c.Report.Backend {
		case "local", "gcs", "s3":
		default:
			return fmt.Errorf("unknown report backend: %s", c.Report.Backend)
		}
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Input.Mode = getenvDefault("INPUT_MODE", cfg.Input.Mode)
	cfg.Input.Path = getenvDefault("INPUT_PATH", cfg.Input.Path)
	cfg.Input.Bucket = getenvDefault("INPUT_BUCKET", cfg.Input.Bucket)
	cfg.Input.Key = getenvDefault("INPUT_KEY", cfg.Input.Key)
	cfg.Input.Endpoint = getenvDefault("INPUT_ENDPOINT", cfg.Input.Endpoint)
	cfg.Input.Region = getenvDefault("INPUT_REGION", cfg.Input.Region)
	cfg.Input.Compression = getenvDefault("INPUT_COMPRESSION", cfg.Input.Compression)

	cfg.Cluster.Mode = getenvDefault("CLUSTER_MODE", cfg.Cluster.Mode)
	if v := os.Getenv("WORKERS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Cluster.Workers = parsed
		}
	}

	cfg.Report.Archive = getenvBool("REPORT_ARCHIVE", cfg.Report.Archive)
	cfg.Report.Summary = getenvBool("REPORT_SUMMARY", cfg.Report.Summary)
	cfg.Report.Backend = getenvDefault("REPORT_BACKEND", cfg.Report.Backend)
	cfg.Report.LocalDir = getenvDefault("REPORT_LOCAL_DIR", cfg.Report.LocalDir)
	cfg.Report.Bucket = getenvDefault("REPORT_BUCKET", cfg.Report.Bucket)
	cfg.Report.Prefix = getenvDefault("REPORT_PREFIX", cfg.Report.Prefix)
	cfg.Report.Endpoint = getenvDefault("REPORT_ENDPOINT", cfg.Report.Endpoint)
	cfg.Report.Region = getenvDefault("REPORT_REGION", cfg.Report.Region)

	cfg.Logging.Format = getenvDefault("LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.Level = getenvDefault("LOG_LEVEL", cfg.Logging.Level)

	cfg.Metrics.Enabled = getenvBool("METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.Address = getenvDefault("METRICS_ADDRESS", cfg.Metrics.Address)
}

func getenvDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getenvBool(key string, def bool) bool {
	switch os.Getenv(key) {
	case "true":
		return true
	case "false":
		return false
	default:
		return def
	}
}
