package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/config"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/logging"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/metrics"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/pipeline"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/report"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/source"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/storage"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	inputPath := flag.String("input", "", "local input file (overrides input.path)")
	mode := flag.String("mode", "", "sequential | distributed (overrides cluster.mode)")
	workers := flag.Int("workers", 0, "worker count (overrides cluster.workers)")
	flag.Parse()

	cfg := config.MustLoad(*configPath, func(c *config.Config) {
		if *inputPath != "" {
			c.Input.Mode = "local"
			c.Input.Path = *inputPath
		}
		if *mode != "" {
			c.Cluster.Mode = *mode
		}
		if *workers != 0 {
			c.Cluster.Workers = *workers
		}
	})

	logging.Setup(logging.Config{Format: cfg.Logging.Format, Level: cfg.Logging.Level})
	log := logging.Component("main")
	log.Info("traffic ranker starting", "version", report.Version, "mode", cfg.Cluster.Mode, "workers", cfg.Cluster.Workers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown handler
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		sig := <-ch
		log.Info("received signal", "signal", sig.String())
		cancel()
	}()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New("")
		go func() {
			log.Info("metrics server listening", "address", cfg.Metrics.Address)
			if err := m.StartServer(cfg.Metrics.Address); err != nil {
				log.Error("metrics server stopped", "error", err)
			}
		}()
	}

	if err := run(ctx, cfg, m); err != nil {
		if ctx.Err() != nil {
			log.Info("shutdown complete")
			os.Exit(130)
		}
		log.Error("traffic ranker failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, m *metrics.Metrics) error {
	src, err := source.NewRecordSource(ctx, source.SourceConfig{
		Mode:        cfg.Input.Mode,
		Path:        cfg.Input.Path,
		Bucket:      cfg.Input.Bucket,
		Key:         cfg.Input.Key,
		Endpoint:    cfg.Input.Endpoint,
		Region:      cfg.Input.Region,
		Compression: cfg.Input.Compression,
	}, m)
	if err != nil {
		return err
	}
	defer src.Close()

	ctx = logging.WithRunID(ctx, logging.NewRunID())

	res, err := pipeline.New(cfg.Cluster, src, m).Run(ctx)
	if err != nil {
		return err
	}

	if err := report.WriteText(os.Stdout, res.Rankings); err != nil {
		return err
	}
	if cfg.Report.Summary {
		report.WriteSummary(os.Stderr, res.Stats)
	}

	if !cfg.Report.Archive {
		return nil
	}

	store, err := storage.NewReportStore(ctx, storage.StorageConfig{
		Backend:  cfg.Report.Backend,
		LocalDir: cfg.Report.LocalDir,
		Bucket:   cfg.Report.Bucket,
		Endpoint: cfg.Report.Endpoint,
		Region:   cfg.Report.Region,
		Prefix:   cfg.Report.Prefix,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = report.Archive(ctx, store, report.RunInfo{
		ID:      res.RunID,
		Mode:    res.Mode,
		Workers: res.Workers,
		Records: res.Records,
	}, res.Rankings)
	return err
}
