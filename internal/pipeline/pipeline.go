// Package pipeline runs the ranking end to end, either in one pass or spread
// over a collective group of workers.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/aggregate"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/config"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/logging"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/metrics"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/partition"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/rank"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/record"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/report"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/source"
)

// Result is the outcome of one run.
type Result struct {
	RunID    string
	Mode     string
	Workers  int
	Records  int
	Rankings []rank.HourRanking
	Stats    []report.WorkerStats
	Duration time.Duration
}

// Runner loads records from a source and ranks them.
type Runner struct {
	cfg     config.ClusterConfig
	src     source.RecordSource
	metrics *metrics.Metrics
}

// New creates a runner. m may be nil.
func New(cfg config.ClusterConfig, src source.RecordSource, m *metrics.Metrics) *Runner {
	return &Runner{
		cfg:     cfg,
		src:     src,
		metrics: m,
	}
}

// Run loads every record and ranks them in the configured mode. The run id
// is taken from ctx when present.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	runID := logging.RunID(ctx)
	if runID == "" {
		runID = logging.NewRunID()
		ctx = logging.WithRunID(ctx, runID)
	}

	workers := r.cfg.Workers
	if r.cfg.Mode == config.ModeSequential {
		workers = 1
	}
	log := logging.RunLogger(runID, r.cfg.Mode, workers)
	startTime := time.Now()

	loadStart := time.Now()
	records, err := source.Collect(ctx, r.src)
	if err != nil {
		r.metrics.IncRuns(r.cfg.Mode, "error")
		return nil, fmt.Errorf("load records: %w", err)
	}
	r.metrics.ObserveStage("load", time.Since(loadStart).Seconds())
	log.Info("records loaded", "records", len(records))

	var out *Outcome
	switch r.cfg.Mode {
	case config.ModeSequential:
		out = RunSequential(records, r.metrics)
	case config.ModeDistributed:
		out, err = RunDistributed(ctx, records, workers, r.metrics, log)
	default:
		err = fmt.Errorf("unknown cluster mode: %s", r.cfg.Mode)
	}
	if err != nil {
		r.metrics.IncRuns(r.cfg.Mode, "error")
		log.Error("run failed", "error", err)
		return nil, err
	}

	r.metrics.IncRuns(r.cfg.Mode, "ok")
	r.metrics.SetHoursRanked(len(out.Rankings))

	result := &Result{
		RunID:    runID,
		Mode:     r.cfg.Mode,
		Workers:  workers,
		Records:  len(records),
		Rankings: out.Rankings,
		Stats:    out.Stats,
		Duration: time.Since(startTime),
	}
	log.Info("run complete",
		"records", result.Records,
		"hours", len(result.Rankings),
		"duration", result.Duration,
	)
	return result, nil
}

// Outcome is what a mode produces from a record set.
type Outcome struct {
	Rankings []rank.HourRanking
	Stats    []report.WorkerStats
}

// RunSequential ranks records in a single pass. It goes through the same
// one-chunk layout and fold as a distributed run with one worker.
func RunSequential(records []record.Record, m *metrics.Metrics) *Outcome {
	// one worker never fails ChunkSize
	chunks, _ := partition.Split(records, 1)

	aggStart := time.Now()
	local := aggregate.Fold(chunks[0])
	m.ObserveStage("aggregate", time.Since(aggStart).Seconds())

	rankStart := time.Now()
	rankings := rank.TopN(local, rank.N)
	m.ObserveStage("rank", time.Since(rankStart).Seconds())

	return &Outcome{
		Rankings: rankings,
		Stats: []report.WorkerStats{{
			Rank:    0,
			Slots:   len(chunks[0]),
			Records: chunks[0].Live(),
			Tuples:  local.Len(),
		}},
	}
}
