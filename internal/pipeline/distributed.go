package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/aggregate"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/cluster"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/logging"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/metrics"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/partition"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/rank"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/record"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/report"
)

// RunDistributed ranks records across a group of workers. Only the
// coordinator sees records; every rank learns the total by broadcast,
// receives its chunk by scatter and reports its flattened partial map back
// through a count gather followed by a variable-length gather. Any failure
// aborts every rank and no outcome is produced.
func RunDistributed(ctx context.Context, records []record.Record, workers int, m *metrics.Metrics, log *slog.Logger) (*Outcome, error) {
	if workers < 1 {
		return nil, fmt.Errorf("%w: got %d", partition.ErrInvalidWorkers, workers)
	}
	if log == nil {
		log = slog.Default()
	}

	group, err := cluster.NewGroup(workers)
	if err != nil {
		return nil, err
	}

	d := &distributed{
		records: records,
		metrics: m,
		log:     log,
	}
	if err := group.Run(ctx, func(ctx context.Context, c *cluster.Comm) error {
		return d.participate(ctx, c, c.Role())
	}); err != nil {
		return nil, err
	}

	return &Outcome{Rankings: d.rankings, Stats: d.stats}, nil
}

// distributed holds the coordinator's input and output for one group run.
// Only the coordinator goroutine reads records or writes the results.
type distributed struct {
	records []record.Record
	metrics *metrics.Metrics
	log     *slog.Logger

	rankings []rank.HourRanking
	stats    []report.WorkerStats
}

func (d *distributed) participate(ctx context.Context, c *cluster.Comm, role cluster.Role) error {
	log := logging.ParticipantLogger(d.log, c.Rank(), role.String())
	coordinator := role == cluster.RoleCoordinator

	stage := func(name string, start time.Time) {
		if coordinator {
			d.metrics.ObserveStage(name, time.Since(start).Seconds())
		}
	}

	var total int
	if coordinator {
		total = len(d.records)
	}
	total, err := cluster.Broadcast(ctx, c, total)
	if err != nil {
		return err
	}

	size, err := partition.ChunkSize(total, c.Size())
	if err != nil {
		return err
	}
	log.Debug("record count received", "records", total, "chunk_size", size)

	var chunks []partition.Chunk
	if coordinator {
		chunks, err = partition.Split(d.records, c.Size())
		if err != nil {
			return err
		}
		if v := partition.Validate(chunks, total, c.Size()); !v.Passed {
			return fmt.Errorf("invalid chunk layout: %s", strings.Join(v.Errors, "; "))
		}
		log.Info("records partitioned", "chunk_size", size, "padding", c.Size()*size-total)
	}

	scatterStart := time.Now()
	chunk, err := cluster.Scatter(ctx, c, chunks)
	if err != nil {
		return err
	}
	stage("scatter", scatterStart)
	if len(chunk) != size {
		return &cluster.DistributionError{
			Op:   "scatter",
			Rank: c.Rank(),
			Err:  fmt.Errorf("received %d slots, expected %d", len(chunk), size),
		}
	}

	aggStart := time.Now()
	local := aggregate.Fold(chunk)
	stream := local.Flatten()
	stage("aggregate", aggStart)
	log.Debug("chunk aggregated", "live", chunk.Live(), "tuples", local.Len())

	gatherStart := time.Now()
	counts, err := cluster.Gather(ctx, c, len(stream))
	if err != nil {
		return err
	}
	buf, err := cluster.Gatherv(ctx, c, stream, counts)
	if err != nil {
		return err
	}
	if !coordinator {
		return nil
	}
	stage("gather", gatherStart)

	mergeStart := time.Now()
	final, err := aggregate.Merge(buf)
	if err != nil {
		return err
	}
	stage("merge", mergeStart)

	rankStart := time.Now()
	d.rankings = rank.TopN(final, rank.N)
	stage("rank", rankStart)

	d.stats = workerStats(chunks, counts)
	tuples := make([]int, len(counts))
	for i, n := range counts {
		tuples[i] = n / aggregate.TupleWidth
	}
	d.metrics.SetDistribution(size, c.Size()*size-total, tuples)

	log.Info("results merged", "gathered", len(buf)/aggregate.TupleWidth, "hours", len(d.rankings))
	return nil
}

// workerStats summarizes the layout each rank received and what it reported.
func workerStats(chunks []partition.Chunk, counts []int) []report.WorkerStats {
	stats := make([]report.WorkerStats, len(chunks))
	for i, c := range chunks {
		live := c.Live()
		stats[i] = report.WorkerStats{
			Rank:    i,
			Slots:   len(c),
			Padding: len(c) - live,
			Records: live,
			Tuples:  counts[i] / aggregate.TupleWidth,
		}
	}
	return stats
}
