// Package cluster runs a fixed group of participants that exchange data only
// through blocking collectives: Broadcast, Scatter, Gather and Gatherv. Every
// participant must reach every collective; a participant that fails or never
// arrives aborts the whole group.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// CoordinatorRank is the rank that owns the input and the final result.
const CoordinatorRank = 0

// Role is resolved once per participant from its rank.
type Role int

const (
	RoleCoordinator Role = iota
	RoleWorker
)

func (r Role) String() string {
	switch r {
	case RoleCoordinator:
		return "coordinator"
	case RoleWorker:
		return "worker"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// RoleOf returns the role of a rank.
func RoleOf(rank int) Role {
	if rank == CoordinatorRank {
		return RoleCoordinator
	}
	return RoleWorker
}

// ErrAborted is the cause seen by participants when the group is aborted.
var ErrAborted = errors.New("collective group aborted")

// DistributionError reports a collective that did not complete.
type DistributionError struct {
	Op   string // "broadcast" | "scatter" | "gather" | "gatherv"
	Rank int
	Err  error
}

func (e *DistributionError) Error() string {
	return fmt.Sprintf("%s on rank %d: %v", e.Op, e.Rank, e.Err)
}

func (e *DistributionError) Unwrap() error {
	return e.Err
}

// Group is a fixed set of participants connected by per-rank mailboxes.
// down[i] carries coordinator -> rank i, up[i] carries rank i -> coordinator.
// Collectives are issued in the same order by every rank, so FIFO delivery
// on each mailbox pairs messages without tags.
type Group struct {
	size int
	down []chan any
	up   []chan any
	log  *slog.Logger

	ctx    context.Context
	cancel context.CancelCauseFunc
}

// NewGroup creates a group of size participants.
func NewGroup(size int) (*Group, error) {
	if size < 1 {
		return nil, fmt.Errorf("group size must be at least 1, got %d", size)
	}

	g := &Group{
		size: size,
		down: make([]chan any, size),
		up:   make([]chan any, size),
		log:  slog.With("component", "cluster"),
	}
	for i := 0; i < size; i++ {
		g.down[i] = make(chan any, 1)
		g.up[i] = make(chan any, 1)
	}
	return g, nil
}

// Size returns the number of participants.
func (g *Group) Size() int {
	return g.size
}

// Abort cancels every participant blocked in, or later entering, a collective.
func (g *Group) Abort(cause error) {
	if g.cancel == nil {
		return
	}
	if cause == nil {
		cause = ErrAborted
	}
	g.cancel(cause)
}

// Run starts one goroutine per rank and blocks until all return. The first
// participant error aborts the group and is returned.
func (g *Group) Run(ctx context.Context, fn func(ctx context.Context, c *Comm) error) error {
	if g.ctx != nil {
		return errors.New("group already running")
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	eg, egCtx := errgroup.WithContext(runCtx)
	g.ctx, g.cancel = egCtx, cancel

	for rank := 0; rank < g.size; rank++ {
		c := &Comm{group: g, rank: rank, role: RoleOf(rank)}
		eg.Go(func() error {
			if err := fn(egCtx, c); err != nil {
				g.log.Debug("participant failed", "rank", c.rank, "role", c.role, "error", err)
				cancel(err)
				return err
			}
			return nil
		})
	}

	return eg.Wait()
}

// Comm is one participant's handle on the group.
type Comm struct {
	group *Group
	rank  int
	role  Role
}

// Rank returns the participant's rank.
func (c *Comm) Rank() int { return c.rank }

// Size returns the group size.
func (c *Comm) Size() int { return c.group.size }

// Role returns the participant's role.
func (c *Comm) Role() Role { return c.role }

func (c *Comm) fail(op string, err error) error {
	return &DistributionError{Op: op, Rank: c.rank, Err: err}
}

// done returns the reason the participant must stop, if any.
func (c *Comm) done(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-c.group.ctx.Done():
		if cause := context.Cause(c.group.ctx); cause != nil {
			return fmt.Errorf("%w: %v", ErrAborted, cause)
		}
		return ErrAborted
	default:
		return nil
	}
}

func (c *Comm) send(ctx context.Context, op string, ch chan<- any, v any) error {
	if err := c.done(ctx); err != nil {
		return c.fail(op, err)
	}
	select {
	case ch <- v:
		return nil
	case <-ctx.Done():
		return c.fail(op, context.Cause(ctx))
	case <-c.group.ctx.Done():
		return c.fail(op, c.done(ctx))
	}
}

func recv[T any](ctx context.Context, c *Comm, op string, ch <-chan any) (T, error) {
	var zero T
	if err := c.done(ctx); err != nil {
		return zero, c.fail(op, err)
	}
	select {
	case v := <-ch:
		t, ok := v.(T)
		if !ok {
			return zero, c.fail(op, fmt.Errorf("unexpected payload %T", v))
		}
		return t, nil
	case <-ctx.Done():
		return zero, c.fail(op, context.Cause(ctx))
	case <-c.group.ctx.Done():
		return zero, c.fail(op, c.done(ctx))
	}
}
