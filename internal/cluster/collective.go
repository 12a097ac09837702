package cluster

import (
	"context"
	"fmt"
)

// Broadcast delivers the coordinator's v to every rank. Non-coordinator
// ranks ignore their own v and return the received value.
func Broadcast[T any](ctx context.Context, c *Comm, v T) (T, error) {
	const op = "broadcast"
	if c.role != RoleCoordinator {
		return recv[T](ctx, c, op, c.group.down[c.rank])
	}
	for rank := 1; rank < c.Size(); rank++ {
		if err := c.send(ctx, op, c.group.down[rank], v); err != nil {
			return v, err
		}
	}
	return v, nil
}

// Scatter hands parts[i] to rank i. Only the coordinator's parts are read;
// it must hold exactly one part per rank.
func Scatter[T any](ctx context.Context, c *Comm, parts []T) (T, error) {
	const op = "scatter"
	var zero T
	if c.role != RoleCoordinator {
		return recv[T](ctx, c, op, c.group.down[c.rank])
	}
	if len(parts) != c.Size() {
		err := c.fail(op, fmt.Errorf("have %d parts for %d ranks", len(parts), c.Size()))
		c.group.Abort(err)
		return zero, err
	}
	for rank := 1; rank < c.Size(); rank++ {
		if err := c.send(ctx, op, c.group.down[rank], parts[rank]); err != nil {
			return zero, err
		}
	}
	return parts[CoordinatorRank], nil
}

// Gather collects one value per rank at the coordinator, indexed by rank.
// Other ranks get nil.
func Gather[T any](ctx context.Context, c *Comm, v T) ([]T, error) {
	const op = "gather"
	if c.role != RoleCoordinator {
		return nil, c.send(ctx, op, c.group.up[c.rank], v)
	}
	out := make([]T, c.Size())
	out[CoordinatorRank] = v
	for rank := 1; rank < c.Size(); rank++ {
		got, err := recv[T](ctx, c, op, c.group.up[rank])
		if err != nil {
			return nil, err
		}
		out[rank] = got
	}
	return out, nil
}

// Offsets returns the prefix sum of counts: offsets[0] = 0 and
// offsets[i] = offsets[i-1] + counts[i-1]. total is the sum of all counts.
func Offsets(counts []int) (offsets []int, total int) {
	offsets = make([]int, len(counts))
	for i, n := range counts {
		offsets[i] = total
		total += n
	}
	return offsets, total
}

// Gatherv concatenates variable-length payloads at the coordinator in rank
// order. counts must be the per-rank lengths previously gathered with Gather;
// it is only read on the coordinator. A payload whose length differs from its
// reported count aborts the group.
func Gatherv[T any](ctx context.Context, c *Comm, send []T, counts []int) ([]T, error) {
	const op = "gatherv"
	if c.role != RoleCoordinator {
		return nil, c.send(ctx, op, c.group.up[c.rank], send)
	}

	if len(counts) != c.Size() {
		err := c.fail(op, fmt.Errorf("have %d counts for %d ranks", len(counts), c.Size()))
		c.group.Abort(err)
		return nil, err
	}
	for rank, n := range counts {
		if n < 0 {
			err := c.fail(op, fmt.Errorf("rank %d reported negative count %d", rank, n))
			c.group.Abort(err)
			return nil, err
		}
	}

	offsets, total := Offsets(counts)
	buf := make([]T, total)

	for rank := 0; rank < c.Size(); rank++ {
		payload := send
		if rank != CoordinatorRank {
			got, err := recv[[]T](ctx, c, op, c.group.up[rank])
			if err != nil {
				return nil, err
			}
			payload = got
		}
		if len(payload) != counts[rank] {
			err := c.fail(op, fmt.Errorf("rank %d sent %d elements, reported %d", rank, len(payload), counts[rank]))
			c.group.Abort(err)
			return nil, err
		}
		copy(buf[offsets[rank]:], payload)
	}
	return buf, nil
}
