package cluster

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleOf(t *testing.T) {
	assert.Equal(t, RoleCoordinator, RoleOf(0))
	assert.Equal(t, RoleWorker, RoleOf(1))
	assert.Equal(t, "coordinator", RoleCoordinator.String())
	assert.Equal(t, "worker", RoleWorker.String())
}

func TestNewGroup_InvalidSize(t *testing.T) {
	_, err := NewGroup(0)
	assert.Error(t, err)
}

func TestOffsets(t *testing.T) {
	offsets, total := Offsets([]int{6, 0, 3, 9})

	assert.Equal(t, []int{0, 6, 6, 9}, offsets)
	assert.Equal(t, 18, total)
}

func TestCollectives_FullExchange(t *testing.T) {
	for _, size := range []int{1, 2, 3, 5} {
		g, err := NewGroup(size)
		require.NoError(t, err)

		var mu sync.Mutex
		received := make(map[int]int)
		var gathered []string

		err = g.Run(context.Background(), func(ctx context.Context, c *Comm) error {
			n := 0
			if c.Role() == RoleCoordinator {
				n = 42
			}
			n, err := Broadcast(ctx, c, n)
			if err != nil {
				return err
			}

			var parts []int
			if c.Role() == RoleCoordinator {
				for i := 0; i < c.Size(); i++ {
					parts = append(parts, n+i)
				}
			}
			part, err := Scatter(ctx, c, parts)
			if err != nil {
				return err
			}
			mu.Lock()
			received[c.Rank()] = part
			mu.Unlock()

			// rank r sends r copies of "r"
			send := make([]string, c.Rank())
			for i := range send {
				send[i] = string(rune('a' + c.Rank()))
			}
			counts, err := Gather(ctx, c, len(send))
			if err != nil {
				return err
			}
			buf, err := Gatherv(ctx, c, send, counts)
			if err != nil {
				return err
			}
			if c.Role() == RoleCoordinator {
				gathered = buf
			} else if buf != nil {
				return errors.New("worker received gatherv buffer")
			}
			return nil
		})
		require.NoError(t, err, "size %d", size)

		for rank := 0; rank < size; rank++ {
			assert.Equal(t, 42+rank, received[rank], "size %d rank %d", size, rank)
		}

		var want []string
		for rank := 0; rank < size; rank++ {
			for i := 0; i < rank; i++ {
				want = append(want, string(rune('a'+rank)))
			}
		}
		if want == nil {
			want = []string{}
		}
		assert.Equal(t, want, gathered, "size %d", size)
	}
}

func TestRun_WorkerFailureAbortsCoordinator(t *testing.T) {
	g, err := NewGroup(3)
	require.NoError(t, err)

	boom := errors.New("worker crashed")
	done := make(chan error, 1)

	go func() {
		done <- g.Run(context.Background(), func(ctx context.Context, c *Comm) error {
			if c.Rank() == 2 {
				return boom
			}
			_, err := Broadcast(ctx, c, 7)
			if err != nil {
				return err
			}
			// the coordinator blocks here waiting on rank 2
			_, err = Gather(ctx, c, c.Rank())
			return err
		})
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, errors.Is(err, boom) || errors.Is(err, ErrAborted), "got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("group did not abort")
	}
}

func TestScatter_WrongPartCount(t *testing.T) {
	g, err := NewGroup(2)
	require.NoError(t, err)

	err = g.Run(context.Background(), func(ctx context.Context, c *Comm) error {
		_, err := Scatter(ctx, c, []int{1, 2, 3})
		return err
	})

	var de *DistributionError
	require.True(t, errors.As(err, &de), "got %v", err)
	assert.Equal(t, "scatter", de.Op)
}

func TestGatherv_CountMismatchAborts(t *testing.T) {
	g, err := NewGroup(2)
	require.NoError(t, err)

	err = g.Run(context.Background(), func(ctx context.Context, c *Comm) error {
		send := []int{1, 2, 3}
		counts := []int{3, 6} // rank 1 claims more than it sends
		_, err := Gatherv(ctx, c, send, counts)
		return err
	})

	var de *DistributionError
	require.True(t, errors.As(err, &de), "got %v", err)
	assert.Equal(t, "gatherv", de.Op)
}

func TestRun_ContextCancel(t *testing.T) {
	g, err := NewGroup(2)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = g.Run(ctx, func(ctx context.Context, c *Comm) error {
		_, err := Broadcast(ctx, c, 1)
		return err
	})

	var de *DistributionError
	require.True(t, errors.As(err, &de), "got %v", err)
}

func TestRun_Twice(t *testing.T) {
	g, err := NewGroup(1)
	require.NoError(t, err)

	noop := func(ctx context.Context, c *Comm) error { return nil }
	require.NoError(t, g.Run(context.Background(), noop))
	assert.Error(t, g.Run(context.Background(), noop))
}
