// Package partition splits the validated record set into equal-size chunks, one per worker.
package partition

import (
	"errors"
	"fmt"

	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/record"
)

// ErrInvalidWorkers is returned when the worker count is below one.
var ErrInvalidWorkers = errors.New("worker count must be at least 1")

// Slot is one fixed-size position in a chunk. Pad marks tail filler.
type Slot struct {
	Record record.Record
	Pad    bool
}

// Padding is the sentinel slot used to fill the last chunk.
var Padding = Slot{Pad: true}

// Skip reports whether the aggregator must ignore this slot. All-zero records
// are skipped as well, whether or not they were tagged as padding.
func (s Slot) Skip() bool {
	return s.Pad || s.Record.IsZero()
}

// Chunk is the contiguous slice of slots assigned to one worker.
type Chunk []Slot

// Live returns the number of slots that are not tagged as padding.
func (c Chunk) Live() int {
	n := 0
	for _, s := range c {
		if !s.Pad {
			n++
		}
	}
	return n
}

// ChunkSize returns ceil(total / workers).
func ChunkSize(total, workers int) (int, error) {
	if workers < 1 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidWorkers, workers)
	}
	if total < 0 {
		return 0, fmt.Errorf("negative record count %d", total)
	}
	return (total + workers - 1) / workers, nil
}

// Split lays the records out in workers*chunkSize slots and cuts them into
// workers chunks. Slots beyond len(records) hold Padding.
func Split(records []record.Record, workers int) ([]Chunk, error) {
	size, err := ChunkSize(len(records), workers)
	if err != nil {
		return nil, err
	}

	slots := make([]Slot, workers*size)
	for i := range slots {
		if i < len(records) {
			slots[i] = Slot{Record: records[i]}
		} else {
			slots[i] = Padding
		}
	}

	chunks := make([]Chunk, workers)
	for w := 0; w < workers; w++ {
		chunks[w] = Chunk(slots[w*size : (w+1)*size : (w+1)*size])
	}
	return chunks, nil
}
