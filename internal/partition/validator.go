package partition

import "fmt"

// ValidationResult contains the outcome of a layout check.
type ValidationResult struct {
	Passed   bool
	Errors   []string
	Live     int
	Padding  int
	SlotSize int
}

// Validate checks a chunk layout before it is scattered:
// - one chunk per worker
// - every chunk has exactly the chunk size
// - live slots add up to the record count
// - padding only appears after the last live slot
func Validate(chunks []Chunk, total, workers int) ValidationResult {
	result := ValidationResult{Passed: true}

	size, err := ChunkSize(total, workers)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		result.Passed = false
		return result
	}
	result.SlotSize = size

	if len(chunks) != workers {
		result.Errors = append(result.Errors,
			fmt.Sprintf("chunk count mismatch: have %d, expected %d", len(chunks), workers))
		result.Passed = false
	}

	seenPad := false
	for i, c := range chunks {
		if len(c) != size {
			result.Errors = append(result.Errors,
				fmt.Sprintf("chunk %d has %d slots, expected %d", i, len(c), size))
			result.Passed = false
		}
		for j, s := range c {
			if s.Pad {
				seenPad = true
				result.Padding++
				continue
			}
			if seenPad {
				result.Errors = append(result.Errors,
					fmt.Sprintf("live slot after padding at chunk %d slot %d", i, j))
				result.Passed = false
			}
			result.Live++
		}
	}

	if result.Live != total {
		result.Errors = append(result.Errors,
			fmt.Sprintf("live slot count mismatch: have %d, expected %d", result.Live, total))
		result.Passed = false
	}

	return result
}
