// Package aggregate folds records into per-hour, per-light car totals and
// converts those totals to and from the flat tuple stream exchanged between
// workers and the coordinator.
package aggregate

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/partition"
)

// TupleWidth is the number of integers per (hour, light, cars) tuple.
const TupleWidth = 3

// ErrMalformedStream is returned when a flat stream is not a whole number of tuples.
var ErrMalformedStream = errors.New("flat stream length is not a multiple of 3")

// HourLightMap maps hour -> light id -> cumulative cars.
type HourLightMap map[int]map[int]int

// Add accumulates cars into (hour, light), creating the entry when absent.
func (m HourLightMap) Add(hour, light, cars int) {
	lights, ok := m[hour]
	if !ok {
		lights = make(map[int]int)
		m[hour] = lights
	}
	lights[light] += cars
}

// Hours returns the hour keys in ascending order.
func (m HourLightMap) Hours() []int {
	return slices.Sorted(maps.Keys(m))
}

// Lights returns the light ids of an hour in ascending order.
func (m HourLightMap) Lights(hour int) []int {
	return slices.Sorted(maps.Keys(m[hour]))
}

// Len returns the number of (hour, light) entries.
func (m HourLightMap) Len() int {
	n := 0
	for _, lights := range m {
		n += len(lights)
	}
	return n
}

// Fold builds the local map of one chunk. Skipped slots contribute nothing.
func Fold(chunk partition.Chunk) HourLightMap {
	m := make(HourLightMap)
	for _, s := range chunk {
		if s.Skip() {
			continue
		}
		m.Add(s.Record.Hour(), s.Record.LightID, s.Record.Cars)
	}
	return m
}

// Flatten emits the map as consecutive (hour, light, cars) integers, hours
// ascending and lights ascending within each hour.
func (m HourLightMap) Flatten() []int {
	out := make([]int, 0, m.Len()*TupleWidth)
	for _, hour := range m.Hours() {
		lights := m[hour]
		for _, light := range m.Lights(hour) {
			out = append(out, hour, light, lights[light])
		}
	}
	return out
}

// Merge re-accumulates a gathered stream into a fresh map. Keys reported by
// several workers are summed.
func Merge(stream []int) (HourLightMap, error) {
	m := make(HourLightMap)
	if err := m.MergeStream(stream); err != nil {
		return nil, err
	}
	return m, nil
}

// MergeStream adds every tuple of stream into m.
func (m HourLightMap) MergeStream(stream []int) error {
	if len(stream)%TupleWidth != 0 {
		return fmt.Errorf("%w: got %d integers", ErrMalformedStream, len(stream))
	}
	for i := 0; i < len(stream); i += TupleWidth {
		m.Add(stream[i], stream[i+1], stream[i+2])
	}
	return nil
}
