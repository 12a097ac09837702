// Package rank selects the busiest lights of every hour.
package rank

import (
	"slices"

	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/aggregate"
)

// N is the number of lights reported per hour.
const N = 3

// Entry is one light and its total for an hour.
type Entry struct {
	LightID int
	Cars    int
}

// HourRanking is the ordered top entries of one hour.
type HourRanking struct {
	Hour    int
	Entries []Entry
}

// TopN ranks every hour of m in ascending hour order, keeping at most n
// entries per hour. Entries are collected in ascending light order and
// stable-sorted by descending cars, so ties keep collection order.
func TopN(m aggregate.HourLightMap, n int) []HourRanking {
	out := make([]HourRanking, 0, len(m))
	for _, hour := range m.Hours() {
		lights := m[hour]
		if len(lights) == 0 {
			continue
		}

		entries := make([]Entry, 0, len(lights))
		for _, light := range m.Lights(hour) {
			entries = append(entries, Entry{LightID: light, Cars: lights[light]})
		}

		out = append(out, HourRanking{Hour: hour, Entries: Top(entries, n)})
	}
	return out
}

// Top stable-sorts entries by descending cars and returns the first n.
// The input slice is not modified.
func Top(entries []Entry, n int) []Entry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		switch {
		case a.Cars > b.Cars:
			return -1
		case a.Cars < b.Cars:
			return 1
		default:
			return 0
		}
	})
	if n < 0 {
		n = 0
	}
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
