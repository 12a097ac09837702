package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/aggregate"
)

func TestTop_StableTies(t *testing.T) {
	entries := []Entry{{1, 10}, {2, 10}, {3, 5}}

	assert.Equal(t, []Entry{{1, 10}, {2, 10}}, Top(entries, 2))
}

func TestTop_StableTiesReversedInput(t *testing.T) {
	entries := []Entry{{9, 10}, {2, 10}, {3, 50}}

	assert.Equal(t, []Entry{{3, 50}, {9, 10}, {2, 10}}, Top(entries, 3))
}

func TestTop_FewerThanN(t *testing.T) {
	entries := []Entry{{4, 1}}

	assert.Equal(t, []Entry{{4, 1}}, Top(entries, N))
	assert.Empty(t, Top(nil, N))
}

func TestTop_DoesNotMutateInput(t *testing.T) {
	entries := []Entry{{1, 1}, {2, 2}}
	Top(entries, 1)

	assert.Equal(t, []Entry{{1, 1}, {2, 2}}, entries)
}

func TestTopN_FiveLights(t *testing.T) {
	m := aggregate.HourLightMap{
		14: {1: 3, 2: 40, 3: 7, 4: 40, 5: 12},
	}

	got := TopN(m, N)

	assert.Equal(t, []HourRanking{
		{Hour: 14, Entries: []Entry{{2, 40}, {4, 40}, {5, 12}}},
	}, got)
}

func TestTopN_HoursAscending(t *testing.T) {
	m := aggregate.HourLightMap{
		20: {1: 1},
		3:  {2: 2},
		11: {3: 3},
	}

	got := TopN(m, N)

	hours := make([]int, 0, len(got))
	for _, h := range got {
		hours = append(hours, h.Hour)
	}
	assert.Equal(t, []int{3, 11, 20}, hours)
}

func TestTopN_SkipsEmptyHours(t *testing.T) {
	m := aggregate.HourLightMap{5: {}, 6: {1: 1}}

	got := TopN(m, N)

	assert.Len(t, got, 1)
	assert.Equal(t, 6, got[0].Hour)
}

func TestTopN_Empty(t *testing.T) {
	assert.Empty(t, TopN(aggregate.HourLightMap{}, N))
}
