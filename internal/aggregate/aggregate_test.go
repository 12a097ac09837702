package aggregate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/partition"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/record"
)

func slot(minutes, light, cars int) partition.Slot {
	return partition.Slot{Record: record.Record{TimestampMinutes: minutes, LightID: light, Cars: cars}}
}

func TestFold(t *testing.T) {
	chunk := partition.Chunk{
		slot(495, 1, 20),
		slot(525, 1, 30),
		slot(490, 2, 5),
		slot(600, 2, 4),
		partition.Padding,
	}

	m := Fold(chunk)

	assert.Equal(t, HourLightMap{
		8:  {1: 50, 2: 5},
		10: {2: 4},
	}, m)
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, 59, carsTotal(m))
}

func TestFold_SkipsZeroRecords(t *testing.T) {
	m := Fold(partition.Chunk{slot(0, 0, 0), partition.Padding, slot(0, 0, 1)})

	assert.Equal(t, HourLightMap{0: {0: 1}}, m)
}

func TestFold_KeepsZeroCarsOnOtherLights(t *testing.T) {
	m := Fold(partition.Chunk{slot(0, 3, 0)})

	assert.Equal(t, HourLightMap{0: {3: 0}}, m)
}

func TestFlatten_Ordered(t *testing.T) {
	m := HourLightMap{
		9: {7: 1, 2: 3},
		1: {5: 10},
	}

	assert.Equal(t, []int{1, 5, 10, 9, 2, 3, 9, 7, 1}, m.Flatten())
	assert.Empty(t, HourLightMap{}.Flatten())
}

func TestMerge_SumsDuplicates(t *testing.T) {
	a := HourLightMap{8: {1: 20, 2: 5}}
	b := HourLightMap{8: {1: 30}, 9: {1: 1}}

	stream := append(a.Flatten(), b.Flatten()...)
	m, err := Merge(stream)
	require.NoError(t, err)

	assert.Equal(t, HourLightMap{8: {1: 50, 2: 5}, 9: {1: 1}}, m)
}

func TestMerge_DuplicateContributionIsNotIdempotent(t *testing.T) {
	once := HourLightMap{8: {1: 20}}.Flatten()

	single, err := Merge(once)
	require.NoError(t, err)
	double, err := Merge(append(append([]int{}, once...), once...))
	require.NoError(t, err)

	assert.NotEqual(t, single, double)
	assert.Equal(t, 40, double[8][1])
}

func TestMerge_Malformed(t *testing.T) {
	_, err := Merge([]int{1, 2})
	assert.True(t, errors.Is(err, ErrMalformedStream))
}

func TestFlattenMergeRoundTrip(t *testing.T) {
	m := Fold(partition.Chunk{slot(61, 4, 2), slot(62, 4, 3), slot(1400, 9, 8)})

	back, err := Merge(m.Flatten())
	require.NoError(t, err)
	assert.Equal(t, m, back)
	assert.Equal(t, []int{1, 23}, back.Hours())
	assert.Equal(t, []int{4}, back.Lights(1))
}

func carsTotal(m HourLightMap) int {
	total := 0
	for _, lights := range m {
		for _, cars := range lights {
			total += cars
		}
	}
	return total
}
