package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"

	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/metrics"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/record"
)

const sample = "08:05,TL1,10\r\n" +
	"\n" +
	"08:40,TL2,bogus\n" +
	"08:50,TL2,7\n" +
	"9:00,X3,4\n" +
	"09:15,TL3,5,extra\n" +
	"10:00,TL1,-1\n" +
	"10:30,TL4,2\n"

var sampleWant = []record.Record{
	{TimestampMinutes: 8*60 + 5, LightID: 1, Cars: 10},
	{TimestampMinutes: 8*60 + 50, LightID: 2, Cars: 7},
	{TimestampMinutes: 10*60 + 30, LightID: 4, Cars: 2},
}

func compress(t *testing.T, data string) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll([]byte(data), nil)
}

func TestLocalSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traffic_data.txt")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0644))

	m := metrics.New("")
	src, err := NewLocalSource(path, "auto", m)
	require.NoError(t, err)
	defer src.Close()

	got, err := Collect(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, sampleWant, got)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.RecordsLoaded))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.RecordsSkipped.WithLabelValues("cars")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RecordsSkipped.WithLabelValues("light")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RecordsSkipped.WithLabelValues("line")))
}

func TestLocalSource_Zstd(t *testing.T) {
	dir := t.TempDir()

	auto := filepath.Join(dir, "traffic_data.txt.zst")
	require.NoError(t, os.WriteFile(auto, compress(t, sample), 0644))

	forced := filepath.Join(dir, "traffic_data.bin")
	require.NoError(t, os.WriteFile(forced, compress(t, sample), 0644))

	for path, mode := range map[string]string{auto: "auto", forced: "zstd"} {
		src, err := NewLocalSource(path, mode, nil)
		require.NoError(t, err)

		got, err := Collect(context.Background(), src)
		require.NoError(t, err, path)
		assert.Equal(t, sampleWant, got, path)
	}
}

func TestLocalSource_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	src, err := NewLocalSource(path, "none", nil)
	require.NoError(t, err)

	got, err := Collect(context.Background(), src)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLocalSource_Missing(t *testing.T) {
	_, err := NewLocalSource(filepath.Join(t.TempDir(), "nope.txt"), "auto", nil)
	assert.Error(t, err)

	_, err = NewLocalSource(t.TempDir(), "auto", nil)
	assert.Error(t, err)
}

func TestBlobSource(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	require.NoError(t, bucket.WriteAll(ctx, "day1.txt", []byte(sample), nil))
	require.NoError(t, bucket.WriteAll(ctx, "day1.txt.zst", compress(t, sample), nil))

	for _, key := range []string{"day1.txt", "day1.txt.zst"} {
		src := NewBlobSource(bucket, key, "auto", nil)
		got, err := Collect(ctx, src)
		require.NoError(t, err, key)
		assert.Equal(t, sampleWant, got, key)
	}

	_, err := Collect(ctx, NewBlobSource(bucket, "missing.txt", "auto", nil))
	assert.Error(t, err)

	require.NoError(t, bucket.Close())
}

func TestCollect_Cancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traffic_data.txt")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0644))

	src, err := NewLocalSource(path, "none", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Collect(ctx, src)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRecordSource_InvalidMode(t *testing.T) {
	_, err := NewRecordSource(context.Background(), SourceConfig{Mode: "ftp"}, nil)
	assert.ErrorIs(t, err, ErrInvalidSourceMode)
}
