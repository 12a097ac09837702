package report

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/rank"
)

// RankingRow represents a single row in the rankings table.
type RankingRow struct {
	RunID   string `parquet:"run_id"`
	Hour    int64  `parquet:"hour"`
	Rank    int32  `parquet:"rank"` // 1-based position within the hour
	LightID int64  `parquet:"light_id"`
	Cars    int64  `parquet:"cars"`
}

// TableName returns the canonical table name.
func (RankingRow) TableName() string {
	return "rankings"
}

// Rows flattens rankings into table rows, hour by hour in rank order.
func Rows(runID string, rankings []rank.HourRanking) []RankingRow {
	var rows []RankingRow
	for _, hr := range rankings {
		for i, e := range hr.Entries {
			rows = append(rows, RankingRow{
				RunID:   runID,
				Hour:    int64(hr.Hour),
				Rank:    int32(i + 1),
				LightID: int64(e.LightID),
				Cars:    int64(e.Cars),
			})
		}
	}
	return rows
}

// EncodeParquet writes rows as a zstd-compressed parquet file.
func EncodeParquet(rows []RankingRow) ([]byte, error) {
	var buf bytes.Buffer
	if err := parquet.Write(&buf, rows, parquet.Compression(&parquet.Zstd)); err != nil {
		return nil, fmt.Errorf("write parquet: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeParquet reads rows back from parquet bytes.
func DecodeParquet(data []byte) ([]RankingRow, error) {
	rows, err := parquet.Read[RankingRow](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	return rows, nil
}
