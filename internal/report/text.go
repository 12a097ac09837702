// Package report renders rankings to the console and archives them to storage.
package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/rank"
	"github.com/withObsrvr/obsrvr-traffic-ranker/internal/record"
)

// WriteText prints every hour as a header line, its ranked lights, then a
// blank line. Nothing is written for an empty ranking.
func WriteText(w io.Writer, rankings []rank.HourRanking) error {
	bw := bufio.NewWriter(w)
	for _, hr := range rankings {
		fmt.Fprintf(bw, "Hour: %d\n", hr.Hour)
		for _, e := range hr.Entries {
			fmt.Fprintf(bw, "Light %s%d: %d cars\n", record.LightPrefix, e.LightID, e.Cars)
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}
