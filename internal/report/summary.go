package report

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// WorkerStats is the coordinator's view of one rank's share of a run.
type WorkerStats struct {
	Rank    int
	Slots   int // chunk size
	Padding int
	Records int // live records in the chunk
	Tuples  int // tuples reported back
}

// WriteSummary renders the per-rank distribution as a table.
func WriteSummary(w io.Writer, stats []WorkerStats) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Rank", "Slots", "Padding", "Records", "Tuples"})

	var slots, padding, records, tuples int
	for _, s := range stats {
		table.Append([]string{
			strconv.Itoa(s.Rank),
			strconv.Itoa(s.Slots),
			strconv.Itoa(s.Padding),
			strconv.Itoa(s.Records),
			strconv.Itoa(s.Tuples),
		})
		slots += s.Slots
		padding += s.Padding
		records += s.Records
		tuples += s.Tuples
	}

	table.SetFooter([]string{
		"Total",
		strconv.Itoa(slots),
		strconv.Itoa(padding),
		strconv.Itoa(records),
		strconv.Itoa(tuples),
	})
	table.Render()
}
