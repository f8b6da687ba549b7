package report

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintSummary renders the run statistics as a two column table.
func PrintSummary(w io.Writer, stats Stats) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Metric", "Value"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	data := [][]string{
		{"Objects fetched", strconv.Itoa(stats.Fetched)},
		{"Rows written", strconv.Itoa(stats.Written)},
		{"Objects skipped", strconv.Itoa(stats.Skipped)},
		{"Rows joined to analytics", strconv.Itoa(stats.Joined)},
		{"Plays", strconv.Itoa(stats.Plays)},
		{"Completes", strconv.Itoa(stats.Completes)},
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
