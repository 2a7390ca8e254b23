package report

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// WriteSummary renders the event trace as a table, one row per
// orchestration step.
func (r *Report) WriteSummary(w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.Header("Step", "Kind", "Target", "Detail", "At")

	for i, ev := range r.Events {
		table.Append(
			i+1,
			string(ev.Kind),
			ev.Target,
			ev.Detail,
			ev.At.Format("15:04:05.000"),
		)
	}

	return table.Render()
}
