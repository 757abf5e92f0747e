package ingest

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// WriteSummary renders the run totals and, when present, a table of failed
// items with their stage and reason.
func WriteSummary(w io.Writer, s RunStats) error {
	totals := table.NewWriter()
	totals.SetStyle(table.StyleRounded)
	totals.AppendHeader(table.Row{"Items", "Ingested", "Skipped", "Failed", "Not attempted", "Uploaded", "Elapsed"})
	totals.AppendRow(table.Row{
		s.Total,
		s.Ingested,
		s.Skipped,
		s.Failed,
		s.NotAttempted,
		fmt.Sprintf("%s in %d objects", humanize.Bytes(uint64(s.UploadedBytes)), s.UploadedObjects),
		s.Elapsed.Round(time.Second).String(),
	})
	totals.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	if _, err := fmt.Fprintln(w, totals.Render()); err != nil {
		return err
	}

	if len(s.Failures) == 0 {
		return nil
	}

	failures := table.NewWriter()
	failures.SetStyle(table.StyleRounded)
	failures.AppendHeader(table.Row{"Line", "Item", "Stage", "Kind", "Reason"})
	for _, o := range s.Failures {
		reason := ""
		if o.Err != nil {
			reason = o.Err.Error()
		}
		failures.AppendRow(table.Row{strconv.Itoa(o.Line), o.ID, string(o.FailedAt), ErrorKind(o.Err), reason})
	}
	failures.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 5, WidthMax: 80},
	})
	_, err := fmt.Fprintln(w, failures.Render())
	return err
}
