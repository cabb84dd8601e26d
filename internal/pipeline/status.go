package pipeline

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"housingprice/internal"
	"housingprice/internal/storage"
)

const statusFailureLimit = 20

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(title)
	return t
}

// RenderStatus prints the processed months, dataset sizes, the last recorded
// run and recent failures.
func RenderStatus(w io.Writer, store storage.Store) error {
	idx, err := store.LoadIndex()
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}

	months := make([]string, 0, len(idx.Processed))
	for m := range idx.Processed {
		months = append(months, m)
	}
	sort.Strings(months)

	processed := newTable(w, "Processed bulletins")
	processed.AppendHeader(table.Row{"Month", "Doc date", "Title"})
	for _, m := range months {
		entry := idx.Processed[m]
		processed.AppendRow(table.Row{m, entry.DocDate, entry.Title})
	}
	processed.AppendFooter(table.Row{"Total", len(months), ""})
	processed.Render()

	datasets := newTable(w, "Datasets")
	datasets.AppendHeader(table.Row{"Dataset", "Rows", "Months", "Latest"})
	names := []string{DatasetCombined}
	for _, topic := range internal.Topics() {
		names = append(names, topic.String())
	}
	for _, name := range names {
		rows, err := store.ReadDataset(name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		count, latest := monthSpread(rows)
		datasets.AppendRow(table.Row{name, len(rows), count, latest})
	}
	datasets.Render()

	if runLog, ok := store.(storage.RunLog); ok {
		last, err := runLog.LastRun()
		if err != nil {
			return fmt.Errorf("last run: %w", err)
		}
		if last != nil {
			run := newTable(w, "Last run")
			run.AppendHeader(table.Row{"Trace", "Started", "Finished", "Candidates", "Processed", "Skipped", "Failures"})
			run.AppendRow(table.Row{last.TraceID, last.StartedAt, last.FinishedAt, last.Candidates, last.Processed, last.Skipped, last.Failures})
			run.Render()
		}
	}

	if failureLog, ok := store.(storage.FailureLog); ok {
		failures, err := failureLog.ListFailures(statusFailureLimit)
		if err != nil {
			return fmt.Errorf("list failures: %w", err)
		}
		if len(failures) > 0 {
			ft := newTable(w, "Failures")
			ft.AppendHeader(table.Row{"Month", "URL", "Error"})
			for _, f := range failures {
				ft.AppendRow(table.Row{f.Month, f.URL, f.Error})
			}
			ft.Render()
		}
	}
	return nil
}

func monthSpread(rows []internal.Row) (int, string) {
	seen := map[string]struct{}{}
	latest := ""
	for _, row := range rows {
		seen[row.Month] = struct{}{}
		if row.Month > latest {
			latest = row.Month
		}
	}
	return len(seen), latest
}
