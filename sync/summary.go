package sync

import "time"

// The summary tab is the wide view: one row per member, one column per
// event, plus aggregate counts. It is recomputed from scratch every run and
// holds no hand-entered data, so it is cleared and rewritten without any
// carry-forward.

var summaryTotalsColumns = []string{"Present", "Absent", "No response", "Missed"}

// BuildSummaryValues renders the matrix with event column headers in local
// time.
func BuildSummaryValues(t *Table, loc *time.Location) [][]interface{} {
	header := make([]interface{}, 0, 1+len(t.Events)+len(summaryTotalsColumns))
	header = append(header, "Member")
	for _, ev := range t.Events {
		header = append(header, ev.Header(loc))
	}
	for _, col := range summaryTotalsColumns {
		header = append(header, col)
	}

	values := [][]interface{}{header}
	for _, m := range t.Members {
		row := make([]interface{}, 0, len(header))
		row = append(row, m.Display)
		for _, ev := range t.Events {
			cell := t.Cell(ev.ID, m.Key)
			row = append(row, FormatStatus(cell.Status, cell.Reason))
		}
		totals := t.Totals(m.Key)
		row = append(row, totals.Present, totals.Absent, totals.NoResponse, totals.Missed())
		values = append(values, row)
	}
	return values
}

// summaryStatuses returns the status of each body cell, rows in member
// order and columns in event order, for background coloring.
func summaryStatuses(t *Table) [][]Status {
	grid := make([][]Status, len(t.Members))
	for i, m := range t.Members {
		row := make([]Status, len(t.Events))
		for j, ev := range t.Events {
			row[j] = t.Cell(ev.ID, m.Key).Status
		}
		grid[i] = row
	}
	return grid
}
