package sync

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// The attendance tab is a row-per-(event, member) table rather than a
// matrix, because two of its columns belong to the humans running the team:
// Override Status and Override Reason. Each sync rewrites the computed
// columns from scratch and carries the override columns forward unchanged,
// keyed by (Event ID, member).

// AttendanceColumns is the header row of the attendance tab, in order.
var AttendanceColumns = []string{
	"Event ID",
	"Event Title",
	"Event Start (UTC)",
	"Member",
	"Status",
	"Raw Status",
	"Raw Reason",
	"Override Status",
	"Override Reason",
}

// SheetRow is one attendance tab row.
type SheetRow struct {
	EventID        string
	EventTitle     string
	EventStartUTC  string
	Member         string
	Status         string
	RawStatus      string
	RawReason      string
	OverrideStatus string
	OverrideReason string
}

// CompositeKey identifies a row for override carry-forward. Member names go
// through normalization so a rename in source casing does not orphan an
// override.
func CompositeKey(eventID, member string) string {
	return fmt.Sprintf("%s|%s", eventID, NormalizeName(member))
}

// BuildSheetRows flattens the snapshot into attendance rows, one per
// (event, member) pair including pairs with no observed fact.
func BuildSheetRows(t *Table) []SheetRow {
	rows := make([]SheetRow, 0, len(t.Events)*len(t.Members))
	for _, ev := range t.Events {
		startUTC := ""
		if ev.HasStart {
			startUTC = ev.Start.UTC().Format(time.RFC3339)
		}
		for _, m := range t.Members {
			cell := t.Cell(ev.ID, m.Key)
			rows = append(rows, SheetRow{
				EventID:       ev.ID,
				EventTitle:    ev.Title,
				EventStartUTC: startUTC,
				Member:        m.Display,
				Status:        FormatStatus(cell.Status, cell.Reason),
				RawStatus:     cell.RawStatus,
				RawReason:     cell.RawReason,
			})
		}
	}
	return rows
}

// MergeOverrides carries the override columns from the previous table state
// into the freshly computed rows. Pure function: neither input is modified.
// New rows win on every computed column; previous override values survive
// unless the new rows already carry one (they never do in practice, the
// computed side leaves overrides blank).
func MergeOverrides(computed, previous []SheetRow) []SheetRow {
	prevByKey := make(map[string]SheetRow, len(previous))
	for _, row := range previous {
		prevByKey[CompositeKey(row.EventID, row.Member)] = row
	}

	merged := make([]SheetRow, len(computed))
	for i, row := range computed {
		if prev, ok := prevByKey[CompositeKey(row.EventID, row.Member)]; ok {
			if row.OverrideStatus == "" {
				row.OverrideStatus = prev.OverrideStatus
			}
			if row.OverrideReason == "" {
				row.OverrideReason = prev.OverrideReason
			}
		}
		merged[i] = row
	}
	return merged
}

// SortSheetRows orders rows by event start ascending (RFC 3339 strings sort
// chronologically; blank starts sort first), then event ID, then member
// case-insensitively.
func SortSheetRows(rows []SheetRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.EventStartUTC != b.EventStartUTC {
			return a.EventStartUTC < b.EventStartUTC
		}
		if a.EventID != b.EventID {
			return a.EventID < b.EventID
		}
		return caseFolder.String(a.Member) < caseFolder.String(b.Member)
	})
}

// RowsToValues renders header plus data rows for the Sheets API.
func RowsToValues(rows []SheetRow) [][]interface{} {
	values := make([][]interface{}, 0, len(rows)+1)
	header := make([]interface{}, len(AttendanceColumns))
	for i, col := range AttendanceColumns {
		header[i] = col
	}
	values = append(values, header)
	for _, r := range rows {
		values = append(values, []interface{}{
			r.EventID, r.EventTitle, r.EventStartUTC, r.Member,
			r.Status, r.RawStatus, r.RawReason,
			r.OverrideStatus, r.OverrideReason,
		})
	}
	return values
}

// ParseSheetRows reads previously written attendance values back into rows.
// Columns are located by header name so manual column reordering in the
// spreadsheet does not lose overrides.
func ParseSheetRows(values [][]interface{}) []SheetRow {
	if len(values) == 0 {
		return nil
	}

	colIdx := make(map[string]int)
	for i, cell := range values[0] {
		colIdx[strings.TrimSpace(safeString(cell))] = i
	}
	get := func(row []interface{}, col string) string {
		idx, ok := colIdx[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return safeString(row[idx])
	}

	var rows []SheetRow
	for _, raw := range values[1:] {
		r := SheetRow{
			EventID:        get(raw, "Event ID"),
			EventTitle:     get(raw, "Event Title"),
			EventStartUTC:  get(raw, "Event Start (UTC)"),
			Member:         get(raw, "Member"),
			Status:         get(raw, "Status"),
			RawStatus:      get(raw, "Raw Status"),
			RawReason:      get(raw, "Raw Reason"),
			OverrideStatus: get(raw, "Override Status"),
			OverrideReason: get(raw, "Override Reason"),
		}
		if r.EventID == "" && r.Member == "" {
			continue
		}
		rows = append(rows, r)
	}
	return rows
}
