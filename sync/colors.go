package sync

// Background colors for status cells. The palette is fixed so the sheet
// reads the same from run to run.

// Color is an RGB triple in the 0..1 range the Sheets API uses.
type Color struct {
	R, G, B float64
}

var (
	colorPresent    = Color{0.85, 0.94, 0.83} // light green
	colorAbsent     = Color{0.96, 0.80, 0.78} // light red
	colorNoResponse = Color{0.87, 0.82, 0.93} // light purple
)

// StatusColor returns the background color for a status.
func StatusColor(s Status) Color {
	switch s {
	case StatusPresent:
		return colorPresent
	case StatusAbsent:
		return colorAbsent
	default:
		return colorNoResponse
	}
}

// colorRun is a contiguous block of rows sharing one color, half-open on
// the end index.
type colorRun struct {
	startRow int64
	endRow   int64
	color    Color
}

// statusColorRuns collapses a status column into contiguous color runs so
// the formatting batch stays small. firstDataRow is the zero-based sheet
// row of the first status value.
func statusColorRuns(statuses []Status, firstDataRow int64) []colorRun {
	var runs []colorRun
	for i, s := range statuses {
		row := firstDataRow + int64(i)
		c := StatusColor(s)
		if n := len(runs); n > 0 && runs[n-1].color == c && runs[n-1].endRow == row {
			runs[n-1].endRow = row + 1
			continue
		}
		runs = append(runs, colorRun{startRow: row, endRow: row + 1, color: c})
	}
	return runs
}
