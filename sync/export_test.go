package sync

import (
	"fmt"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

type testSheet struct {
	name string
	rows [][]string
}

// buildWorkbook renders sheets into real XLSX bytes so the parser is
// exercised end to end.
func buildWorkbook(t *testing.T, sheets []testSheet) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				t.Fatalf("renaming sheet: %v", err)
			}
		} else {
			if _, err := f.NewSheet(sheet.name); err != nil {
				t.Fatalf("adding sheet: %v", err)
			}
		}
		for r, row := range sheet.rows {
			for c, cell := range row {
				axis, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					t.Fatalf("cell name: %v", err)
				}
				if err := f.SetCellValue(sheet.name, axis, cell); err != nil {
					t.Fatalf("setting cell: %v", err)
				}
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("writing workbook: %v", err)
	}
	return buf.Bytes()
}

func TestParseExport(t *testing.T) {
	data := buildWorkbook(t, []testSheet{{
		name: "Participants",
		rows: [][]string{
			{"Istrening IHKS G2008b"},
			{"15.01.2026 kl 18:00"},
			{},
			{"Name", "Status", "Reason", "Role"},
			{"Alice Smith", "Attending", "", "Player"},
			{"Bob Jensen", "Declined", "injured", ""},
			{"Carol White", "", "", ""},
		},
	}})

	export, err := ParseExport(data)
	if err != nil {
		t.Fatalf("ParseExport: %v", err)
	}

	if len(export.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(export.Rows))
	}
	if export.Rows[0].Name != "Alice Smith" || !export.Rows[0].HasSignal {
		t.Errorf("row 0 = %+v", export.Rows[0])
	}
	if export.Rows[1].RawReason != "injured" {
		t.Errorf("row 1 reason = %q", export.Rows[1].RawReason)
	}
	// Blank status cell means no signal, not absence.
	if export.Rows[2].HasSignal {
		t.Error("blank status cell must carry no signal")
	}
	if exportStatus(export.Rows[2]) != StatusNoResponse {
		t.Error("blank cell must resolve to no response")
	}

	// Header text above the header row is collected for inference.
	loc, _ := time.LoadLocation("Europe/Oslo")
	inferred, ok := ParseDateFromText(export.HeaderText, loc)
	if !ok {
		t.Fatalf("no date found in header text %q", export.HeaderText)
	}
	want := time.Date(2026, time.January, 15, 18, 0, 0, 0, loc).UTC()
	if !inferred.Equal(want) {
		t.Errorf("inferred = %v, want %v", inferred, want)
	}
}

func TestParseExportNorwegianHeaders(t *testing.T) {
	data := buildWorkbook(t, []testSheet{{
		name: "Deltakere",
		rows: [][]string{
			{"Navn", "Svar", "Kommentar"},
			{"Alice Smith", "kommer", ""},
			{"Bob Jensen", "kommer ikke", "syk"},
		},
	}})

	export, err := ParseExport(data)
	if err != nil {
		t.Fatalf("ParseExport: %v", err)
	}
	if len(export.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(export.Rows))
	}
	if exportStatus(export.Rows[0]) != StatusPresent {
		t.Errorf("kommer = %v", exportStatus(export.Rows[0]))
	}
	if exportStatus(export.Rows[1]) != StatusAbsent {
		t.Errorf("kommer ikke = %v", exportStatus(export.Rows[1]))
	}
}

func TestParseExportSkipsLeaderSheet(t *testing.T) {
	data := buildWorkbook(t, []testSheet{
		{
			name: "Players",
			rows: [][]string{
				{"Name", "Status"},
				{"Alice Smith", "x"},
			},
		},
		{
			name: "Ledere",
			rows: [][]string{
				{"Name", "Status"},
				{"Coach Carter", "x"},
			},
		},
	})

	export, err := ParseExport(data)
	if err != nil {
		t.Fatalf("ParseExport: %v", err)
	}
	if len(export.Rows) != 1 || export.Rows[0].Name != "Alice Smith" {
		t.Fatalf("rows = %+v, want only the player sheet", export.Rows)
	}
}

func TestParseExportHeaderHintInference(t *testing.T) {
	data := buildWorkbook(t, []testSheet{{
		name: "Participants",
		rows: [][]string{
			{"Navn", "Kommer ikke", "Kommer"},
			{"Alice Smith", "", "x"},
			{"Bob Jensen", "x", ""},
			{"Carol White", "", ""},
		},
	}})

	export, err := ParseExport(data)
	if err != nil {
		t.Fatalf("ParseExport: %v", err)
	}
	if len(export.Rows) != 3 {
		t.Fatalf("rows = %d", len(export.Rows))
	}
	if exportStatus(export.Rows[0]) != StatusPresent {
		t.Errorf("Alice = %v, want Present via yes column", exportStatus(export.Rows[0]))
	}
	// The negated header must win over the "kommer" fragment inside it.
	if exportStatus(export.Rows[1]) != StatusAbsent {
		t.Errorf("Bob = %v, want Absent via no column", exportStatus(export.Rows[1]))
	}
	if export.Rows[2].HasSignal {
		t.Error("Carol has no marks and must carry no signal")
	}
}

func TestParseExportFreeTextInference(t *testing.T) {
	data := buildWorkbook(t, []testSheet{{
		name: "Participants",
		rows: [][]string{
			{"Name", "Notes"},
			{"Alice Smith", "kommer ikke pga skade"},
			{"Bob Jensen", "random chatter"},
		},
	}})

	export, err := ParseExport(data)
	if err != nil {
		t.Fatalf("ParseExport: %v", err)
	}
	if exportStatus(export.Rows[0]) != StatusAbsent {
		t.Errorf("Alice = %v, want Absent from free text", exportStatus(export.Rows[0]))
	}
	if export.Rows[1].HasSignal {
		t.Error("unrecognized text must carry no signal")
	}
}

func TestExportStatusMarkers(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"x", StatusPresent},
		{"✓", StatusPresent},
		{"-", StatusAbsent},
		{"Declined", StatusAbsent},
		{"whatever", StatusNoResponse},
	}
	for _, tt := range tests {
		got := exportStatus(ExportRow{RawStatus: tt.raw, HasSignal: true})
		if got != tt.want {
			t.Errorf("exportStatus(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestParseDateFromText(t *testing.T) {
	oslo, err := time.LoadLocation("Europe/Oslo")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		text string
		want time.Time
		ok   bool
	}{
		{"Training 2026-02-03T18:30 at the rink", time.Date(2026, 2, 3, 18, 30, 0, 0, oslo), true},
		{"2026-02-03 some event", time.Date(2026, 2, 3, 0, 0, 0, 0, oslo), true},
		{"Istrening 15.01.2026 kl 18:00", time.Date(2026, 1, 15, 18, 0, 0, 0, oslo), true},
		{"Kamp 3/2/2026", time.Date(2026, 2, 3, 0, 0, 0, 0, oslo), true},
		{"no dates here", time.Time{}, false},
		{"bogus 99.99.2026", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseDateFromText(tt.text, oslo)
		if ok != tt.ok {
			t.Errorf("ParseDateFromText(%q) ok = %v, want %v", tt.text, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(tt.want.UTC()) {
			t.Errorf("ParseDateFromText(%q) = %v, want %v", tt.text, got, tt.want.UTC())
		}
	}
}

func TestFindHeaderRowLimit(t *testing.T) {
	rows := make([][]string, 0, headerScanRows+2)
	for i := 0; i < headerScanRows; i++ {
		rows = append(rows, []string{fmt.Sprintf("noise %d", i)})
	}
	rows = append(rows, []string{"Name", "Status"})

	if idx, _ := findHeaderRow(rows); idx != -1 {
		t.Errorf("header beyond scan window found at %d", idx)
	}
}
