package sync

import (
	"testing"
	"time"
)

func TestBuildSummaryValues(t *testing.T) {
	oslo, _ := time.LoadLocation("Europe/Oslo")
	table := snapshotTable()

	values := BuildSummaryValues(table, oslo)
	if len(values) != 4 {
		t.Fatalf("rows = %d, want header plus three members", len(values))
	}

	header := values[0]
	// Member + 1 event + 4 totals columns.
	if len(header) != 6 {
		t.Fatalf("header = %v", header)
	}
	if header[1] != "2026-01-13 18:00 Istrening" {
		t.Errorf("event header = %v", header[1])
	}

	// Rows are in member order: Alice, Bob, Carol.
	if values[1][1] != "Present" {
		t.Errorf("Alice cell = %v", values[1][1])
	}
	if values[2][1] != "Absent — syk" {
		t.Errorf("Bob cell = %v", values[2][1])
	}
	if values[3][1] != "No response" {
		t.Errorf("Carol cell = %v", values[3][1])
	}

	// Bob: 0 present, 1 absent, 0 no response, 1 missed.
	if values[2][2] != 0 || values[2][3] != 1 || values[2][5] != 1 {
		t.Errorf("Bob totals = %v", values[2][2:])
	}
}

func TestSummaryStatusesGrid(t *testing.T) {
	table := snapshotTable()
	grid := summaryStatuses(table)

	if len(grid) != 3 || len(grid[0]) != 1 {
		t.Fatalf("grid shape = %dx%d", len(grid), len(grid[0]))
	}
	if grid[0][0] != StatusPresent || grid[1][0] != StatusAbsent || grid[2][0] != StatusNoResponse {
		t.Errorf("grid = %v", grid)
	}
}

func TestBuildDebugValues(t *testing.T) {
	decisions := []Decision{
		{EventID: "e1", Title: "Istrening", StartUTC: "2026-01-13T17:00:00Z", MatchSource: MatchFields, Included: true},
		{EventID: "e2", Title: "Sosial kveld", Reason: "keyword not found"},
	}
	values := BuildDebugValues(decisions)

	if len(values) != 3 {
		t.Fatalf("rows = %d", len(values))
	}
	if values[1][4] != "yes" || values[1][5] != "included" {
		t.Errorf("included row = %v", values[1])
	}
	if values[2][4] != "no" || values[2][5] != "keyword not found" {
		t.Errorf("excluded row = %v", values[2])
	}
}
