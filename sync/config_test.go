package sync

import (
	"testing"
	"time"
)

func TestParseCutoff(t *testing.T) {
	oslo, _ := time.LoadLocation("Europe/Oslo")

	got, err := parseCutoff("2025-08-01", oslo, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2025, 8, 1, 0, 0, 0, 0, oslo).UTC()
	if !got.Equal(want) {
		t.Errorf("date form = %v, want %v", got, want)
	}

	got, err = parseCutoff("2025-08-01T12:00:00Z", oslo, time.Now())
	if err != nil || !got.Equal(time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("rfc3339 form = %v, err %v", got, err)
	}

	if _, err := parseCutoff("08/01/2025", oslo, time.Now()); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestParseCutoffDefaultSeasonStart(t *testing.T) {
	oslo, _ := time.LoadLocation("Europe/Oslo")

	tests := []struct {
		now  time.Time
		want time.Time
	}{
		{time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC), time.Date(2025, 8, 1, 0, 0, 0, 0, oslo)},
		{time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC), time.Date(2025, 8, 1, 0, 0, 0, 0, oslo)},
	}
	for _, tt := range tests {
		got, err := parseCutoff("", oslo, tt.now)
		if err != nil {
			t.Fatal(err)
		}
		if !got.Equal(tt.want.UTC()) {
			t.Errorf("default cutoff at %v = %v, want %v", tt.now, got, tt.want.UTC())
		}
	}
}

func TestSplitRoster(t *testing.T) {
	got := splitRoster(" Alice Smith , Bob Jensen ,, ")
	if len(got) != 2 || got[0] != "Alice Smith" || got[1] != "Bob Jensen" {
		t.Errorf("splitRoster = %v", got)
	}
	if splitRoster("  ") != nil {
		t.Error("blank roster must be nil")
	}
}

func TestParseMatchMode(t *testing.T) {
	tests := []struct {
		in   string
		want MatchMode
		ok   bool
	}{
		{"", MatchExact, true},
		{"exact", MatchExact, true},
		{"iexact", MatchExactFold, true},
		{"Contains", MatchContains, true},
		{"starts-with", MatchPrefix, true},
		{"regex", MatchExact, false},
	}
	for _, tt := range tests {
		got, err := ParseMatchMode(tt.in)
		if (err == nil) != tt.ok || (tt.ok && got != tt.want) {
			t.Errorf("ParseMatchMode(%q) = (%v, %v)", tt.in, got, err)
		}
	}
}

func TestLoadConfigRequiresGroup(t *testing.T) {
	t.Setenv("SPOND_GROUP_NAME", "")
	if _, err := LoadConfig(); err == nil {
		t.Error("expected error without a group name")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SPOND_GROUP_NAME", "IHKS G2008b")
	t.Setenv("SYNC_CUTOFF", "2025-08-01")
	t.Setenv("SYNC_KEYWORD", "istrening")
	t.Setenv("SYNC_ROSTER", "Alice Smith,Bob Jensen")
	t.Setenv("TIMEZONE", "")
	t.Setenv("SYNC_TITLE_MATCH", "")
	t.Setenv("SYNC_ATTENDANCE_TAB", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AttendanceTab != "Attendance" || cfg.SummaryTab != "Summary" || cfg.DebugTab != "Debug" {
		t.Errorf("tabs = %q %q %q", cfg.AttendanceTab, cfg.SummaryTab, cfg.DebugTab)
	}
	if cfg.Timezone.String() != "Europe/Oslo" {
		t.Errorf("timezone = %v", cfg.Timezone)
	}
	if len(cfg.Roster) != 2 {
		t.Errorf("roster = %v", cfg.Roster)
	}
}
