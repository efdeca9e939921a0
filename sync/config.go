// Package sync reconciles Spond event attendance against a member roster
// and maintains the resulting report in Google Sheets.
package sync

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// MatchMode controls how the exact-title gate compares an event title
// against the configured pattern.
type MatchMode int

const (
	MatchExact MatchMode = iota
	MatchExactFold
	MatchContains
	MatchPrefix
)

// ParseMatchMode parses a match mode name from configuration.
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return MatchExact, nil
	case "iexact", "case-insensitive", "fold":
		return MatchExactFold, nil
	case "contains":
		return MatchContains, nil
	case "starts-with", "prefix":
		return MatchPrefix, nil
	default:
		return MatchExact, fmt.Errorf("unknown title match mode %q", s)
	}
}

// Default sheet tab names.
const (
	defaultAttendanceTab = "Attendance"
	defaultSummaryTab    = "Summary"
	defaultDebugTab      = "Debug"

	defaultTimezone = "Europe/Oslo"
)

// Config is the immutable configuration record for one reconciliation run.
// The engine itself holds no global state; everything it needs arrives here.
type Config struct {
	// GroupName is the display name of the Spond group to sync.
	// Resolution is case-insensitive; no match aborts the run.
	GroupName string

	// CutoffMin is the inclusive lower bound of the event window.
	// The upper bound is always "now".
	CutoffMin time.Time

	// Keyword, when set, requires a case-insensitive whole-word match in
	// the event's text fields, falling back to the export header text.
	Keyword string

	// TitlePattern, when set, gates events on their title under TitleMatch.
	TitlePattern string
	TitleMatch   MatchMode

	// Roster, when non-empty, is the exhaustive ordered list of member
	// display names. Names that do not resolve to it are excluded.
	Roster []string

	// Timezone is used for local-time display in event column headers.
	Timezone *time.Location

	AttendanceTab string
	SummaryTab    string
	DebugTab      string
}

// LoadConfig builds a Config from environment variables.
//
// SPOND_GROUP_NAME is required. SYNC_CUTOFF accepts "2006-01-02" or RFC 3339
// and defaults to the start of the current season (August 1). SYNC_ROSTER is
// a comma-separated list of canonical member names.
func LoadConfig() (Config, error) {
	groupName := strings.TrimSpace(os.Getenv("SPOND_GROUP_NAME"))
	if groupName == "" {
		return Config{}, fmt.Errorf("SPOND_GROUP_NAME not set in environment")
	}

	tzName := strings.TrimSpace(os.Getenv("TIMEZONE"))
	if tzName == "" {
		tzName = defaultTimezone
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return Config{}, fmt.Errorf("loading timezone %q: %w", tzName, err)
	}

	cutoff, err := parseCutoff(os.Getenv("SYNC_CUTOFF"), loc, time.Now())
	if err != nil {
		return Config{}, err
	}

	titleMatch, err := ParseMatchMode(os.Getenv("SYNC_TITLE_MATCH"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		GroupName:     groupName,
		CutoffMin:     cutoff,
		Keyword:       strings.TrimSpace(os.Getenv("SYNC_KEYWORD")),
		TitlePattern:  strings.TrimSpace(os.Getenv("SYNC_TITLE_PATTERN")),
		TitleMatch:    titleMatch,
		Roster:        splitRoster(os.Getenv("SYNC_ROSTER")),
		Timezone:      loc,
		AttendanceTab: defaultAttendanceTab,
		SummaryTab:    defaultSummaryTab,
		DebugTab:      defaultDebugTab,
	}

	if tab := strings.TrimSpace(os.Getenv("SYNC_ATTENDANCE_TAB")); tab != "" {
		cfg.AttendanceTab = tab
	}
	if tab := strings.TrimSpace(os.Getenv("SYNC_SUMMARY_TAB")); tab != "" {
		cfg.SummaryTab = tab
	}
	if tab := strings.TrimSpace(os.Getenv("SYNC_DEBUG_TAB")); tab != "" {
		cfg.DebugTab = tab
	}

	return cfg, nil
}

// parseCutoff parses the window lower bound, defaulting to the most recent
// August 1 in the configured timezone (seasons run August to spring).
func parseCutoff(raw string, loc *time.Location, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		year := now.In(loc).Year()
		seasonStart := time.Date(year, time.August, 1, 0, 0, 0, 0, loc)
		if now.Before(seasonStart) {
			seasonStart = time.Date(year-1, time.August, 1, 0, 0, 0, 0, loc)
		}
		return seasonStart.UTC(), nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid SYNC_CUTOFF %q: want 2006-01-02 or RFC 3339", raw)
}

// splitRoster splits a comma-separated roster list, dropping empty entries.
func splitRoster(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var names []string
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}
