package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pocketbase/pocketbase/core"
)

// ErrGroupNotFound aborts a run before anything is written: syncing the
// wrong group's attendance into the sheet would be worse than not syncing.
var ErrGroupNotFound = errors.New("group not found")

// SpondAPI is the slice of the Spond client the sync needs, kept narrow so
// tests can fake it.
type SpondAPI interface {
	GetGroups(ctx context.Context) ([]map[string]interface{}, error)
	GetEvents(ctx context.Context, groupID string, minStart, maxStart time.Time) ([]map[string]interface{}, error)
	GetEvent(ctx context.Context, eventID string) (map[string]interface{}, error)
	GetEventAttendanceXLSX(ctx context.Context, eventID string) ([]byte, error)
}

// AttendanceSync reconciles event attendance into the spreadsheet. One Sync
// call is one full pipeline run: list, gate, extract, merge, write.
type AttendanceSync struct {
	app           core.App
	client        SpondAPI
	writer        SheetsWriter
	spreadsheetID string
	cfg           Config
	selector      *Selector
	resolver      *Resolver

	Stats          Stats
	SyncSuccessful bool

	now func() time.Time
}

// NewAttendanceSync wires the pipeline. app may be nil, which disables run
// history persistence.
func NewAttendanceSync(app core.App, client SpondAPI, writer SheetsWriter, spreadsheetID string, cfg Config) *AttendanceSync {
	return &AttendanceSync{
		app:           app,
		client:        client,
		writer:        writer,
		spreadsheetID: spreadsheetID,
		cfg:           cfg,
		selector:      NewSelector(cfg),
		resolver:      NewResolver(cfg.Roster),
		now:           time.Now,
	}
}

func (s *AttendanceSync) Name() string {
	return "attendance"
}

func (s *AttendanceSync) GetStats() Stats {
	return s.Stats
}

// Sync runs the full reconciliation. Errors before the write phase leave
// the spreadsheet untouched; per-event failures are logged, counted and
// skipped so one broken event does not lose the rest of the season.
func (s *AttendanceSync) Sync(ctx context.Context) error {
	start := s.now()
	s.Stats = Stats{}
	s.SyncSuccessful = false

	slog.Info("Starting attendance sync",
		"group", s.cfg.GroupName,
		"cutoff", s.cfg.CutoffMin.Format(time.RFC3339),
		"keyword", s.cfg.Keyword)

	groupID, err := s.resolveGroup(ctx)
	if err != nil {
		s.finish(start, nil, err)
		return err
	}

	listings, err := s.client.GetEvents(ctx, groupID, s.cfg.CutoffMin, s.now().UTC())
	if err != nil {
		err = fmt.Errorf("listing events: %w", err)
		s.finish(start, nil, err)
		return err
	}
	slog.Info("Fetched candidate events", "count", len(listings))

	events, factsByEvent, decisions := s.collectFacts(ctx, listings)
	SortEvents(events)

	table := BuildTable(events, factsByEvent, s.resolver)
	s.Stats.Events = len(events)

	if err := s.writeReport(ctx, table, decisions); err != nil {
		s.finish(start, decisions, err)
		return err
	}

	s.SyncSuccessful = true
	s.finish(start, decisions, nil)
	slog.Info("Attendance sync complete",
		"events", s.Stats.Events,
		"members", len(table.Members),
		"rows", s.Stats.RowsWritten,
		"skipped", s.Stats.Skipped,
		"errors", s.Stats.Errors,
		"duration", s.Stats.Duration.Round(time.Millisecond))
	return nil
}

// resolveGroup finds the configured group by display name, case-insensitive.
func (s *AttendanceSync) resolveGroup(ctx context.Context) (string, error) {
	groups, err := s.client.GetGroups(ctx)
	if err != nil {
		return "", fmt.Errorf("listing groups: %w", err)
	}
	want := caseFolder.String(s.cfg.GroupName)
	for _, g := range groups {
		name := pickString(g, "name", "groupName", "title")
		if caseFolder.String(name) == want {
			id := pickString(g, "id", "groupId", "uid")
			if id == "" {
				return "", fmt.Errorf("group %q has no id field", name)
			}
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrGroupNotFound, s.cfg.GroupName)
}

// collectFacts fetches the detail and export for each candidate, gates it,
// and extracts facts from the included ones.
func (s *AttendanceSync) collectFacts(ctx context.Context, listings []map[string]interface{}) ([]Event, map[string][]Fact, []Decision) {
	var events []Event
	factsByEvent := make(map[string][]Fact)
	var decisions []Decision

	for _, listing := range listings {
		eventID := pickString(listing, "id", "eventId", "uid")
		if eventID == "" {
			s.Stats.Skipped++
			continue
		}

		detail, err := s.client.GetEvent(ctx, eventID)
		if err != nil {
			slog.Warn("Skipping event, detail fetch failed", "event", eventID, "error", err)
			s.Stats.Errors++
			decisions = append(decisions, Decision{
				EventID: eventID,
				Title:   pickString(listing, "title", "name", "eventName"),
				Reason:  "detail fetch failed",
			})
			continue
		}

		// The export is fetched once and shared between the keyword gate
		// fallback and fact extraction.
		export := s.fetchExport(ctx, eventID)

		ev, dec := s.selector.Evaluate(eventID, detail, export)
		if dec.Included {
			// An event every source is silent about contributes no rows;
			// it would only pad everyone's missed count.
			if facts := ExtractFacts(ev, detail, export); len(facts) > 0 {
				events = append(events, ev)
				factsByEvent[ev.ID] = facts
			} else {
				dec.Included = false
				dec.Reason = "no facts"
				s.Stats.Skipped++
			}
		} else {
			s.Stats.Skipped++
		}
		decisions = append(decisions, dec)
	}

	return events, factsByEvent, decisions
}

// fetchExport downloads and parses the attendance workbook. Any failure
// degrades to nil; the structured payload still carries the event.
func (s *AttendanceSync) fetchExport(ctx context.Context, eventID string) *Export {
	data, err := s.client.GetEventAttendanceXLSX(ctx, eventID)
	if err != nil {
		slog.Warn("Export fetch failed, continuing without it", "event", eventID, "error", err)
		s.Stats.Errors++
		return nil
	}
	export, err := ParseExport(data)
	if err != nil {
		slog.Warn("Export parse failed, continuing without it", "event", eventID, "error", err)
		s.Stats.Errors++
		return nil
	}
	return export
}

// writeReport updates the three tabs. The attendance tab goes through the
// override-preserving merge; summary and debug are rebuilt wholesale.
func (s *AttendanceSync) writeReport(ctx context.Context, table *Table, decisions []Decision) error {
	if err := s.writeAttendanceTab(ctx, table); err != nil {
		return err
	}
	if err := s.writeSummaryTab(ctx, table); err != nil {
		return err
	}
	if err := s.writeDebugTab(ctx, decisions); err != nil {
		return err
	}
	return nil
}

func (s *AttendanceSync) writeAttendanceTab(ctx context.Context, table *Table) error {
	tab := s.cfg.AttendanceTab
	if err := s.writer.EnsureSheet(ctx, s.spreadsheetID, tab); err != nil {
		return err
	}

	// A failed read here must abort the run: rewriting the tab without the
	// previous rows would erase every human override.
	prev, err := s.writer.ReadSheet(ctx, s.spreadsheetID, tab)
	if err != nil {
		return fmt.Errorf("reading previous attendance rows: %w", err)
	}
	previous := ParseSheetRows(prev)

	rows := MergeOverrides(BuildSheetRows(table), previous)
	SortSheetRows(rows)

	if err := s.writer.ClearSheet(ctx, s.spreadsheetID, tab); err != nil {
		return err
	}
	if err := s.writer.WriteToSheet(ctx, s.spreadsheetID, tab, RowsToValues(rows)); err != nil {
		return err
	}
	s.Stats.RowsWritten = len(rows)

	// Status column background, one call per contiguous run.
	statuses := make([]Status, len(rows))
	for i, r := range rows {
		statuses[i] = NormalizeStatus(r.Status)
	}
	const statusCol = 4
	for _, run := range statusColorRuns(statuses, 1) {
		if err := s.writer.SetBackground(ctx, s.spreadsheetID, tab, run.startRow, run.endRow, statusCol, statusCol+1, run.color); err != nil {
			slog.Warn("Failed to color attendance rows", "error", err)
			s.Stats.Errors++
			break
		}
	}
	return nil
}

func (s *AttendanceSync) writeSummaryTab(ctx context.Context, table *Table) error {
	tab := s.cfg.SummaryTab
	if err := s.writer.EnsureSheet(ctx, s.spreadsheetID, tab); err != nil {
		return err
	}
	if err := s.writer.ClearSheet(ctx, s.spreadsheetID, tab); err != nil {
		return err
	}
	if err := s.writer.WriteToSheet(ctx, s.spreadsheetID, tab, BuildSummaryValues(table, s.cfg.Timezone)); err != nil {
		return err
	}

	for col, statuses := range transposeStatuses(summaryStatuses(table)) {
		for _, run := range statusColorRuns(statuses, 1) {
			eventCol := int64(col) + 1 // column 0 is the member name
			if err := s.writer.SetBackground(ctx, s.spreadsheetID, tab, run.startRow, run.endRow, eventCol, eventCol+1, run.color); err != nil {
				slog.Warn("Failed to color summary cells", "error", err)
				s.Stats.Errors++
				return nil
			}
		}
	}
	return nil
}

// transposeStatuses flips the member-major grid to column-major so each
// event column colors as vertical runs.
func transposeStatuses(grid [][]Status) [][]Status {
	if len(grid) == 0 {
		return nil
	}
	cols := make([][]Status, len(grid[0]))
	for c := range cols {
		col := make([]Status, len(grid))
		for r := range grid {
			col[r] = grid[r][c]
		}
		cols[c] = col
	}
	return cols
}

func (s *AttendanceSync) writeDebugTab(ctx context.Context, decisions []Decision) error {
	tab := s.cfg.DebugTab
	if err := s.writer.EnsureSheet(ctx, s.spreadsheetID, tab); err != nil {
		return err
	}
	if err := s.writer.ClearSheet(ctx, s.spreadsheetID, tab); err != nil {
		return err
	}
	return s.writer.WriteToSheet(ctx, s.spreadsheetID, tab, BuildDebugValues(decisions))
}

func (s *AttendanceSync) finish(start time.Time, decisions []Decision, runErr error) {
	s.Stats.Duration = s.now().Sub(start)
	recordRun(s.app, s.Name(), s.Stats, decisions, runErr)
}
