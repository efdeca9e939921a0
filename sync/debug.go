package sync

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// Run diagnostics land in two places: the Debug tab in the spreadsheet, so
// the people reading the report can see why an event was or was not
// counted, and a sync_runs collection in the database for operational
// history.

var debugColumns = []string{
	"Event ID", "Event Title", "Start (UTC)", "Keyword Match", "Included", "Reason",
}

// BuildDebugValues renders one row per gate decision, included or not.
func BuildDebugValues(decisions []Decision) [][]interface{} {
	header := make([]interface{}, len(debugColumns))
	for i, col := range debugColumns {
		header[i] = col
	}
	values := [][]interface{}{header}
	for _, d := range decisions {
		reason := d.Reason
		if d.Included {
			reason = "included"
		}
		values = append(values, []interface{}{
			d.EventID, d.Title, d.StartUTC, d.MatchSource.String(), yesNo(d.Included), reason,
		})
	}
	return values
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

const runsCollection = "sync_runs"

// Retention window for run history.
const runsRetention = 30 * 24 * time.Hour

// ensureRunsCollection creates the history collection on first use.
func ensureRunsCollection(app core.App) error {
	if _, err := app.FindCollectionByNameOrId(runsCollection); err == nil {
		return nil
	}
	col := core.NewBaseCollection(runsCollection)
	col.Fields.Add(
		&core.TextField{Name: "service", Required: true},
		&core.TextField{Name: "status", Required: true},
		&core.TextField{Name: "error"},
		&core.JSONField{Name: "stats"},
		&core.JSONField{Name: "decisions"},
		&core.AutodateField{Name: "created", OnCreate: true},
	)
	if err := app.Save(col); err != nil {
		return fmt.Errorf("creating %s collection: %w", runsCollection, err)
	}
	return nil
}

// recordRun persists one run's outcome. Failures here are logged and
// swallowed; history must never fail a sync that otherwise succeeded.
func recordRun(app core.App, service string, stats Stats, decisions []Decision, runErr error) {
	if app == nil {
		return
	}
	if err := ensureRunsCollection(app); err != nil {
		slog.Warn("Run history unavailable", "error", err)
		return
	}
	col, err := app.FindCollectionByNameOrId(runsCollection)
	if err != nil {
		slog.Warn("Run history unavailable", "error", err)
		return
	}

	record := core.NewRecord(col)
	record.Set("service", service)
	if runErr != nil {
		record.Set("status", "failed")
		record.Set("error", runErr.Error())
	} else {
		record.Set("status", "completed")
	}
	record.Set("stats", stats)
	record.Set("decisions", decisions)

	if err := app.Save(record); err != nil {
		slog.Warn("Failed to record sync run", "error", err)
	}
}

// pruneOldRuns deletes history records older than the retention window.
func pruneOldRuns(app core.App) {
	if app == nil {
		return
	}
	if _, err := app.FindCollectionByNameOrId(runsCollection); err != nil {
		return
	}
	cutoff := time.Now().Add(-runsRetention).UTC().Format("2006-01-02 15:04:05.000Z")
	records, err := app.FindRecordsByFilter(
		runsCollection,
		"created < {:cutoff}",
		"-created",
		0,
		0,
		dbx.Params{"cutoff": cutoff},
	)
	if err != nil {
		slog.Warn("Failed to query old sync runs", "error", err)
		return
	}
	for _, record := range records {
		if err := app.Delete(record); err != nil {
			slog.Warn("Failed to prune sync run", "id", record.Id, "error", err)
		}
	}
	if len(records) > 0 {
		slog.Info("Pruned old sync runs", "count", len(records))
	}
}
