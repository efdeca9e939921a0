package sync

import (
	"log/slog"
	stdsync "sync"

	"github.com/pocketbase/pocketbase/core"
	"github.com/robfig/cron/v3"
)

// Schedules. Attendance refreshes hourly so overrides and new responses
// converge quickly; history pruning runs once a night.
const (
	attendanceSchedule = "0 * * * *"
	pruneSchedule      = "30 3 * * *"
)

var (
	globalScheduler *cron.Cron
	schedulerOnce   stdsync.Once
)

// StartSyncScheduler wires the cron jobs. Safe to call more than once; only
// the first call starts anything.
func StartSyncScheduler(app core.App) error {
	var startErr error
	schedulerOnce.Do(func() {
		c := cron.New()

		if _, err := c.AddFunc(attendanceSchedule, func() {
			orch := GetOrchestrator()
			if orch == nil {
				slog.Warn("Scheduled sync skipped, orchestrator not initialized")
				return
			}
			if err := orch.RunSync("attendance"); err != nil {
				slog.Error("Scheduled attendance sync failed to start", "error", err)
			}
		}); err != nil {
			startErr = err
			return
		}

		if _, err := c.AddFunc(pruneSchedule, func() {
			pruneOldRuns(app)
		}); err != nil {
			startErr = err
			return
		}

		c.Start()
		globalScheduler = c
		slog.Info("Sync scheduler started",
			"attendance", attendanceSchedule,
			"prune", pruneSchedule)
	})
	return startErr
}

// StopSyncScheduler stops the cron loop, letting running jobs finish.
func StopSyncScheduler() {
	if globalScheduler != nil {
		globalScheduler.Stop()
	}
}
