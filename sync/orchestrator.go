package sync

import (
	"context"
	"fmt"
	"log/slog"
	stdsync "sync"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"github.com/ihks/teamsync/google"
	"github.com/ihks/teamsync/spond"
)

// Service is one runnable sync job.
type Service interface {
	Sync(ctx context.Context) error
	Name() string
	GetStats() Stats
}

// Stats summarizes one run.
type Stats struct {
	Events      int           `json:"events"`
	RowsWritten int           `json:"rows_written"`
	Skipped     int           `json:"skipped"`
	Errors      int           `json:"errors"`
	Duration    time.Duration `json:"duration"`
}

// SyncStatus is the externally visible state of one service.
type SyncStatus struct {
	Name        string     `json:"name"`
	Running     bool       `json:"running"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	LastStats   *Stats     `json:"last_stats,omitempty"`
	LastSuccess bool       `json:"last_success"`
}

// Orchestrator owns the registered services and serializes their runs.
type Orchestrator struct {
	mu       stdsync.Mutex
	services map[string]Service
	running  map[string]bool
	last     map[string]SyncStatus
}

func NewOrchestrator() *Orchestrator {
	return &Orchestrator{
		services: make(map[string]Service),
		running:  make(map[string]bool),
		last:     make(map[string]SyncStatus),
	}
}

func (o *Orchestrator) RegisterService(s Service) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.services[s.Name()] = s
}

// RunSingleSync starts the named service in the background. Returns an
// error when the service is unknown or already running.
func (o *Orchestrator) RunSingleSync(name string) error {
	o.mu.Lock()
	svc, ok := o.services[name]
	if !ok {
		o.mu.Unlock()
		return fmt.Errorf("unknown sync service %q", name)
	}
	if o.running[name] {
		o.mu.Unlock()
		return fmt.Errorf("sync %q already running", name)
	}
	o.running[name] = true
	o.mu.Unlock()

	go o.runAndRecord(svc)
	return nil
}

// RunSync runs the named service synchronously, for the scheduler.
func (o *Orchestrator) RunSync(name string) error {
	o.mu.Lock()
	svc, ok := o.services[name]
	if !ok {
		o.mu.Unlock()
		return fmt.Errorf("unknown sync service %q", name)
	}
	if o.running[name] {
		o.mu.Unlock()
		slog.Info("Sync already running, skipping scheduled run", "service", name)
		return nil
	}
	o.running[name] = true
	o.mu.Unlock()

	o.runAndRecord(svc)
	return nil
}

func (o *Orchestrator) runAndRecord(svc Service) {
	name := svc.Name()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Sync panicked", "service", name, "panic", r)
			o.record(name, fmt.Errorf("panic: %v", r), nil)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	err := svc.Sync(ctx)
	stats := svc.GetStats()
	if err != nil {
		slog.Error("Sync failed", "service", name, "error", err)
	}
	o.record(name, err, &stats)
}

func (o *Orchestrator) record(name string, err error, stats *Stats) {
	now := time.Now()
	status := SyncStatus{
		Name:        name,
		LastRun:     &now,
		LastStats:   stats,
		LastSuccess: err == nil,
	}
	if err != nil {
		status.LastError = err.Error()
	}
	o.mu.Lock()
	o.running[name] = false
	o.last[name] = status
	o.mu.Unlock()
}

// GetStatus reports all services, running state merged in.
func (o *Orchestrator) GetStatus() []SyncStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	statuses := make([]SyncStatus, 0, len(o.services))
	for name := range o.services {
		status, ok := o.last[name]
		if !ok {
			status = SyncStatus{Name: name}
		}
		status.Running = o.running[name]
		statuses = append(statuses, status)
	}
	return statuses
}

func (o *Orchestrator) IsRunning(name string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running[name]
}

var (
	globalOrchestrator *Orchestrator
	initOnce           stdsync.Once
)

// InitializeSyncService builds the clients from the environment and
// registers the attendance sync. Called once from the serve hook.
func InitializeSyncService(app core.App) error {
	var initErr error
	initOnce.Do(func() {
		cfg, err := LoadConfig()
		if err != nil {
			initErr = fmt.Errorf("loading sync config: %w", err)
			return
		}

		client, err := spond.NewClientFromEnv()
		if err != nil {
			initErr = fmt.Errorf("creating Spond client: %w", err)
			return
		}

		if !google.IsEnabled() {
			initErr = fmt.Errorf("google sheets integration is disabled, nothing to sync to")
			return
		}
		sheetsService, err := google.NewSheetsClient(context.Background())
		if err != nil {
			initErr = fmt.Errorf("creating Sheets client: %w", err)
			return
		}
		spreadsheetID := google.GetSpreadsheetID()
		if spreadsheetID == "" {
			initErr = fmt.Errorf("GOOGLE_SHEETS_SPREADSHEET_ID not set in environment")
			return
		}

		orch := NewOrchestrator()
		orch.RegisterService(NewAttendanceSync(app, client, NewRealSheetsWriter(sheetsService), spreadsheetID, cfg))
		globalOrchestrator = orch

		slog.Info("Sync service initialized",
			"group", cfg.GroupName,
			"roster_size", len(cfg.Roster))
	})
	return initErr
}

// GetOrchestrator returns the process-wide orchestrator, nil before
// initialization.
func GetOrchestrator() *Orchestrator {
	return globalOrchestrator
}
