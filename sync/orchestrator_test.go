package sync

import (
	"context"
	"errors"
	"testing"
)

type stubService struct {
	name  string
	err   error
	runs  int
	stats Stats
}

func (s *stubService) Sync(ctx context.Context) error {
	s.runs++
	return s.err
}

func (s *stubService) Name() string    { return s.name }
func (s *stubService) GetStats() Stats { return s.stats }

func TestOrchestratorRunSync(t *testing.T) {
	orch := NewOrchestrator()
	svc := &stubService{name: "attendance", stats: Stats{Events: 4}}
	orch.RegisterService(svc)

	if err := orch.RunSync("attendance"); err != nil {
		t.Fatal(err)
	}
	if svc.runs != 1 {
		t.Errorf("runs = %d", svc.runs)
	}

	statuses := orch.GetStatus()
	if len(statuses) != 1 {
		t.Fatalf("statuses = %+v", statuses)
	}
	st := statuses[0]
	if !st.LastSuccess || st.Running || st.LastStats == nil || st.LastStats.Events != 4 {
		t.Errorf("status = %+v", st)
	}
}

func TestOrchestratorRecordsFailure(t *testing.T) {
	orch := NewOrchestrator()
	orch.RegisterService(&stubService{name: "attendance", err: errors.New("boom")})

	if err := orch.RunSync("attendance"); err != nil {
		t.Fatal(err)
	}
	st := orch.GetStatus()[0]
	if st.LastSuccess || st.LastError != "boom" {
		t.Errorf("status = %+v", st)
	}
}

func TestOrchestratorUnknownService(t *testing.T) {
	orch := NewOrchestrator()
	if err := orch.RunSync("nope"); err == nil {
		t.Error("expected error for unknown service")
	}
	if err := orch.RunSingleSync("nope"); err == nil {
		t.Error("expected error for unknown service")
	}
}

func TestOrchestratorPanicRecovery(t *testing.T) {
	orch := NewOrchestrator()
	orch.RegisterService(panicService{})

	if err := orch.RunSync("panicky"); err != nil {
		t.Fatal(err)
	}
	st := orch.GetStatus()[0]
	if st.LastSuccess || st.Running {
		t.Errorf("status after panic = %+v", st)
	}
	if orch.IsRunning("panicky") {
		t.Error("running flag stuck after panic")
	}
}

type panicService struct{}

func (panicService) Sync(ctx context.Context) error { panic("kaboom") }
func (panicService) Name() string                   { return "panicky" }
func (panicService) GetStats() Stats                { return Stats{} }
