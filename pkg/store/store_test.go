package store

import (
	"testing"

	"github.com/lemonberrylabs/wdl-engine/pkg/types"
)

func TestCreateRunStartsActive(t *testing.T) {
	s := New()
	run := s.CreateRun("run-1")
	if run.State != RunActive || run.RunID != "run-1" {
		t.Fatalf("unexpected run: %+v", run)
	}
}

func TestCompleteRunRecordsOutputs(t *testing.T) {
	s := New()
	s.CreateRun("run-1")

	outputs := map[string]interface{}{"w.greeting": "hi"}
	if err := s.CompleteRun("run-1", outputs, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	run, err := s.GetRun("run-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.State != RunSucceeded || run.Outputs["w.greeting"] != "hi" {
		t.Fatalf("unexpected run: %+v", run)
	}
}

func TestFailRunUnpacksWorkflowErrorKind(t *testing.T) {
	s := New()
	s.CreateRun("run-1")

	if err := s.FailRun("run-1", types.NewMissingInputError("who")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	run, err := s.GetRun("run-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.State != RunFailed || run.Error == nil || run.Error.Kind != string(types.KindMissingInput) {
		t.Fatalf("unexpected run: %+v", run)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := New()
	if _, err := s.GetRun("missing"); err == nil {
		t.Fatal("expected an error for an unknown run_id")
	}
}

func TestListRunsReturnsAllRuns(t *testing.T) {
	s := New()
	s.CreateRun("a")
	s.CreateRun("b")
	if len(s.ListRuns()) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(s.ListRuns()))
	}
}
