// Package store provides in-memory storage for run history (§12's
// supplemented run-history feature): the HTTP API records each document
// execution here as it starts and completes, so a caller can later look
// one up by run_id independently of the request/response cycle that
// started it.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lemonberrylabs/wdl-engine/pkg/task"
	"github.com/lemonberrylabs/wdl-engine/pkg/types"
)

// RunState tracks a run's lifecycle.
type RunState string

const (
	RunActive    RunState = "ACTIVE"
	RunSucceeded RunState = "SUCCEEDED"
	RunFailed    RunState = "FAILED"
)

// RunError captures a failed run's terminal error, unpacking a
// *types.WorkflowError's kind when the failure came from the core rather
// than from something outside it (I/O, panic recovery, etc).
type RunError struct {
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// Run is a stored record of one document execution (§4.8's dispatch,
// whether it resolved to a workflow or a sole task).
type Run struct {
	RunID       string                    `json:"runId"`
	State       RunState                  `json:"state"`
	Outputs     map[string]interface{}    `json:"outputs,omitempty"`
	TaskResults map[string][]*task.Result `json:"taskResults,omitempty"`
	Error       *RunError                 `json:"error,omitempty"`
	StartTime   time.Time                 `json:"startTime"`
	EndTime     time.Time                 `json:"endTime,omitempty"`
}

// Store is a thread-safe in-memory run-history map.
type Store struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// New creates a new empty store.
func New() *Store {
	return &Store{runs: make(map[string]*Run)}
}

// CreateRun records the start of a run under runID, which the caller
// supplies up front (the API handler takes options.run_id or mints one
// with uuid before calling workflow.Execute, so the API can return it
// immediately without waiting for completion).
func (s *Store) CreateRun(runID string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()

	run := &Run{RunID: runID, State: RunActive, StartTime: time.Now()}
	s.runs[runID] = run
	return run
}

// GetRun retrieves a run by its run_id.
func (s *Store) GetRun(runID string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run '%s' not found", runID)
	}
	return run, nil
}

// ListRuns returns every recorded run, most recently started first.
func (s *Store) ListRuns() []*Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Run, 0, len(s.runs))
	for _, run := range s.runs {
		result = append(result, run)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartTime.After(result[j].StartTime)
	})
	return result
}

// CompleteRun marks a run succeeded and records its encoded outputs and
// per-call task results.
func (s *Store) CompleteRun(runID string, outputs map[string]interface{}, taskResults map[string][]*task.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("run '%s' not found", runID)
	}

	run.State = RunSucceeded
	run.EndTime = time.Now()
	run.Outputs = outputs
	run.TaskResults = taskResults
	return nil
}

// FailRun marks a run failed, unpacking a *types.WorkflowError's Kind
// when the failure originated in the core.
func (s *Store) FailRun(runID string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("run '%s' not found", runID)
	}

	run.State = RunFailed
	run.EndTime = time.Now()
	run.Error = &RunError{Message: err.Error()}
	if we, ok := err.(*types.WorkflowError); ok {
		run.Error.Kind = string(we.Kind)
	}
	return nil
}
