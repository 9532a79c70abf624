package pipeline

import (
	"context"
	"sync"
	"time"
)

// Stage is one step of the panel build. Stages communicate through the
// shared RunState: each reads what the previous stages produced and writes
// what it adds.
type Stage interface {
	// ID is the stable machine identifier, used in logs and metrics.
	ID() string

	// Name is the human-readable stage name for run summaries.
	Name() string

	// Run executes the stage against the run state.
	Run(ctx context.Context, state *RunState) error
}

// StageStatus tracks where a stage is in its lifecycle.
type StageStatus string

const (
	StageStatusPending   StageStatus = "pending"
	StageStatusActive    StageStatus = "active"
	StageStatusCompleted StageStatus = "completed"
	StageStatusFailed    StageStatus = "failed"
	StageStatusSkipped   StageStatus = "skipped"
)

// StageState is the runtime record of one stage execution.
type StageState struct {
	mu        sync.RWMutex
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Status    StageStatus `json:"status"`
	StartTime *time.Time  `json:"start_time,omitempty"`
	EndTime   *time.Time  `json:"end_time,omitempty"`
	Message   string      `json:"message,omitempty"`
	Err       error       `json:"-"`
}

func NewStageState(id, name string) *StageState {
	return &StageState{ID: id, Name: name, Status: StageStatusPending}
}

func (s *StageState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.StartTime = &now
	s.Status = StageStatusActive
}

func (s *StageState) Complete(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = StageStatusCompleted
	s.Message = message
}

func (s *StageState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = StageStatusFailed
	s.Err = err
	if err != nil {
		s.Message = err.Error()
	}
}

// Duration reports how long the stage ran, or has been running.
func (s *StageState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}
