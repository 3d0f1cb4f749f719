package patient

import (
	"fmt"
	"strings"
	"time"
)

type JobStatus string

const (
	StatusPending       JobStatus = "PENDING"
	StatusValidating    JobStatus = "VALIDATING"
	StatusRunning       JobStatus = "RUNNING"
	StatusSuccess       JobStatus = "SUCCESS"
	StatusPartialFailed JobStatus = "PARTIAL_FAILED"
	StatusFailed        JobStatus = "FAILED"
	StatusCancelled     JobStatus = "CANCELLED"
)

var allowedTransitions = map[JobStatus][]JobStatus{
	StatusPending:    {StatusValidating, StatusFailed, StatusCancelled},
	StatusValidating: {StatusRunning, StatusFailed, StatusCancelled},
	StatusRunning:    {StatusSuccess, StatusPartialFailed, StatusFailed, StatusCancelled},
}

func (s JobStatus) Terminal() bool {
	switch s {
	case StatusSuccess, StatusPartialFailed, StatusFailed, StatusCancelled:
		return true
	case StatusPending, StatusValidating, StatusRunning:
		return false
	}
	return false
}

func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type DuplicateStrategy string

const (
	StrategySkip   DuplicateStrategy = "SKIP"
	StrategyUpdate DuplicateStrategy = "UPDATE"
	StrategyFail   DuplicateStrategy = "FAIL"
)

func ParseDuplicateStrategy(raw string) (DuplicateStrategy, error) {
	switch strategy := DuplicateStrategy(strings.ToUpper(strings.TrimSpace(raw))); strategy {
	case StrategySkip, StrategyUpdate, StrategyFail:
		return strategy, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDuplicateStrategy, raw)
}

// ImportJob is one pipeline run over one source file. It is the only state a
// poller observes, so every status change goes through Transition.
type ImportJob struct {
	ID                string
	SourceFileName    string
	SourcePath        string
	DuplicateStrategy DuplicateStrategy
	Status            JobStatus
	TotalRows         int64
	ProcessedRows     int64
	SuccessCount      int64
	FailedCount       int64
	SkippedCount      int64
	ErrorReportPath   string
	Message           string
	CancelRequested   bool
	CreatedAt         time.Time
	StartedAt         *time.Time
	CompletedAt       *time.Time
}

// Transition moves the job to next, stamping StartedAt on entry to RUNNING and
// CompletedAt on every terminal state.
func (j *ImportJob) Transition(next JobStatus, at time.Time) error {
	if !j.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, next)
	}
	j.Status = next
	if next == StatusRunning {
		j.StartedAt = &at
	}
	if next.Terminal() {
		j.CompletedAt = &at
	}
	return nil
}

func (j *ImportJob) RecomputeProcessed() {
	j.ProcessedRows = j.SuccessCount + j.FailedCount + j.SkippedCount
}

func (j *ImportJob) ProgressPercentage() int {
	if j.TotalRows <= 0 {
		return 0
	}
	pct := int(j.ProcessedRows * 100 / j.TotalRows)
	if pct > 100 {
		return 100
	}
	return pct
}

func (j *ImportJob) HasErrorReport() bool {
	return j.ErrorReportPath != ""
}
