package patient_test

import (
	"errors"
	"testing"
	"time"

	domain "github.com/mohammadpnp/patient-import/internal/domain/patient"
)

func TestImportJobHappyPathTransitions(t *testing.T) {
	t.Parallel()

	job := &domain.ImportJob{ID: "job-1", Status: domain.StatusPending}
	started := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	done := started.Add(time.Minute)

	if err := job.Transition(domain.StatusValidating, started); err != nil {
		t.Fatalf("validating: %v", err)
	}
	if err := job.Transition(domain.StatusRunning, started); err != nil {
		t.Fatalf("running: %v", err)
	}
	if job.StartedAt == nil || !job.StartedAt.Equal(started) {
		t.Fatalf("expected startedAt stamped, got %v", job.StartedAt)
	}
	if err := job.Transition(domain.StatusSuccess, done); err != nil {
		t.Fatalf("success: %v", err)
	}
	if job.CompletedAt == nil || !job.CompletedAt.Equal(done) {
		t.Fatalf("expected completedAt stamped, got %v", job.CompletedAt)
	}
}

func TestImportJobTerminalStatesAreImmutable(t *testing.T) {
	t.Parallel()

	for _, terminal := range []domain.JobStatus{
		domain.StatusSuccess,
		domain.StatusPartialFailed,
		domain.StatusFailed,
		domain.StatusCancelled,
	} {
		job := &domain.ImportJob{Status: terminal}
		err := job.Transition(domain.StatusRunning, time.Now())
		if !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition from %s, got %v", terminal, err)
		}
	}
}

func TestImportJobCannotSkipValidation(t *testing.T) {
	t.Parallel()

	job := &domain.ImportJob{Status: domain.StatusPending}
	if err := job.Transition(domain.StatusRunning, time.Now()); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err := job.Transition(domain.StatusSuccess, time.Now()); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestImportJobProgressPercentage(t *testing.T) {
	t.Parallel()

	job := &domain.ImportJob{TotalRows: 250, SuccessCount: 100, FailedCount: 20, SkippedCount: 5}
	job.RecomputeProcessed()
	if job.ProcessedRows != 125 {
		t.Fatalf("expected processed=125, got %d", job.ProcessedRows)
	}
	if got := job.ProgressPercentage(); got != 50 {
		t.Fatalf("expected 50%%, got %d", got)
	}

	empty := &domain.ImportJob{}
	if got := empty.ProgressPercentage(); got != 0 {
		t.Fatalf("expected 0%% for empty job, got %d", got)
	}
}

func TestParseDuplicateStrategy(t *testing.T) {
	t.Parallel()

	cases := map[string]domain.DuplicateStrategy{
		"SKIP":   domain.StrategySkip,
		"update": domain.StrategyUpdate,
		" Fail ": domain.StrategyFail,
	}
	for in, want := range cases {
		got, err := domain.ParseDuplicateStrategy(in)
		if err != nil {
			t.Fatalf("ParseDuplicateStrategy(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseDuplicateStrategy(%q) = %s, want %s", in, got, want)
		}
	}

	if _, err := domain.ParseDuplicateStrategy("MERGE"); !errors.Is(err, domain.ErrInvalidDuplicateStrategy) {
		t.Fatalf("expected ErrInvalidDuplicateStrategy, got %v", err)
	}
}
