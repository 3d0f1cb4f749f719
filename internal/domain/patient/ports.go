package patient

import (
	"context"
	"time"
)

type PatientStore interface {
	// FindByNationalID returns ErrPatientNotFound when no patient carries the key.
	FindByNationalID(ctx context.Context, nationalID string) (*Patient, error)
	// BulkUpsert inserts patients without an ID and updates the rest in one call.
	// A natural-key conflict fails the whole call.
	BulkUpsert(ctx context.Context, patients []Patient) error
}

type PatientQueryRepository interface {
	GetByID(ctx context.Context, patientID string) (*Patient, error)
}

type ImportJobRepository interface {
	Create(ctx context.Context, job *ImportJob) error
	// Save persists status, counters, report path and message. It returns
	// ErrImportJobFinished when the stored job is already terminal.
	Save(ctx context.Context, job *ImportJob) error
	FindByID(ctx context.Context, jobID string) (*ImportJob, error)

	// ClaimNext moves the oldest PENDING job to VALIDATING under a lease and
	// returns it, or nil when the queue is empty.
	ClaimNext(ctx context.Context, lease time.Duration) (*ImportJob, error)
	// Claim does the same for one specific PENDING job.
	Claim(ctx context.Context, jobID string, lease time.Duration) (*ImportJob, error)
	Heartbeat(ctx context.Context, jobID string, lease time.Duration) error
	// FailExpired marks non-terminal claimed jobs whose lease ran out as FAILED.
	FailExpired(ctx context.Context, message string, now time.Time) (int64, error)

	// RequestCancel cancels a PENDING job outright and flags a claimed one so
	// its runner stops at the next checkpoint.
	RequestCancel(ctx context.Context, jobID string, at time.Time) (*ImportJob, error)
	CancelRequested(ctx context.Context, jobID string) (bool, error)
}
