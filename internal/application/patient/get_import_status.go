package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	domain "github.com/mohammadpnp/patient-import/internal/domain/patient"
)

type GetImportStatusInput struct {
	JobID string
}

type GetImportStatusOutput struct {
	JobID              string     `json:"job_id"`
	FileName           string     `json:"file_name"`
	DuplicateStrategy  string     `json:"duplicate_strategy"`
	Status             string     `json:"status"`
	TotalRows          int64      `json:"total_rows"`
	ProcessedRows      int64      `json:"processed_rows"`
	SuccessCount       int64      `json:"success_count"`
	FailedCount        int64      `json:"failed_count"`
	SkippedCount       int64      `json:"skipped_count"`
	ProgressPercentage int        `json:"progress_percentage"`
	HasErrorReport     bool       `json:"has_error_report"`
	CancelRequested    bool       `json:"cancel_requested"`
	Message            string     `json:"message,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

type GetImportStatus interface {
	Execute(ctx context.Context, in GetImportStatusInput) (GetImportStatusOutput, error)
}

type importJobFinder interface {
	FindByID(ctx context.Context, jobID string) (*domain.ImportJob, error)
}

type getImportStatus struct {
	jobs importJobFinder
}

func NewGetImportStatus(jobs importJobFinder) GetImportStatus {
	return &getImportStatus{jobs: jobs}
}

func (uc *getImportStatus) Execute(ctx context.Context, in GetImportStatusInput) (GetImportStatusOutput, error) {
	job, err := findJob(ctx, uc.jobs, in.JobID)
	if err != nil {
		if errors.Is(err, ErrInvalidJobID) || errors.Is(err, ErrImportJobNotFound) {
			return GetImportStatusOutput{}, err
		}
		return GetImportStatusOutput{}, fmt.Errorf("%w: %v", ErrGetImportStatus, err)
	}
	return statusOutput(job), nil
}

func findJob(ctx context.Context, jobs importJobFinder, jobID string) (*domain.ImportJob, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, ErrInvalidJobID
	}
	job, err := jobs.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrImportJobNotFound) {
			return nil, ErrImportJobNotFound
		}
		return nil, err
	}
	return job, nil
}

func statusOutput(job *domain.ImportJob) GetImportStatusOutput {
	return GetImportStatusOutput{
		JobID:              job.ID,
		FileName:           job.SourceFileName,
		DuplicateStrategy:  string(job.DuplicateStrategy),
		Status:             string(job.Status),
		TotalRows:          job.TotalRows,
		ProcessedRows:      job.ProcessedRows,
		SuccessCount:       job.SuccessCount,
		FailedCount:        job.FailedCount,
		SkippedCount:       job.SkippedCount,
		ProgressPercentage: job.ProgressPercentage(),
		HasErrorReport:     job.HasErrorReport(),
		CancelRequested:    job.CancelRequested,
		Message:            job.Message,
		CreatedAt:          job.CreatedAt,
		StartedAt:          job.StartedAt,
		CompletedAt:        job.CompletedAt,
	}
}
