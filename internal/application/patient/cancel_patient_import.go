package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domain "github.com/mohammadpnp/patient-import/internal/domain/patient"
)

type CancelPatientImportInput struct {
	JobID string
}

type CancelPatientImportOutput struct {
	JobID           string `json:"job_id"`
	Status          string `json:"status"`
	CancelRequested bool   `json:"cancel_requested"`
}

type CancelPatientImport interface {
	Execute(ctx context.Context, in CancelPatientImportInput) (CancelPatientImportOutput, error)
}

type importJobCanceller interface {
	RequestCancel(ctx context.Context, jobID string, at time.Time) (*domain.ImportJob, error)
}

type cancelPatientImport struct {
	jobs importJobCanceller
}

func NewCancelPatientImport(jobs importJobCanceller) CancelPatientImport {
	return &cancelPatientImport{jobs: jobs}
}

// Execute cancels a queued job immediately. A job that is already being
// processed stops at its next checkpoint.
func (uc *cancelPatientImport) Execute(ctx context.Context, in CancelPatientImportInput) (CancelPatientImportOutput, error) {
	if _, err := uuid.Parse(in.JobID); err != nil {
		return CancelPatientImportOutput{}, ErrInvalidJobID
	}

	job, err := uc.jobs.RequestCancel(ctx, in.JobID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrImportJobNotFound):
			return CancelPatientImportOutput{}, ErrImportJobNotFound
		case errors.Is(err, domain.ErrImportJobFinished):
			return CancelPatientImportOutput{}, ErrImportJobFinished
		}
		return CancelPatientImportOutput{}, fmt.Errorf("%w: %v", ErrCancelImport, err)
	}

	zap.S().Named("import").Infof("cancel requested for import job %s (status %s)", job.ID, job.Status)
	return CancelPatientImportOutput{
		JobID:           job.ID,
		Status:          string(job.Status),
		CancelRequested: job.CancelRequested || job.Status == domain.StatusCancelled,
	}, nil
}
