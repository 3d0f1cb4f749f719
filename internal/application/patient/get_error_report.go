package patient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
)

type GetErrorReportInput struct {
	JobID string
}

// GetErrorReportOutput owns Content; callers must close it.
type GetErrorReportOutput struct {
	FileName string
	Content  io.ReadCloser
}

type GetErrorReport interface {
	Execute(ctx context.Context, in GetErrorReportInput) (GetErrorReportOutput, error)
}

type getErrorReport struct {
	jobs    importJobFinder
	reports ImportSource
}

func NewGetErrorReport(jobs importJobFinder, reports ImportSource) GetErrorReport {
	return &getErrorReport{jobs: jobs, reports: reports}
}

func (uc *getErrorReport) Execute(ctx context.Context, in GetErrorReportInput) (GetErrorReportOutput, error) {
	job, err := findJob(ctx, uc.jobs, in.JobID)
	if err != nil {
		if errors.Is(err, ErrInvalidJobID) || errors.Is(err, ErrImportJobNotFound) {
			return GetErrorReportOutput{}, err
		}
		return GetErrorReportOutput{}, fmt.Errorf("%w: %v", ErrGetErrorReport, err)
	}
	if !job.HasErrorReport() {
		return GetErrorReportOutput{}, ErrReportNotFound
	}

	content, err := uc.reports.Open(ctx, job.ErrorReportPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return GetErrorReportOutput{}, ErrReportNotFound
		}
		return GetErrorReportOutput{}, fmt.Errorf("%w: %v", ErrGetErrorReport, err)
	}

	return GetErrorReportOutput{
		FileName: filepath.Base(job.ErrorReportPath),
		Content:  content,
	}, nil
}
