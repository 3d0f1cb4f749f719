package repository

import (
	domain "github.com/mohammadpnp/patient-import/internal/domain/patient"
	"github.com/mohammadpnp/patient-import/internal/infrastructure/db/models"
)

var terminalStatuses = []string{
	string(domain.StatusSuccess),
	string(domain.StatusPartialFailed),
	string(domain.StatusFailed),
	string(domain.StatusCancelled),
}

var claimedStatuses = []string{
	string(domain.StatusValidating),
	string(domain.StatusRunning),
}

func nullableText(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func textValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func patientToModel(p domain.Patient) models.Patient {
	return models.Patient{
		ID:          p.ID,
		FirstName:   p.FirstName,
		LastName:    nullableText(p.LastName),
		Email:       nullableText(p.Email),
		Phone:       nullableText(p.Phone),
		NationalID:  p.NationalID,
		DateOfBirth: p.DateOfBirth,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func patientFromModel(row models.Patient) *domain.Patient {
	return &domain.Patient{
		ID:          row.ID,
		FirstName:   row.FirstName,
		LastName:    textValue(row.LastName),
		Email:       textValue(row.Email),
		Phone:       textValue(row.Phone),
		NationalID:  row.NationalID,
		DateOfBirth: row.DateOfBirth,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func jobToModel(job *domain.ImportJob) models.ImportJob {
	return models.ImportJob{
		ID:                job.ID,
		SourceFileName:    job.SourceFileName,
		SourcePath:        job.SourcePath,
		DuplicateStrategy: string(job.DuplicateStrategy),
		Status:            string(job.Status),
		TotalRows:         job.TotalRows,
		ProcessedRows:     job.ProcessedRows,
		SuccessCount:      job.SuccessCount,
		FailedCount:       job.FailedCount,
		SkippedCount:      job.SkippedCount,
		ErrorReportPath:   nullableText(job.ErrorReportPath),
		Message:           nullableText(job.Message),
		CancelRequested:   job.CancelRequested,
		StartedAt:         job.StartedAt,
		CompletedAt:       job.CompletedAt,
		CreatedAt:         job.CreatedAt,
	}
}

func jobFromModel(row models.ImportJob) *domain.ImportJob {
	return &domain.ImportJob{
		ID:                row.ID,
		SourceFileName:    row.SourceFileName,
		SourcePath:        row.SourcePath,
		DuplicateStrategy: domain.DuplicateStrategy(row.DuplicateStrategy),
		Status:            domain.JobStatus(row.Status),
		TotalRows:         row.TotalRows,
		ProcessedRows:     row.ProcessedRows,
		SuccessCount:      row.SuccessCount,
		FailedCount:       row.FailedCount,
		SkippedCount:      row.SkippedCount,
		ErrorReportPath:   textValue(row.ErrorReportPath),
		Message:           textValue(row.Message),
		CancelRequested:   row.CancelRequested,
		CreatedAt:         row.CreatedAt,
		StartedAt:         row.StartedAt,
		CompletedAt:       row.CompletedAt,
	}
}
