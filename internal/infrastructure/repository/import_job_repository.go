package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/mohammadpnp/patient-import/internal/domain/patient"
	"github.com/mohammadpnp/patient-import/internal/infrastructure/db/models"
)

type ImportJobRepository struct {
	db *gorm.DB
}

func NewImportJobRepository(db *gorm.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

func (r *ImportJobRepository) Create(ctx context.Context, job *domain.ImportJob) error {
	row := jobToModel(job)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create import job: %w", err)
	}
	job.CreatedAt = row.CreatedAt
	return nil
}

func (r *ImportJobRepository) Save(ctx context.Context, job *domain.ImportJob) error {
	now := time.Now()
	values := map[string]any{
		"status":            string(job.Status),
		"total_rows":        job.TotalRows,
		"processed_rows":    job.ProcessedRows,
		"success_count":     job.SuccessCount,
		"failed_count":      job.FailedCount,
		"skipped_count":     job.SkippedCount,
		"error_report_path": nullableText(job.ErrorReportPath),
		"message":           nullableText(job.Message),
		"started_at":        job.StartedAt,
		"completed_at":      job.CompletedAt,
		"updated_at":        now,
	}
	if job.Status.Terminal() {
		values["lease_expires_at"] = nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("id = ? AND status NOT IN ?", job.ID, terminalStatuses).
		Updates(values)
	if result.Error != nil {
		return fmt.Errorf("save import job %s: %w", job.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, job.ID); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", domain.ErrImportJobFinished, job.ID)
	}
	return nil
}

func (r *ImportJobRepository) FindByID(ctx context.Context, jobID string) (*domain.ImportJob, error) {
	var row models.ImportJob
	if err := r.db.WithContext(ctx).Take(&row, "id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrImportJobNotFound
		}
		return nil, fmt.Errorf("find import job: %w", err)
	}
	return jobFromModel(row), nil
}

func (r *ImportJobRepository) ClaimNext(ctx context.Context, lease time.Duration) (*domain.ImportJob, error) {
	var claimed *domain.ImportJob
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.ImportJob
		query := tx.Where("status = ?", string(domain.StatusPending)).Order("created_at ASC")
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		if err := query.Take(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		job, err := claim(tx, row, lease)
		claimed = job
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("claim next import job: %w", err)
	}
	return claimed, nil
}

func (r *ImportJobRepository) Claim(ctx context.Context, jobID string, lease time.Duration) (*domain.ImportJob, error) {
	var claimed *domain.ImportJob
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.ImportJob
		if err := tx.Take(&row, "id = ?", jobID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrImportJobNotFound
			}
			return err
		}
		if row.Status != string(domain.StatusPending) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, row.Status, domain.StatusValidating)
		}

		job, err := claim(tx, row, lease)
		if err == nil && job == nil {
			return fmt.Errorf("%w: job %s claimed concurrently", domain.ErrInvalidTransition, jobID)
		}
		claimed = job
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("claim import job: %w", err)
	}
	return claimed, nil
}

// claim moves a PENDING row to VALIDATING. It returns nil when another
// worker won the row first.
func claim(tx *gorm.DB, row models.ImportJob, lease time.Duration) (*domain.ImportJob, error) {
	now := time.Now()
	expires := now.Add(lease)
	result := tx.Model(&models.ImportJob{}).
		Where("id = ? AND status = ?", row.ID, string(domain.StatusPending)).
		Updates(map[string]any{
			"status":           string(domain.StatusValidating),
			"heartbeat_at":     now,
			"lease_expires_at": expires,
			"updated_at":       now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}

	row.Status = string(domain.StatusValidating)
	row.HeartbeatAt = &now
	row.LeaseExpiresAt = &expires
	return jobFromModel(row), nil
}

func (r *ImportJobRepository) Heartbeat(ctx context.Context, jobID string, lease time.Duration) error {
	now := time.Now()
	err := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("id = ? AND status IN ?", jobID, claimedStatuses).
		Updates(map[string]any{
			"heartbeat_at":     now,
			"lease_expires_at": now.Add(lease),
		}).Error
	if err != nil {
		return fmt.Errorf("heartbeat import job %s: %w", jobID, err)
	}
	return nil
}

func (r *ImportJobRepository) FailExpired(ctx context.Context, message string, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("status IN ? AND lease_expires_at < ?", claimedStatuses, now).
		Updates(map[string]any{
			"status":           string(domain.StatusFailed),
			"message":          message,
			"completed_at":     now,
			"lease_expires_at": nil,
			"updated_at":       now,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("fail expired import jobs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *ImportJobRepository) RequestCancel(ctx context.Context, jobID string, at time.Time) (*domain.ImportJob, error) {
	var cancelled *domain.ImportJob
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.ImportJob
		if err := tx.Take(&row, "id = ?", jobID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrImportJobNotFound
			}
			return err
		}
		if domain.JobStatus(row.Status).Terminal() {
			return fmt.Errorf("%w: %s is %s", domain.ErrImportJobFinished, jobID, row.Status)
		}

		if row.Status == string(domain.StatusPending) {
			message := "cancelled before start"
			result := tx.Model(&models.ImportJob{}).
				Where("id = ? AND status = ?", jobID, string(domain.StatusPending)).
				Updates(map[string]any{
					"status":       string(domain.StatusCancelled),
					"message":      message,
					"completed_at": at,
					"updated_at":   at,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 1 {
				row.Status = string(domain.StatusCancelled)
				row.Message = &message
				row.CompletedAt = &at
				cancelled = jobFromModel(row)
				return nil
			}
		}

		if err := tx.Model(&models.ImportJob{}).
			Where("id = ? AND status IN ?", jobID, claimedStatuses).
			Update("cancel_requested", true).Error; err != nil {
			return err
		}
		if err := tx.Take(&row, "id = ?", jobID).Error; err != nil {
			return err
		}
		cancelled = jobFromModel(row)
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrImportJobNotFound) || errors.Is(err, domain.ErrImportJobFinished) {
			return nil, err
		}
		return nil, fmt.Errorf("cancel import job: %w", err)
	}
	return cancelled, nil
}

func (r *ImportJobRepository) CancelRequested(ctx context.Context, jobID string) (bool, error) {
	var row models.ImportJob
	if err := r.db.WithContext(ctx).Select("cancel_requested").Take(&row, "id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, domain.ErrImportJobNotFound
		}
		return false, fmt.Errorf("read cancel flag: %w", err)
	}
	return row.CancelRequested, nil
}
