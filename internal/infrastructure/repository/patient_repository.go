package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	domain "github.com/mohammadpnp/patient-import/internal/domain/patient"
	"github.com/mohammadpnp/patient-import/internal/infrastructure/db/models"
)

const insertBatchSize = 100

// PatientRepository is the gorm patient store. It serves lookups and bulk
// upserts on every supported database.
type PatientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) FindByNationalID(ctx context.Context, nationalID string) (*domain.Patient, error) {
	var row models.Patient
	if err := r.db.WithContext(ctx).Take(&row, "national_id = ?", nationalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPatientNotFound
		}
		return nil, fmt.Errorf("find patient by national id: %w", err)
	}
	return patientFromModel(row), nil
}

func (r *PatientRepository) GetByID(ctx context.Context, patientID string) (*domain.Patient, error) {
	var row models.Patient
	if err := r.db.WithContext(ctx).Take(&row, "id = ?", patientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPatientNotFound
		}
		return nil, fmt.Errorf("get patient by id: %w", err)
	}
	return patientFromModel(row), nil
}

// BulkUpsert writes the whole set in one transaction.
func (r *PatientRepository) BulkUpsert(ctx context.Context, patients []domain.Patient) error {
	if len(patients) == 0 {
		return nil
	}

	inserts := make([]models.Patient, 0, len(patients))
	updates := make([]models.Patient, 0)
	for _, p := range patients {
		if p.ID == "" {
			inserts = append(inserts, patientToModel(p))
		} else {
			updates = append(updates, patientToModel(p))
		}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(inserts) > 0 {
			if err := tx.CreateInBatches(&inserts, insertBatchSize).Error; err != nil {
				return fmt.Errorf("insert patients: %w", err)
			}
		}

		now := time.Now()
		for _, row := range updates {
			result := tx.Model(&models.Patient{}).
				Where("id = ?", row.ID).
				Updates(map[string]any{
					"first_name":    row.FirstName,
					"last_name":     row.LastName,
					"email":         row.Email,
					"phone":         row.Phone,
					"national_id":   row.NationalID,
					"date_of_birth": row.DateOfBirth,
					"updated_at":    now,
				})
			if result.Error != nil {
				return fmt.Errorf("update patient %s: %w", row.ID, result.Error)
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("update patient %s: %w", row.ID, domain.ErrPatientNotFound)
			}
		}
		return nil
	})
}
