package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/mohammadpnp/patient-import/internal/domain/patient"
)

// PatientCopyRepository bulk writes through a COPY into stg_patients followed
// by one set based upsert. Postgres only.
type PatientCopyRepository struct {
	pool *pgxpool.Pool
}

func NewPatientCopyRepository(pool *pgxpool.Pool) *PatientCopyRepository {
	return &PatientCopyRepository{pool: pool}
}

func (r *PatientCopyRepository) FindByNationalID(ctx context.Context, nationalID string) (*domain.Patient, error) {
	var (
		p                      domain.Patient
		lastName, email, phone *string
	)
	err := r.pool.QueryRow(ctx, `
SELECT id::text, first_name, last_name, email, phone, national_id, date_of_birth, created_at, updated_at
FROM patients
WHERE national_id = $1
`, nationalID).Scan(&p.ID, &p.FirstName, &lastName, &email, &phone, &p.NationalID, &p.DateOfBirth, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPatientNotFound
		}
		return nil, fmt.Errorf("find patient by national id: %w", err)
	}
	p.LastName = textValue(lastName)
	p.Email = textValue(email)
	p.Phone = textValue(phone)
	return &p, nil
}

func (r *PatientCopyRepository) BulkUpsert(ctx context.Context, patients []domain.Patient) error {
	if len(patients) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batchID := uuid.NewString()
	rows := make([][]any, 0, len(patients))
	for i, p := range patients {
		id := p.ID
		if id == "" {
			id = uuid.NewString()
		}
		rows = append(rows, []any{
			batchID,
			int64(i),
			id,
			p.FirstName,
			nullableText(p.LastName),
			nullableText(p.Email),
			nullableText(p.Phone),
			p.NationalID,
			p.DateOfBirth,
		})
	}

	if _, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"stg_patients"},
		[]string{"batch_id", "row_index", "id", "first_name", "last_name", "email", "phone", "national_id", "date_of_birth"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("copy patients staging: %w", err)
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO patients (id, first_name, last_name, email, phone, national_id, date_of_birth, created_at, updated_at)
SELECT id::uuid, first_name, last_name, email, phone, national_id, date_of_birth, NOW(), NOW()
FROM stg_patients
WHERE batch_id = $1
ORDER BY row_index
ON CONFLICT (id) DO UPDATE
  SET first_name = EXCLUDED.first_name,
      last_name = EXCLUDED.last_name,
      email = EXCLUDED.email,
      phone = EXCLUDED.phone,
      national_id = EXCLUDED.national_id,
      date_of_birth = EXCLUDED.date_of_birth,
      updated_at = NOW()
`, batchID); err != nil {
		return fmt.Errorf("upsert patients: %w", err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM stg_patients WHERE batch_id = $1", batchID); err != nil {
		return fmt.Errorf("cleanup stg_patients: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit patient chunk: %w", err)
	}
	return nil
}
