package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	domain "github.com/mohammadpnp/patient-import/internal/domain/patient"
)

type GetPatientByIDInput struct {
	ID string
}

type GetPatientByIDOutput struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	NationalID  string    `json:"national_id"`
	DateOfBirth string    `json:"dob,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type GetPatientByID interface {
	Execute(ctx context.Context, in GetPatientByIDInput) (GetPatientByIDOutput, error)
}

type getPatientByID struct {
	repo domain.PatientQueryRepository
}

func NewGetPatientByID(repo domain.PatientQueryRepository) GetPatientByID {
	return &getPatientByID{repo: repo}
}

func (uc *getPatientByID) Execute(ctx context.Context, in GetPatientByIDInput) (GetPatientByIDOutput, error) {
	if _, err := uuid.Parse(in.ID); err != nil {
		return GetPatientByIDOutput{}, ErrInvalidPatientID
	}

	p, err := uc.repo.GetByID(ctx, in.ID)
	if err != nil {
		if errors.Is(err, domain.ErrPatientNotFound) {
			return GetPatientByIDOutput{}, ErrPatientNotFound
		}
		return GetPatientByIDOutput{}, fmt.Errorf("%w: %v", ErrGetPatientByID, err)
	}

	out := GetPatientByIDOutput{
		ID:         p.ID,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Email:      p.Email,
		Phone:      p.Phone,
		NationalID: p.NationalID,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	if p.DateOfBirth != nil {
		out.DateOfBirth = p.DateOfBirth.Format(time.DateOnly)
	}
	return out, nil
}
