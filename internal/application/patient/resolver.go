package patient

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/mohammadpnp/patient-import/internal/domain/patient"
)

type OutcomeKind int

const (
	OutcomeInsert OutcomeKind = iota
	OutcomeUpdate
	OutcomeSkip
	OutcomeAbort
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeInsert:
		return "insert"
	case OutcomeUpdate:
		return "update"
	case OutcomeSkip:
		return "skip"
	case OutcomeAbort:
		return "abort"
	}
	return fmt.Sprintf("outcome(%d)", int(k))
}

// Outcome carries the entity to write for Insert and Update, and the failure
// reason for Abort.
type Outcome struct {
	Kind    OutcomeKind
	Patient domain.Patient
	Reason  string
}

type patientFinder interface {
	FindByNationalID(ctx context.Context, nationalID string) (*domain.Patient, error)
}

// DuplicateResolver decides what a valid row does to the store, based on
// whether its national ID is already persisted.
type DuplicateResolver struct {
	store patientFinder
}

func NewDuplicateResolver(store patientFinder) *DuplicateResolver {
	return &DuplicateResolver{store: store}
}

func (r *DuplicateResolver) Resolve(ctx context.Context, row domain.ImportRow, strategy domain.DuplicateStrategy) (Outcome, error) {
	existing, err := r.store.FindByNationalID(ctx, row.NationalID)
	if err != nil {
		if errors.Is(err, domain.ErrPatientNotFound) {
			return Outcome{Kind: OutcomeInsert, Patient: domain.NewPatientFromRow(row)}, nil
		}
		return Outcome{}, fmt.Errorf("lookup national id at row %d: %w", row.RowNumber, err)
	}

	switch strategy {
	case domain.StrategySkip:
		return Outcome{Kind: OutcomeSkip}, nil
	case domain.StrategyUpdate:
		updated := *existing
		updated.ApplyRow(row)
		return Outcome{Kind: OutcomeUpdate, Patient: updated}, nil
	case domain.StrategyFail:
		return Outcome{Kind: OutcomeAbort, Reason: domain.MsgDuplicateNationalID}, nil
	}
	return Outcome{}, fmt.Errorf("%w: %q", domain.ErrInvalidDuplicateStrategy, strategy)
}
