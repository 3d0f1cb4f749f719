package patient

import (
	"context"
	"fmt"
	"io"
	"time"

	domain "github.com/mohammadpnp/patient-import/internal/domain/patient"
)

const previewRows = 20

type PreviewPatientImportInput struct {
	Upload
	Content io.Reader
}

type PreviewRowOutput struct {
	Row         int      `json:"row"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	NationalID  string   `json:"national_id"`
	DateOfBirth string   `json:"dob"`
	Valid       bool     `json:"valid"`
	Errors      []string `json:"errors"`
}

type PreviewPatientImportOutput struct {
	HeaderValid bool               `json:"header_valid"`
	TooManyRows bool               `json:"too_many_rows"`
	Message     string             `json:"message,omitempty"`
	TotalRows   int                `json:"total_rows"`
	Rows        []PreviewRowOutput `json:"rows"`
}

type PreviewPatientImport interface {
	Execute(ctx context.Context, in PreviewPatientImportInput) (PreviewPatientImportOutput, error)
}

type previewPatientImport struct {
	reader   TabularReader
	maxBytes int64
}

func NewPreviewPatientImport(reader TabularReader, maxUploadBytes int64) PreviewPatientImport {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &previewPatientImport{reader: reader, maxBytes: maxUploadBytes}
}

// Execute reads and normalizes without touching the store or creating a job.
func (uc *previewPatientImport) Execute(ctx context.Context, in PreviewPatientImportInput) (PreviewPatientImportOutput, error) {
	if err := validateUpload(in.Upload, uc.maxBytes); err != nil {
		return PreviewPatientImportOutput{}, err
	}
	if in.Content == nil {
		return PreviewPatientImportOutput{}, ErrInvalidImportSource
	}

	parsed, err := uc.reader.Read(io.LimitReader(in.Content, uc.maxBytes+1), in.FileName)
	if err != nil {
		return PreviewPatientImportOutput{}, fmt.Errorf("%w: %v", ErrPreviewImport, err)
	}

	out := PreviewPatientImportOutput{
		HeaderValid: parsed.HeaderValid,
		TooManyRows: parsed.TooManyRows,
		Message:     parsed.Message,
		TotalRows:   len(parsed.Rows),
		Rows:        make([]PreviewRowOutput, 0, min(len(parsed.Rows), previewRows)),
	}
	for _, raw := range parsed.Rows {
		if len(out.Rows) == previewRows {
			break
		}
		out.Rows = append(out.Rows, previewRow(domain.Normalize(raw)))
	}
	return out, nil
}

func previewRow(row domain.ImportRow) PreviewRowOutput {
	out := PreviewRowOutput{
		Row:        row.RowNumber,
		FirstName:  row.FirstName,
		LastName:   row.LastName,
		Email:      row.Email,
		Phone:      row.Phone,
		NationalID: row.NationalID,
		Valid:      row.Valid(),
		Errors:     make([]string, 0, len(row.Errors)),
	}
	if row.DateOfBirth != nil {
		out.DateOfBirth = row.DateOfBirth.Format(time.DateOnly)
	} else {
		out.DateOfBirth = row.Source.Original(domain.ColumnDOB)
	}
	out.Errors = append(out.Errors, row.Errors...)
	return out
}
