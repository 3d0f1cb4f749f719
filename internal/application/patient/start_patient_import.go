package patient

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domain "github.com/mohammadpnp/patient-import/internal/domain/patient"
)

type StartPatientImportInput struct {
	Upload
	Content  io.Reader
	Strategy string
}

type StartPatientImportOutput struct {
	JobID             string `json:"job_id"`
	Status            string `json:"status"`
	DuplicateStrategy string `json:"duplicate_strategy"`
}

type StartPatientImport interface {
	Execute(ctx context.Context, in StartPatientImportInput) (StartPatientImportOutput, error)
}

type uploadStore interface {
	Save(ctx context.Context, jobID, fileName string, content io.Reader) (string, error)
}

type importJobCreator interface {
	Create(ctx context.Context, job *domain.ImportJob) error
}

// JobNotifier is told about every newly queued job.
type JobNotifier interface {
	Notify()
}

type StartPatientImportConfig struct {
	MaxUploadBytes int64
}

type startPatientImport struct {
	uploads  uploadStore
	jobs     importJobCreator
	notifier JobNotifier
	cfg      StartPatientImportConfig
}

func NewStartPatientImport(uploads uploadStore, jobs importJobCreator, notifier JobNotifier, cfg StartPatientImportConfig) StartPatientImport {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &startPatientImport{uploads: uploads, jobs: jobs, notifier: notifier, cfg: cfg}
}

func (uc *startPatientImport) Execute(ctx context.Context, in StartPatientImportInput) (StartPatientImportOutput, error) {
	if err := validateUpload(in.Upload, uc.cfg.MaxUploadBytes); err != nil {
		return StartPatientImportOutput{}, err
	}
	if in.Content == nil {
		return StartPatientImportOutput{}, ErrInvalidImportSource
	}

	strategy := domain.StrategySkip
	if strings.TrimSpace(in.Strategy) != "" {
		parsed, err := domain.ParseDuplicateStrategy(in.Strategy)
		if err != nil {
			return StartPatientImportOutput{}, fmt.Errorf("%w: %q", ErrInvalidDuplicateStrategy, in.Strategy)
		}
		strategy = parsed
	}

	jobID := uuid.NewString()
	fileName := filepath.Base(strings.TrimSpace(in.FileName))

	path, err := uc.uploads.Save(ctx, jobID, fileName, io.LimitReader(in.Content, uc.cfg.MaxUploadBytes+1))
	if err != nil {
		return StartPatientImportOutput{}, fmt.Errorf("%w: %v", ErrStoreUpload, err)
	}

	job := &domain.ImportJob{
		ID:                jobID,
		SourceFileName:    fileName,
		SourcePath:        path,
		DuplicateStrategy: strategy,
		Status:            domain.StatusPending,
		CreatedAt:         time.Now(),
	}
	if err := uc.jobs.Create(ctx, job); err != nil {
		return StartPatientImportOutput{}, fmt.Errorf("%w: %v", ErrEnqueueImportJob, err)
	}

	if uc.notifier != nil {
		uc.notifier.Notify()
	}
	zap.S().Named("import").Infof("queued import job %s for %s with strategy %s", jobID, fileName, strategy)

	return StartPatientImportOutput{
		JobID:             jobID,
		Status:            string(job.Status),
		DuplicateStrategy: string(strategy),
	}, nil
}
