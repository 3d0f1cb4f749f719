package patient

import "errors"

var (
	ErrInvalidImportSource      = errors.New("invalid import source")
	ErrUnsupportedFileType      = errors.New("unsupported file type")
	ErrEmptyUpload              = errors.New("uploaded file is empty")
	ErrUploadTooLarge           = errors.New("uploaded file is too large")
	ErrInvalidDuplicateStrategy = errors.New("invalid duplicate strategy")
	ErrStoreUpload              = errors.New("failed to store upload")
	ErrEnqueueImportJob         = errors.New("failed to enqueue import job")
	ErrPreviewImport            = errors.New("failed to preview import")
	ErrInvalidJobID             = errors.New("invalid import job id")
	ErrImportJobNotFound        = errors.New("import job not found")
	ErrGetImportStatus          = errors.New("failed to get import status")
	ErrReportNotFound           = errors.New("error report not found")
	ErrGetErrorReport           = errors.New("failed to get error report")
	ErrImportJobFinished        = errors.New("import job already finished")
	ErrCancelImport             = errors.New("failed to cancel import")
	ErrInvalidPatientID         = errors.New("invalid patient id")
	ErrPatientNotFound          = errors.New("patient not found")
	ErrGetPatientByID           = errors.New("failed to get patient by id")
)
