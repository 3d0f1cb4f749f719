package patient

import "errors"

var (
	ErrPatientNotFound          = errors.New("patient not found")
	ErrImportJobNotFound        = errors.New("import job not found")
	ErrInvalidDuplicateStrategy = errors.New("invalid duplicate strategy")
	ErrInvalidTransition        = errors.New("invalid job status transition")
	ErrImportJobFinished        = errors.New("import job already finished")
)
