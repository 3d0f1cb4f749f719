package patient

import (
	"fmt"
	"path/filepath"
	"strings"
)

const DefaultMaxUploadBytes int64 = 10 << 20

var allowedExtensions = map[string]struct{}{
	".csv":  {},
	".xlsx": {},
}

// Upload is a file received by the HTTP adapter or CLI.
type Upload struct {
	FileName string
	Size     int64
}

func validateUpload(u Upload, maxBytes int64) error {
	name := strings.TrimSpace(u.FileName)
	if name == "" {
		return ErrInvalidImportSource
	}
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := allowedExtensions[ext]; !ok {
		return fmt.Errorf("%w: %q (expected .csv or .xlsx)", ErrUnsupportedFileType, ext)
	}
	if u.Size <= 0 {
		return ErrEmptyUpload
	}
	if u.Size > maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrUploadTooLarge, u.Size, maxBytes)
	}
	return nil
}
