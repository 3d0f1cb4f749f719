package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// UploadStore keeps each accepted upload as {jobID}{ext} under Dir.
type UploadStore struct {
	Dir string
}

func NewUploadStore(dir string) *UploadStore {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "patient-import", "uploads")
	}
	return &UploadStore{Dir: dir}
}

func (s *UploadStore) Save(ctx context.Context, jobID, fileName string, content io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir, err := filepath.Abs(s.Dir)
	if err != nil {
		return "", fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(fileName)))
	path := filepath.Join(dir, filepath.Base(jobID)+ext)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(out, content); err != nil {
		out.Close()
		os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return path, nil
}
