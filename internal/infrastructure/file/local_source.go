package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var errNotRegularFile = errors.New("not a regular file")

// LocalSource opens stored uploads and error reports from local disk. Paths
// recorded on a job are normally absolute; a relative upload or report path
// resolves against BaseDir.
type LocalSource struct {
	BaseDir string
}

func NewLocalSource(baseDir string) *LocalSource {
	if baseDir == "" {
		baseDir = "."
	}
	return &LocalSource{BaseDir: baseDir}
}

// Open returns an error wrapping fs.ErrNotExist for an empty or missing path.
func (s *LocalSource) Open(ctx context.Context, storedPath string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(storedPath) == "" {
		return nil, fmt.Errorf("open stored file: %w", fs.ErrNotExist)
	}

	path := s.resolve(storedPath)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stored file %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat stored file %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, fmt.Errorf("open stored file %s: %w", path, errNotRegularFile)
	}
	return f, nil
}

func (s *LocalSource) resolve(storedPath string) string {
	path := filepath.Clean(storedPath)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.BaseDir, path)
}
