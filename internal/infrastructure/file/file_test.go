package file_test

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammadpnp/patient-import/internal/infrastructure/file"
)

func TestUploadStoreSaveAndOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := file.NewUploadStore(filepath.Join(dir, "uploads"))

	path, err := store.Save(context.Background(), "job-1", "../../Patients.CSV", strings.NewReader("firstName\nAlice\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "uploads", "job-1.csv"), path)

	rc, err := file.NewLocalSource(dir).Open(context.Background(), path)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "firstName\nAlice\n", string(data))
}

func TestLocalSourceResolvesRelativePaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := file.NewUploadStore(dir).Save(context.Background(), "job-2", "a.xlsx", strings.NewReader("x"))
	require.NoError(t, err)

	rc, err := file.NewLocalSource(dir).Open(context.Background(), "job-2.xlsx")
	require.NoError(t, err)
	rc.Close()

	_, err = file.NewLocalSource(dir).Open(context.Background(), "missing.csv")
	assert.Error(t, err)
}

func TestLocalSourceHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := file.NewLocalSource(t.TempDir()).Open(ctx, "a.csv")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalSourceResolvesRelativeReportPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "errors"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "errors", "errors-job-3.csv"), []byte("errors\n"), 0o644))

	rc, err := file.NewLocalSource(dir).Open(context.Background(), "errors/../errors/errors-job-3.csv")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "errors\n", string(data))
}

func TestLocalSourceRejectsEmptyPathAndDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := file.NewLocalSource(dir)

	_, err := source.Open(context.Background(), "  ")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = source.Open(context.Background(), "missing.csv")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = source.Open(context.Background(), dir)
	assert.Error(t, err)
}
