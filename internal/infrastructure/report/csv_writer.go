package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	domain "github.com/mohammadpnp/patient-import/internal/domain/patient"
)

var header = []string{"row", "errors", "firstName", "lastName", "email", "phone", "nationalId", "dob"}

// CSVWriter writes one errors-{jobId}.csv per job under Dir.
type CSVWriter struct {
	Dir string
}

func NewCSVWriter(dir string) *CSVWriter {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "patient-import", "errors")
	}
	return &CSVWriter{Dir: dir}
}

func FileName(jobID string) string {
	return "errors-" + jobID + ".csv"
}

// Write serializes failures in the given order and returns the absolute path.
func (w *CSVWriter) Write(jobID string, failures []domain.RowFailure) (string, error) {
	dir, err := filepath.Abs(w.Dir)
	if err != nil {
		return "", fmt.Errorf("resolve report dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(dir, FileName(filepath.Base(jobID)))
	tmp, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer os.Remove(tmp.Name())

	cw := csv.NewWriter(tmp)
	if err := cw.Write(header); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write report header: %w", err)
	}
	for _, f := range failures {
		record := []string{strconv.Itoa(f.RowNumber), strings.Join(f.Errors, "; ")}
		for _, col := range domain.ExpectedColumns {
			record = append(record, f.Source.Original(col))
		}
		if err := cw.Write(record); err != nil {
			tmp.Close()
			return "", fmt.Errorf("write report row %d: %w", f.RowNumber, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("flush report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("publish report: %w", err)
	}
	return path, nil
}
