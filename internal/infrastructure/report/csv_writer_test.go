package report_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/mohammadpnp/patient-import/internal/domain/patient"
	"github.com/mohammadpnp/patient-import/internal/infrastructure/report"
)

func TestCSVWriterWritesFailuresInOrder(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "errors")
	w := report.NewCSVWriter(dir)

	first := domain.NewRawRow(2)
	first.Set(domain.ColumnFirstName, "")
	first.Set(domain.ColumnEmail, "bad")
	first.Set(domain.ColumnNationalID, "N2")

	second := domain.NewRawRow(5)
	second.Set(domain.ColumnFirstName, "Carol")
	second.Set(domain.ColumnNationalID, "N1")
	second.SetDate(domain.ColumnDOB, time.Date(1980, 2, 3, 0, 0, 0, 0, time.UTC))

	path, err := w.Write("job-1", []domain.RowFailure{
		{RowNumber: 2, Errors: []string{domain.MsgFirstNameRequired, domain.MsgInvalidEmail}, Source: first},
		{RowNumber: 5, Errors: []string{domain.MsgDuplicateNationalID}, Source: second},
	})
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))
	assert.Equal(t, "errors-job-1.csv", filepath.Base(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"row", "errors", "firstName", "lastName", "email", "phone", "nationalId", "dob"}, records[0])
	assert.Equal(t, []string{"2", "firstName required; invalid email", "", "", "bad", "", "N2", ""}, records[1])
	assert.Equal(t, []string{"5", "Duplicate nationalId", "Carol", "", "", "", "N1", "1980-02-03"}, records[2])
}

func TestCSVWriterOverwritesPreviousReport(t *testing.T) {
	t.Parallel()

	w := report.NewCSVWriter(t.TempDir())
	row := domain.NewRawRow(1)

	_, err := w.Write("job-2", []domain.RowFailure{{RowNumber: 1, Errors: []string{"a"}, Source: row}, {RowNumber: 2, Errors: []string{"b"}, Source: row}})
	require.NoError(t, err)
	path, err := w.Write("job-2", []domain.RowFailure{{RowNumber: 1, Errors: []string{"a"}, Source: row}})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
