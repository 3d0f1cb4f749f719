package tabular_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	domain "github.com/mohammadpnp/patient-import/internal/domain/patient"
	"github.com/mohammadpnp/patient-import/internal/infrastructure/tabular"
)

const header = "firstName,lastName,email,phone,nationalId,dob\n"

func readCSV(t *testing.T, content string) domain.ParseResult {
	t.Helper()
	result, err := tabular.NewReader(tabular.DefaultMaxRows).Read(strings.NewReader(content), "patients.csv")
	require.NoError(t, err)
	return result
}

func csvRows(n int) string {
	var b strings.Builder
	b.WriteString(header)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "First%d,Last%d,p%d@example.com,090%d,N%d,1990-01-01\n", i, i, i, i, i)
	}
	return b.String()
}

func TestReadCSVValidFile(t *testing.T) {
	t.Parallel()

	result := readCSV(t, header+"Alice,Nguyen,alice@example.com,0901,N1,1990-04-12\nBob,Tran,,,N2,\n")

	require.True(t, result.HeaderValid)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, 1, result.Rows[0].Index)
	v, ok := result.Rows[0].Value("firstname")
	assert.True(t, ok)
	assert.Equal(t, "Alice", v)
	assert.Equal(t, "1990-04-12", result.Rows[0].Original(domain.ColumnDOB))
	assert.Equal(t, 2, result.Rows[1].Index)
}

func TestReadCSVHeaderIsCaseInsensitiveAndOrderFree(t *testing.T) {
	t.Parallel()

	result := readCSV(t, "NATIONALID,DOB,FirstName,LastName,Email,Phone,extra\nN1,,Alice,,,,ignored\n")

	require.True(t, result.HeaderValid)
	require.Len(t, result.Rows, 1)
	v, _ := result.Rows[0].Value(domain.ColumnNationalID)
	assert.Equal(t, "N1", v)
}

func TestReadCSVMissingHeaders(t *testing.T) {
	t.Parallel()

	result := readCSV(t, "firstName,lastName,email,phone\nAlice,Nguyen,,\n")

	assert.False(t, result.HeaderValid)
	assert.Equal(t, "Missing headers: nationalId, dob", result.Message)
	assert.Empty(t, result.Rows)
}

func TestReadEmptyFile(t *testing.T) {
	t.Parallel()

	result := readCSV(t, "\n\n")

	assert.False(t, result.HeaderValid)
	assert.NotEmpty(t, result.Message)
}

func TestReadCSVSkipsBlankRowsButCountsThem(t *testing.T) {
	t.Parallel()

	result := readCSV(t, header+"Alice,,,,N1,\n,,,,,\nBob,,,,N2,\n")

	require.True(t, result.HeaderValid)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, 1, result.Rows[0].Index)
	assert.Equal(t, 3, result.Rows[1].Index)
}

func TestReadCSVStripsBOM(t *testing.T) {
	t.Parallel()

	result := readCSV(t, "\ufeff"+header+"Alice,,,,N1,\n")

	require.True(t, result.HeaderValid)
	require.Len(t, result.Rows, 1)
}

func TestReadRowCap(t *testing.T) {
	t.Parallel()

	atCap := readCSV(t, csvRows(1000))
	require.True(t, atCap.HeaderValid)
	assert.False(t, atCap.TooManyRows)
	assert.Len(t, atCap.Rows, 1000)

	overCap := readCSV(t, csvRows(1001))
	assert.True(t, overCap.HeaderValid)
	assert.True(t, overCap.TooManyRows)
	assert.Equal(t, "Too many rows. Max allowed: 1000", overCap.Message)
	assert.Empty(t, overCap.Rows)
}

func TestReadUnsupportedFormat(t *testing.T) {
	t.Parallel()

	result, err := tabular.NewReader(0).Read(bytes.NewReader([]byte{0x00, 0x01, 0x02, 0xff}), "patients.bin")
	require.NoError(t, err)
	assert.False(t, result.HeaderValid)
	assert.Contains(t, result.Message, "unsupported")
}

func TestReadCorruptSpreadsheet(t *testing.T) {
	t.Parallel()

	result, err := tabular.NewReader(0).Read(strings.NewReader("not a zip"), "patients.xlsx")
	require.NoError(t, err)
	assert.False(t, result.HeaderValid)
	assert.Contains(t, result.Message, "spreadsheet")
}

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadSpreadsheetWithNativeDate(t *testing.T) {
	t.Parallel()

	dob := time.Date(1985, 7, 9, 0, 0, 0, 0, time.UTC)
	data := workbook(t, [][]any{
		{"firstName", "lastName", "email", "phone", "nationalId", "dob"},
		{"Alice", "Nguyen", "alice@example.com", "0901", "N1", dob},
		{"Bob", "Tran", "", "", "N2", "05/03/2020"},
	})

	result, err := tabular.NewReader(0).Read(bytes.NewReader(data), "patients.xlsx")
	require.NoError(t, err)
	require.True(t, result.HeaderValid, result.Message)
	require.Len(t, result.Rows, 2)

	native, ok := result.Rows[0].Date(domain.ColumnDOB)
	require.True(t, ok)
	assert.True(t, native.Equal(dob), "got %v", native)
	assert.Equal(t, "1985-07-09", result.Rows[0].Original(domain.ColumnDOB))

	_, ok = result.Rows[1].Date(domain.ColumnDOB)
	assert.False(t, ok)
	text, _ := result.Rows[1].Value(domain.ColumnDOB)
	assert.Equal(t, "05/03/2020", text)

	row := domain.Normalize(result.Rows[0])
	require.True(t, row.Valid(), "%v", row.Errors)
	assert.True(t, row.DateOfBirth.Equal(dob))
}

func styledWorkbook(t *testing.T, dobSerial float64, numFmt int) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := []any{"firstName", "lastName", "email", "phone", "nationalId", "dob"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	row := []any{"Alice", "", "", "", "N1", dobSerial}
	require.NoError(t, f.SetSheetRow(sheet, "A2", &row))

	styleID, err := f.NewStyle(&excelize.Style{NumFmt: numFmt})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "F2", "F2", styleID))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadSpreadsheetDateFormattedSerial(t *testing.T) {
	t.Parallel()

	// 31242 is 1985-07-14 in the 1900 date system; format 14 is m/d/yyyy.
	data := styledWorkbook(t, 31242, 14)

	result, err := tabular.NewReader(0).Read(bytes.NewReader(data), "patients.xlsx")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	native, ok := result.Rows[0].Date(domain.ColumnDOB)
	require.True(t, ok)
	assert.Equal(t, "1985-07-14", native.Format("2006-01-02"))
}

func TestReadSpreadsheetTimeOnlyCellIsNotADate(t *testing.T) {
	t.Parallel()

	for _, numFmt := range []int{18, 20, 21, 45, 46, 47} {
		data := styledWorkbook(t, 0.5, numFmt)

		result, err := tabular.NewReader(0).Read(bytes.NewReader(data), "patients.xlsx")
		require.NoError(t, err)
		require.Len(t, result.Rows, 1)

		_, ok := result.Rows[0].Date(domain.ColumnDOB)
		assert.False(t, ok, "numFmt %d", numFmt)

		row := domain.Normalize(result.Rows[0])
		assert.Contains(t, row.Errors, domain.MsgDOBNotParseable, "numFmt %d", numFmt)
	}
}

func TestReadSpreadsheetNumericCellsAreFormatted(t *testing.T) {
	t.Parallel()

	data := workbook(t, [][]any{
		{"firstName", "lastName", "email", "phone", "nationalId", "dob"},
		{"Alice", "", "", 901234567, 123456, ""},
	})

	result, err := tabular.NewReader(0).Read(bytes.NewReader(data), "patients.xlsx")
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)

	id, _ := result.Rows[0].Value(domain.ColumnNationalID)
	assert.Equal(t, "123456", id)
	_, ok := result.Rows[0].Date(domain.ColumnNationalID)
	assert.False(t, ok)
}

func TestDetectKind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, tabular.KindDelimited, tabular.DetectKind("a.csv", []byte(header)))
	assert.Equal(t, tabular.KindDelimited, tabular.DetectKind("upload", []byte(header)))
	assert.Equal(t, tabular.KindSpreadsheet, tabular.DetectKind("a.xlsx", nil))
	assert.Equal(t, tabular.KindUnknown, tabular.DetectKind("a.xls", nil))
}
