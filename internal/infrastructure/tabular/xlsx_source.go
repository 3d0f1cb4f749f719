package tabular

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

type cellDate struct {
	value time.Time
}

// xlsxSource reads the first sheet of a workbook. Cells are formatted to
// strings, except numeric cells carrying a date number format, which are also
// surfaced as calendar dates so they never go through a display-format round trip.
type xlsxSource struct {
	file  *excelize.File
	sheet string
	rows  [][]string
	pos   int
}

func newXLSXSource(data []byte) (*xlsxSource, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unreadable spreadsheet: %v", err)
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("unreadable sheet %q: %v", sheets[0], err)
	}
	if len(rows) == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	return &xlsxSource{file: f, sheet: sheets[0], rows: rows}, nil
}

func (s *xlsxSource) Close() error {
	return s.file.Close()
}

func (s *xlsxSource) readHeader() ([]string, error) {
	for s.pos < len(s.rows) {
		row := s.rows[s.pos]
		s.pos++
		if !blank(row) {
			return row, nil
		}
	}
	return nil, errNoHeader
}

func (s *xlsxSource) next() ([]string, map[int]cellDate, bool, error) {
	if s.pos >= len(s.rows) {
		return nil, nil, false, nil
	}
	row := s.rows[s.pos]
	sheetRow := s.pos + 1
	s.pos++

	var native map[int]cellDate
	for col, value := range row {
		if strings.TrimSpace(value) == "" {
			continue
		}
		axis, err := excelize.CoordinatesToCellName(col+1, sheetRow)
		if err != nil {
			return nil, nil, false, err
		}
		if d, ok := s.nativeDate(axis); ok {
			if native == nil {
				native = make(map[int]cellDate)
			}
			native[col] = cellDate{value: d}
		}
	}
	return row, native, true, nil
}

func (s *xlsxSource) nativeDate(axis string) (time.Time, bool) {
	cellType, err := s.file.GetCellType(s.sheet, axis)
	if err != nil {
		return time.Time{}, false
	}
	switch cellType {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
	default:
		return time.Time{}, false
	}

	styleID, err := s.file.GetCellStyle(s.sheet, axis)
	if err != nil || styleID == 0 {
		return time.Time{}, false
	}
	style, err := s.file.GetStyle(styleID)
	if err != nil || !isDateStyle(style) {
		return time.Time{}, false
	}

	raw, err := s.file.GetCellValue(s.sheet, axis, excelize.Options{RawCellValue: true})
	if err != nil {
		return time.Time{}, false
	}
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}

var (
	bracketed = regexp.MustCompile(`\[[^\]]*\]`)
	quoted    = regexp.MustCompile(`"[^"]*"`)
)

func isDateStyle(style *excelize.Style) bool {
	if style == nil {
		return false
	}
	// Built-in ids 18-21 and 45-47 carry a time only.
	switch id := style.NumFmt; {
	case id >= 14 && id <= 17, id == 22, id >= 27 && id <= 36, id >= 50 && id <= 58:
		return true
	}
	if style.CustomNumFmt == nil {
		return false
	}
	format := strings.ToLower(*style.CustomNumFmt)
	format = bracketed.ReplaceAllString(format, "")
	format = quoted.ReplaceAllString(format, "")
	return strings.ContainsAny(format, "yd")
}
