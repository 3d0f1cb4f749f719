package tabular

import (
	"errors"
	"fmt"
	"io"
	"strings"

	domain "github.com/mohammadpnp/patient-import/internal/domain/patient"
)

const DefaultMaxRows = 1000

var errNoHeader = errors.New("no header row")

// rowSource is implemented once per source kind.
type rowSource interface {
	// readHeader returns the first non-blank row.
	readHeader() ([]string, error)
	// next returns the following data row; ok is false at end of input.
	next() (cells []string, native map[int]cellDate, ok bool, err error)
}

type Reader struct {
	maxRows int
}

func NewReader(maxRows int) *Reader {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Reader{maxRows: maxRows}
}

// Read parses content into raw rows. Only failing to read the bytes is
// returned as an error; unreadable or malformed files come back as a
// ParseResult with HeaderValid=false and a descriptive Message.
func (r *Reader) Read(content io.Reader, fileName string) (domain.ParseResult, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return domain.ParseResult{}, fmt.Errorf("read import source: %w", err)
	}

	src, err := r.openSource(fileName, data)
	if err != nil {
		return invalid(err.Error()), nil
	}
	if closer, ok := src.(io.Closer); ok {
		defer closer.Close()
	}

	header, err := src.readHeader()
	if err != nil {
		if errors.Is(err, errNoHeader) {
			return invalid("file contains no rows"), nil
		}
		return invalid(fmt.Sprintf("unreadable header: %v", err)), nil
	}

	columns := columnIndex(header)
	if missing := missingColumns(columns); len(missing) > 0 {
		return invalid("Missing headers: " + strings.Join(missing, ", ")), nil
	}

	rows := make([]domain.RawRow, 0, 64)
	index := 0
	for {
		cells, native, ok, err := src.next()
		if err != nil {
			return invalid(fmt.Sprintf("malformed data after row %d: %v", index, err)), nil
		}
		if !ok {
			break
		}
		index++
		if blank(cells) {
			continue
		}
		if len(rows) >= r.maxRows {
			return domain.ParseResult{
				HeaderValid: true,
				Message:     fmt.Sprintf("Too many rows. Max allowed: %d", r.maxRows),
				TooManyRows: true,
			}, nil
		}
		rows = append(rows, buildRow(index, columns, cells, native))
	}

	return domain.ParseResult{HeaderValid: true, Rows: rows}, nil
}

func (r *Reader) openSource(fileName string, data []byte) (rowSource, error) {
	switch kind := DetectKind(fileName, data); kind {
	case KindDelimited:
		return newCSVSource(data), nil
	case KindSpreadsheet:
		return newXLSXSource(data)
	case KindUnknown:
		return nil, fmt.Errorf("unsupported file format: %s", fileName)
	}
	return nil, fmt.Errorf("unsupported file format: %s", fileName)
}

func invalid(message string) domain.ParseResult {
	return domain.ParseResult{HeaderValid: false, Message: message}
}

// columnIndex maps lower-cased header names to their first position.
func columnIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}
	return index
}

func missingColumns(columns map[string]int) []string {
	var missing []string
	for _, expected := range domain.ExpectedColumns {
		if _, ok := columns[strings.ToLower(expected)]; !ok {
			missing = append(missing, expected)
		}
	}
	return missing
}

func buildRow(index int, columns map[string]int, cells []string, native map[int]cellDate) domain.RawRow {
	row := domain.NewRawRow(index)
	for name, pos := range columns {
		if d, ok := native[pos]; ok {
			row.SetDate(name, d.value)
		}
		if pos < len(cells) {
			row.Set(name, strings.TrimSpace(cells[pos]))
		}
	}
	return row
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
