package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type csvSource struct {
	reader *csv.Reader
}

func newCSVSource(data []byte) *csvSource {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return &csvSource{reader: r}
}

func (s *csvSource) readHeader() ([]string, error) {
	for {
		record, err := s.reader.Read()
		if errors.Is(err, io.EOF) {
			return nil, errNoHeader
		}
		if err != nil {
			return nil, err
		}
		if !blank(record) {
			return record, nil
		}
	}
}

func (s *csvSource) next() ([]string, map[int]cellDate, bool, error) {
	record, err := s.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, err
	}
	return record, nil, true, nil
}
