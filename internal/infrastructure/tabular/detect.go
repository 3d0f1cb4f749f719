package tabular

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindDelimited
	KindSpreadsheet
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DetectKind sniffs content first and falls back to the file extension when
// the content is inconclusive (for example a zip container or empty input).
func DetectKind(fileName string, data []byte) Kind {
	ext := strings.ToLower(filepath.Ext(fileName))

	if len(data) > 0 {
		detected := mimetype.Detect(data)
		if detected.Is(xlsxMIME) {
			return KindSpreadsheet
		}
		for m := detected; m != nil; m = m.Parent() {
			if m.Is("text/plain") {
				if ext == ".xlsx" {
					return KindSpreadsheet
				}
				return KindDelimited
			}
		}
	}

	switch ext {
	case ".csv":
		return KindDelimited
	case ".xlsx":
		return KindSpreadsheet
	}
	return KindUnknown
}
