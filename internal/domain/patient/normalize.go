package patient

import (
	"regexp"
	"strings"
	"time"
)

const (
	MsgFirstNameRequired   = "firstName required"
	MsgNationalIDRequired  = "nationalId required"
	MsgInvalidEmail        = "invalid email"
	MsgDOBNotParseable     = "dob not parseable"
	MsgDuplicateNationalID = "Duplicate nationalId"
)

const isoDateLayout = "2006-01-02"

var emailPattern = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)

// lenientDateLayouts are tried in order after strict ISO fails:
// D/M/YYYY, D/M/YY, DD/MM/YYYY, DD-MM-YYYY, MM/DD/YYYY.
var lenientDateLayouts = []string{
	"2/1/2006",
	"2/1/06",
	"02/01/2006",
	"02-01-2006",
	"01/02/2006",
}

// Normalize turns a raw row into an ImportRow. It never touches storage; every
// check runs and errors accumulate in a fixed order.
func Normalize(raw RawRow) ImportRow {
	row := ImportRow{
		RowNumber:  raw.Index,
		FirstName:  field(raw, ColumnFirstName),
		LastName:   field(raw, ColumnLastName),
		Email:      field(raw, ColumnEmail),
		Phone:      field(raw, ColumnPhone),
		NationalID: field(raw, ColumnNationalID),
		Source:     raw,
	}

	dobParseFailed := false
	if native, ok := raw.Date(ColumnDOB); ok {
		d := dateOnly(native)
		row.DateOfBirth = &d
	} else if dobRaw := field(raw, ColumnDOB); dobRaw != "" {
		if d, ok := ParseDate(dobRaw); ok {
			row.DateOfBirth = &d
		} else {
			dobParseFailed = true
		}
	}

	if row.FirstName == "" {
		row.AddError(MsgFirstNameRequired)
	}
	if row.NationalID == "" {
		row.AddError(MsgNationalIDRequired)
	}
	if row.Email != "" && !ValidEmail(row.Email) {
		row.AddError(MsgInvalidEmail)
	}
	if dobParseFailed {
		row.AddError(MsgDOBNotParseable)
	}

	return row
}

// ParseDate tries strict ISO first, then each lenient layout in order, and
// returns the first successful parse as a UTC calendar date.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(isoDateLayout, raw); err == nil {
		return t, true
	}
	for _, layout := range lenientDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func field(raw RawRow, column string) string {
	v, _ := raw.Value(column)
	return strings.TrimSpace(v)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
