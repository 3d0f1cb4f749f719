package patient

import (
	"strings"
	"time"
)

const (
	ColumnFirstName  = "firstName"
	ColumnLastName   = "lastName"
	ColumnEmail      = "email"
	ColumnPhone      = "phone"
	ColumnNationalID = "nationalId"
	ColumnDOB        = "dob"
)

// ExpectedColumns is the fixed header every source must carry, in report order.
var ExpectedColumns = []string{
	ColumnFirstName,
	ColumnLastName,
	ColumnEmail,
	ColumnPhone,
	ColumnNationalID,
	ColumnDOB,
}

// RawRow is one source row keyed by lower-cased column name. A column missing
// from Values is null. Dates holds cells that arrived as native calendar dates.
type RawRow struct {
	Index  int
	Values map[string]string
	Dates  map[string]time.Time
}

func NewRawRow(index int) RawRow {
	return RawRow{
		Index:  index,
		Values: make(map[string]string),
		Dates:  make(map[string]time.Time),
	}
}

func (r RawRow) Set(column, value string) {
	r.Values[strings.ToLower(column)] = value
}

func (r RawRow) SetDate(column string, date time.Time) {
	r.Dates[strings.ToLower(column)] = date
}

func (r RawRow) Value(column string) (string, bool) {
	v, ok := r.Values[strings.ToLower(column)]
	return v, ok
}

func (r RawRow) Date(column string) (time.Time, bool) {
	d, ok := r.Dates[strings.ToLower(column)]
	return d, ok
}

// Original returns the value as it appeared in the source, rendering native
// dates as YYYY-MM-DD.
func (r RawRow) Original(column string) string {
	if d, ok := r.Date(column); ok {
		return d.Format(isoDateLayout)
	}
	v, _ := r.Value(column)
	return v
}

// ParseResult is the Tabular Reader verdict for one source.
type ParseResult struct {
	HeaderValid bool
	Message     string
	Rows        []RawRow
	TooManyRows bool
}

// ImportRow is the normalized form of a RawRow. Errors is empty iff the row is
// eligible for persistence.
type ImportRow struct {
	RowNumber   int
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	NationalID  string
	DateOfBirth *time.Time
	Errors      []string
	Source      RawRow
}

func (r ImportRow) Valid() bool {
	return len(r.Errors) == 0
}

func (r *ImportRow) AddError(message string) {
	r.Errors = append(r.Errors, message)
}

// RowFailure is an accumulated failed or rejected row destined for the error report.
type RowFailure struct {
	RowNumber int
	Errors    []string
	Source    RawRow
}

func NewRowFailure(row ImportRow) RowFailure {
	errs := make([]string, len(row.Errors))
	copy(errs, row.Errors)
	return RowFailure{
		RowNumber: row.RowNumber,
		Errors:    errs,
		Source:    row.Source,
	}
}
