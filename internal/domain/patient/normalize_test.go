package patient_test

import (
	"reflect"
	"testing"
	"time"

	domain "github.com/mohammadpnp/patient-import/internal/domain/patient"
)

func rawRow(index int, values map[string]string) domain.RawRow {
	row := domain.NewRawRow(index)
	for k, v := range values {
		row.Set(k, v)
	}
	return row
}

func validValues() map[string]string {
	return map[string]string{
		"firstName":  "Alice",
		"lastName":   "Nguyen",
		"email":      "alice@example.com",
		"phone":      "0901234567",
		"nationalId": "N1",
		"dob":        "1990-04-12",
	}
}

func TestNormalizeValidRow(t *testing.T) {
	t.Parallel()

	row := domain.Normalize(rawRow(3, validValues()))
	if !row.Valid() {
		t.Fatalf("expected valid row, got errors %v", row.Errors)
	}
	if row.RowNumber != 3 {
		t.Fatalf("unexpected row number: %d", row.RowNumber)
	}
	if row.DateOfBirth == nil || !row.DateOfBirth.Equal(time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected dob: %v", row.DateOfBirth)
	}
}

func TestNormalizeTrimsAndNullsBlankFields(t *testing.T) {
	t.Parallel()

	values := validValues()
	values["firstName"] = "  Alice  "
	values["lastName"] = "   "
	values["dob"] = "  "

	row := domain.Normalize(rawRow(1, values))
	if row.FirstName != "Alice" {
		t.Fatalf("expected trimmed first name, got %q", row.FirstName)
	}
	if row.LastName != "" {
		t.Fatalf("expected blank last name to normalize to empty, got %q", row.LastName)
	}
	if row.DateOfBirth != nil {
		t.Fatalf("expected nil dob, got %v", row.DateOfBirth)
	}
	if !row.Valid() {
		t.Fatalf("blank dob must not be an error, got %v", row.Errors)
	}
}

func TestNormalizeAccumulatesErrorsInOrder(t *testing.T) {
	t.Parallel()

	values := validValues()
	values["firstName"] = ""
	values["email"] = "not-an-email"

	row := domain.Normalize(rawRow(1, values))
	want := []string{domain.MsgFirstNameRequired, domain.MsgInvalidEmail}
	if !reflect.DeepEqual(row.Errors, want) {
		t.Fatalf("expected %v, got %v", want, row.Errors)
	}
}

func TestNormalizeAllErrors(t *testing.T) {
	t.Parallel()

	row := domain.Normalize(rawRow(1, map[string]string{
		"email": "x@y",
		"dob":   "abc",
	}))
	want := []string{
		domain.MsgFirstNameRequired,
		domain.MsgNationalIDRequired,
		domain.MsgInvalidEmail,
		domain.MsgDOBNotParseable,
	}
	if !reflect.DeepEqual(row.Errors, want) {
		t.Fatalf("expected %v, got %v", want, row.Errors)
	}
	if row.DateOfBirth != nil {
		t.Fatalf("expected nil dob for unparseable input")
	}
}

func TestNormalizeUsesNativeDate(t *testing.T) {
	t.Parallel()

	values := validValues()
	delete(values, "dob")
	raw := rawRow(1, values)
	raw.SetDate("dob", time.Date(2001, 12, 31, 13, 45, 0, 0, time.UTC))

	row := domain.Normalize(raw)
	if !row.Valid() {
		t.Fatalf("unexpected errors: %v", row.Errors)
	}
	if !row.DateOfBirth.Equal(time.Date(2001, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected dob: %v", row.DateOfBirth)
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	march5 := time.Date(2020, 3, 5, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		in   string
		want time.Time
		ok   bool
	}{
		{name: "iso", in: "2020-03-05", want: march5, ok: true},
		{name: "day first padded", in: "05/03/2020", want: march5, ok: true},
		{name: "day first short", in: "5/3/2020", want: march5, ok: true},
		{name: "two digit year", in: "5/3/20", want: march5, ok: true},
		{name: "dashes", in: "05-03-2020", want: march5, ok: true},
		{name: "month first fallback", in: "12/25/2020", want: time.Date(2020, 12, 25, 0, 0, 0, 0, time.UTC), ok: true},
		{name: "garbage", in: "abc", ok: false},
		{name: "blank", in: "", ok: false},
		{name: "impossible", in: "31/31/2020", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := domain.ParseDate(tc.in)
			if ok != tc.ok {
				t.Fatalf("ParseDate(%q) ok=%v, want %v", tc.in, ok, tc.ok)
			}
			if ok && !got.Equal(tc.want) {
				t.Fatalf("ParseDate(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestValidEmail(t *testing.T) {
	t.Parallel()

	for _, email := range []string{"alice@example.com", "A.B+c@Sub.Example.ORG"} {
		if !domain.ValidEmail(email) {
			t.Fatalf("expected %q to be valid", email)
		}
	}
	for _, email := range []string{"alice-at-example.com", "alice@example.c", "@example.com", "alice@example"} {
		if domain.ValidEmail(email) {
			t.Fatalf("expected %q to be invalid", email)
		}
	}
}
