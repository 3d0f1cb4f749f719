package patient

import "time"

// Patient is the persisted record. NationalID is the natural key and is unique
// across the store; ID is assigned by the store on first insert.
type Patient struct {
	ID          string
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	NationalID  string
	DateOfBirth *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewPatientFromRow maps a valid import row onto a new, not yet persisted patient.
func NewPatientFromRow(row ImportRow) Patient {
	var p Patient
	p.ApplyRow(row)
	return p
}

// ApplyRow overwrites every mutable field from the row. Identity is preserved.
func (p *Patient) ApplyRow(row ImportRow) {
	p.FirstName = row.FirstName
	p.LastName = row.LastName
	p.Email = row.Email
	p.Phone = row.Phone
	p.NationalID = row.NationalID
	p.DateOfBirth = row.DateOfBirth
}
