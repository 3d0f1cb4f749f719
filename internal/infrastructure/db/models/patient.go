package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Patient struct {
	ID          string     `gorm:"type:uuid;primaryKey"`
	FirstName   string     `gorm:"size:255;not null"`
	LastName    *string    `gorm:"size:255"`
	Email       *string    `gorm:"size:320"`
	Phone       *string    `gorm:"size:64"`
	NationalID  string     `gorm:"size:64;not null;uniqueIndex"`
	DateOfBirth *time.Time `gorm:"type:date"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Patient) TableName() string {
	return "patients"
}

// BeforeCreate assigns the identity on first insert.
func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
