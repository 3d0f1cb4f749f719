package models

import "time"

type ImportJob struct {
	ID                string  `gorm:"type:uuid;primaryKey"`
	SourceFileName    string  `gorm:"type:text;not null"`
	SourcePath        string  `gorm:"type:text;not null"`
	DuplicateStrategy string  `gorm:"size:16;not null"`
	Status            string  `gorm:"size:32;not null;index"`
	TotalRows         int64   `gorm:"not null;default:0"`
	ProcessedRows     int64   `gorm:"not null;default:0"`
	SuccessCount      int64   `gorm:"not null;default:0"`
	FailedCount       int64   `gorm:"not null;default:0"`
	SkippedCount      int64   `gorm:"not null;default:0"`
	ErrorReportPath   *string `gorm:"type:text"`
	Message           *string `gorm:"type:text"`
	CancelRequested   bool    `gorm:"not null;default:false"`
	HeartbeatAt       *time.Time
	LeaseExpiresAt    *time.Time
	StartedAt         *time.Time
	CompletedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (ImportJob) TableName() string {
	return "import_jobs"
}
