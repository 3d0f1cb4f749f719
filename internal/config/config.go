package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

const (
	DBTypePostgres = "pgsql"
	DBTypeSQLite   = "sqlite"

	BulkModeCopy = "copy"
	BulkModeGorm = "gorm"

	minWorkers = 1
	maxWorkers = 10
)

type Config struct {
	Database *dbConfig
	Service  *svcConfig
	Import   *importConfig
}

type dbConfig struct {
	Type string `envconfig:"DB_TYPE" default:"pgsql" validate:"oneof=pgsql sqlite"`
	URL  string `envconfig:"DATABASE_URL" default:"" validate:"required_if=Type pgsql"`
	Path string `envconfig:"DB_PATH" default:"patients.db"`
}

type svcConfig struct {
	Port     string `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
}

type importConfig struct {
	Workers        int           `envconfig:"IMPORT_WORKERS" default:"4"`
	PollInterval   time.Duration `envconfig:"IMPORT_POLL_INTERVAL" default:"500ms" validate:"gt=0"`
	Lease          time.Duration `envconfig:"IMPORT_LEASE" default:"60s" validate:"gt=0"`
	Heartbeat      time.Duration `envconfig:"IMPORT_HEARTBEAT_INTERVAL" default:"0s" validate:"gte=0"`
	ChunkSize      int           `envconfig:"IMPORT_CHUNK_SIZE" default:"100" validate:"min=1"`
	MaxRows        int           `envconfig:"IMPORT_MAX_ROWS" default:"1000" validate:"min=1"`
	MaxUploadBytes int64         `envconfig:"IMPORT_MAX_UPLOAD_BYTES" default:"10485760" validate:"min=1"`
	UploadDir      string        `envconfig:"IMPORT_UPLOAD_DIR" default:""`
	ReportDir      string        `envconfig:"IMPORT_REPORT_DIR" default:""`
	BulkMode       string        `envconfig:"IMPORT_BULK_MODE" default:"copy" validate:"oneof=copy gorm"`
}

// New reads the environment, applies defaults and validates the result.
func New() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	switch {
	case c.Import.Workers < minWorkers:
		c.Import.Workers = minWorkers
	case c.Import.Workers > maxWorkers:
		c.Import.Workers = maxWorkers
	}

	if c.Import.Heartbeat <= 0 || c.Import.Heartbeat >= c.Import.Lease {
		c.Import.Heartbeat = c.Import.Lease / 2
	}

	base := filepath.Join(os.TempDir(), "patient-import")
	if c.Import.UploadDir == "" {
		c.Import.UploadDir = filepath.Join(base, "uploads")
	}
	if c.Import.ReportDir == "" {
		c.Import.ReportDir = filepath.Join(base, "errors")
	}

	// COPY staging needs postgres.
	if c.Database.Type == DBTypeSQLite {
		c.Import.BulkMode = BulkModeGorm
	}
}

func (c *Config) Address() string {
	return ":" + c.Service.Port
}
