package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mohammadpnp/patient-import/internal/config"
	"github.com/mohammadpnp/patient-import/internal/infrastructure/db/models"
)

var ErrUnsupportedDatabase = errors.New("unsupported database type")

// gormWriter routes gorm's logger through the named zap logger.
type gormWriter struct {
	log *zap.SugaredLogger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warnf(format, args...)
}

// InitDB opens the database selected by cfg.
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.Database.Type {
	case config.DBTypePostgres:
		gdb, err := Open(postgres.Open(cfg.Database.URL))
		if err != nil {
			return nil, err
		}
		if err := Migrate(gdb); err != nil {
			return nil, err
		}
		return gdb, nil
	case config.DBTypeSQLite:
		return OpenSQLite(cfg.Database.Path)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedDatabase, cfg.Database.Type)
}

// OpenSQLite opens a single-connection sqlite database and creates the schema.
func OpenSQLite(path string) (*gorm.DB, error) {
	gdb, err := Open(sqlite.Open(path))
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	return gdb, nil
}

const stagingTableDDL = `
CREATE UNLOGGED TABLE IF NOT EXISTS stg_patients (
  batch_id TEXT NOT NULL,
  row_index BIGINT NOT NULL,
  id TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT,
  email TEXT,
  phone TEXT,
  national_id TEXT NOT NULL,
  date_of_birth DATE
)`

// Migrate creates the patients and import_jobs tables, plus the COPY staging
// table on postgres.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&models.Patient{}, &models.ImportJob{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	if gdb.Dialector.Name() == "postgres" {
		if err := gdb.Exec(stagingTableDDL).Error; err != nil {
			return fmt.Errorf("create staging table: %w", err)
		}
	}
	return nil
}

func Open(dia gorm.Dialector) (*gorm.DB, error) {
	newLogger := logger.New(
		gormWriter{log: zap.S().Named("gorm")},
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)

	newDB, err := gorm.Open(dia, &gorm.Config{Logger: newLogger, TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := newDB.DB()
	if err != nil {
		return nil, fmt.Errorf("configure connections: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	if dia.Name() == "postgres" {
		var version string
		if result := newDB.Raw("SELECT version()").Scan(&version); result.Error != nil {
			return nil, fmt.Errorf("query server version: %w", result.Error)
		}
		zap.S().Named("gorm").Infof("PostgreSQL information: '%s'", version)
	}

	return newDB, nil
}

// OpenPool opens the pgx pool used for COPY based bulk writes.
func OpenPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pgx pool: %w", err)
	}
	return pool, nil
}
