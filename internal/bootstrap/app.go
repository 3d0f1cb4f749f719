package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"gorm.io/gorm"

	app "github.com/mohammadpnp/patient-import/internal/application/patient"
	"github.com/mohammadpnp/patient-import/internal/config"
	domain "github.com/mohammadpnp/patient-import/internal/domain/patient"
	"github.com/mohammadpnp/patient-import/internal/infrastructure/db"
	infrafile "github.com/mohammadpnp/patient-import/internal/infrastructure/file"
	"github.com/mohammadpnp/patient-import/internal/infrastructure/report"
	"github.com/mohammadpnp/patient-import/internal/infrastructure/repository"
	"github.com/mohammadpnp/patient-import/internal/infrastructure/tabular"
)

// App holds the wired repositories and use cases shared by the API server and
// the command line tool.
type App struct {
	Config *config.Config
	DB     *gorm.DB
	Pool   *pgxpool.Pool

	Jobs     *repository.ImportJobRepository
	Patients *repository.PatientRepository
	Runner   *app.ImportRunner
	Worker   *app.ImportWorker

	StartImport   app.StartPatientImport
	PreviewImport app.PreviewPatientImport
	ImportStatus  app.GetImportStatus
	ErrorReport   app.GetErrorReport
	CancelImport  app.CancelPatientImport
	GetPatient    app.GetPatientByID
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	gdb, err := db.InitDB(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		DB:       gdb,
		Jobs:     repository.NewImportJobRepository(gdb),
		Patients: repository.NewPatientRepository(gdb),
	}

	var store domain.PatientStore = a.Patients
	if cfg.Import.BulkMode == config.BulkModeCopy {
		pool, err := db.OpenPool(ctx, cfg.Database.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open bulk pool: %w", err)
		}
		a.Pool = pool
		store = repository.NewPatientCopyRepository(pool)
	}
	zap.S().Named("bootstrap").Infof("database=%s bulk_mode=%s", cfg.Database.Type, cfg.Import.BulkMode)

	reader := tabular.NewReader(cfg.Import.MaxRows)
	uploads := infrafile.NewUploadStore(cfg.Import.UploadDir)
	reports := report.NewCSVWriter(cfg.Import.ReportDir)
	files := infrafile.NewLocalSource(".")

	a.Runner = app.NewImportRunner(a.Jobs, files, reader, store, reports, app.ImportRunnerConfig{
		ChunkSize:         cfg.Import.ChunkSize,
		LeaseDuration:     cfg.Import.Lease,
		HeartbeatInterval: cfg.Import.Heartbeat,
	})
	a.Worker = app.NewImportWorker(a.Jobs, a.Runner, app.ImportWorkerConfig{
		Workers:       cfg.Import.Workers,
		PollInterval:  cfg.Import.PollInterval,
		LeaseDuration: cfg.Import.Lease,
	})

	a.StartImport = app.NewStartPatientImport(uploads, a.Jobs, a.Worker, app.StartPatientImportConfig{
		MaxUploadBytes: cfg.Import.MaxUploadBytes,
	})
	a.PreviewImport = app.NewPreviewPatientImport(reader, cfg.Import.MaxUploadBytes)
	a.ImportStatus = app.NewGetImportStatus(a.Jobs)
	a.ErrorReport = app.NewGetErrorReport(a.Jobs, files)
	a.CancelImport = app.NewCancelPatientImport(a.Jobs)
	a.GetPatient = app.NewGetPatientByID(a.Patients)

	return a, nil
}

func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
