package patient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	domain "github.com/mohammadpnp/patient-import/internal/domain/patient"
	"github.com/mohammadpnp/patient-import/internal/metrics"
)

const (
	msgCancelled       = "import cancelled"
	msgShutdown        = "import cancelled by shutdown"
	maxMessageLength   = 1000
	defaultRunnerLease = 60 * time.Second
)

type ImportSource interface {
	Open(ctx context.Context, sourcePath string) (io.ReadCloser, error)
}

type TabularReader interface {
	Read(content io.Reader, fileName string) (domain.ParseResult, error)
}

type ErrorReportWriter interface {
	Write(jobID string, failures []domain.RowFailure) (string, error)
}

type runnerJobRepo interface {
	Save(ctx context.Context, job *domain.ImportJob) error
	Heartbeat(ctx context.Context, jobID string, lease time.Duration) error
	CancelRequested(ctx context.Context, jobID string) (bool, error)
}

type ImportRunnerConfig struct {
	ChunkSize         int
	LeaseDuration     time.Duration
	HeartbeatInterval time.Duration
	Now               func() time.Time
}

// ImportRunner drives one claimed job from VALIDATING to a terminal status:
// read, normalize, resolve and write, one row at a time and in file order.
type ImportRunner struct {
	jobs     runnerJobRepo
	source   ImportSource
	reader   TabularReader
	store    domain.PatientStore
	reports  ErrorReportWriter
	resolver *DuplicateResolver
	cfg      ImportRunnerConfig
	log      *zap.SugaredLogger
}

func NewImportRunner(jobs runnerJobRepo, source ImportSource, reader TabularReader, store domain.PatientStore, reports ErrorReportWriter, cfg ImportRunnerConfig) *ImportRunner {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.LeaseDuration <= 0 {
		cfg.LeaseDuration = defaultRunnerLease
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = cfg.LeaseDuration / 2
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &ImportRunner{
		jobs:     jobs,
		source:   source,
		reader:   reader,
		store:    store,
		reports:  reports,
		resolver: NewDuplicateResolver(store),
		cfg:      cfg,
		log:      zap.S().Named("import_runner"),
	}
}

// importRun is the state of one execution. Nothing in it is shared with
// other jobs.
type importRun struct {
	job      *domain.ImportJob
	writer   *ChunkWriter
	failures []domain.RowFailure
}

func (run *importRun) recordFailure(row domain.ImportRow) {
	run.failures = append(run.failures, domain.NewRowFailure(row))
	run.job.FailedCount++
	metrics.AddRowsMetric(metrics.RowFailed, 1)
}

// Run always tries to leave the job terminal. It returns an error only when
// that final state could not be persisted.
//
// ctx is consulted only at cancellation checkpoints; store and job writes use
// a context detached from its cancellation.
func (r *ImportRunner) Run(ctx context.Context, job *domain.ImportJob) (err error) {
	persistCtx := context.WithoutCancel(ctx)
	run := &importRun{
		job:    job,
		writer: NewChunkWriter(r.store, r.cfg.ChunkSize),
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Errorf("import job %s panicked: %v", job.ID, rec)
			err = r.finish(persistCtx, run, domain.StatusFailed, fmt.Sprintf("unexpected failure: %v", rec))
		}
	}()

	if job.Status == domain.StatusPending {
		if err := r.transition(persistCtx, run, domain.StatusValidating); err != nil {
			return err
		}
	}

	parsed, err := r.readSource(ctx, job)
	if err != nil {
		return r.finish(persistCtx, run, domain.StatusFailed, err.Error())
	}
	if !parsed.HeaderValid || parsed.TooManyRows {
		return r.finish(persistCtx, run, domain.StatusFailed, parsed.Message)
	}

	job.TotalRows = int64(len(parsed.Rows))
	if message, stop := r.stopRequested(ctx, persistCtx, job.ID); stop {
		return r.finish(persistCtx, run, domain.StatusCancelled, message)
	}
	if err := r.transition(persistCtx, run, domain.StatusRunning); err != nil {
		return err
	}
	r.log.Infof("import job %s running: rows=%d strategy=%s", job.ID, job.TotalRows, job.DuplicateStrategy)

	// Runs that rarely flush still have to keep their claim.
	ticker := time.NewTicker(r.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for _, raw := range parsed.Rows {
		if ctx.Err() != nil {
			return r.stop(persistCtx, run, msgShutdown)
		}

		select {
		case <-ticker.C:
			r.heartbeat(persistCtx, job.ID)
			if message, stop := r.stopRequested(ctx, persistCtx, job.ID); stop {
				return r.stop(persistCtx, run, message)
			}
		default:
		}

		row := domain.Normalize(raw)
		if !row.Valid() {
			run.recordFailure(row)
			if job.DuplicateStrategy == domain.StrategyFail {
				return r.abort(persistCtx, run, fmt.Sprintf("Validation failed at row %d: %s", row.RowNumber, strings.Join(row.Errors, "; ")))
			}
			continue
		}

		// The resolver must observe earlier rows of this file with the same key.
		if run.writer.Holds(row.NationalID) {
			if done, err := r.flush(ctx, persistCtx, run); done {
				return err
			}
		}

		outcome, err := r.resolver.Resolve(persistCtx, row, job.DuplicateStrategy)
		if err != nil {
			return r.fail(persistCtx, run, err)
		}

		switch outcome.Kind {
		case OutcomeInsert, OutcomeUpdate:
			flushed, err := run.writer.Add(persistCtx, outcome.Patient)
			if err != nil {
				return r.fail(persistCtx, run, fmt.Errorf("flush chunk: %w", err))
			}
			if flushed > 0 {
				if done, err := r.afterFlush(ctx, persistCtx, run, flushed); done {
					return err
				}
			}
		case OutcomeSkip:
			// A skipped duplicate is a successful row; the stored patient stays as is.
			job.SuccessCount++
			metrics.AddRowsMetric(metrics.RowSkipped, 1)
		case OutcomeAbort:
			row.AddError(outcome.Reason)
			run.recordFailure(row)
			return r.abort(persistCtx, run, fmt.Sprintf("%s at row %d", outcome.Reason, row.RowNumber))
		}
	}

	flushed, err := run.writer.Flush(persistCtx)
	if err != nil {
		return r.fail(persistCtx, run, fmt.Errorf("flush last chunk: %w", err))
	}
	job.SuccessCount += int64(flushed)

	if len(run.failures) > 0 {
		return r.finish(persistCtx, run, domain.StatusPartialFailed, fmt.Sprintf("%d of %d rows failed", job.FailedCount, job.TotalRows))
	}
	return r.finish(persistCtx, run, domain.StatusSuccess, "")
}

func (r *ImportRunner) readSource(ctx context.Context, job *domain.ImportJob) (domain.ParseResult, error) {
	rc, err := r.source.Open(ctx, job.SourcePath)
	if err != nil {
		return domain.ParseResult{}, fmt.Errorf("cannot open source file: %w", err)
	}
	defer rc.Close()

	parsed, err := r.reader.Read(rc, job.SourceFileName)
	if err != nil {
		return domain.ParseResult{}, fmt.Errorf("cannot read source file: %w", err)
	}
	return parsed, nil
}

// flush writes the pending chunk outside the regular size trigger. done is
// true when the run has ended and err is its result.
func (r *ImportRunner) flush(ctx, persistCtx context.Context, run *importRun) (bool, error) {
	flushed, err := run.writer.Flush(persistCtx)
	if err != nil {
		return true, r.fail(persistCtx, run, fmt.Errorf("flush chunk: %w", err))
	}
	if flushed == 0 {
		return false, nil
	}
	return r.afterFlush(ctx, persistCtx, run, flushed)
}

// afterFlush publishes progress and is the cooperative cancellation checkpoint.
func (r *ImportRunner) afterFlush(ctx, persistCtx context.Context, run *importRun, flushed int) (bool, error) {
	job := run.job
	job.SuccessCount += int64(flushed)
	job.RecomputeProcessed()

	if err := r.jobs.Save(persistCtx, job); err != nil {
		if errors.Is(err, domain.ErrImportJobFinished) {
			r.log.Warnf("import job %s was finished elsewhere, stopping", job.ID)
			return true, err
		}
		return true, r.fail(persistCtx, run, fmt.Errorf("save progress: %w", err))
	}
	r.heartbeat(persistCtx, job.ID)
	r.log.Debugf("import job %s progress: %d/%d", job.ID, job.ProcessedRows, job.TotalRows)

	if message, stop := r.stopRequested(ctx, persistCtx, job.ID); stop {
		return true, r.finish(persistCtx, run, domain.StatusCancelled, message)
	}
	return false, nil
}

func (r *ImportRunner) heartbeat(ctx context.Context, jobID string) {
	if err := r.jobs.Heartbeat(ctx, jobID, r.cfg.LeaseDuration); err != nil {
		r.log.Warnf("heartbeat for import job %s failed: %v", jobID, err)
	}
}

func (r *ImportRunner) stopRequested(ctx, persistCtx context.Context, jobID string) (string, bool) {
	if ctx.Err() != nil {
		return msgShutdown, true
	}
	requested, err := r.jobs.CancelRequested(persistCtx, jobID)
	if err != nil {
		r.log.Warnf("read cancel flag for import job %s: %v", jobID, err)
		return "", false
	}
	if requested {
		return msgCancelled, true
	}
	return "", false
}

// stop cancels after persisting what the writer already holds.
func (r *ImportRunner) stop(ctx context.Context, run *importRun, message string) error {
	flushed, err := run.writer.Flush(ctx)
	if err != nil {
		return r.fail(ctx, run, fmt.Errorf("flush chunk: %w", err))
	}
	run.job.SuccessCount += int64(flushed)
	return r.finish(ctx, run, domain.StatusCancelled, message)
}

// abort ends a FAIL-strategy run. Rows resolved before the offending one are
// still written.
func (r *ImportRunner) abort(ctx context.Context, run *importRun, message string) error {
	flushed, err := run.writer.Flush(ctx)
	if err != nil {
		return r.fail(ctx, run, fmt.Errorf("flush chunk: %w", err))
	}
	run.job.SuccessCount += int64(flushed)
	return r.finish(ctx, run, domain.StatusFailed, message)
}

func (r *ImportRunner) fail(ctx context.Context, run *importRun, cause error) error {
	r.log.Errorf("import job %s failed: %v", run.job.ID, cause)
	return r.finish(ctx, run, domain.StatusFailed, cause.Error())
}

func (r *ImportRunner) transition(ctx context.Context, run *importRun, next domain.JobStatus) error {
	job := run.job
	if err := job.Transition(next, r.cfg.Now()); err != nil {
		return err
	}
	if err := r.jobs.Save(ctx, job); err != nil {
		return fmt.Errorf("save import job %s as %s: %w", job.ID, next, err)
	}
	return nil
}

// finish moves the job to a terminal status, attaching the error report when
// any row failed. A report that cannot be written is logged and left out.
func (r *ImportRunner) finish(ctx context.Context, run *importRun, status domain.JobStatus, message string) error {
	job := run.job
	job.RecomputeProcessed()
	job.Message = truncateMessage(message)

	if len(run.failures) > 0 {
		path, err := r.reports.Write(job.ID, run.failures)
		if err != nil {
			r.log.Errorf("write error report for import job %s: %v", job.ID, err)
		} else {
			job.ErrorReportPath = path
		}
	}

	if err := r.transition(ctx, run, status); err != nil {
		r.log.Errorf("finish import job %s: %v", job.ID, err)
		return err
	}

	metrics.IncreaseJobsTotalMetric(string(status))
	r.log.Infof("import job %s finished %s: total=%d processed=%d success=%d failed=%d skipped=%d",
		job.ID, status, job.TotalRows, job.ProcessedRows, job.SuccessCount, job.FailedCount, job.SkippedCount)
	return nil
}

func truncateMessage(message string) string {
	message = strings.TrimSpace(message)
	if len(message) <= maxMessageLength {
		return message
	}
	return message[:maxMessageLength]
}
