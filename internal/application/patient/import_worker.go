package patient

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	domain "github.com/mohammadpnp/patient-import/internal/domain/patient"
)

const msgLeaseExpired = "import interrupted: worker stopped before finishing"

type importWorkerJobRepo interface {
	ClaimNext(ctx context.Context, leaseDuration time.Duration) (*domain.ImportJob, error)
	FailExpired(ctx context.Context, message string, now time.Time) (int64, error)
}

type jobRunner interface {
	Run(ctx context.Context, job *domain.ImportJob) error
}

type ImportWorkerConfig struct {
	Workers       int
	PollInterval  time.Duration
	LeaseDuration time.Duration
}

// ImportWorker runs a fixed pool of goroutines that claim PENDING jobs from
// the job store and hand them to the runner. Each job runs on exactly one
// goroutine.
type ImportWorker struct {
	repo   importWorkerJobRepo
	runner jobRunner
	cfg    ImportWorkerConfig
	wake   chan struct{}
	log    *zap.SugaredLogger

	once sync.Once
	wg   sync.WaitGroup
}

func NewImportWorker(repo importWorkerJobRepo, runner jobRunner, cfg ImportWorkerConfig) *ImportWorker {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Workers > 10 {
		cfg.Workers = 10
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.LeaseDuration <= 0 {
		cfg.LeaseDuration = 60 * time.Second
	}

	return &ImportWorker{
		repo:   repo,
		runner: runner,
		cfg:    cfg,
		wake:   make(chan struct{}, 1),
		log:    zap.S().Named("import_worker"),
	}
}

func (w *ImportWorker) Start(ctx context.Context) {
	w.once.Do(func() {
		w.reapExpired(ctx)
		for i := 0; i < w.cfg.Workers; i++ {
			w.wg.Add(1)
			go func() {
				defer w.wg.Done()
				w.workerLoop(ctx)
			}()
		}
		w.log.Infof("started %d import workers", w.cfg.Workers)
	})
}

// Notify wakes one idle worker without waiting for the next poll.
func (w *ImportWorker) Notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Wait blocks until every worker goroutine has returned.
func (w *ImportWorker) Wait() {
	w.wg.Wait()
}

func (w *ImportWorker) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := w.repo.ClaimNext(ctx, w.cfg.LeaseDuration)
		if err != nil {
			w.log.Errorf("claim next import job failed: %v", err)
			if !w.waitForWork(ctx) {
				return
			}
			continue
		}

		if job == nil {
			w.reapExpired(ctx)
			if !w.waitForWork(ctx) {
				return
			}
			continue
		}

		if err := w.ProcessJob(ctx, job); err != nil {
			w.log.Errorf("process import job %s failed: %v", job.ID, err)
		}
	}
}

func (w *ImportWorker) ProcessJob(ctx context.Context, job *domain.ImportJob) error {
	w.log.Infof("claimed import job %s (%s)", job.ID, job.SourceFileName)
	return w.runner.Run(ctx, job)
}

// reapExpired fails jobs whose worker died without finishing them.
func (w *ImportWorker) reapExpired(ctx context.Context) {
	n, err := w.repo.FailExpired(ctx, msgLeaseExpired, time.Now())
	if err != nil {
		if ctx.Err() == nil {
			w.log.Errorf("fail expired import jobs: %v", err)
		}
		return
	}
	if n > 0 {
		w.log.Warnf("marked %d interrupted import jobs as failed", n)
	}
}

func (w *ImportWorker) waitForWork(ctx context.Context) bool {
	timer := time.NewTimer(w.cfg.PollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-w.wake:
		return true
	case <-timer.C:
		return true
	}
}
