package patient_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	domain "github.com/mohammadpnp/patient-import/internal/domain/patient"
)

type fakePatientStore struct {
	mu         sync.Mutex
	byKey      map[string]domain.Patient
	flushSizes []int
	failOnCall int
	failErr    error
	nextID     int
}

func newFakePatientStore(existing ...domain.Patient) *fakePatientStore {
	s := &fakePatientStore{byKey: make(map[string]domain.Patient)}
	for _, p := range existing {
		s.byKey[p.NationalID] = p
	}
	return s
}

func (s *fakePatientStore) FindByNationalID(ctx context.Context, nationalID string) (*domain.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byKey[nationalID]
	if !ok {
		return nil, domain.ErrPatientNotFound
	}
	return &p, nil
}

func (s *fakePatientStore) BulkUpsert(ctx context.Context, patients []domain.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushSizes = append(s.flushSizes, len(patients))
	if s.failOnCall > 0 && len(s.flushSizes) == s.failOnCall {
		return s.failErr
	}
	for _, p := range patients {
		if p.ID == "" {
			if _, taken := s.byKey[p.NationalID]; taken {
				return fmt.Errorf("unique violation on %s", p.NationalID)
			}
			s.nextID++
			p.ID = fmt.Sprintf("p-%d", s.nextID)
		}
		s.byKey[p.NationalID] = p
	}
	return nil
}

func (s *fakePatientStore) snapshot() map[string]domain.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.Patient, len(s.byKey))
	for k, v := range s.byKey {
		out[k] = v
	}
	return out
}

type fakeJobRepo struct {
	mu            sync.Mutex
	statuses      []domain.JobStatus
	progress      []int64
	saved         *domain.ImportJob
	saveErr       error
	cancelAfter   int
	cancelFlag    bool
	heartbeats    int
	created       []*domain.ImportJob
	createErr     error
	cancelResult  *domain.ImportJob
	cancelErr     error
	claimQueue    []*domain.ImportJob
	expiredReaped int
	findResult    *domain.ImportJob
	findErr       error
}

func (f *fakeJobRepo) Create(ctx context.Context, job *domain.ImportJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	cp := *job
	f.created = append(f.created, &cp)
	return nil
}

func (f *fakeJobRepo) Save(ctx context.Context, job *domain.ImportJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	cp := *job
	f.saved = &cp
	f.statuses = append(f.statuses, job.Status)
	f.progress = append(f.progress, job.ProcessedRows)
	return nil
}

func (f *fakeJobRepo) FindByID(ctx context.Context, jobID string) (*domain.ImportJob, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findResult, nil
}

func (f *fakeJobRepo) Heartbeat(ctx context.Context, jobID string, lease time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heartbeats++
	return nil
}

func (f *fakeJobRepo) CancelRequested(ctx context.Context, jobID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelAfter > 0 && f.heartbeats >= f.cancelAfter {
		return true, nil
	}
	return f.cancelFlag, nil
}

func (f *fakeJobRepo) RequestCancel(ctx context.Context, jobID string, at time.Time) (*domain.ImportJob, error) {
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	return f.cancelResult, nil
}

func (f *fakeJobRepo) ClaimNext(ctx context.Context, lease time.Duration) (*domain.ImportJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.claimQueue) == 0 {
		return nil, nil
	}
	job := f.claimQueue[0]
	f.claimQueue = f.claimQueue[1:]
	return job, nil
}

func (f *fakeJobRepo) Claim(ctx context.Context, jobID string, lease time.Duration) (*domain.ImportJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, job := range f.claimQueue {
		if job.ID == jobID {
			f.claimQueue = append(f.claimQueue[:i], f.claimQueue[i+1:]...)
			job.Status = domain.StatusValidating
			return job, nil
		}
	}
	return nil, domain.ErrImportJobNotFound
}

func (f *fakeJobRepo) FailExpired(ctx context.Context, message string, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expiredReaped++
	return 0, nil
}

func (f *fakeJobRepo) last() *domain.ImportJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved
}

type fakeSource struct {
	files map[string]string
}

func (s *fakeSource) Open(ctx context.Context, sourcePath string) (io.ReadCloser, error) {
	content, ok := s.files[sourcePath]
	if !ok {
		return nil, fmt.Errorf("open file %s: %w", sourcePath, errors.New("no such file"))
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

type fakeReportWriter struct {
	failures []domain.RowFailure
	err      error
	calls    int
}

func (w *fakeReportWriter) Write(jobID string, failures []domain.RowFailure) (string, error) {
	w.calls++
	if w.err != nil {
		return "", w.err
	}
	w.failures = append([]domain.RowFailure(nil), failures...)
	return "/reports/errors-" + jobID + ".csv", nil
}
