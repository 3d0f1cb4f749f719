package patient

import (
	"context"
	"time"

	domain "github.com/mohammadpnp/patient-import/internal/domain/patient"
	"github.com/mohammadpnp/patient-import/internal/metrics"
)

const DefaultChunkSize = 100

type patientBulkWriter interface {
	BulkUpsert(ctx context.Context, patients []domain.Patient) error
}

// ChunkWriter buffers resolved patients and persists them one chunk per
// BulkUpsert call. It belongs to a single run and is not safe for concurrent use.
type ChunkWriter struct {
	store   patientBulkWriter
	size    int
	pending []domain.Patient
	keys    map[string]struct{}
}

func NewChunkWriter(store patientBulkWriter, size int) *ChunkWriter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &ChunkWriter{
		store:   store,
		size:    size,
		pending: make([]domain.Patient, 0, size),
		keys:    make(map[string]struct{}, size),
	}
}

// Add buffers p and flushes once the chunk is full. flushed is the number of
// patients persisted by this call, zero when nothing was flushed.
func (w *ChunkWriter) Add(ctx context.Context, p domain.Patient) (flushed int, err error) {
	w.pending = append(w.pending, p)
	w.keys[p.NationalID] = struct{}{}
	if len(w.pending) < w.size {
		return 0, nil
	}
	return w.Flush(ctx)
}

// Flush persists whatever is buffered. An empty buffer is a no-op. The buffer
// is cleared even when the store fails; a failed flush ends the run.
func (w *ChunkWriter) Flush(ctx context.Context) (int, error) {
	if len(w.pending) == 0 {
		return 0, nil
	}

	chunk := w.pending
	w.pending = make([]domain.Patient, 0, w.size)
	w.keys = make(map[string]struct{}, w.size)

	start := time.Now()
	err := w.store.BulkUpsert(ctx, chunk)
	metrics.ObserveFlushDuration(time.Since(start))
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, p := range chunk {
		if p.ID == "" {
			inserted++
		}
	}
	metrics.AddRowsMetric(metrics.RowInserted, inserted)
	metrics.AddRowsMetric(metrics.RowUpdated, len(chunk)-inserted)
	return len(chunk), nil
}

// Holds reports whether a buffered patient carries nationalID.
func (w *ChunkWriter) Holds(nationalID string) bool {
	_, ok := w.keys[nationalID]
	return ok
}

func (w *ChunkWriter) Pending() int {
	return len(w.pending)
}
