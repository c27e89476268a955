package reports

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"matchcore/internal/core"
	"matchcore/internal/infra/blob"
)

// Worker renders report jobs asynchronously. Reads go through the service's
// committed views, outputs land in the object store under reports/<job id>/.
type Worker struct {
	service *core.Service
	store   blob.Store
	audit   AuditLogger

	queue chan string
	mu    sync.RWMutex
	jobs  map[string]*Job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker constructs a report worker. The audit logger may be nil.
func NewWorker(service *core.Service, store blob.Store, audit AuditLogger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		service: service,
		store:   store,
		audit:   audit,
		queue:   make(chan string, 32),
		jobs:    make(map[string]*Job),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins processing queued jobs.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for the loop to drain.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case id := <-w.queue:
			w.process(id)
		}
	}
}

// Enqueue schedules a report render and returns the queued job snapshot.
func (w *Worker) Enqueue(ctx context.Context, kind Kind, requestedBy string) (Job, error) {
	if !kind.valid() {
		return Job{}, fmt.Errorf("unknown report kind %s", kind)
	}
	now := time.Now().UTC()
	job := Job{
		ID:          newID(),
		Kind:        kind,
		Status:      StatusQueued,
		RequestedBy: requestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[job.ID] = &job
	queued := job.copy()
	w.mu.Unlock()

	w.record(ctx, queued, "")

	select {
	case w.queue <- job.ID:
	default:
		return Job{}, fmt.Errorf("report queue full")
	}
	return queued, nil
}

// Get returns a snapshot of the job.
func (w *Worker) Get(id string) (Job, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	job, ok := w.jobs[id]
	if !ok {
		return Job{}, false
	}
	return job.copy(), true
}

// Jobs returns snapshots of all known jobs.
func (w *Worker) Jobs() []Job {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]Job, 0, len(w.jobs))
	for _, job := range w.jobs {
		out = append(out, job.copy())
	}
	return out
}

func (w *Worker) process(id string) {
	job, ok := w.Get(id)
	if !ok {
		return
	}
	w.transition(id, StatusRunning, "")

	payload, err := w.render(job.Kind)
	if err != nil {
		w.transition(id, StatusFailed, err.Error())
		return
	}

	key := fmt.Sprintf("reports/%s/%s.%s", id, job.Kind, job.Kind.extension())
	info, err := w.store.Put(w.ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: job.Kind.contentType(),
		Metadata:    map[string]string{"kind": string(job.Kind)},
	})
	if err != nil {
		w.transition(id, StatusFailed, fmt.Sprintf("store artifact: %v", err))
		return
	}

	now := time.Now().UTC()
	artifact := Artifact{
		Key:         info.Key,
		ContentType: info.ContentType,
		SizeBytes:   info.Size,
		URL:         info.URL,
		CreatedAt:   info.LastModified,
	}
	var snapshot Job
	w.mu.Lock()
	if stored, ok := w.jobs[id]; ok {
		stored.Status = StatusSucceeded
		stored.Error = ""
		stored.Artifact = &artifact
		stored.UpdatedAt = now
		stored.CompletedAt = &now
		snapshot = stored.copy()
	}
	w.mu.Unlock()
	w.record(w.ctx, snapshot, "")
}

func (w *Worker) render(kind Kind) ([]byte, error) {
	switch kind {
	case KindPipelineBoard:
		return w.renderBoard(w.ctx)
	case KindMatchingMatrix:
		return w.renderMatrix(w.ctx)
	case KindDemandGantt:
		return w.renderGantt(w.ctx)
	}
	return nil, fmt.Errorf("unknown report kind %s", kind)
}

func (w *Worker) transition(id string, status Status, message string) {
	now := time.Now().UTC()
	w.mu.Lock()
	job, ok := w.jobs[id]
	if ok {
		job.Status = status
		job.Error = message
		job.UpdatedAt = now
		if status == StatusFailed {
			job.CompletedAt = &now
		}
	}
	var snapshot Job
	if ok {
		snapshot = job.copy()
	}
	w.mu.Unlock()
	if ok {
		w.record(w.ctx, snapshot, message)
	}
}

func (w *Worker) record(ctx context.Context, job Job, note string) {
	if w.audit == nil || job.ID == "" {
		return
	}
	w.audit.Record(ctx, AuditEntry{
		ID:         newID(),
		Action:     auditAction,
		Actor:      job.RequestedBy,
		Kind:       job.Kind,
		Status:     job.Status,
		Note:       note,
		OccurredAt: time.Now().UTC(),
	})
}

// MemoryAuditLog captures audit entries in memory for assertions.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// Record stores an audit entry.
func (l *MemoryAuditLog) Record(_ context.Context, entry AuditEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns a copy of the recorded entries.
func (l *MemoryAuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
