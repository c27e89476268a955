package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var expvarSeq uint64

// OperationStats aggregates the outcomes of one service operation.
type OperationStats struct {
	Success int64   `json:"success"`
	Error   int64   `json:"error"`
	TotalMS float64 `json:"total_ms"`
	MaxMS   float64 `json:"max_ms"`
}

// ExpvarMetricsRecorder keeps per-operation aggregates and publishes them via
// expvar, for deployments that want process-local metrics without a scrape
// endpoint.
type ExpvarMetricsRecorder struct {
	name string
	mu   sync.Mutex
	ops  map[string]*OperationStats
}

// NewExpvarMetricsRecorder publishes a recorder under the supplied expvar
// name. An empty name gets a generated one so parallel tests do not collide.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("matchcore_service_metrics_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	rec := &ExpvarMetricsRecorder{name: name, ops: make(map[string]*OperationStats)}
	expvar.Publish(name, expvar.Func(func() any { return rec.Snapshot() }))
	return rec
}

// Name returns the expvar export name.
func (r *ExpvarMetricsRecorder) Name() string { return r.name }

// Snapshot copies the current aggregates keyed by operation.
func (r *ExpvarMetricsRecorder) Snapshot() map[string]OperationStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]OperationStats, len(r.ops))
	for op, stats := range r.ops {
		out[op] = *stats
	}
	return out
}

// Observe implements MetricsRecorder. Unnamed operations are dropped.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	ms := float64(duration) / float64(time.Millisecond)

	r.mu.Lock()
	defer r.mu.Unlock()
	stats := r.ops[operation]
	if stats == nil {
		stats = &OperationStats{}
		r.ops[operation] = stats
	}
	if success {
		stats.Success++
	} else {
		stats.Error++
	}
	stats.TotalMS += ms
	if ms > stats.MaxMS {
		stats.MaxMS = ms
	}
}

// TraceEvent is one completed operation span.
type TraceEvent struct {
	Operation string    `json:"operation"`
	OK        bool      `json:"ok"`
	ElapsedMS float64   `json:"elapsed_ms"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

// TraceLog implements Tracer by appending one JSON line per completed span
// and retaining the events for inspection.
type TraceLog struct {
	mu     sync.Mutex
	events []TraceEvent
	enc    *json.Encoder
}

// NewTraceLog writes completed spans to w as JSON lines. A nil writer keeps
// events in memory only.
func NewTraceLog(w io.Writer) *TraceLog {
	log := &TraceLog{}
	if w != nil {
		log.enc = json.NewEncoder(w)
	}
	return log
}

// Events returns a copy of every completed span so far.
func (l *TraceLog) Events() []TraceEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]TraceEvent, len(l.events))
	copy(out, l.events)
	return out
}

// Start implements Tracer.
func (l *TraceLog) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &traceLogSpan{log: l, operation: operation, started: time.Now()}
}

type traceLogSpan struct {
	log       *TraceLog
	operation string
	started   time.Time
}

func (s *traceLogSpan) End(err error) {
	ev := TraceEvent{
		Operation: s.operation,
		OK:        err == nil,
		ElapsedMS: float64(time.Since(s.started)) / float64(time.Millisecond),
		At:        time.Now().UTC(),
	}
	if err != nil {
		ev.Error = err.Error()
	}

	s.log.mu.Lock()
	s.log.events = append(s.log.events, ev)
	if s.log.enc != nil {
		_ = s.log.enc.Encode(ev)
	}
	s.log.mu.Unlock()
}
