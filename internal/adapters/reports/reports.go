// Package reports renders pipeline report artifacts asynchronously and
// stores them in an object store. Each report kind has a fixed output
// format: the pipeline board serializes to JSON, the matching matrix to CSV
// and the demand gantt to a PNG timeline.
package reports

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"
)

// Kind identifies a report artifact type.
type Kind string

const (
	KindPipelineBoard  Kind = "pipeline_board"
	KindMatchingMatrix Kind = "matching_matrix"
	KindDemandGantt    Kind = "demand_gantt"
)

func (k Kind) valid() bool {
	switch k {
	case KindPipelineBoard, KindMatchingMatrix, KindDemandGantt:
		return true
	}
	return false
}

func (k Kind) contentType() string {
	switch k {
	case KindPipelineBoard:
		return "application/json"
	case KindMatchingMatrix:
		return "text/csv"
	case KindDemandGantt:
		return "image/png"
	}
	return "application/octet-stream"
}

func (k Kind) extension() string {
	switch k {
	case KindPipelineBoard:
		return "json"
	case KindMatchingMatrix:
		return "csv"
	case KindDemandGantt:
		return "png"
	}
	return "bin"
}

// Status describes the lifecycle stage of a report job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Artifact describes a stored report output.
type Artifact struct {
	Key         string    `json:"key"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Job tracks one report request and its resulting artifact.
type Job struct {
	ID          string     `json:"id"`
	Kind        Kind       `json:"kind"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	Artifact    *Artifact  `json:"artifact,omitempty"`
	RequestedBy string     `json:"requested_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (j Job) copy() Job {
	dup := j
	if j.Artifact != nil {
		a := *j.Artifact
		dup.Artifact = &a
	}
	return dup
}

// AuditLogger records report audit entries.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditEntry captures one report lifecycle event.
type AuditEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor"`
	Kind       Kind      `json:"kind"`
	Status     Status    `json:"status"`
	Note       string    `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

const auditAction = "report_render"

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", b[:])
}
