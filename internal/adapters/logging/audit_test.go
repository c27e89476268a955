package logging_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"matchcore/internal/adapters/logging"
	"matchcore/internal/adapters/reports"
	"matchcore/internal/core"
)

func TestServiceAuditLoggerLevels(t *testing.T) {
	obsCore, logs := observer.New(zap.InfoLevel)
	audit := logging.NewServiceAuditLogger(zap.New(obsCore))
	ctx := context.Background()

	audit.Record(ctx, core.AuditEntry{
		Operation:  "create_demand",
		Status:     core.AuditStatusSuccess,
		Entity:     core.EntityDemand,
		EntityID:   "REQ-20260205-001",
		OccurredAt: time.Now().UTC(),
	})
	audit.Record(ctx, core.AuditEntry{
		Operation:  "create_demand",
		Status:     core.AuditStatusError,
		Error:      "customer_name: required",
		OccurredAt: time.Now().UTC(),
	})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("log entries = %d, want 2", len(entries))
	}
	if entries[0].Level != zap.InfoLevel {
		t.Fatalf("success entry level = %s", entries[0].Level)
	}
	fields := entries[0].ContextMap()
	if fields["operation"] != "create_demand" || fields["entity_id"] != "REQ-20260205-001" {
		t.Fatalf("success fields = %+v", fields)
	}
	if entries[1].Level != zap.WarnLevel {
		t.Fatalf("error entry level = %s", entries[1].Level)
	}
	if entries[1].ContextMap()["error"] != "customer_name: required" {
		t.Fatalf("error fields = %+v", entries[1].ContextMap())
	}
	if entries[0].LoggerName != "audit" {
		t.Fatalf("logger name = %s", entries[0].LoggerName)
	}
}

func TestReportAuditLoggerFields(t *testing.T) {
	obsCore, logs := observer.New(zap.InfoLevel)
	audit := logging.NewReportAuditLogger(zap.New(obsCore))

	audit.Record(context.Background(), reports.AuditEntry{
		ID:         "abc123",
		Action:     "report_render",
		Actor:      "王芳",
		Kind:       reports.KindPipelineBoard,
		Status:     reports.StatusSucceeded,
		OccurredAt: time.Now().UTC(),
	})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["kind"] != "pipeline_board" || fields["status"] != "succeeded" || fields["actor"] != "王芳" {
		t.Fatalf("fields = %+v", fields)
	}
	if entries[0].LoggerName != "reports" {
		t.Fatalf("logger name = %s", entries[0].LoggerName)
	}
}
