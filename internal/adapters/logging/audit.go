// Package logging adapts the audit hooks onto structured zap loggers.
package logging

import (
	"context"

	"go.uber.org/zap"

	"matchcore/internal/adapters/reports"
	"matchcore/internal/core"
)

// ServiceAuditLogger writes service audit entries as structured log lines.
type ServiceAuditLogger struct {
	logger *zap.Logger
}

var _ core.AuditRecorder = (*ServiceAuditLogger)(nil)

// NewServiceAuditLogger wraps a zap logger. A nil logger falls back to a
// production-config logger writing to stderr.
func NewServiceAuditLogger(logger *zap.Logger) *ServiceAuditLogger {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return &ServiceAuditLogger{logger: logger.Named("audit")}
}

// Record implements core.AuditRecorder.
func (l *ServiceAuditLogger) Record(_ context.Context, entry core.AuditEntry) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("status", string(entry.Status)),
		zap.Time("occurred_at", entry.OccurredAt),
	}
	if entry.Entity != "" {
		fields = append(fields, zap.String("entity", string(entry.Entity)))
	}
	if entry.EntityID != "" {
		fields = append(fields, zap.String("entity_id", entry.EntityID))
	}
	if entry.Error != "" {
		fields = append(fields, zap.String("error", entry.Error))
		l.logger.Warn("service operation", fields...)
		return
	}
	l.logger.Info("service operation", fields...)
}

// Sync flushes buffered log entries.
func (l *ServiceAuditLogger) Sync() error {
	return l.logger.Sync()
}

// ReportAuditLogger writes report lifecycle entries as structured log lines.
type ReportAuditLogger struct {
	logger *zap.Logger
}

var _ reports.AuditLogger = (*ReportAuditLogger)(nil)

// NewReportAuditLogger wraps a zap logger, defaulting like
// NewServiceAuditLogger.
func NewReportAuditLogger(logger *zap.Logger) *ReportAuditLogger {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return &ReportAuditLogger{logger: logger.Named("reports")}
}

// Record implements reports.AuditLogger.
func (l *ReportAuditLogger) Record(_ context.Context, entry reports.AuditEntry) {
	l.logger.Info("report job",
		zap.String("id", entry.ID),
		zap.String("action", entry.Action),
		zap.String("actor", entry.Actor),
		zap.String("kind", string(entry.Kind)),
		zap.String("status", string(entry.Status)),
		zap.String("note", entry.Note),
		zap.Time("occurred_at", entry.OccurredAt),
	)
}
