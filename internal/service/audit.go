package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// AuditSink records append-only audit events. Record never fails the caller.
type AuditSink interface {
	Record(ctx context.Context, entry *domain.SystemLog)
}

type systemLogSink struct {
	logs    repository.SystemLogRepository
	timeout time.Duration
	logger  *zap.Logger
}

// NewAuditSink writes audit events to system_logs within timeout.
func NewAuditSink(logs repository.SystemLogRepository, timeout time.Duration, logger *zap.Logger) AuditSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &systemLogSink{logs: logs, timeout: timeout, logger: logger}
}

func (s *systemLogSink) Record(ctx context.Context, entry *domain.SystemLog) {
	if s.logs == nil || entry == nil {
		return
	}
	// Detached from the request so a cancelled caller still gets its audit row.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.logs.Create(writeCtx, entry); err != nil {
		s.logger.Warn("audit write failed",
			zap.String("action", entry.Action),
			zap.Stringp("resource_id", entry.ResourceID),
			zap.Error(err))
	}
}

func auditEntry(actor domain.Actor, action, resourceType, resourceID string, details map[string]any) *domain.SystemLog {
	actorID := actor.ID
	actorType := string(actor.Kind)
	entry := &domain.SystemLog{
		Action:       action,
		ResourceType: &resourceType,
		ResourceID:   &resourceID,
		Details:      details,
	}
	if actorID != "" {
		entry.ActorID = &actorID
		entry.ActorType = &actorType
	}
	return entry
}
