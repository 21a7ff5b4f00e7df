package service

import (
	"context"

	"pcms/internal/domain"
	id "pcms/pkg/domain"
	dErrors "pcms/pkg/domain-errors"
	audit "pcms/pkg/platform/audit"
	"pcms/pkg/requestcontext"
)

// emit logs the event and hands it to the publisher. It runs inside the unit
// of work, so a publisher failure aborts the operation.
func (s *Service) emit(ctx context.Context, event audit.Event, attributes ...any) error {
	s.log(ctx, event.Action, attributes...)
	if s.auditPublisher == nil {
		return nil
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

// logAudit is the best-effort variant for events outside a unit of work.
func (s *Service) logAudit(ctx context.Context, event audit.Event, attributes ...any) {
	s.log(ctx, event.Action, attributes...)
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "event", event.Action, "error", err)
	}
}

func (s *Service) log(ctx context.Context, event string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

func caseEvent(event audit.AuditEvent, c *domain.Case, actor id.UserID) audit.Event {
	return audit.Event{
		Action:     string(event),
		ActorID:    actor,
		EntityType: "case",
		EntityID:   c.ID.String(),
		CaseID:     c.ID.String(),
		CaseNumber: c.CaseNumber,
	}
}

func childEvent(event audit.AuditEvent, entityType, entityID string, caseID id.CaseID, actor id.UserID) audit.Event {
	return audit.Event{
		Action:     string(event),
		ActorID:    actor,
		EntityType: entityType,
		EntityID:   entityID,
		CaseID:     caseID.String(),
	}
}
