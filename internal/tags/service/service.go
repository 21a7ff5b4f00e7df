package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pcms/internal/domain"
	"pcms/internal/platform/lock"
	"pcms/internal/storage"
	tagmetrics "pcms/internal/tags/metrics"
	"pcms/internal/tags/models"
	id "pcms/pkg/domain"
	dErrors "pcms/pkg/domain-errors"
	audit "pcms/pkg/platform/audit"
	"pcms/pkg/platform/sentinel"
	"pcms/pkg/requestcontext"
)

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service manages tags and their links to cases.
type Service struct {
	store          storage.Store
	locker         lock.Locker
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *tagmetrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *tagmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLocker replaces the in-process lock, e.g. with a Redis lock when
// several instances share a store.
func WithLocker(l lock.Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

func New(store storage.Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	s := &Service{
		store:  store,
		locker: lock.NewSharded(),
		tracer: otel.Tracer("pcms/internal/tags/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateTag records userID as creator without checking the user exists.
func (s *Service) CreateTag(ctx context.Context, userID id.UserID, req *models.CreateTagRequest) (tag *domain.Tag, err error) {
	ctx, done := s.begin(ctx, "create")
	defer func() { done(err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	err = s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		t := &domain.Tag{
			ID:          id.TagID(uuid.New()),
			Name:        req.Name,
			Description: req.Description,
			AuditTrail:  domain.NewAuditTrail(userID, requestcontext.Now(txCtx)),
		}
		if err := tx.Tags().Create(txCtx, t); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create tag")
		}
		if err := s.emit(txCtx, tagEvent(audit.EventTagCreated, t.ID, userID), "tag_id", t.ID.String(), "name", t.Name); err != nil {
			return err
		}
		tag = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *Service) GetTagByID(ctx context.Context, tagID id.TagID) (tag *domain.Tag, err error) {
	ctx, done := s.begin(ctx, "get")
	defer func() { done(err) }()

	err = s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		tag, err = tx.Tags().Get(txCtx, tagID)
		if err != nil {
			return wrapStoreErr(err, "tag not found", "load tag")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// UpdateTagByID applies the patch and stamps userID as last editor.
func (s *Service) UpdateTagByID(ctx context.Context, tagID id.TagID, userID id.UserID, req *models.UpdateTagRequest) (tag *domain.Tag, err error) {
	ctx, done := s.begin(ctx, "update")
	defer func() { done(err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	err = s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		t, err := tx.Tags().Get(txCtx, tagID)
		if err != nil {
			return wrapStoreErr(err, "tag not found", "load tag")
		}
		if req.Name != nil {
			t.Name = *req.Name
		}
		if req.Description != nil {
			t.Description = *req.Description
		}
		domain.Stamp(t, userID, requestcontext.Now(txCtx))
		if err := tx.Tags().Update(txCtx, t); err != nil {
			return wrapStoreErr(err, "tag not found", "update tag")
		}
		if err := s.emit(txCtx, tagEvent(audit.EventTagUpdated, t.ID, userID), "tag_id", t.ID.String()); err != nil {
			return err
		}
		tag = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// DeleteTagByID refuses while the tag is linked to any case.
func (s *Service) DeleteTagByID(ctx context.Context, tagID id.TagID) (outcome models.Outcome, err error) {
	ctx, done := s.begin(ctx, "delete")
	defer func() { done(err) }()

	err = s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		ok, err := tx.Tags().Exists(txCtx, tagID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check tag")
		}
		if !ok {
			outcome = models.OutcomeTagNotFound
			return nil
		}
		links, err := tx.CaseTags().CountForTag(txCtx, tagID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count tag links")
		}
		if links > 0 {
			outcome = models.OutcomeInUse
			return nil
		}

		if err := tx.Tags().Delete(txCtx, tagID); err != nil {
			switch {
			case errors.Is(err, sentinel.ErrInUse):
				outcome = models.OutcomeInUse
				return nil
			case errors.Is(err, sentinel.ErrNotFound):
				outcome = models.OutcomeTagNotFound
				return nil
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete tag")
		}
		outcome = models.OutcomeApplied
		return s.emit(txCtx, tagEvent(audit.EventTagDeleted, tagID, requestcontext.UserID(txCtx)), "tag_id", tagID.String())
	})
	if err != nil {
		return models.OutcomeNoop, err
	}
	s.recordOutcome("delete", outcome)
	return outcome, nil
}

// GetTagsForCase distinguishes a missing case (not found) from a case with
// no tags (empty, non-nil slice).
func (s *Service) GetTagsForCase(ctx context.Context, caseID id.CaseID) (tags []*domain.Tag, err error) {
	ctx, done := s.begin(ctx, "list_for_case")
	defer func() { done(err) }()

	err = s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		ok, err := tx.Cases().Exists(txCtx, caseID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check case")
		}
		if !ok {
			return dErrors.New(dErrors.CodeNotFound, "case not found")
		}
		tags, err = tx.CaseTags().TagsForCase(txCtx, caseID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tags for case")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []*domain.Tag{}
	}
	return tags, nil
}

// LinkTagToCase adds the pair to the case's tag set. A pair already present
// is a no-op. Calls for the same pair are serialized by the locker, and the
// store resolves any duplicate insert that still races as a no-op.
func (s *Service) LinkTagToCase(ctx context.Context, tagID id.TagID, caseID id.CaseID) (outcome models.Outcome, err error) {
	ctx, done := s.begin(ctx, "link")
	defer func() { done(err) }()

	unlock, err := s.locker.Lock(ctx, pairKey(tagID, caseID))
	if err != nil {
		return models.OutcomeNoop, err
	}
	defer unlock()

	err = s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		var missing bool
		outcome, missing, err = endpoints(txCtx, tx, tagID, caseID)
		if err != nil || missing {
			return err
		}
		inserted, err := tx.CaseTags().Link(txCtx, &domain.CaseTag{
			CaseID:   caseID,
			TagID:    tagID,
			LinkedAt: requestcontext.Now(txCtx),
		})
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return errEndpointGone
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to link tag")
		}
		if !inserted {
			outcome = models.OutcomeNoop
			return nil
		}
		outcome = models.OutcomeApplied
		return s.emit(txCtx, linkEvent(audit.EventTagLinked, tagID, caseID, requestcontext.UserID(txCtx)),
			"tag_id", tagID.String(), "case_id", caseID.String())
	})
	if errors.Is(err, errEndpointGone) {
		outcome, err = s.resolveGoneEndpoint(ctx, tagID, caseID)
	}
	if err != nil {
		return models.OutcomeNoop, err
	}
	s.recordOutcome("link", outcome)
	return outcome, nil
}

// UnlinkTagFromCase removes the pair. A pair not present is a no-op.
func (s *Service) UnlinkTagFromCase(ctx context.Context, tagID id.TagID, caseID id.CaseID) (outcome models.Outcome, err error) {
	ctx, done := s.begin(ctx, "unlink")
	defer func() { done(err) }()

	unlock, err := s.locker.Lock(ctx, pairKey(tagID, caseID))
	if err != nil {
		return models.OutcomeNoop, err
	}
	defer unlock()

	err = s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		var missing bool
		outcome, missing, err = endpoints(txCtx, tx, tagID, caseID)
		if err != nil || missing {
			return err
		}
		removed, err := tx.CaseTags().Unlink(txCtx, caseID, tagID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to unlink tag")
		}
		if !removed {
			outcome = models.OutcomeNoop
			return nil
		}
		outcome = models.OutcomeApplied
		return s.emit(txCtx, linkEvent(audit.EventTagUnlinked, tagID, caseID, requestcontext.UserID(txCtx)),
			"tag_id", tagID.String(), "case_id", caseID.String())
	})
	if err != nil {
		return models.OutcomeNoop, err
	}
	s.recordOutcome("unlink", outcome)
	return outcome, nil
}

// errEndpointGone marks a link insert that lost its tag or case to a delete
// committed after the existence checks.
var errEndpointGone = errors.New("link endpoint removed concurrently")

// resolveGoneEndpoint re-reads both ends in a fresh unit of work, since the
// failed insert may have aborted the first one, and reports which is missing.
func (s *Service) resolveGoneEndpoint(ctx context.Context, tagID id.TagID, caseID id.CaseID) (models.Outcome, error) {
	var outcome models.Outcome
	err := s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		var (
			missing bool
			err     error
		)
		outcome, missing, err = endpoints(txCtx, tx, tagID, caseID)
		if err != nil {
			return err
		}
		if !missing {
			return dErrors.New(dErrors.CodeInternal, "failed to link tag: referenced row missing")
		}
		return nil
	})
	if err != nil {
		return models.OutcomeNoop, err
	}
	return outcome, nil
}

// endpoints checks both ends of a pair. missing is true when either is
// absent, with the outcome naming which.
func endpoints(ctx context.Context, tx storage.Tx, tagID id.TagID, caseID id.CaseID) (models.Outcome, bool, error) {
	ok, err := tx.Tags().Exists(ctx, tagID)
	if err != nil {
		return models.OutcomeNoop, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check tag")
	}
	if !ok {
		return models.OutcomeTagNotFound, true, nil
	}
	ok, err = tx.Cases().Exists(ctx, caseID)
	if err != nil {
		return models.OutcomeNoop, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check case")
	}
	if !ok {
		return models.OutcomeCaseNotFound, true, nil
	}
	return models.OutcomeNoop, false, nil
}

func pairKey(tagID id.TagID, caseID id.CaseID) string {
	return "case-tag:" + caseID.String() + ":" + tagID.String()
}

func wrapStoreErr(err error, notFound, action string) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFound)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+action)
}

func (s *Service) begin(ctx context.Context, op string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "tags."+op,
		trace.WithAttributes(attribute.String("request_id", requestcontext.RequestID(ctx))))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
		if s.metrics != nil {
			s.metrics.ObserveOperation(op, start)
		}
	}
}

func (s *Service) recordOutcome(op string, outcome models.Outcome) {
	if s.metrics != nil {
		s.metrics.IncrementOutcome(op, outcome.String())
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event, attributes ...any) error {
	if s.logger != nil {
		if requestID := requestcontext.RequestID(ctx); requestID != "" {
			attributes = append(attributes, "request_id", requestID)
		}
		args := append(attributes, "event", event.Action, "log_type", "audit")
		s.logger.InfoContext(ctx, event.Action, args...)
	}
	if s.auditPublisher == nil {
		return nil
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

func tagEvent(event audit.AuditEvent, tagID id.TagID, actor id.UserID) audit.Event {
	return audit.Event{
		Action:     string(event),
		ActorID:    actor,
		EntityType: "tag",
		EntityID:   tagID.String(),
	}
}

func linkEvent(event audit.AuditEvent, tagID id.TagID, caseID id.CaseID, actor id.UserID) audit.Event {
	return audit.Event{
		Action:     string(event),
		ActorID:    actor,
		EntityType: "tag",
		EntityID:   tagID.String(),
		CaseID:     caseID.String(),
	}
}
