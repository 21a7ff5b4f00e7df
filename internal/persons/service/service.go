// Package service manages the person registry. Persons exist independently
// of cases and are linked to them through the case service.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pcms/internal/domain"
	"pcms/internal/persons/models"
	"pcms/internal/storage"
	id "pcms/pkg/domain"
	dErrors "pcms/pkg/domain-errors"
	audit "pcms/pkg/platform/audit"
	"pcms/pkg/platform/sentinel"
	"pcms/pkg/requestcontext"
)

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          storage.Store
	logger         *slog.Logger
	auditPublisher AuditPublisher
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

func New(store storage.Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	s := &Service{store: store, tracer: otel.Tracer("pcms/internal/persons/service")}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) Create(ctx context.Context, req *models.CreatePersonRequest) (*domain.Person, error) {
	ctx, span := s.tracer.Start(ctx, "persons.create")
	defer span.End()

	req.Normalize()
	if err := req.Validate(requestcontext.Now(ctx)); err != nil {
		return nil, err
	}

	var person *domain.Person
	err := s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		p := &domain.Person{
			ID:          id.PersonID(uuid.New()),
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			DateOfBirth: req.DateOfBirth,
			ContactInfo: req.ContactInfo,
			CreatedAt:   requestcontext.Now(txCtx),
		}
		if err := tx.Persons().Create(txCtx, p); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create person")
		}
		if err := s.emit(txCtx, audit.EventPersonCreated, p.ID); err != nil {
			return err
		}
		person = p
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return nil, err
	}
	return person, nil
}

func (s *Service) Get(ctx context.Context, personID id.PersonID) (*domain.Person, error) {
	ctx, span := s.tracer.Start(ctx, "persons.get")
	defer span.End()

	var person *domain.Person
	err := s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		p, err := tx.Persons().Get(txCtx, personID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "person not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load person")
		}
		person = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return person, nil
}

// Delete removes the person and their case links. Cases survive. A person
// with a booking cannot be deleted.
func (s *Service) Delete(ctx context.Context, personID id.PersonID) error {
	ctx, span := s.tracer.Start(ctx, "persons.delete")
	defer span.End()

	err := s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		if err := tx.Persons().Delete(txCtx, personID); err != nil {
			switch {
			case errors.Is(err, sentinel.ErrNotFound):
				return dErrors.New(dErrors.CodeNotFound, "person not found")
			case errors.Is(err, sentinel.ErrInUse):
				return dErrors.New(dErrors.CodeConflict, "person has bookings and cannot be deleted")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete person")
		}
		return s.emit(txCtx, audit.EventPersonDeleted, personID)
	})
	if err != nil {
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	return err
}

func (s *Service) emit(ctx context.Context, event audit.AuditEvent, personID id.PersonID) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event),
			"person_id", personID.String(),
			"request_id", requestcontext.RequestID(ctx),
			"event", string(event),
			"log_type", "audit",
		)
	}
	if s.auditPublisher == nil {
		return nil
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:     string(event),
		ActorID:    requestcontext.UserID(ctx),
		EntityType: "person",
		EntityID:   personID.String(),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}
