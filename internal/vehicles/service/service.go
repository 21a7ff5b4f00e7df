// Package service manages the vehicle registry: vehicles are created, read
// and patched, never deleted.
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
	"pcms/internal/storage"
	"pcms/internal/vehicles/models"
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
	s := &Service{store: store, tracer: otel.Tracer("pcms/internal/vehicles/service")}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) Create(ctx context.Context, userID id.UserID, req *models.CreateVehicleRequest) (*domain.Vehicle, error) {
	ctx, span := s.tracer.Start(ctx, "vehicles.create")
	defer span.End()

	req.Normalize()
	if err := req.Validate(requestcontext.Now(ctx)); err != nil {
		return nil, err
	}

	var vehicle *domain.Vehicle
	err := s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		v := &domain.Vehicle{
			ID:           id.VehicleID(uuid.New()),
			Make:         req.Make,
			Model:        req.Model,
			Year:         req.Year,
			VIN:          req.VIN,
			LicensePlate: req.LicensePlate,
			Description:  req.Description,
			Color:        req.Color,
			AuditTrail:   domain.NewAuditTrail(userID, requestcontext.Now(txCtx)),
		}
		if err := tx.Vehicles().Create(txCtx, v); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create vehicle")
		}
		if err := s.emit(txCtx, audit.EventVehicleCreated, v.ID, userID); err != nil {
			return err
		}
		vehicle = v
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return nil, err
	}
	return vehicle, nil
}

func (s *Service) Get(ctx context.Context, vehicleID id.VehicleID) (*domain.Vehicle, error) {
	ctx, span := s.tracer.Start(ctx, "vehicles.get")
	defer span.End()

	var vehicle *domain.Vehicle
	err := s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		v, err := tx.Vehicles().Get(txCtx, vehicleID)
		if err != nil {
			return storeErr(err, "failed to load vehicle")
		}
		vehicle = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vehicle, nil
}

// Update applies the non-nil fields of req and stamps the audit trail.
func (s *Service) Update(ctx context.Context, vehicleID id.VehicleID, userID id.UserID, req *models.UpdateVehicleRequest) (*domain.Vehicle, error) {
	ctx, span := s.tracer.Start(ctx, "vehicles.update")
	defer span.End()

	req.Normalize()
	if err := req.Validate(requestcontext.Now(ctx)); err != nil {
		return nil, err
	}

	var vehicle *domain.Vehicle
	err := s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		v, err := tx.Vehicles().Get(txCtx, vehicleID)
		if err != nil {
			return storeErr(err, "failed to load vehicle")
		}
		apply(v, req)
		domain.Stamp(v, userID, requestcontext.Now(txCtx))
		if err := tx.Vehicles().Update(txCtx, v); err != nil {
			return storeErr(err, "failed to update vehicle")
		}
		if err := s.emit(txCtx, audit.EventVehicleUpdated, v.ID, userID); err != nil {
			return err
		}
		vehicle = v
		return nil
	})
	if err != nil {
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		return nil, err
	}
	return vehicle, nil
}

func apply(v *domain.Vehicle, req *models.UpdateVehicleRequest) {
	if req.Make != nil {
		v.Make = *req.Make
	}
	if req.Model != nil {
		v.Model = *req.Model
	}
	if req.Year != nil {
		v.Year = *req.Year
	}
	if req.VIN != nil {
		v.VIN = *req.VIN
	}
	if req.LicensePlate != nil {
		v.LicensePlate = *req.LicensePlate
	}
	if req.Description != nil {
		v.Description = *req.Description
	}
	if req.Color != nil {
		v.Color = *req.Color
	}
}

func storeErr(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "vehicle not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func (s *Service) emit(ctx context.Context, event audit.AuditEvent, vehicleID id.VehicleID, actor id.UserID) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event),
			"vehicle_id", vehicleID.String(),
			"user_id", actor.String(),
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
		ActorID:    actor,
		EntityType: "vehicle",
		EntityID:   vehicleID.String(),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}
