package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"pcms/internal/storage/memory"
	"pcms/internal/vehicles/models"
	id "pcms/pkg/domain"
	dErrors "pcms/pkg/domain-errors"
	audit "pcms/pkg/platform/audit"
	"pcms/pkg/platform/audit/publisher"
	auditmemory "pcms/pkg/platform/audit/store/memory"
	"pcms/pkg/requestcontext"
)

type VehicleServiceSuite struct {
	suite.Suite
	store   *memory.Store
	events  *auditmemory.InMemoryStore
	service *Service
	ctx     context.Context
	now     time.Time
	officer id.UserID
}

func TestVehicleServiceSuite(t *testing.T) {
	suite.Run(t, new(VehicleServiceSuite))
}

func (s *VehicleServiceSuite) SetupTest() {
	s.store = memory.New()
	s.events = auditmemory.NewInMemoryStore()
	s.now = time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.officer = id.UserID(uuid.New())

	var err error
	s.service, err = New(s.store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(publisher.NewPublisher(s.events)),
	)
	s.Require().NoError(err)
}

func (s *VehicleServiceSuite) create() id.VehicleID {
	v, err := s.service.Create(s.ctx, s.officer, &models.CreateVehicleRequest{
		Make: "Vauxhall", Model: "Astra", Year: 2015, VIN: "w0lpd6ex5f1000001",
		LicensePlate: "ye15 abc", Color: "Red", Description: "dent on rear bumper",
	})
	s.Require().NoError(err)
	return v.ID
}

// =============================================================================
// Create / Get
// =============================================================================

func (s *VehicleServiceSuite) TestNew() {
	_, err := New(nil)
	s.Error(err)
}

func (s *VehicleServiceSuite) TestCreate() {
	s.Run("stores a normalized vehicle and records an event", func() {
		vehicleID := s.create()

		got, err := s.service.Get(s.ctx, vehicleID)
		s.Require().NoError(err)
		s.Equal("W0LPD6EX5F1000001", got.VIN)
		s.Equal("YE15 ABC", got.LicensePlate)
		s.Equal(s.officer, got.CreatedBy)
		s.Equal(s.now, got.CreatedAt)
		s.False(got.Modified())

		events, err := s.events.ListByAction(s.ctx, audit.EventVehicleCreated)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(vehicleID.String(), events[0].EntityID)
		s.Equal("vehicle", events[0].EntityType)
		s.Equal(s.officer, events[0].ActorID)
	})

	s.Run("invalid request writes nothing", func() {
		_, err := s.service.Create(s.ctx, s.officer, &models.CreateVehicleRequest{Make: "Ford"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		events, err := s.events.ListByAction(s.ctx, audit.EventVehicleCreated)
		s.Require().NoError(err)
		s.Len(events, 1)
	})
}

func (s *VehicleServiceSuite) TestGetMissing() {
	_, err := s.service.Get(s.ctx, id.VehicleID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

// =============================================================================
// Update
// =============================================================================

func (s *VehicleServiceSuite) TestUpdate() {
	vehicleID := s.create()
	editor := id.UserID(uuid.New())
	later := s.now.Add(time.Hour)
	color := "Black"
	desc := ""

	got, err := s.service.Update(requestcontext.WithTime(s.ctx, later), vehicleID, editor,
		&models.UpdateVehicleRequest{Color: &color, Description: &desc})
	s.Require().NoError(err)
	s.Equal("Black", got.Color)
	s.Empty(got.Description)
	s.Equal("Astra", got.Model, "fields not in the patch are kept")
	s.Require().True(got.Modified())
	s.Equal(editor, *got.LastModifiedBy)
	s.Equal(later, *got.LastModifiedAt)

	stored, err := s.service.Get(s.ctx, vehicleID)
	s.Require().NoError(err)
	s.Equal(got, stored)

	events, err := s.events.ListByAction(s.ctx, audit.EventVehicleUpdated)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(editor, events[0].ActorID)
}

func (s *VehicleServiceSuite) TestUpdateMissing() {
	color := "Green"
	_, err := s.service.Update(s.ctx, id.VehicleID(uuid.New()), s.officer, &models.UpdateVehicleRequest{Color: &color})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *VehicleServiceSuite) TestUpdateRejectsBlankRequiredField() {
	vehicleID := s.create()
	vin := " "
	_, err := s.service.Update(s.ctx, vehicleID, s.officer, &models.UpdateVehicleRequest{VIN: &vin})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	got, err := s.service.Get(s.ctx, vehicleID)
	s.Require().NoError(err)
	s.Equal("W0LPD6EX5F1000001", got.VIN)
}

func (s *VehicleServiceSuite) TestUpdateRolledBackWhenAuditFails() {
	vehicleID := s.create()
	svc, err := New(s.store, WithAuditPublisher(failingPublisher{}))
	s.Require().NoError(err)

	color := "White"
	_, err = svc.Update(s.ctx, vehicleID, s.officer, &models.UpdateVehicleRequest{Color: &color})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	got, err := s.service.Get(s.ctx, vehicleID)
	s.Require().NoError(err)
	s.Equal("Red", got.Color)
	s.False(got.Modified())
}

type failingPublisher struct{}

func (failingPublisher) Emit(context.Context, audit.Event) error { return errors.New("audit down") }
