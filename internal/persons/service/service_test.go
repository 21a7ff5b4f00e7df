package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"pcms/internal/domain"
	"pcms/internal/persons/models"
	"pcms/internal/storage"
	"pcms/internal/storage/memory"
	id "pcms/pkg/domain"
	dErrors "pcms/pkg/domain-errors"
	audit "pcms/pkg/platform/audit"
	"pcms/pkg/platform/audit/publisher"
	auditmemory "pcms/pkg/platform/audit/store/memory"
	"pcms/pkg/requestcontext"
)

type PersonServiceSuite struct {
	suite.Suite
	store   *memory.Store
	events  *auditmemory.InMemoryStore
	service *Service
	ctx     context.Context
	now     time.Time
}

func TestPersonServiceSuite(t *testing.T) {
	suite.Run(t, new(PersonServiceSuite))
}

func (s *PersonServiceSuite) SetupTest() {
	s.store = memory.New()
	s.events = auditmemory.NewInMemoryStore()
	s.now = time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	var err error
	s.service, err = New(s.store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(publisher.NewPublisher(s.events)),
	)
	s.Require().NoError(err)
}

func (s *PersonServiceSuite) TestNew() {
	_, err := New(nil)
	s.Error(err)
}

func (s *PersonServiceSuite) TestCreate() {
	s.Run("stores the person and records an event", func() {
		dob := time.Date(1985, 7, 2, 0, 0, 0, 0, time.UTC)
		p, err := s.service.Create(s.ctx, &models.CreatePersonRequest{
			FirstName:   "  Ada ",
			LastName:    "Byron",
			DateOfBirth: &dob,
		})
		s.Require().NoError(err)
		s.Equal("Ada Byron", p.FullName())
		s.Equal(s.now, p.CreatedAt)

		got, err := s.service.Get(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(p.ID, got.ID)

		events, err := s.events.ListByAction(s.ctx, audit.EventPersonCreated)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(p.ID.String(), events[0].EntityID)
		s.Equal("person", events[0].EntityType)
	})

	s.Run("requires a name", func() {
		_, err := s.service.Create(s.ctx, &models.CreatePersonRequest{ContactInfo: "555-0100"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects a birth date in the future", func() {
		future := s.now.Add(24 * time.Hour)
		_, err := s.service.Create(s.ctx, &models.CreatePersonRequest{LastName: "Doe", DateOfBirth: &future})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *PersonServiceSuite) TestGetMissing() {
	_, err := s.service.Get(s.ctx, id.PersonID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *PersonServiceSuite) TestDeleteKeepsCases() {
	p, err := s.service.Create(s.ctx, &models.CreatePersonRequest{FirstName: "John", LastName: "Doe"})
	s.Require().NoError(err)
	caseID := s.seedCase()
	s.Require().NoError(s.store.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.CasePersons().Add(ctx, &domain.CasePerson{CaseID: caseID, PersonID: p.ID, Role: domain.CaseRoleWitness, AddedAt: s.now})
	}))

	s.Require().NoError(s.service.Delete(s.ctx, p.ID))

	_, err = s.service.Get(s.ctx, p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Require().NoError(s.store.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		exists, err := tx.Cases().Exists(ctx, caseID)
		s.True(exists)
		links, listErr := tx.CasePersons().ListByCase(ctx, caseID)
		s.Empty(links)
		if err != nil {
			return err
		}
		return listErr
	}))

	events, err := s.events.ListByAction(s.ctx, audit.EventPersonDeleted)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(p.ID.String(), events[0].EntityID)
}

func (s *PersonServiceSuite) TestDeleteWithBookingIsConflict() {
	p, err := s.service.Create(s.ctx, &models.CreatePersonRequest{LastName: "Booked"})
	s.Require().NoError(err)
	officer := id.UserID(uuid.New())
	s.Require().NoError(s.store.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.Users().Create(ctx, &domain.User{ID: officer, UserName: "officer", CreatedAt: s.now}); err != nil {
			return err
		}
		return tx.Bookings().Create(ctx, &domain.Booking{ID: id.BookingID(uuid.New()), PersonID: p.ID, UserID: officer, BookedAt: s.now})
	}))

	err = s.service.Delete(s.ctx, p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.service.Get(s.ctx, p.ID)
	s.NoError(err)
}

func (s *PersonServiceSuite) TestDeleteMissing() {
	err := s.service.Delete(s.ctx, id.PersonID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *PersonServiceSuite) seedCase() id.CaseID {
	caseID := id.CaseID(uuid.New())
	creator := id.UserID(uuid.New())
	s.Require().NoError(s.store.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.Users().Create(ctx, &domain.User{ID: creator, UserName: creator.String(), CreatedAt: s.now}); err != nil {
			return err
		}
		c, err := domain.NewCase(caseID, "CA-2024-00000001", "Fraud", "", domain.CasePriorityLow, "", creator, s.now)
		if err != nil {
			return err
		}
		return tx.Cases().Create(ctx, c)
	}))
	return caseID
}
