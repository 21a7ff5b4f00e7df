// Package storagetest holds the behaviour every storage.Store must share.
// Backends run it from their own tests with a factory for a clean store.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"pcms/internal/domain"
	"pcms/internal/storage"
	id "pcms/pkg/domain"
	"pcms/pkg/platform/sentinel"
)

// Suite exercises a storage.Store. NewStore must return an empty store.
type Suite struct {
	suite.Suite
	NewStore func() storage.Store

	store storage.Store
	ctx   context.Context
	now   time.Time
	seq   int
}

func (s *Suite) SetupTest() {
	s.store = s.NewStore()
	s.ctx = context.Background()
	s.now = time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
}

func (s *Suite) tx(fn func(ctx context.Context, tx storage.Tx) error) {
	s.T().Helper()
	s.Require().NoError(s.store.RunInTx(s.ctx, fn))
}

func (s *Suite) tick() time.Time {
	s.seq++
	return s.now.Add(time.Duration(s.seq) * time.Second)
}

func (s *Suite) seedUser() *domain.User {
	s.seq++
	u := &domain.User{ID: id.UserID(uuid.New()), UserName: "officer" + uuid.NewString()[:8], Email: uuid.NewString() + "@example.com", CreatedAt: s.now}
	s.tx(func(ctx context.Context, tx storage.Tx) error { return tx.Users().Create(ctx, u) })
	return u
}

func (s *Suite) newCase(number string, creator id.UserID) *domain.Case {
	c, err := domain.NewCase(id.CaseID(uuid.New()), number, "Burglary", "Back door forced", domain.CasePriorityHigh, "property", creator, s.tick())
	s.Require().NoError(err)
	return c
}

func (s *Suite) seedCase(number string, creator id.UserID) *domain.Case {
	c := s.newCase(number, creator)
	s.tx(func(ctx context.Context, tx storage.Tx) error { return tx.Cases().Create(ctx, c) })
	return c
}

func (s *Suite) seedTag(name string, creator id.UserID) *domain.Tag {
	t := &domain.Tag{ID: id.TagID(uuid.New()), Name: name, AuditTrail: domain.NewAuditTrail(creator, s.tick())}
	s.tx(func(ctx context.Context, tx storage.Tx) error { return tx.Tags().Create(ctx, t) })
	return t
}

func (s *Suite) seedPerson() *domain.Person {
	p := &domain.Person{ID: id.PersonID(uuid.New()), FirstName: "Jane", LastName: "Doe", CreatedAt: s.tick()}
	s.tx(func(ctx context.Context, tx storage.Tx) error { return tx.Persons().Create(ctx, p) })
	return p
}

func (s *Suite) TestCaseNumberNeverReused() {
	user := s.seedUser()
	first := s.seedCase("CA-2024-00000001", user.ID)

	dup := s.newCase("CA-2024-00000001", user.ID)
	err := s.store.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error { return tx.Cases().Create(ctx, dup) })
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	s.tx(func(ctx context.Context, tx storage.Tx) error { return tx.Cases().Delete(ctx, first.ID) })

	again := s.newCase("CA-2024-00000001", user.ID)
	err = s.store.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error { return tx.Cases().Create(ctx, again) })
	s.ErrorIs(err, sentinel.ErrAlreadyUsed, "numbers of deleted cases stay reserved")
}

func (s *Suite) TestCaseRoundTrip() {
	user := s.seedUser()
	c := s.seedCase("CA-2024-00000002", user.ID)

	s.tx(func(ctx context.Context, tx storage.Tx) error {
		got, err := tx.Cases().Get(ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(c.CaseNumber, got.CaseNumber)
		s.Equal(domain.CaseStatusOpen, got.Status)
		s.True(c.OpenedAt.Equal(got.OpenedAt))
		s.Nil(got.ClosedAt)

		s.Require().NoError(got.Edit(domain.CaseFields{Title: "Burglary", Status: domain.CaseStatusClosed, Priority: domain.CasePriorityLow}, user.ID, s.tick()))
		return tx.Cases().Update(ctx, got)
	})

	s.tx(func(ctx context.Context, tx storage.Tx) error {
		got, err := tx.Cases().Get(ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(domain.CaseStatusClosed, got.Status)
		s.NotNil(got.ClosedAt)

		got.CaseNumber = "CA-2024-99999999"
		s.Error(tx.Cases().Update(ctx, got), "case number is immutable")

		missing := s.newCase("CA-2024-00000003", user.ID)
		s.ErrorIs(tx.Cases().Update(ctx, missing), sentinel.ErrNotFound)
		return nil
	})
}

func (s *Suite) TestCaseDeleteCascades() {
	user := s.seedUser()
	c := s.seedCase("CA-2024-00000010", user.ID)
	person := s.seedPerson()
	tag := s.seedTag("cold-case", user.ID)

	action := &domain.CaseAction{ID: id.CaseActionID(uuid.New()), CaseID: c.ID, Name: "Canvass", AuditTrail: domain.NewAuditTrail(user.ID, s.tick())}
	report := &domain.Report{ID: id.ReportID(uuid.New()), CaseID: c.ID, Title: "Initial", AuditTrail: domain.NewAuditTrail(user.ID, s.tick())}
	ev := &domain.Evidence{ID: id.EvidenceID(uuid.New()), CaseID: c.ID, Type: "photo", CollectedAt: s.now, AuditTrail: domain.NewAuditTrail(user.ID, s.tick())}
	note := &domain.CaseNote{ID: id.CaseNoteID(uuid.New()), CaseID: c.ID, Content: "call back", CreatedBy: user.ID, CreatedAt: s.tick()}

	s.tx(func(ctx context.Context, tx storage.Tx) error {
		s.Require().NoError(tx.Actions().Create(ctx, action))
		s.Require().NoError(tx.Reports().Create(ctx, report))
		s.Require().NoError(tx.Evidence().Create(ctx, ev))
		s.Require().NoError(tx.Notes().Create(ctx, note))
		s.Require().NoError(tx.CasePersons().Add(ctx, &domain.CasePerson{CaseID: c.ID, PersonID: person.ID, Role: domain.CaseRoleWitness, AddedAt: s.now}))
		s.Require().NoError(tx.Assignments().Assign(ctx, &domain.Assignment{UserID: user.ID, CaseID: c.ID, AssignedAt: s.now}))
		linked, err := tx.CaseTags().Link(ctx, &domain.CaseTag{CaseID: c.ID, TagID: tag.ID, LinkedAt: s.now})
		s.Require().NoError(err)
		s.True(linked)
		return nil
	})

	s.tx(func(ctx context.Context, tx storage.Tx) error { return tx.Cases().Delete(ctx, c.ID) })

	s.tx(func(ctx context.Context, tx storage.Tx) error {
		_, err := tx.Cases().Get(ctx, c.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = tx.Actions().Get(ctx, action.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = tx.Reports().Get(ctx, report.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = tx.Evidence().Get(ctx, ev.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = tx.Notes().Get(ctx, note.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)

		links, err := tx.CasePersons().ListByCase(ctx, c.ID)
		s.Require().NoError(err)
		s.Empty(links)
		count, err := tx.CaseTags().CountForTag(ctx, tag.ID)
		s.Require().NoError(err)
		s.Zero(count)
		assigned, err := tx.Assignments().UsersForCases(ctx, []id.CaseID{c.ID})
		s.Require().NoError(err)
		s.Empty(assigned[c.ID])

		_, err = tx.Persons().Get(ctx, person.ID)
		s.NoError(err, "persons survive their cases")
		_, err = tx.Tags().Get(ctx, tag.ID)
		s.NoError(err, "tags survive their cases")
		_, err = tx.Users().Get(ctx, user.ID)
		s.NoError(err, "users survive their cases")
		return nil
	})

	err := s.store.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error { return tx.Cases().Delete(ctx, c.ID) })
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *Suite) TestChildrenRequireCase() {
	user := s.seedUser()
	err := s.store.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.Actions().Create(ctx, &domain.CaseAction{ID: id.CaseActionID(uuid.New()), CaseID: id.CaseID(uuid.New()), AuditTrail: domain.NewAuditTrail(user.ID, s.now)})
	})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *Suite) TestListForCasesBatches() {
	user := s.seedUser()
	a := s.seedCase("CA-2024-00000020", user.ID)
	b := s.seedCase("CA-2024-00000021", user.ID)
	other := s.seedCase("CA-2024-00000022", user.ID)

	s.tx(func(ctx context.Context, tx storage.Tx) error {
		for _, c := range []*domain.Case{a, b, other} {
			s.Require().NoError(tx.Reports().Create(ctx, &domain.Report{ID: id.ReportID(uuid.New()), CaseID: c.ID, Title: "r", AuditTrail: domain.NewAuditTrail(user.ID, s.tick())}))
		}
		s.Require().NoError(tx.Assignments().Assign(ctx, &domain.Assignment{UserID: user.ID, CaseID: a.ID, AssignedAt: s.now}))
		return nil
	})

	s.tx(func(ctx context.Context, tx storage.Tx) error {
		reports, err := tx.Reports().ListForCases(ctx, []id.CaseID{a.ID, b.ID})
		s.Require().NoError(err)
		s.Len(reports, 2)

		users, err := tx.Assignments().UsersForCases(ctx, []id.CaseID{a.ID, b.ID})
		s.Require().NoError(err)
		s.Require().Len(users[a.ID], 1)
		s.Equal(user.ID, users[a.ID][0].ID)
		s.Empty(users[b.ID])

		cases, err := tx.Cases().List(ctx)
		s.Require().NoError(err)
		s.Len(cases, 3)
		s.Equal(a.ID, cases[0].ID, "cases list in opening order")
		return nil
	})
}

func (s *Suite) TestEvidenceTombstoneIsStored() {
	user := s.seedUser()
	c := s.seedCase("CA-2024-00000030", user.ID)
	ev := &domain.Evidence{ID: id.EvidenceID(uuid.New()), CaseID: c.ID, Type: "dna", CollectedAt: s.now, AuditTrail: domain.NewAuditTrail(user.ID, s.now)}
	s.tx(func(ctx context.Context, tx storage.Tx) error { return tx.Evidence().Create(ctx, ev) })

	s.tx(func(ctx context.Context, tx storage.Tx) error {
		got, err := tx.Evidence().Get(ctx, ev.ID)
		s.Require().NoError(err)
		s.Require().NoError(domain.SoftDelete(got, user.ID, s.tick()))
		return tx.Evidence().Update(ctx, got)
	})

	s.tx(func(ctx context.Context, tx storage.Tx) error {
		got, err := tx.Evidence().Get(ctx, ev.ID)
		s.Require().NoError(err)
		s.True(got.IsDeleted)
		s.Require().NotNil(got.DeletedBy)
		s.Equal(user.ID, *got.DeletedBy)
		s.Nil(got.LastModifiedBy)

		all, err := tx.Evidence().ListForCases(ctx, []id.CaseID{c.ID})
		s.Require().NoError(err)
		s.Len(all, 1)
		return nil
	})
}

func (s *Suite) TestLinkIsASet() {
	user := s.seedUser()
	c := s.seedCase("CA-2024-00000040", user.ID)
	tag := s.seedTag("gang", user.ID)
	link := &domain.CaseTag{CaseID: c.ID, TagID: tag.ID, LinkedAt: s.now}

	s.tx(func(ctx context.Context, tx storage.Tx) error {
		linked, err := tx.CaseTags().Link(ctx, link)
		s.Require().NoError(err)
		s.True(linked)

		linked, err = tx.CaseTags().Link(ctx, link)
		s.Require().NoError(err)
		s.False(linked)

		tags, err := tx.CaseTags().TagsForCase(ctx, c.ID)
		s.Require().NoError(err)
		s.Require().Len(tags, 1)
		s.Equal(tag.ID, tags[0].ID)

		removed, err := tx.CaseTags().Unlink(ctx, c.ID, tag.ID)
		s.Require().NoError(err)
		s.True(removed)

		removed, err = tx.CaseTags().Unlink(ctx, c.ID, tag.ID)
		s.Require().NoError(err)
		s.False(removed)

		tags, err = tx.CaseTags().TagsForCase(ctx, c.ID)
		s.Require().NoError(err)
		s.NotNil(tags)
		s.Empty(tags)
		return nil
	})
}

func (s *Suite) TestLinkRequiresBothEnds() {
	user := s.seedUser()
	c := s.seedCase("CA-2024-00000041", user.ID)
	tag := s.seedTag("fraud", user.ID)

	err := s.store.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		_, err := tx.CaseTags().Link(ctx, &domain.CaseTag{CaseID: c.ID, TagID: id.TagID(uuid.New()), LinkedAt: s.now})
		return err
	})
	s.ErrorIs(err, sentinel.ErrNotFound)

	err = s.store.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		_, err := tx.CaseTags().Link(ctx, &domain.CaseTag{CaseID: id.CaseID(uuid.New()), TagID: tag.ID, LinkedAt: s.now})
		return err
	})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *Suite) TestLinkedTagCannotBeDeleted() {
	user := s.seedUser()
	c := s.seedCase("CA-2024-00000050", user.ID)
	tag := s.seedTag("cold-case", user.ID)
	s.tx(func(ctx context.Context, tx storage.Tx) error {
		_, err := tx.CaseTags().Link(ctx, &domain.CaseTag{CaseID: c.ID, TagID: tag.ID, LinkedAt: s.now})
		return err
	})

	err := s.store.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error { return tx.Tags().Delete(ctx, tag.ID) })
	s.ErrorIs(err, sentinel.ErrInUse)

	s.tx(func(ctx context.Context, tx storage.Tx) error {
		_, err := tx.CaseTags().Unlink(ctx, c.ID, tag.ID)
		return err
	})
	s.tx(func(ctx context.Context, tx storage.Tx) error { return tx.Tags().Delete(ctx, tag.ID) })

	err = s.store.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error { return tx.Tags().Delete(ctx, tag.ID) })
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *Suite) TestConcurrentLinkInsertsOnce() {
	user := s.seedUser()
	c := s.seedCase("CA-2024-00000060", user.ID)
	tag := s.seedTag("hot", user.ID)

	const goroutines = 50
	var wg sync.WaitGroup
	var linkedCount, noopCount atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
				linked, err := tx.CaseTags().Link(ctx, &domain.CaseTag{CaseID: c.ID, TagID: tag.ID, LinkedAt: s.now})
				if err != nil {
					return err
				}
				if linked {
					linkedCount.Add(1)
				} else {
					noopCount.Add(1)
				}
				return nil
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	s.Equal(int32(1), linkedCount.Load(), "exactly one link should insert")
	s.Equal(int32(goroutines-1), noopCount.Load())
	s.tx(func(ctx context.Context, tx storage.Tx) error {
		count, err := tx.CaseTags().CountForTag(ctx, tag.ID)
		s.Require().NoError(err)
		s.Equal(1, count)
		return nil
	})
}

func (s *Suite) TestFailedUnitOfWorkLeavesNoTrace() {
	user := s.seedUser()
	c := s.newCase("CA-2024-00000070", user.ID)
	boom := errors.New("boom")

	err := s.store.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		s.Require().NoError(tx.Cases().Create(ctx, c))
		return boom
	})
	s.ErrorIs(err, boom)

	s.tx(func(ctx context.Context, tx storage.Tx) error {
		exists, err := tx.Cases().Exists(ctx, c.ID)
		s.Require().NoError(err)
		s.False(exists)
		return tx.Cases().Create(ctx, c)
	})
}

func (s *Suite) TestDepartmentDeleteDetachesUsers() {
	dept := &domain.Department{ID: id.DepartmentID(uuid.New()), Name: "CID", ShortCode: "CID"}
	s.tx(func(ctx context.Context, tx storage.Tx) error { return tx.Departments().Create(ctx, dept) })
	u := &domain.User{ID: id.UserID(uuid.New()), UserName: "detective", Email: "d@example.com", DepartmentID: &dept.ID, CreatedAt: s.now}
	s.tx(func(ctx context.Context, tx storage.Tx) error { return tx.Users().Create(ctx, u) })

	s.tx(func(ctx context.Context, tx storage.Tx) error {
		members, err := tx.Users().ListByDepartment(ctx, dept.ID)
		s.Require().NoError(err)
		s.Len(members, 1)
		return tx.Departments().Delete(ctx, dept.ID)
	})

	s.tx(func(ctx context.Context, tx storage.Tx) error {
		got, err := tx.Users().Get(ctx, u.ID)
		s.Require().NoError(err)
		s.Nil(got.DepartmentID)
		_, err = tx.Departments().Get(ctx, dept.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
		return nil
	})
}

func (s *Suite) TestLocationDeleteCascadesProperty() {
	user := s.seedUser()
	person := s.seedPerson()
	loc := &domain.Location{ID: id.LocationID(uuid.New()), Name: "Central Station"}
	prop := &domain.Property{ID: id.PropertyID(uuid.New()), LocationID: loc.ID, Name: "Locker 12"}
	booking := &domain.Booking{ID: id.BookingID(uuid.New()), PersonID: person.ID, UserID: user.ID, LocationID: &loc.ID, BookedAt: s.now}

	s.tx(func(ctx context.Context, tx storage.Tx) error {
		s.Require().NoError(tx.Locations().Create(ctx, loc))
		s.Require().NoError(tx.Properties().Create(ctx, prop))
		return tx.Bookings().Create(ctx, booking)
	})
	s.tx(func(ctx context.Context, tx storage.Tx) error { return tx.Locations().Delete(ctx, loc.ID) })

	s.tx(func(ctx context.Context, tx storage.Tx) error {
		_, err := tx.Properties().Get(ctx, prop.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
		got, err := tx.Bookings().Get(ctx, booking.ID)
		s.Require().NoError(err)
		s.Nil(got.LocationID, "bookings outlive their location")
		return nil
	})
}

func (s *Suite) TestBookingDeleteCascades() {
	user := s.seedUser()
	person := s.seedPerson()
	booking := &domain.Booking{ID: id.BookingID(uuid.New()), PersonID: person.ID, UserID: user.ID, BookedAt: s.now}
	charge := &domain.Charge{ID: id.ChargeID(uuid.New()), BookingID: booking.ID, Offense: "theft", ChargedAt: s.now}
	release := &domain.Release{ID: id.ReleaseID(uuid.New()), BookingID: booking.ID, ReleasedAt: s.tick()}

	s.tx(func(ctx context.Context, tx storage.Tx) error {
		s.Require().NoError(tx.Bookings().Create(ctx, booking))
		s.Require().NoError(tx.Charges().Create(ctx, charge))
		return tx.Releases().Create(ctx, release)
	})

	err := s.store.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.Releases().Create(ctx, &domain.Release{ID: id.ReleaseID(uuid.New()), BookingID: booking.ID, ReleasedAt: s.now})
	})
	s.ErrorIs(err, sentinel.ErrAlreadyUsed, "a booking has at most one release")

	err = s.store.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error { return tx.Persons().Delete(ctx, person.ID) })
	s.ErrorIs(err, sentinel.ErrInUse, "booked persons cannot be deleted")

	s.tx(func(ctx context.Context, tx storage.Tx) error { return tx.Bookings().Delete(ctx, booking.ID) })

	s.tx(func(ctx context.Context, tx storage.Tx) error {
		charges, err := tx.Charges().ListByBooking(ctx, booking.ID)
		s.Require().NoError(err)
		s.Empty(charges)
		_, err = tx.Releases().GetByBooking(ctx, booking.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
		return tx.Persons().Delete(ctx, person.ID)
	})
}

func (s *Suite) TestPersonDeleteDropsCaseLinks() {
	user := s.seedUser()
	c := s.seedCase("CA-2024-00000080", user.ID)
	person := s.seedPerson()

	s.tx(func(ctx context.Context, tx storage.Tx) error {
		return tx.CasePersons().Add(ctx, &domain.CasePerson{CaseID: c.ID, PersonID: person.ID, Role: domain.CaseRoleSuspect, AddedAt: s.now})
	})
	err := s.store.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.CasePersons().Add(ctx, &domain.CasePerson{CaseID: c.ID, PersonID: person.ID, Role: domain.CaseRoleVictim, AddedAt: s.now})
	})
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	s.tx(func(ctx context.Context, tx storage.Tx) error { return tx.Persons().Delete(ctx, person.ID) })

	s.tx(func(ctx context.Context, tx storage.Tx) error {
		links, err := tx.CasePersons().ListByCase(ctx, c.ID)
		s.Require().NoError(err)
		s.Empty(links)
		exists, err := tx.Cases().Exists(ctx, c.ID)
		s.Require().NoError(err)
		s.True(exists)
		return nil
	})
}

func (s *Suite) TestVehicleRoundTrip() {
	user := s.seedUser()
	v := &domain.Vehicle{
		ID: id.VehicleID(uuid.New()), Make: "Volvo", Model: "V70", Year: 2004,
		VIN: "YV1SW61R841234567", LicensePlate: "AB12CDE", Color: "Silver",
		AuditTrail: domain.NewAuditTrail(user.ID, s.tick()),
	}
	s.tx(func(ctx context.Context, tx storage.Tx) error { return tx.Vehicles().Create(ctx, v) })

	err := s.store.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error { return tx.Vehicles().Create(ctx, v) })
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	editor := s.seedUser()
	s.tx(func(ctx context.Context, tx storage.Tx) error {
		got, err := tx.Vehicles().Get(ctx, v.ID)
		s.Require().NoError(err)
		s.Equal("YV1SW61R841234567", got.VIN)
		s.False(got.Modified())
		got.Color = "Black"
		domain.Stamp(got, editor.ID, s.tick())
		return tx.Vehicles().Update(ctx, got)
	})

	s.tx(func(ctx context.Context, tx storage.Tx) error {
		got, err := tx.Vehicles().Get(ctx, v.ID)
		s.Require().NoError(err)
		s.Equal("Black", got.Color)
		s.Equal(2004, got.Year)
		s.Require().True(got.Modified())
		s.Equal(editor.ID, *got.LastModifiedBy)
		s.Equal(user.ID, got.CreatedBy)
		return nil
	})

	missing := &domain.Vehicle{ID: id.VehicleID(uuid.New())}
	s.ErrorIs(s.store.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		_, err := tx.Vehicles().Get(ctx, missing.ID)
		return err
	}), sentinel.ErrNotFound)
	s.ErrorIs(s.store.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.Vehicles().Update(ctx, missing)
	}), sentinel.ErrNotFound)
}
