package storage

import (
	"context"

	"pcms/internal/domain"
	id "pcms/pkg/domain"
)

// Store runs units of work. Everything fn does through tx commits together or
// not at all. Implementations return sentinel errors:
//   - sentinel.ErrNotFound when a row is missing
//   - sentinel.ErrAlreadyUsed when a unique key is taken (case number, association pair)
//   - sentinel.ErrInUse when a restrict rule blocks a delete
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx exposes one repository per entity, all bound to the same unit of work.
type Tx interface {
	Users() UserRepo
	Departments() DepartmentRepo
	Cases() CaseRepo
	Actions() ActionRepo
	Reports() ReportRepo
	Evidence() EvidenceRepo
	Notes() NoteRepo
	Persons() PersonRepo
	CasePersons() CasePersonRepo
	Assignments() AssignmentRepo
	Tags() TagRepo
	CaseTags() CaseTagRepo
	Locations() LocationRepo
	Properties() PropertyRepo
	Bookings() BookingRepo
	Charges() ChargeRepo
	Releases() ReleaseRepo
	Vehicles() VehicleRepo
}

type UserRepo interface {
	Create(ctx context.Context, user *domain.User) error
	Get(ctx context.Context, userID id.UserID) (*domain.User, error)
	Exists(ctx context.Context, userID id.UserID) (bool, error)
	ListByDepartment(ctx context.Context, departmentID id.DepartmentID) ([]*domain.User, error)
	Delete(ctx context.Context, userID id.UserID) error
}

type DepartmentRepo interface {
	Create(ctx context.Context, dept *domain.Department) error
	Get(ctx context.Context, departmentID id.DepartmentID) (*domain.Department, error)
	Delete(ctx context.Context, departmentID id.DepartmentID) error
}

// CaseRepo.Create registers the case number permanently; a number is never
// reusable, even after its case is deleted.
type CaseRepo interface {
	Create(ctx context.Context, c *domain.Case) error
	Get(ctx context.Context, caseID id.CaseID) (*domain.Case, error)
	Exists(ctx context.Context, caseID id.CaseID) (bool, error)
	List(ctx context.Context) ([]*domain.Case, error)
	Update(ctx context.Context, c *domain.Case) error
	Delete(ctx context.Context, caseID id.CaseID) error
}

type ActionRepo interface {
	Create(ctx context.Context, action *domain.CaseAction) error
	Get(ctx context.Context, actionID id.CaseActionID) (*domain.CaseAction, error)
	Update(ctx context.Context, action *domain.CaseAction) error
	ListForCases(ctx context.Context, caseIDs []id.CaseID) ([]*domain.CaseAction, error)
}

type ReportRepo interface {
	Create(ctx context.Context, report *domain.Report) error
	Get(ctx context.Context, reportID id.ReportID) (*domain.Report, error)
	Update(ctx context.Context, report *domain.Report) error
	ListForCases(ctx context.Context, caseIDs []id.CaseID) ([]*domain.Report, error)
}

// EvidenceRepo returns tombstoned rows too; callers decide visibility.
type EvidenceRepo interface {
	Create(ctx context.Context, ev *domain.Evidence) error
	Get(ctx context.Context, evidenceID id.EvidenceID) (*domain.Evidence, error)
	Update(ctx context.Context, ev *domain.Evidence) error
	ListForCases(ctx context.Context, caseIDs []id.CaseID) ([]*domain.Evidence, error)
}

type NoteRepo interface {
	Create(ctx context.Context, note *domain.CaseNote) error
	Get(ctx context.Context, noteID id.CaseNoteID) (*domain.CaseNote, error)
	ListForCases(ctx context.Context, caseIDs []id.CaseID) ([]*domain.CaseNote, error)
}

type PersonRepo interface {
	Create(ctx context.Context, person *domain.Person) error
	Get(ctx context.Context, personID id.PersonID) (*domain.Person, error)
	Exists(ctx context.Context, personID id.PersonID) (bool, error)
	Delete(ctx context.Context, personID id.PersonID) error
}

type CasePersonRepo interface {
	Add(ctx context.Context, cp *domain.CasePerson) error
	Remove(ctx context.Context, caseID id.CaseID, personID id.PersonID) error
	ListByCase(ctx context.Context, caseID id.CaseID) ([]*domain.CasePerson, error)
}

type AssignmentRepo interface {
	Assign(ctx context.Context, a *domain.Assignment) error
	Unassign(ctx context.Context, userID id.UserID, caseID id.CaseID) error
	// UsersForCases maps each case to its assigned users.
	UsersForCases(ctx context.Context, caseIDs []id.CaseID) (map[id.CaseID][]*domain.User, error)
}

type TagRepo interface {
	Create(ctx context.Context, tag *domain.Tag) error
	Get(ctx context.Context, tagID id.TagID) (*domain.Tag, error)
	Exists(ctx context.Context, tagID id.TagID) (bool, error)
	Update(ctx context.Context, tag *domain.Tag) error
	Delete(ctx context.Context, tagID id.TagID) error
}

// CaseTagRepo treats links as a set. Link reports whether a row was inserted;
// a duplicate, including one lost to a concurrent writer, reports false.
type CaseTagRepo interface {
	Link(ctx context.Context, link *domain.CaseTag) (bool, error)
	Unlink(ctx context.Context, caseID id.CaseID, tagID id.TagID) (bool, error)
	TagsForCase(ctx context.Context, caseID id.CaseID) ([]*domain.Tag, error)
	CountForTag(ctx context.Context, tagID id.TagID) (int, error)
}

type LocationRepo interface {
	Create(ctx context.Context, loc *domain.Location) error
	Get(ctx context.Context, locationID id.LocationID) (*domain.Location, error)
	Delete(ctx context.Context, locationID id.LocationID) error
}

type PropertyRepo interface {
	Create(ctx context.Context, p *domain.Property) error
	Get(ctx context.Context, propertyID id.PropertyID) (*domain.Property, error)
	ListByLocation(ctx context.Context, locationID id.LocationID) ([]*domain.Property, error)
}

type BookingRepo interface {
	Create(ctx context.Context, b *domain.Booking) error
	Get(ctx context.Context, bookingID id.BookingID) (*domain.Booking, error)
	Delete(ctx context.Context, bookingID id.BookingID) error
}

type ChargeRepo interface {
	Create(ctx context.Context, c *domain.Charge) error
	Get(ctx context.Context, chargeID id.ChargeID) (*domain.Charge, error)
	ListByBooking(ctx context.Context, bookingID id.BookingID) ([]*domain.Charge, error)
}

// ReleaseRepo.Create fails with sentinel.ErrAlreadyUsed when the booking
// already has a release.
type ReleaseRepo interface {
	Create(ctx context.Context, r *domain.Release) error
	GetByBooking(ctx context.Context, bookingID id.BookingID) (*domain.Release, error)
}

type VehicleRepo interface {
	Create(ctx context.Context, vehicle *domain.Vehicle) error
	Get(ctx context.Context, vehicleID id.VehicleID) (*domain.Vehicle, error)
	Update(ctx context.Context, vehicle *domain.Vehicle) error
}
