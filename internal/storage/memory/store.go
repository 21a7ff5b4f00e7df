// Package memory is the in-process implementation of storage.Store.
//
// Each unit of work runs against a copy-on-write view of the state and swaps it in on
// success, so a failed transaction leaves nothing behind. Transactions are
// serialized by one mutex; RunInTx must not be nested.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"pcms/internal/domain"
	"pcms/internal/graph"
	"pcms/internal/storage"
	id "pcms/pkg/domain"
	dErrors "pcms/pkg/domain-errors"
	"pcms/pkg/platform/sentinel"
)

const defaultTxTimeout = 5 * time.Second

type casePersonKey struct {
	CaseID   id.CaseID
	PersonID id.PersonID
}

type assignmentKey struct {
	UserID id.UserID
	CaseID id.CaseID
}

type caseTagKey struct {
	CaseID id.CaseID
	TagID  id.TagID
}

type state struct {
	users       *rows[id.UserID, domain.User]
	departments *rows[id.DepartmentID, domain.Department]
	cases       *rows[id.CaseID, domain.Case]
	caseNumbers *rows[string, id.CaseID] // never shrinks
	actions     *rows[id.CaseActionID, domain.CaseAction]
	reports     *rows[id.ReportID, domain.Report]
	evidence    *rows[id.EvidenceID, domain.Evidence]
	notes       *rows[id.CaseNoteID, domain.CaseNote]
	persons     *rows[id.PersonID, domain.Person]
	casePersons *rows[casePersonKey, domain.CasePerson]
	assignments *rows[assignmentKey, domain.Assignment]
	tags        *rows[id.TagID, domain.Tag]
	caseTags    *rows[caseTagKey, domain.CaseTag]
	locations   *rows[id.LocationID, domain.Location]
	properties  *rows[id.PropertyID, domain.Property]
	bookings    *rows[id.BookingID, domain.Booking]
	charges     *rows[id.ChargeID, domain.Charge]
	releases    *rows[id.ReleaseID, domain.Release]
	vehicles    *rows[id.VehicleID, domain.Vehicle]
}

func newState() *state {
	return &state{
		users: entityRows[id.UserID](columns[domain.User]{
			refs:  map[string]func(domain.User) (uuid.UUID, bool){"department_id": nullableFK(func(u domain.User) *id.DepartmentID { return u.DepartmentID })},
			unset: map[string]func(*domain.User){"department_id": func(u *domain.User) { u.DepartmentID = nil }},
		}),
		departments: entityRows[id.DepartmentID](columns[domain.Department]{}),
		cases:       entityRows[id.CaseID](columns[domain.Case]{}),
		caseNumbers: assocRows[string](columns[id.CaseID]{}),
		actions: entityRows[id.CaseActionID](columns[domain.CaseAction]{
			refs: map[string]func(domain.CaseAction) (uuid.UUID, bool){"case_id": fk(func(a domain.CaseAction) id.CaseID { return a.CaseID })},
		}),
		reports: entityRows[id.ReportID](columns[domain.Report]{
			refs: map[string]func(domain.Report) (uuid.UUID, bool){"case_id": fk(func(r domain.Report) id.CaseID { return r.CaseID })},
		}),
		evidence: entityRows[id.EvidenceID](columns[domain.Evidence]{
			refs: map[string]func(domain.Evidence) (uuid.UUID, bool){"case_id": fk(func(e domain.Evidence) id.CaseID { return e.CaseID })},
		}),
		notes: entityRows[id.CaseNoteID](columns[domain.CaseNote]{
			refs: map[string]func(domain.CaseNote) (uuid.UUID, bool){"case_id": fk(func(n domain.CaseNote) id.CaseID { return n.CaseID })},
		}),
		persons: entityRows[id.PersonID](columns[domain.Person]{}),
		casePersons: assocRows[casePersonKey](columns[domain.CasePerson]{
			refs: map[string]func(domain.CasePerson) (uuid.UUID, bool){
				"case_id":   fk(func(cp domain.CasePerson) id.CaseID { return cp.CaseID }),
				"person_id": fk(func(cp domain.CasePerson) id.PersonID { return cp.PersonID }),
			},
		}),
		assignments: assocRows[assignmentKey](columns[domain.Assignment]{
			refs: map[string]func(domain.Assignment) (uuid.UUID, bool){
				"case_id": fk(func(a domain.Assignment) id.CaseID { return a.CaseID }),
				"user_id": fk(func(a domain.Assignment) id.UserID { return a.UserID }),
			},
		}),
		tags: entityRows[id.TagID](columns[domain.Tag]{}),
		caseTags: assocRows[caseTagKey](columns[domain.CaseTag]{
			refs: map[string]func(domain.CaseTag) (uuid.UUID, bool){
				"case_id": fk(func(ct domain.CaseTag) id.CaseID { return ct.CaseID }),
				"tag_id":  fk(func(ct domain.CaseTag) id.TagID { return ct.TagID }),
			},
		}),
		locations: entityRows[id.LocationID](columns[domain.Location]{}),
		properties: entityRows[id.PropertyID](columns[domain.Property]{
			refs: map[string]func(domain.Property) (uuid.UUID, bool){"location_id": fk(func(p domain.Property) id.LocationID { return p.LocationID })},
		}),
		bookings: entityRows[id.BookingID](columns[domain.Booking]{
			refs: map[string]func(domain.Booking) (uuid.UUID, bool){
				"person_id":   fk(func(b domain.Booking) id.PersonID { return b.PersonID }),
				"user_id":     fk(func(b domain.Booking) id.UserID { return b.UserID }),
				"location_id": nullableFK(func(b domain.Booking) *id.LocationID { return b.LocationID }),
			},
			unset: map[string]func(*domain.Booking){"location_id": func(b *domain.Booking) { b.LocationID = nil }},
		}),
		charges: entityRows[id.ChargeID](columns[domain.Charge]{
			refs: map[string]func(domain.Charge) (uuid.UUID, bool){"booking_id": fk(func(c domain.Charge) id.BookingID { return c.BookingID })},
		}),
		releases: entityRows[id.ReleaseID](columns[domain.Release]{
			refs: map[string]func(domain.Release) (uuid.UUID, bool){"booking_id": fk(func(r domain.Release) id.BookingID { return r.BookingID })},
		}),
		vehicles: entityRows[id.VehicleID](columns[domain.Vehicle]{}),
	}
}

// clone starts a unit of work. Tables are copied on first write.
func (s *state) clone() *state {
	return &state{
		users:       s.users.clone(),
		departments: s.departments.clone(),
		cases:       s.cases.clone(),
		caseNumbers: s.caseNumbers.clone(),
		actions:     s.actions.clone(),
		reports:     s.reports.clone(),
		evidence:    s.evidence.clone(),
		notes:       s.notes.clone(),
		persons:     s.persons.clone(),
		casePersons: s.casePersons.clone(),
		assignments: s.assignments.clone(),
		tags:        s.tags.clone(),
		caseTags:    s.caseTags.clone(),
		locations:   s.locations.clone(),
		properties:  s.properties.clone(),
		bookings:    s.bookings.clone(),
		charges:     s.charges.clone(),
		releases:    s.releases.clone(),
		vehicles:    s.vehicles.clone(),
	}
}

func (s *state) table(e graph.Entity) relation {
	switch e {
	case graph.User:
		return s.users
	case graph.Department:
		return s.departments
	case graph.Case:
		return s.cases
	case graph.CaseAction:
		return s.actions
	case graph.Report:
		return s.reports
	case graph.Evidence:
		return s.evidence
	case graph.CaseNote:
		return s.notes
	case graph.Person:
		return s.persons
	case graph.CasePerson:
		return s.casePersons
	case graph.Assignment:
		return s.assignments
	case graph.Tag:
		return s.tags
	case graph.CaseTag:
		return s.caseTags
	case graph.Location:
		return s.locations
	case graph.Property:
		return s.properties
	case graph.Booking:
		return s.bookings
	case graph.Charge:
		return s.charges
	case graph.Release:
		return s.releases
	case graph.Vehicle:
		return s.vehicles
	default:
		panic(fmt.Sprintf("memory: no table for entity %q", e))
	}
}

// delete removes the row pk of e and applies the graph rules to everything
// that depends on it. Restrict rules anywhere in the subtree are checked
// before anything is touched.
func (s *state) delete(e graph.Entity, pk uuid.UUID) error {
	if !s.table(e).hasPK(pk) {
		return sentinel.ErrNotFound
	}
	if err := s.checkRestrict(e, pk); err != nil {
		return err
	}
	s.removeTree(e, pk)
	return nil
}

func (s *state) checkRestrict(e graph.Entity, pk uuid.UUID) error {
	for _, rule := range graph.Dependents(e) {
		child := s.table(rule.Child)
		keys := child.childKeys(rule.ForeignKey, pk)
		if len(keys) == 0 {
			continue
		}
		switch rule.OnDelete {
		case graph.Restrict:
			return fmt.Errorf("%s referenced by %s: %w", e, rule.Child, sentinel.ErrInUse)
		case graph.Cascade:
			for _, k := range keys {
				if childPK, ok := child.primaryKey(k); ok {
					if err := s.checkRestrict(rule.Child, childPK); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func (s *state) removeTree(e graph.Entity, pk uuid.UUID) {
	for _, rule := range graph.Dependents(e) {
		child := s.table(rule.Child)
		for _, k := range child.childKeys(rule.ForeignKey, pk) {
			switch rule.OnDelete {
			case graph.Cascade:
				if childPK, ok := child.primaryKey(k); ok {
					s.removeTree(rule.Child, childPK)
					continue
				}
				child.removeKey(k)
			case graph.RemoveAssociation:
				child.removeKey(k)
			case graph.SetNull:
				child.detachKey(k, rule.ForeignKey)
			}
		}
	}
	s.table(e).removePK(pk)
}

// Store is the in-memory storage.Store.
type Store struct {
	mu      sync.Mutex
	state   *state
	timeout time.Duration
}

type Option func(*Store)

// WithTxTimeout bounds transactions whose context carries no deadline.
func WithTxTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

func New(opts ...Option) *Store {
	s := &Store{state: newState(), timeout: defaultTxTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	working := s.state.clone()
	if err := fn(ctx, &tx{state: working}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction abandoned before commit")
	}
	s.state = working
	return nil
}

type tx struct {
	state *state
}

func (t *tx) Users() storage.UserRepo             { return userRepo{t.state} }
func (t *tx) Departments() storage.DepartmentRepo { return departmentRepo{t.state} }
func (t *tx) Cases() storage.CaseRepo             { return caseRepo{t.state} }
func (t *tx) Actions() storage.ActionRepo         { return actionRepo{t.state} }
func (t *tx) Reports() storage.ReportRepo         { return reportRepo{t.state} }
func (t *tx) Evidence() storage.EvidenceRepo      { return evidenceRepo{t.state} }
func (t *tx) Notes() storage.NoteRepo             { return noteRepo{t.state} }
func (t *tx) Persons() storage.PersonRepo         { return personRepo{t.state} }
func (t *tx) CasePersons() storage.CasePersonRepo { return casePersonRepo{t.state} }
func (t *tx) Assignments() storage.AssignmentRepo { return assignmentRepo{t.state} }
func (t *tx) Tags() storage.TagRepo               { return tagRepo{t.state} }
func (t *tx) CaseTags() storage.CaseTagRepo       { return caseTagRepo{t.state} }
func (t *tx) Locations() storage.LocationRepo     { return locationRepo{t.state} }
func (t *tx) Properties() storage.PropertyRepo    { return propertyRepo{t.state} }
func (t *tx) Bookings() storage.BookingRepo       { return bookingRepo{t.state} }
func (t *tx) Charges() storage.ChargeRepo         { return chargeRepo{t.state} }
func (t *tx) Releases() storage.ReleaseRepo       { return releaseRepo{t.state} }
func (t *tx) Vehicles() storage.VehicleRepo       { return vehicleRepo{t.state} }
