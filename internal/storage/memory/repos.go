package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"pcms/internal/domain"
	"pcms/internal/graph"
	id "pcms/pkg/domain"
	"pcms/pkg/platform/sentinel"
)

func ptr[V any](v V) *V { return &v }

func caseSet(ids []id.CaseID) map[id.CaseID]struct{} {
	set := make(map[id.CaseID]struct{}, len(ids))
	for _, caseID := range ids {
		set[caseID] = struct{}{}
	}
	return set
}

func inSet(set map[id.CaseID]struct{}, caseID id.CaseID) bool {
	_, ok := set[caseID]
	return ok
}

func byTime[V any](at func(V) time.Time, tie func(V) string) func(a, b V) int {
	return func(a, b V) int {
		if c := at(a).Compare(at(b)); c != 0 {
			return c
		}
		return cmp.Compare(tie(a), tie(b))
	}
}

func pointers[V any](vs []V) []*V {
	out := make([]*V, 0, len(vs))
	for i := range vs {
		out = append(out, &vs[i])
	}
	return out
}

func (s *state) requireCase(caseID id.CaseID) error {
	if !s.cases.has(caseID) {
		return fmt.Errorf("case %s: %w", caseID, sentinel.ErrNotFound)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Users and departments
// -----------------------------------------------------------------------------

type userRepo struct{ s *state }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	if r.s.users.has(user.ID) {
		return fmt.Errorf("user %s: %w", user.ID, sentinel.ErrAlreadyUsed)
	}
	if user.DepartmentID != nil && !r.s.departments.has(*user.DepartmentID) {
		return fmt.Errorf("department %s: %w", *user.DepartmentID, sentinel.ErrNotFound)
	}
	r.s.users.put(user.ID, *user)
	return nil
}

func (r userRepo) Get(_ context.Context, userID id.UserID) (*domain.User, error) {
	u, ok := r.s.users.get(userID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) Exists(_ context.Context, userID id.UserID) (bool, error) {
	return r.s.users.has(userID), nil
}

func (r userRepo) ListByDepartment(_ context.Context, departmentID id.DepartmentID) ([]*domain.User, error) {
	users := r.s.users.filter(func(u domain.User) bool {
		return u.DepartmentID != nil && *u.DepartmentID == departmentID
	})
	slices.SortFunc(users, func(a, b domain.User) int { return cmp.Compare(a.UserName, b.UserName) })
	return pointers(users), nil
}

func (r userRepo) Delete(_ context.Context, userID id.UserID) error {
	return r.s.delete(graph.User, uuid.UUID(userID))
}

type departmentRepo struct{ s *state }

func (r departmentRepo) Create(_ context.Context, dept *domain.Department) error {
	if r.s.departments.has(dept.ID) {
		return fmt.Errorf("department %s: %w", dept.ID, sentinel.ErrAlreadyUsed)
	}
	r.s.departments.put(dept.ID, *dept)
	return nil
}

func (r departmentRepo) Get(_ context.Context, departmentID id.DepartmentID) (*domain.Department, error) {
	d, ok := r.s.departments.get(departmentID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &d, nil
}

func (r departmentRepo) Delete(_ context.Context, departmentID id.DepartmentID) error {
	return r.s.delete(graph.Department, uuid.UUID(departmentID))
}

// -----------------------------------------------------------------------------
// Cases and owned children
// -----------------------------------------------------------------------------

type caseRepo struct{ s *state }

func (r caseRepo) Create(_ context.Context, c *domain.Case) error {
	if r.s.caseNumbers.has(c.CaseNumber) {
		return fmt.Errorf("case number %s: %w", c.CaseNumber, sentinel.ErrAlreadyUsed)
	}
	if r.s.cases.has(c.ID) {
		return fmt.Errorf("case %s: %w", c.ID, sentinel.ErrAlreadyUsed)
	}
	r.s.cases.put(c.ID, *c)
	r.s.caseNumbers.put(c.CaseNumber, c.ID)
	return nil
}

func (r caseRepo) Get(_ context.Context, caseID id.CaseID) (*domain.Case, error) {
	c, ok := r.s.cases.get(caseID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}

func (r caseRepo) Exists(_ context.Context, caseID id.CaseID) (bool, error) {
	return r.s.cases.has(caseID), nil
}

func (r caseRepo) List(_ context.Context) ([]*domain.Case, error) {
	cases := r.s.cases.filter(func(domain.Case) bool { return true })
	slices.SortFunc(cases, byTime(
		func(c domain.Case) time.Time { return c.OpenedAt },
		func(c domain.Case) string { return c.ID.String() },
	))
	return pointers(cases), nil
}

func (r caseRepo) Update(_ context.Context, c *domain.Case) error {
	stored, ok := r.s.cases.get(c.ID)
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.CaseNumber != c.CaseNumber {
		return fmt.Errorf("case number is immutable: %w", sentinel.ErrInvalidState)
	}
	r.s.cases.put(c.ID, *c)
	return nil
}

func (r caseRepo) Delete(_ context.Context, caseID id.CaseID) error {
	return r.s.delete(graph.Case, uuid.UUID(caseID))
}

type actionRepo struct{ s *state }

func (r actionRepo) Create(_ context.Context, action *domain.CaseAction) error {
	if err := r.s.requireCase(action.CaseID); err != nil {
		return err
	}
	if r.s.actions.has(action.ID) {
		return fmt.Errorf("case action %s: %w", action.ID, sentinel.ErrAlreadyUsed)
	}
	r.s.actions.put(action.ID, *action)
	return nil
}

func (r actionRepo) Get(_ context.Context, actionID id.CaseActionID) (*domain.CaseAction, error) {
	a, ok := r.s.actions.get(actionID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &a, nil
}

func (r actionRepo) Update(_ context.Context, action *domain.CaseAction) error {
	if !r.s.actions.has(action.ID) {
		return sentinel.ErrNotFound
	}
	r.s.actions.put(action.ID, *action)
	return nil
}

func (r actionRepo) ListForCases(_ context.Context, caseIDs []id.CaseID) ([]*domain.CaseAction, error) {
	set := caseSet(caseIDs)
	actions := r.s.actions.filter(func(a domain.CaseAction) bool { return inSet(set, a.CaseID) })
	slices.SortFunc(actions, byTime(
		func(a domain.CaseAction) time.Time { return a.CreatedAt },
		func(a domain.CaseAction) string { return a.ID.String() },
	))
	return pointers(actions), nil
}

type reportRepo struct{ s *state }

func (r reportRepo) Create(_ context.Context, report *domain.Report) error {
	if err := r.s.requireCase(report.CaseID); err != nil {
		return err
	}
	if r.s.reports.has(report.ID) {
		return fmt.Errorf("report %s: %w", report.ID, sentinel.ErrAlreadyUsed)
	}
	r.s.reports.put(report.ID, *report)
	return nil
}

func (r reportRepo) Get(_ context.Context, reportID id.ReportID) (*domain.Report, error) {
	rep, ok := r.s.reports.get(reportID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &rep, nil
}

func (r reportRepo) Update(_ context.Context, report *domain.Report) error {
	if !r.s.reports.has(report.ID) {
		return sentinel.ErrNotFound
	}
	r.s.reports.put(report.ID, *report)
	return nil
}

func (r reportRepo) ListForCases(_ context.Context, caseIDs []id.CaseID) ([]*domain.Report, error) {
	set := caseSet(caseIDs)
	reports := r.s.reports.filter(func(rep domain.Report) bool { return inSet(set, rep.CaseID) })
	slices.SortFunc(reports, byTime(
		func(rep domain.Report) time.Time { return rep.CreatedAt },
		func(rep domain.Report) string { return rep.ID.String() },
	))
	return pointers(reports), nil
}

type evidenceRepo struct{ s *state }

func (r evidenceRepo) Create(_ context.Context, ev *domain.Evidence) error {
	if err := r.s.requireCase(ev.CaseID); err != nil {
		return err
	}
	if r.s.evidence.has(ev.ID) {
		return fmt.Errorf("evidence %s: %w", ev.ID, sentinel.ErrAlreadyUsed)
	}
	r.s.evidence.put(ev.ID, *ev)
	return nil
}

func (r evidenceRepo) Get(_ context.Context, evidenceID id.EvidenceID) (*domain.Evidence, error) {
	ev, ok := r.s.evidence.get(evidenceID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &ev, nil
}

func (r evidenceRepo) Update(_ context.Context, ev *domain.Evidence) error {
	if !r.s.evidence.has(ev.ID) {
		return sentinel.ErrNotFound
	}
	r.s.evidence.put(ev.ID, *ev)
	return nil
}

func (r evidenceRepo) ListForCases(_ context.Context, caseIDs []id.CaseID) ([]*domain.Evidence, error) {
	set := caseSet(caseIDs)
	items := r.s.evidence.filter(func(ev domain.Evidence) bool { return inSet(set, ev.CaseID) })
	slices.SortFunc(items, byTime(
		func(ev domain.Evidence) time.Time { return ev.CreatedAt },
		func(ev domain.Evidence) string { return ev.ID.String() },
	))
	return pointers(items), nil
}

type noteRepo struct{ s *state }

func (r noteRepo) Create(_ context.Context, note *domain.CaseNote) error {
	if err := r.s.requireCase(note.CaseID); err != nil {
		return err
	}
	if r.s.notes.has(note.ID) {
		return fmt.Errorf("case note %s: %w", note.ID, sentinel.ErrAlreadyUsed)
	}
	r.s.notes.put(note.ID, *note)
	return nil
}

func (r noteRepo) Get(_ context.Context, noteID id.CaseNoteID) (*domain.CaseNote, error) {
	n, ok := r.s.notes.get(noteID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &n, nil
}

func (r noteRepo) ListForCases(_ context.Context, caseIDs []id.CaseID) ([]*domain.CaseNote, error) {
	set := caseSet(caseIDs)
	notes := r.s.notes.filter(func(n domain.CaseNote) bool { return inSet(set, n.CaseID) })
	slices.SortFunc(notes, byTime(
		func(n domain.CaseNote) time.Time { return n.CreatedAt },
		func(n domain.CaseNote) string { return n.ID.String() },
	))
	return pointers(notes), nil
}

// -----------------------------------------------------------------------------
// Persons and case associations
// -----------------------------------------------------------------------------

type personRepo struct{ s *state }

func (r personRepo) Create(_ context.Context, person *domain.Person) error {
	if r.s.persons.has(person.ID) {
		return fmt.Errorf("person %s: %w", person.ID, sentinel.ErrAlreadyUsed)
	}
	r.s.persons.put(person.ID, *person)
	return nil
}

func (r personRepo) Get(_ context.Context, personID id.PersonID) (*domain.Person, error) {
	p, ok := r.s.persons.get(personID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

func (r personRepo) Exists(_ context.Context, personID id.PersonID) (bool, error) {
	return r.s.persons.has(personID), nil
}

func (r personRepo) Delete(_ context.Context, personID id.PersonID) error {
	return r.s.delete(graph.Person, uuid.UUID(personID))
}

type casePersonRepo struct{ s *state }

func (r casePersonRepo) Add(_ context.Context, cp *domain.CasePerson) error {
	if err := r.s.requireCase(cp.CaseID); err != nil {
		return err
	}
	if !r.s.persons.has(cp.PersonID) {
		return fmt.Errorf("person %s: %w", cp.PersonID, sentinel.ErrNotFound)
	}
	key := casePersonKey{CaseID: cp.CaseID, PersonID: cp.PersonID}
	if r.s.casePersons.has(key) {
		return fmt.Errorf("person %s already on case %s: %w", cp.PersonID, cp.CaseID, sentinel.ErrAlreadyUsed)
	}
	r.s.casePersons.put(key, *cp)
	return nil
}

func (r casePersonRepo) Remove(_ context.Context, caseID id.CaseID, personID id.PersonID) error {
	key := casePersonKey{CaseID: caseID, PersonID: personID}
	if !r.s.casePersons.has(key) {
		return sentinel.ErrNotFound
	}
	r.s.casePersons.removeKey(key)
	return nil
}

func (r casePersonRepo) ListByCase(_ context.Context, caseID id.CaseID) ([]*domain.CasePerson, error) {
	links := r.s.casePersons.filter(func(cp domain.CasePerson) bool { return cp.CaseID == caseID })
	slices.SortFunc(links, byTime(
		func(cp domain.CasePerson) time.Time { return cp.AddedAt },
		func(cp domain.CasePerson) string { return cp.PersonID.String() },
	))
	return pointers(links), nil
}

type assignmentRepo struct{ s *state }

func (r assignmentRepo) Assign(_ context.Context, a *domain.Assignment) error {
	if err := r.s.requireCase(a.CaseID); err != nil {
		return err
	}
	if !r.s.users.has(a.UserID) {
		return fmt.Errorf("user %s: %w", a.UserID, sentinel.ErrNotFound)
	}
	key := assignmentKey{UserID: a.UserID, CaseID: a.CaseID}
	if r.s.assignments.has(key) {
		return fmt.Errorf("user %s already assigned to case %s: %w", a.UserID, a.CaseID, sentinel.ErrAlreadyUsed)
	}
	r.s.assignments.put(key, *a)
	return nil
}

func (r assignmentRepo) Unassign(_ context.Context, userID id.UserID, caseID id.CaseID) error {
	key := assignmentKey{UserID: userID, CaseID: caseID}
	if !r.s.assignments.has(key) {
		return sentinel.ErrNotFound
	}
	r.s.assignments.removeKey(key)
	return nil
}

func (r assignmentRepo) UsersForCases(_ context.Context, caseIDs []id.CaseID) (map[id.CaseID][]*domain.User, error) {
	set := caseSet(caseIDs)
	links := r.s.assignments.filter(func(a domain.Assignment) bool { return inSet(set, a.CaseID) })
	slices.SortFunc(links, byTime(
		func(a domain.Assignment) time.Time { return a.AssignedAt },
		func(a domain.Assignment) string { return a.UserID.String() },
	))
	out := make(map[id.CaseID][]*domain.User, len(caseIDs))
	for _, link := range links {
		if u, ok := r.s.users.get(link.UserID); ok {
			out[link.CaseID] = append(out[link.CaseID], ptr(u))
		}
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Tags
// -----------------------------------------------------------------------------

type tagRepo struct{ s *state }

func (r tagRepo) Create(_ context.Context, tag *domain.Tag) error {
	if r.s.tags.has(tag.ID) {
		return fmt.Errorf("tag %s: %w", tag.ID, sentinel.ErrAlreadyUsed)
	}
	r.s.tags.put(tag.ID, *tag)
	return nil
}

func (r tagRepo) Get(_ context.Context, tagID id.TagID) (*domain.Tag, error) {
	t, ok := r.s.tags.get(tagID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &t, nil
}

func (r tagRepo) Exists(_ context.Context, tagID id.TagID) (bool, error) {
	return r.s.tags.has(tagID), nil
}

func (r tagRepo) Update(_ context.Context, tag *domain.Tag) error {
	if !r.s.tags.has(tag.ID) {
		return sentinel.ErrNotFound
	}
	r.s.tags.put(tag.ID, *tag)
	return nil
}

func (r tagRepo) Delete(_ context.Context, tagID id.TagID) error {
	return r.s.delete(graph.Tag, uuid.UUID(tagID))
}

type caseTagRepo struct{ s *state }

func (r caseTagRepo) Link(_ context.Context, link *domain.CaseTag) (bool, error) {
	if err := r.s.requireCase(link.CaseID); err != nil {
		return false, err
	}
	if !r.s.tags.has(link.TagID) {
		return false, fmt.Errorf("tag %s: %w", link.TagID, sentinel.ErrNotFound)
	}
	key := caseTagKey{CaseID: link.CaseID, TagID: link.TagID}
	if r.s.caseTags.has(key) {
		return false, nil
	}
	r.s.caseTags.put(key, *link)
	return true, nil
}

func (r caseTagRepo) Unlink(_ context.Context, caseID id.CaseID, tagID id.TagID) (bool, error) {
	key := caseTagKey{CaseID: caseID, TagID: tagID}
	if !r.s.caseTags.has(key) {
		return false, nil
	}
	r.s.caseTags.removeKey(key)
	return true, nil
}

func (r caseTagRepo) TagsForCase(_ context.Context, caseID id.CaseID) ([]*domain.Tag, error) {
	tags := []*domain.Tag{}
	for _, link := range r.s.caseTags.filter(func(ct domain.CaseTag) bool { return ct.CaseID == caseID }) {
		if t, ok := r.s.tags.get(link.TagID); ok {
			tags = append(tags, ptr(t))
		}
	}
	slices.SortFunc(tags, func(a, b *domain.Tag) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID.String(), b.ID.String()))
	})
	return tags, nil
}

func (r caseTagRepo) CountForTag(_ context.Context, tagID id.TagID) (int, error) {
	return len(r.s.caseTags.filter(func(ct domain.CaseTag) bool { return ct.TagID == tagID })), nil
}

// -----------------------------------------------------------------------------
// Locations, property, bookings
// -----------------------------------------------------------------------------

type locationRepo struct{ s *state }

func (r locationRepo) Create(_ context.Context, loc *domain.Location) error {
	if r.s.locations.has(loc.ID) {
		return fmt.Errorf("location %s: %w", loc.ID, sentinel.ErrAlreadyUsed)
	}
	r.s.locations.put(loc.ID, *loc)
	return nil
}

func (r locationRepo) Get(_ context.Context, locationID id.LocationID) (*domain.Location, error) {
	l, ok := r.s.locations.get(locationID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &l, nil
}

func (r locationRepo) Delete(_ context.Context, locationID id.LocationID) error {
	return r.s.delete(graph.Location, uuid.UUID(locationID))
}

type propertyRepo struct{ s *state }

func (r propertyRepo) Create(_ context.Context, p *domain.Property) error {
	if !r.s.locations.has(p.LocationID) {
		return fmt.Errorf("location %s: %w", p.LocationID, sentinel.ErrNotFound)
	}
	if r.s.properties.has(p.ID) {
		return fmt.Errorf("property %s: %w", p.ID, sentinel.ErrAlreadyUsed)
	}
	r.s.properties.put(p.ID, *p)
	return nil
}

func (r propertyRepo) Get(_ context.Context, propertyID id.PropertyID) (*domain.Property, error) {
	p, ok := r.s.properties.get(propertyID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

func (r propertyRepo) ListByLocation(_ context.Context, locationID id.LocationID) ([]*domain.Property, error) {
	items := r.s.properties.filter(func(p domain.Property) bool { return p.LocationID == locationID })
	slices.SortFunc(items, func(a, b domain.Property) int { return cmp.Compare(a.Name, b.Name) })
	return pointers(items), nil
}

type bookingRepo struct{ s *state }

func (r bookingRepo) Create(_ context.Context, b *domain.Booking) error {
	if !r.s.persons.has(b.PersonID) {
		return fmt.Errorf("person %s: %w", b.PersonID, sentinel.ErrNotFound)
	}
	if !r.s.users.has(b.UserID) {
		return fmt.Errorf("user %s: %w", b.UserID, sentinel.ErrNotFound)
	}
	if b.LocationID != nil && !r.s.locations.has(*b.LocationID) {
		return fmt.Errorf("location %s: %w", *b.LocationID, sentinel.ErrNotFound)
	}
	if r.s.bookings.has(b.ID) {
		return fmt.Errorf("booking %s: %w", b.ID, sentinel.ErrAlreadyUsed)
	}
	r.s.bookings.put(b.ID, *b)
	return nil
}

func (r bookingRepo) Get(_ context.Context, bookingID id.BookingID) (*domain.Booking, error) {
	b, ok := r.s.bookings.get(bookingID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &b, nil
}

func (r bookingRepo) Delete(_ context.Context, bookingID id.BookingID) error {
	return r.s.delete(graph.Booking, uuid.UUID(bookingID))
}

type chargeRepo struct{ s *state }

func (r chargeRepo) Create(_ context.Context, c *domain.Charge) error {
	if !r.s.bookings.has(c.BookingID) {
		return fmt.Errorf("booking %s: %w", c.BookingID, sentinel.ErrNotFound)
	}
	if r.s.charges.has(c.ID) {
		return fmt.Errorf("charge %s: %w", c.ID, sentinel.ErrAlreadyUsed)
	}
	r.s.charges.put(c.ID, *c)
	return nil
}

func (r chargeRepo) Get(_ context.Context, chargeID id.ChargeID) (*domain.Charge, error) {
	c, ok := r.s.charges.get(chargeID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}

func (r chargeRepo) ListByBooking(_ context.Context, bookingID id.BookingID) ([]*domain.Charge, error) {
	items := r.s.charges.filter(func(c domain.Charge) bool { return c.BookingID == bookingID })
	slices.SortFunc(items, byTime(
		func(c domain.Charge) time.Time { return c.ChargedAt },
		func(c domain.Charge) string { return c.ID.String() },
	))
	return pointers(items), nil
}

type releaseRepo struct{ s *state }

func (r releaseRepo) Create(_ context.Context, rel *domain.Release) error {
	if !r.s.bookings.has(rel.BookingID) {
		return fmt.Errorf("booking %s: %w", rel.BookingID, sentinel.ErrNotFound)
	}
	existing := r.s.releases.filter(func(x domain.Release) bool { return x.BookingID == rel.BookingID })
	if len(existing) > 0 || r.s.releases.has(rel.ID) {
		return fmt.Errorf("booking %s already released: %w", rel.BookingID, sentinel.ErrAlreadyUsed)
	}
	r.s.releases.put(rel.ID, *rel)
	return nil
}

func (r releaseRepo) GetByBooking(_ context.Context, bookingID id.BookingID) (*domain.Release, error) {
	found := r.s.releases.filter(func(x domain.Release) bool { return x.BookingID == bookingID })
	if len(found) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return &found[0], nil
}

// -----------------------------------------------------------------------------
// Vehicles
// -----------------------------------------------------------------------------

type vehicleRepo struct{ s *state }

func (r vehicleRepo) Create(_ context.Context, v *domain.Vehicle) error {
	if r.s.vehicles.has(v.ID) {
		return fmt.Errorf("vehicle %s: %w", v.ID, sentinel.ErrAlreadyUsed)
	}
	r.s.vehicles.put(v.ID, *v)
	return nil
}

func (r vehicleRepo) Get(_ context.Context, vehicleID id.VehicleID) (*domain.Vehicle, error) {
	v, ok := r.s.vehicles.get(vehicleID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &v, nil
}

func (r vehicleRepo) Update(_ context.Context, v *domain.Vehicle) error {
	if !r.s.vehicles.has(v.ID) {
		return sentinel.ErrNotFound
	}
	r.s.vehicles.put(v.ID, *v)
	return nil
}
