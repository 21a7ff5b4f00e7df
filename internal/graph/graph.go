// Package graph declares the ownership and reference rules between PCMS
// entities: who owns whom, and what happens to dependents when a parent is
// deleted. Stores consult these rules when they delete; the Postgres schema
// mirrors them in its ON DELETE clauses.
package graph

// Entity names a persisted record kind. Values double as table names.
type Entity string

const (
	Case       Entity = "cases"
	CaseAction Entity = "case_actions"
	Report     Entity = "reports"
	Evidence   Entity = "evidence"
	CaseNote   Entity = "case_notes"
	CasePerson Entity = "case_persons"
	Assignment Entity = "case_assignments"
	CaseTag    Entity = "case_tags"
	Tag        Entity = "tags"
	Person     Entity = "persons"
	User       Entity = "users"
	Department Entity = "departments"
	Location   Entity = "locations"
	Property   Entity = "properties"
	Booking    Entity = "bookings"
	Charge     Entity = "charges"
	Release    Entity = "releases"
	Vehicle    Entity = "vehicles"
)

// DeleteBehavior is applied to a child when its parent is deleted.
type DeleteBehavior int

const (
	// Cascade deletes the child.
	Cascade DeleteBehavior = iota
	// SetNull clears the child's reference and keeps the child.
	SetNull
	// RemoveAssociation deletes the join row only; the far side survives.
	RemoveAssociation
	// Restrict refuses the parent delete while children exist.
	Restrict
)

func (b DeleteBehavior) String() string {
	switch b {
	case Cascade:
		return "cascade"
	case SetNull:
		return "set_null"
	case RemoveAssociation:
		return "remove_association"
	case Restrict:
		return "restrict"
	default:
		return "unknown"
	}
}

// SQL is the ON DELETE action a relational schema uses for b. Association
// rows are removed with the parent, so RemoveAssociation maps to CASCADE.
func (b DeleteBehavior) SQL() string {
	switch b {
	case Cascade, RemoveAssociation:
		return "CASCADE"
	case SetNull:
		return "SET NULL"
	case Restrict:
		return "RESTRICT"
	default:
		return ""
	}
}

// Cardinality of the parent to child relationship.
type Cardinality string

const (
	OneToMany   Cardinality = "1:N"
	OneToOne    Cardinality = "1:1"
	ManyToMany  Cardinality = "N:M"
	ManyToOne   Cardinality = "N:1"
)

// Relation is one row of the ownership table. ForeignKey is the child column
// holding the parent's id.
type Relation struct {
	Parent      Entity
	Child       Entity
	Cardinality Cardinality
	OnDelete    DeleteBehavior
	ForeignKey  string
}

// CascadeRules is the ownership table of the case domain.
var CascadeRules = []Relation{
	{Parent: Case, Child: CaseAction, Cardinality: OneToMany, OnDelete: Cascade, ForeignKey: "case_id"},
	{Parent: Case, Child: Report, Cardinality: OneToMany, OnDelete: Cascade, ForeignKey: "case_id"},
	{Parent: Case, Child: Evidence, Cardinality: OneToMany, OnDelete: Cascade, ForeignKey: "case_id"},
	{Parent: Case, Child: CaseNote, Cardinality: OneToMany, OnDelete: Cascade, ForeignKey: "case_id"},
	{Parent: Case, Child: CasePerson, Cardinality: OneToMany, OnDelete: Cascade, ForeignKey: "case_id"},
	{Parent: Case, Child: Assignment, Cardinality: OneToMany, OnDelete: Cascade, ForeignKey: "case_id"},
	{Parent: Case, Child: CaseTag, Cardinality: ManyToMany, OnDelete: RemoveAssociation, ForeignKey: "case_id"},
	{Parent: Location, Child: Property, Cardinality: OneToMany, OnDelete: Cascade, ForeignKey: "location_id"},
	{Parent: Department, Child: User, Cardinality: OneToMany, OnDelete: SetNull, ForeignKey: "department_id"},
	{Parent: Booking, Child: Charge, Cardinality: OneToMany, OnDelete: Cascade, ForeignKey: "booking_id"},
	{Parent: Booking, Child: Release, Cardinality: OneToOne, OnDelete: Cascade, ForeignKey: "booking_id"},
}

// ReferenceRules govern deletes from the referenced side. A tag still linked
// to a case cannot be deleted, nor can a booked person. Removing a person or a
// user drops their join rows and leaves the cases alone.
var ReferenceRules = []Relation{
	{Parent: Tag, Child: CaseTag, Cardinality: ManyToMany, OnDelete: Restrict, ForeignKey: "tag_id"},
	{Parent: Person, Child: Booking, Cardinality: OneToMany, OnDelete: Restrict, ForeignKey: "person_id"},
	{Parent: Person, Child: CasePerson, Cardinality: OneToMany, OnDelete: Cascade, ForeignKey: "person_id"},
	{Parent: User, Child: Booking, Cardinality: OneToMany, OnDelete: Restrict, ForeignKey: "user_id"},
	{Parent: User, Child: Assignment, Cardinality: OneToMany, OnDelete: Cascade, ForeignKey: "user_id"},
	{Parent: Location, Child: Booking, Cardinality: OneToMany, OnDelete: SetNull, ForeignKey: "location_id"},
}

// Dependents returns every rule whose parent is e, ownership rules first, in
// declaration order.
func Dependents(e Entity) []Relation {
	var out []Relation
	for _, rules := range [][]Relation{CascadeRules, ReferenceRules} {
		for _, r := range rules {
			if r.Parent == e {
				out = append(out, r)
			}
		}
	}
	return out
}

// Rule looks up the rule between parent and child.
func Rule(parent, child Entity) (Relation, bool) {
	for _, r := range Dependents(parent) {
		if r.Child == child {
			return r, true
		}
	}
	return Relation{}, false
}

// Restricted returns the restrict rules for e. They must be checked before any
// cascading work starts.
func Restricted(e Entity) []Relation {
	var out []Relation
	for _, r := range Dependents(e) {
		if r.OnDelete == Restrict {
			out = append(out, r)
		}
	}
	return out
}
