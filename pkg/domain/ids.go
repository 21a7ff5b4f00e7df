// Package domain holds typed identifiers shared across PCMS modules.
//
// Every aggregate is keyed by a UUID, but a CaseID can never be passed where a
// TagID is expected: each identifier is its own named type. Construct them via
// the Parse* functions at trust boundaries, or convert a fresh uuid.New().
package domain

import (
	"github.com/google/uuid"

	dErrors "pcms/pkg/domain-errors"
)

type (
	UserID       uuid.UUID
	DepartmentID uuid.UUID
	CaseID       uuid.UUID
	CaseActionID uuid.UUID
	ReportID     uuid.UUID
	EvidenceID   uuid.UUID
	CaseNoteID   uuid.UUID
	PersonID     uuid.UUID
	TagID        uuid.UUID
	LocationID   uuid.UUID
	PropertyID   uuid.UUID
	BookingID    uuid.UUID
	ChargeID     uuid.UUID
	ReleaseID    uuid.UUID
	VehicleID    uuid.UUID
)

// parseID rejects empty, malformed and nil UUIDs.
func parseID[T ~[16]byte](s, label string) (T, error) {
	var zero T
	if s == "" {
		return zero, dErrors.New(dErrors.CodeInvalidInput, label+" ID cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return zero, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+label+" ID")
	}
	if u == uuid.Nil {
		return zero, dErrors.New(dErrors.CodeInvalidInput, label+" ID cannot be nil")
	}
	return T(u), nil
}

func ParseUserID(s string) (UserID, error) { return parseID[UserID](s, "user") }

func (id UserID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func ParseDepartmentID(s string) (DepartmentID, error) { return parseID[DepartmentID](s, "department") }

func (id DepartmentID) String() string { return uuid.UUID(id).String() }

func (id DepartmentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func ParseCaseID(s string) (CaseID, error) { return parseID[CaseID](s, "case") }

func (id CaseID) String() string { return uuid.UUID(id).String() }

func (id CaseID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func ParseCaseActionID(s string) (CaseActionID, error) { return parseID[CaseActionID](s, "case action") }

func (id CaseActionID) String() string { return uuid.UUID(id).String() }

func (id CaseActionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func ParseReportID(s string) (ReportID, error) { return parseID[ReportID](s, "report") }

func (id ReportID) String() string { return uuid.UUID(id).String() }

func (id ReportID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func ParseEvidenceID(s string) (EvidenceID, error) { return parseID[EvidenceID](s, "evidence") }

func (id EvidenceID) String() string { return uuid.UUID(id).String() }

func (id EvidenceID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func ParseCaseNoteID(s string) (CaseNoteID, error) { return parseID[CaseNoteID](s, "case note") }

func (id CaseNoteID) String() string { return uuid.UUID(id).String() }

func (id CaseNoteID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func ParsePersonID(s string) (PersonID, error) { return parseID[PersonID](s, "person") }

func (id PersonID) String() string { return uuid.UUID(id).String() }

func (id PersonID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func ParseTagID(s string) (TagID, error) { return parseID[TagID](s, "tag") }

func (id TagID) String() string { return uuid.UUID(id).String() }

func (id TagID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func ParseLocationID(s string) (LocationID, error) { return parseID[LocationID](s, "location") }

func (id LocationID) String() string { return uuid.UUID(id).String() }

func (id LocationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func ParsePropertyID(s string) (PropertyID, error) { return parseID[PropertyID](s, "property") }

func (id PropertyID) String() string { return uuid.UUID(id).String() }

func (id PropertyID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func ParseBookingID(s string) (BookingID, error) { return parseID[BookingID](s, "booking") }

func (id BookingID) String() string { return uuid.UUID(id).String() }

func (id BookingID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func ParseChargeID(s string) (ChargeID, error) { return parseID[ChargeID](s, "charge") }

func (id ChargeID) String() string { return uuid.UUID(id).String() }

func (id ChargeID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func ParseReleaseID(s string) (ReleaseID, error) { return parseID[ReleaseID](s, "release") }

func (id ReleaseID) String() string { return uuid.UUID(id).String() }

func (id ReleaseID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func ParseVehicleID(s string) (VehicleID, error) { return parseID[VehicleID](s, "vehicle") }

func (id VehicleID) String() string { return uuid.UUID(id).String() }

func (id VehicleID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
