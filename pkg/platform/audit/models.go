package audit

import (
	"context"
	"time"

	id "pcms/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// Retention and routing differ per category.
type EventCategory string

const (
	// CategoryCompliance covers events with evidential significance: records
	// created or destroyed, evidence tombstoned. Long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine edits and associations.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category   EventCategory
	Timestamp  time.Time
	ActorID    id.UserID // user who performed the action, when known
	Action     string
	EntityType string // record acted on
	EntityID   string
	CaseID     string // owning case for child-record and association events
	CaseNumber string
	Reason     string
	RequestID  string
}

type AuditEvent string

const (
	// Case events
	EventCaseCreated         AuditEvent = "case_created"
	EventCaseUpdated         AuditEvent = "case_updated"
	EventCaseDeleted         AuditEvent = "case_deleted"
	EventCaseNumberCollision AuditEvent = "case_number_collision"

	// Case child events
	EventActionAdded     AuditEvent = "case_action_added"
	EventActionUpdated   AuditEvent = "case_action_updated"
	EventReportAdded     AuditEvent = "report_added"
	EventReportUpdated   AuditEvent = "report_updated"
	EventEvidenceAdded   AuditEvent = "evidence_added"
	EventEvidenceUpdated AuditEvent = "evidence_updated"
	EventEvidenceDeleted AuditEvent = "evidence_deleted"
	EventNoteAdded       AuditEvent = "case_note_added"

	// Association events
	EventUserAssigned   AuditEvent = "user_assigned"
	EventUserUnassigned AuditEvent = "user_unassigned"
	EventPersonAdded    AuditEvent = "case_person_added"
	EventPersonRemoved  AuditEvent = "case_person_removed"
	EventTagLinked      AuditEvent = "tag_linked"
	EventTagUnlinked    AuditEvent = "tag_unlinked"

	// Tag events
	EventTagCreated AuditEvent = "tag_created"
	EventTagUpdated AuditEvent = "tag_updated"
	EventTagDeleted AuditEvent = "tag_deleted"

	// Person events
	EventPersonCreated AuditEvent = "person_created"
	EventPersonDeleted AuditEvent = "person_deleted"

	// Vehicle events
	EventVehicleCreated AuditEvent = "vehicle_created"
	EventVehicleUpdated AuditEvent = "vehicle_updated"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventCaseCreated:     CategoryCompliance,
	EventCaseDeleted:     CategoryCompliance,
	EventEvidenceAdded:   CategoryCompliance,
	EventEvidenceDeleted: CategoryCompliance,
	EventPersonCreated:   CategoryCompliance,
	EventPersonDeleted:   CategoryCompliance,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// OutboxEntry is a persisted event awaiting relay to the event stream.
type OutboxEntry struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
}

// Category derives the entry's category from its event type.
func (e OutboxEntry) Category() EventCategory {
	return AuditEvent(e.EventType).Category()
}
