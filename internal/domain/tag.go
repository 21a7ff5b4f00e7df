package domain

import (
	"time"

	id "pcms/pkg/domain"
)

// Tag is a label that can be linked to any number of cases.
// It cannot be deleted while linked.
type Tag struct {
	ID          id.TagID
	Name        string
	Description string
	AuditTrail
}

// CaseTag is the (case, tag) association row.
type CaseTag struct {
	CaseID   id.CaseID
	TagID    id.TagID
	LinkedAt time.Time
}
