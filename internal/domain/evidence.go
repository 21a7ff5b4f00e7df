package domain

import (
	"time"

	id "pcms/pkg/domain"
)

// Evidence is audited and soft-deletable: deleting it leaves a tombstone
// naming the deleter. Only the owning case's delete removes the row.
type Evidence struct {
	ID          id.EvidenceID
	CaseID      id.CaseID
	FileURL     string
	Type        string
	Description string
	Location    string
	CollectedBy string
	CollectedAt time.Time
	AuditTrail
	Tombstone
}

// EvidenceSummary is the slice of evidence returned with a case.
type EvidenceSummary struct {
	ID          id.EvidenceID
	Type        string
	Description string
	FileURL     string
	CollectedAt time.Time
}

func (e *Evidence) Summary() EvidenceSummary {
	return EvidenceSummary{
		ID:          e.ID,
		Type:        e.Type,
		Description: e.Description,
		FileURL:     e.FileURL,
		CollectedAt: e.CollectedAt,
	}
}
