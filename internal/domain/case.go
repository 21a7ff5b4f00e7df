package domain

import (
	"strings"
	"time"

	id "pcms/pkg/domain"
	dErrors "pcms/pkg/domain-errors"
)

// CaseStatus is where a case sits in its lifecycle.
type CaseStatus string

const (
	CaseStatusOpen       CaseStatus = "open"
	CaseStatusInProgress CaseStatus = "in_progress"
	CaseStatusOnHold     CaseStatus = "on_hold"
	CaseStatusResolved   CaseStatus = "resolved"
	CaseStatusClosed     CaseStatus = "closed"
)

func (s CaseStatus) IsValid() bool {
	switch s {
	case CaseStatusOpen, CaseStatusInProgress, CaseStatusOnHold, CaseStatusResolved, CaseStatusClosed:
		return true
	}
	return false
}

// ParseCaseStatus accepts the wire values above, case-insensitively.
func ParseCaseStatus(s string) (CaseStatus, error) {
	status := CaseStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid case status: "+s)
	}
	return status, nil
}

type CasePriority string

const (
	CasePriorityLow      CasePriority = "low"
	CasePriorityMedium   CasePriority = "medium"
	CasePriorityHigh     CasePriority = "high"
	CasePriorityCritical CasePriority = "critical"
)

func (p CasePriority) IsValid() bool {
	switch p {
	case CasePriorityLow, CasePriorityMedium, CasePriorityHigh, CasePriorityCritical:
		return true
	}
	return false
}

func ParseCasePriority(s string) (CasePriority, error) {
	priority := CasePriority(strings.ToLower(strings.TrimSpace(s)))
	if !priority.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid case priority: "+s)
	}
	return priority, nil
}

// Case is the root aggregate. It owns actions, reports, evidence and notes.
type Case struct {
	ID             id.CaseID
	CaseNumber     string
	Title          string
	Description    string
	Status         CaseStatus
	Priority       CasePriority
	Type           string
	OpenedAt       time.Time
	LastModifiedAt time.Time
	ClosedAt       *time.Time
	CreatedBy      id.UserID
	LastEditedBy   id.UserID
}

// NewCase opens a case. Creator and last editor both start as createdBy.
func NewCase(caseID id.CaseID, caseNumber, title, description string, priority CasePriority, caseType string, createdBy id.UserID, now time.Time) (*Case, error) {
	if caseID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "case ID is required")
	}
	if caseNumber == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "case number is required")
	}
	if createdBy.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "creator is required")
	}
	c := &Case{
		ID:             caseID,
		CaseNumber:     caseNumber,
		Status:         CaseStatusOpen,
		OpenedAt:       now,
		LastModifiedAt: now,
		CreatedBy:      createdBy,
		LastEditedBy:   createdBy,
	}
	if err := c.setFields(CaseFields{Title: title, Description: description, Status: CaseStatusOpen, Priority: priority, Type: caseType}); err != nil {
		return nil, err
	}
	return c, nil
}

// CaseFields is the fully resolved set of editable case attributes.
type CaseFields struct {
	Title       string
	Description string
	Status      CaseStatus
	Priority    CasePriority
	Type        string
}

// Edit overwrites the editable fields. Entering closed stamps ClosedAt;
// leaving closed clears it.
func (c *Case) Edit(fields CaseFields, editor id.UserID, now time.Time) error {
	wasClosed := c.Status == CaseStatusClosed
	if err := c.setFields(fields); err != nil {
		return err
	}
	switch {
	case c.Status == CaseStatusClosed && !wasClosed:
		c.ClosedAt = &now
	case c.Status != CaseStatusClosed:
		c.ClosedAt = nil
	}
	c.LastEditedBy = editor
	c.LastModifiedAt = now
	return nil
}

func (c *Case) setFields(f CaseFields) error {
	title := strings.TrimSpace(f.Title)
	if title == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "title is required")
	}
	if !f.Status.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "invalid case status")
	}
	if !f.Priority.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "invalid case priority")
	}
	c.Title = title
	c.Description = f.Description
	c.Status = f.Status
	c.Priority = f.Priority
	c.Type = strings.TrimSpace(f.Type)
	return nil
}

func (c *Case) IsClosed() bool {
	return c.Status == CaseStatusClosed
}

// CaseAction is a step taken on a case.
type CaseAction struct {
	ID          id.CaseActionID
	CaseID      id.CaseID
	Name        string
	Description string
	Type        string
	AuditTrail
}

type Report struct {
	ID      id.ReportID
	CaseID  id.CaseID
	Title   string
	Details string
	AuditTrail
}

// CaseNote is a free-text note. Notes are append-only.
type CaseNote struct {
	ID        id.CaseNoteID
	CaseID    id.CaseID
	Content   string
	CreatedBy id.UserID
	CreatedAt time.Time
}

// CaseDetails is a case with its children and assignees resolved.
// Evidence carries live (non-tombstoned) records only.
type CaseDetails struct {
	Case          *Case
	Actions       []*CaseAction
	Reports       []*Report
	Evidence      []EvidenceSummary
	AssignedUsers []*User
}
