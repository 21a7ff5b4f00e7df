package domain

import (
	"time"

	id "pcms/pkg/domain"
	dErrors "pcms/pkg/domain-errors"
)

// AuditTrail records who created a record and who touched it last.
// Creator fields are always set; the last-modifier fields stay nil until the
// first mutation after creation.
type AuditTrail struct {
	CreatedBy      id.UserID
	CreatedAt      time.Time
	LastModifiedBy *id.UserID
	LastModifiedAt *time.Time
}

// NewAuditTrail starts a trail for a record created by `by` at `at`.
func NewAuditTrail(by id.UserID, at time.Time) AuditTrail {
	return AuditTrail{CreatedBy: by, CreatedAt: at}
}

// Touch records a mutation.
func (a *AuditTrail) Touch(by id.UserID, at time.Time) {
	a.LastModifiedBy = &by
	a.LastModifiedAt = &at
}

// Modified reports whether the record was mutated after creation.
func (a *AuditTrail) Modified() bool {
	return a.LastModifiedBy != nil
}

func (a *AuditTrail) AuditInfo() *AuditTrail { return a }

// Tombstone marks a record as logically deleted. Tombstoned records are never
// physically removed by their own delete operation.
type Tombstone struct {
	IsDeleted bool
	DeletedBy *id.UserID
	DeletedAt *time.Time
}

func (t *Tombstone) DeletionInfo() *Tombstone { return t }

// Auditable is implemented by any record embedding AuditTrail.
type Auditable interface {
	AuditInfo() *AuditTrail
}

// SoftDeletable is implemented by any record embedding Tombstone.
type SoftDeletable interface {
	DeletionInfo() *Tombstone
}

// Stamp records a mutation on an auditable record.
func Stamp(rec Auditable, by id.UserID, at time.Time) {
	rec.AuditInfo().Touch(by, at)
}

// SoftDelete tombstones rec. Deleting an already deleted record is an
// invariant violation; callers usually surface it as not found.
func SoftDelete(rec SoftDeletable, by id.UserID, at time.Time) error {
	t := rec.DeletionInfo()
	if t.IsDeleted {
		return dErrors.New(dErrors.CodeInvariantViolation, "record already deleted")
	}
	t.IsDeleted = true
	t.DeletedBy = &by
	t.DeletedAt = &at
	return nil
}

// IsDeleted reports whether rec carries a tombstone.
func IsDeleted(rec SoftDeletable) bool {
	return rec.DeletionInfo().IsDeleted
}
