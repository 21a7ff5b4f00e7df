package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "pcms/pkg/domain"
	dErrors "pcms/pkg/domain-errors"
)

func TestAuditTrail(t *testing.T) {
	creator := id.UserID(uuid.New())
	editor := id.UserID(uuid.New())
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	ev := &Evidence{ID: id.EvidenceID(uuid.New()), AuditTrail: NewAuditTrail(creator, created)}

	t.Run("fresh record has no last modifier", func(t *testing.T) {
		assert.Equal(t, creator, ev.CreatedBy)
		assert.Equal(t, created, ev.CreatedAt)
		assert.Nil(t, ev.LastModifiedBy)
		assert.Nil(t, ev.LastModifiedAt)
		assert.False(t, ev.Modified())
	})

	t.Run("stamp records the mutation", func(t *testing.T) {
		later := created.Add(time.Hour)
		Stamp(ev, editor, later)
		require.NotNil(t, ev.LastModifiedBy)
		assert.Equal(t, editor, *ev.LastModifiedBy)
		assert.Equal(t, later, *ev.LastModifiedAt)
		assert.Equal(t, creator, ev.CreatedBy, "creator never changes")
	})
}

func TestSoftDelete(t *testing.T) {
	deleter := id.UserID(uuid.New())
	at := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	ev := &Evidence{ID: id.EvidenceID(uuid.New())}

	require.NoError(t, SoftDelete(ev, deleter, at))
	assert.True(t, IsDeleted(ev))
	assert.Equal(t, deleter, *ev.DeletedBy)
	assert.Equal(t, at, *ev.DeletedAt)

	err := SoftDelete(ev, deleter, at.Add(time.Minute))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	assert.Equal(t, at, *ev.DeletedAt, "first tombstone wins")
}

func TestTraitComposition(t *testing.T) {
	var _ Auditable = &Evidence{}
	var _ SoftDeletable = &Evidence{}
	var _ Auditable = &CaseAction{}
	var _ Auditable = &Report{}
	var _ Auditable = &Tag{}
}
