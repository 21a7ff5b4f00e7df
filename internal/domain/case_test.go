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

func newTestCase(t *testing.T) *Case {
	t.Helper()
	c, err := NewCase(id.CaseID(uuid.New()), "CA-2024-00000001", "Burglary", "Back door forced",
		CasePriorityHigh, "property", id.UserID(uuid.New()), time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return c
}

func TestNewCase(t *testing.T) {
	t.Run("opens with creator as last editor", func(t *testing.T) {
		c := newTestCase(t)
		assert.Equal(t, CaseStatusOpen, c.Status)
		assert.Equal(t, c.CreatedBy, c.LastEditedBy)
		assert.Equal(t, c.OpenedAt, c.LastModifiedAt)
		assert.Nil(t, c.ClosedAt)
	})

	t.Run("rejects missing title", func(t *testing.T) {
		_, err := NewCase(id.CaseID(uuid.New()), "CA-2024-00000001", "  ", "", CasePriorityLow, "", id.UserID(uuid.New()), time.Now())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects unknown priority", func(t *testing.T) {
		_, err := NewCase(id.CaseID(uuid.New()), "CA-2024-00000001", "x", "", CasePriority("urgent"), "", id.UserID(uuid.New()), time.Now())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects nil creator", func(t *testing.T) {
		_, err := NewCase(id.CaseID(uuid.New()), "CA-2024-00000001", "x", "", CasePriorityLow, "", id.UserID{}, time.Now())
		require.Error(t, err)
	})
}

func TestCaseEdit(t *testing.T) {
	editor := id.UserID(uuid.New())
	t0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	c := newTestCase(t)
	fields := CaseFields{Title: "Burglary (updated)", Status: CaseStatusClosed, Priority: CasePriorityCritical, Type: "property"}
	require.NoError(t, c.Edit(fields, editor, t0))
	assert.Equal(t, editor, c.LastEditedBy)
	assert.Equal(t, t0, c.LastModifiedAt)
	require.NotNil(t, c.ClosedAt)
	assert.Equal(t, t0, *c.ClosedAt)

	// staying closed keeps the original close time
	require.NoError(t, c.Edit(fields, editor, t0.Add(time.Hour)))
	assert.Equal(t, t0, *c.ClosedAt)

	fields.Status = CaseStatusInProgress
	require.NoError(t, c.Edit(fields, editor, t0.Add(2*time.Hour)))
	assert.Nil(t, c.ClosedAt)

	fields.Status = CaseStatus("archived")
	require.Error(t, c.Edit(fields, editor, t0))
}

func TestParseEnums(t *testing.T) {
	s, err := ParseCaseStatus("On_Hold")
	require.NoError(t, err)
	assert.Equal(t, CaseStatusOnHold, s)

	_, err = ParseCaseStatus("pending")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	p, err := ParseCasePriority(" HIGH ")
	require.NoError(t, err)
	assert.Equal(t, CasePriorityHigh, p)

	r, err := ParseCaseRole("witness")
	require.NoError(t, err)
	assert.Equal(t, CaseRoleWitness, r)

	_, err = ParseCaseRole("bystander")
	require.Error(t, err)
}
