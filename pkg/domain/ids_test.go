package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "pcms/pkg/domain-errors"
)

// TestParseID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseCaseID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseCaseID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseTagID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		caseID, err := ParseCaseID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, CaseID(valid), caseID)
		assert.Equal(t, valid.String(), caseID.String())
		assert.False(t, caseID.IsNil())
	})
}

// TestTypeDistinction documents the compile-time invariant: a TagID cannot be
// passed where a CaseID is expected.
func TestTypeDistinction(t *testing.T) {
	raw := uuid.New()
	caseID := CaseID(raw)
	tagID := TagID(raw)

	// var _ CaseID = tagID // compile error
	assert.Equal(t, uuid.UUID(caseID), uuid.UUID(tagID))
	assert.True(t, CaseID{}.IsNil())
}

func TestParseID_HostileInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE cases;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseUserID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestParseID_ErrorNamesIdentifier(t *testing.T) {
	_, err := ParseEvidenceID("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evidence ID")

	_, err = ParsePersonID("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "person ID")
}
