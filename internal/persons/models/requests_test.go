package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "pcms/pkg/domain-errors"
)

func TestCreatePersonRequest(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("nil request", func(t *testing.T) {
		var req *CreatePersonRequest
		req.Normalize()
		assert.True(t, dErrors.HasCode(req.Validate(now), dErrors.CodeBadRequest))
	})

	t.Run("normalizes names and birth date zone", func(t *testing.T) {
		dob := time.Date(1990, 5, 1, 12, 0, 0, 0, time.FixedZone("EST", -5*3600))
		req := &CreatePersonRequest{FirstName: " Jane ", LastName: " Roe", DateOfBirth: &dob}
		req.Normalize()
		require.NoError(t, req.Validate(now))
		assert.Equal(t, "Jane", req.FirstName)
		assert.Equal(t, "Roe", req.LastName)
		assert.Equal(t, time.UTC, req.DateOfBirth.Location())
	})

	t.Run("one name is enough", func(t *testing.T) {
		req := &CreatePersonRequest{LastName: "Unknown"}
		assert.NoError(t, req.Validate(now))
	})

	t.Run("rejects oversized contact info", func(t *testing.T) {
		req := &CreatePersonRequest{LastName: "Doe", ContactInfo: string(make([]byte, 501))}
		assert.True(t, dErrors.HasCode(req.Validate(now), dErrors.CodeValidation))
	})
}
