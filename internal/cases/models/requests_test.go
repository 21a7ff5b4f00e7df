package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcms/internal/domain"
	id "pcms/pkg/domain"
	dErrors "pcms/pkg/domain-errors"
)

func TestCreateCaseRequest(t *testing.T) {
	creator := id.UserID(uuid.New())

	tests := []struct {
		name string
		req  *CreateCaseRequest
		code dErrors.Code
	}{
		{"nil request", nil, dErrors.CodeBadRequest},
		{"oversized title", &CreateCaseRequest{Title: strings.Repeat("x", 201), Priority: "low", CreatedBy: creator}, dErrors.CodeValidation},
		{"missing title", &CreateCaseRequest{Title: "   ", Priority: "low", CreatedBy: creator}, dErrors.CodeValidation},
		{"missing creator", &CreateCaseRequest{Title: "Burglary", Priority: "low"}, dErrors.CodeValidation},
		{"unknown priority", &CreateCaseRequest{Title: "Burglary", Priority: "urgent", CreatedBy: creator}, dErrors.CodeValidation},
		{"valid after normalize", &CreateCaseRequest{Title: " Burglary ", Priority: " HIGH ", CreatedBy: creator}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Normalize()
			err := tt.req.Validate()
			if tt.code == "" {
				require.NoError(t, err)
				assert.Equal(t, "Burglary", tt.req.Title)
				assert.Equal(t, domain.CasePriorityHigh, tt.req.Priority)
				return
			}
			assert.True(t, dErrors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestUpdateCaseRequest(t *testing.T) {
	req := &UpdateCaseRequest{Title: "Fraud", Status: " Closed", Priority: "low", Type: " financial "}
	req.Normalize()
	require.NoError(t, req.Validate())

	fields := req.Fields()
	assert.Equal(t, domain.CaseStatusClosed, fields.Status)
	assert.Equal(t, "financial", fields.Type)

	req.Status = "archived"
	assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeValidation))
}

func TestChildRequests(t *testing.T) {
	t.Run("action needs a name", func(t *testing.T) {
		req := &ActionRequest{Name: " "}
		req.Normalize()
		assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeValidation))
	})

	t.Run("report needs a title", func(t *testing.T) {
		req := &ReportRequest{Details: "something happened"}
		req.Normalize()
		assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeValidation))
	})

	t.Run("evidence needs a type and collection time", func(t *testing.T) {
		req := &EvidenceRequest{Type: "photo"}
		req.Normalize()
		assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeValidation))

		req.CollectedAt = time.Date(2024, 2, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))
		req.Normalize()
		require.NoError(t, req.Validate())
		assert.Equal(t, time.UTC, req.CollectedAt.Location())
	})

	t.Run("note content is bounded", func(t *testing.T) {
		req := &NoteRequest{Content: strings.Repeat("n", 5001)}
		assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeValidation))
		req.Content = ""
		assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeValidation))
	})
}
