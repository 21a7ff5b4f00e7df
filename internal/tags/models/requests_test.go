package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "pcms/pkg/domain-errors"
)

func TestCreateTagRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     *CreateTagRequest
		wantErr dErrors.Code
	}{
		{"nil request", nil, dErrors.CodeBadRequest},
		{"blank name", &CreateTagRequest{Name: "   "}, dErrors.CodeValidation},
		{"oversized name", &CreateTagRequest{Name: strings.Repeat("x", 101)}, dErrors.CodeValidation},
		{"valid", &CreateTagRequest{Name: " cold-case "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Normalize()
			err := tt.req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, dErrors.HasCode(err, tt.wantErr))
		})
	}
}

func TestUpdateTagRequest(t *testing.T) {
	empty := "  "
	req := &UpdateTagRequest{Name: &empty}
	req.Normalize()
	assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeValidation))

	desc := " only the description "
	req = &UpdateTagRequest{Description: &desc}
	req.Normalize()
	assert.NoError(t, req.Validate())
	assert.Equal(t, "only the description", *req.Description)
}

func TestOutcome(t *testing.T) {
	assert.True(t, OutcomeApplied.Applied())
	for _, o := range []Outcome{OutcomeNoop, OutcomeTagNotFound, OutcomeCaseNotFound, OutcomeInUse} {
		assert.False(t, o.Applied(), o.String())
	}
	assert.Equal(t, "case_not_found", OutcomeCaseNotFound.String())
	assert.Equal(t, "unknown", Outcome(99).String())
}
