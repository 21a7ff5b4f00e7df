package models

import (
	"strings"
	"time"

	dErrors "pcms/pkg/domain-errors"
)

type CreatePersonRequest struct {
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	ContactInfo string     `json:"contact_info"`
}

func (r *CreatePersonRequest) Normalize() {
	if r == nil {
		return
	}
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.ContactInfo = strings.TrimSpace(r.ContactInfo)
	if r.DateOfBirth != nil {
		dob := r.DateOfBirth.UTC()
		r.DateOfBirth = &dob
	}
}

// Validate checks the request against now so a birth date cannot lie in the future.
func (r *CreatePersonRequest) Validate(now time.Time) error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.FirstName) > 100 || len(r.LastName) > 100 {
		return dErrors.New(dErrors.CodeValidation, "names must be 100 characters or less")
	}
	if len(r.ContactInfo) > 500 {
		return dErrors.New(dErrors.CodeValidation, "contact info must be 500 characters or less")
	}
	if r.FirstName == "" && r.LastName == "" {
		return dErrors.New(dErrors.CodeValidation, "first or last name is required")
	}
	if r.DateOfBirth != nil && r.DateOfBirth.After(now) {
		return dErrors.New(dErrors.CodeValidation, "date of birth cannot be in the future")
	}
	return nil
}
