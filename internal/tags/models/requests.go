package models

import (
	"strings"

	dErrors "pcms/pkg/domain-errors"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 500
)

type CreateTagRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r *CreateTagRequest) Normalize() {
	if r == nil {
		return
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
}

// Follows validation order: Size -> Required.
func (r *CreateTagRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validateSizes(r.Name, r.Description); err != nil {
		return err
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

// UpdateTagRequest is a patch: nil fields are left unchanged.
type UpdateTagRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (r *UpdateTagRequest) Normalize() {
	if r == nil {
		return
	}
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		r.Name = &name
	}
	if r.Description != nil {
		desc := strings.TrimSpace(*r.Description)
		r.Description = &desc
	}
}

func (r *UpdateTagRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	var name, desc string
	if r.Name != nil {
		name = *r.Name
	}
	if r.Description != nil {
		desc = *r.Description
	}
	if err := validateSizes(name, desc); err != nil {
		return err
	}
	if r.Name != nil && name == "" {
		return dErrors.New(dErrors.CodeValidation, "name cannot be empty")
	}
	return nil
}

func validateSizes(name, description string) error {
	if len(name) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name must be 100 characters or less")
	}
	if len(description) > maxDescriptionLength {
		return dErrors.New(dErrors.CodeValidation, "description must be 500 characters or less")
	}
	return nil
}
