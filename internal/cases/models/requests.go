package models

import (
	"strings"
	"time"

	"pcms/internal/domain"
	id "pcms/pkg/domain"
	dErrors "pcms/pkg/domain-errors"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 5000
	maxTypeLength        = 100
)

type CreateCaseRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    domain.CasePriority `json:"priority"`
	Type        string              `json:"type"`
	CreatedBy   id.UserID           `json:"-"`
}

func (r *CreateCaseRequest) Normalize() {
	if r == nil {
		return
	}
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Priority = domain.CasePriority(strings.ToLower(strings.TrimSpace(string(r.Priority))))
	r.Type = strings.TrimSpace(r.Type)
}

// Follows validation order: Size -> Required -> Syntax -> Semantic.
func (r *CreateCaseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validateCaseSizes(r.Title, r.Description, r.Type); err != nil {
		return err
	}
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if r.CreatedBy.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "creator is required")
	}
	if !r.Priority.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "priority must be one of low, medium, high, critical")
	}
	return nil
}

// UpdateCaseRequest carries the full field set; every field is overwritten.
type UpdateCaseRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      domain.CaseStatus   `json:"status"`
	Priority    domain.CasePriority `json:"priority"`
	Type        string              `json:"type"`
}

func (r *UpdateCaseRequest) Normalize() {
	if r == nil {
		return
	}
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Status = domain.CaseStatus(strings.ToLower(strings.TrimSpace(string(r.Status))))
	r.Priority = domain.CasePriority(strings.ToLower(strings.TrimSpace(string(r.Priority))))
	r.Type = strings.TrimSpace(r.Type)
}

func (r *UpdateCaseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validateCaseSizes(r.Title, r.Description, r.Type); err != nil {
		return err
	}
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if !r.Status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "status must be one of open, in_progress, on_hold, resolved, closed")
	}
	if !r.Priority.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "priority must be one of low, medium, high, critical")
	}
	return nil
}

// Fields converts the request into the domain field set.
func (r *UpdateCaseRequest) Fields() domain.CaseFields {
	return domain.CaseFields{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
		Type:        r.Type,
	}
}

func validateCaseSizes(title, description, caseType string) error {
	if len(title) > maxTitleLength {
		return dErrors.New(dErrors.CodeValidation, "title must be 200 characters or less")
	}
	if len(description) > maxDescriptionLength {
		return dErrors.New(dErrors.CodeValidation, "description must be 5000 characters or less")
	}
	if len(caseType) > maxTypeLength {
		return dErrors.New(dErrors.CodeValidation, "type must be 100 characters or less")
	}
	return nil
}

type ActionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

func (r *ActionRequest) Normalize() {
	if r == nil {
		return
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.Type = strings.TrimSpace(r.Type)
}

func (r *ActionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Name) > maxTitleLength {
		return dErrors.New(dErrors.CodeValidation, "name must be 200 characters or less")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

type ReportRequest struct {
	Title   string `json:"title"`
	Details string `json:"details"`
}

func (r *ReportRequest) Normalize() {
	if r == nil {
		return
	}
	r.Title = strings.TrimSpace(r.Title)
	r.Details = strings.TrimSpace(r.Details)
}

func (r *ReportRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Title) > maxTitleLength {
		return dErrors.New(dErrors.CodeValidation, "title must be 200 characters or less")
	}
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	return nil
}

type EvidenceRequest struct {
	FileURL     string    `json:"file_url"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	CollectedBy string    `json:"collected_by"`
	CollectedAt time.Time `json:"collected_at"`
}

func (r *EvidenceRequest) Normalize() {
	if r == nil {
		return
	}
	r.FileURL = strings.TrimSpace(r.FileURL)
	r.Type = strings.TrimSpace(r.Type)
	r.Description = strings.TrimSpace(r.Description)
	r.Location = strings.TrimSpace(r.Location)
	r.CollectedBy = strings.TrimSpace(r.CollectedBy)
	if !r.CollectedAt.IsZero() {
		r.CollectedAt = r.CollectedAt.UTC()
	}
}

func (r *EvidenceRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Description) > maxDescriptionLength {
		return dErrors.New(dErrors.CodeValidation, "description must be 5000 characters or less")
	}
	if r.Type == "" {
		return dErrors.New(dErrors.CodeValidation, "type is required")
	}
	if r.CollectedAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "collected_at is required")
	}
	return nil
}

type NoteRequest struct {
	Content string `json:"content"`
}

func (r *NoteRequest) Normalize() {
	if r == nil {
		return
	}
	r.Content = strings.TrimSpace(r.Content)
}

func (r *NoteRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Content) > maxDescriptionLength {
		return dErrors.New(dErrors.CodeValidation, "content must be 5000 characters or less")
	}
	if r.Content == "" {
		return dErrors.New(dErrors.CodeValidation, "content is required")
	}
	return nil
}
