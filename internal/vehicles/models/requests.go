package models

import (
	"strings"
	"time"

	dErrors "pcms/pkg/domain-errors"
)

const (
	maxMakeLength        = 100
	maxVINLength         = 17
	maxPlateLength       = 20
	maxColorLength       = 50
	maxDescriptionLength = 500

	// firstModelYear is the year of the first production automobile.
	firstModelYear = 1886
)

type CreateVehicleRequest struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	VIN          string `json:"vin"`
	LicensePlate string `json:"license_plate"`
	Description  string `json:"description"`
	Color        string `json:"color"`
}

// Normalize trims every field and upper-cases the VIN and plate so lookups
// by either are case-insensitive.
func (r *CreateVehicleRequest) Normalize() {
	if r == nil {
		return
	}
	r.Make = strings.TrimSpace(r.Make)
	r.Model = strings.TrimSpace(r.Model)
	r.VIN = upperTrim(r.VIN)
	r.LicensePlate = upperTrim(r.LicensePlate)
	r.Description = strings.TrimSpace(r.Description)
	r.Color = strings.TrimSpace(r.Color)
}

// Validate follows Size -> Required -> Range. now bounds the model year.
func (r *CreateVehicleRequest) Validate(now time.Time) error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validateSizes(r.Make, r.Model, r.VIN, r.LicensePlate, r.Color, r.Description); err != nil {
		return err
	}
	switch {
	case r.Make == "":
		return dErrors.New(dErrors.CodeValidation, "make is required")
	case r.Model == "":
		return dErrors.New(dErrors.CodeValidation, "model is required")
	case r.VIN == "":
		return dErrors.New(dErrors.CodeValidation, "vin is required")
	case r.LicensePlate == "":
		return dErrors.New(dErrors.CodeValidation, "license plate is required")
	case r.Color == "":
		return dErrors.New(dErrors.CodeValidation, "color is required")
	}
	return validateYear(r.Year, now)
}

// UpdateVehicleRequest is a patch: nil fields are left unchanged.
type UpdateVehicleRequest struct {
	Make         *string `json:"make,omitempty"`
	Model        *string `json:"model,omitempty"`
	Year         *int    `json:"year,omitempty"`
	VIN          *string `json:"vin,omitempty"`
	LicensePlate *string `json:"license_plate,omitempty"`
	Description  *string `json:"description,omitempty"`
	Color        *string `json:"color,omitempty"`
}

func (r *UpdateVehicleRequest) Normalize() {
	if r == nil {
		return
	}
	r.Make = apply(r.Make, strings.TrimSpace)
	r.Model = apply(r.Model, strings.TrimSpace)
	r.VIN = apply(r.VIN, upperTrim)
	r.LicensePlate = apply(r.LicensePlate, upperTrim)
	r.Description = apply(r.Description, strings.TrimSpace)
	r.Color = apply(r.Color, strings.TrimSpace)
}

func (r *UpdateVehicleRequest) Validate(now time.Time) error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := validateSizes(deref(r.Make), deref(r.Model), deref(r.VIN), deref(r.LicensePlate), deref(r.Color), deref(r.Description)); err != nil {
		return err
	}
	required := []struct {
		field string
		value *string
	}{
		{"make", r.Make}, {"model", r.Model}, {"vin", r.VIN}, {"license plate", r.LicensePlate}, {"color", r.Color},
	}
	for _, f := range required {
		if f.value != nil && *f.value == "" {
			return dErrors.New(dErrors.CodeValidation, f.field+" cannot be empty")
		}
	}
	if r.Year != nil {
		return validateYear(*r.Year, now)
	}
	return nil
}

func validateSizes(vehicleMake, model, vin, plate, color, description string) error {
	switch {
	case len(vehicleMake) > maxMakeLength || len(model) > maxMakeLength:
		return dErrors.New(dErrors.CodeValidation, "make and model must be 100 characters or less")
	case len(vin) > maxVINLength:
		return dErrors.New(dErrors.CodeValidation, "vin must be 17 characters or less")
	case len(plate) > maxPlateLength:
		return dErrors.New(dErrors.CodeValidation, "license plate must be 20 characters or less")
	case len(color) > maxColorLength:
		return dErrors.New(dErrors.CodeValidation, "color must be 50 characters or less")
	case len(description) > maxDescriptionLength:
		return dErrors.New(dErrors.CodeValidation, "description must be 500 characters or less")
	}
	return nil
}

// validateYear allows next year's models, which go on sale early.
func validateYear(year int, now time.Time) error {
	if year < firstModelYear || year > now.UTC().Year()+1 {
		return dErrors.New(dErrors.CodeValidation, "year is out of range")
	}
	return nil
}

func upperTrim(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func apply(p *string, fn func(string) string) *string {
	if p == nil {
		return nil
	}
	v := fn(*p)
	return &v
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
