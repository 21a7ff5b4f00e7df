package domain

import (
	"time"

	id "pcms/pkg/domain"
)

// Location is a site such as a station or a crime scene.
type Location struct {
	ID      id.LocationID
	Name    string
	Address string
}

// Property is an item held at a location. It is deleted with its location.
type Property struct {
	ID          id.PropertyID
	LocationID  id.LocationID
	Name        string
	Description string
	Value       int64
}

// Booking records a person taken into custody.
type Booking struct {
	ID         id.BookingID
	PersonID   id.PersonID
	UserID     id.UserID
	LocationID *id.LocationID
	BookedAt   time.Time
	Notes      string
}

// Charge belongs to exactly one booking.
type Charge struct {
	ID          id.ChargeID
	BookingID   id.BookingID
	Offense     string
	Description string
	ChargedAt   time.Time
}

// Release closes a booking; a booking has at most one.
type Release struct {
	ID         id.ReleaseID
	BookingID  id.BookingID
	ReleasedAt time.Time
	Conditions string
}
