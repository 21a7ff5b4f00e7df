package domain

import (
	"time"

	id "pcms/pkg/domain"
)

// User is an officer or staff member. Identity and credentials live in the
// identity subsystem; this is the projection cases reference.
type User struct {
	ID           id.UserID
	UserName     string
	Email        string
	FirstName    string
	LastName     string
	Rank         string
	BadgeNumber  string
	DepartmentID *id.DepartmentID
	CreatedAt    time.Time
}

// Assignment is the (user, case) association row.
type Assignment struct {
	UserID     id.UserID
	CaseID     id.CaseID
	AssignedAt time.Time
}

// Department groups users. Deleting one detaches its users.
type Department struct {
	ID          id.DepartmentID
	Name        string
	ShortCode   string
	Description string
}
