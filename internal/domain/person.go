package domain

import (
	"strings"
	"time"

	id "pcms/pkg/domain"
	dErrors "pcms/pkg/domain-errors"
)

// Person is anyone involved in a case. Roles live on the association.
type Person struct {
	ID          id.PersonID
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
	ContactInfo string
	CreatedAt   time.Time
}

func (p *Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

type CaseRole string

const (
	CaseRoleSuspect CaseRole = "suspect"
	CaseRoleWitness CaseRole = "witness"
	CaseRoleVictim  CaseRole = "victim"
)

func (r CaseRole) IsValid() bool {
	switch r {
	case CaseRoleSuspect, CaseRoleWitness, CaseRoleVictim:
		return true
	}
	return false
}

func ParseCaseRole(s string) (CaseRole, error) {
	role := CaseRole(strings.ToLower(strings.TrimSpace(s)))
	if !role.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid case role: "+s)
	}
	return role, nil
}

// CasePerson ties a person to a case with a role. It dies with either side.
type CasePerson struct {
	CaseID   id.CaseID
	PersonID id.PersonID
	Role     CaseRole
	AddedAt  time.Time
}
