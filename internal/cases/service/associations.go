package service

import (
	"context"
	"errors"

	"pcms/internal/domain"
	"pcms/internal/storage"
	id "pcms/pkg/domain"
	dErrors "pcms/pkg/domain-errors"
	audit "pcms/pkg/platform/audit"
	"pcms/pkg/platform/sentinel"
	"pcms/pkg/requestcontext"
)

// AssignUser puts userID on the case. Assigning twice is a conflict.
func (s *Service) AssignUser(ctx context.Context, caseID id.CaseID, userID id.UserID) (err error) {
	ctx, done := s.begin(ctx, "assign_user")
	defer func() { done(err) }()

	return s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		if err := requireCase(txCtx, tx, caseID); err != nil {
			return err
		}
		if err := requireEditor(txCtx, tx, userID); err != nil {
			return err
		}
		err := tx.Assignments().Assign(txCtx, &domain.Assignment{
			UserID:     userID,
			CaseID:     caseID,
			AssignedAt: requestcontext.Now(txCtx),
		})
		if err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeConflict, "user is already assigned to case")
			}
			return wrapStoreErr(err, "case not found", "assign user")
		}
		return s.emit(txCtx, childEvent(audit.EventUserAssigned, "user", userID.String(), caseID, requestcontext.UserID(txCtx)),
			"case_id", caseID.String(), "user_id", userID.String())
	})
}

func (s *Service) UnassignUser(ctx context.Context, caseID id.CaseID, userID id.UserID) (err error) {
	ctx, done := s.begin(ctx, "unassign_user")
	defer func() { done(err) }()

	return s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		if err := tx.Assignments().Unassign(txCtx, userID, caseID); err != nil {
			return wrapStoreErr(err, "assignment not found", "unassign user")
		}
		return s.emit(txCtx, childEvent(audit.EventUserUnassigned, "user", userID.String(), caseID, requestcontext.UserID(txCtx)),
			"case_id", caseID.String(), "user_id", userID.String())
	})
}

// AddPerson links an existing person to the case under role.
func (s *Service) AddPerson(ctx context.Context, caseID id.CaseID, personID id.PersonID, role domain.CaseRole) (link *domain.CasePerson, err error) {
	ctx, done := s.begin(ctx, "add_person")
	defer func() { done(err) }()

	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "role must be one of suspect, witness, victim")
	}
	err = s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		if err := requireCase(txCtx, tx, caseID); err != nil {
			return err
		}
		ok, err := tx.Persons().Exists(txCtx, personID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check person")
		}
		if !ok {
			return dErrors.New(dErrors.CodeNotFound, "person not found")
		}

		cp := &domain.CasePerson{
			CaseID:   caseID,
			PersonID: personID,
			Role:     role,
			AddedAt:  requestcontext.Now(txCtx),
		}
		if err := tx.CasePersons().Add(txCtx, cp); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeConflict, "person is already linked to case")
			}
			return wrapStoreErr(err, "case or person not found", "link person")
		}
		if err := s.emit(txCtx, childEvent(audit.EventPersonAdded, "person", personID.String(), caseID, requestcontext.UserID(txCtx)),
			"case_id", caseID.String(), "person_id", personID.String(), "role", string(role)); err != nil {
			return err
		}
		link = cp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (s *Service) RemovePerson(ctx context.Context, caseID id.CaseID, personID id.PersonID) (err error) {
	ctx, done := s.begin(ctx, "remove_person")
	defer func() { done(err) }()

	return s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		if err := tx.CasePersons().Remove(txCtx, caseID, personID); err != nil {
			return wrapStoreErr(err, "person is not linked to case", "unlink person")
		}
		return s.emit(txCtx, childEvent(audit.EventPersonRemoved, "person", personID.String(), caseID, requestcontext.UserID(txCtx)),
			"case_id", caseID.String(), "person_id", personID.String())
	})
}

// ListPersons returns the case's person links in the order they were added.
func (s *Service) ListPersons(ctx context.Context, caseID id.CaseID) (links []*domain.CasePerson, err error) {
	ctx, done := s.begin(ctx, "list_persons")
	defer func() { done(err) }()

	err = s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		if err := requireCase(txCtx, tx, caseID); err != nil {
			return err
		}
		links, err = tx.CasePersons().ListByCase(txCtx, caseID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list case persons")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []*domain.CasePerson{}
	}
	return links, nil
}
