package service

import (
	"context"

	"github.com/google/uuid"

	"pcms/internal/cases/models"
	"pcms/internal/domain"
	"pcms/internal/storage"
	id "pcms/pkg/domain"
	dErrors "pcms/pkg/domain-errors"
	audit "pcms/pkg/platform/audit"
	"pcms/pkg/requestcontext"
)

// AddAction records a step taken on the case by userID.
func (s *Service) AddAction(ctx context.Context, caseID id.CaseID, userID id.UserID, req *models.ActionRequest) (action *domain.CaseAction, err error) {
	ctx, done := s.begin(ctx, "add_action")
	defer func() { done(err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	err = s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		if err := requireCase(txCtx, tx, caseID); err != nil {
			return err
		}
		if err := requireCreator(txCtx, tx, userID); err != nil {
			return err
		}
		a := &domain.CaseAction{
			ID:          id.CaseActionID(uuid.New()),
			CaseID:      caseID,
			Name:        req.Name,
			Description: req.Description,
			Type:        req.Type,
			AuditTrail:  domain.NewAuditTrail(userID, requestcontext.Now(txCtx)),
		}
		if err := tx.Actions().Create(txCtx, a); err != nil {
			return wrapStoreErr(err, "case not found", "create case action")
		}
		if err := s.emit(txCtx, childEvent(audit.EventActionAdded, "case_action", a.ID.String(), caseID, userID),
			"case_id", caseID.String(), "action_id", a.ID.String()); err != nil {
			return err
		}
		action = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return action, nil
}

func (s *Service) GetAction(ctx context.Context, actionID id.CaseActionID) (action *domain.CaseAction, err error) {
	ctx, done := s.begin(ctx, "get_action")
	defer func() { done(err) }()

	err = s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		action, err = tx.Actions().Get(txCtx, actionID)
		if err != nil {
			return wrapStoreErr(err, "case action not found", "load case action")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return action, nil
}

// UpdateAction overwrites the action's fields and stamps editorID as last modifier.
func (s *Service) UpdateAction(ctx context.Context, actionID id.CaseActionID, editorID id.UserID, req *models.ActionRequest) (action *domain.CaseAction, err error) {
	ctx, done := s.begin(ctx, "update_action")
	defer func() { done(err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	err = s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		a, err := tx.Actions().Get(txCtx, actionID)
		if err != nil {
			return wrapStoreErr(err, "case action not found", "load case action")
		}
		if err := requireEditor(txCtx, tx, editorID); err != nil {
			return err
		}
		a.Name = req.Name
		a.Description = req.Description
		a.Type = req.Type
		domain.Stamp(a, editorID, requestcontext.Now(txCtx))
		if err := tx.Actions().Update(txCtx, a); err != nil {
			return wrapStoreErr(err, "case action not found", "update case action")
		}
		if err := s.emit(txCtx, childEvent(audit.EventActionUpdated, "case_action", a.ID.String(), a.CaseID, editorID),
			"case_id", a.CaseID.String(), "action_id", a.ID.String()); err != nil {
			return err
		}
		action = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return action, nil
}

func (s *Service) AddReport(ctx context.Context, caseID id.CaseID, userID id.UserID, req *models.ReportRequest) (report *domain.Report, err error) {
	ctx, done := s.begin(ctx, "add_report")
	defer func() { done(err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	err = s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		if err := requireCase(txCtx, tx, caseID); err != nil {
			return err
		}
		if err := requireCreator(txCtx, tx, userID); err != nil {
			return err
		}
		r := &domain.Report{
			ID:         id.ReportID(uuid.New()),
			CaseID:     caseID,
			Title:      req.Title,
			Details:    req.Details,
			AuditTrail: domain.NewAuditTrail(userID, requestcontext.Now(txCtx)),
		}
		if err := tx.Reports().Create(txCtx, r); err != nil {
			return wrapStoreErr(err, "case not found", "create report")
		}
		if err := s.emit(txCtx, childEvent(audit.EventReportAdded, "report", r.ID.String(), caseID, userID),
			"case_id", caseID.String(), "report_id", r.ID.String()); err != nil {
			return err
		}
		report = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *Service) GetReport(ctx context.Context, reportID id.ReportID) (report *domain.Report, err error) {
	ctx, done := s.begin(ctx, "get_report")
	defer func() { done(err) }()

	err = s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		report, err = tx.Reports().Get(txCtx, reportID)
		if err != nil {
			return wrapStoreErr(err, "report not found", "load report")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *Service) UpdateReport(ctx context.Context, reportID id.ReportID, editorID id.UserID, req *models.ReportRequest) (report *domain.Report, err error) {
	ctx, done := s.begin(ctx, "update_report")
	defer func() { done(err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	err = s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		r, err := tx.Reports().Get(txCtx, reportID)
		if err != nil {
			return wrapStoreErr(err, "report not found", "load report")
		}
		if err := requireEditor(txCtx, tx, editorID); err != nil {
			return err
		}
		r.Title = req.Title
		r.Details = req.Details
		domain.Stamp(r, editorID, requestcontext.Now(txCtx))
		if err := tx.Reports().Update(txCtx, r); err != nil {
			return wrapStoreErr(err, "report not found", "update report")
		}
		if err := s.emit(txCtx, childEvent(audit.EventReportUpdated, "report", r.ID.String(), r.CaseID, editorID),
			"case_id", r.CaseID.String(), "report_id", r.ID.String()); err != nil {
			return err
		}
		report = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *Service) AddEvidence(ctx context.Context, caseID id.CaseID, userID id.UserID, req *models.EvidenceRequest) (evidence *domain.Evidence, err error) {
	ctx, done := s.begin(ctx, "add_evidence")
	defer func() { done(err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	err = s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		if err := requireCase(txCtx, tx, caseID); err != nil {
			return err
		}
		if err := requireCreator(txCtx, tx, userID); err != nil {
			return err
		}
		ev := &domain.Evidence{
			ID:          id.EvidenceID(uuid.New()),
			CaseID:      caseID,
			FileURL:     req.FileURL,
			Type:        req.Type,
			Description: req.Description,
			Location:    req.Location,
			CollectedBy: req.CollectedBy,
			CollectedAt: req.CollectedAt,
			AuditTrail:  domain.NewAuditTrail(userID, requestcontext.Now(txCtx)),
		}
		if err := tx.Evidence().Create(txCtx, ev); err != nil {
			return wrapStoreErr(err, "case not found", "create evidence")
		}
		if err := s.emit(txCtx, childEvent(audit.EventEvidenceAdded, "evidence", ev.ID.String(), caseID, userID),
			"case_id", caseID.String(), "evidence_id", ev.ID.String()); err != nil {
			return err
		}
		evidence = ev
		return nil
	})
	if err != nil {
		return nil, err
	}
	return evidence, nil
}

// GetEvidence hides tombstoned records.
func (s *Service) GetEvidence(ctx context.Context, evidenceID id.EvidenceID) (evidence *domain.Evidence, err error) {
	ctx, done := s.begin(ctx, "get_evidence")
	defer func() { done(err) }()

	err = s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		evidence, err = liveEvidence(txCtx, tx, evidenceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return evidence, nil
}

func (s *Service) UpdateEvidence(ctx context.Context, evidenceID id.EvidenceID, editorID id.UserID, req *models.EvidenceRequest) (evidence *domain.Evidence, err error) {
	ctx, done := s.begin(ctx, "update_evidence")
	defer func() { done(err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	err = s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		ev, err := liveEvidence(txCtx, tx, evidenceID)
		if err != nil {
			return err
		}
		if err := requireEditor(txCtx, tx, editorID); err != nil {
			return err
		}
		ev.FileURL = req.FileURL
		ev.Type = req.Type
		ev.Description = req.Description
		ev.Location = req.Location
		ev.CollectedBy = req.CollectedBy
		ev.CollectedAt = req.CollectedAt
		domain.Stamp(ev, editorID, requestcontext.Now(txCtx))
		if err := tx.Evidence().Update(txCtx, ev); err != nil {
			return wrapStoreErr(err, "evidence not found", "update evidence")
		}
		if err := s.emit(txCtx, childEvent(audit.EventEvidenceUpdated, "evidence", ev.ID.String(), ev.CaseID, editorID),
			"case_id", ev.CaseID.String(), "evidence_id", ev.ID.String()); err != nil {
			return err
		}
		evidence = ev
		return nil
	})
	if err != nil {
		return nil, err
	}
	return evidence, nil
}

// DeleteEvidence tombstones the record. The row stays until its case is
// deleted; a second delete reports not found.
func (s *Service) DeleteEvidence(ctx context.Context, evidenceID id.EvidenceID, deleterID id.UserID) (err error) {
	ctx, done := s.begin(ctx, "delete_evidence")
	defer func() { done(err) }()

	return s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		ev, err := liveEvidence(txCtx, tx, evidenceID)
		if err != nil {
			return err
		}
		if err := requireEditor(txCtx, tx, deleterID); err != nil {
			return err
		}
		if err := domain.SoftDelete(ev, deleterID, requestcontext.Now(txCtx)); err != nil {
			return dErrors.New(dErrors.CodeNotFound, "evidence not found")
		}
		if err := tx.Evidence().Update(txCtx, ev); err != nil {
			return wrapStoreErr(err, "evidence not found", "delete evidence")
		}
		return s.emit(txCtx, childEvent(audit.EventEvidenceDeleted, "evidence", ev.ID.String(), ev.CaseID, deleterID),
			"case_id", ev.CaseID.String(), "evidence_id", ev.ID.String())
	})
}

func liveEvidence(ctx context.Context, tx storage.Tx, evidenceID id.EvidenceID) (*domain.Evidence, error) {
	ev, err := tx.Evidence().Get(ctx, evidenceID)
	if err != nil {
		return nil, wrapStoreErr(err, "evidence not found", "load evidence")
	}
	if domain.IsDeleted(ev) {
		return nil, dErrors.New(dErrors.CodeNotFound, "evidence not found")
	}
	return ev, nil
}

// AddNote appends a note. Notes cannot be edited.
func (s *Service) AddNote(ctx context.Context, caseID id.CaseID, authorID id.UserID, req *models.NoteRequest) (note *domain.CaseNote, err error) {
	ctx, done := s.begin(ctx, "add_note")
	defer func() { done(err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	err = s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		if err := requireCase(txCtx, tx, caseID); err != nil {
			return err
		}
		if err := requireCreator(txCtx, tx, authorID); err != nil {
			return err
		}
		n := &domain.CaseNote{
			ID:        id.CaseNoteID(uuid.New()),
			CaseID:    caseID,
			Content:   req.Content,
			CreatedBy: authorID,
			CreatedAt: requestcontext.Now(txCtx),
		}
		if err := tx.Notes().Create(txCtx, n); err != nil {
			return wrapStoreErr(err, "case not found", "create case note")
		}
		if err := s.emit(txCtx, childEvent(audit.EventNoteAdded, "case_note", n.ID.String(), caseID, authorID),
			"case_id", caseID.String(), "note_id", n.ID.String()); err != nil {
			return err
		}
		note = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

func (s *Service) GetNote(ctx context.Context, noteID id.CaseNoteID) (note *domain.CaseNote, err error) {
	ctx, done := s.begin(ctx, "get_note")
	defer func() { done(err) }()

	err = s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		note, err = tx.Notes().Get(txCtx, noteID)
		if err != nil {
			return wrapStoreErr(err, "case note not found", "load case note")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}

// ListNotes returns the case's notes oldest first.
func (s *Service) ListNotes(ctx context.Context, caseID id.CaseID) (notes []*domain.CaseNote, err error) {
	ctx, done := s.begin(ctx, "list_notes")
	defer func() { done(err) }()

	err = s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		if err := requireCase(txCtx, tx, caseID); err != nil {
			return err
		}
		notes, err = tx.Notes().ListForCases(txCtx, []id.CaseID{caseID})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list case notes")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []*domain.CaseNote{}
	}
	return notes, nil
}
