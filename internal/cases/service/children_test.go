package service

import (
	"time"

	"github.com/google/uuid"

	"pcms/internal/cases/models"
	"pcms/internal/domain"
	id "pcms/pkg/domain"
	dErrors "pcms/pkg/domain-errors"
	"pcms/pkg/requestcontext"
)

// =============================================================================
// Child records
// =============================================================================

func (s *CaseServiceSuite) TestActionUpdateStampsAuditTrail() {
	s.allowAudit()
	creator := s.seedUser()
	editor := s.seedUser()
	c := s.createCase("CA-2024-00000101", creator)

	action, err := s.service.AddAction(s.ctx, c.ID, creator, &models.ActionRequest{Name: "Canvass"})
	s.Require().NoError(err)
	s.False(action.AuditInfo().Modified())

	later := s.now.Add(time.Hour)
	s.ctx = requestcontext.WithTime(s.ctx, later)
	updated, err := s.service.UpdateAction(s.ctx, action.ID, editor, &models.ActionRequest{Name: "Canvass block 4"})
	s.Require().NoError(err)
	s.Equal("Canvass block 4", updated.Name)
	s.Equal(creator, updated.CreatedBy)
	s.Require().NotNil(updated.LastModifiedBy)
	s.Equal(editor, *updated.LastModifiedBy)
	s.Equal(later, *updated.LastModifiedAt)

	got, err := s.service.GetAction(s.ctx, action.ID)
	s.Require().NoError(err)
	s.Equal("Canvass block 4", got.Name)

	s.Run("unknown editor", func() {
		_, err := s.service.UpdateAction(s.ctx, action.ID, id.UserID(uuid.New()), &models.ActionRequest{Name: "x"})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
	s.Run("unknown creator", func() {
		_, err := s.service.AddAction(s.ctx, c.ID, id.UserID(uuid.New()), &models.ActionRequest{Name: "x"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
	s.Run("missing case", func() {
		_, err := s.service.AddAction(s.ctx, id.CaseID(uuid.New()), creator, &models.ActionRequest{Name: "x"})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *CaseServiceSuite) TestReportRoundTrip() {
	s.allowAudit()
	creator := s.seedUser()
	c := s.createCase("CA-2024-00000102", creator)

	report, err := s.service.AddReport(s.ctx, c.ID, creator, &models.ReportRequest{Title: "Initial", Details: "Rear window forced"})
	s.Require().NoError(err)

	_, err = s.service.UpdateReport(s.ctx, report.ID, creator, &models.ReportRequest{Title: "Initial (amended)"})
	s.Require().NoError(err)

	got, err := s.service.GetReport(s.ctx, report.ID)
	s.Require().NoError(err)
	s.Equal("Initial (amended)", got.Title)
	s.True(got.AuditInfo().Modified())

	_, err = s.service.GetReport(s.ctx, id.ReportID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *CaseServiceSuite) TestEvidenceTombstone() {
	s.allowAudit()
	creator := s.seedUser()
	c := s.createCase("CA-2024-00000103", creator)

	ev, err := s.service.AddEvidence(s.ctx, c.ID, creator, &models.EvidenceRequest{
		FileURL:     "s3://evidence/glass.jpg",
		Type:        "photo",
		CollectedAt: s.now,
	})
	s.Require().NoError(err)

	updated, err := s.service.UpdateEvidence(s.ctx, ev.ID, creator, &models.EvidenceRequest{
		FileURL:     "s3://evidence/glass.jpg",
		Type:        "photo",
		Description: "Shard from rear window",
		CollectedAt: s.now,
	})
	s.Require().NoError(err)
	s.Equal("Shard from rear window", updated.Description)

	s.Require().NoError(s.service.DeleteEvidence(s.ctx, ev.ID, creator))

	_, err = s.service.GetEvidence(s.ctx, ev.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	err = s.service.DeleteEvidence(s.ctx, ev.ID, creator)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "second delete reports not found")

	_, err = s.service.UpdateEvidence(s.ctx, ev.ID, creator, &models.EvidenceRequest{Type: "photo", CollectedAt: s.now})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *CaseServiceSuite) TestNotes() {
	s.allowAudit()
	creator := s.seedUser()
	c := s.createCase("CA-2024-00000104", creator)

	notes, err := s.service.ListNotes(s.ctx, c.ID)
	s.Require().NoError(err)
	s.NotNil(notes)
	s.Empty(notes)

	note, err := s.service.AddNote(s.ctx, c.ID, creator, &models.NoteRequest{Content: "Witness will call back"})
	s.Require().NoError(err)

	got, err := s.service.GetNote(s.ctx, note.ID)
	s.Require().NoError(err)
	s.Equal("Witness will call back", got.Content)

	notes, err = s.service.ListNotes(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Len(notes, 1)

	_, err = s.service.ListNotes(s.ctx, id.CaseID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

// =============================================================================
// Associations
// =============================================================================

func (s *CaseServiceSuite) TestAssignments() {
	s.allowAudit()
	creator := s.seedUser()
	c := s.createCase("CA-2024-00000105", creator)

	s.Require().NoError(s.service.AssignUser(s.ctx, c.ID, creator))
	s.True(dErrors.HasCode(s.service.AssignUser(s.ctx, c.ID, creator), dErrors.CodeConflict))
	s.True(dErrors.HasCode(s.service.AssignUser(s.ctx, c.ID, id.UserID(uuid.New())), dErrors.CodeNotFound))

	s.Require().NoError(s.service.UnassignUser(s.ctx, c.ID, creator))
	s.True(dErrors.HasCode(s.service.UnassignUser(s.ctx, c.ID, creator), dErrors.CodeNotFound))
}

func (s *CaseServiceSuite) TestPersons() {
	s.allowAudit()
	creator := s.seedUser()
	c := s.createCase("CA-2024-00000106", creator)
	personID := s.seedPerson()

	link, err := s.service.AddPerson(s.ctx, c.ID, personID, domain.CaseRoleWitness)
	s.Require().NoError(err)
	s.Equal(domain.CaseRoleWitness, link.Role)

	_, err = s.service.AddPerson(s.ctx, c.ID, personID, domain.CaseRoleSuspect)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.service.AddPerson(s.ctx, c.ID, personID, domain.CaseRole("bystander"))
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.AddPerson(s.ctx, c.ID, id.PersonID(uuid.New()), domain.CaseRoleVictim)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	links, err := s.service.ListPersons(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Len(links, 1)

	s.Require().NoError(s.service.RemovePerson(s.ctx, c.ID, personID))
	s.True(dErrors.HasCode(s.service.RemovePerson(s.ctx, c.ID, personID), dErrors.CodeNotFound))
}
