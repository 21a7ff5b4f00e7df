package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"pcms/internal/domain"
	"pcms/internal/graph"
	id "pcms/pkg/domain"
	"pcms/pkg/platform/sentinel"
	txcontext "pcms/pkg/platform/tx"
)

const userColumns = "id, user_name, email, first_name, last_name, rank, badge_number, department_id, created_at"

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u      domain.User
		userID uuid.UUID
		dept   uuid.NullUUID
	)
	if err := row.Scan(&userID, &u.UserName, &u.Email, &u.FirstName, &u.LastName, &u.Rank, &u.BadgeNumber, &dept, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.ID = id.UserID(userID)
	u.DepartmentID = fromNullUUID[id.DepartmentID](dept)
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

type userRepo struct{ q txcontext.Querier }

func (r userRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(u.ID), u.UserName, u.Email, u.FirstName, u.LastName, u.Rank, u.BadgeNumber, nullUUID(u.DepartmentID), u.CreatedAt)
	if err != nil {
		return insertErr(err, "insert user "+u.ID.String())
	}
	return nil
}

func (r userRepo) Get(ctx context.Context, userID id.UserID) (*domain.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, uuid.UUID(userID)))
	if err != nil {
		return nil, scanErr(err, "get user "+userID.String())
	}
	return u, nil
}

func (r userRepo) Exists(ctx context.Context, userID id.UserID) (bool, error) {
	return existsByID(ctx, r.q, graph.User, uuid.UUID(userID))
}

func (r userRepo) ListByDepartment(ctx context.Context, departmentID id.DepartmentID) ([]*domain.User, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE department_id = $1 ORDER BY user_name`, uuid.UUID(departmentID))
	if err != nil {
		return nil, fmt.Errorf("list department users: %w", err)
	}
	return collect(rows, scanUser)
}

func (r userRepo) Delete(ctx context.Context, userID id.UserID) error {
	return deleteByID(ctx, r.q, graph.User, uuid.UUID(userID))
}

type departmentRepo struct{ q txcontext.Querier }

func (r departmentRepo) Create(ctx context.Context, d *domain.Department) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO departments (id, name, short_code, description) VALUES ($1, $2, $3, $4)`,
		uuid.UUID(d.ID), d.Name, d.ShortCode, d.Description)
	if err != nil {
		return insertErr(err, "insert department "+d.ID.String())
	}
	return nil
}

func (r departmentRepo) Get(ctx context.Context, departmentID id.DepartmentID) (*domain.Department, error) {
	var (
		d      domain.Department
		deptID uuid.UUID
	)
	err := r.q.QueryRowContext(ctx, `SELECT id, name, short_code, description FROM departments WHERE id = $1`, uuid.UUID(departmentID)).
		Scan(&deptID, &d.Name, &d.ShortCode, &d.Description)
	if err != nil {
		return nil, scanErr(err, "get department "+departmentID.String())
	}
	d.ID = id.DepartmentID(deptID)
	return &d, nil
}

func (r departmentRepo) Delete(ctx context.Context, departmentID id.DepartmentID) error {
	return deleteByID(ctx, r.q, graph.Department, uuid.UUID(departmentID))
}

const caseColumns = "id, case_number, title, description, status, priority, type, opened_at, last_modified_at, closed_at, created_by, last_edited_by"

func scanCase(row rowScanner) (*domain.Case, error) {
	var (
		c                 domain.Case
		caseID            uuid.UUID
		createdBy, editor uuid.UUID
		closedAt          sql.NullTime
		status, priority  string
	)
	if err := row.Scan(&caseID, &c.CaseNumber, &c.Title, &c.Description, &status, &priority, &c.Type,
		&c.OpenedAt, &c.LastModifiedAt, &closedAt, &createdBy, &editor); err != nil {
		return nil, err
	}
	c.ID = id.CaseID(caseID)
	c.Status = domain.CaseStatus(status)
	c.Priority = domain.CasePriority(priority)
	c.OpenedAt = c.OpenedAt.UTC()
	c.LastModifiedAt = c.LastModifiedAt.UTC()
	c.ClosedAt = fromNullTime(closedAt)
	c.CreatedBy = id.UserID(createdBy)
	c.LastEditedBy = id.UserID(editor)
	return &c, nil
}

type caseRepo struct{ q txcontext.Querier }

// Create claims the case number in case_numbers first. That table is never
// pruned, so a number stays taken after its case is deleted.
func (r caseRepo) Create(ctx context.Context, c *domain.Case) error {
	if _, err := r.q.ExecContext(ctx, `INSERT INTO case_numbers (case_number, issued_at) VALUES ($1, $2)`, c.CaseNumber, c.OpenedAt); err != nil {
		return insertErr(err, "claim case number "+c.CaseNumber)
	}
	_, err := r.q.ExecContext(ctx, `INSERT INTO cases (`+caseColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		uuid.UUID(c.ID), c.CaseNumber, c.Title, c.Description, string(c.Status), string(c.Priority), c.Type,
		c.OpenedAt, c.LastModifiedAt, nullTime(c.ClosedAt), uuid.UUID(c.CreatedBy), uuid.UUID(c.LastEditedBy))
	if err != nil {
		return insertErr(err, "insert case "+c.ID.String())
	}
	return nil
}

func (r caseRepo) Get(ctx context.Context, caseID id.CaseID) (*domain.Case, error) {
	c, err := scanCase(r.q.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id = $1`, uuid.UUID(caseID)))
	if err != nil {
		return nil, scanErr(err, "get case "+caseID.String())
	}
	return c, nil
}

func (r caseRepo) Exists(ctx context.Context, caseID id.CaseID) (bool, error) {
	return existsByID(ctx, r.q, graph.Case, uuid.UUID(caseID))
}

func (r caseRepo) List(ctx context.Context) ([]*domain.Case, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+caseColumns+` FROM cases ORDER BY opened_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	return collect(rows, scanCase)
}

func (r caseRepo) Update(ctx context.Context, c *domain.Case) error {
	var number string
	err := r.q.QueryRowContext(ctx, `SELECT case_number FROM cases WHERE id = $1 FOR UPDATE`, uuid.UUID(c.ID)).Scan(&number)
	if err != nil {
		return scanErr(err, "lock case "+c.ID.String())
	}
	if number != c.CaseNumber {
		return fmt.Errorf("case number is immutable: %w", sentinel.ErrInvalidState)
	}
	res, err := r.q.ExecContext(ctx, `
		UPDATE cases SET
			title = $2, description = $3, status = $4, priority = $5, type = $6,
			last_modified_at = $7, closed_at = $8, last_edited_by = $9
		WHERE id = $1`,
		uuid.UUID(c.ID), c.Title, c.Description, string(c.Status), string(c.Priority), c.Type,
		c.LastModifiedAt, nullTime(c.ClosedAt), uuid.UUID(c.LastEditedBy))
	return expectRow(res, err, "update case "+c.ID.String())
}

func (r caseRepo) Delete(ctx context.Context, caseID id.CaseID) error {
	return deleteByID(ctx, r.q, graph.Case, uuid.UUID(caseID))
}

const actionColumns = "id, case_id, name, description, type, " + auditColumns

func scanAction(row rowScanner) (*domain.CaseAction, error) {
	var (
		a             domain.CaseAction
		actionID, cid uuid.UUID
		audit         auditRow
	)
	if err := row.Scan(append([]any{&actionID, &cid, &a.Name, &a.Description, &a.Type}, audit.dest()...)...); err != nil {
		return nil, err
	}
	a.ID = id.CaseActionID(actionID)
	a.CaseID = id.CaseID(cid)
	a.AuditTrail = audit.trail()
	return &a, nil
}

type actionRepo struct{ q txcontext.Querier }

func (r actionRepo) Create(ctx context.Context, a *domain.CaseAction) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO case_actions (`+actionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		append([]any{uuid.UUID(a.ID), uuid.UUID(a.CaseID), a.Name, a.Description, a.Type}, auditArgs(a.AuditTrail)...)...)
	if err != nil {
		return insertErr(err, "insert case action "+a.ID.String())
	}
	return nil
}

func (r actionRepo) Get(ctx context.Context, actionID id.CaseActionID) (*domain.CaseAction, error) {
	a, err := scanAction(r.q.QueryRowContext(ctx, `SELECT `+actionColumns+` FROM case_actions WHERE id = $1`, uuid.UUID(actionID)))
	if err != nil {
		return nil, scanErr(err, "get case action "+actionID.String())
	}
	return a, nil
}

func (r actionRepo) Update(ctx context.Context, a *domain.CaseAction) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE case_actions SET name = $2, description = $3, type = $4, last_modified_by = $5, last_modified_at = $6
		WHERE id = $1`,
		uuid.UUID(a.ID), a.Name, a.Description, a.Type, nullUUID(a.LastModifiedBy), nullTime(a.LastModifiedAt))
	return expectRow(res, err, "update case action "+a.ID.String())
}

func (r actionRepo) ListForCases(ctx context.Context, caseIDs []id.CaseID) ([]*domain.CaseAction, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+actionColumns+` FROM case_actions WHERE case_id = ANY($1::uuid[]) ORDER BY created_at, id`, caseIDArray(caseIDs))
	if err != nil {
		return nil, fmt.Errorf("list case actions: %w", err)
	}
	return collect(rows, scanAction)
}

const reportColumns = "id, case_id, title, details, " + auditColumns

func scanReport(row rowScanner) (*domain.Report, error) {
	var (
		rep           domain.Report
		reportID, cid uuid.UUID
		audit         auditRow
	)
	if err := row.Scan(append([]any{&reportID, &cid, &rep.Title, &rep.Details}, audit.dest()...)...); err != nil {
		return nil, err
	}
	rep.ID = id.ReportID(reportID)
	rep.CaseID = id.CaseID(cid)
	rep.AuditTrail = audit.trail()
	return &rep, nil
}

type reportRepo struct{ q txcontext.Querier }

func (r reportRepo) Create(ctx context.Context, rep *domain.Report) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO reports (`+reportColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		append([]any{uuid.UUID(rep.ID), uuid.UUID(rep.CaseID), rep.Title, rep.Details}, auditArgs(rep.AuditTrail)...)...)
	if err != nil {
		return insertErr(err, "insert report "+rep.ID.String())
	}
	return nil
}

func (r reportRepo) Get(ctx context.Context, reportID id.ReportID) (*domain.Report, error) {
	rep, err := scanReport(r.q.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, uuid.UUID(reportID)))
	if err != nil {
		return nil, scanErr(err, "get report "+reportID.String())
	}
	return rep, nil
}

func (r reportRepo) Update(ctx context.Context, rep *domain.Report) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE reports SET title = $2, details = $3, last_modified_by = $4, last_modified_at = $5
		WHERE id = $1`,
		uuid.UUID(rep.ID), rep.Title, rep.Details, nullUUID(rep.LastModifiedBy), nullTime(rep.LastModifiedAt))
	return expectRow(res, err, "update report "+rep.ID.String())
}

func (r reportRepo) ListForCases(ctx context.Context, caseIDs []id.CaseID) ([]*domain.Report, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE case_id = ANY($1::uuid[]) ORDER BY created_at, id`, caseIDArray(caseIDs))
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return collect(rows, scanReport)
}

const evidenceColumns = "id, case_id, file_url, type, description, location, collected_by, collected_at, " +
	auditColumns + ", is_deleted, deleted_by, deleted_at"

func scanEvidence(row rowScanner) (*domain.Evidence, error) {
	var (
		ev        domain.Evidence
		evID, cid uuid.UUID
		audit     auditRow
		deletedBy uuid.NullUUID
		deletedAt sql.NullTime
	)
	dest := append([]any{&evID, &cid, &ev.FileURL, &ev.Type, &ev.Description, &ev.Location, &ev.CollectedBy, &ev.CollectedAt}, audit.dest()...)
	dest = append(dest, &ev.IsDeleted, &deletedBy, &deletedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	ev.ID = id.EvidenceID(evID)
	ev.CaseID = id.CaseID(cid)
	ev.CollectedAt = ev.CollectedAt.UTC()
	ev.AuditTrail = audit.trail()
	ev.DeletedBy = fromNullUUID[id.UserID](deletedBy)
	ev.DeletedAt = fromNullTime(deletedAt)
	return &ev, nil
}

type evidenceRepo struct{ q txcontext.Querier }

func (r evidenceRepo) Create(ctx context.Context, ev *domain.Evidence) error {
	values := append([]any{uuid.UUID(ev.ID), uuid.UUID(ev.CaseID), ev.FileURL, ev.Type, ev.Description, ev.Location, ev.CollectedBy, ev.CollectedAt},
		auditArgs(ev.AuditTrail)...)
	values = append(values, ev.IsDeleted, nullUUID(ev.DeletedBy), nullTime(ev.DeletedAt))
	_, err := r.q.ExecContext(ctx, `INSERT INTO evidence (`+evidenceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`, values...)
	if err != nil {
		return insertErr(err, "insert evidence "+ev.ID.String())
	}
	return nil
}

func (r evidenceRepo) Get(ctx context.Context, evidenceID id.EvidenceID) (*domain.Evidence, error) {
	ev, err := scanEvidence(r.q.QueryRowContext(ctx, `SELECT `+evidenceColumns+` FROM evidence WHERE id = $1`, uuid.UUID(evidenceID)))
	if err != nil {
		return nil, scanErr(err, "get evidence "+evidenceID.String())
	}
	return ev, nil
}

func (r evidenceRepo) Update(ctx context.Context, ev *domain.Evidence) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE evidence SET
			file_url = $2, type = $3, description = $4, location = $5, collected_by = $6, collected_at = $7,
			last_modified_by = $8, last_modified_at = $9, is_deleted = $10, deleted_by = $11, deleted_at = $12
		WHERE id = $1`,
		uuid.UUID(ev.ID), ev.FileURL, ev.Type, ev.Description, ev.Location, ev.CollectedBy, ev.CollectedAt,
		nullUUID(ev.LastModifiedBy), nullTime(ev.LastModifiedAt), ev.IsDeleted, nullUUID(ev.DeletedBy), nullTime(ev.DeletedAt))
	return expectRow(res, err, "update evidence "+ev.ID.String())
}

func (r evidenceRepo) ListForCases(ctx context.Context, caseIDs []id.CaseID) ([]*domain.Evidence, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+evidenceColumns+` FROM evidence WHERE case_id = ANY($1::uuid[]) ORDER BY created_at, id`, caseIDArray(caseIDs))
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	return collect(rows, scanEvidence)
}

const noteColumns = "id, case_id, content, created_by, created_at"

func scanNote(row rowScanner) (*domain.CaseNote, error) {
	var (
		n               domain.CaseNote
		noteID, cid, by uuid.UUID
	)
	if err := row.Scan(&noteID, &cid, &n.Content, &by, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.ID = id.CaseNoteID(noteID)
	n.CaseID = id.CaseID(cid)
	n.CreatedBy = id.UserID(by)
	n.CreatedAt = n.CreatedAt.UTC()
	return &n, nil
}

type noteRepo struct{ q txcontext.Querier }

func (r noteRepo) Create(ctx context.Context, n *domain.CaseNote) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO case_notes (`+noteColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(n.ID), uuid.UUID(n.CaseID), n.Content, uuid.UUID(n.CreatedBy), n.CreatedAt)
	if err != nil {
		return insertErr(err, "insert case note "+n.ID.String())
	}
	return nil
}

func (r noteRepo) Get(ctx context.Context, noteID id.CaseNoteID) (*domain.CaseNote, error) {
	n, err := scanNote(r.q.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM case_notes WHERE id = $1`, uuid.UUID(noteID)))
	if err != nil {
		return nil, scanErr(err, "get case note "+noteID.String())
	}
	return n, nil
}

func (r noteRepo) ListForCases(ctx context.Context, caseIDs []id.CaseID) ([]*domain.CaseNote, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+noteColumns+` FROM case_notes WHERE case_id = ANY($1::uuid[]) ORDER BY created_at, id`, caseIDArray(caseIDs))
	if err != nil {
		return nil, fmt.Errorf("list case notes: %w", err)
	}
	return collect(rows, scanNote)
}

const personColumns = "id, first_name, last_name, date_of_birth, contact_info, created_at"

type personRepo struct{ q txcontext.Querier }

func (r personRepo) Create(ctx context.Context, p *domain.Person) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO persons (`+personColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(p.ID), p.FirstName, p.LastName, nullTime(p.DateOfBirth), p.ContactInfo, p.CreatedAt)
	if err != nil {
		return insertErr(err, "insert person "+p.ID.String())
	}
	return nil
}

func (r personRepo) Get(ctx context.Context, personID id.PersonID) (*domain.Person, error) {
	var (
		p   domain.Person
		pid uuid.UUID
		dob sql.NullTime
	)
	err := r.q.QueryRowContext(ctx, `SELECT `+personColumns+` FROM persons WHERE id = $1`, uuid.UUID(personID)).
		Scan(&pid, &p.FirstName, &p.LastName, &dob, &p.ContactInfo, &p.CreatedAt)
	if err != nil {
		return nil, scanErr(err, "get person "+personID.String())
	}
	p.ID = id.PersonID(pid)
	p.DateOfBirth = fromNullTime(dob)
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

func (r personRepo) Exists(ctx context.Context, personID id.PersonID) (bool, error) {
	return existsByID(ctx, r.q, graph.Person, uuid.UUID(personID))
}

func (r personRepo) Delete(ctx context.Context, personID id.PersonID) error {
	return deleteByID(ctx, r.q, graph.Person, uuid.UUID(personID))
}

type casePersonRepo struct{ q txcontext.Querier }

func (r casePersonRepo) Add(ctx context.Context, cp *domain.CasePerson) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO case_persons (case_id, person_id, role, added_at) VALUES ($1, $2, $3, $4)`,
		uuid.UUID(cp.CaseID), uuid.UUID(cp.PersonID), string(cp.Role), cp.AddedAt)
	if err != nil {
		return insertErr(err, fmt.Sprintf("add person %s to case %s", cp.PersonID, cp.CaseID))
	}
	return nil
}

func (r casePersonRepo) Remove(ctx context.Context, caseID id.CaseID, personID id.PersonID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM case_persons WHERE case_id = $1 AND person_id = $2`, uuid.UUID(caseID), uuid.UUID(personID))
	return expectRow(res, err, fmt.Sprintf("remove person %s from case %s", personID, caseID))
}

func (r casePersonRepo) ListByCase(ctx context.Context, caseID id.CaseID) ([]*domain.CasePerson, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT case_id, person_id, role, added_at FROM case_persons WHERE case_id = $1 ORDER BY added_at, person_id`, uuid.UUID(caseID))
	if err != nil {
		return nil, fmt.Errorf("list case persons: %w", err)
	}
	return collect(rows, func(row rowScanner) (*domain.CasePerson, error) {
		var (
			cp       domain.CasePerson
			cid, pid uuid.UUID
			role     string
		)
		if err := row.Scan(&cid, &pid, &role, &cp.AddedAt); err != nil {
			return nil, err
		}
		cp.CaseID = id.CaseID(cid)
		cp.PersonID = id.PersonID(pid)
		cp.Role = domain.CaseRole(role)
		cp.AddedAt = cp.AddedAt.UTC()
		return &cp, nil
	})
}

type assignmentRepo struct{ q txcontext.Querier }

func (r assignmentRepo) Assign(ctx context.Context, a *domain.Assignment) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO case_assignments (user_id, case_id, assigned_at) VALUES ($1, $2, $3)`,
		uuid.UUID(a.UserID), uuid.UUID(a.CaseID), a.AssignedAt)
	if err != nil {
		return insertErr(err, fmt.Sprintf("assign user %s to case %s", a.UserID, a.CaseID))
	}
	return nil
}

func (r assignmentRepo) Unassign(ctx context.Context, userID id.UserID, caseID id.CaseID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM case_assignments WHERE user_id = $1 AND case_id = $2`, uuid.UUID(userID), uuid.UUID(caseID))
	return expectRow(res, err, fmt.Sprintf("unassign user %s from case %s", userID, caseID))
}

func (r assignmentRepo) UsersForCases(ctx context.Context, caseIDs []id.CaseID) (map[id.CaseID][]*domain.User, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT a.case_id, u.id, u.user_name, u.email, u.first_name, u.last_name, u.rank, u.badge_number, u.department_id, u.created_at
		FROM case_assignments a
		JOIN users u ON u.id = a.user_id
		WHERE a.case_id = ANY($1::uuid[])
		ORDER BY a.assigned_at, a.user_id`, caseIDArray(caseIDs))
	if err != nil {
		return nil, fmt.Errorf("list assigned users: %w", err)
	}
	defer rows.Close()

	out := make(map[id.CaseID][]*domain.User)
	for rows.Next() {
		var cid uuid.UUID
		u, err := scanUser(prefixed{rows, &cid})
		if err != nil {
			return nil, fmt.Errorf("scan assigned user: %w", err)
		}
		out[id.CaseID(cid)] = append(out[id.CaseID(cid)], u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assigned users: %w", err)
	}
	return out, nil
}

// prefixed scans leading columns into head before handing the rest to an
// entity scanner.
type prefixed struct {
	row  rowScanner
	head any
}

func (p prefixed) Scan(dest ...any) error {
	return p.row.Scan(append([]any{p.head}, dest...)...)
}

const tagColumns = "id, name, description, " + auditColumns

func scanTag(row rowScanner) (*domain.Tag, error) {
	var (
		t     domain.Tag
		tagID uuid.UUID
		audit auditRow
	)
	if err := row.Scan(append([]any{&tagID, &t.Name, &t.Description}, audit.dest()...)...); err != nil {
		return nil, err
	}
	t.ID = id.TagID(tagID)
	t.AuditTrail = audit.trail()
	return &t, nil
}

type tagRepo struct{ q txcontext.Querier }

func (r tagRepo) Create(ctx context.Context, t *domain.Tag) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO tags (`+tagColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		append([]any{uuid.UUID(t.ID), t.Name, t.Description}, auditArgs(t.AuditTrail)...)...)
	if err != nil {
		return insertErr(err, "insert tag "+t.ID.String())
	}
	return nil
}

func (r tagRepo) Get(ctx context.Context, tagID id.TagID) (*domain.Tag, error) {
	t, err := scanTag(r.q.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags WHERE id = $1`, uuid.UUID(tagID)))
	if err != nil {
		return nil, scanErr(err, "get tag "+tagID.String())
	}
	return t, nil
}

func (r tagRepo) Exists(ctx context.Context, tagID id.TagID) (bool, error) {
	return existsByID(ctx, r.q, graph.Tag, uuid.UUID(tagID))
}

func (r tagRepo) Update(ctx context.Context, t *domain.Tag) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE tags SET name = $2, description = $3, last_modified_by = $4, last_modified_at = $5
		WHERE id = $1`,
		uuid.UUID(t.ID), t.Name, t.Description, nullUUID(t.LastModifiedBy), nullTime(t.LastModifiedAt))
	return expectRow(res, err, "update tag "+t.ID.String())
}

func (r tagRepo) Delete(ctx context.Context, tagID id.TagID) error {
	return deleteByID(ctx, r.q, graph.Tag, uuid.UUID(tagID))
}

type caseTagRepo struct{ q txcontext.Querier }

// Link relies on the primary key of case_tags: of any number of concurrent
// inserts for one pair, exactly one affects a row.
func (r caseTagRepo) Link(ctx context.Context, link *domain.CaseTag) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO case_tags (case_id, tag_id, linked_at) VALUES ($1, $2, $3)
		ON CONFLICT (case_id, tag_id) DO NOTHING`,
		uuid.UUID(link.CaseID), uuid.UUID(link.TagID), link.LinkedAt)
	if err != nil {
		return false, insertErr(err, fmt.Sprintf("link tag %s to case %s", link.TagID, link.CaseID))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("link rows affected: %w", err)
	}
	return n == 1, nil
}

func (r caseTagRepo) Unlink(ctx context.Context, caseID id.CaseID, tagID id.TagID) (bool, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM case_tags WHERE case_id = $1 AND tag_id = $2`, uuid.UUID(caseID), uuid.UUID(tagID))
	if err != nil {
		return false, fmt.Errorf("unlink tag %s from case %s: %w", tagID, caseID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unlink rows affected: %w", err)
	}
	return n > 0, nil
}

func (r caseTagRepo) TagsForCase(ctx context.Context, caseID id.CaseID) ([]*domain.Tag, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT t.id, t.name, t.description, t.created_by, t.created_at, t.last_modified_by, t.last_modified_at
		FROM case_tags ct
		JOIN tags t ON t.id = ct.tag_id
		WHERE ct.case_id = $1
		ORDER BY t.name, t.id`, uuid.UUID(caseID))
	if err != nil {
		return nil, fmt.Errorf("list case tags: %w", err)
	}
	return collect(rows, scanTag)
}

func (r caseTagRepo) CountForTag(ctx context.Context, tagID id.TagID) (int, error) {
	var n int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM case_tags WHERE tag_id = $1`, uuid.UUID(tagID)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tag links: %w", err)
	}
	return n, nil
}

type locationRepo struct{ q txcontext.Querier }

func (r locationRepo) Create(ctx context.Context, l *domain.Location) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO locations (id, name, address) VALUES ($1, $2, $3)`, uuid.UUID(l.ID), l.Name, l.Address)
	if err != nil {
		return insertErr(err, "insert location "+l.ID.String())
	}
	return nil
}

func (r locationRepo) Get(ctx context.Context, locationID id.LocationID) (*domain.Location, error) {
	var (
		l   domain.Location
		lid uuid.UUID
	)
	err := r.q.QueryRowContext(ctx, `SELECT id, name, address FROM locations WHERE id = $1`, uuid.UUID(locationID)).Scan(&lid, &l.Name, &l.Address)
	if err != nil {
		return nil, scanErr(err, "get location "+locationID.String())
	}
	l.ID = id.LocationID(lid)
	return &l, nil
}

func (r locationRepo) Delete(ctx context.Context, locationID id.LocationID) error {
	return deleteByID(ctx, r.q, graph.Location, uuid.UUID(locationID))
}

const propertyColumns = "id, location_id, name, description, value"

func scanProperty(row rowScanner) (*domain.Property, error) {
	var (
		p        domain.Property
		pid, lid uuid.UUID
	)
	if err := row.Scan(&pid, &lid, &p.Name, &p.Description, &p.Value); err != nil {
		return nil, err
	}
	p.ID = id.PropertyID(pid)
	p.LocationID = id.LocationID(lid)
	return &p, nil
}

type propertyRepo struct{ q txcontext.Querier }

func (r propertyRepo) Create(ctx context.Context, p *domain.Property) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO properties (`+propertyColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(p.ID), uuid.UUID(p.LocationID), p.Name, p.Description, p.Value)
	if err != nil {
		return insertErr(err, "insert property "+p.ID.String())
	}
	return nil
}

func (r propertyRepo) Get(ctx context.Context, propertyID id.PropertyID) (*domain.Property, error) {
	p, err := scanProperty(r.q.QueryRowContext(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, uuid.UUID(propertyID)))
	if err != nil {
		return nil, scanErr(err, "get property "+propertyID.String())
	}
	return p, nil
}

func (r propertyRepo) ListByLocation(ctx context.Context, locationID id.LocationID) ([]*domain.Property, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+propertyColumns+` FROM properties WHERE location_id = $1 ORDER BY name`, uuid.UUID(locationID))
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	return collect(rows, scanProperty)
}

type bookingRepo struct{ q txcontext.Querier }

func (r bookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO bookings (id, person_id, user_id, location_id, booked_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(b.ID), uuid.UUID(b.PersonID), uuid.UUID(b.UserID), nullUUID(b.LocationID), b.BookedAt, b.Notes)
	if err != nil {
		return insertErr(err, "insert booking "+b.ID.String())
	}
	return nil
}

func (r bookingRepo) Get(ctx context.Context, bookingID id.BookingID) (*domain.Booking, error) {
	var (
		b             domain.Booking
		bid, pid, uid uuid.UUID
		lid           uuid.NullUUID
	)
	err := r.q.QueryRowContext(ctx, `SELECT id, person_id, user_id, location_id, booked_at, notes FROM bookings WHERE id = $1`, uuid.UUID(bookingID)).
		Scan(&bid, &pid, &uid, &lid, &b.BookedAt, &b.Notes)
	if err != nil {
		return nil, scanErr(err, "get booking "+bookingID.String())
	}
	b.ID = id.BookingID(bid)
	b.PersonID = id.PersonID(pid)
	b.UserID = id.UserID(uid)
	b.LocationID = fromNullUUID[id.LocationID](lid)
	b.BookedAt = b.BookedAt.UTC()
	return &b, nil
}

func (r bookingRepo) Delete(ctx context.Context, bookingID id.BookingID) error {
	return deleteByID(ctx, r.q, graph.Booking, uuid.UUID(bookingID))
}

const chargeColumns = "id, booking_id, offense, description, charged_at"

func scanCharge(row rowScanner) (*domain.Charge, error) {
	var (
		c        domain.Charge
		cid, bid uuid.UUID
	)
	if err := row.Scan(&cid, &bid, &c.Offense, &c.Description, &c.ChargedAt); err != nil {
		return nil, err
	}
	c.ID = id.ChargeID(cid)
	c.BookingID = id.BookingID(bid)
	c.ChargedAt = c.ChargedAt.UTC()
	return &c, nil
}

type chargeRepo struct{ q txcontext.Querier }

func (r chargeRepo) Create(ctx context.Context, c *domain.Charge) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO charges (`+chargeColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(c.ID), uuid.UUID(c.BookingID), c.Offense, c.Description, c.ChargedAt)
	if err != nil {
		return insertErr(err, "insert charge "+c.ID.String())
	}
	return nil
}

func (r chargeRepo) Get(ctx context.Context, chargeID id.ChargeID) (*domain.Charge, error) {
	c, err := scanCharge(r.q.QueryRowContext(ctx, `SELECT `+chargeColumns+` FROM charges WHERE id = $1`, uuid.UUID(chargeID)))
	if err != nil {
		return nil, scanErr(err, "get charge "+chargeID.String())
	}
	return c, nil
}

func (r chargeRepo) ListByBooking(ctx context.Context, bookingID id.BookingID) ([]*domain.Charge, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+chargeColumns+` FROM charges WHERE booking_id = $1 ORDER BY charged_at, id`, uuid.UUID(bookingID))
	if err != nil {
		return nil, fmt.Errorf("list charges: %w", err)
	}
	return collect(rows, scanCharge)
}

type releaseRepo struct{ q txcontext.Querier }

func (r releaseRepo) Create(ctx context.Context, rel *domain.Release) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO releases (id, booking_id, released_at, conditions) VALUES ($1, $2, $3, $4)`,
		uuid.UUID(rel.ID), uuid.UUID(rel.BookingID), rel.ReleasedAt, rel.Conditions)
	if err != nil {
		return insertErr(err, "insert release for booking "+rel.BookingID.String())
	}
	return nil
}

func (r releaseRepo) GetByBooking(ctx context.Context, bookingID id.BookingID) (*domain.Release, error) {
	var (
		rel      domain.Release
		rid, bid uuid.UUID
	)
	err := r.q.QueryRowContext(ctx, `SELECT id, booking_id, released_at, conditions FROM releases WHERE booking_id = $1`, uuid.UUID(bookingID)).
		Scan(&rid, &bid, &rel.ReleasedAt, &rel.Conditions)
	if err != nil {
		return nil, scanErr(err, "get release for booking "+bookingID.String())
	}
	rel.ID = id.ReleaseID(rid)
	rel.BookingID = id.BookingID(bid)
	rel.ReleasedAt = rel.ReleasedAt.UTC()
	return &rel, nil
}

const vehicleColumns = "id, make, model, year, vin, license_plate, description, color, " + auditColumns

func scanVehicle(row rowScanner) (*domain.Vehicle, error) {
	var (
		v     domain.Vehicle
		vid   uuid.UUID
		audit auditRow
	)
	dest := []any{&vid, &v.Make, &v.Model, &v.Year, &v.VIN, &v.LicensePlate, &v.Description, &v.Color}
	if err := row.Scan(append(dest, audit.dest()...)...); err != nil {
		return nil, err
	}
	v.ID = id.VehicleID(vid)
	v.AuditTrail = audit.trail()
	return &v, nil
}

type vehicleRepo struct{ q txcontext.Querier }

func (r vehicleRepo) Create(ctx context.Context, v *domain.Vehicle) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO vehicles (`+vehicleColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		append([]any{uuid.UUID(v.ID), v.Make, v.Model, v.Year, v.VIN, v.LicensePlate, v.Description, v.Color}, auditArgs(v.AuditTrail)...)...)
	if err != nil {
		return insertErr(err, "insert vehicle "+v.ID.String())
	}
	return nil
}

func (r vehicleRepo) Get(ctx context.Context, vehicleID id.VehicleID) (*domain.Vehicle, error) {
	v, err := scanVehicle(r.q.QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, uuid.UUID(vehicleID)))
	if err != nil {
		return nil, scanErr(err, "get vehicle "+vehicleID.String())
	}
	return v, nil
}

func (r vehicleRepo) Update(ctx context.Context, v *domain.Vehicle) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE vehicles SET make = $2, model = $3, year = $4, vin = $5, license_plate = $6,
			description = $7, color = $8, last_modified_by = $9, last_modified_at = $10
		WHERE id = $1`,
		uuid.UUID(v.ID), v.Make, v.Model, v.Year, v.VIN, v.LicensePlate, v.Description, v.Color,
		nullUUID(v.LastModifiedBy), nullTime(v.LastModifiedAt))
	return expectRow(res, err, "update vehicle "+v.ID.String())
}

func collect[T any](rows *sql.Rows, scan func(rowScanner) (*T, error)) ([]*T, error) {
	defer rows.Close()
	out := make([]*T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
