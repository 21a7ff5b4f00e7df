package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"pcms/internal/domain"
	"pcms/internal/graph"
	id "pcms/pkg/domain"
	"pcms/pkg/platform/sentinel"
	txcontext "pcms/pkg/platform/tx"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// insertErr translates constraint failures raised by an INSERT. A foreign key
// failure on insert means the referenced parent does not exist.
func insertErr(err error, what string) error {
	switch pgCode(err) {
	case uniqueViolation:
		return fmt.Errorf("%s: %w", what, sentinel.ErrAlreadyUsed)
	case foreignKeyViolation:
		return fmt.Errorf("%s: referenced row missing: %w", what, sentinel.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// deleteErr translates constraint failures raised by a DELETE. A foreign key
// failure on delete is a RESTRICT rule holding.
func deleteErr(err error, what string) error {
	if pgCode(err) == foreignKeyViolation {
		return fmt.Errorf("%s: %w", what, sentinel.ErrInUse)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func scanErr(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, sentinel.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func expectRow(res sql.Result, err error, what string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, sentinel.ErrNotFound)
	}
	return nil
}

// deleteByID removes one row from an entity table. Dependents follow the
// foreign key actions declared for that entity.
func deleteByID(ctx context.Context, q txcontext.Querier, e graph.Entity, key uuid.UUID) error {
	what := fmt.Sprintf("delete %s %s", e, key)
	res, err := q.ExecContext(ctx, `DELETE FROM `+string(e)+` WHERE id = $1`, key)
	if err != nil {
		return deleteErr(err, what)
	}
	return expectRow(res, nil, what)
}

// existsByID reports whether a row exists and, when it does, holds a key-share
// lock on it until the transaction ends so a concurrent delete cannot remove
// it underneath the caller.
func existsByID(ctx context.Context, q txcontext.Querier, e graph.Entity, key uuid.UUID) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM `+string(e)+` WHERE id = $1 FOR KEY SHARE`, key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check %s %s: %w", e, key, err)
	}
	return true, nil
}

func nullUUID[T ~[16]byte](p *T) uuid.NullUUID {
	if p == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*p), Valid: true}
}

func fromNullUUID[T ~[16]byte](n uuid.NullUUID) *T {
	if !n.Valid {
		return nil
	}
	v := T(n.UUID)
	return &v
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *p, Valid: true}
}

func fromNullTime(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time.UTC()
	return &t
}

func caseIDArray(caseIDs []id.CaseID) any {
	out := make([]string, len(caseIDs))
	for i, caseID := range caseIDs {
		out[i] = caseID.String()
	}
	return pq.Array(out)
}

const auditColumns = "created_by, created_at, last_modified_by, last_modified_at"

type auditRow struct {
	createdBy  uuid.UUID
	createdAt  time.Time
	modifiedBy uuid.NullUUID
	modifiedAt sql.NullTime
}

func (a *auditRow) dest() []any {
	return []any{&a.createdBy, &a.createdAt, &a.modifiedBy, &a.modifiedAt}
}

func (a *auditRow) trail() domain.AuditTrail {
	return domain.AuditTrail{
		CreatedBy:      id.UserID(a.createdBy),
		CreatedAt:      a.createdAt.UTC(),
		LastModifiedBy: fromNullUUID[id.UserID](a.modifiedBy),
		LastModifiedAt: fromNullTime(a.modifiedAt),
	}
}

func auditArgs(t domain.AuditTrail) []any {
	return []any{uuid.UUID(t.CreatedBy), t.CreatedAt, nullUUID(t.LastModifiedBy), nullTime(t.LastModifiedAt)}
}
