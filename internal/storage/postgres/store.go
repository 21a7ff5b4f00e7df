// Package postgres is the PostgreSQL storage.Store. Foreign keys in
// schema.sql carry the entity graph's delete rules, so a single DELETE on a
// parent applies every cascade in the same statement.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"pcms/internal/storage"
	dErrors "pcms/pkg/domain-errors"
	txcontext "pcms/pkg/platform/tx"
)

const (
	defaultTxTimeout = 5 * time.Second

	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

//go:embed schema.sql
var schema string

// Schema returns the DDL applied by Migrate.
func Schema() string { return schema }

// Open connects to dsn through the pgx database/sql driver and verifies the
// connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate applies schema.sql. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range statements(schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func statements(ddl string) []string {
	var out []string
	var current strings.Builder
	for _, line := range strings.Split(ddl, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
		if strings.HasSuffix(trimmed, ";") {
			out = append(out, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	return out
}

type Store struct {
	db      *sql.DB
	timeout time.Duration
}

type Option func(*Store)

// WithTxTimeout bounds transactions whose context carries no deadline.
func WithTxTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, timeout: defaultTxTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunInTx runs fn in a database transaction. The transaction also travels in
// the context handed to fn so stores outside this package, such as the audit
// outbox, write in the same unit of work.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		if ctx.Err() != nil {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
		}
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	txCtx := txcontext.WithTx(ctx, sqlTx)
	if err := fn(txCtx, &tx{q: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		if ctx.Err() != nil {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction abandoned before commit")
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type tx struct {
	q txcontext.Querier
}

func (t *tx) Users() storage.UserRepo             { return userRepo{t.q} }
func (t *tx) Departments() storage.DepartmentRepo { return departmentRepo{t.q} }
func (t *tx) Cases() storage.CaseRepo             { return caseRepo{t.q} }
func (t *tx) Actions() storage.ActionRepo         { return actionRepo{t.q} }
func (t *tx) Reports() storage.ReportRepo         { return reportRepo{t.q} }
func (t *tx) Evidence() storage.EvidenceRepo      { return evidenceRepo{t.q} }
func (t *tx) Notes() storage.NoteRepo             { return noteRepo{t.q} }
func (t *tx) Persons() storage.PersonRepo         { return personRepo{t.q} }
func (t *tx) CasePersons() storage.CasePersonRepo { return casePersonRepo{t.q} }
func (t *tx) Assignments() storage.AssignmentRepo { return assignmentRepo{t.q} }
func (t *tx) Tags() storage.TagRepo               { return tagRepo{t.q} }
func (t *tx) CaseTags() storage.CaseTagRepo       { return caseTagRepo{t.q} }
func (t *tx) Locations() storage.LocationRepo     { return locationRepo{t.q} }
func (t *tx) Properties() storage.PropertyRepo    { return propertyRepo{t.q} }
func (t *tx) Bookings() storage.BookingRepo       { return bookingRepo{t.q} }
func (t *tx) Charges() storage.ChargeRepo         { return chargeRepo{t.q} }
func (t *tx) Releases() storage.ReleaseRepo       { return releaseRepo{t.q} }
func (t *tx) Vehicles() storage.VehicleRepo       { return vehicleRepo{t.q} }

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
