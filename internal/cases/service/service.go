package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Minter,AuditPublisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	casemetrics "pcms/internal/cases/metrics"
	"pcms/internal/cases/models"
	"pcms/internal/domain"
	"pcms/internal/storage"
	id "pcms/pkg/domain"
	dErrors "pcms/pkg/domain-errors"
	audit "pcms/pkg/platform/audit"
	"pcms/pkg/platform/sentinel"
	"pcms/pkg/requestcontext"
)

// DefaultMaxMintAttempts bounds how many case numbers Create draws before
// giving up.
const DefaultMaxMintAttempts = 5

// Minter draws case number candidates dated at the given instant.
// Uniqueness is the store's job.
type Minter interface {
	MintCaseNumberAt(at time.Time) string
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates the case lifecycle and the records a case owns.
type Service struct {
	store           storage.Store
	minter          Minter
	maxMintAttempts int
	logger          *slog.Logger
	auditPublisher  AuditPublisher
	metrics         *casemetrics.Metrics
	tracer          trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *casemetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithMaxMintAttempts overrides DefaultMaxMintAttempts. Values below one are ignored.
func WithMaxMintAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxMintAttempts = n
		}
	}
}

func New(store storage.Store, minter Minter, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if minter == nil {
		return nil, errors.New("minter is required")
	}
	s := &Service{
		store:           store,
		minter:          minter,
		maxMintAttempts: DefaultMaxMintAttempts,
		tracer:          otel.Tracer("pcms/internal/cases/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// errNumberTaken marks an attempt that lost its case number to another case.
var errNumberTaken = errors.New("case number already registered")

// Create opens a case. The creator must be an existing user. A case number
// that is already registered is re-minted, each attempt in its own unit of
// work, until the attempt budget is spent.
func (s *Service) Create(ctx context.Context, req *models.CreateCaseRequest) (created *domain.Case, err error) {
	ctx, done := s.begin(ctx, "create")
	defer func() { done(err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// One instant dates both the case number and OpenedAt.
	openedAt := requestcontext.Now(ctx)
	ctx = requestcontext.WithTime(ctx, openedAt)

	for attempt := 1; attempt <= s.maxMintAttempts; attempt++ {
		number := s.minter.MintCaseNumberAt(openedAt)
		c, err := s.createWithNumber(ctx, req, number)
		if err == nil {
			s.incrementCaseCreated()
			return c, nil
		}
		if !errors.Is(err, errNumberTaken) {
			return nil, err
		}
		s.incrementMintCollision()
		s.logAudit(ctx, audit.Event{
			Action:     string(audit.EventCaseNumberCollision),
			ActorID:    req.CreatedBy,
			EntityType: "case",
			CaseNumber: number,
		}, "case_number", number, "attempt", attempt)
	}

	s.incrementMintExhausted()
	return nil, dErrors.New(dErrors.CodeGenerationExhausted,
		fmt.Sprintf("no unique case number after %d attempts", s.maxMintAttempts))
}

func (s *Service) createWithNumber(ctx context.Context, req *models.CreateCaseRequest, number string) (*domain.Case, error) {
	var created *domain.Case
	err := s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		if err := requireCreator(txCtx, tx, req.CreatedBy); err != nil {
			return err
		}

		c, err := domain.NewCase(id.CaseID(uuid.New()), number, req.Title, req.Description,
			req.Priority, req.Type, req.CreatedBy, requestcontext.Now(txCtx))
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
				return dErrors.New(dErrors.CodeValidation, err.Error())
			}
			return err
		}

		if err := tx.Cases().Create(txCtx, c); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return errNumberTaken
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create case")
		}

		if err := s.emit(txCtx, caseEvent(audit.EventCaseCreated, c, req.CreatedBy),
			"case_id", c.ID.String(), "case_number", c.CaseNumber); err != nil {
			return err
		}
		created = c
		return nil
	})
	return created, err
}

// Get returns the case with its actions, reports, live evidence and
// assigned users resolved.
func (s *Service) Get(ctx context.Context, caseID id.CaseID) (details *domain.CaseDetails, err error) {
	ctx, done := s.begin(ctx, "get")
	defer func() { done(err) }()

	err = s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		c, err := tx.Cases().Get(txCtx, caseID)
		if err != nil {
			return wrapStoreErr(err, "case not found", "load case")
		}
		loaded, err := loadDetails(txCtx, tx, []*domain.Case{c})
		if err != nil {
			return err
		}
		details = loaded[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return details, nil
}

// List returns every case in the same shape as Get, oldest first.
func (s *Service) List(ctx context.Context) (all []*domain.CaseDetails, err error) {
	ctx, done := s.begin(ctx, "list")
	defer func() { done(err) }()

	err = s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		cases, err := tx.Cases().List(txCtx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cases")
		}
		all, err = loadDetails(txCtx, tx, cases)
		return err
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// Update overwrites the editable fields. Both the case and the editor must
// exist. Moving into closed stamps ClosedAt; moving out clears it.
func (s *Service) Update(ctx context.Context, caseID id.CaseID, req *models.UpdateCaseRequest, editorID id.UserID) (updated *domain.Case, err error) {
	ctx, done := s.begin(ctx, "update")
	defer func() { done(err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	err = s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		c, err := tx.Cases().Get(txCtx, caseID)
		if err != nil {
			return wrapStoreErr(err, "case not found", "load case")
		}
		if err := requireEditor(txCtx, tx, editorID); err != nil {
			return err
		}

		if err := c.Edit(req.Fields(), editorID, requestcontext.Now(txCtx)); err != nil {
			if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
				return dErrors.New(dErrors.CodeValidation, err.Error())
			}
			return err
		}
		if err := tx.Cases().Update(txCtx, c); err != nil {
			return wrapStoreErr(err, "case not found", "update case")
		}

		if err := s.emit(txCtx, caseEvent(audit.EventCaseUpdated, c, editorID),
			"case_id", c.ID.String(), "status", string(c.Status)); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the case and everything it owns in one unit of work.
// Linked persons, users and tags survive; only the association rows go.
func (s *Service) Delete(ctx context.Context, caseID id.CaseID) (err error) {
	ctx, done := s.begin(ctx, "delete")
	defer func() { done(err) }()

	err = s.store.RunInTx(ctx, func(txCtx context.Context, tx storage.Tx) error {
		c, err := tx.Cases().Get(txCtx, caseID)
		if err != nil {
			return wrapStoreErr(err, "case not found", "load case")
		}
		if err := tx.Cases().Delete(txCtx, caseID); err != nil {
			return wrapStoreErr(err, "case not found", "delete case")
		}
		return s.emit(txCtx, caseEvent(audit.EventCaseDeleted, c, requestcontext.UserID(txCtx)),
			"case_id", c.ID.String(), "case_number", c.CaseNumber)
	})
	if err != nil {
		return err
	}
	s.incrementCaseDeleted()
	return nil
}

// loadDetails resolves children for every case with one query per child
// kind. Tombstoned evidence is left out.
func loadDetails(ctx context.Context, tx storage.Tx, cases []*domain.Case) ([]*domain.CaseDetails, error) {
	out := make([]*domain.CaseDetails, len(cases))
	if len(cases) == 0 {
		return out, nil
	}

	caseIDs := make([]id.CaseID, len(cases))
	byCase := make(map[id.CaseID]*domain.CaseDetails, len(cases))
	for i, c := range cases {
		caseIDs[i] = c.ID
		out[i] = &domain.CaseDetails{
			Case:          c,
			Actions:       []*domain.CaseAction{},
			Reports:       []*domain.Report{},
			Evidence:      []domain.EvidenceSummary{},
			AssignedUsers: []*domain.User{},
		}
		byCase[c.ID] = out[i]
	}

	actions, err := tx.Actions().ListForCases(ctx, caseIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load case actions")
	}
	for _, a := range actions {
		if d, ok := byCase[a.CaseID]; ok {
			d.Actions = append(d.Actions, a)
		}
	}

	reports, err := tx.Reports().ListForCases(ctx, caseIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load reports")
	}
	for _, r := range reports {
		if d, ok := byCase[r.CaseID]; ok {
			d.Reports = append(d.Reports, r)
		}
	}

	evidence, err := tx.Evidence().ListForCases(ctx, caseIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load evidence")
	}
	for _, ev := range evidence {
		if domain.IsDeleted(ev) {
			continue
		}
		if d, ok := byCase[ev.CaseID]; ok {
			d.Evidence = append(d.Evidence, ev.Summary())
		}
	}

	users, err := tx.Assignments().UsersForCases(ctx, caseIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load assigned users")
	}
	for caseID, assigned := range users {
		if d, ok := byCase[caseID]; ok {
			d.AssignedUsers = append(d.AssignedUsers, assigned...)
		}
	}
	return out, nil
}

// requireCreator is the check on create paths: an unknown user is bad input.
func requireCreator(ctx context.Context, tx storage.Tx, userID id.UserID) error {
	ok, err := tx.Users().Exists(ctx, userID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check user")
	}
	if !ok {
		return dErrors.New(dErrors.CodeValidation, "creator does not reference an existing user")
	}
	return nil
}

// requireEditor is the check on update paths: an unknown user is not found.
func requireEditor(ctx context.Context, tx storage.Tx, userID id.UserID) error {
	ok, err := tx.Users().Exists(ctx, userID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check user")
	}
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return nil
}

func requireCase(ctx context.Context, tx storage.Tx, caseID id.CaseID) error {
	ok, err := tx.Cases().Exists(ctx, caseID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check case")
	}
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "case not found")
	}
	return nil
}

// wrapStoreErr passes domain errors through and translates store sentinels.
func wrapStoreErr(err error, notFound, action string) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFound)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+action)
}

// begin opens a span for op and returns the func that closes it.
func (s *Service) begin(ctx context.Context, op string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "cases."+op,
		trace.WithAttributes(attribute.String("request_id", requestcontext.RequestID(ctx))))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
		if s.metrics != nil {
			s.metrics.ObserveOperation(op, start)
		}
	}
}

func (s *Service) incrementCaseCreated() {
	if s.metrics != nil {
		s.metrics.IncrementCaseCreated()
	}
}

func (s *Service) incrementCaseDeleted() {
	if s.metrics != nil {
		s.metrics.IncrementCaseDeleted()
	}
}

func (s *Service) incrementMintCollision() {
	if s.metrics != nil {
		s.metrics.IncrementMintCollision()
	}
}

func (s *Service) incrementMintExhausted() {
	if s.metrics != nil {
		s.metrics.IncrementMintExhausted()
	}
}
