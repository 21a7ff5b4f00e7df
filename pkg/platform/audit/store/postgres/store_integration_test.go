//go:build integration

package postgres_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "pcms/pkg/domain"
	audit "pcms/pkg/platform/audit"
	auditpg "pcms/pkg/platform/audit/store/postgres"
	txcontext "pcms/pkg/platform/tx"
	"pcms/pkg/testutil/containers"
)

type OutboxSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *auditpg.Store
}

func TestOutboxSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(OutboxSuite))
}

func (s *OutboxSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = auditpg.New(s.postgres.DB)
}

func (s *OutboxSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "outbox"))
}

func (s *OutboxSuite) event(action audit.AuditEvent, caseID string) audit.Event {
	return audit.Event{
		Timestamp:  time.Now(),
		ActorID:    id.UserID(uuid.New()),
		Action:     string(action),
		EntityType: "case",
		EntityID:   caseID,
		CaseID:     caseID,
		CaseNumber: "CA-2024-00000001",
	}
}

func (s *OutboxSuite) TestAppendAndDrain() {
	ctx := context.Background()
	caseID := uuid.NewString()
	s.Require().NoError(s.store.Append(ctx, s.event(audit.EventCaseCreated, caseID)))

	pending, err := s.store.Pending(ctx)
	s.Require().NoError(err)
	s.Equal(1, pending)

	var got []audit.OutboxEntry
	n, err := s.store.Drain(ctx, 10, func(_ context.Context, entries []audit.OutboxEntry) error {
		got = entries
		return nil
	})
	s.Require().NoError(err)
	s.Equal(1, n)
	s.Require().Len(got, 1)
	s.Equal("case", got[0].AggregateType)
	s.Equal(caseID, got[0].AggregateID)
	s.Equal(audit.CategoryCompliance, got[0].Category())

	var payload map[string]any
	s.Require().NoError(json.Unmarshal(got[0].Payload, &payload))
	s.Equal("case_created", payload["action"])
	s.Equal("CA-2024-00000001", payload["case_number"])

	pending, err = s.store.Pending(ctx)
	s.Require().NoError(err)
	s.Zero(pending)
}

func (s *OutboxSuite) TestFailedPublishLeavesEntriesPending() {
	ctx := context.Background()
	s.Require().NoError(s.store.Append(ctx, s.event(audit.EventCaseUpdated, uuid.NewString())))

	_, err := s.store.Drain(ctx, 10, func(context.Context, []audit.OutboxEntry) error {
		return errors.New("broker down")
	})
	s.Require().Error(err)

	pending, err := s.store.Pending(ctx)
	s.Require().NoError(err)
	s.Equal(1, pending)
}

func (s *OutboxSuite) TestAppendJoinsCallerTransaction() {
	ctx := context.Background()
	tx, err := s.postgres.DB.BeginTx(ctx, nil)
	s.Require().NoError(err)

	txCtx := txcontext.WithTx(ctx, tx)
	s.Require().NoError(s.store.Append(txCtx, s.event(audit.EventTagLinked, uuid.NewString())))
	s.Require().NoError(tx.Rollback())

	pending, err := s.store.Pending(ctx)
	s.Require().NoError(err)
	s.Zero(pending, "rolled back events never reach the outbox")
}
