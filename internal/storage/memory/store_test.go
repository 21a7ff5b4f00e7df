package memory

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"pcms/internal/domain"
	"pcms/internal/storage"
	"pcms/internal/storage/storagetest"
	id "pcms/pkg/domain"
	dErrors "pcms/pkg/domain-errors"
)

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, &storagetest.Suite{NewStore: func() storage.Store { return New() }})
}

func TestRunInTx_CancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.RunInTx(ctx, func(context.Context, storage.Tx) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	assert.False(t, called)
}

func TestRunInTx_AppliesDefaultDeadline(t *testing.T) {
	s := New(WithTxTimeout(time.Minute))
	err := s.RunInTx(context.Background(), func(ctx context.Context, _ storage.Tx) error {
		deadline, ok := ctx.Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
		return nil
	})
	require.NoError(t, err)
}

func TestRunInTx_CopiesOnlyTablesItWrites(t *testing.T) {
	s := New()
	ctx := context.Background()
	tagID := id.TagID(uuid.New())
	require.NoError(t, s.RunInTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.Tags().Create(ctx, &domain.Tag{ID: tagID, Name: "burglary"})
	}))
	mapOf := func(m any) uintptr { return reflect.ValueOf(m).Pointer() }
	tags, cases := mapOf(s.state.tags.data), mapOf(s.state.cases.data)

	t.Run("reads share the committed tables", func(t *testing.T) {
		require.NoError(t, s.RunInTx(ctx, func(ctx context.Context, tx storage.Tx) error {
			_, err := tx.Tags().Get(ctx, tagID)
			return err
		}))
		assert.Equal(t, tags, mapOf(s.state.tags.data))
		assert.Equal(t, cases, mapOf(s.state.cases.data))
	})

	t.Run("failed write leaves committed table untouched", func(t *testing.T) {
		boom := errors.New("boom")
		err := s.RunInTx(ctx, func(ctx context.Context, tx storage.Tx) error {
			if err := tx.Tags().Create(ctx, &domain.Tag{ID: id.TagID(uuid.New()), Name: "arson"}); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.Equal(t, 1, s.state.tags.len())
		assert.Equal(t, tags, mapOf(s.state.tags.data))
	})

	t.Run("committed write copies only its table", func(t *testing.T) {
		require.NoError(t, s.RunInTx(ctx, func(ctx context.Context, tx storage.Tx) error {
			return tx.Tags().Create(ctx, &domain.Tag{ID: id.TagID(uuid.New()), Name: "fraud"})
		}))
		assert.Equal(t, 2, s.state.tags.len())
		assert.NotEqual(t, tags, mapOf(s.state.tags.data))
		assert.Equal(t, cases, mapOf(s.state.cases.data))
	})
}
