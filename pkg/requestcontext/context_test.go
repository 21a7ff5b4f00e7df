package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	id "pcms/pkg/domain"
)

func TestNow(t *testing.T) {
	t.Run("falls back to wall clock", func(t *testing.T) {
		before := time.Now().UTC()
		got := Now(context.Background())
		assert.False(t, got.Before(before.Add(-time.Second)))
		assert.Equal(t, time.UTC, got.Location())
	})

	t.Run("returns pinned time in UTC", func(t *testing.T) {
		pinned := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("X", 3600))
		got := Now(WithTime(context.Background(), pinned))
		assert.True(t, pinned.Equal(got))
		assert.Equal(t, time.UTC, got.Location())
	})
}

func TestValues(t *testing.T) {
	ctx := context.Background()
	assert.True(t, UserID(ctx).IsNil())
	assert.Empty(t, RequestID(ctx))

	userID := id.UserID(uuid.New())
	ctx = WithRequestID(WithUserID(ctx, userID), "req-1")
	assert.Equal(t, userID, UserID(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))
}
