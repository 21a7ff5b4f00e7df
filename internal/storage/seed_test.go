package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcms/internal/storage"
	"pcms/internal/storage/memory"
)

func TestSeedBootstrapUser(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	first, err := storage.SeedBootstrapUser(ctx, store, "Admin@Precinct.example")
	require.NoError(t, err)
	assert.Equal(t, storage.BootstrapUserID("admin@precinct.example"), first.ID)

	again, err := storage.SeedBootstrapUser(ctx, store, "admin@precinct.example")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, first.CreatedAt, again.CreatedAt)

	require.NoError(t, store.RunInTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		exists, err := tx.Users().Exists(ctx, first.ID)
		assert.True(t, exists)
		return err
	}))
}
