//go:build integration

package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "pcms/pkg/domain-errors"
	"pcms/pkg/testutil/containers"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	rc := containers.GetManager().GetRedis(t)
	opts, err := redis.ParseURL(rc.URL)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.FlushDB(context.Background()).Err())
	return client
}

func TestRedisLocker_MutualExclusion(t *testing.T) {
	client := newRedisClient(t)
	l := NewRedis(client, WithRetryInterval(5*time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	var (
		wg      sync.WaitGroup
		inside  atomic.Int32
		overlap atomic.Bool
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "tag:case")
			if !assert.NoError(t, err) {
				return
			}
			if inside.Add(1) > 1 {
				overlap.Store(true)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()
	assert.False(t, overlap.Load())
}

func TestRedisLocker_TimesOutWhileHeld(t *testing.T) {
	client := newRedisClient(t)
	l := NewRedis(client, WithRetryInterval(5*time.Millisecond))

	unlock, err := l.Lock(context.Background(), "held")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "held")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}

func TestRedisLocker_ReleaseKeepsForeignToken(t *testing.T) {
	client := newRedisClient(t)
	l := NewRedis(client, WithTTL(50*time.Millisecond))
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "expiring")
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	other, err := l.Lock(ctx, "expiring")
	require.NoError(t, err)
	unlock()

	exists, err := client.Exists(ctx, keyPrefix+"expiring").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists, "stale release must not drop the new holder")
	other()
}
