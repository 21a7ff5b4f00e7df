// Package lock serializes work on a key, within one process or across
// instances sharing a Redis.
package lock

import (
	"context"

	dErrors "pcms/pkg/domain-errors"
)

// Locker acquires an exclusive hold on key. The returned func releases it
// and must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// numShards trades memory for contention: keys hashing to the same shard
// wait on each other even when they differ.
const numShards = 128

// ShardedLocker is the in-process Locker: a fixed array of one-slot
// semaphores selected by an FNV-1a hash of the key. A waiter gives up when
// its context ends. Use NewSharded; the zero value is not usable.
type ShardedLocker struct {
	shards [numShards]chan struct{}
}

func NewSharded() *ShardedLocker {
	l := &ShardedLocker{}
	for i := range l.shards {
		l.shards[i] = make(chan struct{}, 1)
	}
	return l
}

func (l *ShardedLocker) Lock(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "lock aborted: context cancelled")
	}
	shard := l.shards[hashKey(key)%numShards]
	select {
	case shard <- struct{}{}:
	case <-ctx.Done():
		return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "lock aborted: context cancelled")
	}
	return func() { <-shard }, nil
}

// hashKey uses FNV-1a for better distribution than simple multiply-add.
func hashKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
