package engine

import (
	"context"
	"sync"
	"time"

	"artpriv/internal/lifecycle/store"
	dErrors "artpriv/pkg/domain-errors"
)

// numShards spreads per-entity serialization over independent mutexes so that
// work on unrelated entities never contends on one lock.
const numShards = 128

// defaultTxTimeout is the maximum duration of a unit of work.
const defaultTxTimeout = 5 * time.Second

// shardedTx serializes units of work per entity key inside this process and
// delegates atomicity to the underlying store runner.
type shardedTx struct {
	shards  [numShards]sync.Mutex
	runner  store.TxRunner
	timeout time.Duration
}

func newShardedTx(runner store.TxRunner, timeout time.Duration) *shardedTx {
	return &shardedTx{runner: runner, timeout: timeout}
}

func (t *shardedTx) RunInTx(ctx context.Context, key string, fn func(ctx context.Context, s store.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := selectShard(key)
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return t.runner.RunInTx(ctx, fn)
}

func selectShard(key string) int {
	if key == "" {
		return 0
	}
	return int(hashKey(key) % numShards)
}

// hashKey is 32-bit FNV-1a.
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
