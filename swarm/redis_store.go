package swarm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/swarmmind/swarmmind/core"
)

// RedisStore persists checkpoints in Redis instead of (or in addition
// to) local disk files, so a coordinator can restart on a shared
// instance (SPEC_FULL.md §4.9's domain-stack wiring). Grounded on
// gomind's RedisTaskStore (orchestration/redis_task_store.go):
// SETNX-free single-key-per-snapshot writes under a configurable key
// prefix, with a TTL so stale checkpoints expire on their own.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger core.Logger
}

// NewRedisStore builds a RedisStore. prefix defaults to
// "swarmmind:checkpoints" and ttl to 7 days when zero-valued,
// mirroring the teacher's DefaultRedisTaskStoreConfig pattern.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration, logger core.Logger) *RedisStore {
	if prefix == "" {
		prefix = "swarmmind:checkpoints"
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = core.NoOpLogger{}
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (rs *RedisStore) key(ts time.Time) string {
	return fmt.Sprintf("%s:%d", rs.prefix, ts.Unix())
}

func (rs *RedisStore) latestKey() string {
	return rs.prefix + ":latest"
}

// Save writes cp both under its timestamped key and under a "latest"
// pointer key, so LoadLatest never needs a SCAN.
func (rs *RedisStore) Save(ctx context.Context, cp *Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return core.Wrap("swarm.redis_store", "Save", cp.ID, err)
	}
	pipe := rs.client.Pipeline()
	pipe.Set(ctx, rs.key(cp.Timestamp), data, rs.ttl)
	pipe.Set(ctx, rs.latestKey(), data, rs.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		rs.logger.Error("checkpoint save failed", map[string]interface{}{"error": err.Error()})
		return core.Wrap("swarm.redis_store", "Save", cp.ID, err)
	}
	return nil
}

func (rs *RedisStore) LoadLatest(ctx context.Context) (*Checkpoint, error) {
	data, err := rs.client.Get(ctx, rs.latestKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, core.Wrap("swarm.redis_store", "LoadLatest", "", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, core.Wrap("swarm.redis_store", "LoadLatest", "", err)
	}
	return &cp, nil
}
