package cache

import (
	"context"
	"encoding/json"
	"time"

	dom "Taskflow/internal/domain"

	"github.com/redis/go-redis/v9"
)

const keyTask = "task:"

// TaskCache caches single task documents for the details view in Redis.
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTaskCache returns a new TaskCache.
func NewTaskCache(rdb *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached task, or nil on a miss.
func (c *TaskCache) Get(ctx context.Context, id string) (*dom.Task, error) {
	b, err := c.rdb.Get(ctx, keyTask+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var t dom.Task
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Set stores t under its id.
func (c *TaskCache) Set(ctx context.Context, t dom.Task) error {
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyTask+t.ID, b, c.ttl).Err()
}

// Invalidate drops one task.
func (c *TaskCache) Invalidate(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, keyTask+id).Err()
}

// InvalidateAll drops every cached task. Called whenever a new snapshot arrives,
// since the snapshot may carry writes from other clients.
func (c *TaskCache) InvalidateAll(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, keyTask+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
