package cache

import (
	"context"
	"testing"
	"time"

	dom "Taskflow/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *TaskCache {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return NewTaskCache(rdb, time.Minute)
}

func TestTaskCache_SetGetInvalidate(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	task := dom.Task{
		ID: "cache-test-1", Title: "a", Priority: dom.PriorityHigh,
		Status: dom.StatusPending, Comments: []string{"x"},
	}

	require.NoError(t, c.Set(ctx, task))
	got, err := c.Get(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, task.Title, got.Title)
	assert.Equal(t, task.Comments, got.Comments)

	require.NoError(t, c.Invalidate(ctx, task.ID))
	got, err = c.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTaskCache_InvalidateAll(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	for _, id := range []string{"cache-test-2", "cache-test-3"} {
		require.NoError(t, c.Set(ctx, dom.Task{ID: id, Title: id}))
	}

	require.NoError(t, c.InvalidateAll(ctx))

	for _, id := range []string{"cache-test-2", "cache-test-3"} {
		got, err := c.Get(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
}
