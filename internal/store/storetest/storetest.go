// Package storetest is a behavioural test suite for store.Store implementations.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"Taskflow/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitFor bounds how long a change feed may take to deliver a snapshot.
const waitFor = 5 * time.Second

// Run exercises s against the store contract. Every subtest writes to its own
// collections, so s may be shared and need not be empty.
func Run(t *testing.T, s store.Store) {
	t.Run("CRUD", func(t *testing.T) { testCRUD(t, s) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, s) })
	t.Run("ReadReturnsCopy", func(t *testing.T) { testReadReturnsCopy(t, s) })
	t.Run("Subscribe", func(t *testing.T) { testSubscribe(t, s) })
	t.Run("Unsubscribe", func(t *testing.T) { testUnsubscribe(t, s) })
	if m, ok := s.(store.Mover); ok {
		t.Run("Move", func(t *testing.T) { testMove(t, s, m) })
	}
}

func collection(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// recorder collects snapshots delivered to a ChangeFunc.
type recorder struct {
	mu    sync.Mutex
	snaps []store.Snapshot
}

func (r *recorder) record(snap store.Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, snap)
	r.mu.Unlock()
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func (r *recorder) last() store.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snaps) == 0 {
		return nil
	}
	return r.snaps[len(r.snaps)-1]
}

func ids(snap store.Snapshot) []string {
	out := make([]string, 0, len(snap))
	for _, rec := range snap {
		out = append(out, rec.ID)
	}
	return out
}

func testCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()
	c := collection("tasks")

	id, err := s.Create(ctx, c, store.Document{"title": "a", "comments": []any{}})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := s.Read(ctx, c, id)
	require.NoError(t, err)
	assert.Equal(t, "a", doc["title"])

	require.NoError(t, s.Update(ctx, c, id, store.Document{"status": "completed", "comments": []any{"x"}}))
	doc, err = s.Read(ctx, c, id)
	require.NoError(t, err)
	assert.Equal(t, "a", doc["title"])
	assert.Equal(t, "completed", doc["status"])
	assert.Equal(t, []any{"x"}, doc["comments"])

	require.NoError(t, s.Delete(ctx, c, id))
	_, err = s.Read(ctx, c, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()
	c := collection("tasks")
	missing := uuid.NewString()

	_, err := s.Read(ctx, c, missing)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.Update(ctx, c, missing, store.Document{"a": 1}), store.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, c, missing), store.ErrNotFound)

	_, err = s.Read(ctx, c, "not-a-valid-id")
	assert.ErrorIs(t, err, store.ErrNotFound)

	id, err := s.Create(ctx, c, store.Document{"title": "a"})
	require.NoError(t, err)
	_, err = s.Read(ctx, collection("other"), id)
	assert.ErrorIs(t, err, store.ErrNotFound, "ids are scoped to their collection")
}

func testReadReturnsCopy(t *testing.T, s store.Store) {
	ctx := context.Background()
	c := collection("tasks")
	id, err := s.Create(ctx, c, store.Document{"title": "a"})
	require.NoError(t, err)

	doc, err := s.Read(ctx, c, id)
	require.NoError(t, err)
	doc["title"] = "changed"

	again, err := s.Read(ctx, c, id)
	require.NoError(t, err)
	assert.Equal(t, "a", again["title"])
}

func testSubscribe(t *testing.T, s store.Store) {
	ctx := context.Background()
	c := collection("tasks")
	first, err := s.Create(ctx, c, store.Document{"title": "first"})
	require.NoError(t, err)

	var rec recorder
	unsub, err := s.Subscribe(ctx, c, rec.record)
	require.NoError(t, err)
	defer unsub()

	require.Equal(t, 1, rec.count(), "initial snapshot is delivered before Subscribe returns")
	assert.Equal(t, []string{first}, ids(rec.last()))

	second, err := s.Create(ctx, c, store.Document{"title": "second"})
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{first, second}, ids(rec.last()))
	}, waitFor, 10*time.Millisecond)

	require.NoError(t, s.Delete(ctx, c, first))
	assert.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{second}, ids(rec.last()))
	}, waitFor, 10*time.Millisecond)

	got := rec.last()
	require.Len(t, got, 1)
	assert.Equal(t, "second", got[0].Data["title"])
}

func testUnsubscribe(t *testing.T, s store.Store) {
	ctx := context.Background()
	c := collection("tasks")

	var rec recorder
	unsub, err := s.Subscribe(ctx, c, rec.record)
	require.NoError(t, err)
	unsub()
	unsub()

	before := rec.count()
	_, err = s.Create(ctx, c, store.Document{"title": "late"})
	require.NoError(t, err)
	assert.Never(t, func() bool { return rec.count() != before }, 200*time.Millisecond, 20*time.Millisecond)
}

func testMove(t *testing.T, s store.Store, m store.Mover) {
	ctx := context.Background()
	from, to := collection("tasks"), collection("history")
	id, err := s.Create(ctx, from, store.Document{"title": "a"})
	require.NoError(t, err)

	var rec recorder
	unsub, err := s.Subscribe(ctx, to, rec.record)
	require.NoError(t, err)
	defer unsub()

	newID, err := m.Move(ctx, from, id, to, store.Document{"title": "a", "completedAt": "2026-10-19T12:00:00Z"})
	require.NoError(t, err)
	assert.NotEqual(t, id, newID)

	_, err = s.Read(ctx, from, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
	doc, err := s.Read(ctx, to, newID)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-19T12:00:00Z", doc["completedAt"])

	assert.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{newID}, ids(rec.last()))
	}, waitFor, 10*time.Millisecond)

	_, err = m.Move(ctx, from, id, to, store.Document{"title": "a"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}
