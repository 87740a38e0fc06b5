package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"Taskflow/internal/store"
	"Taskflow/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, New())
}

func TestStore_SnapshotsAreSynchronous(t *testing.T) {
	ctx := context.Background()
	s := New()

	var snaps []store.Snapshot
	unsub, err := s.Subscribe(ctx, "tasks", func(snap store.Snapshot) { snaps = append(snaps, snap) })
	require.NoError(t, err)
	defer unsub()

	id, err := s.Create(ctx, "tasks", store.Document{"title": "a"})
	require.NoError(t, err)
	_, err = s.Create(ctx, "taskHistory", store.Document{"title": "elsewhere"})
	require.NoError(t, err)

	require.Len(t, snaps, 2)
	assert.Empty(t, snaps[0])
	require.Len(t, snaps[1], 1)
	assert.Equal(t, id, snaps[1][0].ID)
}

func TestStore_SnapshotKeepsCreationOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	var want []string
	for _, title := range []string{"c", "a", "b"} {
		id, err := s.Create(ctx, "tasks", store.Document{"title": title})
		require.NoError(t, err)
		want = append(want, id)
	}
	require.NoError(t, s.Update(ctx, "tasks", want[0], store.Document{"status": "completed"}))

	var got []string
	unsub, err := s.Subscribe(ctx, "tasks", func(snap store.Snapshot) {
		got = got[:0]
		for _, rec := range snap {
			got = append(got, rec.ID)
		}
	})
	require.NoError(t, err)
	defer unsub()

	assert.Equal(t, want, got)
}

func TestStore_ConcurrentWritesEndOnLatestSnapshot(t *testing.T) {
	ctx := context.Background()
	s := New()

	var mu sync.Mutex
	var last store.Snapshot
	unsub, err := s.Subscribe(ctx, "tasks", func(snap store.Snapshot) {
		mu.Lock()
		last = snap
		mu.Unlock()
	})
	require.NoError(t, err)
	defer unsub()

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, "tasks", store.Document{"title": "t"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	want, err := s.snapshot(ctx, "tasks")
	require.NoError(t, err)
	require.Len(t, want, writers)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, want, last)
}

func TestStore_UnsubscribeOnContextCancel(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	n := 0
	_, err := s.Subscribe(ctx, "tasks", func(store.Snapshot) {
		mu.Lock()
		n++
		mu.Unlock()
	})
	require.NoError(t, err)
	cancel()

	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return n
	}
	assert.Eventually(t, func() bool {
		before := count()
		if _, err := s.Create(context.Background(), "tasks", store.Document{"title": "x"}); err != nil {
			return false
		}
		return count() == before
	}, time.Second, 10*time.Millisecond)
}
