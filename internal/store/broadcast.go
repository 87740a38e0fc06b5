package store

import (
	"context"
	"sync"
)

// Loader reads every document of a collection.
type Loader func(ctx context.Context, collection string) (Snapshot, error)

// Broadcaster fans out collection snapshots to in-process subscribers.
// Stores without a native change feed call Notify after each successful write.
//
// Loading and delivering a snapshot happen under a per-collection lock, so a
// subscriber never receives a snapshot older than one it already has. ChangeFuncs
// must not write to the collection they watch.
type Broadcaster struct {
	load Loader

	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]ChangeFunc
	feeds  map[string]*sync.Mutex
}

// NewBroadcaster returns a Broadcaster that reads snapshots with load.
func NewBroadcaster(load Loader) *Broadcaster {
	return &Broadcaster{
		load:  load,
		subs:  make(map[string]map[int]ChangeFunc),
		feeds: make(map[string]*sync.Mutex),
	}
}

// feed returns the lock that orders snapshots of collection.
func (b *Broadcaster) feed(collection string) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.feeds[collection]
	if !ok {
		m = &sync.Mutex{}
		b.feeds[collection] = m
	}
	return m
}

// Subscribe registers fn and delivers the current snapshot before returning.
func (b *Broadcaster) Subscribe(ctx context.Context, collection string, fn ChangeFunc) (Unsubscribe, error) {
	feed := b.feed(collection)
	feed.Lock()
	snap, err := b.load(ctx, collection)
	if err != nil {
		feed.Unlock()
		return nil, err
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[collection] == nil {
		b.subs[collection] = make(map[int]ChangeFunc)
	}
	b.subs[collection][id] = fn
	b.mu.Unlock()

	fn(snap)
	feed.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[collection], id)
			b.mu.Unlock()
		})
	}
	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			unsub()
		}()
	}
	return unsub, nil
}

// Notify reloads collection and hands the snapshot to every subscriber.
// Load failures are dropped; the next successful write delivers a fresh snapshot.
func (b *Broadcaster) Notify(ctx context.Context, collection string) {
	feed := b.feed(collection)
	feed.Lock()
	defer feed.Unlock()

	b.mu.Lock()
	fns := make([]ChangeFunc, 0, len(b.subs[collection]))
	for _, fn := range b.subs[collection] {
		fns = append(fns, fn)
	}
	b.mu.Unlock()
	if len(fns) == 0 {
		return
	}

	snap, err := b.load(ctx, collection)
	if err != nil {
		return
	}
	for _, fn := range fns {
		fn(snap)
	}
}
