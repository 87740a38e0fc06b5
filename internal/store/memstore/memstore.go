// Package memstore is an in-process implementation of store.Store.
package memstore

import (
	"context"
	"sync"

	"Taskflow/internal/store"

	"github.com/google/uuid"
)

type collection struct {
	order []string
	docs  map[string]store.Document
}

// Store keeps every collection in memory. Snapshots list documents in creation order.
type Store struct {
	mu    sync.RWMutex
	colls map[string]*collection
	bc    *store.Broadcaster
}

// New returns an empty Store.
func New() *Store {
	s := &Store{colls: make(map[string]*collection)}
	s.bc = store.NewBroadcaster(s.snapshot)
	return s
}

func (s *Store) coll(name string) *collection {
	c, ok := s.colls[name]
	if !ok {
		c = &collection{docs: make(map[string]store.Document)}
		s.colls[name] = c
	}
	return c
}

func (s *Store) Create(ctx context.Context, collection string, doc store.Document) (string, error) {
	s.mu.Lock()
	id := s.insertLocked(collection, doc)
	s.mu.Unlock()

	s.bc.Notify(ctx, collection)
	return id, nil
}

func (s *Store) insertLocked(collection string, doc store.Document) string {
	id := uuid.NewString()
	c := s.coll(collection)
	c.order = append(c.order, id)
	data := doc.Clone()
	if data == nil {
		data = store.Document{}
	}
	c.docs[id] = data
	return id
}

func (s *Store) Read(_ context.Context, collection, id string) (store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.colls[collection]
	if !ok {
		return nil, store.ErrNotFound
	}
	doc, ok := c.docs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return doc.Clone(), nil
}

func (s *Store) Update(ctx context.Context, collection, id string, patch store.Document) error {
	s.mu.Lock()
	c, ok := s.colls[collection]
	if !ok {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	if _, ok := c.docs[id]; !ok {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	c.docs[id] = c.docs[id].Merge(patch)
	s.mu.Unlock()

	s.bc.Notify(ctx, collection)
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	if err := s.deleteLocked(collection, id); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.bc.Notify(ctx, collection)
	return nil
}

func (s *Store) deleteLocked(collection, id string) error {
	c, ok := s.colls[collection]
	if !ok {
		return store.ErrNotFound
	}
	if _, ok := c.docs[id]; !ok {
		return store.ErrNotFound
	}
	delete(c.docs, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Move deletes id from one collection and inserts doc into another under a single lock.
func (s *Store) Move(ctx context.Context, from, id, to string, doc store.Document) (string, error) {
	s.mu.Lock()
	if err := s.deleteLocked(from, id); err != nil {
		s.mu.Unlock()
		return "", err
	}
	newID := s.insertLocked(to, doc)
	s.mu.Unlock()

	s.bc.Notify(ctx, from)
	s.bc.Notify(ctx, to)
	return newID, nil
}

func (s *Store) Subscribe(ctx context.Context, collection string, fn store.ChangeFunc) (store.Unsubscribe, error) {
	return s.bc.Subscribe(ctx, collection, fn)
}

func (s *Store) snapshot(_ context.Context, collection string) (store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.colls[collection]
	if !ok {
		return store.Snapshot{}, nil
	}
	snap := make(store.Snapshot, 0, len(c.order))
	for _, id := range c.order {
		snap = append(snap, store.Record{ID: id, Data: c.docs[id].Clone()})
	}
	return snap, nil
}
