// Package pgstore implements store.Store on a Postgres jsonb table with LISTEN/NOTIFY
// as the change feed.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"Taskflow/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Channel is the NOTIFY channel written by the documents trigger. The payload is
// the collection name.
const Channel = "documents_changed"

const (
	minReconnectDelay = 250 * time.Millisecond
	maxReconnectDelay = 30 * time.Second
)

type Store struct {
	db   *pgxpool.Pool
	lost atomic.Int32
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, collection string, doc store.Document) (string, error) {
	var id string
	err := s.db.QueryRow(ctx,
		`INSERT INTO documents (collection, data) VALUES ($1, $2) RETURNING id::text`,
		collection, doc,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}
	return id, nil
}

func (s *Store) Read(ctx context.Context, collection, id string) (store.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, store.ErrNotFound
	}
	var doc store.Document
	err := s.db.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, patch store.Document) error {
	if _, err := uuid.Parse(id); err != nil {
		return store.ErrNotFound
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE documents SET data = data || $3::jsonb, updated_at = NOW()
		WHERE collection = $1 AND id = $2`,
		collection, id, patch,
	)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return store.ErrNotFound
	}
	tag, err := s.db.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Move deletes id from one collection and inserts doc into another in one transaction.
func (s *Store) Move(ctx context.Context, from, id, to string, doc store.Document) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", store.ErrNotFound
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin move: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, from, id)
	if err != nil {
		return "", fmt.Errorf("move delete %s/%s: %w", from, id, err)
	}
	if tag.RowsAffected() == 0 {
		return "", store.ErrNotFound
	}

	var newID string
	if err := tx.QueryRow(ctx,
		`INSERT INTO documents (collection, data) VALUES ($1, $2) RETURNING id::text`,
		to, doc,
	).Scan(&newID); err != nil {
		return "", fmt.Errorf("move insert %s: %w", to, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit move: %w", err)
	}
	return newID, nil
}

// Subscribe holds a dedicated connection that LISTENs on Channel until ctx is
// cancelled or the returned func is called. A lost connection is replaced with
// backoff; a fresh snapshot is delivered once listening again.
func (s *Store) Subscribe(ctx context.Context, collection string, fn store.ChangeFunc) (store.Unsubscribe, error) {
	pc, err := s.listen(ctx, collection, fn)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			err := s.follow(subCtx, pc, collection, fn)
			_ = pc.Close(context.Background())
			if subCtx.Err() != nil {
				return
			}
			log.Printf("pgstore: %s listener lost: %v", collection, err)
			if pc = s.relisten(subCtx, collection, fn); pc == nil {
				return
			}
			log.Printf("pgstore: %s listener restored", collection)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

// Health fails while any listener is reconnecting or the database does not answer.
func (s *Store) Health(ctx context.Context) error {
	if n := s.lost.Load(); n > 0 {
		return fmt.Errorf("%d change listener(s) reconnecting", n)
	}
	return s.db.Ping(ctx)
}

// listen takes a connection out of the pool, LISTENs on it and delivers the
// current snapshot of collection.
func (s *Store) listen(ctx context.Context, collection string, fn store.ChangeFunc) (*pgx.Conn, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listener: %w", err)
	}
	pc := conn.Hijack()
	if _, err := pc.Exec(ctx, "LISTEN "+Channel); err != nil {
		_ = pc.Close(context.Background())
		return nil, fmt.Errorf("listen: %w", err)
	}

	snap, err := s.load(ctx, collection)
	if err != nil {
		_ = pc.Close(context.Background())
		return nil, err
	}
	fn(snap)
	return pc, nil
}

// follow reloads collection for every notification naming it. It returns when
// the connection fails or ctx ends.
func (s *Store) follow(ctx context.Context, pc *pgx.Conn, collection string, fn store.ChangeFunc) error {
	for {
		n, err := pc.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		if n.Payload != collection {
			continue
		}
		snap, err := s.load(ctx, collection)
		if err != nil {
			continue
		}
		fn(snap)
	}
}

// relisten retries listen until it succeeds or ctx ends, in which case it returns nil.
func (s *Store) relisten(ctx context.Context, collection string, fn store.ChangeFunc) *pgx.Conn {
	s.lost.Add(1)
	defer s.lost.Add(-1)

	delay := minReconnectDelay
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		pc, err := s.listen(ctx, collection, fn)
		if err == nil {
			return pc
		}
		log.Printf("pgstore: %s relisten: %v (retry in %s)", collection, err, nextDelay(delay))
		delay = nextDelay(delay)
	}
}

func nextDelay(d time.Duration) time.Duration {
	d *= 2
	if d > maxReconnectDelay {
		return maxReconnectDelay
	}
	return d
}

func (s *Store) load(ctx context.Context, collection string) (store.Snapshot, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id::text, data FROM documents WHERE collection = $1 ORDER BY seq`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}
	defer rows.Close()

	snap := store.Snapshot{}
	for rows.Next() {
		var rec store.Record
		if err := rows.Scan(&rec.ID, &rec.Data); err != nil {
			return nil, err
		}
		snap = append(snap, rec)
	}
	return snap, rows.Err()
}
