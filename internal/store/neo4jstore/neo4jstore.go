// Package neo4jstore implements store.Store on Neo4j. Each document is a :Document
// node keyed by collection and id, with the body kept as a JSON string property and
// createdAt in Unix nanoseconds for snapshot order.
package neo4jstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"Taskflow/internal/store"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type Store struct {
	driver neo4j.DriverWithContext
	bc     *store.Broadcaster
}

// New returns a Store. Change notification is in-process only: subscribers see
// writes made through this Store value.
func New(driver neo4j.DriverWithContext) *Store {
	s := &Store{driver: driver}
	s.bc = store.NewBroadcaster(s.load)
	return s
}

// EnsureSchema creates the uniqueness constraint on (collection, id).
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := neo4j.ExecuteQuery(ctx, s.driver,
		"CREATE CONSTRAINT document_key IF NOT EXISTS FOR (d:Document) REQUIRE (d.collection, d.id) IS UNIQUE",
		nil, neo4j.EagerResultTransformer)
	return err
}

func (s *Store) Create(ctx context.Context, collection string, doc store.Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			"CREATE (d:Document {collection: $collection, id: $id, data: $data, createdAt: $createdAt})",
			map[string]any{"collection": collection, "id": id, "data": string(data), "createdAt": time.Now().UnixNano()},
		)
		return nil, err
	})
	if err != nil {
		return "", fmt.Errorf("create %s: %w", collection, err)
	}

	s.bc.Notify(context.WithoutCancel(ctx), collection)
	return id, nil
}

func (s *Store) Read(ctx context.Context, collection, id string) (store.Document, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return readData(ctx, tx, collection, id)
	})
	if err != nil {
		return nil, err
	}
	return decode(result.(string))
}

func (s *Store) Update(ctx context.Context, collection, id string, patch store.Document) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		raw, err := readData(ctx, tx, collection, id)
		if err != nil {
			return nil, err
		}
		current, err := decode(raw)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(current.Merge(patch))
		if err != nil {
			return nil, err
		}
		_, err = tx.Run(ctx,
			"MATCH (d:Document {collection: $collection, id: $id}) SET d.data = $data",
			map[string]any{"collection": collection, "id": id, "data": string(data)},
		)
		return nil, err
	})
	if err != nil {
		return err
	}

	s.bc.Notify(context.WithoutCancel(ctx), collection)
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, deleteNode(ctx, tx, collection, id)
	})
	if err != nil {
		return err
	}

	s.bc.Notify(context.WithoutCancel(ctx), collection)
	return nil
}

// Move deletes id from one collection and creates doc in another inside one transaction.
func (s *Store) Move(ctx context.Context, from, id, to string, doc store.Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	newID := uuid.NewString()

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if err := deleteNode(ctx, tx, from, id); err != nil {
			return nil, err
		}
		_, err := tx.Run(ctx,
			"CREATE (d:Document {collection: $collection, id: $id, data: $data, createdAt: $createdAt})",
			map[string]any{"collection": to, "id": newID, "data": string(data), "createdAt": time.Now().UnixNano()},
		)
		return nil, err
	})
	if err != nil {
		return "", err
	}

	bg := context.WithoutCancel(ctx)
	s.bc.Notify(bg, from)
	s.bc.Notify(bg, to)
	return newID, nil
}

// Health checks that the driver can reach the server.
func (s *Store) Health(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

func (s *Store) Subscribe(ctx context.Context, collection string, fn store.ChangeFunc) (store.Unsubscribe, error) {
	return s.bc.Subscribe(ctx, collection, fn)
}

func (s *Store) load(ctx context.Context, collection string) (store.Snapshot, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (d:Document {collection: $collection}) RETURN d.id AS id, d.data AS data ORDER BY d.createdAt, d.id",
			map[string]any{"collection": collection},
		)
		if err != nil {
			return nil, err
		}

		snap := store.Snapshot{}
		for res.Next(ctx) {
			record := res.Record()
			doc, err := decode(record.Values[1].(string))
			if err != nil {
				return nil, err
			}
			snap = append(snap, store.Record{ID: record.Values[0].(string), Data: doc})
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return snap, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}
	return result.(store.Snapshot), nil
}

func readData(ctx context.Context, tx neo4j.ManagedTransaction, collection, id string) (string, error) {
	res, err := tx.Run(ctx,
		"MATCH (d:Document {collection: $collection, id: $id}) RETURN d.data AS data",
		map[string]any{"collection": collection, "id": id},
	)
	if err != nil {
		return "", err
	}
	if !res.Next(ctx) {
		if err := res.Err(); err != nil {
			return "", err
		}
		return "", store.ErrNotFound
	}
	return res.Record().Values[0].(string), nil
}

func deleteNode(ctx context.Context, tx neo4j.ManagedTransaction, collection, id string) error {
	res, err := tx.Run(ctx,
		"MATCH (d:Document {collection: $collection, id: $id}) DELETE d RETURN count(*) AS n",
		map[string]any{"collection": collection, "id": id},
	)
	if err != nil {
		return err
	}
	rec, err := res.Single(ctx)
	if err != nil {
		return err
	}
	if rec.Values[0].(int64) == 0 {
		return store.ErrNotFound
	}
	return nil
}

func decode(raw string) (store.Document, error) {
	var doc store.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}
