// Package store defines the document-store contract the task service depends on.
package store

import (
	"context"
	"errors"
)

// Collection names.
const (
	CollectionTasks   = "tasks"
	CollectionHistory = "taskHistory"
)

// ErrNotFound is returned when a document id does not exist in a collection.
var ErrNotFound = errors.New("document not found")

// Document is a flat JSON-compatible record.
type Document map[string]any

// Clone returns a shallow copy of d. Slice values are copied one level deep.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		switch vv := v.(type) {
		case []any:
			cp := make([]any, len(vv))
			copy(cp, vv)
			out[k] = cp
		case []string:
			cp := make([]string, len(vv))
			copy(cp, vv)
			out[k] = cp
		default:
			out[k] = v
		}
	}
	return out
}

// Merge returns a copy of d with every key of patch applied on top.
func (d Document) Merge(patch Document) Document {
	out := d.Clone()
	if out == nil {
		out = Document{}
	}
	for k, v := range patch.Clone() {
		out[k] = v
	}
	return out
}

// Record is a document together with its id.
type Record struct {
	ID   string
	Data Document
}

// Snapshot is the full content of a collection at one point in time.
type Snapshot []Record

// ChangeFunc receives a fresh snapshot whenever a collection changes.
type ChangeFunc func(Snapshot)

// Unsubscribe stops a subscription. It is safe to call more than once.
type Unsubscribe func()

// Store is a collection-oriented document database.
type Store interface {
	Create(ctx context.Context, collection string, doc Document) (string, error)
	Read(ctx context.Context, collection, id string) (Document, error)
	// Update merges patch into the stored document.
	Update(ctx context.Context, collection, id string, patch Document) error
	Delete(ctx context.Context, collection, id string) error
	// Subscribe delivers the current snapshot immediately and again after every change.
	Subscribe(ctx context.Context, collection string, fn ChangeFunc) (Unsubscribe, error)
}

// Mover is implemented by stores that can delete a document from one collection and
// create another in a second collection atomically.
type Mover interface {
	Move(ctx context.Context, from, id, to string, doc Document) (string, error)
}

// HealthChecker is implemented by stores that can tell whether their backend and
// change feed are working.
type HealthChecker interface {
	Health(ctx context.Context) error
}
