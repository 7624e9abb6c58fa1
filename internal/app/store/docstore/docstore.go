// Package docstore defines the document-store contract the synchronization
// core is written against: named collections of id+field-map documents with
// point reads/writes, partial updates with field-delete semantics, full-set
// live subscriptions, and server-assigned timestamps.
//
// The Mongo implementation (mongo.go) backs production; the in-memory
// implementation (memory.go) backs tests.
package docstore

import (
	"context"
	"errors"
)

// Collection names used by the application.
const (
	AllowlistCollection = "allowlist"
	UsersCollection     = "users"
	SquadsCollection    = "squads"
)

// ErrNotFound is returned by Get when no document has the given id.
// Delete of a missing document is NOT an error.
var ErrNotFound = errors.New("docstore: document not found")

// Fields is a document's field map. Values are plain Go types; time fields
// decode as time.Time.
type Fields map[string]any

type deleteField struct{}
type serverTimestamp struct{}

// DeleteField is a marker value: assigning it to a field in Set/Update
// removes the field from the stored document instead of writing a value.
var DeleteField = deleteField{}

// ServerTimestamp is a marker value resolved to the server's clock at write
// time.
var ServerTimestamp = serverTimestamp{}

// Doc is one document in a collection.
type Doc struct {
	ID     string
	Fields Fields
}

// Snapshot is the full current contents of one collection. Every event on a
// subscription carries a complete snapshot; consumers replace, never patch.
type Snapshot struct {
	Collection string
	Docs       []Doc
}

// Event is one delivery on a subscription stream: either a snapshot or an
// error. Errors are non-terminal; the stream stays open and prior data
// remains valid until the context is cancelled.
type Event struct {
	Snapshot *Snapshot
	Err      error
}

// Store is the document-store contract. All methods honor ctx cancellation.
type Store interface {
	// Subscribe opens a live subscription on a collection. The first event
	// is the current full snapshot; later events follow every change. The
	// stream closes when ctx is cancelled.
	Subscribe(ctx context.Context, collection string) (<-chan Event, error)

	// Get reads one document. Returns ErrNotFound when absent.
	Get(ctx context.Context, collection, id string) (Doc, error)

	// Set writes a document. With merge, existing fields not named in
	// fields are kept; without, the document is replaced.
	Set(ctx context.Context, collection, id string, fields Fields, merge bool) error

	// Update applies a partial update to an existing document. DeleteField
	// values remove fields; ServerTimestamp values stamp the server clock.
	Update(ctx context.Context, collection, id string, fields Fields) error

	// Delete removes a document. Deleting a missing document succeeds.
	Delete(ctx context.Context, collection, id string) error
}
