package core

import (
	"context"
	"iter"
)

// Index defines the contract of the persistent metadata catalogue.
// It is primary-keyed by entry ID with a secondary lookup by name.
// Batch methods return one slot per input, in input order.
type Index interface {
	// Get returns the record for each id. The root sentinel always resolves to absent.
	Get(ctx context.Context, ids []string) ([]Optional[Entry], error)

	// GetByName returns one record per name. When several records share a
	// name the one with the lexicographically smallest ID is returned.
	GetByName(ctx context.Context, names []string) ([]Optional[Entry], error)

	// Put upserts a record.
	Put(ctx context.Context, e Entry) error

	// Add inserts a record, failing with ErrDuplicateID if the ID exists.
	Add(ctx context.Context, e Entry) error

	// Delete removes a record. Missing records are a no-op.
	Delete(ctx context.Context, id string) error

	// All returns every record, ordered by ID.
	All(ctx context.Context) ([]Entry, error)

	// Close releases the underlying storage.
	Close() error
}

// ContentStore defines the contract of the hierarchical byte store.
// Nodes are named by entry IDs, never by display names.
type ContentStore interface {
	// Root returns the handle of the storage root.
	Root(ctx context.Context) (Handle, error)

	// Resolve walks the tree below root looking for a node named id.
	// It returns the matched handle when the match is a directory, and the
	// handle of the parent directory when the match is a leaf.
	Resolve(ctx context.Context, root Handle, id string) (Handle, bool, error)

	// Lookup returns the immediate child id of dir.
	Lookup(ctx context.Context, dir Handle, id string) (Handle, bool, error)

	// CreateDirectory creates the directory id below parent if absent.
	CreateDirectory(ctx context.Context, parent Handle, id string) (Handle, error)

	// CreateLeaf creates the empty leaf id below parent if absent.
	CreateLeaf(ctx context.Context, parent Handle, id string) (Handle, error)

	// ListChildren lazily enumerates the immediate child IDs of dir.
	ListChildren(ctx context.Context, dir Handle) iter.Seq2[string, error]

	// Read returns the full content of a leaf.
	Read(ctx context.Context, leaf Handle) ([]byte, error)

	// Write replaces the full content of a leaf.
	Write(ctx context.Context, leaf Handle, content []byte) error

	// Remove deletes the child id of parent, with its subtree when recursive.
	Remove(ctx context.Context, parent Handle, id string, recursive bool) error
}

// Watchable defines an interface for content stores that report external changes.
type Watchable interface {
	Watch(ctx context.Context) (<-chan Event, error)
}
