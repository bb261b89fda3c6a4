package core

import "errors"

// Common errors.
var (
	// ErrDuplicateID is returned when an entry is added with an ID that already has a record.
	ErrDuplicateID = errors.New("entry id already exists")

	// ErrEntryNotFound is returned by single-entry mutations and reads on a missing record.
	// Batch lookups report absence as an empty Optional instead.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrParentNotFound is returned when an operation names a parent without a metadata record.
	ErrParentNotFound = errors.New("parent entry not found")

	// ErrHandleMissing is returned when a content node cannot be located after an
	// operation that should have guaranteed it.
	ErrHandleMissing = errors.New("content handle missing")

	// ErrNotDirectory is returned when a container operation targets a leaf.
	ErrNotDirectory = errors.New("entry is not a directory")

	// ErrNodeKindMismatch is returned when a node exists with the other container-ness.
	ErrNodeKindMismatch = errors.New("content node kind mismatch")

	// ErrRootEntry is returned when the root sentinel is used where a real entry is required.
	ErrRootEntry = errors.New("operation not allowed on root")

	// ErrUnknownEntryType is returned for type tags outside the closed set.
	ErrUnknownEntryType = errors.New("unknown entry type")

	// ErrReadOnly is returned by mutations on a read-only store.
	ErrReadOnly = errors.New("store is in read-only mode")
)
