// Package store provides durable keyed record and ordered list storage
// with transactional commit semantics for the ConfSync catalog.
package store

import (
	"context"
)

// Store defines the interface for catalog state storage. Records are
// JSON-encoded values addressed by key; lists are ordered collections
// addressed by list key, with position 0 always the most recent item.
type Store interface {
	// Open initializes and opens the store.
	Open(path string) error

	// Close closes the store and releases resources.
	Close() error

	// Get retrieves a record outside any transaction and unmarshals it
	// into out. A missing record yields a types.NotFoundError.
	Get(ctx context.Context, key string, out interface{}) error

	// Begin starts a transaction serialized on the given logical key.
	// Concurrent transactions against the same key are mutually
	// exclusive; the caller must finish with Commit or Abort. All
	// writes issued through the transaction commit atomically,
	// including writes to keys other than the one Begin was scoped to.
	Begin(ctx context.Context, key string) (Tx, error)
}

// Tx represents an open store transaction.
type Tx interface {
	// Get retrieves a record and unmarshals it into out. A missing
	// record yields a types.NotFoundError.
	Get(key string, out interface{}) error

	// Put writes a record.
	Put(key string, value interface{}) error

	// ListUnshift prepends an item to a list, creating the list if
	// needed. The newest item is always at position 0.
	ListUnshift(listKey string, item interface{}) error

	// ListGet unmarshals a contiguous slice of the list into out
	// (a pointer to a slice) and returns the list's total length.
	// A limit of 0 means "to the end". A missing list yields a
	// types.NotFoundError.
	ListGet(listKey string, offset, limit int, out interface{}) (total int, err error)

	// ListFind locates the first item whose fields equal every entry
	// of criteria, unmarshals it into out, and returns its position.
	// Yields a types.NotFoundError when the list is missing or no
	// item matches.
	ListFind(listKey string, criteria map[string]interface{}, out interface{}) (index int, err error)

	// ListDelete removes the entire list. Deleting a missing list is
	// not an error.
	ListDelete(listKey string) error

	// Commit makes all writes durable atomically.
	Commit() error

	// Abort discards all writes issued since Begin.
	Abort() error
}
