package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/confsync/confsync/pkg/types"
)

// MemoryStore is an in-memory Store implementation for tests. A single
// mutex serializes all transactions, which trivially satisfies the
// per-key serialization contract.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string][]byte
	lists   map[string][][]byte // position 0 = newest
}

var _ Store = &MemoryStore{}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]byte),
		lists:   make(map[string][][]byte),
	}
}

// Open is a no-op for the in-memory store.
func (m *MemoryStore) Open(path string) error { return nil }

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error { return nil }

// Get retrieves a record outside any transaction.
func (m *MemoryStore) Get(ctx context.Context, key string, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return types.NewStorageError("get", err)
	}

	m.mu.Lock()
	raw, ok := m.records[key]
	m.mu.Unlock()
	if !ok {
		return types.NewNotFoundError("record", key)
	}
	return unmarshalValue(raw, out)
}

// Begin starts a transaction. Writes are staged and only become
// visible on Commit.
func (m *MemoryStore) Begin(ctx context.Context, key string) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.NewStorageError("begin", err)
	}

	m.mu.Lock()
	return &memoryTx{
		store:        m,
		records:      make(map[string][]byte),
		lists:        make(map[string][][]byte),
		deletedLists: make(map[string]bool),
	}, nil
}

type memoryTx struct {
	store        *MemoryStore
	records      map[string][]byte
	lists        map[string][][]byte
	deletedLists map[string]bool
	finished     bool
}

var _ Tx = &memoryTx{}

func (t *memoryTx) Get(key string, out interface{}) error {
	raw, ok := t.records[key]
	if !ok {
		raw, ok = t.store.records[key]
	}
	if !ok {
		return types.NewNotFoundError("record", key)
	}
	return unmarshalValue(raw, out)
}

func (t *memoryTx) Put(key string, value interface{}) error {
	data, err := marshalValue(value)
	if err != nil {
		return types.NewStorageError("put", err)
	}
	t.records[key] = data
	return nil
}

// list returns the transaction's view of a list, or nil,false when the
// list does not exist.
func (t *memoryTx) list(listKey string) ([][]byte, bool) {
	if t.deletedLists[listKey] {
		return nil, false
	}
	if staged, ok := t.lists[listKey]; ok {
		return staged, true
	}
	base, ok := t.store.lists[listKey]
	return base, ok
}

func (t *memoryTx) ListUnshift(listKey string, item interface{}) error {
	data, err := marshalValue(item)
	if err != nil {
		return types.NewStorageError("listUnshift", err)
	}

	current, _ := t.list(listKey)
	staged := make([][]byte, 0, len(current)+1)
	staged = append(staged, data)
	staged = append(staged, current...)

	delete(t.deletedLists, listKey)
	t.lists[listKey] = staged
	return nil
}

func (t *memoryTx) ListGet(listKey string, offset, limit int, out interface{}) (int, error) {
	items, ok := t.list(listKey)
	if !ok {
		return 0, types.NewNotFoundError("list", listKey)
	}

	start, end := sliceBounds(len(items), offset, limit)
	rawItems := make([]json.RawMessage, 0, end-start)
	for _, raw := range items[start:end] {
		rawItems = append(rawItems, raw)
	}

	encoded, err := json.Marshal(rawItems)
	if err != nil {
		return 0, types.NewStorageError("listGet", err)
	}
	if err := unmarshalValue(encoded, out); err != nil {
		return 0, types.NewStorageError("listGet", err)
	}
	return len(items), nil
}

func (t *memoryTx) ListFind(listKey string, criteria map[string]interface{}, out interface{}) (int, error) {
	items, ok := t.list(listKey)
	if !ok {
		return 0, types.NewNotFoundError("list", listKey)
	}
	for i, raw := range items {
		if matchesCriteria(raw, criteria) {
			if err := unmarshalValue(raw, out); err != nil {
				return 0, types.NewStorageError("listFind", err)
			}
			return i, nil
		}
	}
	return 0, types.NewNotFoundError("list item", listKey)
}

func (t *memoryTx) ListDelete(listKey string) error {
	delete(t.lists, listKey)
	t.deletedLists[listKey] = true
	return nil
}

func (t *memoryTx) Commit() error {
	if t.finished {
		return types.NewStorageError("commit", errAlreadyFinished)
	}
	t.finished = true
	defer t.store.mu.Unlock()

	for key, raw := range t.records {
		t.store.records[key] = raw
	}
	for listKey := range t.deletedLists {
		delete(t.store.lists, listKey)
	}
	for listKey, items := range t.lists {
		t.store.lists[listKey] = items
	}
	return nil
}

func (t *memoryTx) Abort() error {
	if t.finished {
		return nil
	}
	t.finished = true
	t.store.mu.Unlock()
	return nil
}
