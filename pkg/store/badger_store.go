package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/confsync/confsync/pkg/log"
	"github.com/confsync/confsync/pkg/types"
)

// Validate that BadgerStore implements the Store interface
var _ Store = &BadgerStore{}

// BadgerStore implements the Store interface using BadgerDB. All keys
// touched inside one transaction commit atomically through a single
// Badger transaction, which satisfies the engine's cross-key
// atomicity precondition (catalog record plus per-file revision list).
type BadgerStore struct {
	db     *badger.DB
	path   string
	logger log.Logger

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewBadgerStore creates a new BadgerDB-backed store.
func NewBadgerStore(logger log.Logger) *BadgerStore {
	if logger == nil {
		logger = log.GetDefaultLogger().WithComponent("store")
	} else {
		logger = logger.WithComponent("store")
	}

	return &BadgerStore{
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Open opens the BadgerDB database.
func (s *BadgerStore) Open(path string) error {
	s.path = path

	opts := badger.DefaultOptions(path)
	opts.Logger = &badgerLogAdapter{logger: s.logger}

	db, err := badger.Open(opts)
	if err != nil {
		return types.NewStorageError("open", fmt.Errorf("failed to open badger db: %w", err))
	}
	s.db = db

	s.logger.Info("ConfSync store opened", log.Str("path", path))
	return nil
}

// Close closes the BadgerDB database.
func (s *BadgerStore) Close() error {
	if s.db != nil {
		s.logger.Info("Closing ConfSync store", log.Str("path", s.path))
		return s.db.Close()
	}
	return nil
}

// Get retrieves a record outside any transaction.
func (s *BadgerStore) Get(ctx context.Context, key string, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return types.NewStorageError("get", err)
	}

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return unmarshalValue(val, out)
		})
	})
	if err == badger.ErrKeyNotFound {
		return types.NewNotFoundError("record", key)
	}
	if err != nil {
		return types.NewStorageError("get", err)
	}
	return nil
}

// Begin starts a transaction serialized on the given logical key.
// Badger transactions are optimistic; the per-key mutex turns
// concurrent writers into a queue instead of surfacing commit
// conflicts to the engine.
func (s *BadgerStore) Begin(ctx context.Context, key string) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.NewStorageError("begin", err)
	}
	if s.db == nil {
		return nil, types.NewStorageError("begin", fmt.Errorf("store is not open"))
	}

	lock := s.keyLock(key)
	lock.Lock()

	return &badgerTx{
		txn:  s.db.NewTransaction(true),
		lock: lock,
	}, nil
}

func (s *BadgerStore) keyLock(key string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

// badgerTx implements Tx over one Badger read-write transaction.
type badgerTx struct {
	txn      *badger.Txn
	lock     *sync.Mutex
	finished bool
}

var _ Tx = &badgerTx{}

func (t *badgerTx) Get(key string, out interface{}) error {
	item, err := t.txn.Get(recordKey(key))
	if err == badger.ErrKeyNotFound {
		return types.NewNotFoundError("record", key)
	}
	if err != nil {
		return types.NewStorageError("get", err)
	}
	return item.Value(func(val []byte) error {
		return unmarshalValue(val, out)
	})
}

func (t *badgerTx) Put(key string, value interface{}) error {
	data, err := marshalValue(value)
	if err != nil {
		return types.NewStorageError("put", err)
	}
	if err := t.txn.Set(recordKey(key), data); err != nil {
		return types.NewStorageError("put", err)
	}
	return nil
}

func (t *badgerTx) ListUnshift(listKey string, item interface{}) error {
	header, err := t.getListHeader(listKey)
	if err != nil {
		if !types.IsNotFoundError(err) {
			return err
		}
		header = &listHeader{}
	}

	data, err := marshalValue(item)
	if err != nil {
		return types.NewStorageError("listUnshift", err)
	}
	if err := t.txn.Set(listItemKey(listKey, header.NextSeq), data); err != nil {
		return types.NewStorageError("listUnshift", err)
	}

	header.NextSeq++
	header.Length++
	return t.putListHeader(listKey, header)
}

func (t *badgerTx) ListGet(listKey string, offset, limit int, out interface{}) (int, error) {
	header, err := t.getListHeader(listKey)
	if err != nil {
		return 0, err
	}

	start, end := sliceBounds(header.Length, offset, limit)
	rawItems := make([]json.RawMessage, 0, end-start)
	for i := start; i < end; i++ {
		raw, err := t.getListItem(listKey, header.NextSeq-1-int64(i))
		if err != nil {
			return 0, err
		}
		rawItems = append(rawItems, raw)
	}

	encoded, err := json.Marshal(rawItems)
	if err != nil {
		return 0, types.NewStorageError("listGet", err)
	}
	if err := unmarshalValue(encoded, out); err != nil {
		return 0, types.NewStorageError("listGet", err)
	}
	return header.Length, nil
}

func (t *badgerTx) ListFind(listKey string, criteria map[string]interface{}, out interface{}) (int, error) {
	header, err := t.getListHeader(listKey)
	if err != nil {
		return 0, err
	}

	for i := 0; i < header.Length; i++ {
		raw, err := t.getListItem(listKey, header.NextSeq-1-int64(i))
		if err != nil {
			return 0, err
		}
		if matchesCriteria(raw, criteria) {
			if err := unmarshalValue(raw, out); err != nil {
				return 0, types.NewStorageError("listFind", err)
			}
			return i, nil
		}
	}
	return 0, types.NewNotFoundError("list item", listKey)
}

func (t *badgerTx) ListDelete(listKey string) error {
	header, err := t.getListHeader(listKey)
	if err != nil {
		if types.IsNotFoundError(err) {
			return nil
		}
		return err
	}

	for i := 0; i < header.Length; i++ {
		if err := t.txn.Delete(listItemKey(listKey, header.NextSeq-1-int64(i))); err != nil {
			return types.NewStorageError("listDelete", err)
		}
	}
	if err := t.txn.Delete(listHeaderKey(listKey)); err != nil {
		return types.NewStorageError("listDelete", err)
	}
	return nil
}

func (t *badgerTx) Commit() error {
	if t.finished {
		return types.NewStorageError("commit", errAlreadyFinished)
	}
	t.finished = true
	defer t.lock.Unlock()

	if err := t.txn.Commit(); err != nil {
		return types.NewStorageError("commit", err)
	}
	return nil
}

func (t *badgerTx) Abort() error {
	if t.finished {
		return nil
	}
	t.finished = true
	defer t.lock.Unlock()

	t.txn.Discard()
	return nil
}

func (t *badgerTx) getListHeader(listKey string) (*listHeader, error) {
	item, err := t.txn.Get(listHeaderKey(listKey))
	if err == badger.ErrKeyNotFound {
		return nil, types.NewNotFoundError("list", listKey)
	}
	if err != nil {
		return nil, types.NewStorageError("listHeader", err)
	}

	var header listHeader
	if err := item.Value(func(val []byte) error {
		return unmarshalValue(val, &header)
	}); err != nil {
		return nil, types.NewStorageError("listHeader", err)
	}
	return &header, nil
}

func (t *badgerTx) putListHeader(listKey string, header *listHeader) error {
	data, err := marshalValue(header)
	if err != nil {
		return types.NewStorageError("listHeader", err)
	}
	if err := t.txn.Set(listHeaderKey(listKey), data); err != nil {
		return types.NewStorageError("listHeader", err)
	}
	return nil
}

func (t *badgerTx) getListItem(listKey string, seq int64) (json.RawMessage, error) {
	item, err := t.txn.Get(listItemKey(listKey, seq))
	if err == badger.ErrKeyNotFound {
		return nil, types.NewNotFoundError("list item", listKey)
	}
	if err != nil {
		return nil, types.NewStorageError("listItem", err)
	}

	var raw json.RawMessage
	if err := item.Value(func(val []byte) error {
		raw = append([]byte(nil), val...)
		return nil
	}); err != nil {
		return nil, types.NewStorageError("listItem", err)
	}
	return raw, nil
}

// badgerLogAdapter routes BadgerDB's internal logging into the
// structured logger.
type badgerLogAdapter struct {
	logger log.Logger
}

func (l *badgerLogAdapter) Errorf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogAdapter) Warningf(format string, args ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogAdapter) Infof(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogAdapter) Debugf(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
