// Package catalog implements the ConfSync catalog and revision
// management engine: transactional group and file mutation, the
// append-only revision log, deployment state, override resolution,
// and revision diffing.
package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/confsync/confsync/pkg/log"
	"github.com/confsync/confsync/pkg/notify"
	"github.com/confsync/confsync/pkg/store"
	"github.com/confsync/confsync/pkg/types"
)

// Well-known storage keys.
const (
	// MasterKey addresses the single catalog record.
	MasterKey = "master"

	// SerialKey addresses the staleness serial, bumped on every
	// successful mutation so external readers can detect changes.
	SerialKey = "serial"
)

// FileListKey returns the list key holding a file's revision log.
func FileListKey(fileID string) string {
	return "files/" + fileID
}

// Serial is the record stored at SerialKey.
type Serial struct {
	Value string `json:"value"`
}

// Manager owns the master catalog and performs all validated,
// transactional mutations against it.
type Manager struct {
	store  store.Store
	logger log.Logger
	sink   notify.Sink
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithSink registers the notification sink invoked after every
// successful mutation.
func WithSink(sink notify.Sink) Option {
	return func(m *Manager) { m.sink = sink }
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a catalog manager on top of the given store.
func NewManager(s store.Store, logger log.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	m := &Manager{
		store:  s,
		logger: logger.WithComponent("catalog"),
		sink:   notify.Nop{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetData loads the catalog outside any transaction. A missing master
// record yields the empty catalog, not an error.
func (m *Manager) GetData(ctx context.Context) (*types.Catalog, error) {
	cat := types.EmptyCatalog()
	if err := m.store.Get(ctx, MasterKey, cat); err != nil {
		if types.IsNotFoundError(err) {
			return types.EmptyCatalog(), nil
		}
		return nil, err
	}
	return cat, nil
}

// GetSerial returns the current staleness serial, or "" when no
// mutation has ever been committed.
func (m *Manager) GetSerial(ctx context.Context) (string, error) {
	var serial Serial
	if err := m.store.Get(ctx, SerialKey, &serial); err != nil {
		if types.IsNotFoundError(err) {
			return "", nil
		}
		return "", err
	}
	return serial.Value, nil
}

// mutateCatalog runs the standard mutation pipeline: begin a
// transaction on the master key, read the catalog (missing record is
// the empty catalog), apply fn, write the catalog back, bump the
// serial, and commit. Any failure aborts the transaction before it
// surfaces; partial writes never become visible.
func (m *Manager) mutateCatalog(ctx context.Context, fn func(tx store.Tx, cat *types.Catalog) error) error {
	tx, err := m.store.Begin(ctx, MasterKey)
	if err != nil {
		return err
	}

	cat := types.EmptyCatalog()
	if err := tx.Get(MasterKey, cat); err != nil && !types.IsNotFoundError(err) {
		tx.Abort()
		return err
	}

	if err := fn(tx, cat); err != nil {
		tx.Abort()
		return err
	}

	if err := tx.Put(MasterKey, cat); err != nil {
		tx.Abort()
		return err
	}
	if err := tx.Put(SerialKey, Serial{Value: uuid.NewString()}); err != nil {
		tx.Abort()
		return err
	}
	return tx.Commit()
}

// readCatalog runs a read-only pipeline inside a transaction so the
// catalog and revision log are seen as one consistent snapshot.
func (m *Manager) readCatalog(ctx context.Context, fn func(tx store.Tx, cat *types.Catalog) error) error {
	tx, err := m.store.Begin(ctx, MasterKey)
	if err != nil {
		return err
	}

	cat := types.EmptyCatalog()
	if err := tx.Get(MasterKey, cat); err != nil && !types.IsNotFoundError(err) {
		tx.Abort()
		return err
	}

	if err := fn(tx, cat); err != nil {
		tx.Abort()
		return err
	}
	return tx.Commit()
}

// emit delivers a transaction-completion event to the sink. Sink
// failures are logged and discarded; they never fail the mutation.
func (m *Manager) emit(ctx context.Context, code notify.Code, subjectID string, payload map[string]interface{}) {
	event := notify.Event{Code: code, SubjectID: subjectID, Payload: payload}
	if err := m.sink.Notify(ctx, event); err != nil {
		m.logger.Error("Notification sink failed",
			log.Str("code", string(code)),
			log.Str("subject", subjectID),
			log.Err(err))
	}
}

// entityPayload renders an entity's fields as a generic payload map.
func entityPayload(v interface{}) map[string]interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]interface{}{}
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]interface{}{}
	}
	return out
}

// AddGroup adds a new target group. The id is normalized before use;
// the group must carry at least one env match criterion.
func (m *Manager) AddGroup(ctx context.Context, group *types.Group) error {
	if group == nil {
		return types.NewValidationError("group must not be nil")
	}
	if group.ID == "" {
		return types.NewValidationError("group id must be a non-empty string")
	}
	if len(group.Env) == 0 {
		return types.NewValidationError("group must have at least one env property")
	}

	group.ID = types.NormalizeID(group.ID)
	if group.ID == "" {
		return types.NewValidationError("group id must contain at least one of [A-Za-z0-9_-]")
	}
	if group.Title == "" {
		group.Title = group.ID
	}
	now := m.now()
	group.Created = now
	group.Modified = now

	m.logger.Debug("Adding group", log.Str("id", group.ID))

	err := m.mutateCatalog(ctx, func(tx store.Tx, cat *types.Catalog) error {
		if cat.FindGroup(group.ID) != nil {
			return types.NewConflictError("group", group.ID)
		}
		cat.Groups = append(cat.Groups, group)
		return nil
	})
	if err != nil {
		return err
	}

	m.emit(ctx, notify.CodeAddGroup, group.ID, entityPayload(group))
	return nil
}

// UpdateGroup applies a field-level update to an existing group. At
// least one field beyond the id must be set or unset.
func (m *Manager) UpdateGroup(ctx context.Context, update *types.GroupUpdate) error {
	if update == nil {
		return types.NewValidationError("update must not be nil")
	}
	if update.ID == "" {
		return types.NewValidationError("group id must be a non-empty string")
	}
	if update.Empty() {
		return types.NewValidationError("update must change at least one field")
	}

	id := types.NormalizeID(update.ID)
	m.logger.Debug("Updating group", log.Str("id", id))

	var updated *types.Group
	err := m.mutateCatalog(ctx, func(tx store.Tx, cat *types.Catalog) error {
		group := cat.FindGroup(id)
		if group == nil {
			return types.NewNotFoundError("group", id)
		}

		update.ApplyTo(group)

		// the update must not strip the last env match criterion
		if len(group.Env) == 0 {
			return types.NewValidationError("group must have at least one env property")
		}

		group.Modified = m.now()
		updated = group
		return nil
	})
	if err != nil {
		return err
	}

	m.emit(ctx, notify.CodeUpdateGroup, updated.ID, entityPayload(updated))
	return nil
}

// DeleteGroup removes a group from the catalog. Live deployment
// pointers referencing the group are left in place; they are inert
// once the group no longer matches any host.
func (m *Manager) DeleteGroup(ctx context.Context, id string) error {
	if id == "" {
		return types.NewValidationError("group id must be a non-empty string")
	}
	id = types.NormalizeID(id)

	m.logger.Debug("Deleting group", log.Str("id", id))

	var deleted *types.Group
	err := m.mutateCatalog(ctx, func(tx store.Tx, cat *types.Catalog) error {
		deleted = cat.FindGroup(id)
		if deleted == nil || !cat.RemoveGroup(id) {
			return types.NewNotFoundError("group", id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.emit(ctx, notify.CodeDeleteGroup, id, entityPayload(deleted))
	return nil
}

// AddConfigFile adds a new managed config file definition.
func (m *Manager) AddConfigFile(ctx context.Context, file *types.ConfigFile) error {
	if file == nil {
		return types.NewValidationError("file must not be nil")
	}
	if file.ID == "" {
		return types.NewValidationError("file id must be a non-empty string")
	}
	if file.Path == "" {
		return types.NewValidationError("file must have a path string")
	}

	file.ID = types.NormalizeID(file.ID)
	if file.ID == "" {
		return types.NewValidationError("file id must contain at least one of [A-Za-z0-9_-]")
	}
	if file.Title == "" {
		file.Title = file.ID
	}
	file.Live = map[string]types.LiveState{}
	now := m.now()
	file.Created = now
	file.Modified = now
	file.Counter = 0

	m.logger.Debug("Adding config file", log.Str("id", file.ID), log.Str("path", file.Path))

	err := m.mutateCatalog(ctx, func(tx store.Tx, cat *types.Catalog) error {
		if cat.FindFile(file.ID) != nil {
			return types.NewConflictError("file", file.ID)
		}
		cat.Files = append(cat.Files, file)
		return nil
	})
	if err != nil {
		return err
	}

	m.emit(ctx, notify.CodeAddConfigFile, file.ID, entityPayload(file))
	return nil
}

// UpdateConfigFile applies a field-level update to an existing file
// definition. At least one field beyond the id must be set or unset.
func (m *Manager) UpdateConfigFile(ctx context.Context, update *types.ConfigFileUpdate) error {
	if update == nil {
		return types.NewValidationError("update must not be nil")
	}
	if update.ID == "" {
		return types.NewValidationError("file id must be a non-empty string")
	}
	if update.Empty() {
		return types.NewValidationError("update must change at least one field")
	}

	id := types.NormalizeID(update.ID)
	m.logger.Debug("Updating config file", log.Str("id", id))

	var updated *types.ConfigFile
	err := m.mutateCatalog(ctx, func(tx store.Tx, cat *types.Catalog) error {
		file := cat.FindFile(id)
		if file == nil {
			return types.NewNotFoundError("file", id)
		}

		update.ApplyTo(file)
		file.Modified = m.now()
		updated = file
		return nil
	})
	if err != nil {
		return err
	}

	m.emit(ctx, notify.CodeUpdateConfigFile, updated.ID, entityPayload(updated))
	return nil
}

// DeleteConfigFile removes a file definition. When full is set, the
// file's entire revision log is purged inside the same transaction.
func (m *Manager) DeleteConfigFile(ctx context.Context, id string, full bool) error {
	if id == "" {
		return types.NewValidationError("file id must be a non-empty string")
	}
	id = types.NormalizeID(id)

	m.logger.Debug("Deleting config file", log.Str("id", id), log.Bool("full", full))

	var deleted *types.ConfigFile
	err := m.mutateCatalog(ctx, func(tx store.Tx, cat *types.Catalog) error {
		deleted = cat.FindFile(id)
		if deleted == nil || !cat.RemoveFile(id) {
			return types.NewNotFoundError("file", id)
		}
		if full {
			if err := tx.ListDelete(FileListKey(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.emit(ctx, notify.CodeDeleteConfigFile, id, entityPayload(deleted))
	return nil
}
