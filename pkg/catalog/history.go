package catalog

import (
	"context"

	"github.com/confsync/confsync/pkg/store"
	"github.com/confsync/confsync/pkg/types"
)

// HistoryResult is a page of a file's revision log, newest first.
type HistoryResult struct {
	File      *types.ConfigFile
	Revisions []*types.Revision
	Total     int
	Catalog   *types.Catalog
}

// History returns a page of the file's revision log. A file that has
// never been pushed yields an empty page, not an error. A limit of 0
// means "to the end".
func (m *Manager) History(ctx context.Context, id string, offset, limit int) (*HistoryResult, error) {
	if id == "" {
		return nil, types.NewValidationError("file id must be a non-empty string")
	}
	id = types.NormalizeID(id)

	result := &HistoryResult{Revisions: []*types.Revision{}}
	err := m.readCatalog(ctx, func(tx store.Tx, cat *types.Catalog) error {
		file := cat.FindFile(id)
		if file == nil {
			return types.NewNotFoundError("file", id)
		}
		result.File = file
		result.Catalog = cat

		total, err := tx.ListGet(FileListKey(id), offset, limit, &result.Revisions)
		if err != nil {
			if types.IsNotFoundError(err) {
				// no revisions pushed yet, or history was purged
				result.Revisions = []*types.Revision{}
				return nil
			}
			return err
		}
		result.Total = total
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RevisionResult is one revision of a file, with its definition and
// the catalog snapshot it was read under.
type RevisionResult struct {
	File     *types.ConfigFile
	Revision *types.Revision
	Catalog  *types.Catalog
}

// GetRevision returns one revision of a file. An empty rev means the
// newest log entry; a bare counter value is accepted as "rN".
func (m *Manager) GetRevision(ctx context.Context, id, rev string) (*RevisionResult, error) {
	if id == "" {
		return nil, types.NewValidationError("file id must be a non-empty string")
	}
	id = types.NormalizeID(id)
	rev = NormalizeRev(rev)

	result := &RevisionResult{}
	err := m.readCatalog(ctx, func(tx store.Tx, cat *types.Catalog) error {
		file := cat.FindFile(id)
		if file == nil {
			return types.NewNotFoundError("file", id)
		}
		result.File = file
		result.Catalog = cat

		if rev != "" {
			var found types.Revision
			if _, err := tx.ListFind(FileListKey(id), map[string]interface{}{"rev": rev}, &found); err != nil {
				if types.IsNotFoundError(err) {
					return types.NewNotFoundError("revision", rev)
				}
				return err
			}
			result.Revision = &found
			return nil
		}

		var items []*types.Revision
		if _, err := tx.ListGet(FileListKey(id), 0, 1, &items); err != nil {
			if types.IsNotFoundError(err) {
				return types.NewNotFoundError("revision", "latest")
			}
			return err
		}
		if len(items) == 0 {
			return types.NewNotFoundError("revision", "latest")
		}
		result.Revision = items[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Find returns the first revision whose fields equal every entry of
// criteria, searching newest first.
func (m *Manager) Find(ctx context.Context, id string, criteria map[string]interface{}) (*RevisionResult, error) {
	if id == "" {
		return nil, types.NewValidationError("file id must be a non-empty string")
	}
	if len(criteria) == 0 {
		return nil, types.NewValidationError("find criteria must not be empty")
	}
	id = types.NormalizeID(id)

	result := &RevisionResult{}
	err := m.readCatalog(ctx, func(tx store.Tx, cat *types.Catalog) error {
		file := cat.FindFile(id)
		if file == nil {
			return types.NewNotFoundError("file", id)
		}
		result.File = file
		result.Catalog = cat

		var found types.Revision
		if _, err := tx.ListFind(FileListKey(id), criteria, &found); err != nil {
			if types.IsNotFoundError(err) {
				return types.NewNotFoundError("revision", id)
			}
			return err
		}
		result.Revision = &found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
