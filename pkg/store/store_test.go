package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confsync/confsync/pkg/log"
	"github.com/confsync/confsync/pkg/types"
)

type testRecord struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type testItem struct {
	Rev string `json:"rev"`
	Tag string `json:"tag,omitempty"`
}

// withStores runs the same assertions against every Store
// implementation.
func withStores(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})

	t.Run("badger", func(t *testing.T) {
		s := NewBadgerStore(log.NewNopLogger())
		require.NoError(t, s.Open(t.TempDir()))
		defer s.Close()
		fn(t, s)
	})
}

func TestStorePutGet(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		tx, err := s.Begin(ctx, "master")
		require.NoError(t, err)
		require.NoError(t, tx.Put("master", &testRecord{Name: "hello", Count: 3}))
		require.NoError(t, tx.Commit())

		var out testRecord
		require.NoError(t, s.Get(ctx, "master", &out))
		assert.Equal(t, "hello", out.Name)
		assert.Equal(t, 3, out.Count)
	})
}

func TestStoreGetMissing(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		var out testRecord
		err := s.Get(ctx, "missing", &out)
		require.Error(t, err)
		assert.True(t, types.IsNotFoundError(err))

		tx, err := s.Begin(ctx, "master")
		require.NoError(t, err)
		defer tx.Abort()
		err = tx.Get("missing", &out)
		require.Error(t, err)
		assert.True(t, types.IsNotFoundError(err))
	})
}

func TestStoreAbortDiscardsWrites(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		tx, err := s.Begin(ctx, "master")
		require.NoError(t, err)
		require.NoError(t, tx.Put("master", &testRecord{Name: "doomed"}))
		require.NoError(t, tx.ListUnshift("files/app", &testItem{Rev: "r1"}))
		require.NoError(t, tx.Abort())

		var out testRecord
		assert.True(t, types.IsNotFoundError(s.Get(ctx, "master", &out)))

		tx, err = s.Begin(ctx, "master")
		require.NoError(t, err)
		defer tx.Abort()
		var items []*testItem
		_, err = tx.ListGet("files/app", 0, 0, &items)
		assert.True(t, types.IsNotFoundError(err))
	})
}

func TestStoreListUnshiftOrdering(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		tx, err := s.Begin(ctx, "master")
		require.NoError(t, err)
		for _, rev := range []string{"r1", "r2", "r3"} {
			require.NoError(t, tx.ListUnshift("files/app", &testItem{Rev: rev}))
		}
		require.NoError(t, tx.Commit())

		tx, err = s.Begin(ctx, "master")
		require.NoError(t, err)
		defer tx.Abort()

		var items []*testItem
		total, err := tx.ListGet("files/app", 0, 0, &items)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, items, 3)
		// newest is always at position 0
		assert.Equal(t, "r3", items[0].Rev)
		assert.Equal(t, "r2", items[1].Rev)
		assert.Equal(t, "r1", items[2].Rev)
	})
}

func TestStoreListGetPagination(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		tx, err := s.Begin(ctx, "master")
		require.NoError(t, err)
		for _, rev := range []string{"r1", "r2", "r3", "r4", "r5"} {
			require.NoError(t, tx.ListUnshift("files/app", &testItem{Rev: rev}))
		}
		require.NoError(t, tx.Commit())

		tx, err = s.Begin(ctx, "master")
		require.NoError(t, err)
		defer tx.Abort()

		var items []*testItem
		total, err := tx.ListGet("files/app", 1, 2, &items)
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		require.Len(t, items, 2)
		assert.Equal(t, "r4", items[0].Rev)
		assert.Equal(t, "r3", items[1].Rev)

		// offset past the end yields an empty page, not an error
		items = nil
		total, err = tx.ListGet("files/app", 10, 0, &items)
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		assert.Empty(t, items)
	})
}

func TestStoreListFind(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		tx, err := s.Begin(ctx, "master")
		require.NoError(t, err)
		require.NoError(t, tx.ListUnshift("files/app", &testItem{Rev: "r1", Tag: "old"}))
		require.NoError(t, tx.ListUnshift("files/app", &testItem{Rev: "r2", Tag: "new"}))
		require.NoError(t, tx.Commit())

		tx, err = s.Begin(ctx, "master")
		require.NoError(t, err)
		defer tx.Abort()

		var found testItem
		idx, err := tx.ListFind("files/app", map[string]interface{}{"rev": "r1"}, &found)
		require.NoError(t, err)
		assert.Equal(t, 1, idx)
		assert.Equal(t, "old", found.Tag)

		_, err = tx.ListFind("files/app", map[string]interface{}{"rev": "r9"}, &found)
		assert.True(t, types.IsNotFoundError(err))
	})
}

func TestStoreListDelete(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		tx, err := s.Begin(ctx, "master")
		require.NoError(t, err)
		require.NoError(t, tx.ListUnshift("files/app", &testItem{Rev: "r1"}))
		require.NoError(t, tx.Commit())

		tx, err = s.Begin(ctx, "master")
		require.NoError(t, err)
		require.NoError(t, tx.ListDelete("files/app"))
		// deleting a missing list is not an error
		require.NoError(t, tx.ListDelete("files/other"))
		require.NoError(t, tx.Commit())

		tx, err = s.Begin(ctx, "master")
		require.NoError(t, err)
		defer tx.Abort()
		var items []*testItem
		_, err = tx.ListGet("files/app", 0, 0, &items)
		assert.True(t, types.IsNotFoundError(err))
	})
}
