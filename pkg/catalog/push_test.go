package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confsync/confsync/pkg/notify"
	"github.com/confsync/confsync/pkg/types"
)

func TestPushSequence(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.AddConfigFile(ctx, testFile("myapp")))

	for i := 1; i <= 3; i++ {
		rev, err := m.Push(ctx, &PushRequest{
			ID:   "myapp",
			Base: types.DataPayload(map[string]any{"port": float64(8000 + i)}),
		})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("r%d", i), rev)
	}

	cat, err := m.GetData(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, cat.FindFile("myapp").Counter)

	history, err := m.History(ctx, "myapp", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, history.Total)
	require.Len(t, history.Revisions, 3)
	assert.Equal(t, "r3", history.Revisions[0].Rev)
	assert.Equal(t, "r1", history.Revisions[2].Rev)
}

func TestPushValidation(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Push(ctx, nil)
	assert.True(t, types.IsValidationError(err))

	_, err = m.Push(ctx, &PushRequest{Base: types.RawPayload("x")})
	assert.True(t, types.IsValidationError(err))

	_, err = m.Push(ctx, &PushRequest{ID: "myapp"})
	assert.True(t, types.IsValidationError(err))

	_, err = m.Push(ctx, &PushRequest{ID: "myapp", Base: types.RawPayload("x")})
	assert.True(t, types.IsNotFoundError(err))
}

func TestPushWithDeploy(t *testing.T) {
	m, sink, clock := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.AddGroup(ctx, testGroup("prod")))
	require.NoError(t, m.AddGroup(ctx, testGroup("dev")))
	require.NoError(t, m.AddConfigFile(ctx, testFile("myapp")))

	rev, err := m.Push(ctx, &PushRequest{
		ID:       "myapp",
		Base:     types.DataPayload(map[string]any{"port": float64(80)}),
		Username: "jdoe",
		Message:  "initial",
		Deploy:   []string{"prod"},
	})
	require.NoError(t, err)
	assert.Equal(t, "r1", rev)

	cat, err := m.GetData(ctx)
	require.NoError(t, err)
	file := cat.FindFile("myapp")
	require.Contains(t, file.Live, "prod")
	assert.Equal(t, "r1", file.Live["prod"].Rev)
	assert.Equal(t, clock.Now(), file.Live["prod"].Start)
	assert.NotContains(t, file.Live, "dev")

	// push with deploy emits a push event and a deploy event
	codes := sink.codes()
	assert.Equal(t, notify.CodePush, codes[len(codes)-2])
	assert.Equal(t, notify.CodeDeploy, codes[len(codes)-1])

	deploy := sink.last()
	assert.Equal(t, "r1", deploy.Payload["rev"])
	assert.Equal(t, []string{"prod"}, deploy.Payload["groups"])
	assert.Equal(t, "jdoe", deploy.Payload["username"])
}

func TestPushDeployAll(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.AddGroup(ctx, testGroup("prod")))
	require.NoError(t, m.AddGroup(ctx, testGroup("dev")))
	require.NoError(t, m.AddConfigFile(ctx, testFile("myapp")))

	_, err := m.Push(ctx, &PushRequest{
		ID:        "myapp",
		Base:      types.RawPayload("hello\n"),
		DeployAll: true,
	})
	require.NoError(t, err)

	cat, err := m.GetData(ctx)
	require.NoError(t, err)
	file := cat.FindFile("myapp")
	assert.Equal(t, "r1", file.Live["prod"].Rev)
	assert.Equal(t, "r1", file.Live["dev"].Rev)
}

func TestPushUnknownDeployGroupAborts(t *testing.T) {
	m, sink, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.AddConfigFile(ctx, testFile("myapp")))
	before := len(sink.codes())

	_, err := m.Push(ctx, &PushRequest{
		ID:     "myapp",
		Base:   types.RawPayload("hello\n"),
		Deploy: []string{"nope"},
	})
	assert.True(t, types.IsNotFoundError(err))

	// nothing was written: no counter bump, no log entry, no events
	cat, err := m.GetData(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, cat.FindFile("myapp").Counter)

	history, err := m.History(ctx, "myapp", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, history.Revisions)
	assert.Len(t, sink.codes(), before)
}

func TestPushEventDefaults(t *testing.T) {
	m, sink, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.AddConfigFile(ctx, testFile("myapp")))
	_, err := m.Push(ctx, &PushRequest{
		ID:   "myapp",
		Base: types.RawPayload("hello\n"),
	})
	require.NoError(t, err)

	event := sink.last()
	assert.Equal(t, notify.CodePush, event.Code)
	assert.Equal(t, "(Unknown)", event.Payload["username"])
	assert.Equal(t, "(No message)", event.Payload["message"])
}

func TestHistoryPagination(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.AddConfigFile(ctx, testFile("myapp")))
	for i := 1; i <= 5; i++ {
		_, err := m.Push(ctx, &PushRequest{
			ID:   "myapp",
			Base: types.DataPayload(map[string]any{"n": float64(i)}),
		})
		require.NoError(t, err)
	}

	history, err := m.History(ctx, "myapp", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, history.Total)
	require.Len(t, history.Revisions, 2)
	assert.Equal(t, "r4", history.Revisions[0].Rev)
	assert.Equal(t, "r3", history.Revisions[1].Rev)
}

func TestHistoryUnknownFile(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.History(context.Background(), "nope", 0, 0)
	assert.True(t, types.IsNotFoundError(err))
}

func TestGetRevision(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.AddConfigFile(ctx, testFile("myapp")))
	for i := 1; i <= 2; i++ {
		_, err := m.Push(ctx, &PushRequest{
			ID:   "myapp",
			Base: types.DataPayload(map[string]any{"n": float64(i)}),
		})
		require.NoError(t, err)
	}

	// empty rev means newest
	result, err := m.GetRevision(ctx, "myapp", "")
	require.NoError(t, err)
	assert.Equal(t, "r2", result.Revision.Rev)

	// a bare counter value is shorthand for its revision id
	result, err = m.GetRevision(ctx, "myapp", "1")
	require.NoError(t, err)
	assert.Equal(t, "r1", result.Revision.Rev)
	assert.Equal(t, float64(1), result.Revision.Base.Data()["n"])

	_, err = m.GetRevision(ctx, "myapp", "r9")
	assert.True(t, types.IsNotFoundError(err))
}

func TestFindRevision(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.AddConfigFile(ctx, testFile("myapp")))
	_, err := m.Push(ctx, &PushRequest{
		ID:       "myapp",
		Base:     types.RawPayload("a\n"),
		Username: "jdoe",
	})
	require.NoError(t, err)
	_, err = m.Push(ctx, &PushRequest{
		ID:       "myapp",
		Base:     types.RawPayload("b\n"),
		Username: "asmith",
	})
	require.NoError(t, err)

	result, err := m.Find(ctx, "myapp", map[string]interface{}{"username": "jdoe"})
	require.NoError(t, err)
	assert.Equal(t, "r1", result.Revision.Rev)

	_, err = m.Find(ctx, "myapp", map[string]interface{}{"username": "nobody"})
	assert.True(t, types.IsNotFoundError(err))

	_, err = m.Find(ctx, "myapp", nil)
	assert.True(t, types.IsValidationError(err))
}
