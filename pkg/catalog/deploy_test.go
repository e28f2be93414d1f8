package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confsync/confsync/pkg/notify"
	"github.com/confsync/confsync/pkg/types"
)

func TestNormalizeRev(t *testing.T) {
	assert.Equal(t, "r12", NormalizeRev("12"))
	assert.Equal(t, "r12", NormalizeRev("r12"))
	assert.Equal(t, "", NormalizeRev(""))
	assert.Equal(t, "latest", NormalizeRev("latest"))
}

func deployFixture(t *testing.T) (*Manager, *captureSink, *testClock) {
	t.Helper()
	m, sink, clock := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.AddGroup(ctx, testGroup("prod")))
	require.NoError(t, m.AddGroup(ctx, testGroup("dev")))
	require.NoError(t, m.AddConfigFile(ctx, testFile("myapp")))
	for _, port := range []float64{80, 443} {
		_, err := m.Push(ctx, &PushRequest{
			ID:   "myapp",
			Base: types.DataPayload(map[string]any{"port": port}),
		})
		require.NoError(t, err)
	}
	return m, sink, clock
}

func TestDeployLatestToAllGroups(t *testing.T) {
	m, sink, _ := deployFixture(t)
	ctx := context.Background()

	require.NoError(t, m.Deploy(ctx, &DeployRequest{ID: "myapp"}))

	cat, err := m.GetData(ctx)
	require.NoError(t, err)
	file := cat.FindFile("myapp")
	assert.Equal(t, "r2", file.Live["prod"].Rev)
	assert.Equal(t, "r2", file.Live["dev"].Rev)

	event := sink.last()
	assert.Equal(t, notify.CodeDeploy, event.Code)
	assert.Equal(t, "r2", event.Payload["rev"])
}

func TestDeploySpecificRevAndGroups(t *testing.T) {
	m, _, _ := deployFixture(t)
	ctx := context.Background()

	// bare counter shorthand
	require.NoError(t, m.Deploy(ctx, &DeployRequest{
		ID:     "myapp",
		Rev:    "1",
		Groups: []string{"prod"},
	}))

	cat, err := m.GetData(ctx)
	require.NoError(t, err)
	file := cat.FindFile("myapp")
	assert.Equal(t, "r1", file.Live["prod"].Rev)
	assert.NotContains(t, file.Live, "dev")
}

func TestDeployUnknownRevLeavesLiveUntouched(t *testing.T) {
	m, sink, _ := deployFixture(t)
	ctx := context.Background()

	require.NoError(t, m.Deploy(ctx, &DeployRequest{ID: "myapp", Rev: "r1"}))
	before := len(sink.codes())

	err := m.Deploy(ctx, &DeployRequest{ID: "myapp", Rev: "r99"})
	assert.True(t, types.IsNotFoundError(err))

	cat, err := m.GetData(ctx)
	require.NoError(t, err)
	file := cat.FindFile("myapp")
	assert.Equal(t, "r1", file.Live["prod"].Rev)
	assert.Len(t, sink.codes(), before)
}

func TestDeployUnknownGroup(t *testing.T) {
	m, _, _ := deployFixture(t)

	err := m.Deploy(context.Background(), &DeployRequest{
		ID:     "myapp",
		Groups: []string{"nope"},
	})
	assert.True(t, types.IsNotFoundError(err))
}

func TestDeployNeverPushedFile(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.AddGroup(ctx, testGroup("prod")))
	require.NoError(t, m.AddConfigFile(ctx, testFile("empty")))

	err := m.Deploy(ctx, &DeployRequest{ID: "empty"})
	assert.True(t, types.IsNotFoundError(err))
}

func TestDeployPhases(t *testing.T) {
	m, _, clock := deployFixture(t)
	ctx := context.Background()

	require.NoError(t, m.Deploy(ctx, &DeployRequest{
		ID:       "myapp",
		Groups:   []string{"prod"},
		Duration: 3600,
	}))

	cat, err := m.GetData(ctx)
	require.NoError(t, err)
	file := cat.FindFile("myapp")

	live := file.Live["prod"]
	assert.Equal(t, types.DeployPhaseDeploying, live.Phase(clock.Now()))

	clock.Advance(2 * time.Hour)
	assert.Equal(t, types.DeployPhaseStable, live.Phase(clock.Now()))

	never := file.Live["dev"]
	assert.Equal(t, types.DeployPhaseUndeployed, never.Phase(clock.Now()))
}
