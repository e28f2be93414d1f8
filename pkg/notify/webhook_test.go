package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confsync/confsync/pkg/log"
)

type hookRecorder struct {
	mu     sync.Mutex
	bodies []map[string]interface{}
	agents []string
	status int
}

func (r *hookRecorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	var payload map[string]interface{}
	_ = json.Unmarshal(body, &payload)

	r.mu.Lock()
	r.bodies = append(r.bodies, payload)
	r.agents = append(r.agents, req.Header.Get("User-Agent"))
	r.mu.Unlock()

	if r.status != 0 {
		w.WriteHeader(r.status)
	}
}

func (r *hookRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bodies)
}

func TestWebhookSinkPostsToCodeAndUniversal(t *testing.T) {
	pushHook := &hookRecorder{}
	universalHook := &hookRecorder{}
	pushSrv := httptest.NewServer(pushHook)
	defer pushSrv.Close()
	universalSrv := httptest.NewServer(universalHook)
	defer universalSrv.Close()

	sink := NewWebhookSink(map[string]string{
		"push":        pushSrv.URL,
		UniversalHook: universalSrv.URL,
	}, log.NewNopLogger(),
		WithTemplates(map[string]string{
			"push": "New revision [rev] pushed for [id]",
		}),
		WithUserAgent("ConfSync test"))

	err := sink.Notify(context.Background(), Event{
		Code:      CodePush,
		SubjectID: "myapp",
		Payload:   map[string]interface{}{"id": "myapp", "rev": "r3"},
	})
	require.NoError(t, err)

	require.Equal(t, 1, pushHook.count())
	require.Equal(t, 1, universalHook.count())

	body := pushHook.bodies[0]
	assert.Equal(t, "push", body["code"])
	assert.Equal(t, "myapp", body["msg"])
	assert.Equal(t, "r3", body["rev"])
	assert.Equal(t, "ConfSync: New revision r3 pushed for myapp", body["text"])
	assert.Equal(t, body["text"], body["content"])
	assert.Equal(t, "ConfSync test", pushHook.agents[0])

	// an event with no registered hook only reaches the universal hook
	err = sink.Notify(context.Background(), Event{Code: CodeDeploy, SubjectID: "myapp"})
	require.NoError(t, err)
	assert.Equal(t, 1, pushHook.count())
	assert.Equal(t, 2, universalHook.count())
}

func TestWebhookSinkTemplateFallback(t *testing.T) {
	hook := &hookRecorder{}
	srv := httptest.NewServer(hook)
	defer srv.Close()

	sink := NewWebhookSink(map[string]string{UniversalHook: srv.URL}, log.NewNopLogger(),
		WithTemplates(map[string]string{
			"addGroup": "Group created: [title] ([missing])",
		}))

	require.NoError(t, sink.Notify(context.Background(), Event{
		Code:      CodeAddGroup,
		SubjectID: "prod",
		Payload:   map[string]interface{}{"title": "Production"},
	}))

	// unknown placeholders pass through untouched; unknown codes fall
	// back to the code itself
	assert.Equal(t, "ConfSync: Group created: Production ([missing])", hook.bodies[0]["text"])

	require.NoError(t, sink.Notify(context.Background(), Event{Code: CodeDeploy, SubjectID: "myapp"}))
	assert.Equal(t, "ConfSync: deploy", hook.bodies[1]["text"])
}

func TestWebhookSinkSwallowsFailures(t *testing.T) {
	hook := &hookRecorder{status: http.StatusInternalServerError}
	srv := httptest.NewServer(hook)
	defer srv.Close()

	sink := NewWebhookSink(map[string]string{
		UniversalHook: srv.URL,
		"push":        "http://127.0.0.1:1/unreachable",
	}, log.NewNopLogger())

	err := sink.Notify(context.Background(), Event{Code: CodePush, SubjectID: "myapp"})
	assert.NoError(t, err)
	assert.Equal(t, 1, hook.count())
}

func TestWebhookSinkNoHooks(t *testing.T) {
	sink := NewWebhookSink(nil, log.NewNopLogger())
	assert.NoError(t, sink.Notify(context.Background(), Event{Code: CodePush}))
}

func TestEventJSONKeys(t *testing.T) {
	data, err := json.Marshal(Event{Code: CodePush, SubjectID: "myapp"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"subject_id":"myapp"`)
	// the original wire key is the webhook sink's concern, not the
	// struct's
	assert.NotContains(t, string(data), `"msg"`)
}

func TestMultiSink(t *testing.T) {
	var calls []string
	a := Func(func(ctx context.Context, event Event) error {
		calls = append(calls, "a:"+string(event.Code))
		return nil
	})
	b := Func(func(ctx context.Context, event Event) error {
		calls = append(calls, "b:"+string(event.Code))
		return assert.AnError
	})

	err := Multi{a, b, a}.Notify(context.Background(), Event{Code: CodeDeploy})
	assert.ErrorIs(t, err, assert.AnError)
	// every sink runs even when one fails
	assert.Equal(t, []string{"a:deploy", "b:deploy", "a:deploy"}, calls)
}
