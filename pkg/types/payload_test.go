package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadJSON(t *testing.T) {
	// raw payloads serialize as a string
	data, err := json.Marshal(RawPayload("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, `"hello\n"`, string(data))

	// structured payloads serialize as an object
	data, err = json.Marshal(DataPayload(map[string]any{"port": 80}))
	require.NoError(t, err)
	assert.Equal(t, `{"port":80}`, string(data))

	// the zero payload serializes as null
	data, err = json.Marshal(Payload{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	var p Payload
	require.NoError(t, json.Unmarshal([]byte(`"raw text"`), &p))
	assert.True(t, p.IsRaw())
	assert.Equal(t, "raw text", p.Text())

	require.NoError(t, json.Unmarshal([]byte(`{"a":1}`), &p))
	assert.False(t, p.IsRaw())
	assert.Equal(t, float64(1), p.Data()["a"])

	require.NoError(t, json.Unmarshal([]byte("null"), &p))
	assert.True(t, p.IsZero())

	assert.Error(t, json.Unmarshal([]byte("[1,2]"), &p))
	assert.Error(t, json.Unmarshal([]byte("42"), &p))
}

func TestPayloadClone(t *testing.T) {
	original := DataPayload(map[string]any{
		"server": map[string]any{"port": float64(80)},
		"tags":   []any{"a", "b"},
	})

	clone := original.Clone()
	clone.Data()["server"].(map[string]any)["port"] = float64(443)
	clone.Data()["tags"].([]any)[0] = "z"

	assert.Equal(t, float64(80), original.Data()["server"].(map[string]any)["port"])
	assert.Equal(t, "a", original.Data()["tags"].([]any)[0])
}

func TestPayloadZero(t *testing.T) {
	assert.True(t, Payload{}.IsZero())
	assert.False(t, RawPayload("").IsZero())
	assert.False(t, DataPayload(map[string]any{}).IsZero())
}
