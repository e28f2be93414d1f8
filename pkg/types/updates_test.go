package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldApply(t *testing.T) {
	s := "original"

	Field[string]{}.Apply(&s)
	assert.Equal(t, "original", s)

	Set("changed").Apply(&s)
	assert.Equal(t, "changed", s)

	Unset[string]().Apply(&s)
	assert.Empty(t, s)

	assert.True(t, Field[int]{}.IsZero())
	assert.False(t, Set(1).IsZero())
	assert.False(t, Unset[int]().IsZero())
}

func TestGroupUpdateApplyTo(t *testing.T) {
	group := &Group{
		ID:       "prod",
		Title:    "Production",
		Env:      map[string]string{"HOSTNAME": ".+"},
		Priority: 1,
	}

	update := &GroupUpdate{
		ID:       "prod",
		Title:    Set("Prod Fleet"),
		Priority: Unset[int](),
		Username: "jdoe",
	}
	assert.False(t, update.Empty())
	update.ApplyTo(group)

	assert.Equal(t, "Prod Fleet", group.Title)
	assert.Zero(t, group.Priority)
	assert.Equal(t, "jdoe", group.Username)
	// untouched fields stay put
	assert.Equal(t, map[string]string{"HOSTNAME": ".+"}, group.Env)

	assert.True(t, (&GroupUpdate{ID: "prod", Username: "jdoe"}).Empty())
}

func TestConfigFileUpdateApplyTo(t *testing.T) {
	file := &ConfigFile{
		ID:   "myapp",
		Path: "/etc/myapp.json",
		Mode: "644",
	}

	update := &ConfigFileUpdate{
		ID:     "myapp",
		Path:   Set("/opt/myapp.json"),
		Mode:   Unset[string](),
		Signal: Set("SIGHUP"),
	}
	assert.False(t, update.Empty())
	update.ApplyTo(file)

	assert.Equal(t, "/opt/myapp.json", file.Path)
	assert.Empty(t, file.Mode)
	assert.Equal(t, "SIGHUP", file.Signal)

	assert.True(t, (&ConfigFileUpdate{ID: "myapp"}).Empty())
}
