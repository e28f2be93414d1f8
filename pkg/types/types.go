// Package types defines the core data model for the ConfSync catalog:
// target groups, managed config files, pushed revisions, and live
// deployment state.
package types

import (
	"regexp"
	"strings"
	"time"
)

// DefaultGroupPriority is assumed when a group does not carry an
// explicit priority. Lower numbers are applied last during override
// resolution and therefore win conflicts.
const DefaultGroupPriority = 5

var idStripPattern = regexp.MustCompile(`[^\w\-]+`)

// NormalizeID strips all characters outside [A-Za-z0-9_-] and
// lower-cases the result. Normalization is idempotent.
func NormalizeID(id string) string {
	return strings.ToLower(idStripPattern.ReplaceAllString(id, ""))
}

// Group represents a named class of deployment targets, selected by
// environment variable regex matching.
type Group struct {
	// Unique identifier for the group (normalized)
	ID string `json:"id" yaml:"id"`

	// Human-readable title
	Title string `json:"title" yaml:"title"`

	// Environment variable match criteria; a host belongs to the group
	// if every listed variable matches its regex
	Env map[string]string `json:"env" yaml:"env"`

	// Override precedence; zero means unset (DefaultGroupPriority)
	Priority int `json:"priority,omitempty" yaml:"priority,omitempty"`

	// User who created or last modified the group
	Username string `json:"username,omitempty" yaml:"username,omitempty"`

	// Creation timestamp
	Created time.Time `json:"created" yaml:"created"`

	// Last modification timestamp
	Modified time.Time `json:"modified" yaml:"modified"`
}

// EffectivePriority returns the group's priority, or
// DefaultGroupPriority when unset.
func (g *Group) EffectivePriority() int {
	if g.Priority == 0 {
		return DefaultGroupPriority
	}
	return g.Priority
}

// LiveState records which revision is active for one (file, group)
// pair, with an optional gradual rollout window.
type LiveState struct {
	// Active revision id ("rN")
	Rev string `json:"rev" yaml:"rev"`

	// Rollout start time
	Start time.Time `json:"start" yaml:"start"`

	// Rollout window in seconds; zero means immediate and permanent
	Duration int64 `json:"duration" yaml:"duration"`
}

// DeployPhase classifies the point-in-time deployment state of a
// (file, group) pair. It is derived at read time, never stored.
type DeployPhase string

const (
	// DeployPhaseUndeployed means no revision was ever deployed.
	DeployPhaseUndeployed DeployPhase = "undeployed"

	// DeployPhaseDeploying means a bounded rollout window is still open.
	DeployPhaseDeploying DeployPhase = "deploying"

	// DeployPhaseStable means the active revision is fully rolled out.
	DeployPhaseStable DeployPhase = "stable"
)

// Phase classifies the live state relative to now.
func (l *LiveState) Phase(now time.Time) DeployPhase {
	if l == nil || l.Rev == "" {
		return DeployPhaseUndeployed
	}
	if l.Duration > 0 && now.Before(l.Start.Add(time.Duration(l.Duration)*time.Second)) {
		return DeployPhaseDeploying
	}
	return DeployPhaseStable
}

// ConfigFile represents one managed configuration file definition.
type ConfigFile struct {
	// Unique identifier for the file (normalized)
	ID string `json:"id" yaml:"id"`

	// Human-readable title
	Title string `json:"title" yaml:"title"`

	// Destination path on target hosts
	Path string `json:"path" yaml:"path"`

	// File mode as an octal string, e.g. "644"
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`

	// Ownership on target hosts
	UID string `json:"uid,omitempty" yaml:"uid,omitempty"`
	GID string `json:"gid,omitempty" yaml:"gid,omitempty"`

	// Optional process notification after install
	PID    string `json:"pid,omitempty" yaml:"pid,omitempty"`
	Signal string `json:"signal,omitempty" yaml:"signal,omitempty"`
	Exec   string `json:"exec,omitempty" yaml:"exec,omitempty"`

	// Optional per-file webhook URL, fired on install
	WebHook string `json:"web_hook,omitempty" yaml:"web_hook,omitempty"`

	// Additional env var match criteria applied on top of group matching
	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty"`

	// Live deployment state per group id
	Live map[string]LiveState `json:"live" yaml:"live"`

	// Creation timestamp
	Created time.Time `json:"created" yaml:"created"`

	// Last modification timestamp
	Modified time.Time `json:"modified" yaml:"modified"`

	// Per-file revision sequence; zero before any push
	Counter int `json:"counter" yaml:"counter"`
}

// Revision is one immutable pushed version of a config file's content.
type Revision struct {
	// Revision id, "r" + the file counter at push time
	Rev string `json:"rev" yaml:"rev"`

	// Base payload: structured data, or raw text for non-JSON files
	Base Payload `json:"base" yaml:"base"`

	// Per-group override payloads
	Overrides map[string]Payload `json:"overrides,omitempty" yaml:"overrides,omitempty"`

	// Optional commit message
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// User who pushed the revision
	Username string `json:"username,omitempty" yaml:"username,omitempty"`

	// Push timestamp
	Modified time.Time `json:"modified" yaml:"modified"`
}

// Catalog is the single master record holding all groups and file
// definitions.
type Catalog struct {
	Groups []*Group      `json:"groups" yaml:"groups"`
	Files  []*ConfigFile `json:"files" yaml:"files"`
}

// EmptyCatalog returns a catalog with no groups or files. A missing
// master record is treated as this value, not as an error.
func EmptyCatalog() *Catalog {
	return &Catalog{Groups: []*Group{}, Files: []*ConfigFile{}}
}

// FindGroup returns the group with the given id, or nil.
func (c *Catalog) FindGroup(id string) *Group {
	for _, g := range c.Groups {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// FindFile returns the config file with the given id, or nil.
func (c *Catalog) FindFile(id string) *ConfigFile {
	for _, f := range c.Files {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// GroupIDs returns the ids of all groups, in catalog order.
func (c *Catalog) GroupIDs() []string {
	ids := make([]string, 0, len(c.Groups))
	for _, g := range c.Groups {
		ids = append(ids, g.ID)
	}
	return ids
}

// RemoveGroup deletes the group with the given id, reporting whether
// it was present.
func (c *Catalog) RemoveGroup(id string) bool {
	for i, g := range c.Groups {
		if g.ID == id {
			c.Groups = append(c.Groups[:i], c.Groups[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveFile deletes the config file with the given id, reporting
// whether it was present.
func (c *Catalog) RemoveFile(id string) bool {
	for i, f := range c.Files {
		if f.ID == id {
			c.Files = append(c.Files[:i], c.Files[i+1:]...)
			return true
		}
	}
	return false
}
