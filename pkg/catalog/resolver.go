package catalog

import (
	"sort"
	"strings"

	"github.com/confsync/confsync/pkg/types"
)

// ResolveOverrides merges a revision's base payload with the override
// payloads of the given groups. Groups are applied in priority order,
// highest priority number first, so that lower-numbered groups are
// applied last and win conflicts. Ties break on group id, which makes
// the result independent of the input ordering.
//
// For raw files an override replaces the whole base; for structured
// files each override key is deep-set at its dotted path, preserving
// unmentioned nested fields.
func ResolveOverrides(cat *types.Catalog, rev *types.Revision, groupIDs []string) (types.Payload, error) {
	groups := make([]*types.Group, 0, len(groupIDs))
	for _, id := range groupIDs {
		group := cat.FindGroup(id)
		if group == nil {
			return types.Payload{}, types.NewNotFoundError("group", id)
		}
		groups = append(groups, group)
	}

	sort.Slice(groups, func(i, j int) bool {
		pi, pj := groups[i].EffectivePriority(), groups[j].EffectivePriority()
		if pi != pj {
			return pi > pj
		}
		return groups[i].ID < groups[j].ID
	})

	result := rev.Base.Clone()
	for _, group := range groups {
		override, ok := rev.Overrides[group.ID]
		if !ok {
			continue
		}
		if result.IsRaw() || override.IsRaw() {
			result = override
			continue
		}
		data := result.Data()
		if data == nil {
			data = map[string]any{}
		}
		for key, value := range override.Data() {
			setPath(data, key, value)
		}
		result = types.DataPayload(data)
	}
	return result, nil
}

// setPath writes value at a dotted (or slash-separated) path inside
// data, creating intermediate objects as needed. An intermediate
// value that is not an object is replaced.
func setPath(data map[string]any, path string, value any) {
	parts := splitPath(path)
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

func splitPath(path string) []string {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '.' || r == '/'
	})
	if len(parts) == 0 {
		return []string{path}
	}
	return parts
}
