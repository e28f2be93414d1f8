package catalog

import (
	"context"
	"encoding/json"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/confsync/confsync/pkg/types"
)

// ChunkType tags a run of diff lines.
type ChunkType string

const (
	// ChunkUnchanged marks lines present in both renderings.
	ChunkUnchanged ChunkType = "unchanged"

	// ChunkAdded marks lines only present in the new rendering.
	ChunkAdded ChunkType = "added"

	// ChunkRemoved marks lines only present in the old rendering.
	ChunkRemoved ChunkType = "removed"
)

// DiffChunk is one contiguous run of equally-tagged lines.
type DiffChunk struct {
	Type ChunkType
	Text string
}

// DiffResult is a line-level diff between two renderings.
type DiffResult struct {
	Chunks  []DiffChunk
	Added   int
	Removed int
}

// NoChanges reports whether the renderings are identical. This is a
// distinct, successful outcome, not an error.
func (r *DiffResult) NoChanges() bool {
	return r.Added == 0 && r.Removed == 0
}

// DiffReport is the outcome of diffing two revisions of a file.
type DiffReport struct {
	File   *types.ConfigFile
	OldRev string
	NewRev string
	Result *DiffResult
}

// RenderRevision produces the textual rendering of a revision that
// diffs operate on. Raw files render as their literal text.
// Structured files render as canonical indented JSON: of the
// group-resolved base when groupIDs are given, of {base, overrides}
// when overrides exist, else of the base alone.
func RenderRevision(cat *types.Catalog, rev *types.Revision, groupIDs []string) (string, error) {
	return renderRevisionText(cat, rev, groupIDs, len(rev.Overrides) > 0)
}

// renderRevisionText renders one side of a diff. The caller decides
// whether to wrap structured content as {base, overrides}, so both
// sides of a pair always nest identically.
func renderRevisionText(cat *types.Catalog, rev *types.Revision, groupIDs []string, wrapOverrides bool) (string, error) {
	if len(groupIDs) > 0 {
		resolved, err := ResolveOverrides(cat, rev, groupIDs)
		if err != nil {
			return "", err
		}
		if resolved.IsRaw() {
			return resolved.Text(), nil
		}
		return marshalCanonical(resolved.Data())
	}

	if rev.Base.IsRaw() {
		return rev.Base.Text(), nil
	}
	if wrapOverrides {
		overrides := rev.Overrides
		if overrides == nil {
			overrides = map[string]types.Payload{}
		}
		return marshalCanonical(map[string]interface{}{
			"base":      rev.Base,
			"overrides": overrides,
		})
	}
	return marshalCanonical(rev.Base.Data())
}

func marshalCanonical(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return "", types.NewValidationError("failed to render payload: %v", err)
	}
	return string(data), nil
}

// DiffText computes a line-level diff between two textual renderings.
func DiffText(oldText, newText string) *DiffResult {
	dmp := diffmatchpatch.New()
	oldChars, newChars, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(oldChars, newChars, false), lines)

	result := &DiffResult{}
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			result.Chunks = append(result.Chunks, DiffChunk{Type: ChunkAdded, Text: d.Text})
			result.Added++
		case diffmatchpatch.DiffDelete:
			result.Chunks = append(result.Chunks, DiffChunk{Type: ChunkRemoved, Text: d.Text})
			result.Removed++
		default:
			result.Chunks = append(result.Chunks, DiffChunk{Type: ChunkUnchanged, Text: d.Text})
		}
	}
	return result
}

// Diff compares two revisions of a file. An empty newRev means the
// newest log entry; an empty oldRev means the entry immediately
// before newRev. When groupIDs are given both sides are group-resolved
// first and diffed as plain content.
func (m *Manager) Diff(ctx context.Context, id, oldRev, newRev string, groupIDs []string) (*DiffReport, error) {
	history, err := m.History(ctx, id, 0, 0)
	if err != nil {
		return nil, err
	}
	items := history.Revisions

	newRev = NormalizeRev(newRev)
	oldRev = NormalizeRev(oldRev)

	if newRev == "" || oldRev == "" {
		if len(items) < 2 {
			return nil, types.NewValidationError("revision history must have at least 2 entries to perform a diff")
		}
	}

	if newRev == "" {
		newRev = items[0].Rev
	}
	newIdx := findRevIndex(items, newRev)
	if newIdx < 0 {
		return nil, types.NewNotFoundError("revision", newRev)
	}

	if oldRev == "" {
		if newIdx+1 >= len(items) {
			return nil, types.NewNotFoundError("revision", "before "+newRev)
		}
		oldRev = items[newIdx+1].Rev
	}
	oldIdx := findRevIndex(items, oldRev)
	if oldIdx < 0 {
		return nil, types.NewNotFoundError("revision", oldRev)
	}

	// when either side carries overrides, both sides render with the
	// {base, overrides} wrapping so identical base lines stay aligned
	wrap := len(groupIDs) == 0 &&
		(len(items[oldIdx].Overrides) > 0 || len(items[newIdx].Overrides) > 0)

	oldText, err := renderRevisionText(history.Catalog, items[oldIdx], groupIDs, wrap)
	if err != nil {
		return nil, err
	}
	newText, err := renderRevisionText(history.Catalog, items[newIdx], groupIDs, wrap)
	if err != nil {
		return nil, err
	}

	return &DiffReport{
		File:   history.File,
		OldRev: oldRev,
		NewRev: newRev,
		Result: DiffText(oldText, newText),
	}, nil
}

func findRevIndex(items []*types.Revision, rev string) int {
	for i, item := range items {
		if item.Rev == rev {
			return i
		}
	}
	return -1
}
