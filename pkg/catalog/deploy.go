package catalog

import (
	"context"
	"regexp"

	"github.com/confsync/confsync/pkg/log"
	"github.com/confsync/confsync/pkg/notify"
	"github.com/confsync/confsync/pkg/store"
	"github.com/confsync/confsync/pkg/types"
)

var numericRevPattern = regexp.MustCompile(`^\d+$`)

// NormalizeRev accepts a bare counter value ("12") as shorthand for
// its revision id ("r12").
func NormalizeRev(rev string) string {
	if numericRevPattern.MatchString(rev) {
		return "r" + rev
	}
	return rev
}

// DeployRequest points one or more groups at a revision.
type DeployRequest struct {
	// ID of the target config file.
	ID string

	// Rev to deploy; empty means the newest revision in the log. The
	// revision must exist in the file's log.
	Rev string

	// Groups to deploy to; nil means all current groups.
	Groups []string

	// Duration is the rollout window in seconds; zero means immediate
	// and permanent.
	Duration int64

	// Optional author for the notification payload.
	Username string
}

// Deploy writes a live-deployment pointer for each target group. The
// live map is only repointed, never cleared; a failed validation
// leaves it untouched.
func (m *Manager) Deploy(ctx context.Context, req *DeployRequest) error {
	if req == nil {
		return types.NewValidationError("deploy request must not be nil")
	}
	if req.ID == "" {
		return types.NewValidationError("file id must be a non-empty string")
	}

	id := types.NormalizeID(req.ID)
	rev := NormalizeRev(req.Rev)
	now := m.now()

	m.logger.Debug("Deploying file revision", log.Str("id", id), log.Str("rev", rev))

	var targets []string
	err := m.mutateCatalog(ctx, func(tx store.Tx, cat *types.Catalog) error {
		file := cat.FindFile(id)
		if file == nil {
			return types.NewNotFoundError("file", id)
		}

		targets = req.Groups
		if targets == nil {
			targets = cat.GroupIDs()
		}
		for _, groupID := range targets {
			if cat.FindGroup(groupID) == nil {
				return types.NewNotFoundError("group", groupID)
			}
		}

		if rev != "" {
			var found types.Revision
			if _, err := tx.ListFind(FileListKey(id), map[string]interface{}{"rev": rev}, &found); err != nil {
				if types.IsNotFoundError(err) {
					return types.NewNotFoundError("revision", rev)
				}
				return err
			}
		} else {
			var items []*types.Revision
			if _, err := tx.ListGet(FileListKey(id), 0, 1, &items); err != nil {
				if types.IsNotFoundError(err) {
					return types.NewNotFoundError("revision", "latest")
				}
				return err
			}
			if len(items) == 0 || items[0].Rev == "" {
				return types.NewNotFoundError("revision", "latest")
			}
			rev = items[0].Rev
		}

		if file.Live == nil {
			file.Live = map[string]types.LiveState{}
		}
		for _, groupID := range targets {
			file.Live[groupID] = types.LiveState{Rev: rev, Start: now, Duration: req.Duration}
		}
		file.Modified = now
		return nil
	})
	if err != nil {
		return err
	}

	username := req.Username
	if username == "" {
		username = "(Unknown)"
	}
	m.emit(ctx, notify.CodeDeploy, id, map[string]interface{}{
		"id":       id,
		"rev":      rev,
		"groups":   targets,
		"username": username,
	})
	return nil
}
