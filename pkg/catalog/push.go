package catalog

import (
	"context"
	"fmt"

	"github.com/confsync/confsync/pkg/log"
	"github.com/confsync/confsync/pkg/notify"
	"github.com/confsync/confsync/pkg/store"
	"github.com/confsync/confsync/pkg/types"
)

// PushRequest describes a new revision to record for a file.
type PushRequest struct {
	// ID of the target config file.
	ID string

	// Base payload; required.
	Base types.Payload

	// Per-group override payloads.
	Overrides map[string]types.Payload

	// Optional author and commit message.
	Username string
	Message  string

	// Deploy lists group ids to make the new revision live on.
	// DeployAll deploys to every current group instead. Group ids are
	// validated before any log write; an unknown id aborts the whole
	// push.
	Deploy    []string
	DeployAll bool

	// Duration is the rollout window in seconds for the deployment;
	// zero means immediate and permanent.
	Duration int64
}

// Push appends a new revision to a file's log, incrementing the file
// counter and optionally deploying the revision in the same
// transaction. It returns the new revision id.
func (m *Manager) Push(ctx context.Context, req *PushRequest) (string, error) {
	if req == nil {
		return "", types.NewValidationError("push request must not be nil")
	}
	if req.ID == "" {
		return "", types.NewValidationError("file id must be a non-empty string")
	}
	if req.Base.IsZero() {
		return "", types.NewValidationError("push must have a base payload (object or string)")
	}

	id := types.NormalizeID(req.ID)
	now := m.now()

	m.logger.Debug("Pushing new file revision", log.Str("id", id))

	var revision *types.Revision
	var deployedGroups []string
	err := m.mutateCatalog(ctx, func(tx store.Tx, cat *types.Catalog) error {
		file := cat.FindFile(id)
		if file == nil {
			return types.NewNotFoundError("file", id)
		}

		file.Counter++
		file.Modified = now
		rev := fmt.Sprintf("r%d", file.Counter)

		if req.DeployAll || len(req.Deploy) > 0 {
			targets := req.Deploy
			if req.DeployAll {
				targets = cat.GroupIDs()
			}
			for _, groupID := range targets {
				if cat.FindGroup(groupID) == nil {
					return types.NewNotFoundError("group", groupID)
				}
			}
			if file.Live == nil {
				file.Live = map[string]types.LiveState{}
			}
			for _, groupID := range targets {
				file.Live[groupID] = types.LiveState{Rev: rev, Start: now, Duration: req.Duration}
			}
			deployedGroups = targets
		}

		revision = &types.Revision{
			Rev:       rev,
			Base:      req.Base,
			Overrides: req.Overrides,
			Message:   req.Message,
			Username:  req.Username,
			Modified:  now,
		}
		return tx.ListUnshift(FileListKey(id), revision)
	})
	if err != nil {
		return "", err
	}

	pushPayload := entityPayload(revision)
	pushPayload["id"] = id
	if pushPayload["username"] == nil || pushPayload["username"] == "" {
		pushPayload["username"] = "(Unknown)"
	}
	if pushPayload["message"] == nil || pushPayload["message"] == "" {
		pushPayload["message"] = "(No message)"
	}
	if deployedGroups != nil {
		pushPayload["groups"] = deployedGroups
	}
	m.emit(ctx, notify.CodePush, id, pushPayload)

	if deployedGroups != nil {
		m.emit(ctx, notify.CodeDeploy, id, map[string]interface{}{
			"id":       id,
			"rev":      revision.Rev,
			"groups":   deployedGroups,
			"username": pushPayload["username"],
		})
	}

	return revision.Rev, nil
}
