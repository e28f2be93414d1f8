package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/confsync/confsync/internal/config"
	"github.com/confsync/confsync/pkg/catalog"
	"github.com/confsync/confsync/pkg/cli/format"
	"github.com/confsync/confsync/pkg/types"
)

func newPushCmd() *cobra.Command {
	var (
		localFile     string
		message       string
		overrideSpecs []string
		deployGroups  []string
		deployAll     bool
		duration      int64
	)

	cmd := &cobra.Command{
		Use:   "push FILE_ID [LOCAL_FILE]",
		Short: "Push a new revision of a config file",
		Long: `Push reads the file's new content from LOCAL_FILE (or --file),
records it as the next revision, and optionally deploys it in the same
step. JSON content is stored structured; anything else is stored as
raw text.`,
		Args: cobra.RangeArgs(1, 2),
		Run: func(cmd *cobra.Command, args []string) {
			err := runWithManager(func(ctx context.Context, m *catalog.Manager, cfg *config.Config) error {
				source := localFile
				if len(args) > 1 {
					source = args[1]
				}
				if source == "" {
					return fmt.Errorf("push requires a local file (positional or --file)")
				}

				base, err := loadPayload(source)
				if err != nil {
					return err
				}

				overrides, err := parseOverrideSpecs(overrideSpecs)
				if err != nil {
					return err
				}

				req := &catalog.PushRequest{
					ID:        args[0],
					Base:      base,
					Overrides: overrides,
					Username:  currentUsername(cfg),
					Message:   message,
					Deploy:    deployGroups,
					DeployAll: deployAll,
					Duration:  duration,
				}
				rev, err := m.Push(ctx, req)
				if err != nil {
					return err
				}

				format.Success(fmt.Sprintf("Revision pushed: `%s` %s", types.NormalizeID(args[0]), rev))
				if deployAll {
					fmt.Println("Deployed to all groups.")
				} else if len(deployGroups) > 0 {
					fmt.Printf("Deployed to: %s\n", strings.Join(deployGroups, ", "))
				}
				return nil
			})
			if err != nil {
				exitErr(err)
			}
		},
	}

	cmd.Flags().StringVar(&localFile, "file", "", "local file holding the new content")
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message for the revision")
	cmd.Flags().StringArrayVar(&overrideSpecs, "override", nil, "per-group override GROUP=LOCAL_FILE (repeatable)")
	cmd.Flags().StringSliceVar(&deployGroups, "deploy", nil, "deploy the new revision to these group ids")
	cmd.Flags().BoolVar(&deployAll, "deploy-all", false, "deploy the new revision to all current groups")
	cmd.Flags().Int64Var(&duration, "duration", 0, "gradual rollout window in seconds (0 = immediate)")
	return cmd
}

// parseOverrideSpecs reads GROUP=LOCAL_FILE pairs into override
// payloads.
func parseOverrideSpecs(specs []string) (map[string]types.Payload, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	overrides := make(map[string]types.Payload, len(specs))
	for _, spec := range specs {
		groupID, path, found := strings.Cut(spec, "=")
		if !found || groupID == "" || path == "" {
			return nil, fmt.Errorf("invalid override %q, expected GROUP=LOCAL_FILE", spec)
		}
		payload, err := loadPayload(path)
		if err != nil {
			return nil, err
		}
		overrides[types.NormalizeID(groupID)] = payload
	}
	return overrides, nil
}
