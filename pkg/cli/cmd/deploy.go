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

func newDeployCmd() *cobra.Command {
	var (
		groups   []string
		duration int64
	)

	cmd := &cobra.Command{
		Use:   "deploy FILE_ID [REVISION]",
		Short: "Make a revision live for one or more groups",
		Long: `Deploy points groups at a specific revision of a config file,
making it live. Without REVISION the newest revision is deployed;
without --groups all current groups are targeted.`,
		Args: cobra.RangeArgs(1, 2),
		Run: func(cmd *cobra.Command, args []string) {
			err := runWithManager(func(ctx context.Context, m *catalog.Manager, cfg *config.Config) error {
				req := &catalog.DeployRequest{
					ID:       args[0],
					Duration: duration,
					Username: currentUsername(cfg),
				}
				if len(args) > 1 {
					req.Rev = args[1]
				}
				if cmd.Flags().Changed("groups") {
					req.Groups = groups
				}

				if err := m.Deploy(ctx, req); err != nil {
					return err
				}

				target := "all groups"
				if req.Groups != nil {
					target = strings.Join(req.Groups, ", ")
				}
				format.Success(fmt.Sprintf("Deployed `%s` to %s", types.NormalizeID(args[0]), target))
				return nil
			})
			if err != nil {
				exitErr(err)
			}
		},
	}

	cmd.Flags().StringSliceVar(&groups, "groups", nil, "target group ids (default all groups)")
	cmd.Flags().Int64Var(&duration, "duration", 0, "gradual rollout window in seconds (0 = immediate)")
	return cmd
}
