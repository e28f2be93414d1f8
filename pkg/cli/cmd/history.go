package cmd

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/confsync/confsync/internal/config"
	"github.com/confsync/confsync/pkg/catalog"
)

func newHistoryCmd() *cobra.Command {
	var (
		offset int
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history FILE_ID",
		Short: "Show a config file's revision history",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			err := runWithManager(func(ctx context.Context, m *catalog.Manager, cfg *config.Config) error {
				result, err := m.History(ctx, args[0], offset, limit)
				if err != nil {
					return err
				}

				if len(result.Revisions) == 0 {
					fmt.Printf("No revisions found for `%s`.\n", result.File.ID)
					return nil
				}

				rows := pterm.TableData{
					{"REVISION", "AUTHOR", "DATE/TIME", "MESSAGE"},
				}
				for _, rev := range result.Revisions {
					author := rev.Username
					if author == "" {
						author = "n/a"
					}
					message := rev.Message
					if message == "" {
						message = "(No message)"
					}
					rows = append(rows, []string{
						rev.Rev,
						author,
						rev.Modified.Format(displayTimeFormat),
						message,
					})
				}

				if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
					return err
				}
				fmt.Printf("\n%d revision(s) total for `%s`.\n", result.Total, result.File.ID)
				return nil
			})
			if err != nil {
				exitErr(err)
			}
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "skip this many revisions (newest first)")
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many revisions (0 = all)")
	return cmd
}
