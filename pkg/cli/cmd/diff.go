package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/confsync/confsync/internal/config"
	"github.com/confsync/confsync/pkg/catalog"
	"github.com/confsync/confsync/pkg/cli/format"
)

func newDiffCmd() *cobra.Command {
	var groups []string

	cmd := &cobra.Command{
		Use:   "diff FILE_ID [NEW_REVISION [OLD_REVISION]]",
		Short: "Diff two revisions of a config file",
		Long: `Diff compares two revisions line by line. Without arguments the
newest revision is compared against the one before it. With --groups
both sides are resolved through the groups' overrides first.`,
		Args: cobra.RangeArgs(1, 3),
		Run: func(cmd *cobra.Command, args []string) {
			err := runWithManager(func(ctx context.Context, m *catalog.Manager, cfg *config.Config) error {
				newRev, oldRev := "", ""
				if len(args) > 1 {
					newRev = args[1]
				}
				if len(args) > 2 {
					oldRev = args[2]
				}

				report, err := m.Diff(ctx, args[0], oldRev, newRev, groups)
				if err != nil {
					return err
				}

				format.LabelColor.Print("Config ID: ")
				format.ValueColor.Println(report.File.ID)
				format.LabelColor.Print("Revisions: ")
				format.RevColor.Print(report.OldRev)
				fmt.Print(" --> ")
				format.RevColor.Println(report.NewRev)
				fmt.Println()

				if report.Result.NoChanges() {
					format.ContextColor.Println("No changes found.  Files are identical.")
					return nil
				}
				printDiffChunks(report.Result.Chunks)
				return nil
			})
			if err != nil {
				exitErr(err)
			}
		},
	}

	cmd.Flags().StringSliceVar(&groups, "groups", nil, "resolve both revisions through these groups' overrides")
	return cmd
}

// printDiffChunks renders a diff with +/- prefixes, eliding long
// unchanged runs unless --verbose is set.
func printDiffChunks(chunks []catalog.DiffChunk) {
	for _, chunk := range chunks {
		lines := strings.Split(strings.TrimRight(chunk.Text, "\n"), "\n")
		switch chunk.Type {
		case catalog.ChunkAdded:
			format.AddedColor.Println("+" + strings.Join(lines, "\n+"))
		case catalog.ChunkRemoved:
			format.RemovedColor.Println("-" + strings.Join(lines, "\n-"))
		default:
			if len(lines) > 2 && !verbose {
				lines = []string{lines[0], "...", lines[len(lines)-1]}
			}
			format.ContextColor.Println(" " + strings.Join(lines, "\n "))
		}
	}
}
