package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/confsync/confsync/internal/config"
	"github.com/confsync/confsync/pkg/catalog"
	"github.com/confsync/confsync/pkg/cli/format"
	"github.com/confsync/confsync/pkg/types"
)

func newGetCmd() *cobra.Command {
	var (
		groups   []string
		saveFile string
	)

	cmd := &cobra.Command{
		Use:   "get FILE_ID [REVISION]",
		Short: "Fetch one revision of a config file",
		Long: `Get shows a single revision of a config file, newest first by
default. With --groups the revision is resolved through the groups'
overrides and the transformed content is shown instead.`,
		Args: cobra.RangeArgs(1, 2),
		Run: func(cmd *cobra.Command, args []string) {
			err := runWithManager(func(ctx context.Context, m *catalog.Manager, cfg *config.Config) error {
				rev := ""
				if len(args) > 1 {
					rev = args[1]
				}
				result, err := m.GetRevision(ctx, args[0], rev)
				if err != nil {
					return err
				}

				printRevisionHeader(result)

				content, err := catalog.RenderRevision(result.Catalog, result.Revision, groups)
				if err != nil {
					return err
				}

				if len(groups) > 0 {
					format.LabelColor.Printf("\nTransformed content (%s):\n", strings.Join(groups, ", "))
				} else {
					format.LabelColor.Println("\nContent:")
				}
				fmt.Println(content)

				if saveFile != "" {
					if err := os.WriteFile(saveFile, []byte(content+"\n"), 0644); err != nil {
						return fmt.Errorf("failed to save local file %s: %w", saveFile, err)
					}
					format.Success(fmt.Sprintf("Saved local file: `%s`", saveFile))
				}
				return nil
			})
			if err != nil {
				exitErr(err)
			}
		},
	}

	cmd.Flags().StringSliceVar(&groups, "groups", nil, "resolve the revision through these groups' overrides")
	cmd.Flags().StringVar(&saveFile, "save", "", "write the content to this local file")
	return cmd
}

func printRevisionHeader(result *catalog.RevisionResult) {
	format.LabelColor.Print("Config ID: ")
	format.ValueColor.Println(result.File.ID)
	format.LabelColor.Print("Title:     ")
	format.ValueColor.Println(result.File.Title)
	format.LabelColor.Print("Path:      ")
	format.ValueColor.Println(result.File.Path)
	format.LabelColor.Print("Revision:  ")
	format.RevColor.Println(result.Revision.Rev)
	format.LabelColor.Print("Author:    ")
	format.ValueColor.Println(revisionAuthor(result.Revision))
	format.LabelColor.Print("Date/Time: ")
	format.ValueColor.Println(result.Revision.Modified.Format(displayTimeFormat))
	format.LabelColor.Print("Live:      ")
	format.ValueColor.Println(liveGroupSummary(result.File, result.Revision.Rev))
}

func revisionAuthor(rev *types.Revision) string {
	if rev.Username == "" {
		return "n/a"
	}
	return rev.Username
}

// liveGroupSummary names the groups this revision is currently live
// on, or "(No)" when it is not live anywhere.
func liveGroupSummary(file *types.ConfigFile, rev string) string {
	var liveOn []string
	for groupID, live := range file.Live {
		if live.Rev == rev {
			liveOn = append(liveOn, groupID)
		}
	}
	if len(liveOn) == 0 {
		return "(No)"
	}
	sort.Strings(liveOn)
	return strings.Join(liveOn, ", ")
}
