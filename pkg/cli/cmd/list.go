package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/confsync/confsync/internal/config"
	"github.com/confsync/confsync/pkg/catalog"
	"github.com/confsync/confsync/pkg/types"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all groups and config files",
		Run: func(cmd *cobra.Command, args []string) {
			err := runWithManager(func(ctx context.Context, m *catalog.Manager, cfg *config.Config) error {
				cat, err := m.GetData(ctx)
				if err != nil {
					return err
				}
				printGroupList(cat.Groups)
				fmt.Println()
				printFileList(cat.Files)
				return nil
			})
			if err != nil {
				exitErr(err)
			}
		},
	}
	return cmd
}

func printGroupList(groups []*types.Group) {
	pterm.DefaultSection.Println("Target Groups")
	if len(groups) == 0 {
		fmt.Println("No groups defined.")
		return
	}

	sorted := append([]*types.Group(nil), groups...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	rows := pterm.TableData{{"GROUP ID", "TITLE", "PRIORITY", "MODIFIED"}}
	for _, group := range sorted {
		rows = append(rows, []string{
			group.ID,
			group.Title,
			fmt.Sprintf("%d", group.EffectivePriority()),
			group.Modified.Format(displayTimeFormat),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func printFileList(files []*types.ConfigFile) {
	pterm.DefaultSection.Println("Config Files")
	if len(files) == 0 {
		fmt.Println("No config files defined.")
		return
	}

	sorted := append([]*types.ConfigFile(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	rows := pterm.TableData{{"CONFIG ID", "TITLE", "PATH", "REVISIONS", "LIVE"}}
	for _, file := range sorted {
		rows = append(rows, []string{
			file.ID,
			file.Title,
			file.Path,
			fmt.Sprintf("%d", file.Counter),
			fmt.Sprintf("%d group(s)", len(file.Live)),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
