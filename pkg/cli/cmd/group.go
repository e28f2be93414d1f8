package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/confsync/confsync/internal/config"
	"github.com/confsync/confsync/pkg/catalog"
	"github.com/confsync/confsync/pkg/cli/format"
	"github.com/confsync/confsync/pkg/types"
)

func newGroupCmd() *cobra.Command {
	groupCmd := &cobra.Command{
		Use:   "group",
		Short: "Manage target groups",
	}
	groupCmd.AddCommand(newGroupAddCmd())
	groupCmd.AddCommand(newGroupUpdateCmd())
	groupCmd.AddCommand(newGroupDeleteCmd())
	groupCmd.AddCommand(newGroupGetCmd())
	return groupCmd
}

func newGroupAddCmd() *cobra.Command {
	var (
		title    string
		envPairs []string
		priority int
	)

	cmd := &cobra.Command{
		Use:   "add GROUP_ID",
		Short: "Add a new target group",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			err := runWithManager(func(ctx context.Context, m *catalog.Manager, cfg *config.Config) error {
				env, err := parseEnvCriteria(envPairs)
				if err != nil {
					return err
				}
				group := &types.Group{
					ID:       args[0],
					Title:    title,
					Env:      env,
					Priority: priority,
					Username: currentUsername(cfg),
				}
				if err := m.AddGroup(ctx, group); err != nil {
					return err
				}
				format.Success(fmt.Sprintf("Group added: `%s`", group.ID))
				return nil
			})
			if err != nil {
				exitErr(err)
			}
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "human-readable group title (defaults to the id)")
	cmd.Flags().StringArrayVar(&envPairs, "env", nil, "env var match criterion KEY=REGEX (repeatable, at least one required)")
	cmd.Flags().IntVar(&priority, "priority", 0, "override precedence; lower numbers win (default 5)")
	return cmd
}

func newGroupUpdateCmd() *cobra.Command {
	var (
		title    string
		envPairs []string
		priority int
		unset    []string
	)

	cmd := &cobra.Command{
		Use:   "update GROUP_ID",
		Short: "Update an existing target group",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			err := runWithManager(func(ctx context.Context, m *catalog.Manager, cfg *config.Config) error {
				update := &types.GroupUpdate{ID: args[0], Username: currentUsername(cfg)}

				if cmd.Flags().Changed("title") {
					update.Title = types.Set(title)
				}
				if cmd.Flags().Changed("priority") {
					update.Priority = types.Set(priority)
				}
				if cmd.Flags().Changed("env") {
					env, err := parseEnvCriteria(envPairs)
					if err != nil {
						return err
					}
					update.Env = types.Set(env)
				}
				for _, field := range unset {
					switch field {
					case "title":
						update.Title = types.Unset[string]()
					case "priority":
						update.Priority = types.Unset[int]()
					default:
						return fmt.Errorf("cannot unset field %q", field)
					}
				}

				if err := m.UpdateGroup(ctx, update); err != nil {
					return err
				}
				format.Success(fmt.Sprintf("Group updated: `%s`", types.NormalizeID(args[0])))
				return nil
			})
			if err != nil {
				exitErr(err)
			}
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "human-readable group title")
	cmd.Flags().StringArrayVar(&envPairs, "env", nil, "replace env var match criteria KEY=REGEX (repeatable)")
	cmd.Flags().IntVar(&priority, "priority", 0, "override precedence; lower numbers win")
	cmd.Flags().StringArrayVar(&unset, "unset", nil, "clear a field (title, priority)")
	return cmd
}

func newGroupDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete GROUP_ID",
		Short: "Delete a target group",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			err := runWithManager(func(ctx context.Context, m *catalog.Manager, cfg *config.Config) error {
				if err := m.DeleteGroup(ctx, args[0]); err != nil {
					return err
				}
				format.Success(fmt.Sprintf("Group deleted: `%s`", types.NormalizeID(args[0])))
				return nil
			})
			if err != nil {
				exitErr(err)
			}
		},
	}
	return cmd
}

func newGroupGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get GROUP_ID",
		Short: "Show one target group",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			err := runWithManager(func(ctx context.Context, m *catalog.Manager, cfg *config.Config) error {
				cat, err := m.GetData(ctx)
				if err != nil {
					return err
				}
				group := cat.FindGroup(types.NormalizeID(args[0]))
				if group == nil {
					return types.NewNotFoundError("group", args[0])
				}
				printGroup(group)
				return nil
			})
			if err != nil {
				exitErr(err)
			}
		},
	}
	return cmd
}

func printGroup(group *types.Group) {
	format.LabelColor.Print("Group ID: ")
	format.ValueColor.Println(group.ID)
	format.LabelColor.Print("Title:    ")
	format.ValueColor.Println(group.Title)
	if group.Priority != 0 {
		format.LabelColor.Print("Priority: ")
		format.ValueColor.Println(group.Priority)
	}
	format.LabelColor.Print("Author:   ")
	format.ValueColor.Println(group.Username)
	format.LabelColor.Print("Modified: ")
	format.ValueColor.Println(group.Modified.Format(displayTimeFormat))

	fmt.Println()
	format.LabelColor.Println("Env Match Criteria:")
	keys := make([]string, 0, len(group.Env))
	for key := range group.Env {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("  %s =~ /%s/\n", key, group.Env[key])
	}
}
