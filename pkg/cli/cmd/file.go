package cmd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/confsync/confsync/internal/config"
	"github.com/confsync/confsync/pkg/catalog"
	"github.com/confsync/confsync/pkg/cli/format"
	"github.com/confsync/confsync/pkg/types"
)

func newFileCmd() *cobra.Command {
	fileCmd := &cobra.Command{
		Use:   "file",
		Short: "Manage config file definitions",
	}
	fileCmd.AddCommand(newFileAddCmd())
	fileCmd.AddCommand(newFileUpdateCmd())
	fileCmd.AddCommand(newFileDeleteCmd())
	fileCmd.AddCommand(newFileGetCmd())
	return fileCmd
}

// fileFlags holds the shared flag set for file add and update.
type fileFlags struct {
	title   string
	path    string
	mode    string
	uid     string
	gid     string
	pid     string
	signal  string
	exec    string
	webHook string
}

func (f *fileFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "human-readable file title (defaults to the id)")
	cmd.Flags().StringVar(&f.path, "path", "", "destination path on target hosts")
	cmd.Flags().StringVar(&f.mode, "mode", "", "file mode as an octal string, e.g. 644")
	cmd.Flags().StringVar(&f.uid, "uid", "", "file owner on target hosts")
	cmd.Flags().StringVar(&f.gid, "gid", "", "file group on target hosts")
	cmd.Flags().StringVar(&f.pid, "pid", "", "pid file of a process to signal after install")
	cmd.Flags().StringVar(&f.signal, "signal", "", "signal to send after install, e.g. SIGUSR2")
	cmd.Flags().StringVar(&f.exec, "exec", "", "shell command to run after install")
	cmd.Flags().StringVar(&f.webHook, "web-hook", "", "URL to request after install")
}

func newFileAddCmd() *cobra.Command {
	flags := &fileFlags{}

	cmd := &cobra.Command{
		Use:   "add FILE_ID",
		Short: "Add a new managed config file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			err := runWithManager(func(ctx context.Context, m *catalog.Manager, cfg *config.Config) error {
				file := &types.ConfigFile{
					ID:      args[0],
					Title:   flags.title,
					Path:    flags.path,
					Mode:    flags.mode,
					UID:     flags.uid,
					GID:     flags.gid,
					PID:     flags.pid,
					Signal:  flags.signal,
					Exec:    flags.exec,
					WebHook: flags.webHook,
				}
				if err := m.AddConfigFile(ctx, file); err != nil {
					return err
				}
				format.Success(fmt.Sprintf("Config file added: `%s` (%s)", file.ID, file.Path))
				return nil
			})
			if err != nil {
				exitErr(err)
			}
		},
	}

	flags.register(cmd)
	return cmd
}

func newFileUpdateCmd() *cobra.Command {
	flags := &fileFlags{}
	var unset []string

	cmd := &cobra.Command{
		Use:   "update FILE_ID",
		Short: "Update an existing config file definition",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			err := runWithManager(func(ctx context.Context, m *catalog.Manager, cfg *config.Config) error {
				update := &types.ConfigFileUpdate{ID: args[0], Username: currentUsername(cfg)}

				stringFields := map[string]*types.Field[string]{
					"title":    &update.Title,
					"path":     &update.Path,
					"mode":     &update.Mode,
					"uid":      &update.UID,
					"gid":      &update.GID,
					"pid":      &update.PID,
					"signal":   &update.Signal,
					"exec":     &update.Exec,
					"web-hook": &update.WebHook,
				}
				values := map[string]string{
					"title":    flags.title,
					"path":     flags.path,
					"mode":     flags.mode,
					"uid":      flags.uid,
					"gid":      flags.gid,
					"pid":      flags.pid,
					"signal":   flags.signal,
					"exec":     flags.exec,
					"web-hook": flags.webHook,
				}
				for name, field := range stringFields {
					if cmd.Flags().Changed(name) {
						*field = types.Set(values[name])
					}
				}
				for _, name := range unset {
					field, ok := stringFields[name]
					if !ok {
						return fmt.Errorf("cannot unset field %q", name)
					}
					*field = types.Unset[string]()
				}

				if err := m.UpdateConfigFile(ctx, update); err != nil {
					return err
				}
				format.Success(fmt.Sprintf("Config file updated: `%s`", types.NormalizeID(args[0])))
				return nil
			})
			if err != nil {
				exitErr(err)
			}
		},
	}

	flags.register(cmd)
	cmd.Flags().StringArrayVar(&unset, "unset", nil, "clear a field (mode, uid, gid, pid, signal, exec, web-hook, ...)")
	return cmd
}

func newFileDeleteCmd() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "delete FILE_ID",
		Short: "Delete a config file definition",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			err := runWithManager(func(ctx context.Context, m *catalog.Manager, cfg *config.Config) error {
				if err := m.DeleteConfigFile(ctx, args[0], full); err != nil {
					return err
				}
				format.Success(fmt.Sprintf("Config file deleted: `%s`", types.NormalizeID(args[0])))
				return nil
			})
			if err != nil {
				exitErr(err)
			}
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "also purge the file's entire revision history")
	return cmd
}

func newFileGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get FILE_ID",
		Short: "Show one config file definition",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			err := runWithManager(func(ctx context.Context, m *catalog.Manager, cfg *config.Config) error {
				cat, err := m.GetData(ctx)
				if err != nil {
					return err
				}
				file := cat.FindFile(types.NormalizeID(args[0]))
				if file == nil {
					return types.NewNotFoundError("file", args[0])
				}
				printFile(file, time.Now())
				return nil
			})
			if err != nil {
				exitErr(err)
			}
		},
	}
	return cmd
}

func printFile(file *types.ConfigFile, now time.Time) {
	format.LabelColor.Print("Config ID: ")
	format.ValueColor.Println(file.ID)
	format.LabelColor.Print("Title:     ")
	format.ValueColor.Println(file.Title)
	format.LabelColor.Print("Path:      ")
	format.ValueColor.Println(file.Path)
	if file.Mode != "" {
		format.LabelColor.Print("Mode:      ")
		format.ValueColor.Println(file.Mode)
	}
	format.LabelColor.Print("Revisions: ")
	format.ValueColor.Println(file.Counter)
	format.LabelColor.Print("Modified:  ")
	format.ValueColor.Println(file.Modified.Format(displayTimeFormat))

	if len(file.Live) == 0 {
		return
	}
	fmt.Println()
	format.LabelColor.Println("Live Deployments:")
	groupIDs := make([]string, 0, len(file.Live))
	for groupID := range file.Live {
		groupIDs = append(groupIDs, groupID)
	}
	sort.Strings(groupIDs)
	for _, groupID := range groupIDs {
		live := file.Live[groupID]
		fmt.Printf("  %s: ", groupID)
		format.RevColor.Print(live.Rev)
		fmt.Printf(" (%s)\n", live.Phase(now))
	}
}
