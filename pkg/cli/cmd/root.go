// Package cmd implements the confsync command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/confsync/confsync/pkg/version"
)

var (
	cfgFile  string
	verbose  bool
	username string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "confsync",
	Short: "ConfSync - Versioned config file distribution",
	Long: `ConfSync manages versioned configuration files for fleets of
hosts. Files are grouped by environment variable matching, support
per-group value overrides and time-windowed gradual rollouts, and keep
a full revision history with diffing between revisions.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			cmd.Help()
			return
		}
	},
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./confsync.yaml or /etc/confsync/confsync.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&username, "username", "u", "", "author recorded on mutations (defaults to $USER)")

	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newGroupCmd())
	rootCmd.AddCommand(newFileCmd())
	rootCmd.AddCommand(newPushCmd())
	rootCmd.AddCommand(newDeployCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newDiffCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newVersionCmd())
}
