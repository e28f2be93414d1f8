package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/confsync/confsync/internal/config"
	"github.com/confsync/confsync/pkg/catalog"
	"github.com/confsync/confsync/pkg/cli/format"
)

func newExportCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the catalog as YAML",
		Long: `Export writes the full catalog (all groups and config file
definitions, including live deployment state) as YAML, for backups or
review. Revision content is not included; use 'get --save' for that.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			err := runWithManager(func(ctx context.Context, m *catalog.Manager, cfg *config.Config) error {
				cat, err := m.GetData(ctx)
				if err != nil {
					return err
				}

				data, err := yaml.Marshal(cat)
				if err != nil {
					return fmt.Errorf("failed to encode catalog: %w", err)
				}

				if outFile == "" {
					fmt.Print(string(data))
					return nil
				}
				if err := os.WriteFile(outFile, data, 0644); err != nil {
					return fmt.Errorf("failed to save local file %s: %w", outFile, err)
				}
				format.Success(fmt.Sprintf("Catalog exported: `%s`", outFile))
				return nil
			})
			if err != nil {
				exitErr(err)
			}
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "", "write the YAML to this local file instead of stdout")
	return cmd
}
