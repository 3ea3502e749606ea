/*
PURPOSE:
  Defines the 'list-archives' subcommand.
  Helps debug the root path and archive suffix before a full run.

REQUIREMENTS:
  User-specified:
  - List the archives a run would process.

  Implementation-discovered:
  - Useful validation step before full run.

ARCHITECTURE INTEGRATION:
  - Calls: internal/discovery.Archives()

ERROR HANDLING:
  - Returns error if the root cannot be read.

IMPLEMENTATION RULES:
  - Simple output to stdout.

USAGE:
  afdb-filter list-archives --root proteomes/

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/discovery/discovery.go

MAINTENANCE:
  - None.
*/

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daryltucker/afdb-filter/internal/discovery"
)

var listRoot string

var listArchivesCmd = &cobra.Command{
	Use:   "list-archives",
	Short: "List the archives found under the root",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if listRoot != "" {
			cfg.Root = listRoot
		}

		archives, err := discovery.Archives(cfg.Root, cfg.ArchiveSuffix)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, a := range archives {
			fmt.Fprintf(out, "- %s\n", a)
		}
		fmt.Fprintf(out, "%d archive(s)\n", len(archives))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listArchivesCmd)
	listArchivesCmd.Flags().StringVar(&listRoot, "root", "", "Directory containing the proteome archives")
}
