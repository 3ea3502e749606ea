/*
PURPOSE:
  Defines the 'init-config' subcommand.
  Writes the default configuration to a YAML file for editing.

REQUIREMENTS:
  User-specified:
  - Easy setup of a config file with every threshold spelled out.

  Implementation-discovered:
  - Should not overwrite an existing file unless forced.

ARCHITECTURE INTEGRATION:
  - Uses: internal/config.DefaultConfig()

ERROR HANDLING:
  - Returns error if the target exists or cannot be written.

IMPLEMENTATION RULES:
  - Output is the same YAML that config.Load reads.

USAGE:
  afdb-filter init-config [path]

SELF-HEALING INSTRUCTIONS:
  - If fields are missing from the output, check their yaml tags.

RELATED FILES:
  - internal/config/config.go

MAINTENANCE:
  - None.
*/

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/daryltucker/afdb-filter/internal/config"
	"github.com/daryltucker/afdb-filter/internal/output"
)

var forceInit bool

var initConfigCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "Write the default configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := config.DefaultFile
		if len(args) == 1 {
			target = args[0]
		}
		if _, err := os.Stat(target); err == nil && !forceInit {
			return fmt.Errorf("%s already exists (use --force to overwrite)", target)
		}

		data, err := yaml.Marshal(config.DefaultConfig())
		if err != nil {
			return fmt.Errorf("failed to encode default config: %w", err)
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}

		output.Logger.Infow("Wrote default config", "path", target)
		return nil
	},
}

func init() {
	initConfigCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing file")
	rootCmd.AddCommand(initConfigCmd)
}
