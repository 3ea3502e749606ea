/*
PURPOSE:
  Defines the root Cobra command for the AFDB filter CLI.
  Handles global flags and command initialization.

REQUIREMENTS:
  User-specified:
  - Provide a CLI interface.
  - Support global flags like --config.

  Implementation-discovered:
  - Needs to expose an Execute() function for main.go.
  - Ctrl-C must stop dispatching new archives and still print the summary.

ARCHITECTURE INTEGRATION:
  - Called by: cmd/afdb-filter/main.go
  - Calls: Child commands (run, count, list-archives, pdb-filter, init-config)

ERROR HANDLING:
  - Returns error to main.go for exit code handling.

IMPLEMENTATION RULES:
  - Use `PersistentFlags()` for flags available to all subcommands.
  - Keep Run logic in subcommands, Root is usually empty or helps.

USAGE:
  Called by main.go.

SELF-HEALING INSTRUCTIONS:
  - If adding new global flags, add them to init().

RELATED FILES:
  - cmd/afdb-filter/main.go

MAINTENANCE:
  - Update when adding global configuration options.
*/

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/daryltucker/afdb-filter/internal/config"
	"github.com/daryltucker/afdb-filter/internal/output"
)

var (
	// cfgFile stores the path to the config file (if specified via flag)
	cfgFile  string
	logLevel string

	rootCmd = &cobra.Command{
		Use:   "afdb-filter",
		Short: "Structural quality filter for AlphaFold DB proteome archives",
		Long: `Filters predicted protein structures stored in AlphaFold DB proteome archives.
A candidate is accepted when its mean per-residue confidence reaches a threshold
and its fold is globular enough (long-range contacts per residue).
Use 'run --help' for filter options.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return output.SetLevel(logLevel)
		},
	}
)

// Execute executes the root command. SIGINT and SIGTERM cancel the
// command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// loadConfig loads the config file named by --config (or the default search).
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./afdb_filter.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}
