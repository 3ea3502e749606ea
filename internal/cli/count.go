package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/daryltucker/afdb-filter/internal/discovery"
	"github.com/daryltucker/afdb-filter/internal/engine"
	"github.com/daryltucker/afdb-filter/internal/output"
)

var (
	countRoot    string
	countMarker  string
	countWorkers int
	countQuiet   bool
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count archive entries whose name contains a marker",
	Long: `Lists the members of every archive without decompressing them and counts
the names containing the marker. Useful to size a run before filtering.`,
	Example: `  afdb-filter count --marker confidence
  afdb-filter count --root /data/afdb/proteomes --marker -model`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if countRoot != "" {
			cfg.Root = countRoot
		}
		if countMarker != "" {
			cfg.CountMarker = countMarker
		}
		if cmd.Flags().Changed("workers") {
			cfg.Workers = countWorkers
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		archives, err := discovery.Archives(cfg.Root, cfg.ArchiveSuffix)
		if err != nil {
			return err
		}

		var prog *output.Progress
		if cfg.Progress && !countQuiet {
			prog = output.NewProgress(os.Stderr, "archives", len(archives))
		}
		res := engine.CountMarker(cmd.Context(), archives, cfg.CountMarker, cfg.Workers, prog)
		prog.Finish()
		return output.WriteCountSummary(cmd.OutOrStdout(), cfg.CountMarker, res)
	},
}

func init() {
	rootCmd.AddCommand(countCmd)

	countCmd.Flags().StringVar(&countMarker, "marker", "", "Substring to count in member names (default from config)")
	countCmd.Flags().StringVar(&countRoot, "root", "", "Directory containing the proteome archives")
	countCmd.Flags().IntVarP(&countWorkers, "workers", "w", 0, "Number of archives scanned in parallel")
	countCmd.Flags().BoolVar(&countQuiet, "no-progress", false, "Disable the progress bar")
}
