/*
PURPOSE:
  Defines the 'run' subcommand.
  Filters every archive under the root and prints the fleet summary.

REQUIREMENTS:
  User-specified:
  - Run the filter over all proteome archives.
  - Specific flags for threshold overrides.

  Implementation-discovered:
  - Need to load config first.
  - Apply flag overrides to config, then validate.
  - The summary is printed even when the run was interrupted.

ARCHITECTURE INTEGRATION:
  - Calls: internal/discovery.Archives(), internal/engine.Run()
  - Uses: internal/config, internal/output

ERROR HANDLING:
  - Returns error if config load/validation fails or the root is missing.
  - Per-archive failures are counted, not returned.

IMPLEMENTATION RULES:
  - Setup flags in init().
  - Logic: Load Config -> Override -> Validate -> Discover -> Engine.Run -> Summary.

USAGE:
  afdb-filter run --root proteomes/ --workers 64

SELF-HEALING INSTRUCTIONS:
  - Check flag names match Config struct fields generally.

RELATED FILES:
  - internal/cli/root.go

MAINTENANCE:
  - Update when adding new CLI overrides.
*/

package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/daryltucker/afdb-filter/internal/config"
	"github.com/daryltucker/afdb-filter/internal/discovery"
	"github.com/daryltucker/afdb-filter/internal/engine"
	"github.com/daryltucker/afdb-filter/internal/output"
)

var (
	rootOverride       string
	workersOverride    int
	reportDirOverride  string
	confidenceOverride float64
	distanceOverride   float64
	seqDistOverride    int
	ratioOverride      float64
	timeoutOverride    time.Duration
	noProgress         bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Filter all proteome archives",
	Long: `Filters every archive under the root directory.
Each candidate protein goes through two gates:
1. Confidence: the mean per-residue confidence must reach the threshold.
2. Globularity: long-range contacts must reach ratio * residue count.

Per-archive counts are written to archives.csv and archives.jsonl when a report
directory is set. The fleet summary is printed to stdout.`,
	Example: `  # Run with defaults (uses afdb_filter.yaml)
  afdb-filter run

  # Override the archive root and worker count
  afdb-filter run --root /data/afdb/proteomes --workers 128

  # Stricter confidence, keep per-archive reports
  afdb-filter run --confidence-threshold 0.85 --report-dir ./reports`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Load Config
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// 2. Overrides
		applyRunOverrides(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		// 3. Discovery
		archives, err := discovery.Archives(cfg.Root, cfg.ArchiveSuffix)
		if err != nil {
			return err
		}
		if len(archives) == 0 {
			output.Logger.Warnw("No archives found", "root", cfg.Root, "suffix", cfg.ArchiveSuffix)
		}

		// 4. Execution
		fleet, err := engine.Run(cmd.Context(), cfg, archives)
		if err != nil {
			return err
		}
		return output.WriteSummary(cmd.OutOrStdout(), fleet)
	},
}

func applyRunOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if rootOverride != "" {
		cfg.Root = rootOverride
	}
	if flags.Changed("workers") {
		cfg.Workers = workersOverride
	}
	if reportDirOverride != "" {
		cfg.ReportDir = reportDirOverride
	}
	if flags.Changed("confidence-threshold") {
		cfg.ConfidenceThreshold = confidenceOverride
	}
	if flags.Changed("distance-threshold") {
		cfg.DistanceThreshold = distanceOverride
	}
	if flags.Changed("min-seq-distance") {
		cfg.MinSeqDistance = seqDistOverride
	}
	if flags.Changed("globularity-ratio") {
		cfg.GlobularityRatio = ratioOverride
	}
	if flags.Changed("archive-timeout") {
		cfg.ArchiveTimeout = timeoutOverride
	}
	if noProgress {
		cfg.Progress = false
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&rootOverride, "root", "", "Directory containing the proteome archives")
	runCmd.Flags().IntVarP(&workersOverride, "workers", "w", 0, "Number of archives processed in parallel")
	runCmd.Flags().StringVarP(&reportDirOverride, "report-dir", "o", "", "Directory for per-archive reports (CSV/JSONL)")
	runCmd.Flags().Float64Var(&confidenceOverride, "confidence-threshold", 0, "Minimum mean per-residue confidence")
	runCmd.Flags().Float64Var(&distanceOverride, "distance-threshold", 0, "Contact distance in Angstrom (strict)")
	runCmd.Flags().IntVar(&seqDistOverride, "min-seq-distance", 0, "Minimum sequence separation of a long-range contact (strict)")
	runCmd.Flags().Float64Var(&ratioOverride, "globularity-ratio", 0, "Required contacts per representative atom")
	runCmd.Flags().DurationVar(&timeoutOverride, "archive-timeout", 0, "Per-archive time limit, e.g. 10m (0 disables)")
	runCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
}
