package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daryltucker/afdb-filter/internal/discovery"
	"github.com/daryltucker/afdb-filter/internal/metadata"
	"github.com/daryltucker/afdb-filter/internal/output"
)

var (
	pdbRoot         string
	cutoffDate      string
	resolutionLimit float64
	requiredMethod  string
	anyMethod       bool
	pdbWorkers      int
)

var pdbFilterCmd = &cobra.Command{
	Use:   "pdb-filter",
	Short: "Select experimental PDB entries by date, method and resolution",
	Long: `Walks a PDB mirror of gzip-compressed entries and prints the files deposited
before the cutoff date, solved by the required method, with a resolution
better than the threshold. One path per line on stdout.`,
	Example: `  afdb-filter pdb-filter --root pdb/structures --cutoff-date 2020-05-01
  afdb-filter pdb-filter --resolution 3.0 --no-require-method`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if pdbRoot != "" {
			cfg.PDB.Root = pdbRoot
		}
		if cutoffDate != "" {
			cfg.PDB.CutoffDate = cutoffDate
		}
		if flags.Changed("resolution") {
			cfg.PDB.ResolutionThreshold = resolutionLimit
		}
		if requiredMethod != "" {
			cfg.PDB.RequiredMethod = requiredMethod
		}
		if anyMethod {
			cfg.PDB.RequireMethod = false
		}
		if flags.Changed("workers") {
			cfg.Workers = pdbWorkers
		}
		if err := cfg.ValidatePDB(); err != nil {
			return err
		}
		th, err := metadata.FromConfig(cfg.PDB)
		if err != nil {
			return err
		}

		files, err := discovery.Walk(cfg.PDB.Root, cfg.PDB.Suffix)
		if err != nil {
			return err
		}
		output.Logger.Infow("Filtering PDB entries", "files", len(files), "cutoff", cfg.PDB.CutoffDate, "resolution", cfg.PDB.ResolutionThreshold)

		kept, err := metadata.FilterFiles(cmd.Context(), files, th, cfg.Workers)
		out := cmd.OutOrStdout()
		for _, f := range kept {
			fmt.Fprintln(out, f)
		}
		output.Logger.Infow("PDB filter complete", "files", len(files), "kept", len(kept))
		return err
	},
}

func init() {
	rootCmd.AddCommand(pdbFilterCmd)

	pdbFilterCmd.Flags().StringVar(&pdbRoot, "root", "", "PDB mirror directory (searched recursively)")
	pdbFilterCmd.Flags().StringVar(&cutoffDate, "cutoff-date", "", "Keep entries deposited strictly before this date (YYYY-MM-DD)")
	pdbFilterCmd.Flags().Float64Var(&resolutionLimit, "resolution", 0, "Keep entries with resolution strictly below this value (Angstrom)")
	pdbFilterCmd.Flags().StringVar(&requiredMethod, "method", "", "Required experimental method, case-insensitive")
	pdbFilterCmd.Flags().BoolVar(&anyMethod, "no-require-method", false, "Accept any experimental method")
	pdbFilterCmd.Flags().IntVarP(&pdbWorkers, "workers", "w", 0, "Number of files parsed in parallel")
}
