/*
PURPOSE:
  Metadata filter for experimental PDB entries: keeps structures deposited
  before a cutoff, solved by the required method, at a resolution better
  than a threshold.

REQUIREMENTS:
  User-specified:
  - Cutoff date, resolution threshold and method are configurable.
  - The method requirement can be switched off.

  Implementation-discovered:
  - PDB mirrors ship gzip-compressed .ent files.
  - Entries without a resolution record (NMR, some EM) never pass.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli/pdb_filter.go
  - Uses: internal/structure (ParsePDB), internal/workers

ERROR HANDLING:
  - Unreadable files are logged and skipped, never fatal.

IMPLEMENTATION RULES:
  - Method comparison is case-insensitive.
  - Output order is sorted by path.

USAGE:
  kept, err := metadata.FilterFiles(ctx, files, th, cfg.Workers)

SELF-HEALING INSTRUCTIONS:
  - If nothing passes, check the deposition date format in HEADER records.

RELATED FILES:
  - internal/structure/pdb.go

MAINTENANCE:
  - Update when adding metadata criteria.
*/

package metadata

import (
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/daryltucker/afdb-filter/internal/config"
	"github.com/daryltucker/afdb-filter/internal/output"
	"github.com/daryltucker/afdb-filter/internal/structure"
	"github.com/daryltucker/afdb-filter/internal/workers"
)

// Thresholds are the acceptance criteria of the metadata filter.
type Thresholds struct {
	CutoffDate          time.Time
	ResolutionThreshold float64
	RequiredMethod      string
	RequireMethod       bool
}

// FromConfig converts the pdb config section into Thresholds.
func FromConfig(c config.PDBFilter) (Thresholds, error) {
	cutoff, err := time.Parse(config.DateLayout, c.CutoffDate)
	if err != nil {
		return Thresholds{}, fmt.Errorf("%w: cutoff_date %q: %v", config.ErrInvalid, c.CutoffDate, err)
	}
	return Thresholds{
		CutoffDate:          cutoff,
		ResolutionThreshold: c.ResolutionThreshold,
		RequiredMethod:      c.RequiredMethod,
		RequireMethod:       c.RequireMethod,
	}, nil
}

// Accept reports whether a header passes every criterion.
func Accept(h structure.Header, th Thresholds) bool {
	if h.DepositionDate.IsZero() || !h.DepositionDate.Before(th.CutoffDate) {
		return false
	}
	if th.RequireMethod && !strings.EqualFold(strings.TrimSpace(h.Method), th.RequiredMethod) {
		return false
	}
	// a zero resolution is treated as missing
	return h.Resolution != nil && *h.Resolution > 0 && *h.Resolution < th.ResolutionThreshold
}

// ReadHeader parses the header of one gzip-compressed PDB file.
func ReadHeader(path string) (structure.Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return structure.Header{}, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return structure.Header{}, fmt.Errorf("%s: %w", path, err)
	}
	defer zr.Close()

	s, err := structure.ParsePDB(zr)
	if err != nil {
		return structure.Header{}, fmt.Errorf("%s: %w", path, err)
	}
	return s.Header, nil
}

type verdict struct {
	path string
	ok   bool
}

// FilterFiles returns the files whose headers pass th, sorted by path.
// Files that cannot be read are logged and left out.
func FilterFiles(ctx context.Context, files []string, th Thresholds, n int) ([]string, error) {
	var kept []string
	check := func(_ context.Context, path string) verdict {
		h, err := ReadHeader(path)
		if err != nil {
			output.Logger.Warnw("Skipping unreadable PDB file", "file", path, "error", err)
			return verdict{path: path}
		}
		return verdict{path: path, ok: Accept(h, th)}
	}
	err := workers.Run(ctx, files, n, check, func(v verdict) {
		if v.ok {
			kept = append(kept, v.path)
		}
	})
	sort.Strings(kept)
	return kept, err
}
