package engine

import (
	"context"
	"strings"

	"github.com/daryltucker/afdb-filter/internal/model"
	"github.com/daryltucker/afdb-filter/internal/output"
	"github.com/daryltucker/afdb-filter/internal/workers"
)

type countOutcome struct {
	matches int
	err     error
}

// CountMarker counts, across archives, the entries whose name contains
// marker. Unreadable archives count zero and are reported in Failed.
func CountMarker(ctx context.Context, archives []string, marker string, n int, prog *output.Progress) model.CountResult {
	var total model.CountResult
	count := func(_ context.Context, path string) countOutcome {
		names, err := scanNames(path)
		if err != nil {
			output.Logger.Errorw("Error processing archive", "archive", path, "kind", Classify(err), "error", err)
			return countOutcome{err: err}
		}
		m := 0
		for _, name := range names {
			if strings.Contains(name, marker) {
				m++
			}
		}
		return countOutcome{matches: m}
	}
	err := workers.Run(ctx, archives, n, count, func(o countOutcome) {
		total.Archives++
		if o.err != nil {
			total.Failed++
		}
		total.Matches += o.matches
		prog.Step(o.err != nil)
	})
	if err != nil {
		output.Logger.Warnw("Count interrupted", "error", err)
	}
	return total
}
