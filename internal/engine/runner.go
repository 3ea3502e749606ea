/*
PURPOSE:
  Fleet Aggregator: dispatches the Archive Processor over many archives on a
  bounded worker pool and sums the per-archive counters.

REQUIREMENTS:
  User-specified:
  - Process thousands of archives in parallel.
  - One failing archive must never abort the others.
  - Report fleet totals and the accepted ratio (undefined when empty).

  Implementation-discovered:
  - Results are folded on a single collector goroutine (message passing),
    never on a shared counter.
  - Optional per-archive timeout and per-archive report files.
  - Needs to report progress to CLI.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli
  - Uses: internal/engine/processor.go, internal/workers, internal/output

ERROR HANDLING:
  - Logs archive errors but continues (resilience).
  - Worker panics are recovered into archive-level failures.
  - Only report file setup errors are returned.

IMPLEMENTATION RULES:
  - Archive order does not matter; summation is associative.
  - Each archive failure contributes {0,0} and bumps archives_failed.

USAGE:
  fleet, err := engine.Run(ctx, cfg, archives)

SELF-HEALING INSTRUCTIONS:
  - If the run stalls, lower workers or set archive_timeout.

RELATED FILES:
  - internal/engine/processor.go
  - internal/workers/pool.go

MAINTENANCE:
  - Update when adding new report sinks.
*/

package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daryltucker/afdb-filter/internal/config"
	"github.com/daryltucker/afdb-filter/internal/model"
	"github.com/daryltucker/afdb-filter/internal/output"
	"github.com/daryltucker/afdb-filter/internal/workers"
)

// ReportWriter receives one row per finished archive.
type ReportWriter interface {
	Write(model.ArchiveReport) error
	Close() error
}

// ProcessFunc filters one archive.
type ProcessFunc func(ctx context.Context, path string) (model.ArchiveResult, error)

// Fleet runs a ProcessFunc over many archives.
type Fleet struct {
	Process  ProcessFunc
	Workers  int
	Timeout  time.Duration // per archive, 0 disables
	Reports  []ReportWriter
	Progress *output.Progress
	RunID    string
	Log      *zap.SugaredLogger
}

// Run processes every archive and returns the fleet totals. The result is
// independent of archive order and worker count.
func (f *Fleet) Run(ctx context.Context, archives []string) model.FleetResult {
	log := f.Log
	if log == nil {
		log = output.Logger
	}
	log.Infow("Processing archives", "count", len(archives), "workers", f.Workers)

	var fleet model.FleetResult
	err := workers.Run(ctx, archives, f.Workers, f.processOne, func(rep model.ArchiveReport) {
		failed := rep.Error != ""
		fleet.Add(rep.ArchiveResult, failed)
		f.Progress.Step(failed)
		for _, w := range f.Reports {
			if err := w.Write(rep); err != nil {
				log.Errorw("Failed to write archive report", "archive", rep.Archive, "error", err)
			}
		}
	})
	if err != nil {
		log.Warnw("Run interrupted, remaining archives skipped", "error", err, "done", fleet.Archives, "count", len(archives))
	}
	return fleet
}

func (f *Fleet) processOne(ctx context.Context, path string) model.ArchiveReport {
	log := f.Log
	if log == nil {
		log = output.Logger
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := f.safeProcess(ctx, path)
	rep := model.ArchiveReport{
		RunID:         f.RunID,
		Archive:       path,
		Timestamp:     start,
		Duration:      time.Since(start),
		ArchiveResult: res,
	}
	if err != nil {
		rep.ArchiveResult = model.ArchiveResult{}
		rep.Error = err.Error()
		log.Errorw("Error processing archive", "archive", path, "kind", Classify(err), "error", err)
		return rep
	}
	log.Infow("Archive done",
		"archive", path,
		"accepted", res.Accepted,
		"total", res.Total,
		"duration", rep.Duration,
	)
	return rep
}

func (f *Fleet) safeProcess(ctx context.Context, path string) (res model.ArchiveResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = model.ArchiveResult{}, fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return f.Process(ctx, path)
}

// Run executes the structure filter over archives as configured.
func Run(ctx context.Context, cfg *config.Config, archives []string) (model.FleetResult, error) {
	runID := uuid.NewString()
	log := output.Logger.With("run_id", runID)

	proc := NewProcessor(cfg)
	proc.Log = log

	fleet := &Fleet{
		Process: proc.Process,
		Workers: cfg.Workers,
		Timeout: cfg.ArchiveTimeout,
		RunID:   runID,
		Log:     log,
	}

	if cfg.ReportDir != "" {
		if err := os.MkdirAll(cfg.ReportDir, 0755); err != nil {
			return model.FleetResult{}, fmt.Errorf("failed to create report directory %s: %w", cfg.ReportDir, err)
		}

		csvPath := filepath.Join(cfg.ReportDir, "archives.csv")
		csvWriter, err := output.NewCSVWriter(csvPath)
		if err != nil {
			return model.FleetResult{}, fmt.Errorf("failed to init CSV writer at %s: %w", csvPath, err)
		}
		defer csvWriter.Close()

		jsonPath := filepath.Join(cfg.ReportDir, "archives.jsonl")
		jsonWriter, err := output.NewJSONWriter(jsonPath)
		if err != nil {
			return model.FleetResult{}, fmt.Errorf("failed to init JSON writer at %s: %w", jsonPath, err)
		}
		defer jsonWriter.Close()

		fleet.Reports = []ReportWriter{csvWriter, jsonWriter}
	}

	if cfg.Progress {
		fleet.Progress = output.NewProgress(os.Stderr, "archives", len(archives))
		defer fleet.Progress.Finish()
	}

	res := fleet.Run(ctx, archives)
	log.Infow("Run complete",
		"archives", res.Archives,
		"archives_failed", res.ArchivesFailed,
		"proteins_total", res.Total,
		"proteins_accepted", res.Accepted,
		"ratio", output.Ratio(res),
	)
	return res, nil
}
