/*
PURPOSE:
  Writes one JSON line per finished archive to archives.jsonl in the report
  directory, next to archives.csv.

REQUIREMENTS:
  User-specified:
  - Per-archive accepted/total counts that can be joined back to the run log.

  Implementation-discovered:
  - Every row carries run_id so rows from repeated runs into the same
    directory can be told apart, and matched against the zap log lines
    that share the same run_id field.
  - Duration is written in seconds (duration_s), the same unit as the CSV.
  - Failed archives keep their row with zero counts and an error string.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (Fleet collector goroutine, via ReportWriter)
  - Consumes: internal/model.ArchiveReport

ERROR HANDLING:
  - Returns error on file creation or write failure; the fleet logs it and
    keeps going.

IMPLEMENTATION RULES:
  - One object per line, written as soon as the archive finishes.
  - Mutex guards the encoder.

USAGE:
  w, err := output.NewJSONWriter(filepath.Join(cfg.ReportDir, "archives.jsonl"))
  w.Write(report)
  w.Close()

SELF-HEALING INSTRUCTIONS:
  - If a column is added to CSVHeader, add the matching field to archiveRow.

RELATED FILES:
  - internal/output/csv.go
  - internal/model/types.go
*/

package output

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/daryltucker/afdb-filter/internal/model"
)

// archiveRow is the on-disk shape of one archive report.
type archiveRow struct {
	RunID     string    `json:"run_id"`
	Archive   string    `json:"archive"`
	Timestamp time.Time `json:"timestamp"`
	DurationS float64   `json:"duration_s"`
	model.ArchiveResult
	Error string `json:"error,omitempty"`
}

// JSONWriter appends archive reports to a JSON Lines file.
type JSONWriter struct {
	file    *os.File
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONWriter creates path, truncating an existing file.
func NewJSONWriter(path string) (*JSONWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	return &JSONWriter{
		file:    f,
		encoder: json.NewEncoder(f),
	}, nil
}

// Write encodes one archive report as a line.
func (jw *JSONWriter) Write(r model.ArchiveReport) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	return jw.encoder.Encode(archiveRow{
		RunID:         r.RunID,
		Archive:       r.Archive,
		Timestamp:     r.Timestamp,
		DurationS:     r.Duration.Seconds(),
		ArchiveResult: r.ArchiveResult,
		Error:         r.Error,
	})
}

// Close closes the underlying file.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	return jw.file.Close()
}
