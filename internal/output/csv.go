/*
PURPOSE:
  Writes per-archive filter results to a CSV file.
  Ensures data integrity by flushing writes immediately.

REQUIREMENTS:
  User-specified:
  - Aggregate statistics per archive, readable in a spreadsheet.

  Implementation-discovered:
  - Archives finish in any order from many workers, so writes are serialised.
  - A crash mid-run must leave every finished archive on disk.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine
  - Consumes: internal/model.ArchiveReport

ERROR HANDLING:
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/csv.
  - Flush() after every write (critical for crash resilience).
  - Mutex guards the writer.

USAGE:
  w, err := output.NewCSVWriter("archives.csv")
  w.Write(report)
  w.Close()

SELF-HEALING INSTRUCTIONS:
  - If CSV format changes, update header and record conversion together.

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - Update Write() mapping when ArchiveReport changes.
*/

package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/daryltucker/afdb-filter/internal/model"
)

// CSVHeader is the first row of every archive report.
var CSVHeader = []string{
	"run_id", "archive", "timestamp", "duration_s",
	"accepted", "total", "incomplete", "rejected_confidence", "rejected_geometry", "decode_errors",
	"error",
}

// CSVWriter handles writing archive reports to a CSV file.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter creates a new CSVWriter.
// It overwrites the file if it exists.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)
	if err := w.Write(CSVHeader); err != nil {
		f.Close()
		return nil, err
	}
	w.Flush()

	return &CSVWriter{
		file:   f,
		writer: w,
	}, nil
}

// Write writes a single archive report to the CSV file.
// It is thread-safe.
func (cw *CSVWriter) Write(r model.ArchiveReport) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	record := []string{
		r.RunID,
		r.Archive,
		r.Timestamp.Format(time.RFC3339),
		fmt.Sprintf("%.4f", r.Duration.Seconds()),
		strconv.Itoa(r.Accepted),
		strconv.Itoa(r.Total),
		strconv.Itoa(r.Incomplete),
		strconv.Itoa(r.RejectedConfidence),
		strconv.Itoa(r.RejectedGeometry),
		strconv.Itoa(r.DecodeErrors),
		r.Error,
	}

	if err := cw.writer.Write(record); err != nil {
		return err
	}
	cw.writer.Flush()
	return cw.writer.Error()
}

// Close closes the underlying file.
func (cw *CSVWriter) Close() error {
	cw.writer.Flush()
	return cw.file.Close()
}
