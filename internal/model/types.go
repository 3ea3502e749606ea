/*
PURPOSE:
  Defines the core data structures used throughout the AFDB filter.
  These models represent artifact roles, per-candidate decisions and the
  aggregate counters reported per archive and per fleet.

REQUIREMENTS:
  User-specified:
  - Count accepted and total proteins per archive and across the fleet.
  - Distinguish why a candidate was rejected.

  Implementation-discovered:
  - Need JSON tags for the JSONL archive report.
  - Aggregation must be order independent (Add is associative/commutative).

ARCHITECTURE INTEGRATION:
  - Used by: internal/pairing, internal/geometry, internal/engine, internal/output
  - Shared across boundaries.

ERROR HANDLING:
  - None (pure data structs).

IMPLEMENTATION RULES:
  - Keep structs simple and public.
  - No per-protein detail in FleetResult.

USAGE:
  var fleet model.FleetResult
  fleet.Add(archiveResult)

SELF-HEALING INSTRUCTIONS:
  - If new counters are needed, add the field, extend Add, and update CSV/JSON writers.

RELATED FILES:
  - internal/output/csv.go
  - internal/output/json.go

MAINTENANCE:
  - Update when adding new decision kinds.
*/

package model

import (
	"time"
)

// ArtifactRole identifies which half of a candidate pair an entry holds.
type ArtifactRole int

const (
	RoleModel ArtifactRole = iota + 1
	RoleConfidence
)

func (r ArtifactRole) String() string {
	switch r {
	case RoleModel:
		return "model"
	case RoleConfidence:
		return "confidence"
	default:
		return "unknown"
	}
}

// Decision is the per-protein outcome of the filter.
type Decision int

const (
	Accepted Decision = iota
	RejectedConfidence
	RejectedGeometry
	RejectedIncomplete
)

func (d Decision) String() string {
	switch d {
	case Accepted:
		return "accepted"
	case RejectedConfidence:
		return "rejected_confidence"
	case RejectedGeometry:
		return "rejected_geometry"
	case RejectedIncomplete:
		return "rejected_incomplete"
	default:
		return "unknown"
	}
}

// ContactMetric is the globularity measurement of one structure.
type ContactMetric struct {
	LongRangeContacts int `json:"long_range_contacts"`
	AtomCount         int `json:"atom_count"`
}

// ArchiveResult holds the counters of one archive.
// Accepted and Total are the reported pair; the remaining fields break the
// rejections down and never exceed Total together with Accepted.
type ArchiveResult struct {
	Accepted           int `json:"accepted"`
	Total              int `json:"total"`
	Incomplete         int `json:"incomplete"`
	RejectedConfidence int `json:"rejected_confidence"`
	RejectedGeometry   int `json:"rejected_geometry"`
	DecodeErrors       int `json:"decode_errors"`
}

// Record counts one candidate decision. decodeErr marks a rejection caused by
// an unreadable artifact rather than a failed threshold.
func (r *ArchiveResult) Record(d Decision, decodeErr bool) {
	r.Total++
	switch d {
	case Accepted:
		r.Accepted++
	case RejectedConfidence:
		r.RejectedConfidence++
	case RejectedGeometry:
		r.RejectedGeometry++
	case RejectedIncomplete:
		r.Incomplete++
	}
	if decodeErr {
		r.DecodeErrors++
	}
}

// FleetResult is the element-wise sum of ArchiveResults.
type FleetResult struct {
	Archives       int `json:"archives"`
	ArchivesFailed int `json:"archives_failed"`
	ArchiveResult
}

// Add folds one archive into the fleet totals.
func (f *FleetResult) Add(r ArchiveResult, failed bool) {
	f.Archives++
	if failed {
		f.ArchivesFailed++
	}
	f.Accepted += r.Accepted
	f.Total += r.Total
	f.Incomplete += r.Incomplete
	f.RejectedConfidence += r.RejectedConfidence
	f.RejectedGeometry += r.RejectedGeometry
	f.DecodeErrors += r.DecodeErrors
}

// Ratio returns accepted/total. ok is false when no protein was seen.
func (f FleetResult) Ratio() (ratio float64, ok bool) {
	if f.Total == 0 {
		return 0, false
	}
	return float64(f.Accepted) / float64(f.Total), true
}

// ArchiveReport is one row of the per-archive report files.
type ArchiveReport struct {
	RunID     string        `json:"run_id"`
	Archive   string        `json:"archive"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	ArchiveResult
	Error string `json:"error,omitempty"` // If the archive failed
}

// CountResult is the output of the marker diagnostic.
type CountResult struct {
	Archives int `json:"archives"`
	Failed   int `json:"failed"`
	Matches  int `json:"matches"`
}
