/*
PURPOSE:
  Archive Processor: runs the structural quality filter over every candidate
  protein inside one tar archive and returns its counters.

REQUIREMENTS:
  User-specified:
  - Pair model and confidence entries by protein key.
  - Confidence gate first, geometry gate second; stop at the first failure.
  - Count every protein key in total, accepted only when both gates pass.

  Implementation-discovered:
  - Entries are indexed once, then read back by offset, so pairing does not
    depend on member order.
  - Keys are processed in sorted order so logs are reproducible.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine/runner.go (Fleet)
  - Uses: internal/pairing, internal/confidence, internal/geometry

ERROR HANDLING:
  - Per-candidate decode failures reject the candidate and are logged (resilience).
  - Archive open/index failures return ErrIO with an empty result.
  - Cancellation between candidates aborts the archive.

IMPLEMENTATION RULES:
  - The archive file is closed on every path (defer).
  - Decompression streams are closed by the evaluators.

USAGE:
  p := engine.NewProcessor(cfg)
  res, err := p.Process(ctx, "proteomes/UP000005640_9606_HUMAN_v4.tar")

SELF-HEALING INSTRUCTIONS:
  - If every candidate reports "incomplete", check the marker/suffix config
    against the archive's naming scheme.

RELATED FILES:
  - internal/pairing/pairing.go
  - internal/engine/errors.go

MAINTENANCE:
  - Update when adding gates.
*/

package engine

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/daryltucker/afdb-filter/internal/config"
	"github.com/daryltucker/afdb-filter/internal/confidence"
	"github.com/daryltucker/afdb-filter/internal/geometry"
	"github.com/daryltucker/afdb-filter/internal/model"
	"github.com/daryltucker/afdb-filter/internal/output"
	"github.com/daryltucker/afdb-filter/internal/pairing"
)

// Processor filters the candidates of one archive at a time. It holds no
// per-archive state and is safe for concurrent use.
type Processor struct {
	Rules      pairing.Rules
	Confidence confidence.Evaluator
	Geometry   geometry.Evaluator
	Log        *zap.SugaredLogger
}

// NewProcessor builds a Processor from configuration.
func NewProcessor(cfg *config.Config) *Processor {
	return &Processor{
		Rules: pairing.Rules{
			ModelMarker:      cfg.ModelMarker,
			ModelSuffix:      cfg.ModelSuffix,
			ConfidenceMarker: cfg.ConfidenceMarker,
			ConfidenceSuffix: cfg.ConfidenceSuffix,
		},
		Confidence: confidence.Evaluator{
			Field:     cfg.ConfidenceField,
			Threshold: cfg.ConfidenceThreshold,
		},
		Geometry: geometry.Evaluator{Params: geometry.Params{
			DistanceThreshold: cfg.DistanceThreshold,
			MinSeqDistance:    cfg.MinSeqDistance,
			Ratio:             cfg.GlobularityRatio,
			Atom:              cfg.RepresentativeAtom,
		}},
	}
}

func (p *Processor) log() *zap.SugaredLogger {
	if p.Log != nil {
		return p.Log
	}
	return output.Logger
}

// Verdict is the outcome for one protein key.
type Verdict struct {
	Key      string
	Decision model.Decision
	Mean     float64
	Metric   model.ContactMetric
	Err      error
}

// Process filters every candidate in the archive at path. On an archive
// level failure it returns an empty result together with the cause.
func (p *Processor) Process(ctx context.Context, path string) (model.ArchiveResult, error) {
	log := p.log().With("archive", path)

	a, err := openArchive(path)
	if err != nil {
		return model.ArchiveResult{}, err
	}
	defer a.Close()

	groups := p.Rules.Group(a.Names())
	log.Debugw("Paired archive entries", "entries", len(a.Names()), "complete", groups.Complete(), "incomplete", groups.Incomplete())
	for _, d := range groups.Duplicates {
		log.Warnw("Duplicate entry, keeping the later one", "key", d.Key, "role", d.Role, "replaced", d.Replaced, "entry", d.Entry)
	}

	keys := make([]string, 0, len(groups.Pairs))
	for k := range groups.Pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var res model.ArchiveResult
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return model.ArchiveResult{}, err
		}
		v := p.evaluate(a, key, groups.Pairs[key])
		var de *DecodeError
		decodeErr := errors.As(v.Err, &de)
		res.Record(v.Decision, decodeErr)

		switch {
		case errors.Is(v.Err, ErrIncompletePair):
			log.Infow("Missing model or confidence file, skipping", "key", key)
		case decodeErr:
			log.Warnw("Unreadable artifact, rejecting", "key", key, "role", de.Role, "kind", de.Kind(), "error", de.Err)
		case v.Decision == model.Accepted:
			if v.Metric.AtomCount == 0 {
				log.Warnw("Accepted with zero representative atoms", "key", key)
			}
			log.Debugw("Passes both filters", "key", key, "mean_confidence", v.Mean, "contacts", v.Metric.LongRangeContacts, "atoms", v.Metric.AtomCount)
		case v.Decision == model.RejectedConfidence:
			log.Debugw("Fails confidence filtering", "key", key, "mean_confidence", v.Mean)
		case v.Decision == model.RejectedGeometry:
			log.Debugw("Fails globularity filtering", "key", key, "contacts", v.Metric.LongRangeContacts, "atoms", v.Metric.AtomCount)
		}
	}
	return res, nil
}

// evaluate runs the gates for one key, stopping at the first failure.
func (p *Processor) evaluate(a *archive, key string, pair pairing.Pair) Verdict {
	v := Verdict{Key: key}
	if !pair.Complete() {
		v.Decision = model.RejectedIncomplete
		v.Err = ErrIncompletePair
		return v
	}

	r, err := a.Open(pair.Confidence)
	if err == nil {
		var ok bool
		ok, v.Mean, err = p.Confidence.Evaluate(r)
		if err == nil && !ok {
			v.Decision = model.RejectedConfidence
			return v
		}
	}
	if err != nil {
		v.Decision = model.RejectedConfidence
		v.Err = &DecodeError{Key: key, Role: model.RoleConfidence, Err: err}
		return v
	}

	r, err = a.Open(pair.Model)
	if err == nil {
		var ok bool
		ok, v.Metric, err = p.Geometry.Evaluate(r)
		if err == nil && !ok {
			v.Decision = model.RejectedGeometry
			return v
		}
	}
	if err != nil {
		v.Decision = model.RejectedGeometry
		v.Err = &DecodeError{Key: key, Role: model.RoleModel, Err: err}
		return v
	}

	v.Decision = model.Accepted
	return v
}
