// Package geometry measures globularity as the number of long-range
// residue contacts and applies the globularity gate.
package geometry

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/daryltucker/afdb-filter/internal/model"
	"github.com/daryltucker/afdb-filter/internal/structure"
)

// ErrCompression is returned when the model stream is not valid gzip.
var ErrCompression = errors.New("geometry: compression")

// Params holds the contact definition and the acceptance ratio.
type Params struct {
	DistanceThreshold float64 // Å, contacts are strictly closer
	MinSeqDistance    int     // residues, separation must be strictly greater
	Ratio             float64 // contacts >= Ratio * atoms accepts
	Atom              string  // representative atom name, e.g. "CA"
}

// DefaultParams returns the reference thresholds.
func DefaultParams() Params {
	return Params{DistanceThreshold: 8.0, MinSeqDistance: 12, Ratio: 0.5, Atom: "CA"}
}

func (p Params) longRange(a, b structure.Representative) bool {
	sep := a.Seq - b.Seq
	if sep < 0 {
		sep = -sep
	}
	if sep <= p.MinSeqDistance {
		return false
	}
	dx := a.Coord[0] - b.Coord[0]
	dy := a.Coord[1] - b.Coord[1]
	dz := a.Coord[2] - b.Coord[2]
	return math.Sqrt(dx*dx+dy*dy+dz*dz) < p.DistanceThreshold
}

// BruteForceContacts counts long-range contacts over every unordered pair.
func BruteForceContacts(reps []structure.Representative, p Params) int {
	n := 0
	for i := range reps {
		for j := i + 1; j < len(reps); j++ {
			if p.longRange(reps[i], reps[j]) {
				n++
			}
		}
	}
	return n
}

type cell [3]int64

// LongRangeContacts counts the same pair set as BruteForceContacts but only
// compares atoms in neighbouring cells of a grid whose edge equals the
// distance threshold.
func LongRangeContacts(reps []structure.Representative, p Params) int {
	if len(reps) < 2 || p.DistanceThreshold <= 0 {
		return BruteForceContacts(reps, p)
	}
	edge := p.DistanceThreshold
	keys := make([]cell, len(reps))
	grid := make(map[cell][]int, len(reps))
	for i, r := range reps {
		k := cell{
			int64(math.Floor(r.Coord[0] / edge)),
			int64(math.Floor(r.Coord[1] / edge)),
			int64(math.Floor(r.Coord[2] / edge)),
		}
		keys[i] = k
		grid[k] = append(grid[k], i)
	}

	n := 0
	for i, k := range keys {
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dz := int64(-1); dz <= 1; dz++ {
					for _, j := range grid[cell{k[0] + dx, k[1] + dy, k[2] + dz}] {
						if j > i && p.longRange(reps[i], reps[j]) {
							n++
						}
					}
				}
			}
		}
	}
	return n
}

// Metric computes the contact metric of a parsed structure.
func (p Params) Metric(s *structure.Structure) model.ContactMetric {
	reps := s.Representatives(p.Atom)
	return model.ContactMetric{
		LongRangeContacts: LongRangeContacts(reps, p),
		AtomCount:         len(reps),
	}
}

// Accept applies the globularity gate. Zero atoms accept vacuously (0 >= 0).
func (p Params) Accept(m model.ContactMetric) bool {
	return float64(m.LongRangeContacts) >= p.Ratio*float64(m.AtomCount)
}

// Evaluator decodes gzip mmCIF model streams and applies the gate.
type Evaluator struct {
	Params
}

// Measure gunzips and parses r and returns its contact metric.
func (e Evaluator) Measure(r io.Reader) (model.ContactMetric, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return model.ContactMetric{}, fmt.Errorf("%w: %v", ErrCompression, err)
	}
	defer zr.Close()

	tr := &trackingReader{r: zr}
	s, err := structure.ParseCIF(tr)
	if tr.err != nil {
		// a corrupt gzip body surfaces through the parser's scanner
		return model.ContactMetric{}, fmt.Errorf("%w: %v", ErrCompression, tr.err)
	}
	if err != nil {
		return model.ContactMetric{}, err
	}
	return e.Metric(s), nil
}

// Evaluate measures r and reports whether it passes the gate.
func (e Evaluator) Evaluate(r io.Reader) (bool, model.ContactMetric, error) {
	m, err := e.Measure(r)
	if err != nil {
		return false, m, err
	}
	return e.Accept(m), m, nil
}

// trackingReader remembers the first non-EOF read error of the decompressor.
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF && t.err == nil {
		t.err = err
	}
	return n, err
}
