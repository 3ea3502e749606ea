// Package confidence decodes per-residue confidence reports and applies the
// mean-confidence gate.
package confidence

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
)

var (
	// ErrCompression is returned when the gzip layer cannot be read.
	ErrCompression = errors.New("confidence: compression")
	// ErrFormat is returned when the decompressed payload is not a JSON
	// object or the score field is not a list of numbers.
	ErrFormat = errors.New("confidence: format")
)

// DefaultField is the AlphaFold DB key holding per-residue pLDDT values.
const DefaultField = "confidenceScore"

// Series is an ordered list of per-residue scores.
type Series []float64

// sumPrec holds any sum of float64 values exactly: the full exponent range
// plus the mantissa plus carry bits for up to 2^64 terms.
const sumPrec = 2304

// Mean returns the arithmetic mean, rounded once to the nearest float64.
// ok is false for an empty series.
func (s Series) Mean() (mean float64, ok bool) {
	if len(s) == 0 {
		return 0, false
	}
	sum := new(big.Float).SetPrec(sumPrec)
	for _, v := range s {
		sum.Add(sum, big.NewFloat(v))
	}
	q, _ := sum.Rat(nil)
	q.Quo(q, new(big.Rat).SetInt64(int64(len(s))))
	mean, _ = q.Float64()
	return mean, true
}

// Evaluator applies the confidence gate.
type Evaluator struct {
	Field     string
	Threshold float64
}

// Decode gunzips r and extracts the score field. A missing field yields an
// empty series, not an error.
func (e Evaluator) Decode(r io.Reader) (Series, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompression, err)
	}
	defer zr.Close()

	body, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompression, err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	field := e.Field
	if field == "" {
		field = DefaultField
	}
	raw, ok := doc[field]
	if !ok || string(raw) == "null" {
		return Series{}, nil
	}
	var scores Series
	if err := json.Unmarshal(raw, &scores); err != nil {
		return nil, fmt.Errorf("%w: field %q: %v", ErrFormat, field, err)
	}
	return scores, nil
}

// Evaluate decodes r and reports whether the structure passes. An empty
// series passes: the comparison is skipped rather than failed.
func (e Evaluator) Evaluate(r io.Reader) (passed bool, mean float64, err error) {
	scores, err := e.Decode(r)
	if err != nil {
		return false, 0, err
	}
	mean, ok := scores.Mean()
	if !ok {
		return true, 0, nil
	}
	return mean >= e.Threshold, mean, nil
}
