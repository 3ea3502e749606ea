package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/daryltucker/afdb-filter/internal/confidence"
	"github.com/daryltucker/afdb-filter/internal/geometry"
	"github.com/daryltucker/afdb-filter/internal/model"
	"github.com/daryltucker/afdb-filter/internal/structure"
)

// Error taxonomy. Only archive-level errors (ErrIO, cancellation) make an
// archive contribute nothing; everything else rejects a single candidate.
var (
	// ErrIO: archive missing, unreadable, or not a tar container.
	ErrIO = errors.New("archive io")
	// ErrIncompletePair: a protein key has only one of its two artifacts.
	ErrIncompletePair = errors.New("incomplete pair")
	// ErrPanic: a worker panicked while processing an archive.
	ErrPanic = errors.New("worker panic")
)

// Code is a short error class used in log fields and reports.
type Code string

const (
	CodeUnknown     Code = "unknown"
	CodeIO          Code = "io"
	CodeCompression Code = "compression"
	CodeFormat      Code = "format"
	CodeIncomplete  Code = "incomplete"
	CodeCancel      Code = "cancel"
	CodePanic       Code = "panic"
)

// Classify maps an error onto the taxonomy using sentinels only.
func Classify(err error) Code {
	switch {
	case err == nil:
		return CodeUnknown
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCancel
	case errors.Is(err, ErrPanic):
		return CodePanic
	case errors.Is(err, ErrIncompletePair):
		return CodeIncomplete
	case errors.Is(err, confidence.ErrCompression), errors.Is(err, geometry.ErrCompression):
		return CodeCompression
	case errors.Is(err, confidence.ErrFormat), errors.Is(err, structure.ErrFormat):
		return CodeFormat
	case errors.Is(err, ErrIO):
		return CodeIO
	}
	var perr *fs.PathError
	if errors.As(err, &perr) {
		return CodeIO
	}
	return CodeUnknown
}

// DecodeError is a failure to read one artifact of one candidate.
type DecodeError struct {
	Key  string
	Role model.ArtifactRole
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Key, e.Role, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Kind returns the error class of the underlying failure.
func (e *DecodeError) Kind() Code { return Classify(e.Err) }
