package questiongenerator

import (
	"errors"
	"fmt"
)

// Structural and configuration errors surface to the caller
// immediately; GenerationServiceError degrades to mock or partial
// results inside the synthesis loop instead.
var (
	// ErrNotFitted is returned when an index is searched before Fit.
	ErrNotFitted = errors.New("chunk index is not fitted")

	// ErrEmptyCorpus is returned when Fit is called with no chunks.
	ErrEmptyCorpus = errors.New("cannot fit on empty chunk list")

	// ErrIndexNotFound is returned when a persisted index directory or
	// one of its artifacts is missing.
	ErrIndexNotFound = errors.New("persisted index not found")

	// ErrUnsupportedType is returned for an unknown question type.
	ErrUnsupportedType = errors.New("unsupported question type")
)

// GenerationServiceError wraps a failed round trip to the generation
// service (unreachable, timed out, or malformed response).
type GenerationServiceError struct {
	Batch int
	Err   error
}

func (e *GenerationServiceError) Error() string {
	return fmt.Sprintf("generation service failed on batch %d: %v", e.Batch, e.Err)
}

func (e *GenerationServiceError) Unwrap() error { return e.Err }
