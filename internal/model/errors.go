package model

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for terminal, non-retryable conditions.
var (
	// ErrNotFound signals an id-based lookup miss.
	ErrNotFound = errors.New("record not found")

	// ErrNoContentSource signals that no URL is available to extract from.
	ErrNoContentSource = errors.New("no content source available")
)

// AmbiguousError reports a resolution that yielded multiple candidates.
// The candidates are ranked and surfaced for manual disambiguation; the
// system never auto-resolves ambiguity.
type AmbiguousError struct {
	Strategy   string
	Candidates []ModRecord
}

func (e *AmbiguousError) Error() string {
	ids := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		ids[i] = c.ID
	}
	return fmt.Sprintf("ambiguous match (%s): %d candidates: %s", e.Strategy, len(e.Candidates), strings.Join(ids, ", "))
}

// ParseError reports model output that cannot be mapped onto the
// classification schema.
type ParseError struct {
	Reason string
	Raw    string // Offending model output
}

func (e *ParseError) Error() string {
	return "parse classification: " + e.Reason
}

// ClassificationFailedError is the terminal error after the parse retry
// budget is exhausted.
type ClassificationFailedError struct {
	Attempts int
	Last     error
}

func (e *ClassificationFailedError) Error() string {
	return fmt.Sprintf("classification failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ClassificationFailedError) Unwrap() error { return e.Last }

// ValidationError reports a classification that violates an invariant.
// Always terminal.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid classification: " + e.Reason
}

// Stage names the pipeline state in which a failure occurred.
type Stage string

const (
	StageResolving   Stage = "resolving"
	StageExtracting  Stage = "extracting"
	StageClassifying Stage = "classifying"
	StagePersisting  Stage = "persisting"
)

// ProcessError wraps a pipeline failure with the stage and identifier it
// occurred for, so callers can act on or re-queue the input.
type ProcessError struct {
	Stage      Stage
	Identifier Identifier
	Err        error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Stage, e.Identifier.String(), e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }
