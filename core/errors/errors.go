// Package errors provides standardized error types and helpers for the morfem codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying every failure the pipeline can produce
var (
	// ErrMalformedLine indicates a corpus record with the wrong shape
	ErrMalformedLine = errors.New("malformed line")
	// ErrUnknownMorphemeKind indicates an unrecognized KIND token in a morpheme spec
	ErrUnknownMorphemeKind = errors.New("unknown morpheme kind")
	// ErrUnknownClass indicates a 4-field record whose class info matches no speech part
	ErrUnknownClass = errors.New("unknown class")
	// ErrAmbiguousWordform indicates a wordform containing ':' or '/'
	ErrAmbiguousWordform = errors.New("ambiguous wordform")
	// ErrLengthMismatch indicates misaligned scorer inputs
	ErrLengthMismatch = errors.New("length mismatch")
	// ErrUndefinedMetric indicates a zero-denominator metric on a degenerate dataset
	ErrUndefinedMetric = errors.New("undefined metric")
)

// ParseError represents a rejected corpus record with context
type ParseError struct {
	Line    int    // 1-based line number, 0 when not known to the caller
	Token   string // Offending field or token, may be empty
	Message string // Human-readable error message
	Err     error  // Sentinel classifying the rejection
}

func (e *ParseError) Error() string {
	msg := e.Message
	if e.Token != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.Token)
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrMalformedLine
}

// ScoreError represents a fatal scoring failure
type ScoreError struct {
	Metric  string // Metric being computed (e.g. "precision"), may be empty
	Message string // Human-readable error message
	Err     error  // Sentinel classifying the failure
}

func (e *ScoreError) Error() string {
	if e.Metric != "" {
		return fmt.Sprintf("cannot compute %s: %s", e.Metric, e.Message)
	}
	return e.Message
}

func (e *ScoreError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrUndefinedMetric
}

// NewParse creates a ParseError classified by the given sentinel
func NewParse(sentinel error, token, message string) *ParseError {
	return &ParseError{
		Token:   token,
		Message: message,
		Err:     sentinel,
	}
}

// NewScore creates a ScoreError classified by the given sentinel
func NewScore(sentinel error, metric, message string) *ScoreError {
	return &ScoreError{
		Metric:  metric,
		Message: message,
		Err:     sentinel,
	}
}

// WithLine returns a copy of err with the line number attached when err
// is a ParseError; any other error is wrapped with a line prefix.
func WithLine(err error, line int) error {
	if err == nil {
		return nil
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		withLine := *pe
		withLine.Line = line
		return &withLine
	}
	return fmt.Errorf("line %d: %w", line, err)
}

// Recoverable reports whether err is a per-line rejection that corpus
// ingestion may skip. UnknownClass is deliberately excluded: it
// indicates a corpus/vocabulary mismatch and aborts the run.
func Recoverable(err error) bool {
	return errors.Is(err, ErrMalformedLine) ||
		errors.Is(err, ErrUnknownMorphemeKind) ||
		errors.Is(err, ErrAmbiguousWordform)
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
