package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrNoStructuralMatch means the line does not match the envelope pattern.
	ErrNoStructuralMatch = errors.New("no structural match")
	// ErrBadTimestamp means the envelope matched but its timestamp did not parse.
	ErrBadTimestamp = errors.New("bad timestamp")
)

// Skip reasons, used as metric labels and in the skip log.
const (
	ReasonNoStructuralMatch = "no_structural_match"
	ReasonBadTimestamp      = "bad_timestamp"
)

// ParseError is returned for a line that produced no record. Kind is one of
// the sentinel errors above; Err carries the underlying cause, if any.
type ParseError struct {
	Kind error
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Reason returns the short label for the error kind.
func (e *ParseError) Reason() string {
	return Reason(e)
}

// Reason maps a parse error to its skip reason. Errors that are not parse
// errors map to "unknown".
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrNoStructuralMatch):
		return ReasonNoStructuralMatch
	case errors.Is(err, ErrBadTimestamp):
		return ReasonBadTimestamp
	default:
		return "unknown"
	}
}
