package skos

import (
	"errors"
	"fmt"
)

var (
	// ErrConstraintViolation is returned when a label, cardinality or
	// membership rule would be broken.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrInvalidRelation is returned for unknown relation kinds and for
	// relations whose target is not a known Concept.
	ErrInvalidRelation = errors.New("invalid relation")

	// ErrCycleDetected is returned when a hierarchical edge would make a
	// Concept reachable from itself.
	ErrCycleDetected = errors.New("cycle detected")

	// ErrInconsistentGraph is returned when an inverse or symmetric edge is
	// missing from the graph.
	ErrInconsistentGraph = errors.New("inconsistent graph")

	// ErrNotFound is returned when no resource with the URI exists.
	ErrNotFound = errors.New("resource not found")

	// ErrWrongKind is returned when a resource exists with a different type.
	ErrWrongKind = errors.New("wrong resource kind")
)

// Error records a failed operation on a resource.
type Error struct {
	Op  string
	URI string
	Err error
}

func (e *Error) Error() string {
	if e.URI == "" {
		return fmt.Sprintf("skos %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("skos %s %s: %v", e.Op, e.URI, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func opError(op, uri string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{Op: op, URI: uri, Err: err}
}

// rejectionKind names the validation sentinel an error wraps, or "" for
// errors that are not validation failures.
func rejectionKind(err error) string {
	switch {
	case errors.Is(err, ErrConstraintViolation):
		return "constraint_violation"
	case errors.Is(err, ErrInvalidRelation):
		return "invalid_relation"
	case errors.Is(err, ErrCycleDetected):
		return "cycle_detected"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrWrongKind):
		return "wrong_kind"
	default:
		return ""
	}
}
