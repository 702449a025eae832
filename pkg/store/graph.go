package store

import (
	"errors"
	"iter"
)

// ErrStoreUnavailable is returned when the underlying graph cannot be
// reached. Callers must treat it as non-retryable within one logical
// operation and propagate it.
var ErrStoreUnavailable = errors.New("triple store unavailable")

// ErrInvalidTriple is returned when a triple has an empty or malformed
// component.
var ErrInvalidTriple = errors.New("invalid triple")

// Graph is the boundary the SKOS layer uses to read and write triples.
type Graph interface {
	// Add asserts a triple. Adding an existing triple is a no-op.
	Add(triple Triple) error

	// Remove retracts a triple and reports whether it was present.
	Remove(triple Triple) (bool, error)

	// Match returns the triples selected by the pattern as a lazy,
	// restartable sequence. Each iteration observes the graph as of the
	// moment it starts.
	Match(pattern Pattern) (iter.Seq[Triple], error)

	// Has reports whether the exact triple is present.
	Has(triple Triple) (bool, error)

	// Apply removes then adds the triples of a change set as one atomic
	// unit: either every change is applied or none is.
	Apply(changes ChangeSet) error

	// Len returns the number of triples in the graph.
	Len() (int, error)

	// Close releases the graph. Subsequent calls fail with
	// ErrStoreUnavailable.
	Close() error
}

// Collect drains a Match result into a slice.
func Collect(graph Graph, pattern Pattern) ([]Triple, error) {
	seq, err := graph.Match(pattern)
	if err != nil {
		return nil, err
	}

	var triples []Triple
	for triple := range seq {
		triples = append(triples, triple)
	}
	return triples, nil
}
