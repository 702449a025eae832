package skos

import (
	"fmt"

	"github.com/coolbeans/skosgraph/pkg/store"
	"github.com/coolbeans/skosgraph/pkg/vocab"
)

// checkLabel enforces one preferred label per language and keeps
// preferred labels disjoint from alternate and hidden ones.
func checkLabel(r Reader, uri string, label Label) error {
	if label.Kind == LabelPreferred {
		existing, err := r.Objects(uri, vocab.SKOSPrefLabel)
		if err != nil {
			return err
		}
		for _, object := range existing {
			if object.IsLiteral() && object.Lang == label.Lang {
				return fmt.Errorf("%w: preferred label %q@%s already set", ErrConstraintViolation, object.Value, label.Lang)
			}
		}
	}
	return checkDisjoint(r, uri, label)
}

// checkDisjoint rejects a literal that is already a label of another kind.
func checkDisjoint(r Reader, uri string, label Label) error {
	for _, other := range []LabelKind{LabelPreferred, LabelAlternate, LabelHidden} {
		if other == label.Kind {
			continue
		}
		present, err := r.Has(uri, other.Predicate(), label.Term())
		if err != nil {
			return err
		}
		if present {
			return fmt.Errorf("%w: %s is already a %s label", ErrConstraintViolation, label, other)
		}
	}
	return nil
}

// relationPair returns the edge and its inverse or symmetric counterpart.
func relationPair(source string, kind RelationKind, target string) (store.Triple, store.Triple) {
	forward := store.NewTriple(source, kind.Predicate(), store.IRI(target))
	backward := store.NewTriple(target, kind.Inverse().Predicate(), store.IRI(source))
	return forward, backward
}

// addRelationChanges validates a new relation and returns the change set
// asserting both directions.
func addRelationChanges(r Reader, source string, kind RelationKind, target string) (store.ChangeSet, error) {
	var changes store.ChangeSet

	if !kind.Valid() {
		return changes, fmt.Errorf("%w: unknown relation kind %q", ErrInvalidRelation, kind)
	}
	if _, err := requireKind(r, source, KindConcept); err != nil {
		return changes, err
	}
	if err := requireURI(target); err != nil {
		return changes, fmt.Errorf("%w: missing target", ErrInvalidRelation)
	}

	targetKind, exists, err := r.Kind(target)
	if err != nil {
		return changes, err
	}
	if !exists {
		return changes, fmt.Errorf("%w: target %s does not exist", ErrInvalidRelation, target)
	}
	if targetKind != KindConcept {
		return changes, fmt.Errorf("%w: target %s is a %s, not a Concept", ErrInvalidRelation, target, targetKind)
	}

	if kind.Hierarchical() {
		child, parent := source, target
		if kind == Narrower {
			child, parent = target, source
		}
		if err := checkBroaderCycle(r, child, parent); err != nil {
			return changes, err
		}
	} else if source == target {
		return changes, fmt.Errorf("%w: %s cannot be %s to itself", ErrInvalidRelation, source, kind)
	}

	forward, backward := relationPair(source, kind, target)
	changes.Assert(forward)
	changes.Assert(backward)
	return changes, nil
}

// removeRelationChanges returns the change set retracting both directions.
func removeRelationChanges(r Reader, source string, kind RelationKind, target string) (store.ChangeSet, error) {
	var changes store.ChangeSet

	if !kind.Valid() {
		return changes, fmt.Errorf("%w: unknown relation kind %q", ErrInvalidRelation, kind)
	}
	if _, err := requireKind(r, source, KindConcept); err != nil {
		return changes, err
	}

	forward, backward := relationPair(source, kind, target)
	for _, triple := range []store.Triple{forward, backward} {
		present, err := r.graph.Has(triple)
		if err != nil {
			return changes, err
		}
		if present {
			changes.Retract(triple)
		}
	}
	return changes, nil
}

// missingInverse reports the inverse triple of a relation edge if it is
// absent from the graph. Edges to resources that are not Concepts are
// skipped for mapping relations, which may point outside the vocabulary.
func missingInverse(r Reader, triple store.Triple) (store.Triple, bool, error) {
	kind, ok := relationKindForPredicate(triple.Predicate)
	if !ok || !triple.Object.IsIRI() {
		return store.Triple{}, false, nil
	}

	_, backward := relationPair(triple.Subject, kind, triple.Object.Value)
	present, err := r.graph.Has(backward)
	if err != nil || present {
		return store.Triple{}, false, err
	}

	if kind.Mapping() {
		targetKind, exists, err := r.Kind(triple.Object.Value)
		if err != nil {
			return store.Triple{}, false, err
		}
		if !exists || targetKind != KindConcept {
			return store.Triple{}, false, nil
		}
	}
	return backward, true, nil
}
