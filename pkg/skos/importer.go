package skos

import (
	"context"
	"fmt"

	"github.com/coolbeans/skosgraph/pkg/store"
	"github.com/coolbeans/skosgraph/pkg/vocab"
)

// ImportResult summarises an Import.
type ImportResult struct {
	// Asserted counts imported triples that were new to the graph.
	Asserted int `json:"asserted"`
	// Completed counts inverse, symmetric, top concept and membership
	// triples added to keep the graph consistent.
	Completed int `json:"completed"`
}

// Import loads external triples. The combined graph is validated first:
// duplicate preferred labels, overlapping label kinds, membership cycles,
// hierarchy cycles and relations to unknown concepts are rejected. Missing
// inverse and symmetric edges are completed. Either every triple is
// committed or none is.
func (s *Session) Import(ctx context.Context, triples []store.Triple) (ImportResult, error) {
	var result ImportResult

	err := s.mutate(ctx, "import", "", func(r Reader) (store.ChangeSet, error) {
		var changes store.ChangeSet

		incoming := s.normalizeTriples(triples)

		existing, err := r.Match(store.Pattern{})
		if err != nil {
			return changes, err
		}
		scratch := store.NewTripleStore()
		if err := scratch.BulkAdd(append(existing, incoming...)); err != nil {
			return changes, fmt.Errorf("%w: %w", ErrConstraintViolation, err)
		}
		sr := NewReader(scratch)

		completions, err := completeTriples(sr, scratch, incoming)
		if err != nil {
			return changes, err
		}

		touched := make(map[string]bool)
		for _, triple := range incoming {
			touched[triple.Subject] = true
		}
		for subject := range touched {
			if err := checkLabelSet(sr, subject); err != nil {
				return changes, err
			}
		}
		if err := findMembershipCycle(sr); err != nil {
			return changes, err
		}
		if err := findHierarchyCycle(sr); err != nil {
			return changes, err
		}

		for _, triple := range incoming {
			present, err := r.graph.Has(triple)
			if err != nil {
				return changes, err
			}
			if !present {
				changes.Assert(triple)
			}
		}
		result.Asserted = len(changes.Add)
		for _, triple := range completions {
			changes.Assert(triple)
		}
		result.Completed = len(changes.Add) - result.Asserted
		return changes, nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	s.logger.Info("import committed", "asserted", result.Asserted, "completed", result.Completed)
	return result, nil
}

func (s *Session) normalizeTriples(triples []store.Triple) []store.Triple {
	if s.normalize == nil {
		return triples
	}

	normalized := make([]store.Triple, len(triples))
	for i, triple := range triples {
		if !store.Node(triple.Subject).IsBlank() {
			triple.Subject = s.normalize(triple.Subject)
		}
		if triple.Object.IsIRI() {
			triple.Object = store.IRI(s.normalize(triple.Object.Value))
		}
		normalized[i] = triple
	}
	return normalized
}

// completeTriples adds the counterpart of every imported relation, top
// concept and ordered list item to scratch and returns what it added.
// Relations whose ends are not Concepts are rejected, except mapping
// relations pointing outside the vocabulary.
func completeTriples(r Reader, scratch *store.TripleStore, imported []store.Triple) ([]store.Triple, error) {
	var added []store.Triple

	assert := func(triple store.Triple) error {
		present, err := scratch.Has(triple)
		if err != nil || present {
			return err
		}
		added = append(added, triple)
		return scratch.Add(triple)
	}

	for _, triple := range imported {
		switch triple.Predicate {
		case vocab.SKOSHasTopConcept:
			if !triple.Object.IsIRI() {
				return nil, fmt.Errorf("%w: top concept of %s is not an IRI", ErrConstraintViolation, triple.Subject)
			}
			if err := assert(store.NewTriple(triple.Object.Value, vocab.SKOSTopConceptOf, store.IRI(triple.Subject))); err != nil {
				return nil, err
			}
			if err := assert(store.NewTriple(triple.Object.Value, vocab.SKOSInScheme, store.IRI(triple.Subject))); err != nil {
				return nil, err
			}
			continue
		case vocab.SKOSTopConceptOf:
			if !triple.Object.IsIRI() {
				return nil, fmt.Errorf("%w: scheme of top concept %s is not an IRI", ErrConstraintViolation, triple.Subject)
			}
			if err := assert(store.NewTriple(triple.Object.Value, vocab.SKOSHasTopConcept, store.IRI(triple.Subject))); err != nil {
				return nil, err
			}
			if err := assert(store.NewTriple(triple.Subject, vocab.SKOSInScheme, triple.Object)); err != nil {
				return nil, err
			}
			continue
		case vocab.SKOSMemberList:
			items, _, err := r.List(triple.Object)
			if err != nil {
				return nil, err
			}
			for _, item := range items {
				if err := assert(store.NewTriple(triple.Subject, vocab.SKOSMember, item)); err != nil {
					return nil, err
				}
			}
			continue
		}

		if isSameAs(triple.Predicate) {
			reverse, missing, err := missingSameAs(r, triple)
			if err != nil {
				return nil, err
			}
			if missing {
				if err := assert(reverse); err != nil {
					return nil, err
				}
			}
			continue
		}

		kind, ok := relationKindForPredicate(triple.Predicate)
		if !ok {
			continue
		}
		if err := checkImportedRelation(r, triple, kind); err != nil {
			return nil, err
		}

		inverse, missing, err := missingInverse(r, triple)
		if err != nil {
			return nil, err
		}
		if missing {
			if err := assert(inverse); err != nil {
				return nil, err
			}
		}
	}
	return added, nil
}

func checkImportedRelation(r Reader, triple store.Triple, kind RelationKind) error {
	if !triple.Object.IsIRI() {
		return fmt.Errorf("%w: %s %s target is not an IRI", ErrInvalidRelation, triple.Subject, kind)
	}

	sourceKind, _, err := r.Kind(triple.Subject)
	if err != nil {
		return err
	}
	if sourceKind != KindConcept {
		return fmt.Errorf("%w: %s has %s but is not a Concept", ErrInvalidRelation, triple.Subject, kind)
	}
	if kind.Mapping() {
		return nil
	}

	targetKind, _, err := r.Kind(triple.Object.Value)
	if err != nil {
		return err
	}
	if targetKind != KindConcept {
		return fmt.Errorf("%w: %s %s %s: target is not a Concept", ErrInvalidRelation, triple.Subject, kind, triple.Object.Value)
	}
	if triple.Subject == triple.Object.Value && !kind.Hierarchical() {
		return fmt.Errorf("%w: %s cannot be %s to itself", ErrInvalidRelation, triple.Subject, kind)
	}
	return nil
}

// checkLabelSet validates all labels of one subject: one preferred label
// per language and no literal shared between label kinds.
func checkLabelSet(r Reader, subject string) error {
	prefs, err := r.Objects(subject, vocab.SKOSPrefLabel)
	if err != nil {
		return err
	}

	byLang := make(map[string]string, len(prefs))
	for _, term := range prefs {
		if !term.IsLiteral() {
			continue
		}
		if first, dup := byLang[term.Lang]; dup {
			return fmt.Errorf("%w: %s has preferred labels %q and %q for language %q",
				ErrConstraintViolation, subject, first, term.Value, term.Lang)
		}
		byLang[term.Lang] = term.Value
	}

	seen := make(map[string]LabelKind)
	for _, kind := range []LabelKind{LabelPreferred, LabelAlternate, LabelHidden} {
		terms, err := r.Objects(subject, kind.Predicate())
		if err != nil {
			return err
		}
		for _, term := range terms {
			if other, dup := seen[term.Key()]; dup {
				return fmt.Errorf("%w: %s uses %s as both %s and %s label",
					ErrConstraintViolation, subject, term, other, kind)
			}
			seen[term.Key()] = kind
		}
	}
	return nil
}

// Retract removes external triples, taking the counterpart of relation
// and top concept triples with them. It returns the number of triples
// removed.
func (s *Session) Retract(ctx context.Context, triples []store.Triple) (int, error) {
	var removed int

	err := s.mutate(ctx, "retract", "", func(r Reader) (store.ChangeSet, error) {
		var changes store.ChangeSet

		retract := func(triple store.Triple) error {
			present, err := r.graph.Has(triple)
			if err != nil || !present {
				return err
			}
			changes.Retract(triple)
			return nil
		}

		for _, triple := range s.normalizeTriples(triples) {
			if err := retract(triple); err != nil {
				return changes, err
			}
			if !triple.Object.IsIRI() {
				continue
			}

			var counterpart store.Triple
			switch triple.Predicate {
			case vocab.SKOSHasTopConcept:
				counterpart = store.NewTriple(triple.Object.Value, vocab.SKOSTopConceptOf, store.IRI(triple.Subject))
			case vocab.SKOSTopConceptOf:
				counterpart = store.NewTriple(triple.Object.Value, vocab.SKOSHasTopConcept, store.IRI(triple.Subject))
			case vocab.OWLSameAs, vocab.OWL2XMLSameAs:
				counterpart = store.NewTriple(triple.Object.Value, triple.Predicate, store.IRI(triple.Subject))
			default:
				kind, ok := relationKindForPredicate(triple.Predicate)
				if !ok {
					continue
				}
				_, counterpart = relationPair(triple.Subject, kind, triple.Object.Value)
			}
			if err := retract(counterpart); err != nil {
				return changes, err
			}
		}
		if err := checkSchemeRetraction(r, changes); err != nil {
			return changes, err
		}
		removed = len(changes.Remove)
		return changes, nil
	})
	return removed, err
}
